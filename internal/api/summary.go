package api

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// Cards is the deck offered by the voting UI. Submitted values are not
// checked against it.
var Cards = []string{"0", "1", "2", "3", "5", "8", "13", "21", "34", "55", "89", "?", "☕"}

type VoteCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

type VoteSummary struct {
	Total        int         `json:"total"`
	NumericVotes int         `json:"numericVotes"`
	Average      float64     `json:"average"`
	Breakdown    []VoteCount `json:"breakdown"`
}

// Summarize computes the revealed-results view. Non-numeric values ("?",
// "☕") count toward the total and the breakdown but not the average. The
// average is rounded to one decimal place and is 0 when no vote is numeric.
func Summarize(votes map[string]string) VoteSummary {
	summary := VoteSummary{Total: len(votes)}
	counts := make(map[string]int)
	sum := 0.0
	for _, value := range votes {
		counts[value]++
		number, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil || math.IsNaN(number) || math.IsInf(number, 0) {
			continue
		}
		sum += number
		summary.NumericVotes++
	}
	if summary.NumericVotes > 0 {
		summary.Average = math.Round(sum/float64(summary.NumericVotes)*10) / 10
	}
	summary.Breakdown = make([]VoteCount, 0, len(counts))
	for value, count := range counts {
		summary.Breakdown = append(summary.Breakdown, VoteCount{Value: value, Count: count})
	}
	sort.Slice(summary.Breakdown, func(i, j int) bool {
		return cardRank(summary.Breakdown[i].Value) < cardRank(summary.Breakdown[j].Value) ||
			(cardRank(summary.Breakdown[i].Value) == cardRank(summary.Breakdown[j].Value) &&
				summary.Breakdown[i].Value < summary.Breakdown[j].Value)
	})
	return summary
}

func cardRank(value string) int {
	for i, card := range Cards {
		if card == value {
			return i
		}
	}
	return len(Cards)
}
