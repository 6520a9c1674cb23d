package api

import (
	"encoding/json"
	"testing"
)

func TestSummarizeExcludesNonNumericFromAverage(t *testing.T) {
	summary := Summarize(map[string]string{
		"ada":    "5",
		"bob":    "8",
		"cleo":   "?",
		"dmitri": "☕",
	})
	if summary.Total != 4 {
		t.Fatalf("expected total 4, got %d", summary.Total)
	}
	if summary.NumericVotes != 2 {
		t.Fatalf("expected 2 numeric votes, got %d", summary.NumericVotes)
	}
	if summary.Average != 6.5 {
		t.Fatalf("expected average 6.5, got %v", summary.Average)
	}
	want := []VoteCount{{"5", 1}, {"8", 1}, {"?", 1}, {"☕", 1}}
	if len(summary.Breakdown) != len(want) {
		t.Fatalf("unexpected breakdown %#v", summary.Breakdown)
	}
	for i := range want {
		if summary.Breakdown[i] != want[i] {
			t.Fatalf("breakdown[%d] = %#v, want %#v", i, summary.Breakdown[i], want[i])
		}
	}
}

func TestSummarizeRoundsAndHandlesEmpty(t *testing.T) {
	if got := Summarize(nil); got.Total != 0 || got.Average != 0 || len(got.Breakdown) != 0 {
		t.Fatalf("unexpected empty summary %#v", got)
	}
	summary := Summarize(map[string]string{"a": "1", "b": "2", "c": "2"})
	if summary.Average != 1.7 {
		t.Fatalf("expected average 1.7, got %v", summary.Average)
	}
	if summary.Breakdown[1].Value != "2" || summary.Breakdown[1].Count != 2 {
		t.Fatalf("expected two votes for 2, got %#v", summary.Breakdown)
	}
}

func TestVoteValueAcceptsStringsAndNumbers(t *testing.T) {
	cases := map[string]VoteValue{
		`{"voteValue":"?"}`:  {Value: "?", Set: true},
		`{"voteValue":13}`:   {Value: "13", Set: true},
		`{"voteValue":0.5}`:  {Value: "0.5", Set: true},
		`{"voteValue":null}`: {},
		`{}`:                 {},
	}
	for body, want := range cases {
		var req VoteRequest
		if err := json.Unmarshal([]byte(body), &req); err != nil {
			t.Fatalf("decode %s: %v", body, err)
		}
		if req.VoteValue != want {
			t.Fatalf("decode %s: got %#v, want %#v", body, req.VoteValue, want)
		}
	}
	var req VoteRequest
	if err := json.Unmarshal([]byte(`{"voteValue":[1]}`), &req); err == nil {
		t.Fatalf("expected array vote value to be rejected")
	}
}
