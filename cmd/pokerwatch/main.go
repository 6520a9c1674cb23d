package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"sprint-poker/internal/api"
	"sprint-poker/internal/config"
	"sprint-poker/internal/poller"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Printf("failed to load .env: %v", err)
	}
	cfg := config.Load()

	serverURL := flag.String("server", "http://localhost:"+cfg.Port, "server base URL")
	sessionID := flag.String("session", poller.GlobalSessionID, "session ID to follow")
	retro := flag.Bool("retro", false, "follow a retro board instead of a poker session")
	name := flag.String("name", "", "voter name, used with -vote")
	vote := flag.String("vote", "", "card to submit once before following")
	adminToken := flag.String("token", "", "admin token, reported as admin when valid")
	flag.Parse()

	kind := poller.Poker
	if *retro {
		kind = poller.Retro
	}
	interval := poller.IntervalFor(*sessionID,
		time.Duration(cfg.PollSingleSeconds)*time.Second,
		time.Duration(cfg.PollMultiSeconds)*time.Second)

	client := poller.NewClient(*serverURL, *sessionID, nil)
	p := poller.New(client, kind,
		poller.WithInterval(interval),
		poller.WithVoterName(*name),
		poller.WithAdminToken(*adminToken),
		poller.OnSession(func(isAdmin bool) {
			log.Printf("session=%s admin=%t", strings.ToUpper(*sessionID), isAdmin)
		}),
		poller.OnStory(logStory),
		poller.OnVotes(logVotes),
		poller.OnMeeting(logMeeting),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *vote != "" && kind == poller.Poker {
		if *name == "" {
			log.Fatal("-name is required with -vote")
		}
		p.SelectVote(*vote)
		if err := p.ConfirmVote(ctx); err != nil {
			log.Fatalf("vote failed: %v", err)
		}
		log.Printf("vote submitted voter=%s value=%s", *name, *vote)
	}

	log.Printf("following session=%s interval=%s", strings.ToUpper(*sessionID), interval)
	if err := p.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal(err)
	}
}

func logStory(resp api.StoryResponse) {
	if resp.ID == nil {
		log.Println("no active story")
		return
	}
	log.Printf("story id=%d description=%q", *resp.ID, resp.Description)
}

func logVotes(resp api.VotesResponse) {
	if !resp.IsRevealed {
		log.Printf("votes hidden count=%d", resp.VoteCount)
		return
	}
	names := make([]string, 0, len(resp.Votes))
	for voter := range resp.Votes {
		names = append(names, voter)
	}
	sort.Strings(names)
	for _, voter := range names {
		log.Printf("  %s: %s", voter, resp.Votes[voter])
	}
	if resp.Summary != nil {
		log.Printf("votes revealed count=%d average=%.1f numeric=%d", resp.VoteCount, resp.Summary.Average, resp.Summary.NumericVotes)
		return
	}
	log.Printf("votes revealed count=%d", resp.VoteCount)
}

func logMeeting(resp *api.MeetingResponse) {
	if resp == nil {
		log.Println("no active meeting")
		return
	}
	log.Printf("meeting %q columns=%d items=%d", resp.Title, resp.ColumnCount, resp.ItemCount)
	for _, column := range resp.Columns {
		log.Printf("  %s (%d)", column.Title, len(column.Items))
	}
}
