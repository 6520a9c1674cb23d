package web

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestHomeRendersGlobalBoards(t *testing.T) {
	var buf bytes.Buffer
	err := Home(HomeData{GlobalBoards: true, GlobalSessionID: "GLOBAL00", PollSingleSeconds: 2, PollMultiSeconds: 5}).Render(context.Background(), &buf)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	html := buf.String()
	if !strings.Contains(html, "GLOBAL00") || !strings.Contains(html, `data-poll-single="2"`) {
		t.Fatalf("expected global board section and poll intervals")
	}
}

func TestHomeHidesGlobalBoards(t *testing.T) {
	var buf bytes.Buffer
	if err := Home(HomeData{}).Render(context.Background(), &buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(buf.String(), "Shared boards") {
		t.Fatalf("expected no global board section")
	}
}
