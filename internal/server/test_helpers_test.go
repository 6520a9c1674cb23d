package server

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"sprint-poker/internal/config"
	"sprint-poker/internal/db/dbtest"

	"golang.org/x/crypto/bcrypt"
)

func testConfig() config.Config {
	cfg := config.Default()
	cfg.AdminTokenCost = bcrypt.MinCost
	return cfg
}

func newTestServer(t *testing.T, cfg config.Config) *httptest.Server {
	t.Helper()
	srv := New(dbtest.Open(t), cfg)
	if err := srv.Bootstrap(context.Background()); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	return startTestServer(t, srv.Handler())
}

func startTestServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()
	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Skipf("skipping test; listen unavailable: %v", err)
	}
	ts := &httptest.Server{
		Listener: listener,
		Config:   &http.Server{Handler: handler},
	}
	ts.Start()
	t.Cleanup(ts.Close)
	return ts
}
