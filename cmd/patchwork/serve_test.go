package main

import (
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/vango-dev/patchwork/internal/config"
	"github.com/vango-dev/patchwork/internal/treefile"
	"github.com/vango-dev/patchwork/pkg/dom"
	"github.com/vango-dev/patchwork/pkg/live"
	"github.com/vango-dev/patchwork/pkg/remote"
)

func TestServePortInUse(t *testing.T) {
	f := newFixture(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()
	port := ln.Addr().(*net.TCPAddr).Port

	done := make(chan struct{})
	var (
		out    string
		runErr error
	)
	go func() {
		defer close(done)
		out, runErr = f.run(t, "serve", f.tree, "--host", "127.0.0.1", "--port", strconv.Itoa(port))
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("serve kept running on a port that is taken")
	}
	if runErr == nil || !strings.Contains(runErr.Error(), "listen on") {
		t.Errorf("error = %v, want a listen failure", runErr)
	}
	if strings.Contains(out, "Serving") {
		t.Errorf("serve announced itself before failing:\n%s", out)
	}
}

func TestPlayStopsWhenServerFails(t *testing.T) {
	f := newFixture(t)
	file, err := treefile.Load(f.tree)
	if err != nil {
		t.Fatal(err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	target := remote.NewTarget(dom.NewDocument())
	hub := live.NewHub(target, live.WithLogger(logger))
	defer hub.Close()

	s := &server{
		cfg:      config.New(),
		logger:   logger,
		path:     f.tree,
		interval: time.Hour,
		target:   target,
		hub:      hub,
		player:   newPlayer(file, target, target.Root(), logger),
	}

	serveErr := make(chan error, 1)
	serveErr <- stderrors.New("accept: too many open files")

	done := make(chan error, 1)
	go func() { done <- s.play(context.Background(), serveErr) }()

	select {
	case err := <-done:
		if err == nil || !strings.Contains(err.Error(), "too many open files") {
			t.Errorf("play error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("play kept running after the server stopped")
	}
	if got := target.Document().HTML(); got != "<ul><li>A</li><li>B</li></ul>" {
		t.Errorf("first frame HTML = %q", got)
	}
}
