package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/vango-dev/patchwork/internal/config"
	"github.com/vango-dev/patchwork/internal/snapshot"
	"github.com/vango-dev/patchwork/internal/treefile"
	"github.com/vango-dev/patchwork/pkg/dom"
	"github.com/vango-dev/patchwork/pkg/live"
	"github.com/vango-dev/patchwork/pkg/observe"
	"github.com/vango-dev/patchwork/pkg/reconcile"
	"github.com/vango-dev/patchwork/pkg/remote"
)

const shutdownTimeout = 5 * time.Second

func serveCmd(flags *globalFlags) *cobra.Command {
	var (
		port      int
		host      string
		interval  time.Duration
		loop      bool
		watch     bool
		snapshots bool
	)

	cmd := &cobra.Command{
		Use:   "serve <tree-file>",
		Short: "Stream the frames to browsers",
		Long: `Serve patches the file's frames one by one into a live tree and
streams every mutation batch to connected WebSocket clients.

Routes:
  GET /         current HTML
  GET /ws       mutation stream
  GET /metrics  Prometheus metrics (serve.metrics in patchwork.json)

Examples:
  patchwork serve app.yaml
  patchwork serve app.yaml --interval 500ms --loop
  patchwork serve app.yaml --watch --port 9000`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := flags.load(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.Serve.Port = port
			}
			if host != "" {
				cfg.Serve.Host = host
			}
			if watch {
				cfg.Serve.Watch = true
			}

			s := &server{
				cfg:      cfg,
				logger:   logger,
				path:     args[0],
				interval: interval,
				loop:     loop,
			}
			if snapshots {
				if cfg.Snapshot.Bucket == "" {
					return fmt.Errorf("--snapshots needs snapshot.bucket in %s", config.ConfigFileName)
				}
				client, err := snapshot.NewClient(cmd.Context(), cfg.Snapshot)
				if err != nil {
					return err
				}
				s.uploader = snapshot.NewUploader(client, cfg.Snapshot.Bucket,
					snapshot.WithPrefix(cfg.Snapshot.Prefix),
					snapshot.WithLogger(logger),
				)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			fmt.Fprint(out, banner)
			info(out, "serve")
			fmt.Fprintln(out)
			return s.run(ctx, out)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from patchwork.json)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from patchwork.json)")
	cmd.Flags().DurationVar(&interval, "interval", time.Second, "Delay between frames")
	cmd.Flags().BoolVar(&loop, "loop", false, "Start over after the last frame")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Reload the tree file when it changes")
	cmd.Flags().BoolVar(&snapshots, "snapshots", false, "Upload the HTML of every frame to the snapshot bucket")

	return cmd
}

// server plays a tree file into a live hub.
type server struct {
	cfg      *config.Config
	logger   *slog.Logger
	path     string
	interval time.Duration
	loop     bool
	uploader *snapshot.Uploader

	target   *remote.Target
	hub      *live.Hub
	observer reconcile.Observer
	player   *player
	frame    int
	modTime  time.Time
}

func (s *server) run(ctx context.Context, out io.Writer) error {
	f, err := treefile.Load(s.path)
	if err != nil {
		return err
	}
	s.modTime = modTime(s.path)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observe.NewMetrics(observe.WithRegistry(registry))
	s.observer = observe.Multi(metrics, observe.NewTracer())

	s.target = remote.NewTarget(dom.NewDocument())
	s.hub = live.NewHub(s.target,
		live.WithPingInterval(s.cfg.PingInterval()),
		live.WithSendBuffer(s.cfg.Serve.SendBuffer),
		live.WithLogger(s.logger),
		live.WithMetrics(metrics),
	)
	s.player = newPlayer(f, s.target, s.target.Root(), s.logger, reconcile.WithObserver(s.observer))

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	if s.cfg.Serve.Metrics {
		r.Handle(s.cfg.Serve.MetricsPath, promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
	}
	r.Mount("/", s.hub.Routes())

	srv := &http.Server{
		Addr:              s.cfg.ServeAddress(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", srv.Addr, err)
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "address", srv.Addr, "frames", f.Len())
		errCh <- srv.Serve(ln)
	}()
	success(out, "Serving %s on http://%s", s.path, srv.Addr)

	playErr := s.play(ctx, errCh)

	s.hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("shutdown error", "error", err)
	}
	if playErr != nil {
		return playErr
	}
	if err := <-errCh; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info("server shutdown complete")
	return nil
}

// play advances one frame per interval until ctx is done or the server
// stops. With watch enabled, a changed file is reloaded and its first
// frame patched in.
func (s *server) play(ctx context.Context, serveErr <-chan error) error {
	if err := s.advance(ctx, 0); err != nil {
		return err
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	var poll <-chan time.Time
	if s.cfg.Serve.Watch {
		t := time.NewTicker(s.cfg.PollInterval())
		defer t.Stop()
		poll = t.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-serveErr:
			if err == nil {
				err = http.ErrServerClosed
			}
			return fmt.Errorf("server stopped: %w", err)
		case <-ticker.C:
			next := s.frame + 1
			if next >= s.player.file.Len() {
				if !s.loop {
					continue
				}
				next = 0
			}
			if err := s.advance(ctx, next); err != nil {
				s.logger.Error("frame failed", "frame", next, "error", err)
			}
		case <-poll:
			s.reloadIfChanged(ctx)
		}
	}
}

// advance patches frame i into the hub's tree and broadcasts the batch.
func (s *server) advance(ctx context.Context, i int) error {
	var err error
	seq := s.hub.Update(func() {
		_, err = s.player.step(ctx, i)
	})
	if err != nil {
		return err
	}
	s.frame = i
	s.logger.Info("frame", "frame", i, "seq", seq, "clients", s.hub.ClientCount())

	if s.uploader != nil {
		if _, err := s.uploader.Upload(ctx, fmt.Sprintf("seq-%d", seq), s.target.Document()); err != nil {
			s.logger.Warn("snapshot upload failed", "seq", seq, "error", err)
		}
	}
	return nil
}

func (s *server) reloadIfChanged(ctx context.Context) {
	mt := modTime(s.path)
	if mt.IsZero() || !mt.After(s.modTime) {
		return
	}
	s.modTime = mt

	f, err := treefile.Load(s.path)
	if err != nil {
		s.logger.Error("reload failed", "path", s.path, "error", err)
		return
	}
	s.hub.Update(func() {
		s.player.reload(f, s.target, reconcile.WithObserver(s.observer))
	})
	s.logger.Info("reloaded", "path", s.path, "frames", f.Len())
	if err := s.advance(ctx, 0); err != nil {
		s.logger.Error("frame failed", "frame", 0, "error", err)
	}
}

func modTime(path string) time.Time {
	fi, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return fi.ModTime()
}
