package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/yuin/goldmark"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bcc-consulting/outreach-cli/internal/monitoring"
	"github.com/bcc-consulting/outreach-cli/internal/replies"
	"github.com/bcc-consulting/outreach-cli/internal/sendlog"
)

var (
	servePort     int
	servePoll     bool
	serveInterval time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the status dashboard server",
	Long:  "Serves pipeline status, outreach metrics, and the latest lead report over HTTP. With --poll it also scans the inboxes for replies on an interval.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		checkpoints := newCheckpointStore()
		collector := &monitoring.Collector{
			LedgerPath:   cfg.Sender.LedgerPath,
			DraftDir:     cfg.Outreach.DraftDir,
			Checkpoints:  checkpoints,
			FollowupWait: cfg.Followup.FollowupWait(),
		}

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{http.MethodGet},
		}))

		r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
		})

		r.Get("/api/status", func(w http.ResponseWriter, _ *http.Request) {
			snap, err := collector.Collect()
			if err != nil {
				http.Error(w, `{"error":"collect failed"}`, http.StatusInternalServerError)
				return
			}
			monitoring.RecordSnapshot(snap)
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(snap)
		})

		r.Get("/api/checkpoint", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(checkpoints.Load())
		})

		r.Get("/report", func(w http.ResponseWriter, _ *http.Request) {
			state := checkpoints.Load()
			if state.ReportFile == "" {
				http.Error(w, "no report generated yet", http.StatusNotFound)
				return
			}
			src, err := os.ReadFile(state.ReportFile)
			if err != nil {
				http.Error(w, "report file missing", http.StatusNotFound)
				return
			}
			var buf bytes.Buffer
			if err := goldmark.Convert(src, &buf); err != nil {
				http.Error(w, "render failed", http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			buf.WriteTo(w)
		})

		r.Handle("/metrics", promhttp.Handler())

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		g, gctx := errgroup.WithContext(ctx)

		g.Go(func() error {
			zap.L().Info("starting server", zap.Int("port", port))
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return eris.Wrap(err, "server listen")
			}
			return nil
		})

		g.Go(func() error {
			<-gctx.Done()
			zap.L().Info("shutting down server")
			return srv.Shutdown(cmd.Context())
		})

		alerter := monitoring.NewAlerter(cfg.Monitor)
		checker := monitoring.NewChecker(collector, alerter, cfg.Monitor)
		g.Go(func() error {
			checker.Run(gctx)
			return nil
		})

		if servePoll {
			g.Go(func() error {
				pollReplies(gctx)
				return nil
			})
		}

		return g.Wait()
	},
}

// pollReplies scans the inboxes on a fixed interval until the context ends.
// Scan errors are logged, not fatal, so a flaky IMAP server does not take
// the dashboard down with it.
func pollReplies(ctx context.Context) {
	log := zap.L().With(zap.Duration("interval", serveInterval))
	log.Info("reply polling enabled")

	ticker := time.NewTicker(serveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tracker := &replies.Tracker{
				Ledger:   sendlog.Load(cfg.Sender.LedgerPath),
				Readers:  inboxReaders(),
				Notifier: newNotifier(),
				Lookback: time.Duration(cfg.Replies.LookbackDays) * 24 * time.Hour,
			}
			matches, err := tracker.Scan(ctx)
			if err != nil {
				log.Warn("reply poll failed", zap.Error(err))
				continue
			}
			if len(matches) > 0 {
				log.Info("reply poll found matches", zap.Int("count", len(matches)))
			}
		}
	}
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().BoolVar(&servePoll, "poll", false, "scan inboxes for replies periodically")
	serveCmd.Flags().DurationVar(&serveInterval, "interval", 15*time.Minute, "reply poll interval")

	rootCmd.AddCommand(serveCmd)
}
