package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/sagarc03/davgate"
	"github.com/sagarc03/davgate/audit"
	"github.com/sagarc03/davgate/config"
	"github.com/sagarc03/davgate/dav"
	"github.com/sagarc03/davgate/database"
	"github.com/sagarc03/davgate/filesystem"
	davhttp "github.com/sagarc03/davgate/http"
	"github.com/sagarc03/davgate/lockbackend"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the WebDAV server",
	Long: `Start the WebDAV server on the configured listen address.

Credentials may come from flags, DAVGATE_AUTH_USERNAME/DAVGATE_AUTH_PASSWORD,
or auth.password_file in the config file. Prefer the latter two: flag values
are visible in the process list.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("listen", "l", "", "listen address (default: 127.0.0.1:4918)")
	serveCmd.Flags().StringP("dir", "d", "", "directory to serve (default: ./data)")
	serveCmd.Flags().StringP("username", "u", "", "accepted username")
	serveCmd.Flags().StringP("password", "p", "", "accepted password")
	serveCmd.Flags().String("password-file", "", "JSON credential file")
	serveCmd.Flags().String("prefix", "", "mount prefix stripped before serving, e.g. /dav")
	serveCmd.Flags().String("metrics-listen", "", "admin listener for /metrics and /healthz (default: 127.0.0.1:9418)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	files, _ := cmd.Flags().GetStringArray("config")
	cfg, err := config.Load(files, cmd.Flags())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	cred, err := cfg.Auth.Credential()
	if err != nil {
		return err
	}

	router, err := davgate.NewRouter(cfg.Server.Prefix)
	if err != nil {
		return fmt.Errorf("invalid prefix: %w", err)
	}

	if err = os.MkdirAll(cfg.Storage.Path, 0o750); err != nil {
		return fmt.Errorf("create storage directory: %w", err)
	}

	root, err := os.OpenRoot(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("open storage root: %w", err)
	}
	defer func() { _ = root.Close() }()

	store := filesystem.New(root, filesystem.Options{
		CaseInsensitive: cfg.Storage.CaseInsensitive,
		FollowSymlinks:  cfg.Storage.FollowSymlinks,
		MacOS:           cfg.Storage.MacOS,
	})

	locks, err := lockbackend.New(cfg.Lock)
	if err != nil {
		return fmt.Errorf("create lock backend: %w", err)
	}

	engine := dav.NewEngine(store, locks, slog.Default())

	gate := davgate.NewGate(davgate.NewCredentialStore(cred), davgate.GateOptions{
		LogCredentials: cfg.Auth.LogCredentials,
	})

	var (
		auditor    davhttp.Auditor
		auditStore davhttp.Pinger
		auditStats davhttp.AuditStats
	)
	if cfg.Audit.Enabled {
		repo, closeDB, err := database.Connect(ctx, cfg.Audit.Database)
		if err != nil {
			return fmt.Errorf("connect audit database: %w", err)
		}
		defer closeDB()

		svc := audit.NewService(repo, slog.Default(), audit.WithBufferSize(cfg.Audit.Buffer))
		svc.Start(ctx)
		// Runs after the servers have drained, so no handler can still be
		// recording.
		defer svc.Stop()

		auditor, auditStore, auditStats = svc, repo, svc
		slog.Info("audit trail enabled", "type", cfg.Audit.Database.Type)
	}

	var metrics *davhttp.Metrics
	reg := prometheus.NewRegistry()
	if cfg.Metrics.Enabled {
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		metrics = davhttp.NewMetrics(reg)
		if auditStats != nil {
			davhttp.RegisterAuditMetrics(reg, auditStats)
		}
	}

	handler := davhttp.NewHandler(&davhttp.HandlerConfig{
		Router:  router,
		CORS:    cfg.CORS,
		Metrics: metrics,
		Auditor: auditor,
		Logger:  slog.Default(),
	}, gate, engine)

	// No read or write timeouts: uploads and downloads of large files may
	// legitimately take longer than any fixed bound.
	server := &http.Server{
		Addr:              cfg.Server.Listen,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	servers := []*http.Server{server}

	if cfg.Metrics.Enabled {
		admin := &http.Server{
			Addr:              cfg.Metrics.Listen,
			Handler:           davhttp.AdminRouter(reg, davhttp.NewHealthChecker(store, auditStore, auditStats, version)),
			ReadHeaderTimeout: 10 * time.Second,
		}
		servers = append(servers, admin)

		go func() {
			slog.Info("starting admin server", "addr", admin.Addr)
			if err := admin.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("admin server error", "err", err)
			}
		}()
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigCh)

		select {
		case <-sigCh:
		case <-ctx.Done():
		}

		slog.Info("shutting down server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()

		for _, s := range servers {
			if err := s.Shutdown(shutdownCtx); err != nil {
				slog.Error("server shutdown error", "addr", s.Addr, "err", err)
			}
		}
	}()

	slog.Info("starting server",
		"addr", server.Addr,
		"dir", cfg.Storage.Path,
		"prefix", router.Prefix(),
		"lock_backend", cfg.Lock.Backend,
	)

	err = server.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		cancel()
		<-shutdownDone
		return fmt.Errorf("server error: %w", err)
	}

	<-shutdownDone
	return nil
}
