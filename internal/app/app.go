package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hitoshi/notesapi/internal/auth"
	"github.com/hitoshi/notesapi/internal/config"
	"github.com/hitoshi/notesapi/internal/database"
	"github.com/hitoshi/notesapi/internal/handler"
	"github.com/hitoshi/notesapi/internal/logger"
	"github.com/hitoshi/notesapi/internal/metrics"
	"github.com/hitoshi/notesapi/internal/middleware"
	"github.com/hitoshi/notesapi/internal/note"
	"github.com/hitoshi/notesapi/internal/repository"
	"github.com/hitoshi/notesapi/internal/validation"
)

const (
	defaultPort     = "5000"
	shutdownTimeout = 30 * time.Second
)

// Init loads the Config and installs the global slog logger.
// Logs go to w, formatted as LOG_FORMAT and filtered at LOG_LEVEL.
func Init(w io.Writer) (*config.Config, error) {
	// Logging must work before the config is read.
	logger.SetupDefault(w)

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Configure(w, cfg.LogLevel, cfg.LogFormat)
	return cfg, nil
}

// Run is the application entry point. Pass os.Args[1:] as args.
// serve stops on SIGINT or SIGTERM.
func Run(w io.Writer, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return RunContext(ctx, w, args)
}

// RunContext is Run with the lifetime of serve bound to ctx.
func RunContext(ctx context.Context, w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck runs inside the container and skips full initialisation.
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = defaultPort
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	case CommandRollback:
		return runRollback(cfg)
	default:
		return runServe(ctx, cfg)
	}
}

// stores bundles the repositories selected by DATABASE_URL.
type stores struct {
	users  repository.UserRepository
	notes  repository.NoteRepository
	pinger repository.Pinger
	close  func() error
}

// openStores returns the in-memory store for memory:// URLs and the
// PostgreSQL repositories otherwise. The database must answer a ping.
func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	if cfg.UsesMemoryStore() {
		slog.Warn("using in-memory store, data is lost on exit")
		mem := repository.NewMemoryStore()
		return &stores{
			users:  mem.Users(),
			notes:  mem.Notes(),
			pinger: mem,
			close:  func() error { return nil },
		}, nil
	}

	db, err := database.Open(cfg.DatabaseURL, cfg.DBMaxOpenConns)
	if err != nil {
		return nil, err
	}

	if err := database.Wait(ctx, db, database.DefaultRetryPolicy()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")
	return &stores{
		users:  repository.NewPostgresUserRepo(db),
		notes:  repository.NewPostgresNoteRepo(db),
		pinger: db,
		close:  db.Close,
	}, nil
}

// newRouter wires services, middleware and metrics over st.
// The returned RateLimiter must be stopped by the caller.
func newRouter(cfg *config.Config, st *stores) (http.Handler, *middleware.RateLimiter) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(reg)

	v := validation.New()
	authService := auth.NewService(
		st.users,
		auth.NewBcryptHasher(cfg.BcryptCost),
		auth.NewTokenService([]byte(cfg.JWTSecret)),
		v,
		auth.WithRecorder(collector),
	)
	noteService := note.NewService(
		st.notes,
		v,
		note.WithRecorder(collector),
	)

	rateLimiter := middleware.NewRateLimiter(
		middleware.NewRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitAuth),
	)

	router := handler.NewRouter(&handler.RouterDeps{
		Logger:            slog.Default(),
		Authenticator:     authService,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		Metrics:           collector,
		MetricsHandler:    metrics.SetupMetricsRoute(reg),
		AuthService:       authService,
		NoteService:       noteService,
		Pinger:            st.pinger,
	})
	return router, rateLimiter
}

// runServe starts the API server and shuts it down gracefully once ctx is done.
func runServe(ctx context.Context, cfg *config.Config) error {
	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.close()

	router, rateLimiter := newRouter(cfg, st)
	defer rateLimiter.Stop()

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", server.Addr, err)
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("API server starting", slog.String("addr", ln.Addr().String()))
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down API server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate applies all pending migrations.
func runMigrate(cfg *config.Config) error {
	if cfg.UsesMemoryStore() {
		return errors.New("migrate requires a PostgreSQL DATABASE_URL")
	}

	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runRollback reverts the most recent migration.
func runRollback(cfg *config.Config) error {
	if cfg.UsesMemoryStore() {
		return errors.New("rollback requires a PostgreSQL DATABASE_URL")
	}

	slog.Info("rolling back last database migration",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RollbackMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("rollback failed: %w", err)
	}

	slog.Info("database rollback completed successfully")
	return nil
}

// runHealthcheck probes /health on the local server.
// It exists for distroless images, which have no curl.
func runHealthcheck(port string) error {
	target := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(target)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL hides the password in a database URL.
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "***"
	}
	return u.Redacted()
}
