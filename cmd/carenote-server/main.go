package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/carenote/carenote/internal/config"
	"github.com/carenote/carenote/internal/domain/audit"
	"github.com/carenote/carenote/internal/domain/comments"
	"github.com/carenote/carenote/internal/domain/highlights"
	"github.com/carenote/carenote/internal/domain/identity"
	"github.com/carenote/carenote/internal/domain/records"
	"github.com/carenote/carenote/internal/platform/auth"
	"github.com/carenote/carenote/internal/platform/db"
	"github.com/carenote/carenote/internal/platform/middleware"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "carenote-server",
		Short: "CareNote clinical care-note API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID", "If-Match"},
	}))

	// Auth middleware
	if cfg.IsDev() {
		e.Use(auth.DevAuthMiddleware())
	} else {
		e.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.AuthIssuer,
			Audience:   cfg.AuthAudience,
			JWKSURL:    cfg.AuthJWKSURL,
			SigningKey: []byte(cfg.AuthSigningKey),
		}))
	}

	// API group
	apiV1 := e.Group("/api/v1")

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))

	// Repositories
	patientRepo := identity.NewRepoPG(pool)
	auditRepo := audit.NewRepoPG(pool)
	entryRepo := records.NewEntryRepoPG(pool)
	snapshotRepo := records.NewSnapshotRepoPG(pool)
	highlightRepo := highlights.NewRepoPG(pool)
	commentRepo := comments.NewRepoPG(pool)
	txRunner := db.NewTxRunner(pool)

	// Services
	identitySvc := identity.NewService(patientRepo)
	recordsSvc := records.NewService(
		entryRepo,
		snapshotRepo,
		&recordsPatientDirectory{patients: patientRepo},
		auditRepo,
		txRunner,
	)
	highlightsSvc := highlights.NewService(
		highlightRepo,
		&entrySourceAdapter{entries: entryRepo},
		&highlightsPatientDirectory{patients: patientRepo},
		auditRepo,
		txRunner,
	)
	commentsSvc := comments.NewService(
		commentRepo,
		&entryDirectoryAdapter{entries: entryRepo, patients: patientRepo},
		txRunner,
	)

	// Handlers
	identity.NewHandler(identitySvc).RegisterRoutes(apiV1)
	audit.NewHandler(auditRepo).RegisterRoutes(apiV1)
	records.NewHandler(recordsSvc, &glanceAdapter{highlights: highlightsSvc}).RegisterRoutes(apiV1)
	highlights.NewHandler(highlightsSvc).RegisterRoutes(apiV1)
	comments.NewHandler(commentsSvc).RegisterRoutes(apiV1)

	// Health checks
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}

// recordsPatientDirectory adapts the identity repository to the
// records.PatientDirectory interface, avoiding circular imports between the
// records and identity packages.
type recordsPatientDirectory struct {
	patients identity.Repository
}

func (d *recordsPatientDirectory) GetPatient(ctx context.Context, id uuid.UUID) (*records.PatientRef, error) {
	p, err := d.patients.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return nil, records.ErrPatientNotFound
		}
		return nil, err
	}
	return &records.PatientRef{ID: p.ID, ClinicID: p.ClinicID, DisplayName: p.DisplayName}, nil
}

// highlightsPatientDirectory does the same for the highlights package.
type highlightsPatientDirectory struct {
	patients identity.Repository
}

func (d *highlightsPatientDirectory) GetPatient(ctx context.Context, id uuid.UUID) (*highlights.PatientRef, error) {
	p, err := d.patients.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return nil, highlights.ErrPatientNotFound
		}
		return nil, err
	}
	return &highlights.PatientRef{ID: p.ID, ClinicID: p.ClinicID}, nil
}

// entrySourceAdapter feeds the highlight scanner from the records repository.
type entrySourceAdapter struct {
	entries records.EntryRepository
}

func (a *entrySourceAdapter) RecentNonAI(ctx context.Context, patientID uuid.UUID, limit int) ([]highlights.SourceEntry, error) {
	es, err := a.entries.RecentNonAI(ctx, patientID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]highlights.SourceEntry, 0, len(es))
	for _, e := range es {
		out = append(out, highlights.SourceEntry{ID: e.ID, Content: e.Content})
	}
	return out, nil
}

// glanceAdapter exposes visible highlights to the care-note view.
type glanceAdapter struct {
	highlights *highlights.Service
}

func (a *glanceAdapter) VisibleHighlights(ctx context.Context, actor auth.Actor, patientID uuid.UUID) ([]records.GlanceHighlight, error) {
	hs, err := a.highlights.Visible(ctx, actor, patientID)
	if err != nil {
		return nil, err
	}
	out := make([]records.GlanceHighlight, 0, len(hs))
	for _, h := range hs {
		out = append(out, records.GlanceHighlight{
			ID:         h.ID,
			EntryID:    h.EntryID,
			Text:       h.Text,
			RiskReason: h.RiskReason,
			SpanStart:  h.SpanStart,
			SpanEnd:    h.SpanEnd,
			Status:     h.Status,
		})
	}
	return out, nil
}

// entryDirectoryAdapter resolves an entry to its patient and clinic for the
// comments package.
type entryDirectoryAdapter struct {
	entries  records.EntryRepository
	patients identity.Repository
}

func (a *entryDirectoryAdapter) EntryPatient(ctx context.Context, entryID uuid.UUID) (uuid.UUID, string, error) {
	e, err := a.entries.GetByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, records.ErrNotFound) {
			return uuid.Nil, "", comments.ErrEntryNotFound
		}
		return uuid.Nil, "", err
	}
	p, err := a.patients.GetByID(ctx, e.PatientID)
	if err != nil {
		return uuid.Nil, "", err
	}
	return e.PatientID, p.ClinicID, nil
}
