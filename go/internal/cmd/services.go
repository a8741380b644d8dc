package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"log/slog"
	"os"

	"github.com/jonboulle/clockwork"

	"github.com/mortvvnutri/legendary-chainsaw/go/internal/auth"
	"github.com/mortvvnutri/legendary-chainsaw/go/internal/dashboard"
	"github.com/mortvvnutri/legendary-chainsaw/go/internal/events"
	"github.com/mortvvnutri/legendary-chainsaw/go/internal/gateway"
	"github.com/mortvvnutri/legendary-chainsaw/go/internal/grader"
	"github.com/mortvvnutri/legendary-chainsaw/go/internal/models"
	"github.com/mortvvnutri/legendary-chainsaw/go/internal/progression"
	"github.com/mortvvnutri/legendary-chainsaw/go/internal/ratelimit"
	"github.com/mortvvnutri/legendary-chainsaw/go/internal/solutions"
	"github.com/mortvvnutri/legendary-chainsaw/go/internal/tasks"
	"github.com/mortvvnutri/legendary-chainsaw/go/internal/teams"
)

type Services struct {
	Router *gateway.Router
	Grader *grader.Worker

	closePublisher func()
}

func setupServices(database *sql.DB, cfg *Config) (*Services, error) {
	// Wire up dependency injection chain
	// Database layer → Repository layer → App layer → Gateway

	var notifier solutions.Notifier = events.NoopPublisher{}
	closePublisher := func() {}
	if cfg.NATSURL != "" {
		pub, err := events.NewNATSPublisher(cfg.NATSURL, cfg.NATSSubject)
		if err != nil {
			return nil, err
		}
		notifier = pub
		closePublisher = pub.Close
	}

	// Teams
	teamsRepo := teams.NewRepository(database)
	teamsApp := teams.NewApp(teamsRepo)

	// Task catalog
	tasksRepo := tasks.NewRepository(database)
	tasksApp := tasks.NewApp(tasksRepo)

	// Solution ledger
	solutionsRepo := solutions.NewRepository(database)
	solutionsApp := solutions.NewApp(solutionsRepo, tasksApp, notifier)

	// Progression tracker
	progressionApp := progression.NewApp(teamsApp, tasksRepo, solutionsApp)

	// Identity
	tokens := auth.NewTokenManager([]byte(cfg.JWTSecret), cfg.TokenExpiry)
	authApp := auth.NewApp(teamsApp, tokens)
	if err := ensureAdmin(teamsApp); err != nil {
		return nil, err
	}

	// Dashboard projection
	dashboardApp := dashboard.NewApp(teamsApp, tasksApp, solutionsRepo)

	// Issuance cooldown
	limiter := ratelimit.New(cfg.RateWindow, clockwork.NewRealClock())

	// Reconciliation loop
	graderWorker := grader.NewWorker(solutionsRepo, notifier,
		grader.Config{TickInterval: cfg.GraderTick},
		slog.New(slog.NewTextHandler(os.Stdout, nil)))

	router := gateway.NewRouter(authApp, progressionApp, solutionsApp,
		tasksApp, dashboardApp, teamsApp, limiter, database)

	return &Services{
		Router:         router,
		Grader:         graderWorker,
		closePublisher: closePublisher,
	}, nil
}

// ensureAdmin seeds the reserved operator account on first start. The
// password comes from ADMIN_PASSWORD and is never rewritten for an
// existing row.
func ensureAdmin(teamsApp *teams.App) error {
	ctx := context.Background()
	if _, err := teamsApp.GetTeamByLogin(ctx, models.AdminLogin); err == nil {
		return nil
	} else if !errors.Is(err, teams.ErrTeamNotFound) {
		return err
	}

	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		log.Printf("ADMIN_PASSWORD not set; admin account not created")
		return nil
	}

	salt, err := auth.NewSalt()
	if err != nil {
		return err
	}
	if _, err := teamsApp.CreateTeam(ctx, teams.CreateTeamRequest{
		Login:        models.AdminLogin,
		PasswordHash: auth.HashPassword(password, salt),
		PasswordSalt: salt,
	}); err != nil {
		return err
	}
	log.Printf("Created admin account")
	return nil
}

func (s *Services) Close() {
	s.closePublisher()
}
