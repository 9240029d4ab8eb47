package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"partyreminders/config"
	"partyreminders/internal/adapters/email"
	"partyreminders/internal/adapters/lock"
	"partyreminders/internal/adapters/ratelimit"
	"partyreminders/internal/domain"
	"partyreminders/internal/repository/memory"
	"partyreminders/internal/repository/postgres"
	"partyreminders/internal/services"
)

// dependencies holds the wired pipeline and the resources to release on exit.
type dependencies struct {
	Service domain.ReminderService
	closers []func() error
	logger  *slog.Logger
}

func (d *dependencies) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			d.logger.Warn("close resource", "err", err)
		}
	}
}

func wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*dependencies, error) {
	deps := &dependencies{logger: logger}
	fail := func(err error) (*dependencies, error) {
		deps.Close()
		return nil, err
	}

	repo, err := openRepository(ctx, cfg, logger, deps)
	if err != nil {
		return fail(err)
	}

	transport, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.Email.Provider,
		FromAddress: cfg.Email.FromAddress,
		FromName:    cfg.Email.FromName,
		SES: email.SESConfig{
			Region:             cfg.Email.AWSRegion,
			AccessKeyID:        cfg.Email.AWSAccessKeyID,
			SecretAccessKey:    cfg.Email.AWSSecretAccessKey,
			InsecureSkipVerify: cfg.Email.SESInsecureSkipVerify,
		},
	}, logger)
	if err != nil {
		return fail(fmt.Errorf("create mailer: %w", err))
	}

	renderer, err := email.NewTemplateRenderer(logger)
	if err != nil {
		return fail(fmt.Errorf("create renderer: %w", err))
	}

	var locker domain.OccasionLocker = lock.NoopLocker{}
	if cfg.RedisURL != "" {
		rl, err := lock.NewRedisLockerFromURL(ctx, cfg.RedisURL, cfg.Reminder.LeaseTTL)
		if err != nil {
			return fail(fmt.Errorf("connect redis: %w", err))
		}
		deps.closers = append(deps.closers, rl.Close)
		locker = rl
	}

	dispatcher := services.NewRecipientDispatcher(
		repo,
		renderer,
		ratelimit.NewThrottler(cfg.Reminder.ThrottleInterval),
		transport,
		logger,
		services.DispatchOptions{
			SendTimeout: cfg.Reminder.SendTimeout,
			Cooldown:    cfg.Reminder.Cooldown,
		},
	)
	deps.Service = services.NewReminderService(repo, dispatcher, locker, logger)

	logger.Info("reminder pipeline ready",
		"store", cfg.DataStore,
		"email_provider", cfg.Email.Provider,
		"timezone", cfg.Reminder.Timezone,
		"throttle_interval", cfg.Reminder.ThrottleInterval,
		"cooldown", cfg.Reminder.Cooldown,
		"lease", cfg.RedisURL != "",
	)
	return deps, nil
}

func openRepository(ctx context.Context, cfg *config.Config, logger *slog.Logger, deps *dependencies) (domain.OccasionRepository, error) {
	if cfg.DataStore == config.DataStoreMemory {
		if cfg.SeedFile == "" {
			logger.Warn("memory store without SEED_FILE, no occasions will be found")
			return memory.NewStore(), nil
		}
		store, err := memory.LoadSeedFile(cfg.SeedFile)
		if err != nil {
			return nil, err
		}
		return store, nil
	}

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	deps.closers = append(deps.closers, db.Close)
	db.SetMaxOpenConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return postgres.NewOccasionRepository(db), nil
}
