package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"partyreminders/config"
	"partyreminders/internal/adapters/auth"
	httpdelivery "partyreminders/internal/delivery/http"
	"partyreminders/internal/delivery/http/controllers"
	"partyreminders/internal/domain"
)

const shutdownTimeout = 30 * time.Second

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the scheduler trigger endpoint.",
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger := config.NewLogger(cfg.Environment, cfg.LogLevel, os.Stdout)
			if cfg.Trigger.Secret == "" {
				logger.Warn("CRON_SECRET is empty, every trigger request will be rejected")
			}

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			deps, err := wire(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer deps.Close()

			verifier := auth.NewVerifier(cfg.Trigger.AuthMode, cfg.Trigger.Secret)
			controller := controllers.NewReminderController(logger, deps.Service, cfg.Reminder.Location)
			server := &http.Server{
				Addr:              ":" + cfg.Port,
				Handler:           httpdelivery.NewRouter(controller, verifier, logger),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("server listening", "addr", server.Addr, "env", cfg.Environment, "auth_mode", cfg.Trigger.AuthMode)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return fmt.Errorf("http server: %w", err)
			case <-ctx.Done():
			}

			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	}
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run one dispatch pass and print the run report as JSON.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "date", Usage: "Target day (YYYY-MM-DD). Defaults to tomorrow in REMINDER_TIMEZONE."},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			// Logs go to stderr so stdout carries only the report.
			logger := config.NewLogger(cfg.Environment, cfg.LogLevel, os.Stderr)

			window := domain.TomorrowWindow(time.Now(), cfg.Reminder.Location)
			if d := c.String("date"); d != "" {
				if window, err = domain.ParseDayWindow(d, cfg.Reminder.Location); err != nil {
					return err
				}
			}

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			deps, err := wire(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer deps.Close()

			report, runErr := deps.Service.Run(ctx, window)
			enc := json.NewEncoder(c.App.Writer)
			enc.SetIndent("", "  ")
			if err := enc.Encode(report); err != nil {
				return fmt.Errorf("encode report: %w", err)
			}
			return runErr
		},
	}
}

func tokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "Mint a signed bearer token for TRIGGER_AUTH_MODE=jwt.",
		Flags: []cli.Flag{
			&cli.DurationFlag{Name: "ttl", Value: 5 * time.Minute, Usage: "Token lifetime."},
			&cli.StringFlag{Name: "subject", Value: auth.SchedulerSubject, Usage: "Caller identity recorded in the token."},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			token, err := auth.NewJWTIssuer(cfg.Trigger.Secret).Issue(c.String("subject"), c.Duration("ttl"))
			if err != nil {
				return fmt.Errorf("issue token: %w", err)
			}
			_, err = fmt.Fprintln(c.App.Writer, token)
			return err
		},
	}
}
