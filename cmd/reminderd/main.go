package main

import (
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	_ "partyreminders/docs"
)

// @title Party Reminders API
// @version 1.0
// @description Scheduled reminder dispatch for upcoming occasions.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by the scheduler secret or a signed trigger token.
func main() {
	app := &cli.App{
		Name:  "reminderd",
		Usage: "Send reminders to guests who have not yet responded to tomorrow's occasions.",
		Commands: []*cli.Command{
			serveCommand(),
			runCommand(),
			tokenCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("application failed", "err", err)
		os.Exit(1)
	}
}
