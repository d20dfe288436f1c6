package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/signmeup/signmeup/cmd/app/commands"
	"github.com/signmeup/signmeup/internal/app"
	"github.com/signmeup/signmeup/internal/config"
)

func getUserCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "seed-demo",
			Usage: "Create the demo user with sample identities and accounts",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				userUseCase, err := container.UserUseCase()
				if err != nil {
					return err
				}
				identityUseCase, err := container.IdentityUseCase()
				if err != nil {
					return err
				}
				accountUseCase, err := container.AccountUseCase()
				if err != nil {
					return err
				}
				ciphers, err := container.Ciphers()
				if err != nil {
					return err
				}

				return commands.RunSeedDemo(
					ctx,
					userUseCase,
					identityUseCase,
					accountUseCase,
					ciphers,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "rotate-master-key",
			Usage: "Re-encrypt a user's identities and accounts under a new master key",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "email",
					Aliases:  []string{"e"},
					Required: true,
					Usage:    "Email of the user whose master key is rotated",
				},
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				userUseCase, err := container.UserUseCase()
				if err != nil {
					return err
				}

				return commands.RunRotateMasterKey(
					ctx,
					userUseCase,
					container.Logger(),
					commands.DefaultIO(),
					cmd.String("email"),
					cmd.String("format"),
				)
			},
		},
	}
}
