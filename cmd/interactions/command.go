package main

import "github.com/urfave/cli/v2"

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "interactions"
	app.Usage = "Discord interactions endpoint"
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "optional YAML config file",
			Value:   "config.yaml",
			EnvVars: []string{"INTERACTIONS_CONFIG"},
		},
	}
	app.Action = serve
	app.Commands = []*cli.Command{
		{
			Action:      serve,
			Name:        "serve",
			Usage:       "Serve interactions over HTTP",
			Category:    "Runtime",
			Description: `Listens on server.host:server.port and answers signed interaction callbacks.`,
		},
		{
			Action:      runLambda,
			Name:        "lambda",
			Usage:       "Serve interactions from API Gateway events",
			Category:    "Runtime",
			Description: `Runs as an AWS Lambda function behind an API Gateway REST proxy integration.`,
		},
		{
			Action:      keygen,
			Name:        "keygen",
			Usage:       "Generate an Ed25519 key pair for local testing",
			Category:    "Tools",
			Description: `Prints a public key for discord.publickey and the matching private seed for the sign command.`,
		},
		{
			Action:    sign,
			Name:      "sign",
			Usage:     "Print signature headers for a request body",
			ArgsUsage: "[body]",
			Category:  "Tools",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "private-key",
					Usage:    "hex Ed25519 private seed or key",
					EnvVars:  []string{"INTERACTIONS_SIGNING_KEY"},
					Required: true,
				},
				&cli.StringFlag{
					Name:  "timestamp",
					Usage: "timestamp to sign, defaults to now in unix seconds",
				},
			},
			Description: `Signs the body argument, or stdin when absent, the way Discord signs interaction callbacks.`,
		},
	}
	return app
}
