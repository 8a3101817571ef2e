package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/complyhq/comply/internal/signals"
	"github.com/complyhq/comply/internal/version"
)

func main() {
	app := cli.NewApp()
	app.Name = "comply"
	app.Usage = "Manage your comply session from the command line"
	app.Version = version.Version()
	app.Flags = []cli.Flag{
		&cli.BoolFlag{
			Name:    flagInsecure,
			Aliases: []string{"k"},
			Usage:   "Allow insecure proxy connections when using TLS",
		},
		&cli.StringFlag{
			Name:  flagProxy,
			Usage: "Override the stored auth proxy address",
		},
	}
	app.Commands = []*cli.Command{
		{
			Name:      "login",
			Usage:     "Log in to the compliance back office",
			ArgsUsage: "PROXY_ADDRESS",
			Description: "By default, initiates Google OAuth2 authentication " +
				"to obtain an identity token. An identity token obtained out " +
				"of band can be supplied directly instead.",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  flagIDToken,
					Usage: "Supply a Google identity token directly",
				},
				&cli.StringFlag{
					Name:  flagClientID,
					Usage: "Google OAuth2 client ID",
				},
				&cli.StringFlag{
					Name:  flagClientSecret,
					Usage: "Google OAuth2 client secret",
				},
			},
			Action: login,
		},
		{
			Name:   "logout",
			Usage:  "Log out and clear stored credentials",
			Action: logout,
		},
		{
			Name:  "whoami",
			Usage: "Show the signed-in user and their role",
			Flags: []cli.Flag{
				cliFlagOutput,
			},
			Action: whoami,
		},
		{
			Name:   "validate",
			Usage:  "Confirm the stored session is still valid",
			Action: validate,
		},
		{
			Name:  "access",
			Usage: "Show the advisory capability matrix for a role",
			Flags: []cli.Flag{
				cliFlagOutput,
				&cli.StringFlag{
					Name: flagRole,
					Usage: "Show capabilities for the named role instead of " +
						"the signed-in user's role",
				},
			},
			Action: access,
		},
		{
			Name:      "call",
			Usage:     "Invoke a named function through the proxy",
			ArgsUsage: "FUNCTION_NAME",
			Flags: []cli.Flag{
				cliFlagOutput,
				&cli.StringFlag{
					Name:    flagParams,
					Aliases: []string{"p"},
					Usage:   "Function parameters as a JSON object",
				},
			},
			Action: call,
		},
	}
	fmt.Println()
	if err := app.RunContext(signals.Context(), os.Args); err != nil {
		fmt.Printf("\n%s\n\n", err)
		os.Exit(1)
	}
	fmt.Println()
}
