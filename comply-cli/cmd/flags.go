package main

import "github.com/urfave/cli/v2"

const (
	flagClientID     = "client-id"
	flagClientSecret = "client-secret"
	flagIDToken      = "id-token"
	flagInsecure     = "insecure"
	flagOutput       = "output"
	flagParams       = "params"
	flagProxy        = "proxy"
	flagRole         = "role"
)

var (
	cliFlagOutput = &cli.StringFlag{
		Name:    flagOutput,
		Aliases: []string{"o"},
		Usage: "Return output in another format. Supported formats: table, " +
			"json, yaml",
		Value: "table",
	}
)
