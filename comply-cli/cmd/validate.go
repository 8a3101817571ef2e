package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

func validate(c *cli.Context) error {
	// Args
	if c.Args().Len() != 0 {
		return errors.New("validate requires no arguments")
	}

	authority, err := restoreAuthority(c)
	if err != nil {
		return err
	}

	if !authority.ValidateSession(c.Context) {
		return errors.New("the session could not be confirmed valid")
	}

	fmt.Println("The session is valid.")

	return nil
}
