package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

func logout(c *cli.Context) error {
	// Args
	if c.Args().Len() != 0 {
		return errors.New("logout requires no arguments")
	}

	authority, err := getAuthority(c)
	if err != nil {
		return err
	}

	// SignOut clears stored credentials whether or not a live session was
	// ever rehydrated into this process.
	if err := authority.SignOut(); err != nil {
		return errors.Wrap(err, "error signing out")
	}

	fmt.Println("Logout was successful.")

	return nil
}
