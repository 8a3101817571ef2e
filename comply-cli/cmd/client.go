package main

import (
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/complyhq/comply"
)

func getAuthority(c *cli.Context) (*comply.SessionAuthority, error) {
	store, err := getStore()
	if err != nil {
		return nil, err
	}
	address, err := getProxyAddress(c, store)
	if err != nil {
		return nil, err
	}
	return comply.NewSessionAuthority(
		comply.SessionAuthorityConfig{
			ProxyAddress:  address,
			AllowInsecure: c.Bool(flagInsecure),
			Persistent:    store,
		},
	), nil
}

// restoreAuthority rehydrates the stored session for commands that act on its
// behalf. Background monitoring is pointless for a one-shot process, so it is
// stopped as soon as Restore starts it.
func restoreAuthority(c *cli.Context) (*comply.SessionAuthority, error) {
	authority, err := getAuthority(c)
	if err != nil {
		return nil, err
	}
	if err := authority.Restore(c.Context); err != nil {
		return nil, errors.Wrap(err, "error restoring session")
	}
	authority.StopMonitoring()
	if !authority.IsAuthenticated() {
		return nil, errors.New(
			"no active session; please use `comply login` to continue",
		)
	}
	return authority, nil
}
