package main

import (
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/complyhq/comply"
)

// The CLI keeps everything-- session token, cached profile, and the proxy
// address itself-- in the same JSON state file under ~/.comply, so the SDK's
// persistent store doubles as the CLI's configuration.
const proxyAddressKey = "proxy_address"

func getStore() (comply.PersistentStore, error) {
	store, err := comply.NewHomeDirStore(".comply")
	if err != nil {
		return nil, errors.Wrap(err, "error opening comply state storage")
	}
	return store, nil
}

func getProxyAddress(c *cli.Context, store comply.PersistentStore) (string, error) {
	if address := c.String(flagProxy); address != "" {
		return address, nil
	}
	address, ok, err := store.Get(proxyAddressKey)
	if err != nil {
		return "", errors.Wrap(err, "error reading stored proxy address")
	}
	if !ok || address == "" {
		return "", errors.New(
			"no proxy address is configured; please use `comply login " +
				"PROXY_ADDRESS` to continue",
		)
	}
	return address, nil
}
