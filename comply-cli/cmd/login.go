package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/complyhq/comply"
)

func login(c *cli.Context) error {
	// Args
	if c.Args().Len() != 1 {
		return errors.New(
			"login requires one argument-- the address of the auth proxy",
		)
	}
	address := c.Args().Get(0)

	idToken := c.String(flagIDToken)
	if idToken == "" {
		var err error
		if idToken, err = obtainGoogleIDToken(c); err != nil {
			return err
		}
	}

	store, err := getStore()
	if err != nil {
		return err
	}
	if err := store.Set(proxyAddressKey, address); err != nil {
		return errors.Wrap(err, "error persisting proxy address")
	}

	authority := comply.NewSessionAuthority(
		comply.SessionAuthorityConfig{
			ProxyAddress:  address,
			AllowInsecure: c.Bool(flagInsecure),
			Persistent:    store,
		},
	)
	if _, err = authority.Login(c.Context, idToken); err != nil {
		return err
	}
	authority.StopMonitoring()

	profile, _ := authority.Profile()
	fmt.Printf(
		"\nYou are logged in as %s (%s).\n",
		profile.DisplayName(),
		authority.UserRole(),
	)
	return nil
}

// obtainGoogleIDToken walks the user through Google's OAuth2 authorization
// code flow to obtain the id_token the login exchange requires. The code is
// pasted back into the terminal rather than captured by a local redirect
// listener.
func obtainGoogleIDToken(c *cli.Context) (string, error) {
	clientID := c.String(flagClientID)
	clientSecret := c.String(flagClientSecret)
	if clientID == "" {
		return "", errors.New(
			"either an identity token (--id-token) or Google OAuth2 client " +
				"credentials (--client-id, --client-secret) are required",
		)
	}

	oauth2Config := oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  "urn:ietf:wg:oauth:2.0:oob",
		Scopes:       []string{"openid", "email", "profile"},
	}

	authURL := oauth2Config.AuthCodeURL("", oauth2.AccessTypeOffline)
	fmt.Printf("Please visit  %s  to complete authentication.\n", authURL)

	reader := bufio.NewReader(os.Stdin)
	var code string
	var err error
	for {
		fmt.Print("Authorization code? ")
		if code, err = reader.ReadString('\n'); err != nil {
			return "", errors.Wrap(
				err,
				"error reading authorization code from stdin",
			)
		}
		if code = strings.TrimSpace(code); code != "" {
			break
		}
	}

	oauth2Token, err := oauth2Config.Exchange(c.Context, code)
	if err != nil {
		return "", errors.Wrap(err, "error exchanging authorization code")
	}
	idToken, ok := oauth2Token.Extra("id_token").(string)
	if !ok || idToken == "" {
		return "", errors.New(
			"the identity provider's response did not include an id_token",
		)
	}
	return idToken, nil
}
