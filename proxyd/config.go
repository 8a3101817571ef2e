package main

// nolint: lll
import (
	"context"
	"time"

	oidc "github.com/coreos/go-oidc"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"

	"github.com/complyhq/comply/internal/mongodb"
	"github.com/complyhq/comply/internal/redis"
	"github.com/complyhq/comply/proxyd/internal/functions"
	"github.com/complyhq/comply/proxyd/internal/machinery"
	"github.com/complyhq/comply/proxyd/internal/machinery/auth"
	"github.com/complyhq/comply/proxyd/internal/rest"
	"github.com/complyhq/comply/proxyd/internal/sessions"
	sessionsMongodb "github.com/complyhq/comply/proxyd/internal/sessions/mongodb"
	sessionsRedis "github.com/complyhq/comply/proxyd/internal/sessions/redis"
	"github.com/complyhq/comply/proxyd/internal/users"
)

type appConfig struct {
	Store      string        `envconfig:"STORE" default:"memory"`
	SessionTTL time.Duration `envconfig:"SESSION_TTL" default:"30m"`
	UsersFile  string        `envconfig:"USERS_FILE"`
}

type oidcConfig struct {
	Enabled bool `envconfig:"ENABLED"`
	// ProviderURL examples:
	//   Google: https://accounts.google.com
	ProviderURL string `envconfig:"PROVIDER_URL"`
	ClientID    string `envconfig:"CLIENT_ID"`
}

func getProxyServerFromEnvironment() (machinery.Server, error) {

	// Server config
	serverConfig, err := machinery.GetConfigFromEnvironment()
	if err != nil {
		return nil, err
	}

	c := appConfig{}
	if err = envconfig.Process("PROXYD", &c); err != nil {
		return nil, errors.Wrap(
			err,
			"error getting proxy configuration from environment",
		)
	}

	// Identity token verification
	tokenVerifier, err := getOIDCTokenVerifierFromEnvironment()
	if err != nil {
		return nil, err
	}

	// User directory
	seed := users.DefaultSeed()
	if c.UsersFile != "" {
		if seed, err = users.SeedFromFile(c.UsersFile); err != nil {
			return nil, err
		}
	}
	usersStore := users.NewMemoryStore(seed)

	// Sessions
	var sessionsStore sessions.Store
	switch c.Store {
	case "memory":
		sessionsStore = sessions.NewMemoryStore()
	case "mongodb":
		database, err := mongodb.Database()
		if err != nil {
			return nil, err
		}
		if sessionsStore, err = sessionsMongodb.NewStore(database); err != nil {
			return nil, err
		}
	case "redis":
		redisClient, err := redis.Client()
		if err != nil {
			return nil, err
		}
		sessionsStore = sessionsRedis.NewStore(redisClient)
	default:
		return nil, errors.Errorf("unknown session store %q", c.Store)
	}
	sessionsService := sessions.NewService(
		sessionsStore,
		usersStore,
		tokenVerifier,
		c.SessionTTL,
	)

	registry := functions.NewDefaultRegistry(usersStore)

	baseEndpoints := &machinery.BaseEndpoints{
		TokenAuthFilter: auth.NewTokenAuthFilter(
			sessionsService.GetByToken,
			usersStore.Get,
		),
	}

	return machinery.NewServer(
		serverConfig,
		baseEndpoints,
		[]machinery.Endpoints{
			rest.NewSessionsEndpoints(baseEndpoints, sessionsService),
			rest.NewProxyEndpoints(baseEndpoints, sessionsService, registry),
		},
	), nil
}

// getOIDCTokenVerifierFromEnvironment returns an OIDC identity token
// verifier derived from environment variables, or nil when verification is
// disabled (development mode).
func getOIDCTokenVerifierFromEnvironment() (*oidc.IDTokenVerifier, error) {
	c := oidcConfig{}
	if err := envconfig.Process("OIDC", &c); err != nil {
		return nil, err
	}

	if !c.Enabled {
		return nil, nil // We're not verifying identity tokens
	}

	if c.ProviderURL == "" {
		return nil, errors.New(
			"with OIDC enabled, a value is required for the " +
				"OIDC_PROVIDER_URL environment variable",
		)
	}
	if c.ClientID == "" {
		return nil, errors.New(
			"with OIDC enabled, a value is required for the " +
				"OIDC_CLIENT_ID environment variable",
		)
	}

	provider, err := oidc.NewProvider(context.TODO(), c.ProviderURL)
	if err != nil {
		return nil, err
	}

	return provider.Verifier(
		&oidc.Config{
			ClientID: c.ClientID,
		},
	), nil
}
