// Copyright (c) 2026 Marketplace. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis) via constructors.
  - Zero Hidden State: No global variables are used to store config.

This ensures the application is Twelve-Factor compliant by storing config in the env.
*/
package config

import (
	"fmt"
	"net/netip"
	"strings"

	"github.com/caarlos0/env/v11"

	"github.com/taibuivan/marketplace/internal/platform/apperr"
)

// MinSessionSecretLength is the shortest accepted HS256 signing secret, in bytes.
const MinSessionSecretLength = 32

// # Configuration Schema

// Config holds all runtime configuration for the marketplace API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// AppURL is the public origin of the web front-end. Federated sign-in
	// redirects back here once the session cookie is set.
	AppURL string `env:"APP_URL" envDefault:"http://localhost:3000"`

	// APIURL is the public origin of this server, used to build the OAuth callback URL.
	APIURL string `env:"API_URL" envDefault:"http://localhost:8080"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Cache (Redis), holds single-use OAuth state values.
	RedisURL string `env:"REDIS_URL,required,notEmpty"`

	// SessionSecret signs the stateless session tokens.
	SessionSecret string `env:"SESSION_SECRET,required,notEmpty"`

	// Google identity provider. Federated sign-in is disabled unless both are set.
	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`

	// Cross-Origin Resource Sharing
	ExtraOrigins string `env:"EXTRA_ORIGINS"`

	// TrustedProxies lists the IPs or CIDRs of reverse proxies allowed to set
	// X-Forwarded-For and X-Real-IP. Empty means the headers are ignored.
	TrustedProxies string `env:"TRUSTED_PROXIES"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	// This will fail if any field marked 'required' or 'notEmpty' is missing or blank.
	if err := env.Parse(cfg); err != nil {
		return nil, apperr.Config(fmt.Sprintf("config: failed to parse environment variables: %v", err)).WithCause(err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the cross-field rules that struct tags cannot express.
//
// It returns an [apperr.Config] error so a misconfigured process fails before
// any store is contacted.
func (c *Config) Validate() error {
	if len(c.SessionSecret) < MinSessionSecretLength {
		return apperr.Config(fmt.Sprintf("config: SESSION_SECRET must be at least %d bytes", MinSessionSecretLength))
	}

	if (c.GoogleClientID == "") != (c.GoogleClientSecret == "") {
		return apperr.Config("config: GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET must be set together")
	}

	if _, err := c.TrustedProxyPrefixes(); err != nil {
		return err
	}

	return nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// GoogleEnabled reports whether the Google identity provider is configured.
func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

// GoogleRedirectURL is the absolute callback URL registered with Google.
func (c *Config) GoogleRedirectURL() string {
	return strings.TrimRight(c.APIURL, "/") + "/auth/google/callback"
}

// AllowedOrigins returns the trimmed, non-empty entries of EXTRA_ORIGINS plus AppURL.
func (c *Config) AllowedOrigins() []string {
	origins := []string{strings.TrimRight(c.AppURL, "/")}
	for _, origin := range strings.Split(c.ExtraOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, strings.TrimRight(origin, "/"))
		}
	}
	return origins
}

// TrustedProxyPrefixes parses TRUSTED_PROXIES. A bare address is a single-host prefix.
func (c *Config) TrustedProxyPrefixes() ([]netip.Prefix, error) {
	var prefixes []netip.Prefix
	for _, entry := range strings.Split(c.TrustedProxies, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		if strings.Contains(entry, "/") {
			prefix, err := netip.ParsePrefix(entry)
			if err != nil {
				return nil, apperr.Config(fmt.Sprintf("config: TRUSTED_PROXIES entry %q is not a CIDR", entry)).WithCause(err)
			}
			prefixes = append(prefixes, prefix.Masked())
			continue
		}

		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, apperr.Config(fmt.Sprintf("config: TRUSTED_PROXIES entry %q is not an IP", entry)).WithCause(err)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}
