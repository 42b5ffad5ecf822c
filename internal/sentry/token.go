package sentry

import (
	"fmt"
	"os"
	"strings"
)

// AuthTokenSource describes where the backend auth token came from.
type AuthTokenSource string

const (
	AuthTokenSourceExplicit  AuthTokenSource = "explicit"
	AuthTokenSourceEnv       AuthTokenSource = "env:SENTRY_AUTH_TOKEN"
	AuthTokenSourceLegacyEnv AuthTokenSource = "env:SENTRY_TOKEN"
	AuthTokenSourceNone      AuthTokenSource = "none"
)

// ResolveAuthToken resolves the backend auth token without ever printing it.
//
// Precedence:
//  1. explicitly provided token
//  2. SENTRY_AUTH_TOKEN environment variable
//  3. SENTRY_TOKEN environment variable (legacy name)
//
// An empty token with a nil error means no token is configured; callers
// decide whether that is fatal.
func ResolveAuthToken(provided string) (string, AuthTokenSource, error) {
	candidates := []struct {
		token  string
		source AuthTokenSource
	}{
		{provided, AuthTokenSourceExplicit},
		{os.Getenv("SENTRY_AUTH_TOKEN"), AuthTokenSourceEnv},
		{os.Getenv("SENTRY_TOKEN"), AuthTokenSourceLegacyEnv},
	}

	for _, c := range candidates {
		token := strings.TrimSpace(c.token)
		if token == "" {
			continue
		}
		if strings.ContainsAny(token, " \t\n\r") {
			return "", c.source, fmt.Errorf("auth token from %s contains whitespace", c.source)
		}
		return token, c.source, nil
	}

	return "", AuthTokenSourceNone, nil
}
