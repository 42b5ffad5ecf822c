package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Env is the environment overlay for Config. CI pipelines usually configure
// the tool entirely through these variables; explicit flags always win over
// them. Integer fields are pointers so an unset variable can be told apart
// from a zero.
type Env struct {
	URL         string `env:"SENTRY_URL"`
	Org         string `env:"SENTRY_ORG"`
	Project     string `env:"SENTRY_PROJECT"`
	Environment string `env:"TAGAUDIT_ENVIRONMENT"`
	SampleSize  *int   `env:"TAGAUDIT_SAMPLE_SIZE"`
	Threshold   *int   `env:"TAGAUDIT_THRESHOLD"`
	RulesFile   string `env:"TAGAUDIT_RULES_FILE"`
}

// FromEnv parses the environment overlay. The auth token is deliberately not
// part of it; token resolution stays inside the backend client so the secret
// never lands in a config struct that gets logged.
func FromEnv() (Env, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return Env{}, fmt.Errorf("parsing environment: %w", err)
	}
	return e, nil
}
