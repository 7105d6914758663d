package config

import (
	"fmt"

	"github.com/cenkalti/backoff/v5"
	"github.com/kelseyhightower/envconfig"
)

// Init reads the configuration from the environment.
func Init() (*ServiceConfig, error) {
	cfg := &ServiceConfig{}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("unable to parse service configuration: %w", err)
	}

	if len(ServiceVersion) != 0 {
		cfg.App.ServiceVersion = ServiceVersion
	}

	if len(CommitSHA) != 0 {
		cfg.App.CommitSHA = CommitSHA
	}

	return cfg, nil
}

// NewExponential builds the retry schedule described by b.
func (b Backoff) NewExponential() *backoff.ExponentialBackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = b.BaseDelay
	exp.Multiplier = b.Multiplier
	exp.RandomizationFactor = b.Jitter
	exp.MaxInterval = b.MaxDelay

	return exp
}
