package config

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/architeacher/workpackages/services/svc-workpackages/internal/ports"
	"github.com/cenkalti/backoff/v5"
	"github.com/hashicorp/vault/api"
)

var (
	ErrSecretsDisabled = errors.New("secret storage is not enabled")

	errMissingCredentials = errors.New("missing credentials for the vault auth method")
)

// secretFields are the vault keys the service reads and where they land.
var secretFields = map[string]func(cfg *ServiceConfig, value string){
	"POSTGRES_USERNAME": func(cfg *ServiceConfig, v string) { cfg.Database.Username = v },
	"POSTGRES_PASSWORD": func(cfg *ServiceConfig, v string) { cfg.Database.Password = v },
	"CACHE_PASSWORD":    func(cfg *ServiceConfig, v string) { cfg.Cache.Password = v },
}

// LoadSecrets overlays the database and cache credentials stored in vault
// onto cfg. It runs once, before any connection is opened; later changes in
// vault take effect on the next start.
func LoadSecrets(ctx context.Context, secrets ports.SecretsRepository, cfg *ServiceConfig) error {
	if !cfg.SecretsStorage.Enabled {
		return ErrSecretsDisabled
	}

	if err := authenticate(ctx, secrets, cfg.SecretsStorage); err != nil {
		return fmt.Errorf("authenticating with vault: %w", err)
	}

	// KV v2 nests the payload under data.
	path := "apps/data/" + cfg.SecretsStorage.MountPath

	secret, err := readWithRetry(ctx, secrets, cfg, path)
	if err != nil {
		return err
	}

	if secret == nil || secret.Data == nil {
		return nil
	}

	data, ok := secret.Data["data"].(map[string]any)
	if !ok {
		return fmt.Errorf("secret at %s has no data section", path)
	}

	for key, apply := range secretFields {
		if value, ok := data[key].(string); ok && value != "" {
			apply(cfg, value)
		}
	}

	return nil
}

func authenticate(ctx context.Context, secrets ports.SecretsRepository, storage SecretsStorage) error {
	switch strings.ToLower(storage.AuthMethod) {
	case "token":
		if storage.Token == "" {
			return fmt.Errorf("%w: token", errMissingCredentials)
		}

		secrets.SetToken(storage.Token)

		return nil
	case "approle":
		if storage.RoleID == "" || storage.SecretID == "" {
			return fmt.Errorf("%w: approle", errMissingCredentials)
		}

		resp, err := secrets.WriteWithContext(ctx, "auth/approle/login", map[string]any{
			"role_id":   storage.RoleID,
			"secret_id": storage.SecretID,
		})
		if err != nil {
			return fmt.Errorf("approle login: %w", err)
		}

		if resp == nil || resp.Auth == nil {
			return errors.New("approle login returned no token")
		}

		secrets.SetToken(resp.Auth.ClientToken)

		return nil
	default:
		return fmt.Errorf("unsupported auth method %q", storage.AuthMethod)
	}
}

func readWithRetry(ctx context.Context, secrets ports.SecretsRepository, cfg *ServiceConfig, path string) (*api.Secret, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.SecretsStorage.Timeout)
	defer cancel()

	secret, err := backoff.Retry(ctx, func() (*api.Secret, error) {
		return secrets.GetSecrets(ctx, path)
	},
		backoff.WithBackOff(cfg.Backoff.NewExponential()),
		backoff.WithMaxTries(cfg.SecretsStorage.MaxRetries+1),
	)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	return secret, nil
}
