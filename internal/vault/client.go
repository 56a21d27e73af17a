// Package vault sources the JWT signing secret and operator credentials
// from HashiCorp Vault. When Vault is disabled the client serves values
// from the local configuration instead, so development setups need no
// Vault at all.
package vault

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/vault/api"

	"gridfx-config-bot/config"
)

// AuthSecrets holds the secrets the API server needs at startup
type AuthSecrets struct {
	JWTSecret    string `json:"jwt_secret"`
	PasswordHash string `json:"password_hash"`
}

// Client wraps the HashiCorp Vault client
type Client struct {
	client *api.Client
	config config.VaultConfig

	mu     sync.RWMutex
	cached *AuthSecrets
}

// NewClient creates a new Vault client. With Vault disabled the client is
// still usable; reads fall through to the provided fallbacks.
func NewClient(cfg config.VaultConfig) (*Client, error) {
	if !cfg.Enabled {
		return &Client{config: cfg}, nil
	}

	vaultConfig := api.DefaultConfig()
	vaultConfig.Address = cfg.Address

	if cfg.TLSEnabled && cfg.CACert != "" {
		tlsConfig := &api.TLSConfig{CACert: cfg.CACert}
		if err := vaultConfig.ConfigureTLS(tlsConfig); err != nil {
			return nil, fmt.Errorf("failed to configure TLS: %w", err)
		}
	}

	client, err := api.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	client.SetToken(cfg.Token)

	return &Client{client: client, config: cfg}, nil
}

// GetAuthSecrets reads the auth secrets from Vault's KV v2 mount. With
// Vault disabled, or when a field is absent, the fallback values from the
// local config are used.
func (c *Client) GetAuthSecrets(ctx context.Context, fallback AuthSecrets) (AuthSecrets, error) {
	if !c.config.Enabled {
		return fallback, nil
	}

	c.mu.RLock()
	if c.cached != nil {
		cached := *c.cached
		c.mu.RUnlock()
		return cached, nil
	}
	c.mu.RUnlock()

	path := fmt.Sprintf("%s/data/%s", c.config.MountPath, c.config.SecretPath)
	secret, err := c.client.Logical().ReadWithContext(ctx, path)
	if err != nil {
		return fallback, fmt.Errorf("failed to read auth secrets from vault: %w", err)
	}
	if secret == nil || secret.Data == nil {
		return fallback, fmt.Errorf("auth secrets not found at %s", path)
	}

	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return fallback, fmt.Errorf("invalid secret format at %s", path)
	}

	out := AuthSecrets{
		JWTSecret:    getString(data, "jwt_secret"),
		PasswordHash: getString(data, "password_hash"),
	}
	if out.JWTSecret == "" {
		out.JWTSecret = fallback.JWTSecret
	}
	if out.PasswordHash == "" {
		out.PasswordHash = fallback.PasswordHash
	}

	c.mu.Lock()
	c.cached = &out
	c.mu.Unlock()
	return out, nil
}

// StoreAuthSecrets writes the auth secrets into Vault's KV v2 mount
func (c *Client) StoreAuthSecrets(ctx context.Context, secrets AuthSecrets) error {
	if !c.config.Enabled {
		return fmt.Errorf("vault is disabled")
	}

	path := fmt.Sprintf("%s/data/%s", c.config.MountPath, c.config.SecretPath)
	payload := map[string]interface{}{
		"data": map[string]interface{}{
			"jwt_secret":    secrets.JWTSecret,
			"password_hash": secrets.PasswordHash,
		},
	}
	if _, err := c.client.Logical().WriteWithContext(ctx, path, payload); err != nil {
		return fmt.Errorf("failed to store auth secrets in vault: %w", err)
	}

	c.mu.Lock()
	c.cached = &secrets
	c.mu.Unlock()
	return nil
}

func getString(data map[string]interface{}, key string) string {
	if v, ok := data[key].(string); ok {
		return v
	}
	return ""
}
