// Package secrets overlays environment configuration with values from a
// HashiCorp Vault KV store. API credentials (messaging, maps, search) can
// then stay out of deployment manifests; plain env vars keep working when
// Vault is disabled.
package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// VaultConfig describes where to read the secret payload from.
type VaultConfig struct {
	Enabled   bool
	Addr      string
	Token     string
	Namespace string
	Mount     string
	Path      string
	KVVersion int
	Timeout   time.Duration
	Overwrite bool
}

// Result reports what the overlay did, for startup logging.
type Result struct {
	Enabled bool
	Path    string
	Loaded  []string
	Skipped int
}

// Client fetches KV secrets over Vault's HTTP API.
type Client struct {
	cfg        VaultConfig
	httpClient *http.Client
}

// ConfigFromEnv builds a VaultConfig from VAULT_* environment variables.
func ConfigFromEnv() VaultConfig {
	mount := os.Getenv("VAULT_MOUNT")
	if mount == "" {
		mount = "secret"
	}

	kvVersion := 2
	if val := os.Getenv("VAULT_KV_VERSION"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			kvVersion = parsed
		}
	}

	timeout := 5 * time.Second
	if val := os.Getenv("VAULT_TIMEOUT_MS"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			timeout = time.Duration(parsed) * time.Millisecond
		}
	}

	return VaultConfig{
		Enabled:   strings.EqualFold(os.Getenv("VAULT_ENABLED"), "true"),
		Addr:      os.Getenv("VAULT_ADDR"),
		Token:     os.Getenv("VAULT_TOKEN"),
		Namespace: os.Getenv("VAULT_NAMESPACE"),
		Mount:     mount,
		Path:      os.Getenv("VAULT_PATH"),
		KVVersion: kvVersion,
		Timeout:   timeout,
		Overwrite: strings.EqualFold(os.Getenv("VAULT_OVERWRITE"), "true"),
	}
}

// NewClient creates a Vault client with a default HTTP client.
func NewClient(cfg VaultConfig) *Client {
	return NewClientWithOptions(cfg, &http.Client{Timeout: cfg.Timeout})
}

// NewClientWithOptions creates a Vault client with a custom HTTP client.
func NewClientWithOptions(cfg VaultConfig, httpClient *http.Client) *Client {
	return &Client{cfg: cfg, httpClient: httpClient}
}

// Fetch reads the secret payload and returns it as string pairs.
func (c *Client) Fetch(ctx context.Context) (map[string]string, error) {
	if c.cfg.Addr == "" || c.cfg.Token == "" || c.cfg.Path == "" {
		return nil, errors.New("vault configuration incomplete (VAULT_ADDR, VAULT_TOKEN, VAULT_PATH)")
	}

	url, err := c.secretURL()
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Vault-Token", c.cfg.Token)
	if c.cfg.Namespace != "" {
		req.Header.Set("X-Vault-Namespace", c.cfg.Namespace)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("vault fetch failed: %s %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}

	data, err := extractData(payload, c.cfg.KVVersion)
	if err != nil {
		return nil, err
	}

	pairs := make(map[string]string, len(data))
	for key, value := range data {
		pairs[key] = stringify(value)
	}
	return pairs, nil
}

// Overlay loads the Vault payload into the process environment. Existing env
// values win unless Overwrite is set. A disabled config is a no-op.
func Overlay(ctx context.Context, cfg VaultConfig) (Result, error) {
	if !cfg.Enabled {
		return Result{Enabled: false}, nil
	}

	pairs, err := NewClient(cfg).Fetch(ctx)
	if err != nil {
		return Result{Enabled: true, Path: cfg.Path}, err
	}

	res := Result{Enabled: true, Path: cfg.Path}
	for key, value := range pairs {
		if !cfg.Overwrite && os.Getenv(key) != "" {
			res.Skipped++
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return res, err
		}
		res.Loaded = append(res.Loaded, key)
	}
	return res, nil
}

func (c *Client) secretURL() (string, error) {
	addr := strings.TrimRight(c.cfg.Addr, "/")
	mount := strings.Trim(c.cfg.Mount, "/")
	path := strings.TrimLeft(c.cfg.Path, "/")
	if addr == "" || mount == "" || path == "" {
		return "", errors.New("vault address, mount, and path must be set")
	}
	if c.cfg.KVVersion == 1 {
		return fmt.Sprintf("%s/v1/%s/%s", addr, mount, path), nil
	}
	return fmt.Sprintf("%s/v1/%s/data/%s", addr, mount, path), nil
}

func extractData(payload map[string]interface{}, kvVersion int) (map[string]interface{}, error) {
	if kvVersion == 1 {
		if data, ok := payload["data"].(map[string]interface{}); ok {
			return data, nil
		}
		return nil, errors.New("vault response missing data for KV v1")
	}

	if data, ok := payload["data"].(map[string]interface{}); ok {
		if inner, ok := data["data"].(map[string]interface{}); ok {
			return inner, nil
		}
	}
	return nil, errors.New("vault response missing data for KV v2")
}

func stringify(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case nil:
		return ""
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(encoded)
	}
}
