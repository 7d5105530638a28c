package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.Equal(t, "agent", cfg.Role)
	require.Equal(t, 5*time.Second, cfg.PollInterval.Std())
	require.Equal(t, "memory", cfg.Directory.Backend)
	require.Equal(t, "bell", cfg.Alert.Backend)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
role: admin
poll_interval: 10s
http_addr: ":9000"
directory:
  backend: http
  base_url: http://directory.local
  page_limit: 50
alert:
  backend: none
kafka:
  brokers:
    - localhost:9092
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "admin", cfg.Role)
	require.Equal(t, 10*time.Second, cfg.PollInterval.Std())
	require.Equal(t, ":9000", cfg.HTTPAddr)
	require.Equal(t, "http", cfg.Directory.Backend)
	require.Equal(t, "http://directory.local", cfg.Directory.BaseURL)
	require.Equal(t, 50, cfg.Directory.PageLimit)
	require.Equal(t, "none", cfg.Alert.Backend)
	require.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
}

func TestLoadConfig_InvalidDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("poll_interval: fast"), 0o600))

	_, err := LoadConfig(path)
	require.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"default is valid", func(*Config) {}, false},
		{"unknown role", func(c *Config) { c.Role = "dispatcher" }, true},
		{"zero interval", func(c *Config) { c.PollInterval = 0 }, true},
		{"postgres without dsn", func(c *Config) { c.Directory.Backend = "postgres" }, true},
		{"postgres with dsn", func(c *Config) {
			c.Directory.Backend = "postgres"
			c.Directory.DSN = "postgres://localhost/orders"
		}, false},
		{"http without base url", func(c *Config) { c.Directory.Backend = "http" }, true},
		{"unknown directory backend", func(c *Config) { c.Directory.Backend = "ftp" }, true},
		{"amqp without url", func(c *Config) { c.Alert.Backend = "amqp" }, true},
		{"unknown alert backend", func(c *Config) { c.Alert.Backend = "siren" }, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)

			err := cfg.Validate()
			if tc.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestConfig_ApplyEnv(t *testing.T) {
	t.Setenv("ORDERBOARD_ROLE", "admin")
	t.Setenv("ORDERBOARD_DIRECTORY_TOKEN", "secret")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg := DefaultConfig()
	cfg.ApplyEnv()

	require.Equal(t, "admin", cfg.Role)
	require.Equal(t, "secret", cfg.Directory.Token)
	require.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
}
