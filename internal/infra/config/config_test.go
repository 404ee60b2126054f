package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CONFIG_PATH", "")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":3000", cfg.HTTP.Address)
	require.Equal(t, StorageMemory, cfg.Storage.Driver)
	require.Equal(t, "aduba_db", cfg.Storage.Mongo.Database)
	require.Equal(t, PublisherNone, cfg.Publisher.Driver)
	require.Equal(t, "ADUBA-001", cfg.Readings.DefaultDeviceID)
	require.Equal(t, 10*time.Second, cfg.HTTP.ShutdownGrace)
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http:
  address: ":8080"
  readTimeout: 2s
storage:
  driver: mongo
  mongo:
    uri: mongodb://localhost:27017
publisher:
  driver: kafka
  kafka:
    brokers: [k1:9092]
readings:
  statsDays: 14
`), 0o600))
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092")
	t.Setenv("AUTH_TOKEN_TTL", "2h")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.HTTP.Address)
	require.Equal(t, 2*time.Second, cfg.HTTP.ReadTimeout)
	require.Equal(t, StorageMongo, cfg.Storage.Driver)
	require.Equal(t, "aduba_db", cfg.Storage.Mongo.Database)
	require.Equal(t, []string{"a:9092", "b:9092"}, cfg.Publisher.Kafka.Brokers)
	require.Equal(t, "aduba.readings", cfg.Publisher.Kafka.Topic)
	require.Equal(t, 14, cfg.Readings.StatsDays)
	require.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{name: "postgres without dsn", mutate: func(c *Config) { c.Storage.Driver = StoragePostgres }, errMsg: "storage.postgres.dsn"},
		{name: "unknown storage", mutate: func(c *Config) { c.Storage.Driver = "sqlite" }, errMsg: "not supported"},
		{name: "mqtt without broker", mutate: func(c *Config) { c.Publisher.Driver = PublisherMQTT }, errMsg: "publisher.mqtt.broker"},
		{name: "valkey without addr", mutate: func(c *Config) { c.Valkey.Enabled = true }, errMsg: "valkey.addr"},
		{name: "empty secret", mutate: func(c *Config) { c.Auth.Secret = " " }, errMsg: "auth.secret"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaultConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.errMsg)
		})
	}
	require.NoError(t, defaultConfig().Validate())
}
