package config_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/barterbay/barterd/internal/config"
	"github.com/stretchr/testify/require"
)

func TestInitConfig(t *testing.T) {
	datadir := t.TempDir()
	t.Setenv("BARTER_DATADIR", datadir)
	t.Setenv("BARTER_JWT_SECRET", "secret")
	t.Setenv("BARTER_DB_TYPE", "sqlite")
	t.Setenv("BARTER_EXCHANGE_TTL", "24h")
	t.Setenv("BARTER_CORS_ORIGINS", "http://a.example, http://b.example")

	require.NoError(t, config.InitConfig())
	require.Equal(t, 9494, config.GetInt(config.ListeningPortKey))
	require.Equal(t, 24*time.Hour, config.GetDuration(config.ExchangeTTLKey))
	require.Equal(t, 10*time.Minute, config.GetDuration(config.ExpirySweepIntervalKey))
	require.True(t, config.GetBool(config.ReserveInventoryKey))
	require.Equal(
		t, []string{"http://a.example", "http://b.example"},
		config.GetStringList(config.CORSOriginsKey),
	)
	require.Equal(
		t, filepath.Join(datadir, config.DbLocation, "barter.sqlite"),
		config.GetDBConfig(),
	)
	require.DirExists(t, filepath.Join(datadir, config.DbLocation))
}

func TestInitConfigFails(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "missing jwt secret",
			env:  map[string]string{},
		},
		{
			name: "unknown db type",
			env:  map[string]string{"BARTER_JWT_SECRET": "s", "BARTER_DB_TYPE": "mongo"},
		},
		{
			name: "postgres without connection string",
			env:  map[string]string{"BARTER_JWT_SECRET": "s", "BARTER_DB_TYPE": "postgres"},
		},
		{
			name: "invalid postgres connection string",
			env: map[string]string{
				"BARTER_JWT_SECRET":      "s",
				"BARTER_DB_TYPE":         "postgres",
				"BARTER_PG_CONNECT_ADDR": "localhost:5432",
			},
		},
		{
			name: "non positive ttl",
			env:  map[string]string{"BARTER_JWT_SECRET": "s", "BARTER_EXCHANGE_TTL": "0s"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("BARTER_DATADIR", t.TempDir())
			t.Setenv("BARTER_JWT_SECRET", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			require.Error(t, config.InitConfig())
		})
	}
}
