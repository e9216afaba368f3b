package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erc7824/receipt-signer/pkg/log"
)

// isolateConfigEnv points the config directory at an empty temp dir and
// clears the variables a developer machine might carry.
func isolateConfigEnv(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	t.Setenv(configDirPathEnv, dir)
	for _, key := range []string{
		"RECEIPT_SIGNER_MODE", "SIGNING_KEY", "RECEIPT_SIGNER_HTTP_ADDR", "RECEIPT_SIGNER_METRICS_ADDR",
		"RECEIPT_SIGNER_SHUTDOWN_TIMEOUT", "RECEIPT_SIGNER_DATABASE_URL", "RECEIPT_SIGNER_DATABASE_DRIVER",
		"RECEIPT_SIGNER_DATABASE_NAME", "RECEIPT_SIGNER_DATABASE_PASSWORD", "LOG_FORMAT", "LOG_LEVEL", "LOG_OUTPUT",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	return dir
}

func TestLoadConfig(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		isolateConfigEnv(t)

		conf, err := LoadConfig(log.NewNoopLogger())
		require.NoError(t, err)
		assert.Equal(t, ModeProduction, conf.Mode)
		assert.Empty(t, conf.SigningKey)
		assert.Equal(t, ":8080", conf.HTTPAddr)
		assert.Equal(t, ":4242", conf.MetricsAddr)
		assert.Equal(t, 5*time.Second, conf.ShutdownTimeout)
		assert.Equal(t, DriverSqlite, conf.DB.Driver)
		assert.Equal(t, log.LevelInfo, conf.Log.Level)
	})

	t.Run("Environment", func(t *testing.T) {
		isolateConfigEnv(t)
		t.Setenv("RECEIPT_SIGNER_MODE", "test")
		t.Setenv("SIGNING_KEY", testSigningKey)
		t.Setenv("RECEIPT_SIGNER_HTTP_ADDR", "127.0.0.1:9000")
		t.Setenv("RECEIPT_SIGNER_SHUTDOWN_TIMEOUT", "250ms")
		t.Setenv("RECEIPT_SIGNER_DATABASE_DRIVER", DriverNone)
		t.Setenv("LOG_LEVEL", "debug")

		conf, err := LoadConfig(log.NewNoopLogger())
		require.NoError(t, err)
		assert.Equal(t, ModeTest, conf.Mode)
		assert.Equal(t, testSigningKey, conf.SigningKey)
		assert.Equal(t, "127.0.0.1:9000", conf.HTTPAddr)
		assert.Equal(t, 250*time.Millisecond, conf.ShutdownTimeout)
		assert.Equal(t, DriverNone, conf.DB.Driver)
		assert.Equal(t, log.LevelDebug, conf.Log.Level)
	})

	t.Run("Dotenv file", func(t *testing.T) {
		dir := isolateConfigEnv(t)
		dotenv := "SIGNING_KEY=" + testSigningKey + "\nRECEIPT_SIGNER_DATABASE_URL=file:receipts.db\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(dotenv), 0o600))
		t.Cleanup(func() {
			os.Unsetenv("SIGNING_KEY")
			os.Unsetenv("RECEIPT_SIGNER_DATABASE_URL")
		})

		conf, err := LoadConfig(log.NewNoopLogger())
		require.NoError(t, err)
		assert.Equal(t, testSigningKey, conf.SigningKey)
		assert.Equal(t, DriverSqlite, conf.DB.Driver)
		assert.Equal(t, "receipts.db", conf.DB.Name)
	})

	t.Run("Invalid values", func(t *testing.T) {
		tests := []struct {
			key   string
			value string
		}{
			{"RECEIPT_SIGNER_MODE", "staging"},
			{"LOG_LEVEL", "loud"},
			{"RECEIPT_SIGNER_SHUTDOWN_TIMEOUT", "soon"},
			{"RECEIPT_SIGNER_DATABASE_URL", "mysql://localhost/receipts"},
		}
		for _, test := range tests {
			t.Run(test.key, func(t *testing.T) {
				isolateConfigEnv(t)
				t.Setenv(test.key, test.value)

				_, err := LoadConfig(log.NewNoopLogger())
				assert.Error(t, err)
			})
		}
	})
}

func TestConfigStringRedactsSecrets(t *testing.T) {
	conf := Config{
		Mode:       ModeProduction,
		SigningKey: testSigningKey,
		DB:         DatabaseConfig{Driver: DriverPostgres, Password: "hunter2"},
	}

	dump := conf.String()
	assert.NotContains(t, dump, strings.TrimPrefix(testSigningKey, "0x"))
	assert.NotContains(t, dump, "hunter2")
	assert.Contains(t, dump, `signingKey="[redacted]"`)

	assert.Contains(t, Config{}.String(), `signingKey=""`)
}

func TestCLIFlagsOverrideConfig(t *testing.T) {
	conf := &Config{SigningKey: "from-env", HTTPAddr: ":8080", MetricsAddr: ":4242"}

	(&cliFlags{}).apply(conf)
	assert.Equal(t, "from-env", conf.SigningKey)

	(&cliFlags{signingKey: testSigningKey, httpAddr: ":9090"}).apply(conf)
	assert.Equal(t, testSigningKey, conf.SigningKey)
	assert.Equal(t, ":9090", conf.HTTPAddr)
	assert.Equal(t, ":4242", conf.MetricsAddr)
}
