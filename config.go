package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/erc7824/receipt-signer/pkg/log"
)

type Mode string

const (
	ModeProduction Mode = "production"
	ModeTest       Mode = "test"
)

const (
	configDirPathEnv     = "RECEIPT_SIGNER_CONFIG_DIR_PATH"
	defaultConfigDirPath = "."
	redacted             = "[redacted]"
)

// Config represents the overall application configuration.
type Config struct {
	Mode            Mode          `env:"RECEIPT_SIGNER_MODE" env-default:"production"`
	SigningKey      string        `env:"SIGNING_KEY"`
	HTTPAddr        string        `env:"RECEIPT_SIGNER_HTTP_ADDR" env-default:":8080"`
	MetricsAddr     string        `env:"RECEIPT_SIGNER_METRICS_ADDR" env-default:":4242"`
	ShutdownTimeout time.Duration `env:"RECEIPT_SIGNER_SHUTDOWN_TIMEOUT" env-default:"5s"`

	DB  DatabaseConfig
	Log log.Config
}

// LoadConfig builds configuration from the environment, after loading an
// optional .env file from the config directory.
func LoadConfig(logger log.Logger) (*Config, error) {
	logger = logger.WithName("config")

	configDirPath := os.Getenv(configDirPathEnv)
	if configDirPath == "" {
		configDirPath = defaultConfigDirPath
	}

	configDotEnvPath := filepath.Join(configDirPath, ".env")
	logger.Debug("loading .env file", "path", configDotEnvPath)
	if err := godotenv.Load(configDotEnvPath); err != nil {
		logger.Warn(".env file not found", "path", configDotEnvPath)
	}

	var conf Config
	if err := cleanenv.ReadEnv(&conf); err != nil {
		return nil, fmt.Errorf("failed to read env: %w", err)
	}

	if conf.Mode != ModeProduction && conf.Mode != ModeTest {
		return nil, fmt.Errorf("invalid RECEIPT_SIGNER_MODE value: %q", conf.Mode)
	}
	if _, err := log.ParseLevel(string(conf.Log.Level)); err != nil {
		return nil, err
	}

	// A connection string takes precedence over the separate database variables.
	if conf.DB.URL != "" {
		dbConf, err := ParseConnectionString(conf.DB.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse connection string: %w", err)
		}
		conf.DB = dbConf
	}

	logger.Info("configuration loaded", "mode", conf.Mode, "dbDriver", conf.DB.Driver)
	return &conf, nil
}

// String renders the configuration without secrets.
func (c Config) String() string {
	signingKey := ""
	if c.SigningKey != "" {
		signingKey = redacted
	}
	dbPassword := ""
	if c.DB.Password != "" {
		dbPassword = redacted
	}
	return fmt.Sprintf(
		"mode=%s signingKey=%q httpAddr=%s metricsAddr=%s shutdownTimeout=%s db.driver=%s db.host=%s db.name=%s db.password=%q log.format=%s log.level=%s",
		c.Mode, signingKey, c.HTTPAddr, c.MetricsAddr, c.ShutdownTimeout,
		c.DB.Driver, c.DB.Host, c.DB.Name, dbPassword, c.Log.Format, c.Log.Level,
	)
}
