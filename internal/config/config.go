// Package config handles input from etc/*.toml files
package config

import (
	"bytes"
	"encoding/json"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	// EnvConfigJSON overrides any part of the TOML configuration with a JSON document.
	EnvConfigJSON = "PLANIFICACION_CONFIG_JSON"

	// EnvTokenSecret overrides auth.tokensecret.
	EnvTokenSecret = "PLANIFICACION_TOKEN_SECRET" //nolint:gosec

	minSecretLength = 32

	secretMask = "********"
)

// Engines supported by db.gormengine.
const (
	EngineMySQL    = "mysql"
	EnginePostgres = "postgres"
	EngineSQLite   = "sqlite"
)

// ReadConfig from config file.
func ReadConfig(path string) (Config, error) {
	var (
		c   Config
		err error
	)

	// a missing .env is normal outside development
	if err = godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	// Read main configuration
	if path == "" {
		path = "./etc/"
	}

	if _, err = toml.DecodeFile(path+"main.toml", &c); err != nil {
		return Config{}, errors.Wrap(err, "failed to read main config file")
	}

	// override it from env
	if JSONConfigEnv := os.Getenv(EnvConfigJSON); JSONConfigEnv != "" {
		c, err = decodeAndMergeConfig(c, JSONConfigEnv)
		if err != nil {
			return c, err
		}
	}

	if secret := os.Getenv(EnvTokenSecret); secret != "" {
		c.Auth.TokenSecret = secret
	}

	return c, validate(&c)
}

func decodeAndMergeConfig(c Config, configAsJSON string) (Config, error) {
	err := json.Unmarshal([]byte(configAsJSON), &c)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to decode "+EnvConfigJSON)
	}

	return c, nil
}

// DumpConfig config as TOML String. Secrets are masked.
func DumpConfig(c *Config) (string, error) {
	var buffer bytes.Buffer
	t := toml.NewEncoder(&buffer)

	if err := t.Encode(redacted(c)); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// DumpConfigJSON config as JSON String. Secrets are masked.
func DumpConfigJSON(c *Config) (string, error) {
	var buffer bytes.Buffer
	j := json.NewEncoder(&buffer)
	j.SetIndent("", "  ")

	if err := j.Encode(redacted(c)); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

func redacted(c *Config) Config {
	out := *c

	for _, s := range []*string{&out.Auth.TokenSecret, &out.DB.Password, &out.Seed.AdminPassword} {
		if *s != "" {
			*s = secretMask
		}
	}

	return out
}

// validate rejects configurations the server can not start with and fills defaults
// for optional settings.
func validate(c *Config) error {
	invalidErrMessage := "invalid config"

	if c.Webserver.Port == 0 {
		return errors.Wrap(ErrWebServerPortCanNotBeZero, invalidErrMessage)
	}

	if c.Webserver.URL == "" {
		return errors.Wrap(ErrEmptyURL, invalidErrMessage)
	}

	if len(c.Auth.TokenSecret) < minSecretLength {
		return errors.Wrap(ErrTokenSecretTooShort, invalidErrMessage)
	}

	if c.Auth.TokenTTL < 0 {
		return errors.Wrap(ErrTokenTTLInvalid, invalidErrMessage)
	}

	switch c.DB.GormEngine {
	case "", EngineMySQL, EnginePostgres, EngineSQLite:
	default:
		return errors.Wrap(ErrUnknownGormEngine, invalidErrMessage)
	}

	applyDefaults(c)

	return nil
}

func applyDefaults(c *Config) {
	if c.Webserver.ShutDownTime == 0 {
		c.Webserver.ShutDownTime = 5
	}

	if c.DB.GormEngine == "" {
		c.DB.GormEngine = EngineMySQL
	}

	if c.Auth.TokenTTL == 0 {
		c.Auth.TokenTTL = 8 * time.Hour
	}

	if c.Auth.Issuer == "" {
		c.Auth.Issuer = "planificacion"
	}

	a := &c.Audit
	if a.MaxRetries <= 0 {
		a.MaxRetries = 3
	}

	if a.RetryDelay <= 0 {
		a.RetryDelay = 50 * time.Millisecond
	}

	if a.DefaultPageSize <= 0 {
		a.DefaultPageSize = 20
	}

	if a.MaxPageSize <= 0 {
		a.MaxPageSize = 100
	}

	if a.StatsWindowDays <= 0 {
		a.StatsWindowDays = 30
	}

	if a.DailyWindowDays <= 0 {
		a.DailyWindowDays = 7
	}

	if a.TopN <= 0 {
		a.TopN = 10
	}
}
