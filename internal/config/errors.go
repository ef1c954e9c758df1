package config

import (
	"errors"
)

var (
	// ErrConfigNil error if a component is built without configuration.
	ErrConfigNil = errors.New("config is nil")

	// ErrEmptyURL error if config webserver.URL is empty.
	ErrEmptyURL = errors.New("toml config webserver.url can not be empty")

	// ErrWebServerPortCanNotBeZero error if config webserver listening port is 0.
	ErrWebServerPortCanNotBeZero = errors.New("toml config webserver.port listening port can not be 0")

	// ErrTokenSecretTooShort error if the credential secret is missing or weak.
	ErrTokenSecretTooShort = errors.New("auth.tokensecret must be at least 32 bytes")

	// ErrTokenTTLInvalid error if the credential lifetime is not positive.
	ErrTokenTTLInvalid = errors.New("auth.tokenttl must be positive")

	// ErrUnknownGormEngine error if db.gormengine names an unsupported driver.
	ErrUnknownGormEngine = errors.New("db.gormengine must be one of mysql, postgres, sqlite")
)
