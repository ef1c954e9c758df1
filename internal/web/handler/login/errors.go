package login

import "errors"

var (
	// ErrNoClaims is returned when an authenticated route runs without guard claims.
	ErrNoClaims = errors.New("request carries no verified claims")
)

// messageInvalidLogin is returned for unknown accounts, wrong passwords and inactive
// accounts alike so the response does not reveal which one failed.
const messageInvalidLogin = "invalid email or password"
