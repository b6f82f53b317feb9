package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrBadCredentials is returned for any username/password mismatch. The
// caller cannot tell which half was wrong.
var ErrBadCredentials = errors.New("invalid username or password")

// Gate checks login attempts against a single fixed credential pair.
// The password is bcrypt-hashed at construction so the plaintext is not
// kept in memory for the life of the process.
type Gate struct {
	username string
	hash     []byte
}

// NewGate builds the access gate for the given credential pair.
func NewGate(username, password string) (*Gate, error) {
	if username == "" || password == "" {
		return nil, errors.New("gate credentials must not be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return &Gate{username: username, hash: hash}, nil
}

// Verify checks the attempt against the configured credentials. Username
// comparison is exact, including case.
func (g *Gate) Verify(username, password string) error {
	if username != g.username {
		// still burn a bcrypt compare so both failure paths take
		// comparable time
		_ = bcrypt.CompareHashAndPassword(g.hash, []byte(password))
		return ErrBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword(g.hash, []byte(password)); err != nil {
		return ErrBadCredentials
	}
	return nil
}
