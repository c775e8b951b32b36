package session

import "golang.org/x/crypto/bcrypt"

// Authenticator holds the single configured username and a bcrypt hash of
// the configured password, checked against every AUTH request.
type Authenticator struct {
	username     string
	passwordHash []byte
}

// NewAuthenticator hashes password once at startup; Check never touches
// the plaintext password again.
func NewAuthenticator(username, password string) (*Authenticator, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return &Authenticator{username: username, passwordHash: hash}, nil
}

// Check reports whether username/password match the configured pair.
func (a *Authenticator) Check(username, password string) bool {
	if username != a.username {
		return false
	}
	return bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password)) == nil
}
