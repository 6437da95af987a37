package crypto

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// CookieKeys holds the per-purpose signing keys derived from the single
// configured cookie secret. Deriving independent keys means a token minted
// for the state cookie can never verify as a session cookie and vice versa.
type CookieKeys struct {
	State   []byte
	Session []byte
}

// DeriveCookieKeys expands the configured secret into independent signing
// keys using HKDF-SHA256.
func DeriveCookieKeys(secret []byte) (CookieKeys, error) {
	state, err := deriveKey(secret, "task-front/state-cookie")
	if err != nil {
		return CookieKeys{}, fmt.Errorf("deriving state cookie key: %w", err)
	}
	session, err := deriveKey(secret, "task-front/session-cookie")
	if err != nil {
		return CookieKeys{}, fmt.Errorf("deriving session cookie key: %w", err)
	}
	return CookieKeys{State: state, Session: session}, nil
}

func deriveKey(secret []byte, info string) ([]byte, error) {
	key := make([]byte, 32)
	r := hkdf.New(sha256.New, secret, nil, []byte(info))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, err
	}
	return key, nil
}
