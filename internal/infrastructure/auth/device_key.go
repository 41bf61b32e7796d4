package auth

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// ErrMalformedDeviceKey is returned for keys not shaped <prefix>.<secret>
var ErrMalformedDeviceKey = errors.New("malformed device key")

const (
	devicePrefixBytes = 6
	deviceSecretBytes = 24
)

// DeviceKey is a freshly generated plant device credential. Plain is shown
// to the caller once; only Prefix and Hash are stored.
type DeviceKey struct {
	Prefix string
	Plain  string
	Hash   string
}

// NewDeviceKey generates a device key and hashes its secret with bcrypt
func NewDeviceKey() (*DeviceKey, error) {
	prefixRaw := make([]byte, devicePrefixBytes)
	secretRaw := make([]byte, deviceSecretBytes)
	if _, err := rand.Read(prefixRaw); err != nil {
		return nil, err
	}
	if _, err := rand.Read(secretRaw); err != nil {
		return nil, err
	}

	prefix := "dk_" + hex.EncodeToString(prefixRaw)
	secret := base64.RawURLEncoding.EncodeToString(secretRaw)
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return &DeviceKey{Prefix: prefix, Plain: prefix + "." + secret, Hash: string(hash)}, nil
}

// SplitDeviceKey separates the lookup prefix from the secret
func SplitDeviceKey(key string) (prefix, secret string, err error) {
	prefix, secret, ok := strings.Cut(strings.TrimSpace(key), ".")
	if !ok || !strings.HasPrefix(prefix, "dk_") || secret == "" {
		return "", "", ErrMalformedDeviceKey
	}
	return prefix, secret, nil
}

// VerifyDeviceSecret compares a presented secret with the stored hash
func VerifyDeviceSecret(hash, secret string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}
