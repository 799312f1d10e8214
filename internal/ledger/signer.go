// Package ledger implements the append-only, hash-chained, signed
// audit log every chain session writes one entry per role turn to.
package ledger

import (
	"crypto/ed25519"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
)

// Signer produces a detached signature over a canonical byte string
// and reports the key id it signed with.
type Signer interface {
	Sign(data []byte) (signature []byte, keyID string, err error)
	PublicKeyID() string
}

// Ed25519Signer signs with a persisted Ed25519 private key. This is
// the preferred signer; callers fall back to HMACSigner only when no
// Ed25519 key material is available, per the spec's fallback rule.
type Ed25519Signer struct {
	priv  ed25519.PrivateKey
	keyID string
}

// NewEd25519Signer loads a private key from path, generating and
// persisting a fresh keypair if the file does not exist.
func NewEd25519Signer(path string) (*Ed25519Signer, error) {
	raw, err := os.ReadFile(path)
	if err == nil {
		if len(raw) != ed25519.PrivateKeySize {
			return nil, fmt.Errorf("ledger: signing key at %s has unexpected size %d", path, len(raw))
		}
		priv := ed25519.PrivateKey(raw)
		return &Ed25519Signer{priv: priv, keyID: fingerprintKeyID(priv.Public().(ed25519.PublicKey))}, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("ledger: read signing key: %w", err)
	}

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("ledger: generate signing key: %w", err)
	}
	if err := os.WriteFile(path, priv, 0o600); err != nil {
		return nil, fmt.Errorf("ledger: persist signing key: %w", err)
	}
	pubPath := path + ".pub"
	if err := os.WriteFile(pubPath, pub, 0o644); err != nil {
		return nil, fmt.Errorf("ledger: persist public key: %w", err)
	}

	return &Ed25519Signer{priv: priv, keyID: fingerprintKeyID(pub)}, nil
}

func (s *Ed25519Signer) Sign(data []byte) ([]byte, string, error) {
	return ed25519.Sign(s.priv, data), s.keyID, nil
}

func (s *Ed25519Signer) PublicKeyID() string { return s.keyID }

func fingerprintKeyID(pub ed25519.PublicKey) string {
	sum := sha256.Sum256(pub)
	return "ed25519:" + hex.EncodeToString(sum[:])[:16]
}

// HMACSigner signs with a shared per-install secret, used only when
// Ed25519 key material could not be provisioned.
type HMACSigner struct {
	secret []byte
	keyID  string
}

// NewHMACSigner builds a signer from a raw secret, deriving its key id
// from the secret's fingerprint so verifiers can identify which
// install's secret produced a signature without the secret itself
// appearing in the ledger.
func NewHMACSigner(secret []byte) *HMACSigner {
	sum := sha256.Sum256(secret)
	return &HMACSigner{secret: secret, keyID: "hmac:" + hex.EncodeToString(sum[:])[:16]}
}

func (s *HMACSigner) Sign(data []byte) ([]byte, string, error) {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write(data)
	return mac.Sum(nil), s.keyID, nil
}

func (s *HMACSigner) PublicKeyID() string { return s.keyID }

// Verify checks a signature against data for the given key id and key
// material. pubKeyOrSecret is an ed25519.PublicKey when keyID starts
// with "ed25519:", or a raw HMAC secret when it starts with "hmac:".
func Verify(keyID string, pubKeyOrSecret, data, signature []byte) bool {
	switch {
	case len(keyID) >= 7 && keyID[:7] == "ed25519":
		if len(pubKeyOrSecret) != ed25519.PublicKeySize {
			return false
		}
		return ed25519.Verify(ed25519.PublicKey(pubKeyOrSecret), data, signature)
	case len(keyID) >= 4 && keyID[:4] == "hmac":
		mac := hmac.New(sha256.New, pubKeyOrSecret)
		mac.Write(data)
		expected := mac.Sum(nil)
		return hmac.Equal(expected, signature)
	default:
		return false
	}
}
