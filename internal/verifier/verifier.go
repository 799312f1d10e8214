// Package verifier independently re-checks a ledger's hash chain and
// signatures without ever needing write access to the ledger
// directory. It is deliberately decoupled from internal/ledger's
// Append path: a verifier that reused the writer's in-memory state
// could miss exactly the tampering it exists to catch.
package verifier

import (
	"bufio"
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/govkernel/chain/internal/ledger"
)

// Reason names why one entry failed verification.
type Reason string

const (
	ReasonSigInvalid       Reason = "sig_invalid"
	ReasonHashMismatch     Reason = "hash_mismatch"
	ReasonInvalidJSON      Reason = "invalid_json"
	ReasonChainBreak       Reason = "chain_break"
	ReasonMissingPublicKey Reason = "missing_public_key"
)

// Detail is one entry's verification outcome; Error is empty when the
// entry verified cleanly.
type Detail struct {
	Seq   int    `json:"seq"`
	Error string `json:"error,omitempty"`
}

// Report is the full walk's outcome.
type Report struct {
	Verified bool     `json:"verified"`
	Entries  int      `json:"entries"`
	Details  []Detail `json:"details"`
}

// KeyMaterial resolves a signer_key_id to the bytes Verify needs: an
// Ed25519 public key for "ed25519:..." ids, or the shared secret for
// "hmac:..." ids.
type KeyMaterial interface {
	Resolve(keyID string) ([]byte, bool)
}

// StaticKeys is a KeyMaterial backed by a fixed Ed25519 public key
// and/or HMAC secret, matching the single-keypair-per-install model
// the ledger package provisions.
type StaticKeys struct {
	Ed25519Pub ed25519.PublicKey
	HMACSecret []byte
}

func (k StaticKeys) Resolve(keyID string) ([]byte, bool) {
	switch {
	case strings.HasPrefix(keyID, "ed25519:"):
		if len(k.Ed25519Pub) == 0 {
			return nil, false
		}
		return k.Ed25519Pub, true
	case strings.HasPrefix(keyID, "hmac:"):
		if len(k.HMACSecret) == 0 {
			return nil, false
		}
		return k.HMACSecret, true
	default:
		return nil, false
	}
}

// LoadStaticKeys reads an Ed25519 public key file (if present) and an
// HMAC secret file (if present); either or both may be absent.
func LoadStaticKeys(pubKeyPath, hmacSecretPath string) (StaticKeys, error) {
	var keys StaticKeys

	if raw, err := os.ReadFile(pubKeyPath); err == nil {
		if len(raw) != ed25519.PublicKeySize {
			return keys, fmt.Errorf("verifier: public key at %s has unexpected size %d", pubKeyPath, len(raw))
		}
		keys.Ed25519Pub = ed25519.PublicKey(raw)
	} else if !os.IsNotExist(err) {
		return keys, fmt.Errorf("verifier: read public key: %w", err)
	}

	if raw, err := os.ReadFile(hmacSecretPath); err == nil {
		keys.HMACSecret = raw
	} else if !os.IsNotExist(err) {
		return keys, fmt.Errorf("verifier: read hmac secret: %w", err)
	}

	return keys, nil
}

// Verify walks the JSONL ledger at path, recomputing each entry's
// this_hash, checking prev_hash linkage, and verifying its signature
// against keys. A malformed line breaks the chain from that point
// onward: later entries are still read for seq accounting but cannot
// be trusted to chain correctly, so the walk stops checking linkage
// past that point.
func Verify(path string, keys KeyMaterial) (Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return Report{}, fmt.Errorf("verifier: open ledger: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)

	report := Report{Verified: true}
	expectedPrev := ledger.ZeroHash
	chainBroken := false

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		report.Entries++

		var e ledger.Entry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			report.Verified = false
			report.Details = append(report.Details, Detail{Seq: report.Entries, Error: string(ReasonInvalidJSON)})
			chainBroken = true
			continue
		}

		var reasons []string

		canonical, cerr := ledger.CanonicalSigningBytes(e)
		sigBytes, serr := hex.DecodeString(e.Signature)
		if cerr != nil || serr != nil || ledger.ComputeThisHash(canonical, sigBytes) != e.ThisHash {
			reasons = append(reasons, string(ReasonHashMismatch))
		}

		if !chainBroken && e.PrevHash != expectedPrev {
			reasons = append(reasons, string(ReasonChainBreak))
		}

		keyMaterial, ok := keys.Resolve(e.SignerKeyID)
		if !ok {
			reasons = append(reasons, string(ReasonMissingPublicKey))
		} else if cerr == nil && serr == nil && !ledger.Verify(e.SignerKeyID, keyMaterial, canonical, sigBytes) {
			reasons = append(reasons, string(ReasonSigInvalid))
		}

		if len(reasons) > 0 {
			report.Verified = false
			report.Details = append(report.Details, Detail{Seq: e.Seq, Error: strings.Join(reasons, ",")})
		}

		expectedPrev = e.ThisHash
	}
	if err := scanner.Err(); err != nil {
		return report, fmt.Errorf("verifier: scan ledger: %w", err)
	}

	return report, nil
}
