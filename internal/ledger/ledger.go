package ledger

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"
)

// ZeroHash is the prev_hash value of a chain's first entry: 64 "0"
// characters, matching a hex-encoded SHA-256 digest's width.
var ZeroHash = strings.Repeat("0", 64)

// Entry is one ledger record. The first eight fields, in this exact
// order, form the canonical signing payload; the rest are computed or
// advisory and are never themselves signed.
type Entry struct {
	Seq         int    `json:"seq"`
	TS          string `json:"ts"`
	SessionID   string `json:"session_id"`
	Role        string `json:"role"`
	Action      string `json:"action"`
	PayloadHash string `json:"payload_hash"`
	PrevHash    string `json:"prev_hash"`
	ConfigHash  string `json:"config_hash"`

	ThisHash    string   `json:"this_hash"`
	Signature   string   `json:"signature"`
	SignerKeyID string   `json:"signer_key_id"`
	SoftSignals []string `json:"soft_signals,omitempty"`
	HardActions []string `json:"hard_actions,omitempty"`
}

// signingFields mirrors Entry's first eight fields in their declared
// order; Go's encoding/json preserves struct field order (unlike map
// keys, which it sorts alphabetically), so marshaling this struct
// compact gives exactly the canonical "sorted keys, no whitespace"
// signing payload the spec asks for.
type signingFields struct {
	Seq         int    `json:"seq"`
	TS          string `json:"ts"`
	SessionID   string `json:"session_id"`
	Role        string `json:"role"`
	Action      string `json:"action"`
	PayloadHash string `json:"payload_hash"`
	PrevHash    string `json:"prev_hash"`
	ConfigHash  string `json:"config_hash"`
}

// CanonicalSigningBytes returns the exact byte sequence Sign/Verify
// operate on for this entry.
func CanonicalSigningBytes(e Entry) ([]byte, error) {
	f := signingFields{
		Seq: e.Seq, TS: e.TS, SessionID: e.SessionID, Role: e.Role,
		Action: e.Action, PayloadHash: e.PayloadHash, PrevHash: e.PrevHash, ConfigHash: e.ConfigHash,
	}
	return json.Marshal(f)
}

// ComputeThisHash computes SHA256(canonical_fields || signature) as
// defined by the spec's hash chain rule.
func ComputeThisHash(canonical, signature []byte) string {
	h := sha256.Sum256(append(append([]byte{}, canonical...), signature...))
	return hex.EncodeToString(h[:])
}

// Ledger is a single-writer, append-only JSONL file with a hash chain
// and fcntl-style advisory locking around the append sequence, so that
// concurrent sessions targeting the same file serialize at the
// append boundary rather than interleaving or corrupting entries.
type Ledger struct {
	path   string
	signer Signer

	mu       sync.Mutex
	seq      int
	prevHash string
}

// Open opens (or creates) the ledger file at path, resuming the hash
// chain from its last entry if any exist.
func Open(path string, signer Signer) (*Ledger, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ledger: create dir: %w", err)
		}
	}

	l := &Ledger{path: path, signer: signer, prevHash: ZeroHash}

	f, err := os.OpenFile(path, os.O_RDONLY|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("ledger: open for resume scan: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	var last Entry
	found := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var e Entry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			return nil, fmt.Errorf("ledger: resume scan: corrupt line: %w", err)
		}
		last = e
		found = true
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("ledger: resume scan: %w", err)
	}
	if found {
		l.seq = last.Seq
		l.prevHash = last.ThisHash
	}

	return l, nil
}

// Append writes the next entry in the chain: session_id/role/action/
// payload_hash/config_hash are the caller's facts, seq/ts/prev_hash/
// this_hash/signature are computed here under lock.
func (l *Ledger) Append(sessionID, role, action, payloadHash, configHash string, softSignals, hardActions []string) (Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return Entry{}, fmt.Errorf("ledger: open for append: %w", err)
	}
	defer f.Close()

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		return Entry{}, fmt.Errorf("ledger: acquire append lock: %w", err)
	}
	defer syscall.Flock(int(f.Fd()), syscall.LOCK_UN)

	l.seq++
	entry := Entry{
		Seq:         l.seq,
		TS:          time.Now().UTC().Format(time.RFC3339Nano),
		SessionID:   sessionID,
		Role:        role,
		Action:      action,
		PayloadHash: payloadHash,
		PrevHash:    l.prevHash,
		ConfigHash:  configHash,
		SoftSignals: softSignals,
		HardActions: hardActions,
	}

	canonical, err := CanonicalSigningBytes(entry)
	if err != nil {
		return Entry{}, fmt.Errorf("ledger: canonicalize entry: %w", err)
	}

	sig, keyID, err := l.signer.Sign(canonical)
	if err != nil {
		return Entry{}, fmt.Errorf("ledger: sign entry: %w", err)
	}
	entry.Signature = hex.EncodeToString(sig)
	entry.SignerKeyID = keyID
	entry.ThisHash = ComputeThisHash(canonical, sig)

	line, err := json.Marshal(entry)
	if err != nil {
		return Entry{}, fmt.Errorf("ledger: marshal entry: %w", err)
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		return Entry{}, fmt.Errorf("ledger: write entry: %w", err)
	}

	l.prevHash = entry.ThisHash
	return entry, nil
}

// Rotate closes out the current file with a rollover entry pointing
// at newPath, then redirects future Append calls to it. The hash
// chain continues unbroken: the rollover entry's this_hash becomes
// the first entry in newPath's prev_hash.
func (l *Ledger) Rotate(newPath string) error {
	rolloverPayload, err := json.Marshal(map[string]string{"new_file": newPath})
	if err != nil {
		return fmt.Errorf("ledger: marshal rollover payload: %w", err)
	}
	payloadHash := hashHex(rolloverPayload)

	// Append takes its own lock; the rollover entry still lands in the
	// file being rotated away from, so its this_hash is what the new
	// file's first entry chains its prev_hash to.
	if _, err := l.Append("", "system", "rollover", payloadHash, "", nil, nil); err != nil {
		return err
	}

	l.mu.Lock()
	l.path = newPath
	l.mu.Unlock()
	return nil
}

func hashHex(b []byte) string {
	h := sha256.Sum256(b)
	return hex.EncodeToString(h[:])
}
