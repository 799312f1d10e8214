package taes

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// IRDLog appends one CSV row per evaluated Record, rotating the
// underlying file at 10 MiB and keeping 5 prior generations — the
// ledger records hashes and signatures, this log exists purely for
// operators to eyeball integrity-risk trends without replaying the
// chain.
type IRDLog struct {
	mu     sync.Mutex
	writer *lumberjack.Logger
}

// NewIRDLog opens (creating if necessary) the rotating CSV log at
// path.
func NewIRDLog(path string) (*IRDLog, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("taes: create log dir: %w", err)
		}
	}

	l := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // MiB
		MaxBackups: 5,
		Compress:   false,
	}

	return &IRDLog{writer: l}, nil
}

// Append writes one Record as a CSV row: session_id, seq, role,
// domain, logical, practical, probable, iv, domain_weighted, ird,
// contradiction_count, hedge_count, reconciled.
func (l *IRDLog) Append(sessionID string, seq int, r Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	w := csv.NewWriter(l.writer)
	row := []string{
		sessionID,
		strconv.Itoa(seq),
		r.Role,
		string(r.Domain),
		formatFloat(r.Scores.Logical),
		formatFloat(r.Scores.Practical),
		formatFloat(r.Scores.Probable),
		formatFloat(r.IV),
		formatFloat(r.DomainWeightedQuality),
		formatFloat(r.IRD),
		strconv.Itoa(r.ContradictionCount),
		strconv.Itoa(r.HedgeCount),
		strconv.FormatBool(r.Reconciled),
	}
	if err := w.Write(row); err != nil {
		return fmt.Errorf("taes: write IRD log row: %w", err)
	}
	w.Flush()
	return w.Error()
}

// Close flushes and closes the underlying rotating file.
func (l *IRDLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.writer.Close()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 4, 64)
}
