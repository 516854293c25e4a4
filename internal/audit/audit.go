// Package audit records who ran which comparison against which price and
// contract versions.
package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
)

// Actions recorded by the API.
const (
	ActionCompare      = "compare"
	ActionReport       = "compare.report"
	ActionEstimate     = "estimate"
	ActionPriceRefresh = "prices.refresh"
)

// Entry represents an audit log entry.
type Entry struct {
	ID               string
	Actor            string
	Role             string
	Action           string
	RunID            string
	PriceVersion     string
	ContractsVersion string
	Metadata         json.RawMessage
	// PayloadDigest is the sha256 of the uploaded meter export, if any.
	PayloadDigest string
	IP            string
	UserAgent     string
	CreatedAt     time.Time
}

// Logger writes audit entries.
type Logger interface {
	Log(ctx context.Context, entry Entry) error
}

// NewID generates a random audit id.
func NewID() string {
	return "audit-" + uuid.NewString()
}

// Digest returns the sha256 hex digest of data, or "" for no data.
func Digest(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// LogWriter writes entries to a standard logger. Used when no database is
// configured.
type LogWriter struct {
	logger *log.Logger
}

// NewLogWriter constructs a LogWriter.
func NewLogWriter(logger *log.Logger) *LogWriter {
	if logger == nil {
		logger = log.Default()
	}
	return &LogWriter{logger: logger}
}

// Log prints the entry on one line.
func (w *LogWriter) Log(_ context.Context, entry Entry) error {
	actor := entry.Actor
	if actor == "" {
		actor = "anonymous"
	}
	w.logger.Printf("audit: action=%s actor=%s role=%s run=%s prices=%s contracts=%s digest=%s meta=%s",
		entry.Action, actor, entry.Role, entry.RunID, entry.PriceVersion, entry.ContractsVersion,
		entry.PayloadDigest, string(entry.Metadata))
	return nil
}
