// Package audit records agent access to vaults in an append-only JSON Lines
// log protected by an HMAC chain for tamper detection.
//
// The chain key is derived from the master key with HKDF-SHA256, so
// verifying the log needs the key it was written with. Events only carry
// vault names, operations and outcomes, never entry content.
package audit

import (
	"bytes"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/hkdf"
)

// DirName is the audit directory inside the storage root.
const DirName = ".audit"

const (
	stateFileName = "audit.meta"
	genesisHash   = "genesis"
	hkdfInfo      = "pawnvault-audit-v1"
	keyCheckLabel = "pawnvault-audit-key-check"
	schemaVersion = 1
)

// Operation types for audit logging
const (
	OpSessionStart = "session.start"
	OpSessionEnd   = "session.end"
	OpVaultList    = "vault.list"
	OpEntryList    = "entry.list"
	OpEntryAdd     = "entry.add"
)

// Source identifies where the operation originated
const (
	SourceMCP = "mcp"
	SourceCLI = "cli"
)

// Result indicates the outcome of an operation
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultDenied  = "denied"
)

var (
	// ErrKeyNotSet is returned by Log and Verify before SetHMACKey.
	ErrKeyNotSet = errors.New("audit: HMAC key not set")

	// ErrKeyMismatch is returned when the log was written with another key.
	ErrKeyMismatch = errors.New("audit: log was written with a different master key")
)

// Event is a single audit log record.
type Event struct {
	Version   int    `json:"v"`
	ID        string `json:"id"` // UUIDv7, time ordered
	Timestamp string `json:"ts"` // RFC 3339 nanosecond precision
	Operation string `json:"op"`
	Vault     string `json:"vault,omitempty"`
	Source    string `json:"source"`
	SessionID string `json:"session_id"`
	Result    string `json:"result"`
	Detail    string `json:"detail,omitempty"` // error message or denial reason
	Chain     Chain  `json:"chain"`
}

// Time parses the event timestamp.
func (e *Event) Time() (time.Time, error) {
	return time.Parse(time.RFC3339Nano, e.Timestamp)
}

// Chain links a record to its predecessor.
type Chain struct {
	Sequence int64  `json:"seq"`
	PrevHash string `json:"prev"`
	HMAC     string `json:"hmac"`
}

// chainState is persisted between sessions.
type chainState struct {
	Sequence int64  `json:"seq"`
	PrevHash string `json:"prev"`
	KeyCheck string `json:"key_check"`
}

// VerifyResult contains the results of chain verification
type VerifyResult struct {
	Valid        bool     `json:"valid"`
	RecordsTotal int      `json:"records_total"`
	Errors       []string `json:"errors,omitempty"`
}

// Logger handles audit log writing with HMAC chain
type Logger struct {
	dir        string
	mu         sync.Mutex
	hmacKey    []byte
	keyCheck   string
	sequence   int64
	prevHash   string
	sessionID  string
	checkSpace func() error
	now        func() time.Time
}

// NewLogger creates a logger writing to dir. Log and Verify need
// SetHMACKey first; ListEvents does not.
func NewLogger(dir string) *Logger {
	return &Logger{
		dir:       dir,
		prevHash:  genesisHash,
		sessionID: newSessionID(),
		now:       time.Now,
	}
}

// SetSpaceCheck installs a check run before every write. A non-nil error
// from fn refuses the write.
func (l *Logger) SetSpaceCheck(fn func() error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.checkSpace = fn
}

// Dir returns the audit log directory.
func (l *Logger) Dir() string {
	return l.dir
}

// SessionID identifies the events written by this logger.
func (l *Logger) SessionID() string {
	return l.sessionID
}

// SetHMACKey derives the chain key from masterKey and resumes the persisted
// chain. It returns ErrKeyMismatch if the chain was started with another key.
func (l *Logger) SetHMACKey(masterKey []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := make([]byte, 32)
	if _, err := hkdf.New(sha256.New, masterKey, nil, []byte(hkdfInfo)).Read(key); err != nil {
		return fmt.Errorf("audit: failed to derive HMAC key: %w", err)
	}
	check := sign(key, []byte(keyCheckLabel))

	state, err := l.loadChainState()
	switch {
	case errors.Is(err, fs.ErrNotExist):
		l.sequence, l.prevHash = 0, genesisHash
	case err != nil:
		return err
	default:
		if state.KeyCheck != "" && !hmac.Equal([]byte(state.KeyCheck), []byte(check)) {
			return ErrKeyMismatch
		}
		l.sequence, l.prevHash = state.Sequence, state.PrevHash
	}

	l.hmacKey = key
	l.keyCheck = check
	return nil
}

// Log appends one event to the chain.
func (l *Logger) Log(op, source, vault, result, detail string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.hmacKey == nil {
		return ErrKeyNotSet
	}
	if err := os.MkdirAll(l.dir, 0700); err != nil {
		return fmt.Errorf("audit: failed to create directory: %w", err)
	}
	if l.checkSpace != nil {
		if err := l.checkSpace(); err != nil {
			return fmt.Errorf("audit: %w", err)
		}
	}

	now := l.now().UTC()
	event := Event{
		Version:   schemaVersion,
		ID:        newEventID(),
		Timestamp: now.Format(time.RFC3339Nano),
		Operation: op,
		Vault:     vault,
		Source:    source,
		SessionID: l.sessionID,
		Result:    result,
		Detail:    detail,
		Chain: Chain{
			Sequence: l.sequence + 1,
			PrevHash: l.prevHash,
		},
	}
	mac, err := l.recordMAC(&event)
	if err != nil {
		return err
	}
	event.Chain.HMAC = mac

	if err := l.writeEvent(now, &event); err != nil {
		return err
	}
	l.sequence = event.Chain.Sequence
	l.prevHash = event.Chain.HMAC
	return l.saveChainState()
}

// LogSuccess is a convenience method for successful operations
func (l *Logger) LogSuccess(op, source, vault string) error {
	return l.Log(op, source, vault, ResultSuccess, "")
}

// LogError is a convenience method for failed operations
func (l *Logger) LogError(op, source, vault, message string) error {
	return l.Log(op, source, vault, ResultError, message)
}

// LogDenied is a convenience method for denied operations
func (l *Logger) LogDenied(op, source, vault, reason string) error {
	return l.Log(op, source, vault, ResultDenied, reason)
}

// recordMAC signs every field of event except the MAC itself.
func (l *Logger) recordMAC(event *Event) (string, error) {
	unsigned := *event
	unsigned.Chain.HMAC = ""
	data, err := json.Marshal(unsigned)
	if err != nil {
		return "", fmt.Errorf("audit: failed to marshal event: %w", err)
	}
	return sign(l.hmacKey, data), nil
}

func sign(key, data []byte) string {
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	return hex.EncodeToString(mac.Sum(nil))
}

// writeEvent appends event to the log file of its month.
func (l *Logger) writeEvent(now time.Time, event *Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("audit: failed to marshal event: %w", err)
	}

	path := filepath.Join(l.dir, now.Format("2006-01")+".jsonl")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("audit: failed to open log file: %w", err)
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		f.Close()
		return fmt.Errorf("audit: failed to write event: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("audit: failed to write event: %w", err)
	}
	return nil
}

func (l *Logger) loadChainState() (*chainState, error) {
	data, err := os.ReadFile(filepath.Join(l.dir, stateFileName))
	if err != nil {
		return nil, err
	}
	var state chainState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("audit: corrupt chain state: %w", err)
	}
	return &state, nil
}

// saveChainState replaces the state file through a temp file and rename.
func (l *Logger) saveChainState() error {
	data, err := json.Marshal(chainState{
		Sequence: l.sequence,
		PrevHash: l.prevHash,
		KeyCheck: l.keyCheck,
	})
	if err != nil {
		return fmt.Errorf("audit: failed to marshal chain state: %w", err)
	}

	path := filepath.Join(l.dir, stateFileName)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("audit: failed to save chain state: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("audit: failed to save chain state: %w", err)
	}
	return nil
}

// Verify checks sequence numbers, chain links and the MAC of every record.
func (l *Logger) Verify() (*VerifyResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.hmacKey == nil {
		return nil, ErrKeyNotSet
	}

	events, err := l.readAll()
	if err != nil {
		return nil, err
	}

	result := &VerifyResult{Valid: true, RecordsTotal: len(events)}
	fail := func(format string, args ...any) {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf(format, args...))
	}

	expectedPrev := genesisHash
	var expectedSeq int64 = 1
	for i := range events {
		event := &events[i]
		if event.Chain.Sequence != expectedSeq {
			fail("sequence gap at record %s: expected %d, got %d", event.ID, expectedSeq, event.Chain.Sequence)
		}
		if event.Chain.PrevHash != expectedPrev {
			fail("chain broken at record %s", event.ID)
		}
		mac, err := l.recordMAC(event)
		if err != nil {
			return nil, err
		}
		if !hmac.Equal([]byte(mac), []byte(event.Chain.HMAC)) {
			fail("HMAC mismatch at record %s: possible tampering", event.ID)
		}
		expectedPrev = event.Chain.HMAC
		expectedSeq = event.Chain.Sequence + 1
	}
	return result, nil
}

// ListEvents returns events in log order. since filters out older events
// when non-zero; limit keeps only the most recent when positive.
func (l *Logger) ListEvents(limit int, since time.Time) ([]Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	events, err := l.readAll()
	if err != nil {
		return nil, err
	}

	if !since.IsZero() {
		filtered := events[:0]
		for _, event := range events {
			if ts, err := event.Time(); err == nil && ts.After(since) {
				filtered = append(filtered, event)
			}
		}
		events = filtered
	}
	if limit > 0 && len(events) > limit {
		events = events[len(events)-limit:]
	}
	return events, nil
}

// readAll reads every monthly log file in chronological order.
func (l *Logger) readAll() ([]Event, error) {
	files, err := filepath.Glob(filepath.Join(l.dir, "*.jsonl"))
	if err != nil {
		return nil, fmt.Errorf("audit: failed to list log files: %w", err)
	}
	// YYYY-MM names sort chronologically
	slices.Sort(files)

	var events []Event
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("audit: failed to read %s: %w", filepath.Base(file), err)
		}
		for n, line := range bytes.Split(data, []byte{'\n'}) {
			if len(bytes.TrimSpace(line)) == 0 {
				continue
			}
			var event Event
			if err := json.Unmarshal(line, &event); err != nil {
				return nil, fmt.Errorf("audit: %s line %d: %w", filepath.Base(file), n+1, err)
			}
			events = append(events, event)
		}
	}
	return events, nil
}

func newSessionID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("session-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}

func newEventID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
