package audit

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var testKey = []byte("testpassword123")

func newKeyedLogger(t *testing.T, dir string) *Logger {
	t.Helper()
	logger := NewLogger(dir)
	if err := logger.SetHMACKey(testKey); err != nil {
		t.Fatalf("SetHMACKey failed: %v", err)
	}
	return logger
}

func logN(t *testing.T, logger *Logger, n int, vault string) {
	t.Helper()
	for i := 0; i < n; i++ {
		if err := logger.LogSuccess(OpEntryList, SourceMCP, vault); err != nil {
			t.Fatalf("LogSuccess failed on iteration %d: %v", i, err)
		}
	}
}

func logFile(t *testing.T, dir string) string {
	t.Helper()
	files, _ := filepath.Glob(filepath.Join(dir, "*.jsonl"))
	if len(files) != 1 {
		t.Fatalf("expected one log file, got %v", files)
	}
	return files[0]
}

func TestLogWithoutHMACKey(t *testing.T) {
	logger := NewLogger(t.TempDir())
	if err := logger.LogSuccess(OpVaultList, SourceMCP, ""); !errors.Is(err, ErrKeyNotSet) {
		t.Errorf("Log error = %v, want ErrKeyNotSet", err)
	}
	if _, err := logger.Verify(); !errors.Is(err, ErrKeyNotSet) {
		t.Errorf("Verify error = %v, want ErrKeyNotSet", err)
	}
}

func TestLogEvents(t *testing.T) {
	dir := filepath.Join(t.TempDir(), DirName)
	logger := newKeyedLogger(t, dir)

	if err := logger.LogSuccess(OpEntryList, SourceMCP, "bank"); err != nil {
		t.Fatal(err)
	}
	if err := logger.LogError(OpEntryAdd, SourceMCP, "bank", "incorrect master key"); err != nil {
		t.Fatal(err)
	}
	if err := logger.LogDenied(OpEntryList, SourceMCP, "payroll", "denied by policy"); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(logFile(t, dir))
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("log file mode = %o, want 0600", perm)
	}

	events, err := logger.ListEvents(0, time.Time{})
	if err != nil {
		t.Fatalf("ListEvents failed: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}

	want := []struct{ op, vault, result, detail string }{
		{OpEntryList, "bank", ResultSuccess, ""},
		{OpEntryAdd, "bank", ResultError, "incorrect master key"},
		{OpEntryList, "payroll", ResultDenied, "denied by policy"},
	}
	for i, w := range want {
		e := events[i]
		if e.Operation != w.op || e.Vault != w.vault || e.Result != w.result || e.Detail != w.detail {
			t.Errorf("event %d = %+v, want %+v", i, e, w)
		}
		if e.Chain.Sequence != int64(i+1) {
			t.Errorf("event %d sequence = %d", i, e.Chain.Sequence)
		}
		if e.SessionID != logger.SessionID() || e.Source != SourceMCP || e.ID == "" {
			t.Errorf("event %d = %+v", i, e)
		}
	}
	if events[0].Chain.PrevHash != "genesis" || events[1].Chain.PrevHash != events[0].Chain.HMAC {
		t.Error("events are not chained")
	}
	if events[0].ID == events[1].ID {
		t.Error("expected unique event IDs")
	}
}

func TestChainPersistence(t *testing.T) {
	dir := t.TempDir()

	first := newKeyedLogger(t, dir)
	logN(t, first, 3, "bank")

	second := newKeyedLogger(t, dir)
	if first.SessionID() == second.SessionID() {
		t.Error("expected a new session ID")
	}
	logN(t, second, 2, "bank")

	result, err := second.Verify()
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if !result.Valid {
		t.Errorf("expected valid chain after session resume, got errors: %v", result.Errors)
	}
	if result.RecordsTotal != 5 {
		t.Errorf("expected 5 total records, got %d", result.RecordsTotal)
	}
}

func TestSetHMACKey_Mismatch(t *testing.T) {
	dir := t.TempDir()
	logN(t, newKeyedLogger(t, dir), 1, "bank")

	other := NewLogger(dir)
	if err := other.SetHMACKey([]byte("another-master-key")); !errors.Is(err, ErrKeyMismatch) {
		t.Fatalf("SetHMACKey error = %v, want ErrKeyMismatch", err)
	}
	if err := other.LogSuccess(OpVaultList, SourceMCP, ""); !errors.Is(err, ErrKeyNotSet) {
		t.Errorf("Log after mismatch = %v, want ErrKeyNotSet", err)
	}
}

func TestSetHMACKey_CorruptState(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, stateFileName), []byte("{"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := NewLogger(dir).SetHMACKey(testKey); err == nil {
		t.Error("expected error for corrupt chain state")
	}
}

func TestVerifyEmptyLog(t *testing.T) {
	result, err := newKeyedLogger(t, t.TempDir()).Verify()
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if !result.Valid || result.RecordsTotal != 0 {
		t.Errorf("Verify() = %+v, want valid and empty", result)
	}
}

func TestTamperingDetection(t *testing.T) {
	tamper := func(t *testing.T, edit func(lines [][]byte) [][]byte) *VerifyResult {
		t.Helper()
		dir := t.TempDir()
		logger := newKeyedLogger(t, dir)
		logN(t, logger, 3, "bank")

		path := logFile(t, dir)
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		lines := bytes.Split(bytes.TrimSpace(data), []byte{'\n'})
		out := bytes.Join(edit(lines), []byte{'\n'})
		if err := os.WriteFile(path, append(out, '\n'), 0600); err != nil {
			t.Fatal(err)
		}

		result, err := logger.Verify()
		if err != nil {
			t.Fatalf("Verify failed: %v", err)
		}
		return result
	}

	t.Run("modified record", func(t *testing.T) {
		result := tamper(t, func(lines [][]byte) [][]byte {
			lines[1] = bytes.Replace(lines[1], []byte(`"vault":"bank"`), []byte(`"vault":"other"`), 1)
			return lines
		})
		if result.Valid {
			t.Fatal("expected tampering to be detected")
		}
		if !strings.Contains(strings.Join(result.Errors, "\n"), "HMAC mismatch") {
			t.Errorf("errors = %v", result.Errors)
		}
	})

	t.Run("deleted record", func(t *testing.T) {
		result := tamper(t, func(lines [][]byte) [][]byte {
			return append(lines[:1], lines[2:]...)
		})
		if result.Valid {
			t.Fatal("expected deletion to be detected")
		}
		if !strings.Contains(strings.Join(result.Errors, "\n"), "sequence gap") {
			t.Errorf("errors = %v", result.Errors)
		}
	})

	t.Run("reordered records", func(t *testing.T) {
		result := tamper(t, func(lines [][]byte) [][]byte {
			lines[0], lines[1] = lines[1], lines[0]
			return lines
		})
		if result.Valid {
			t.Fatal("expected reordering to be detected")
		}
	})
}

func TestListEvents(t *testing.T) {
	dir := t.TempDir()
	logger := newKeyedLogger(t, dir)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := base
	logger.now = func() time.Time { return clock }
	for i := 0; i < 5; i++ {
		clock = base.Add(time.Duration(i) * time.Hour)
		logN(t, logger, 1, "bank")
	}

	events, err := logger.ListEvents(2, time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 || events[0].Chain.Sequence != 4 || events[1].Chain.Sequence != 5 {
		t.Errorf("limit 2 returned %+v", events)
	}

	events, err = logger.ListEvents(0, base.Add(150*time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Errorf("since filter returned %d events, want 2", len(events))
	}

	// Reading needs no key
	events, err = NewLogger(dir).ListEvents(0, time.Time{})
	if err != nil || len(events) != 5 {
		t.Errorf("unkeyed ListEvents = %d events, %v", len(events), err)
	}
}

func TestSpaceCheck(t *testing.T) {
	logger := newKeyedLogger(t, t.TempDir())
	errFull := errors.New("disk full")
	logger.SetSpaceCheck(func() error { return errFull })

	if err := logger.LogSuccess(OpVaultList, SourceMCP, ""); !errors.Is(err, errFull) {
		t.Errorf("Log error = %v, want disk full", err)
	}
	logger.SetSpaceCheck(nil)
	logN(t, logger, 1, "")
	if result, err := logger.Verify(); err != nil || !result.Valid || result.RecordsTotal != 1 {
		t.Errorf("Verify() = %+v, %v", result, err)
	}
}
