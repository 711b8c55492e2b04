package security

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/forest6511/pawnvault/pkg/entry"
)

// DuplicateGroup represents entries sharing the same secret.
type DuplicateGroup struct {
	// EntryIDs contains the ids of the entries with the same secret.
	EntryIDs []int32 `json:"entry_ids"`
	// Count is the number of duplicates.
	Count int `json:"count"`
}

// FindDuplicates groups entries whose secrets are equal after normalization.
// Uses HMAC-SHA256 with a session-local key for privacy-preserving comparison.
// Returns groups sorted by count (most duplicated first), then by first id.
//
// Security properties:
// - HMAC with session-local key prevents offline guessing attacks
// - Hashes are computed per-session, never persisted
// - Values are normalized (trimmed whitespace, Unicode NFC)
func (a *Analyzer) FindDuplicates(entries []entry.Entry) ([]DuplicateGroup, error) {
	if err := a.ensureKey(); err != nil {
		return nil, err
	}

	hashGroups := make(map[string][]int32)
	var order []string
	for _, e := range entries {
		value := normalizeValue(e.Secret)
		if value == "" {
			continue
		}
		hash := computeValueHash(value, a.hmacKey)
		if _, seen := hashGroups[hash]; !seen {
			order = append(order, hash)
		}
		hashGroups[hash] = append(hashGroups[hash], e.ID)
	}

	var groups []DuplicateGroup
	for _, hash := range order {
		ids := hashGroups[hash]
		if len(ids) <= 1 {
			continue // Not a duplicate
		}
		groups = append(groups, DuplicateGroup{EntryIDs: ids, Count: len(ids)})
	}

	slices.SortStableFunc(groups, func(x, y DuplicateGroup) int {
		return y.Count - x.Count
	})
	return groups, nil
}

func (a *Analyzer) ensureKey() error {
	if a.hmacKey != nil {
		return nil
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return err
	}
	a.hmacKey = key
	return nil
}

// computeValueHash computes HMAC-SHA256 of a value with the session key.
func computeValueHash(value string, key []byte) string {
	h := hmac.New(sha256.New, key)
	h.Write([]byte(value))
	return hex.EncodeToString(h.Sum(nil))
}

// normalizeValue normalizes a secret for comparison.
func normalizeValue(value string) string {
	return norm.NFC.String(strings.TrimSpace(value))
}
