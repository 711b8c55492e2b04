// Package importer parses password manager exports into vault entries.
// Supports 1Password CSV, Bitwarden JSON, and LastPass CSV formats.
//
// Every imported login becomes one entry: its password is the entry secret
// and the remaining plain details (title, username, URL, tags, notes) become
// the entry notes. Items without a password are skipped. TOTP seeds are never
// copied into notes.
package importer

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/forest6511/pawnvault/pkg/vault"
)

// Source represents the source password manager format.
type Source string

const (
	Source1Password Source = "1password"
	SourceBitwarden Source = "bitwarden"
	SourceLastPass  Source = "lastpass"
)

// Item is one login read from an export.
type Item struct {
	Title    string
	Username string
	URL      string
	Password string
	Notes    string
	Tags     []string
}

// ImportResult contains the results of a parse.
type ImportResult struct {
	// Items are the successfully parsed logins, in file order.
	Items []*Item

	// Warnings are non-fatal issues encountered during parsing.
	Warnings []string

	// Skipped are items that were skipped with reasons.
	Skipped []SkippedItem
}

// SkippedItem represents an item that was skipped during import.
type SkippedItem struct {
	OriginalName string
	Reason       string
}

// Parser is the interface for export format parsers.
type Parser interface {
	// Parse parses the input data and returns the imported items.
	Parse(data []byte) (*ImportResult, error)

	// Source returns the source type for this parser.
	Source() Source
}

func newResult() *ImportResult {
	return &ImportResult{
		Items:    make([]*Item, 0),
		Warnings: make([]string, 0),
		Skipped:  make([]SkippedItem, 0),
	}
}

// Entries converts the parsed items to vault entries, in order.
func (r *ImportResult) Entries() []vault.NewEntry {
	entries := make([]vault.NewEntry, 0, len(r.Items))
	for _, item := range r.Items {
		entries = append(entries, vault.NewEntry{Secret: item.Password, Notes: item.EntryNotes()})
	}
	return entries
}

// EntryNotes renders the non-secret details of an item as entry notes.
func (it *Item) EntryNotes() string {
	var lines []string
	if it.Title != "" {
		lines = append(lines, it.Title)
	}
	if it.Username != "" {
		lines = append(lines, "user: "+it.Username)
	}
	if it.URL != "" {
		lines = append(lines, "url: "+it.URL)
	}
	if len(it.Tags) > 0 {
		lines = append(lines, "tags: "+strings.Join(it.Tags, ", "))
	}
	if it.Notes != "" {
		lines = append(lines, it.Notes)
	}
	return strings.Join(lines, "\n")
}

// addItem records item, or a skip when it has no password.
func (r *ImportResult) addItem(item *Item, originalName string) {
	if IsEmptyOrWhitespace(item.Password) {
		r.Skipped = append(r.Skipped, SkippedItem{OriginalName: originalName, Reason: "no password"})
		return
	}
	r.Items = append(r.Items, item)
}

// GenerateFallbackTitle generates a title when the original name is empty:
// the URL hostname if there is one, otherwise imported_item_N.
func GenerateFallbackTitle(url string, counter int) string {
	if url != "" {
		if hostname := extractHostname(url); hostname != "" {
			return hostname
		}
	}
	return fmt.Sprintf("imported_item_%d", counter)
}

// extractHostname extracts the hostname from a URL.
func extractHostname(urlStr string) string {
	// Simple hostname extraction without full URL parsing
	urlStr = strings.TrimPrefix(urlStr, "https://")
	urlStr = strings.TrimPrefix(urlStr, "http://")

	// Remove path
	if idx := strings.Index(urlStr, "/"); idx != -1 {
		urlStr = urlStr[:idx]
	}

	// Remove port
	if idx := strings.Index(urlStr, ":"); idx != -1 {
		urlStr = urlStr[:idx]
	}

	return strings.TrimPrefix(urlStr, "www.")
}

// DecodeHTMLEntities decodes common HTML entities found in LastPass exports.
func DecodeHTMLEntities(s string) string {
	s = strings.ReplaceAll(s, "&lt;", "<")
	s = strings.ReplaceAll(s, "&gt;", ">")
	s = strings.ReplaceAll(s, "&quot;", "\"")
	s = strings.ReplaceAll(s, "&#39;", "'")
	s = strings.ReplaceAll(s, "&apos;", "'")
	return strings.ReplaceAll(s, "&amp;", "&") // last, so "&amp;lt;" stays "&lt;"
}

// IsEmptyOrWhitespace checks if a string is empty or contains only whitespace.
func IsEmptyOrWhitespace(s string) bool {
	for _, r := range s {
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

// GetParser returns a parser for the given source.
func GetParser(source Source) (Parser, error) {
	switch source {
	case Source1Password:
		return &OnePasswordParser{}, nil
	case SourceBitwarden:
		return &BitwardenParser{}, nil
	case SourceLastPass:
		return &LastPassParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported import source: %s", source)
	}
}

// ValidSources returns a list of valid source names.
func ValidSources() []string {
	return []string{
		string(Source1Password),
		string(SourceBitwarden),
		string(SourceLastPass),
	}
}
