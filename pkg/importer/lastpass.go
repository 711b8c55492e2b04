package importer

import (
	"strings"
)

// LastPassParser parses LastPass CSV export files:
// url,username,password,totp,extra,name,grouping,fav
type LastPassParser struct{}

// LastPass CSV column names (header-based parsing).
const (
	lpColURL      = "url"
	lpColUsername = "username"
	lpColPassword = "password"
	lpColTOTP     = "totp"
	lpColExtra    = "extra"
	lpColName     = "name"
	lpColGrouping = "grouping"
)

// lastPassSecureNoteURL marks Secure Notes in LastPass exports.
const lastPassSecureNoteURL = "http://sn"

// Source returns the source type for this parser.
func (p *LastPassParser) Source() Source {
	return SourceLastPass
}

// Parse parses LastPass CSV data.
func (p *LastPassParser) Parse(data []byte) (*ImportResult, error) {
	return parseCSV(data, strings.ToLower, lpColName, p.parseRow)
}

// parseRow parses a single CSV row.
func (p *LastPassParser) parseRow(get func(string) string, counter *int) (*Item, string, string) {
	value := func(col string) string {
		return DecodeHTMLEntities(strings.TrimSpace(get(col)))
	}

	name := value(lpColName)
	url := value(lpColURL)
	if url == lastPassSecureNoteURL {
		url = ""
	}

	item := &Item{
		Title:    name,
		Username: value(lpColUsername),
		URL:      url,
		Password: get(lpColPassword),
		Notes:    value(lpColExtra),
	}
	if item.Title == "" {
		item.Title = GenerateFallbackTitle(url, *counter)
		*counter++
	}
	// Nested groups are preserved as-is
	if grouping := value(lpColGrouping); grouping != "" {
		item.Tags = []string{grouping}
	}

	var warning string
	if value(lpColTOTP) != "" {
		warning = "TOTP seed not imported"
	}
	return item, name, warning
}
