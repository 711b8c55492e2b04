package importer

import (
	"strings"
)

// OnePasswordParser parses 1Password CSV export files:
// Title,Website,Username,Password,OTPAuth,Favorite,Archived,Tags,Notes
type OnePasswordParser struct{}

// 1Password CSV column names (header-based parsing).
const (
	op1ColTitle    = "Title"
	op1ColWebsite  = "Website"
	op1ColUsername = "Username"
	op1ColPassword = "Password"
	op1ColOTPAuth  = "OTPAuth"
	op1ColArchived = "Archived"
	op1ColTags     = "Tags"
	op1ColNotes    = "Notes"
)

// Source returns the source type for this parser.
func (p *OnePasswordParser) Source() Source {
	return Source1Password
}

// Parse parses 1Password CSV data.
func (p *OnePasswordParser) Parse(data []byte) (*ImportResult, error) {
	return parseCSV(data, strings.TrimSpace, op1ColTitle, p.parseRow)
}

// parseRow parses a single CSV row.
func (p *OnePasswordParser) parseRow(get func(string) string, counter *int) (*Item, string, string) {
	value := func(col string) string {
		return strings.TrimSpace(get(col))
	}

	title := value(op1ColTitle)
	website := value(op1ColWebsite)

	item := &Item{
		Title:    title,
		Username: value(op1ColUsername),
		URL:      website,
		Password: get(op1ColPassword),
		Notes:    value(op1ColNotes),
	}
	if item.Title == "" {
		item.Title = GenerateFallbackTitle(website, *counter)
		*counter++
	}
	for _, tag := range strings.Split(value(op1ColTags), ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			item.Tags = append(item.Tags, tag)
		}
	}
	if strings.EqualFold(value(op1ColArchived), "true") {
		item.Tags = append(item.Tags, "archived")
	}

	var warning string
	if value(op1ColOTPAuth) != "" {
		warning = "TOTP seed not imported"
	}
	return item, title, warning
}
