package importer

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// BitwardenParser parses Bitwarden JSON export files.
// Only login items carry a password; other item types are skipped.
type BitwardenParser struct{}

// Bitwarden item types.
const (
	bitwardenTypeLogin      = 1
	bitwardenTypeSecureNote = 2
	bitwardenTypeCard       = 3
	bitwardenTypeIdentity   = 4
)

// Bitwarden custom field types.
const (
	bitwardenFieldText    = 0
	bitwardenFieldHidden  = 1
	bitwardenFieldBoolean = 2
)

// bitwardenExport represents the top-level Bitwarden export structure.
type bitwardenExport struct {
	Encrypted bool              `json:"encrypted"`
	Items     []bitwardenItem   `json:"items"`
	Folders   []bitwardenFolder `json:"folders"`
}

// bitwardenFolder represents a Bitwarden folder or collection.
type bitwardenFolder struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// bitwardenItem represents a Bitwarden vault item.
type bitwardenItem struct {
	Type          int                    `json:"type"`
	Name          string                 `json:"name"`
	Notes         string                 `json:"notes"`
	FolderID      *string                `json:"folderId"`
	CollectionIDs []string               `json:"collectionIds"`
	Login         *bitwardenLogin        `json:"login"`
	Fields        []bitwardenCustomField `json:"fields"`
}

// bitwardenLogin represents Bitwarden login data.
type bitwardenLogin struct {
	URIs     []bitwardenURI `json:"uris"`
	Username string         `json:"username"`
	Password string         `json:"password"`
	TOTP     string         `json:"totp"`
}

// bitwardenURI represents a Bitwarden URI entry.
type bitwardenURI struct {
	URI string `json:"uri"`
}

// bitwardenCustomField represents a Bitwarden custom field.
type bitwardenCustomField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Type  int    `json:"type"`
}

var bitwardenTypeNames = map[int]string{
	bitwardenTypeSecureNote: "secure note",
	bitwardenTypeCard:       "card",
	bitwardenTypeIdentity:   "identity",
}

// Source returns the source type for this parser.
func (p *BitwardenParser) Source() Source {
	return SourceBitwarden
}

// Parse parses Bitwarden JSON data.
func (p *BitwardenParser) Parse(data []byte) (*ImportResult, error) {
	result := newResult()

	var export bitwardenExport
	if err := json.Unmarshal(data, &export); err != nil {
		return nil, fmt.Errorf("failed to parse Bitwarden JSON: %w", err)
	}
	if export.Encrypted {
		return nil, errors.New("encrypted Bitwarden exports are not supported: export as unencrypted JSON")
	}

	// Folders and collections share one lookup
	folderMap := make(map[string]string)
	for _, f := range export.Folders {
		folderMap[f.ID] = f.Name
	}

	itemCounter := 1
	for i := range export.Items {
		item := &export.Items[i]
		if item.Type != bitwardenTypeLogin {
			reason := fmt.Sprintf("unsupported item type: %d", item.Type)
			if name, ok := bitwardenTypeNames[item.Type]; ok {
				reason = "unsupported item type: " + name
			}
			result.Skipped = append(result.Skipped, SkippedItem{OriginalName: item.Name, Reason: reason})
			continue
		}

		login, warnings := p.parseLogin(item, folderMap, &itemCounter)
		for _, w := range warnings {
			result.Warnings = append(result.Warnings, fmt.Sprintf("item %d (%s): %s", i+1, item.Name, w))
		}
		result.addItem(login, item.Name)
	}

	return result, nil
}

// parseLogin parses a Login type item.
func (p *BitwardenParser) parseLogin(item *bitwardenItem, folderMap map[string]string, itemCounter *int) (*Item, []string) {
	var warnings []string
	out := &Item{
		Title: strings.TrimSpace(item.Name),
		Notes: item.Notes,
	}

	if login := item.Login; login != nil {
		out.Username = login.Username
		out.Password = login.Password
		var uris []string
		for _, u := range login.URIs {
			if u.URI != "" {
				uris = append(uris, u.URI)
			}
		}
		out.URL = strings.Join(uris, " ")
		if login.TOTP != "" {
			warnings = append(warnings, "TOTP seed not imported")
		}
	}

	if out.Title == "" {
		var primary string
		if item.Login != nil && len(item.Login.URIs) > 0 {
			primary = item.Login.URIs[0].URI
		}
		out.Title = GenerateFallbackTitle(primary, *itemCounter)
		*itemCounter++
	}

	// Visible custom fields are appended to notes, hidden ones are dropped
	var extra []string
	for _, cf := range item.Fields {
		switch cf.Type {
		case bitwardenFieldText, bitwardenFieldBoolean:
			if cf.Name != "" || cf.Value != "" {
				extra = append(extra, cf.Name+": "+cf.Value)
			}
		case bitwardenFieldHidden:
			warnings = append(warnings, fmt.Sprintf("hidden field %q not imported", cf.Name))
		}
	}
	if len(extra) > 0 {
		out.Notes = strings.TrimSpace(strings.Join(append([]string{out.Notes}, extra...), "\n"))
	}

	if item.FolderID != nil {
		if name, ok := folderMap[*item.FolderID]; ok && name != "" {
			out.Tags = append(out.Tags, name)
		}
	}
	for _, collID := range item.CollectionIDs {
		if name, ok := folderMap[collID]; ok && name != "" {
			out.Tags = append(out.Tags, name)
		}
	}

	return out, warnings
}
