package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/text/unicode/norm"

	"github.com/forest6511/pawnvault/internal/api"
	"github.com/forest6511/pawnvault/internal/cli"
	"github.com/forest6511/pawnvault/pkg/audit"
	"github.com/forest6511/pawnvault/pkg/entry"
	"github.com/forest6511/pawnvault/pkg/vault"
)

var (
	// ErrVaultNotAllowed is returned when the policy hides a vault.
	ErrVaultNotAllowed = errors.New("vault is not exposed by MCP policy")

	// ErrEntryAddDisabled is returned by entry_add when the policy forbids it.
	ErrEntryAddDisabled = errors.New("entry_add is disabled by MCP policy")
)

// VaultListInput represents input for vault_list tool.
type VaultListInput struct {
	Pattern string `json:"pattern,omitempty"`
}

// VaultListOutput represents output for vault_list tool.
type VaultListOutput struct {
	Vaults []VaultInfo `json:"vaults"`
}

// VaultInfo represents one vault (no entries).
type VaultInfo struct {
	Name           string `json:"name"`
	CreatedAt      string `json:"created_at"`
	LastAccessedAt string `json:"last_accessed_at"`
}

// EntryListInput represents input for entry_list tool.
type EntryListInput struct {
	Vault string `json:"vault"`
}

// EntryListOutput represents output for entry_list tool.
type EntryListOutput struct {
	Vault   string      `json:"vault"`
	Entries []EntryInfo `json:"entries"`
}

// EntryInfo represents an entry with its secret masked.
type EntryInfo struct {
	ID           int32  `json:"id"`
	Notes        string `json:"notes"`
	MaskedSecret string `json:"masked_secret"`
	SecretLength int    `json:"secret_length"`
}

// EntryAddInput represents input for entry_add tool.
type EntryAddInput struct {
	Vault string `json:"vault"`
	Notes string `json:"notes,omitempty"`
}

// EntryAddOutput represents output for entry_add tool.
type EntryAddOutput struct {
	Vault      string    `json:"vault"`
	Entry      EntryInfo `json:"entry"`
	EntryCount int       `json:"entry_count"`
}

// handleVaultList handles the vault_list tool call.
func (s *Server) handleVaultList(_ context.Context, _ *mcp.CallToolRequest, input VaultListInput) (*mcp.CallToolResult, VaultListOutput, error) {
	vaults, err := s.registry.List()
	if err != nil {
		err = s.toolError("vault_list", err)
		s.record(audit.OpVaultList, "", err)
		return nil, VaultListOutput{}, err
	}
	if pattern := norm.NFC.String(strings.TrimSpace(input.Pattern)); pattern != "" {
		vaults = cli.Filter([]string{pattern}, vaults)
	}

	output := VaultListOutput{Vaults: make([]VaultInfo, 0, len(vaults))}
	for _, v := range vaults {
		if ok, _ := s.policy.IsVaultAllowed(v.Name); !ok {
			continue
		}
		output.Vaults = append(output.Vaults, VaultInfo{
			Name:           v.Name,
			CreatedAt:      v.Metadata.CreatedAt.Format(time.RFC3339),
			LastAccessedAt: v.Metadata.LastAccessedAt.Format(time.RFC3339),
		})
	}
	s.record(audit.OpVaultList, "", nil)
	return nil, output, nil
}

// handleEntryList handles the entry_list tool call.
func (s *Server) handleEntryList(_ context.Context, _ *mcp.CallToolRequest, input EntryListInput) (*mcp.CallToolResult, EntryListOutput, error) {
	name, err := s.checkVault("entry_list", input.Vault)
	if err != nil {
		s.record(audit.OpEntryList, name, err)
		return nil, EntryListOutput{}, err
	}

	entries, err := s.registry.ListEntries(name, s.masterKey)
	if err != nil {
		err = s.toolError("entry_list", err)
		s.record(audit.OpEntryList, name, err)
		return nil, EntryListOutput{}, err
	}

	output := EntryListOutput{Vault: name, Entries: make([]EntryInfo, 0, len(entries))}
	for _, e := range entries {
		output.Entries = append(output.Entries, maskEntry(e))
	}
	s.record(audit.OpEntryList, name, nil)
	return nil, output, nil
}

// handleEntryAdd handles the entry_add tool call. The secret is always generated.
func (s *Server) handleEntryAdd(_ context.Context, _ *mcp.CallToolRequest, input EntryAddInput) (*mcp.CallToolResult, EntryAddOutput, error) {
	name, err := s.checkVault("entry_add", input.Vault)
	if err == nil && !s.policy.AllowEntryAdd {
		err = ErrEntryAddDisabled
	}
	if err != nil {
		s.record(audit.OpEntryAdd, name, err)
		return nil, EntryAddOutput{}, err
	}

	entries, err := s.registry.AddEntry(name, s.masterKey, "", input.Notes)
	if err != nil {
		err = s.toolError("entry_add", err)
		s.record(audit.OpEntryAdd, name, err)
		return nil, EntryAddOutput{}, err
	}
	s.record(audit.OpEntryAdd, name, nil)

	return nil, EntryAddOutput{
		Vault:      name,
		Entry:      maskEntry(entries[len(entries)-1]),
		EntryCount: len(entries),
	}, nil
}

// checkVault resolves name to the form the registry stores it under and
// applies the policy to that form. The returned name is the one to audit; it
// is the raw input when name is invalid.
func (s *Server) checkVault(tool, name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return name, errors.New("vault is required")
	}
	canonical, err := vault.ValidateName(name)
	if err != nil {
		return name, s.toolError(tool, err)
	}
	if ok, reason := s.policy.IsVaultAllowed(canonical); !ok {
		s.logger.Debug("vault denied by policy", "reason", reason)
		return canonical, ErrVaultNotAllowed
	}
	return canonical, nil
}

// record writes an audit event for a tool call. Audit failures are logged
// and do not fail the call.
func (s *Server) record(op, name string, err error) {
	if s.audit == nil {
		return
	}
	var logErr error
	switch {
	case err == nil:
		logErr = s.audit.LogSuccess(op, audit.SourceMCP, name)
	case errors.Is(err, ErrVaultNotAllowed), errors.Is(err, ErrEntryAddDisabled):
		logErr = s.audit.LogDenied(op, audit.SourceMCP, name, err.Error())
	default:
		logErr = s.audit.LogError(op, audit.SourceMCP, name, err.Error())
	}
	if logErr != nil {
		s.logger.Warn("failed to write audit event", "op", op, "error", logErr)
	}
}

// toolError logs the full error and returns only the stable message.
func (s *Server) toolError(tool string, err error) error {
	s.logger.Debug("tool failed", "tool", tool, "kind", api.Code(err), "error", err)
	return fmt.Errorf("%s: %s", tool, api.Message(err))
}

func maskEntry(e entry.Entry) EntryInfo {
	return EntryInfo{
		ID:           e.ID,
		Notes:        e.Notes,
		MaskedSecret: cli.Mask(e.Secret),
		SecretLength: cli.SecretLength(e.Secret),
	}
}
