package mcp

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// Policy restricts which vaults the MCP server exposes and whether entries
// may be added. It is read from PolicyFileName in the storage root.
//
//	version: 1
//	default_action: deny
//	allowed_vaults: ["work-*"]
//	denied_vaults: ["work-payroll"]
//	allow_entry_add: true
type Policy struct {
	Version       int      `yaml:"version"`
	DefaultAction string   `yaml:"default_action"`
	DeniedVaults  []string `yaml:"denied_vaults"`
	AllowedVaults []string `yaml:"allowed_vaults"`
	AllowEntryAdd bool     `yaml:"allow_entry_add"`
}

// PolicyFileName is the name of the policy file
const PolicyFileName = "mcp-policy.yaml"

// Policy action constants
const (
	ActionAllow = "allow"
	ActionDeny  = "deny"
)

// ErrPolicyNotFound is returned when no policy file exists
var ErrPolicyNotFound = errors.New("MCP policy file not found")

// ErrPolicyInsecure is returned when policy file has insecure permissions
var ErrPolicyInsecure = errors.New("MCP policy file has insecure permissions")

// ErrPolicySymlink is returned when policy file is a symlink
var ErrPolicySymlink = errors.New("MCP policy file is a symlink")

// ErrPolicyNotOwnedByUser is returned when policy file is not owned by current user
var ErrPolicyNotOwnedByUser = errors.New("MCP policy file not owned by current user")

// DefaultPolicy exposes every vault and allows adding entries. It applies
// when the storage root has no policy file.
func DefaultPolicy() *Policy {
	return &Policy{Version: 1, DefaultAction: ActionAllow, AllowEntryAdd: true}
}

// LoadPolicy loads the MCP policy from the storage root. The file is opened
// without following symlinks and must be mode 0600 and owned by the current user.
func LoadPolicy(root string) (*Policy, error) {
	f, err := openPolicyFile(filepath.Join(root, PolicyFileName))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	// Use fstat on the opened file descriptor to avoid TOCTOU
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat policy file: %w", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		return nil, fmt.Errorf("%w: %o (expected 0600)", ErrPolicyInsecure, perm)
	}
	if err := checkFileOwnership(info); err != nil {
		return nil, err
	}

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}

	var policy Policy
	if err := yaml.Unmarshal(content, &policy); err != nil {
		return nil, fmt.Errorf("failed to parse policy file: %w", err)
	}

	policy.DeniedVaults = canonicalPatterns(policy.DeniedVaults)
	policy.AllowedVaults = canonicalPatterns(policy.AllowedVaults)

	// Default to deny if not specified
	if policy.DefaultAction == "" {
		policy.DefaultAction = ActionDeny
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return &policy, nil
}

// Validate validates the policy configuration
func (p *Policy) Validate() error {
	if p.Version != 1 {
		return fmt.Errorf("unsupported policy version: %d", p.Version)
	}
	if p.DefaultAction != ActionDeny && p.DefaultAction != ActionAllow {
		return fmt.Errorf("invalid default_action: %s (must be '%s' or '%s')", p.DefaultAction, ActionDeny, ActionAllow)
	}
	for _, pattern := range append(append([]string{}, p.DeniedVaults...), p.AllowedVaults...) {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return fmt.Errorf("invalid vault pattern '%s': %w", pattern, err)
		}
	}
	return nil
}

// IsVaultAllowed checks if a vault may be exposed. name is compared in the
// trimmed NFC form vault names are stored under.
// Evaluation order: denied_vaults, then allowed_vaults, then default_action.
func (p *Policy) IsVaultAllowed(name string) (allowed bool, reason string) {
	name = norm.NFC.String(strings.TrimSpace(name))
	for _, denied := range p.DeniedVaults {
		if ok, _ := filepath.Match(denied, name); ok {
			return false, fmt.Sprintf("vault '%s' matches denied pattern '%s'", name, denied)
		}
	}
	for _, allowed := range p.AllowedVaults {
		if ok, _ := filepath.Match(allowed, name); ok {
			return true, ""
		}
	}
	if p.DefaultAction == ActionAllow {
		return true, ""
	}
	return false, fmt.Sprintf("vault '%s' not in allowed_vaults list", name)
}

// canonicalPatterns trims and NFC-normalizes patterns to match stored vault names.
func canonicalPatterns(patterns []string) []string {
	for i, p := range patterns {
		patterns[i] = norm.NFC.String(strings.TrimSpace(p))
	}
	return patterns
}
