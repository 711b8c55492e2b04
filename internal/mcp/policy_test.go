package mcp

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestLoadPolicy_NotFound(t *testing.T) {
	if _, err := LoadPolicy(t.TempDir()); !errors.Is(err, ErrPolicyNotFound) {
		t.Errorf("expected ErrPolicyNotFound, got %v", err)
	}
}

func TestLoadPolicy_Success(t *testing.T) {
	tmpDir := t.TempDir()
	writePolicy(t, tmpDir, `version: 1
default_action: deny
allowed_vaults:
  - work-*
  - personal
denied_vaults:
  - work-payroll
allow_entry_add: true
`)

	policy, err := LoadPolicy(tmpDir)
	if err != nil {
		t.Fatalf("LoadPolicy failed: %v", err)
	}
	if policy.Version != 1 || policy.DefaultAction != ActionDeny || !policy.AllowEntryAdd {
		t.Errorf("policy = %+v", policy)
	}
	if len(policy.AllowedVaults) != 2 || len(policy.DeniedVaults) != 1 {
		t.Errorf("policy lists = %+v", policy)
	}
}

func TestLoadPolicy_DefaultActionIsDeny(t *testing.T) {
	tmpDir := t.TempDir()
	writePolicy(t, tmpDir, "version: 1\n")

	policy, err := LoadPolicy(tmpDir)
	if err != nil {
		t.Fatalf("LoadPolicy failed: %v", err)
	}
	if policy.DefaultAction != ActionDeny {
		t.Errorf("DefaultAction = %q, want deny", policy.DefaultAction)
	}
}

func TestLoadPolicy_InsecurePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("POSIX permissions not enforced on Windows")
	}
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, PolicyFileName)
	if err := os.WriteFile(path, []byte("version: 1\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.Chmod(path, 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadPolicy(tmpDir); !errors.Is(err, ErrPolicyInsecure) {
		t.Errorf("expected ErrPolicyInsecure, got %v", err)
	}
}

func TestLoadPolicy_Symlink(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks require privileges on Windows")
	}
	tmpDir := t.TempDir()
	target := filepath.Join(tmpDir, "real-policy.yaml")
	if err := os.WriteFile(target, []byte("version: 1\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(target, filepath.Join(tmpDir, PolicyFileName)); err != nil {
		t.Skipf("symlink not supported: %v", err)
	}

	if _, err := LoadPolicy(tmpDir); !errors.Is(err, ErrPolicySymlink) {
		t.Errorf("expected ErrPolicySymlink, got %v", err)
	}
}

func TestLoadPolicy_Invalid(t *testing.T) {
	tests := map[string]string{
		"bad yaml":    "version: [",
		"bad version": "version: 2\n",
		"bad action":  "version: 1\ndefault_action: maybe\n",
		"bad pattern": "version: 1\nallowed_vaults: [\"[\"]\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			tmpDir := t.TempDir()
			writePolicy(t, tmpDir, content)
			if _, err := LoadPolicy(tmpDir); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadPolicy_CanonicalPatterns(t *testing.T) {
	tmpDir := t.TempDir()
	writePolicy(t, tmpDir, "version: 1\ndefault_action: allow\ndenied_vaults:\n  - \"cafe\u0301 \"\n")

	policy, err := LoadPolicy(tmpDir)
	if err != nil {
		t.Fatalf("LoadPolicy failed: %v", err)
	}
	if policy.DeniedVaults[0] != "caf\u00e9" {
		t.Errorf("denied pattern = %q, want NFC without padding", policy.DeniedVaults[0])
	}
	if ok, _ := policy.IsVaultAllowed("caf\u00e9"); ok {
		t.Error("NFC vault name should match an NFD denied pattern")
	}
}

func TestIsVaultAllowed(t *testing.T) {
	policy := &Policy{
		Version:       1,
		DefaultAction: ActionDeny,
		AllowedVaults: []string{"work-*", "personal"},
		DeniedVaults:  []string{"work-payroll"},
	}

	tests := []struct {
		vault string
		want  bool
	}{
		{"work-vpn", true},
		{"personal", true},
		{"work-payroll", false}, // denied beats allowed
		{"bank", false},         // default deny
		{" work-payroll ", false},
		{"work-vpn\t", true},
	}
	for _, tt := range tests {
		allowed, reason := policy.IsVaultAllowed(tt.vault)
		if allowed != tt.want {
			t.Errorf("IsVaultAllowed(%q) = %v, want %v", tt.vault, allowed, tt.want)
		}
		if !allowed && reason == "" {
			t.Errorf("IsVaultAllowed(%q) denied without reason", tt.vault)
		}
	}

	if ok, _ := DefaultPolicy().IsVaultAllowed("anything"); !ok {
		t.Error("default policy should allow every vault")
	}
}
