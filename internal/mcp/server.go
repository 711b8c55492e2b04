// Package mcp implements the MCP (Model Context Protocol) server for pawnvault.
// Agents see vault names and masked entries; plaintext secrets never leave the process.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/forest6511/pawnvault/internal/config"
	"github.com/forest6511/pawnvault/pkg/audit"
	"github.com/forest6511/pawnvault/pkg/vault"
)

// minAuditDiskSpace is the free space required to append audit events.
const minAuditDiskSpace = 1024 * 1024

// Server represents the MCP server for pawnvault.
type Server struct {
	server    *mcp.Server
	registry  *vault.Registry
	masterKey string
	policy    *Policy
	audit     *audit.Logger // nil when disabled
	logger    *slog.Logger
}

// ServerOptions contains configuration options for the MCP server.
type ServerOptions struct {
	// Registry is the vault storage to expose. Required.
	Registry *vault.Registry

	// MasterKey unlocks the vaults for entry tools.
	// If empty, the server reads PAWNVAULT_MASTER_KEY and clears it.
	MasterKey string

	// Logger receives diagnostics. Defaults to discarding output.
	Logger *slog.Logger

	// Version is reported to clients.
	Version string

	// DisableAudit turns off the tool call audit log in the storage root.
	DisableAudit bool
}

// NewServer creates a new MCP server instance.
func NewServer(opts *ServerOptions) (*Server, error) {
	if opts == nil || opts.Registry == nil {
		return nil, errors.New("a vault registry is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	// Get master key from options or environment
	masterKey := opts.MasterKey
	if masterKey == "" {
		masterKey = os.Getenv(config.EnvMasterKey)
		// Clear the environment variable after reading for security
		os.Unsetenv(config.EnvMasterKey)
	}
	if masterKey == "" {
		return nil, fmt.Errorf("no master key provided: set %s environment variable", config.EnvMasterKey)
	}

	policy, err := LoadPolicy(opts.Registry.Root())
	switch {
	case errors.Is(err, ErrPolicyNotFound):
		policy = DefaultPolicy()
	case err != nil:
		// An unusable policy is never silently widened
		return nil, fmt.Errorf("failed to load MCP policy: %w", err)
	}

	version := opts.Version
	if version == "" {
		version = "dev"
	}

	s := &Server{
		server: mcp.NewServer(
			&mcp.Implementation{
				Name:    "pawnvault",
				Version: version,
			},
			nil,
		),
		registry:  opts.Registry,
		masterKey: masterKey,
		policy:    policy,
		logger:    logger,
	}

	if !opts.DisableAudit {
		if s.audit, err = openAuditLog(opts.Registry, masterKey); err != nil {
			return nil, err
		}
	}

	s.registerTools()
	return s, nil
}

// openAuditLog resumes the audit chain under the storage root.
func openAuditLog(reg *vault.Registry, masterKey string) (*audit.Logger, error) {
	log := audit.NewLogger(filepath.Join(reg.Root(), audit.DirName))
	log.SetSpaceCheck(func() error {
		info, err := reg.CheckDiskSpace()
		if err != nil {
			return nil
		}
		if info.Available < minAuditDiskSpace {
			return fmt.Errorf("insufficient disk space: %d bytes available", info.Available)
		}
		return nil
	})
	if err := log.SetHMACKey([]byte(masterKey)); err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	return log, nil
}

// registerTools registers all MCP tools with the server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "vault_list",
		Description: "List vault names with creation and last access time, newest first. Does NOT open any vault.",
	}, s.handleVaultList)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "entry_list",
		Description: "List the entries of a vault: id, notes and a masked secret (e.g. '****WXYZ'). Does NOT return secret values.",
	}, s.handleEntryList)

	if s.policy.AllowEntryAdd {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "entry_add",
			Description: "Add an entry with a freshly generated secret to a vault. Returns the new id and the masked secret only.",
		}, s.handleEntryAdd)
	}
}

// Run starts the MCP server using stdio transport.
func (s *Server) Run(ctx context.Context) error {
	defer s.Close()
	s.record(audit.OpSessionStart, "", nil)
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Close drops the master key held by the server.
func (s *Server) Close() error {
	if s.masterKey != "" {
		s.record(audit.OpSessionEnd, "", nil)
	}
	s.masterKey = ""
	return nil
}
