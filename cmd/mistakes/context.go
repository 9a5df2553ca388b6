package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"mistakevault/internal/config"
	"mistakevault/internal/contextutil"
	"mistakevault/internal/storage"
	"mistakevault/internal/vault"
)

// commandContext lazily builds the shared pieces every subcommand needs.
type commandContext struct {
	jsonOutput *bool

	cfg    *config.Config
	store  *storage.JSONStore
	vault  *vault.Manager
	logger *slog.Logger
}

func newCommandContext(jsonOutput *bool) *commandContext {
	return &commandContext{jsonOutput: jsonOutput}
}

func (c *commandContext) ensure() error {
	if c.cfg != nil {
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	vm, err := vault.NewManager(cfg.DataDir, cfg.InboxDir, cfg.VaultDir)
	if err != nil {
		return fmt.Errorf("open vault: %w", err)
	}

	c.cfg = cfg
	c.vault = vm
	c.store = storage.NewJSONStore(cfg.StorePath)
	c.logger = config.NewLogger(os.Stderr, cfg)
	return nil
}

// withLogger attaches the command logger to ctx.
func (c *commandContext) withLogger(ctx context.Context) context.Context {
	if c.logger == nil {
		return ctx
	}
	return contextutil.WithLogger(ctx, c.logger)
}

func (c *commandContext) wantJSON() bool {
	return c.jsonOutput != nil && *c.jsonOutput
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
