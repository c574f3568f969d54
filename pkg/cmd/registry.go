package cmd

import (
	"log/slog"

	"github.com/dukex/convoflow/pkg/protocol"
	"github.com/dukex/convoflow/pkg/registry"
)

// NewRegistry returns a registry holding every built-in node type.
func NewRegistry(log *slog.Logger, deps protocol.Dependencies) *registry.Registry {
	reg := registry.NewRegistry(log)
	reg.RegisterDefaultNodes(deps)

	return reg
}
