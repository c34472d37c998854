// NTBridge - IM kernel bridge core
// License: MIT
//
// Copyright (c) 2026 NTBridge contributors

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tinyland-inc/ntbridge/cmd/ntbridge/internal"
	"github.com/tinyland-inc/ntbridge/cmd/ntbridge/internal/serve"
	"github.com/tinyland-inc/ntbridge/cmd/ntbridge/internal/version"
)

func NewNTBridgeCommand() *cobra.Command {
	short := fmt.Sprintf("ntbridge - IM kernel bridge v%s", internal.GetVersion())

	cmd := &cobra.Command{
		Use:     "ntbridge",
		Short:   short,
		Example: "ntbridge serve",
	}

	cmd.AddCommand(
		serve.NewServeCommand(),
		version.NewVersionCommand(),
	)

	return cmd
}

func main() {
	cmd := NewNTBridgeCommand()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
