// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package main

import (
	"fmt"

	"github.com/sigil-dev/graphidx/internal/config"
	"github.com/spf13/cobra"
)

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a commented default config file",
		Long: `Write the default graphidx.yaml, with every setting documented, to
~/.config/graphidx/graphidx.yaml or the path given by --path.

Store credentials are never written in plain text; run
  graphidx secret set <name>
and reference the secret as keyring://graphidx/<name>.`,
		Args: cobra.NoArgs,
		RunE: runInit,
	}

	cmd.Flags().String("path", "", "where to write the config (default ~/.config/graphidx/graphidx.yaml)")
	cmd.Flags().Bool("force", false, "overwrite an existing config file")

	return cmd
}

func runInit(cmd *cobra.Command, _ []string) error {
	path, _ := cmd.Flags().GetString("path")
	force, _ := cmd.Flags().GetBool("force")

	if path == "" {
		var err error
		if path, err = config.DefaultConfigPath(); err != nil {
			return err
		}
	}

	if err := config.WriteDefault(path, force); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintln(out, successStyle.Render("Config written to: ")+path)
	_, _ = fmt.Fprintln(out, "Run "+labelStyle.Render("graphidx doctor")+" to verify setup, then "+labelStyle.Render("graphidx bootstrap")+".")
	return nil
}
