// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package main

import (
	"fmt"

	"github.com/sigil-dev/graphidx/internal/index"
	"github.com/sigil-dev/graphidx/internal/store"
	graphidxerr "github.com/sigil-dev/graphidx/pkg/errors"
	"github.com/spf13/cobra"
)

func newIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Inspect and manage indexes",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List existing indexes",
			Args:  cobra.NoArgs,
			RunE:  runIndexList,
		},
		&cobra.Command{
			Use:   "drop <name>",
			Short: "Drop an index if it exists",
			Args:  cobra.ExactArgs(1),
			RunE:  runIndexDrop,
		},
		&cobra.Command{
			Use:       "provision <vector|fulltext>",
			Short:     "Replace the configured vector or fulltext index",
			Long:      "Drop and recreate one configured index over the current graph. Use it to restore an index left absent by a failed run.",
			Args:      cobra.ExactArgs(1),
			ValidArgs: []string{string(store.IndexKindVector), string(store.IndexKindFulltext)},
			RunE:      runIndexProvision,
		},
	)

	return cmd
}

func runIndexList(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	gs, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = gs.Close() }()

	infos, err := gs.Indexes().List(cmd.Context())
	if err != nil {
		return err
	}
	return renderIndexes(cmd.OutOrStdout(), infos)
}

func runIndexDrop(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	gs, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = gs.Close() }()

	if err := index.NewProvisioner(gs.Indexes(), nil).Drop(cmd.Context(), args[0]); err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Dropped index: %s\n", args[0])
	return err
}

func runIndexProvision(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var def store.IndexDefinition
	switch store.IndexKind(args[0]) {
	case store.IndexKindVector:
		def = cfg.VectorIndexDefinition()
	case store.IndexKindFulltext:
		def = cfg.FulltextIndexDefinition()
	default:
		return graphidxerr.New(graphidxerr.CodeCLIInputInvalid,
			fmt.Sprintf("index kind must be one of [vector, fulltext], got %q", args[0]))
	}

	gs, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = gs.Close() }()

	ack, err := index.NewProvisioner(gs.Indexes(), nil).Provision(cmd.Context(), def)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Index %s is %s (%s, %d entries, replaced: %t)\n",
		ack.Name, ack.State, ack.Kind, ack.Entries, ack.Replaced)
	return err
}
