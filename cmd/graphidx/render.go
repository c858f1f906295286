// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/sigil-dev/graphidx/internal/bootstrap"
	"github.com/sigil-dev/graphidx/internal/store"
	graphidxerr "github.com/sigil-dev/graphidx/pkg/errors"
)

// --- lipgloss styles ---

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

func renderReport(w io.Writer, r *bootstrap.Report) error {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Bootstrap run "+r.RunID.String()) + "\n")
	row := func(label string, value any) {
		fmt.Fprintf(&b, "  %s %v\n", labelStyle.Render(fmt.Sprintf("%-20s", label+":")), value)
	}
	row("Seeded nodes", r.Seeded)
	row("Entities resolved", r.EntitiesResolved)
	row("Vectors attached", r.VectorsAttached)
	row("Indexes provisioned", r.IndexesProvisioned)
	for _, ack := range r.Indexes {
		note := ""
		if ack.Replaced {
			note = dimStyle.Render(" (replaced)")
		}
		row("  "+ack.Name, fmt.Sprintf("%s %s, %d entries%s", ack.Kind, successStyle.Render(string(ack.State)), ack.Entries, note))
	}
	row("Duration", r.Duration().Round(time.Millisecond))

	if r.OK() {
		b.WriteString(successStyle.Render("Bootstrap completed") + "\n")
	} else {
		fmt.Fprintf(&b, "%s at step %s: %s\n",
			errorStyle.Render("Bootstrap failed"), r.FailedStep, r.Err)
		if state, ok := graphidxerr.FieldsOf(r.Err)["index_state"]; ok {
			fmt.Fprintf(&b, "%s\n", warnStyle.Render(fmt.Sprintf(
				"index %v is %v; re-run bootstrap or 'graphidx index provision' to restore it",
				graphidxerr.FieldsOf(r.Err)["index"], state)))
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func renderIndexes(w io.Writer, infos []*store.IndexInfo) error {
	if len(infos) == 0 {
		_, err := fmt.Fprintln(w, "No indexes.")
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", titleStyle.Render(fmt.Sprintf("%-24s %-9s %-12s %-20s %-14s %s",
		"NAME", "KIND", "LABEL", "PROPERTIES", "SHAPE", "ENTRIES")))
	for _, info := range infos {
		shape := "-"
		if info.Kind == store.IndexKindVector {
			shape = fmt.Sprintf("%d/%s", info.Dimensions, info.Similarity)
		}
		fmt.Fprintf(&b, "%-24s %-9s %-12s %-20s %-14s %d\n",
			info.Name, info.Kind, info.Label, strings.Join(info.Properties, ","), shape, info.Entries)
	}
	_, err := io.WriteString(w, b.String())
	return err
}
