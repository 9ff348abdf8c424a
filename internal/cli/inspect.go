package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/scopeview/pkg/pipeline"
	"github.com/matzehuels/scopeview/pkg/render"
)

// inspectCommand creates the inspect command.
func (c *CLI) inspectCommand() *cobra.Command {
	var sf scopeFlags

	cmd := &cobra.Command{
		Use:   "inspect [graph.json]",
		Short: "Print what a scope's diagram would contain",
		Long: `Print what a scope's diagram would contain.

Lists every child of the scope with where it is drawn (core graph or one of
the extract columns), its annotations, and the bridge nodes that connect
the scope to the rest of the graph.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := sf.options(args[0])
			if err != nil {
				return err
			}
			return c.runInspect(cmd.Context(), opts)
		},
	}
	sf.register(cmd)
	return cmd
}

func (c *CLI) runInspect(ctx context.Context, opts pipeline.Options) error {
	opts.Logger = loggerFromContext(ctx)
	if err := opts.ValidateForLoad(); err != nil {
		return err
	}
	if err := opts.ValidateForExpand(); err != nil {
		return err
	}
	result, err := c.newRunner(true).Prepare(ctx, opts)
	if err != nil {
		return err
	}
	writeInspect(c.out(), result.Graph, result.Scope)
	printStats(c.out(), result.Stats)
	return nil
}

// writeInspect prints the summary of one built scope.
func writeInspect(w io.Writer, g *render.GraphInfo, info *render.NodeInfo) {
	fmt.Fprintln(w, StyleTitle.Render("Scope "+scopeLabel(g, info.Name())))
	printKeyValue(w, "type", entryKind(info))
	printKeyValue(w, "core", strconv.Itoa(info.Group.CoreGraph.NodeCount())+" nodes, "+
		strconv.Itoa(info.Group.CoreGraph.EdgeCount())+" edges")

	in, out := bridgeEntries(info)
	if len(in) > 0 {
		printKeyValue(w, "bridges in", bridgeList(in))
	}
	if len(out) > 0 {
		printKeyValue(w, "bridges out", bridgeList(out))
	}
	fmt.Fprintln(w)

	entries := scopeEntries(g, info)
	if len(entries) == 0 {
		printInfo(w, "scope has no children")
		return
	}
	fmt.Fprintln(w, scopeTable(entries).Render())
}

// scopeRows formats entries as table rows.
func scopeRows(entries []scopeEntry) [][]string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.info.DisplayName,
			entryKind(e.info),
			e.place,
			annotationCell(e.info.InAnnotations),
			annotationCell(e.info.OutAnnotations),
		})
	}
	return rows
}

func scopeTable(entries []scopeEntry) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Name", "Kind", "Drawn", "In", "Out").
		Rows(scopeRows(entries)...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader
			}
			if row < 0 || row >= len(entries) {
				return lipgloss.NewStyle()
			}
			e := entries[row]
			switch {
			case col == 0 && e.info.Node.IsGroup():
				return StyleGroup
			case e.place != placeCore:
				return StyleDim
			case col >= 3:
				return lipgloss.NewStyle().Foreground(colorGray)
			}
			return StyleValue
		})
}

// annotationCell lists the annotations on one side by node name.
func annotationCell(l *render.AnnotationList) string {
	if l == nil || l.Len() == 0 {
		return "-"
	}
	names := make([]string, 0, l.Len())
	for _, a := range l.List {
		names = append(names, a.Node.Name)
	}
	return strings.Join(names, ", ")
}

func bridgeList(nodes []*render.NodeInfo) string {
	names := make([]string, len(nodes))
	for i, ni := range nodes {
		names[i] = ni.Node.Name
	}
	return strings.Join(names, ", ")
}
