package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/keydrop-app/keydrop/internal/backend"
	"github.com/keydrop-app/keydrop/internal/cli"
	"github.com/keydrop-app/keydrop/internal/disclosure"
	"github.com/keydrop-app/keydrop/internal/editor"
)

var (
	listEnvironment string
	listFilter      []string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored secrets",
	Long: `List every record in the vault. Values are always masked here; use
'keydrop show' to disclose a single value. Records imported from an env file
show their project and, when an editor bridge is configured, whether the
project is currently open.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		records, err := vlt.List(ctx)
		if err != nil {
			return err
		}
		if listEnvironment != "" {
			filtered := records[:0]
			for _, rec := range records {
				if rec.Environment == backend.Environment(listEnvironment) {
					filtered = append(filtered, rec)
				}
			}
			records = filtered
		}
		if len(listFilter) > 0 {
			names := make([]string, len(records))
			for i, rec := range records {
				names[i] = rec.Name
			}
			selected, err := cli.FilterNames(listFilter, names)
			if err != nil {
				return err
			}
			keep := make(map[string]bool, len(selected))
			for _, name := range selected {
				keep[name] = true
			}
			filtered := records[:0]
			for _, rec := range records {
				if keep[rec.Name] {
					filtered = append(filtered, rec)
				}
			}
			records = filtered
		}
		if len(records) == 0 {
			fmt.Println("No secrets stored.")
			return nil
		}

		dim := color.New(color.Faint).SprintFunc()
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tENVIRONMENT\tVALUE\tSOURCE")
		for _, rec := range records {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				rec.Name, rec.Environment, disclosure.Mask(""), sourceLabel(ctx, rec, dim))
		}
		if err := w.Flush(); err != nil {
			return err
		}

		fmt.Printf("\n%d secret(s).\n", len(records))
		return nil
	},
}

func init() {
	listCmd.Flags().StringVarP(&listEnvironment, "env", "e", "", "Only show records for this environment")
	listCmd.Flags().StringSliceVarP(&listFilter, "filter", "f", nil, "Only show records whose name matches a pattern (glob or exact)")
}

// sourceLabel describes where a record came from; env-file records carry the
// file name and live editor status.
func sourceLabel(ctx context.Context, rec *backend.KeyRecord, dim func(...interface{}) string) string {
	if rec.SourceType != backend.SourceEnvFile {
		return dim("manual")
	}
	label := rec.EnvFileName
	if sess != nil && rec.ProjectPath != "" {
		switch sess.Editor.Status(ctx, rec.ProjectPath) {
		case editor.StatusOpen:
			label += " " + color.GreenString("(open)")
		case editor.StatusClosed:
			label += " " + dim("(closed)")
		}
	}
	return label
}
