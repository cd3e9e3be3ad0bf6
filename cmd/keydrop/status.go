package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/keydrop-app/keydrop/internal/project"
)

var statusCmd = &cobra.Command{
	Use:   "status [path]",
	Short: "Show editor liveness for a project",
	Long: `Resolve the project root for the given path (default: the current
directory) and report whether an editor bridge currently has that project
open. Without a configured bridge the answer is always unknown.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "."
		if len(args) == 1 {
			path = args[0]
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		// Resolve walks up from the path's parent, so anchor it to a file
		// inside the directory being asked about.
		root, err := project.MarkerResolver{}.Resolve(filepath.Join(abs, ".env"))
		if err != nil {
			return err
		}

		status := sess.Editor.Status(cmd.Context(), root)
		fmt.Printf("Project: %s\n", root)
		fmt.Printf("Editor:  %s\n", editorStatusLabel(status))
		if len(cfg.Integrations.EditorBridgeCommand) == 0 {
			fmt.Println("\nNo editor bridge configured; set integrations.editor_bridge_command in config.yaml.")
		}
		return nil
	},
}
