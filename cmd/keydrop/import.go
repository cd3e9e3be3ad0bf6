package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/keydrop-app/keydrop/internal/config"
	"github.com/keydrop-app/keydrop/internal/disclosure"
	"github.com/keydrop-app/keydrop/internal/editor"
	"github.com/keydrop-app/keydrop/internal/ingest"
)

var (
	importYes    bool
	importDryRun bool
)

var importCmd = &cobra.Command{
	Use:   "import [paths...]",
	Short: "Import secrets from environment files",
	Long: `Parse the given environment files, stage the first one that parses
cleanly, and import its secret variables into the vault after confirmation.
Non-secret configuration variables are shown but never imported. Values that
look like secrets stay masked throughout.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		pipeline := ingest.NewPipeline(vlt, vlt, ingest.Options{
			Tracker: sess.Editor,
			Logger:  logger,
		})

		batch, fileErrs, err := pipeline.Ingest(ctx, args)
		for _, fe := range fileErrs {
			color.Yellow("Skipping %s: %v", fe.Path, fe.Err)
		}
		if err != nil {
			return err
		}

		printBatch(batch)

		if importDryRun {
			fmt.Println("\nDry run, nothing imported.")
			pipeline.Discard()
			return nil
		}
		if batch.SecretCount() == 0 {
			fmt.Println("\nNo secret variables found, nothing to import.")
			pipeline.Discard()
			return nil
		}

		if !importYes {
			ok, err := confirmPrompt(fmt.Sprintf("\nImport %d secret(s) into the vault? [y/N]: ", batch.SecretCount()))
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println("Import cancelled.")
				pipeline.Discard()
				return nil
			}
		}

		if err := ensureUnlocked(); err != nil {
			return err
		}

		outcome, err := pipeline.Confirm(ctx, batch)
		if err != nil {
			return err
		}

		fmt.Println()
		for _, rec := range outcome.Created {
			color.Green("✓ %s (%s)", rec.Name, rec.Environment)
		}
		for _, skip := range outcome.Skipped {
			color.Yellow("- %s skipped: %s", skip.Name, skip.Reason)
		}
		fmt.Printf("\nImported %d secret(s), skipped %d.\n", len(outcome.Created), len(outcome.Skipped))
		return nil
	},
}

func init() {
	importCmd.Flags().BoolVarP(&importYes, "yes", "y", false, "Import without asking for confirmation")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Show what would be imported without writing anything")
}

// printBatch renders the staged batch the way the confirmation panel does:
// file and project provenance, editor liveness, then every variable with
// secrets masked.
func printBatch(batch *ingest.Batch) {
	bold := color.New(color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()
	secretBadge := color.New(color.FgRed).Sprint("[secret]")
	configBadge := dim("[config]")

	fmt.Printf("%s %s\n", bold("File:"), batch.SourcePath)
	fmt.Printf("%s %s\n", bold("Project:"), batch.ProjectPath)
	fmt.Printf("%s %s (%s)\n", bold("Environment:"), ingest.InferEnvironment(batch.FileName), batch.FileName)
	fmt.Printf("%s %s\n\n", bold("Editor:"), editorStatusLabel(batch.EditorStatus))

	for _, v := range batch.Variables {
		if v.IsSecret {
			fmt.Printf("  %s %s=%s\n", secretBadge, v.Name, maskValue(v.RawValue))
		} else {
			fmt.Printf("  %s %s=%s\n", configBadge, v.Name, v.RawValue)
		}
	}
}

func editorStatusLabel(status editor.Status) string {
	switch status {
	case editor.StatusOpen:
		return color.GreenString("project open in editor")
	case editor.StatusClosed:
		return color.New(color.Faint).Sprint("project not open")
	default:
		return color.New(color.Faint).Sprint("editor status unknown")
	}
}

// maskValue applies the configured masking style.
func maskValue(value string) string {
	if cfg != nil && cfg.UI.MaskStyle == config.MaskStyleFixed {
		return disclosure.Mask("")
	}
	return disclosure.Mask(value)
}

func confirmPrompt(prompt string) (bool, error) {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}
