package main

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/keydrop-app/keydrop/internal/config"
	"github.com/keydrop-app/keydrop/internal/editor"
	"github.com/keydrop-app/keydrop/internal/localvault"
	"github.com/keydrop-app/keydrop/internal/session"
)

var (
	keydropDir string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
	vlt    *localvault.Vault
	sess   *session.Session
)

var rootCmd = &cobra.Command{
	Use:   "keydrop",
	Short: "keydrop is a local-first secrets manager for environment files",
	Long: `keydrop ingests secrets discovered in .env files, stages them for
confirmed import into an encrypted vault, and keeps plaintext masked until
you explicitly disclose it.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Development overrides (KEYDROP_HOME etc.); a missing .env is fine.
		_ = godotenv.Load()

		if keydropDir == "" {
			keydropDir = os.Getenv("KEYDROP_HOME")
		}
		if keydropDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("failed to get user home directory: %w", err)
			}
			keydropDir = filepath.Join(home, ".keydrop")
		}

		var err error
		cfg, err = config.Load(keydropDir)
		if err != nil {
			return err
		}
		color.NoColor = color.NoColor || !cfg.UI.Color

		logger = zap.NewNop()
		if verbose {
			logger, err = zap.NewDevelopment()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
		}

		vlt = localvault.New(keydropDir)

		var prober editor.Prober
		if cmdline := cfg.Integrations.EditorBridgeCommand; len(cmdline) > 0 {
			prober, err = editor.NewMCPProber(cmdline)
			if err != nil {
				return err
			}
		}
		sess = session.New(vlt, prober, logger,
			editor.WithFreshness(cfg.EditorFreshness()))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if sess != nil {
			sess.Lock()
		}
		if vlt != nil {
			vlt.Close()
		}
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&keydropDir, "home", "", "keydrop directory (default ~/.keydrop)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(statusCmd)
}

// readPassword prompts for a password without echo.
func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(passwordBytes), nil
}

// ensureUnlocked prompts for the master password if the vault is locked.
func ensureUnlocked() error {
	password, err := readPassword("Enter master password: ")
	if err != nil {
		return err
	}
	if err := vlt.Unlock(password); err != nil {
		return fmt.Errorf("failed to unlock vault: %w", err)
	}
	return nil
}
