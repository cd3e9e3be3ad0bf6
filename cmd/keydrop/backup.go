package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Write an encrypted backup of the vault",
	Long: `Snapshot the vault into the configured backup directory. Backups are
encrypted with a key derived from the master password and a fresh salt, so a
backup file is as safe at rest as the vault itself. Older snapshots beyond
backup.keep are pruned.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := readPassword("Enter master password: ")
		if err != nil {
			return err
		}

		dir := cfg.Backup.Directory
		if dir == "" {
			dir = filepath.Join(keydropDir, "backups")
		}
		path, err := vlt.Backup(dir, password, cfg.Backup.Keep)
		if err != nil {
			return err
		}
		fmt.Printf("Backup written to %s\n", path)
		return nil
	},
}

var restoreCmd = &cobra.Command{
	Use:   "restore <backup-file>",
	Short: "Restore the vault from an encrypted backup",
	Long: `Recreate the vault database from a backup file. Restoring never
overwrites an existing vault; move or remove the current one first.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := readPassword("Enter master password: ")
		if err != nil {
			return err
		}
		if err := vlt.Restore(args[0], password); err != nil {
			return err
		}
		fmt.Printf("Vault restored to %s\n", keydropDir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(restoreCmd)
}
