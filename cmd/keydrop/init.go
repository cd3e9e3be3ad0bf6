package main

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/keydrop-app/keydrop/internal/config"
	"github.com/keydrop-app/keydrop/internal/localvault"
	"github.com/keydrop-app/keydrop/internal/security"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new encrypted vault",
	Long: `Create the keydrop directory, the encrypted vault database and a
default configuration file. The master password is requested twice and is
never stored; losing it means losing access to the vault.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := readPassword("Enter master password: ")
		if err != nil {
			return err
		}
		strength := security.EvaluateMasterPassword(password)
		if strength == security.StrengthWeak {
			return fmt.Errorf("master password must be at least %d characters", security.MinMasterPasswordLength)
		}
		if strength == security.StrengthFair {
			color.Yellow("Password strength: fair. Consider 14+ characters.")
		}
		confirm, err := readPassword("Confirm master password: ")
		if err != nil {
			return err
		}
		if password != confirm {
			return errors.New("passwords do not match")
		}

		if err := vlt.Init(password); err != nil {
			if errors.Is(err, localvault.ErrAlreadyInitialized) {
				return fmt.Errorf("vault already exists at %s", keydropDir)
			}
			return err
		}
		if err := config.Save(keydropDir, cfg); err != nil {
			return err
		}

		fmt.Printf("Vault initialized at %s\n", keydropDir)
		fmt.Println("Run 'keydrop import <file>' to bring in your first env file.")
		return nil
	},
}
