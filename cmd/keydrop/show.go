package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/keydrop-app/keydrop/internal/backend"
	"github.com/keydrop-app/keydrop/internal/disclosure"
)

var (
	showReveal  bool
	showDecrypt bool
	showQuiet   bool
)

var showCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show a stored secret",
	Long: `Show one record. The value is masked by default. --reveal toggles
visibility for records whose plaintext is in memory; encrypted records
require --decrypt, which asks for the master password every time and never
caches the plaintext beyond this invocation.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		record, err := vlt.GetByName(ctx, args[0])
		if err != nil {
			if errors.Is(err, backend.ErrRecordNotFound) {
				return fmt.Errorf("no secret named %q", args[0])
			}
			return err
		}

		value := maskValue("")
		switch {
		case showDecrypt:
			if !record.Encrypted() {
				return disclosure.ErrNotEncrypted
			}
			password, err := readPassword("Enter master password: ")
			if err != nil {
				return err
			}

			s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
			s.Suffix = " Decrypting..."
			s.Start()
			plaintext, err := sess.Disclosure.RequestDecrypt(ctx, record, password)
			s.Stop()
			if err != nil {
				if reason, ok := sess.Disclosure.FailureReason(record.ID); ok {
					return errors.New(reason)
				}
				return err
			}
			value = plaintext
			defer func() { _ = sess.Disclosure.Remask(record.ID) }()

		case showReveal:
			if _, err := sess.Disclosure.ToggleVisible(record); err != nil {
				if errors.Is(err, disclosure.ErrEncryptedRecord) {
					return errors.New("value is encrypted; use --decrypt to disclose it")
				}
				return err
			}
			value = sess.Disclosure.Display(record)
			defer func() { _ = sess.Disclosure.Remask(record.ID) }()
		}

		if showQuiet {
			fmt.Println(value)
			return nil
		}

		bold := color.New(color.Bold).SprintFunc()
		fmt.Printf("%s %s\n", bold("Name:"), record.Name)
		fmt.Printf("%s %s\n", bold("Service:"), record.Service)
		fmt.Printf("%s %s\n", bold("Environment:"), record.Environment)
		if record.SourceType == backend.SourceEnvFile {
			fmt.Printf("%s %s (%s)\n", bold("Source:"), record.EnvFileName, record.ProjectPath)
		}
		fmt.Printf("%s %s\n", bold("Value:"), value)
		return nil
	},
}

func init() {
	showCmd.Flags().BoolVar(&showReveal, "reveal", false, "Show the plaintext of a value the backend returns unencrypted (the local vault always returns the encrypted sentinel; use --decrypt there)")
	showCmd.Flags().BoolVar(&showDecrypt, "decrypt", false, "Decrypt the value with the master password")
	showCmd.Flags().BoolVarP(&showQuiet, "quiet", "q", false, "Print only the value")
}
