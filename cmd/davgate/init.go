package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/sagarc03/davgate"
	"github.com/sagarc03/davgate/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Interactively write a config file",
	Long: `Ask for the listen address, directory, mount prefix and credential,
then write them to a YAML config file readable only by the current user.

Values already present in the loaded configuration are offered as defaults.`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringP("output", "o", "config.yaml", "file to write")
	initCmd.Flags().Bool("force", false, "overwrite an existing file without asking")

	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	output, _ := cmd.Flags().GetString("output")
	force, _ := cmd.Flags().GetBool("force")

	if _, err := os.Stat(output); err == nil && !force {
		confirm := promptui.Prompt{
			Label:     fmt.Sprintf("%s already exists. Overwrite", output),
			IsConfirm: true,
		}
		if _, promptErr := confirm.Run(); promptErr != nil {
			fmt.Println("Cancelled.")
			return nil //nolint:nilerr // User cancelled, not an error
		}
	}

	answers, err := askInit(cfg)
	if err != nil {
		return quietCancel(err)
	}

	if err := answers.Validate(); err != nil {
		return err
	}

	if err := config.NewFile(answers).Save(output); err != nil {
		return err
	}

	slog.Info("config written", "path", output)
	fmt.Fprintf(cmd.OutOrStdout(), "Start the server with: davgate serve --config %s\n", output)
	return nil
}

func askInit(defaults *config.Config) (*config.Config, error) {
	cfg := *defaults
	var err error

	if cfg.Server.Listen, err = promptText("Listen address", defaults.Server.Listen, validateListen); err != nil {
		return nil, err
	}
	if cfg.Storage.Path, err = promptText("Directory to serve", defaults.Storage.Path, required("directory")); err != nil {
		return nil, err
	}
	if cfg.Server.Prefix, err = promptText("Mount prefix (empty for none)", defaults.Server.Prefix, validatePrefix); err != nil {
		return nil, err
	}
	if cfg.Auth.Username, err = promptText("Username", defaults.Auth.Username, required("username")); err != nil {
		return nil, err
	}
	if cfg.Auth.Password, err = promptSecret("Password"); err != nil {
		return nil, err
	}
	cfg.Auth.PasswordFile = ""

	return &cfg, nil
}

func validateListen(input string) error {
	if _, _, err := net.SplitHostPort(input); err != nil {
		return errors.New("expected host:port")
	}
	return nil
}

func validatePrefix(input string) error {
	_, err := davgate.NormalizePrefix(input)
	return err
}
