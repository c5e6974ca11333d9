package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sagarc03/davgate"
	"github.com/sagarc03/davgate/config"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Print the Authorization header value for the configured credential",
	Long: `Print the exact Authorization header value davgate accepts, for use
with clients that take a raw header:

  curl -H "Authorization: $(davgate token)" -X PROPFIND http://127.0.0.1:4918/

Missing username or password is prompted for.`,
	RunE: runToken,
}

func init() {
	tokenCmd.Flags().StringP("username", "u", "", "username")
	tokenCmd.Flags().StringP("password", "p", "", "password")
	tokenCmd.Flags().String("password-file", "", "JSON credential file")

	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	cred, err := cfg.Auth.MergedCredential()
	if err != nil {
		return err
	}

	if cred.Username == "" {
		if cred.Username, err = promptText("Username", "", required("username")); err != nil {
			return quietCancel(err)
		}
	}
	if cred.Password == "" {
		if cred.Password, err = promptSecret("Password"); err != nil {
			return quietCancel(err)
		}
	}

	fmt.Fprintln(cmd.OutOrStdout(), davgate.NewCredentialStore(cred).Token())
	return nil
}

func quietCancel(err error) error {
	if errors.Is(err, errCancelled) {
		return nil
	}
	return err
}
