package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/adsbib/internal/credential"
)

var (
	tokenReset bool
	tokenFile  string
)

func init() {
	tokenCmd.Flags().BoolVar(&tokenReset, "reset", false, "Remove the stored token")
	tokenCmd.Flags().StringVar(&tokenFile, "token-file", credential.DefaultPath, "File holding the ADS API token")
	rootCmd.AddCommand(tokenCmd)
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Check, store or reset the ADS API token",
	Long: `Without flags, obtain the token (from the token file, ADS_API_TOKEN, the
global config, or an interactive prompt) and report where it came from.
With --reset, remove the token file so the next run asks again.

Get a token at ` + credential.TokenURL,
	Args: cobra.NoArgs,
	RunE: runToken,
}

// TokenResponse is the response for the token command.
type TokenResponse struct {
	Status string `json:"status"`
	Path   string `json:"path"`
	Token  string `json:"token,omitempty"`
}

func runToken(cmd *cobra.Command, args []string) error {
	store := newTokenStore(tokenFile)

	if tokenReset {
		if err := store.Reset(); err != nil {
			exitWithError("token", err)
		}
		if humanOutput {
			outputHuman("Removed %s\n", tokenFile)
		} else {
			outputJSON(StatusResponse{Status: "removed", Path: tokenFile})
		}
		return nil
	}

	token, err := store.Obtain(context.Background())
	if err != nil {
		exitWithError("credential", err)
	}
	resp := TokenResponse{Status: "ok", Path: tokenFile, Token: maskToken(token)}
	if humanOutput {
		outputHuman("Token %s available (file: %s)\n", resp.Token, resp.Path)
	} else {
		outputJSON(resp)
	}
	return nil
}

// maskToken keeps the first four characters.
func maskToken(token string) string {
	if len(token) <= 4 {
		return strings.Repeat("*", len(token))
	}
	return token[:4] + strings.Repeat("*", len(token)-4)
}
