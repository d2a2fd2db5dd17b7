package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sebasmos/bentoml-cli/internal/cloudconfig"
	"github.com/sebasmos/bentoml-cli/internal/login"
)

var (
	loginEndpoint    string
	loginAPIToken    string
	loginContextName string
)

// cloudCmd groups the BentoCloud credential and context subcommands.
var cloudCmd = &cobra.Command{
	Use:   "cloud",
	Short: "Manage BentoCloud credentials and contexts",
	Long: `Manage BentoCloud (or Yatai) credentials and the named contexts that
store them.

Examples:
  # Interactive login
  bentoml cloud login

  # Non-interactive login with an existing token
  bentoml cloud login --endpoint https://cloud.bentoml.com --api-token TOKEN

  # Inspect and switch contexts
  bentoml cloud current-context
  bentoml cloud list-context
  bentoml cloud update-current-context staging`,
}

var cloudLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Login to BentoCloud or a Yatai server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if loginAPIToken == "" && !term.IsTerminal(int(os.Stdin.Fd())) {
			return fmt.Errorf("no API token provided and stdin is not a terminal; pass --api-token or set BENTO_CLOUD_API_KEY")
		}

		store, err := newStore()
		if err != nil {
			return err
		}

		flow := login.NewFlow(store)
		flow.Out = cmd.OutOrStdout()
		return flow.Run(cmd.Context(), login.Options{
			Endpoint:    loginEndpoint,
			APIToken:    loginAPIToken,
			ContextName: loginContextName,
		})
	},
}

var currentContextCmd = &cobra.Command{
	Use:   "current-context",
	Short: "Print the current cloud context",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := newStore()
		if err != nil {
			return err
		}
		ctx, err := store.GetCurrentContext()
		if err != nil {
			return err
		}
		return printJSON(cmd, ctx)
	},
}

var listContextCmd = &cobra.Command{
	Use:   "list-context",
	Short: "List all available context names",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := newStore()
		if err != nil {
			return err
		}
		names, err := store.ListContextNames()
		if err != nil {
			return err
		}
		return printJSON(cmd, names)
	},
}

var updateCurrentContextCmd = &cobra.Command{
	Use:   "update-current-context <name>",
	Short: "Switch the current context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := newStore()
		if err != nil {
			return err
		}
		ctx, err := store.SetCurrentContext(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Successfully switched to context: %s\n", ctx.Name)
		return nil
	},
}

func newStore() (*cloudconfig.Store, error) {
	dir, err := cloudconfig.DefaultDir()
	if err != nil {
		return nil, err
	}
	return cloudconfig.NewStore(dir), nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func init() {
	cloudLoginCmd.Flags().StringVar(&loginEndpoint, "endpoint",
		envOr("BENTO_CLOUD_API_ENDPOINT", login.DefaultEndpoint),
		"BentoCloud or Yatai endpoint (env: BENTO_CLOUD_API_ENDPOINT)")
	cloudLoginCmd.Flags().StringVar(&loginAPIToken, "api-token",
		os.Getenv("BENTO_CLOUD_API_KEY"),
		"BentoCloud or Yatai user API token (env: BENTO_CLOUD_API_KEY)")
	cloudLoginCmd.Flags().StringVar(&loginContextName, "context", "",
		"Name for the new context (default: \"default\")")

	cloudCmd.AddCommand(cloudLoginCmd, currentContextCmd, listContextCmd, updateCurrentContextCmd)
	rootCmd.AddCommand(cloudCmd)
}
