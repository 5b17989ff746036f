package cli

import (
	"context"
	"fmt"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"github.com/spf13/cobra"

	"github.com/GregMSThompson/insights-backend/internal/store"
)

var secretCmd = &cobra.Command{
	Use:   "secret",
	Short: "Manage platform app secrets in Secret Manager",
}

var secretSetCmd = &cobra.Command{
	Use:   "set <name> <value>",
	Short: "Store a new version of a platform secret",
	Long: `Store a new version of a platform secret, creating the secret if needed.
The name is the one configured in SEARCHADSTOKENSECRET or SOCIALADSSECRET.

Examples:
  insightctl secret set search-ads-developer-token abc123`,
	Args: cobra.ExactArgs(2),
	RunE: runSecretSet,
}

func init() {
	secretCmd.AddCommand(secretSetCmd)
}

func runSecretSet(cmd *cobra.Command, args []string) error {
	if cfg.ProjectID == "" {
		return fmt.Errorf("PROJECTID is not set")
	}

	ctx := context.Background()
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("connect to secret manager: %w", err)
	}
	defer client.Close()

	secrets := store.NewPlatformSecretsStore(client, cfg.ProjectID)
	if err := secrets.PutSecret(ctx, args[0], args[1]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "stored new version of %s\n", args[0])
	return nil
}
