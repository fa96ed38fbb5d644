package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"moltspeak/internal/crypto"
)

func keygenCmd() *cobra.Command {
	var agent, org string
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate identity keys and store them securely",
		RunE: func(cmd *cobra.Command, args []string) error {
			if passphrase == "" {
				return fmt.Errorf("passphrase required (-p)")
			}
			if agent == "" {
				agent = appCtx.Settings.Agent.Name
			}
			if org == "" {
				org = appCtx.Settings.Agent.Org
			}
			if agent == "" || org == "" {
				return fmt.Errorf("--agent and --org are required")
			}
			if appCtx.Identity.Exists() {
				return fmt.Errorf("identity already exists at %s", appCtx.Identity.Path())
			}
			id, fp, err := appCtx.IDs.GenerateIdentity(passphrase, agent, org)
			if err != nil {
				return err
			}
			defer crypto.WipeIdentity(&id)
			fmt.Fprintf(cmd.OutOrStdout(), "Identity created for %s@%s.\nFingerprint: %s\n", id.Agent, id.Org, fp)
			return nil
		},
	}
	cmd.Flags().StringVar(&agent, "agent", "", "agent name (default from config)")
	cmd.Flags().StringVar(&org, "org", "", "organisation name (default from config)")
	return cmd
}
