package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"moltspeak/internal/services/identity"
)

func fingerprintCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fingerprint",
		Short: "Print identity fingerprint and public keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := appCtx.LoadIdentity()
			if err != nil {
				return err
			}
			ref := identity.Ref(id)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Agent:       %s\n", ref)
			fmt.Fprintf(out, "Fingerprint: %s\n", identity.Fingerprint(id))
			fmt.Fprintf(out, "Signing:     %s\n", ref.Key)
			fmt.Fprintf(out, "Encryption:  %s\n", ref.EncKey)
			return nil
		},
	}
	return cmd
}
