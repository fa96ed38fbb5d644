package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func peerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "peer",
		Short: "Manage pinned peer keys",
	}
	cmd.AddCommand(peerPinCmd(), peerFetchCmd(), peerListCmd())
	return cmd
}

func peerPinCmd() *cobra.Command {
	var key, encKey string
	cmd := &cobra.Command{
		Use:   "pin agent@org",
		Short: "Pin a peer's public keys",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := parseRef(args[0])
			if err != nil {
				return err
			}
			ref.Key, ref.EncKey = key, encKey
			if err := appCtx.Peers.Pin(ref); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pinned %s\n", ref)
			return nil
		},
	}
	cmd.Flags().StringVar(&key, "key", "", "ed25519 signing key")
	cmd.Flags().StringVar(&encKey, "enc-key", "", "x25519 encryption key")
	_ = cmd.MarkFlagRequired("key")
	return cmd
}

func peerFetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch agent@org",
		Short: "Look a peer up in the directory and pin its published keys",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dc, err := directoryClient()
			if err != nil {
				return err
			}
			ref, err := parseRef(args[0])
			if err != nil {
				return err
			}
			published, err := dc.Resolve(cmd.Context(), ref)
			if err != nil {
				return err
			}
			if err := appCtx.Peers.Pin(published); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pinned %s\nSigning:    %s\nEncryption: %s\n",
				published, published.Key, published.EncKey)
			return nil
		},
	}
	return cmd
}

func peerListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List pinned peers",
		RunE: func(cmd *cobra.Command, args []string) error {
			peers, err := appCtx.Peers.List()
			if err != nil {
				return err
			}
			for _, p := range peers {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", p, p.Key)
			}
			return nil
		},
	}
	return cmd
}
