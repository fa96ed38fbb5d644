package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"moltspeak/internal/directory"
	"moltspeak/internal/domain"
	"moltspeak/internal/services/identity"
)

var errNoDirectory = errors.New("no directory configured (--directory or MOLTSPEAK_DIRECTORY_URL)")

func directoryClient() (*directory.HTTP, error) {
	if appCtx.Directory == nil {
		return nil, errNoDirectory
	}
	return appCtx.Directory, nil
}

func registerCmd() *cobra.Command {
	var endpoint, description string
	var caps []string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Publish the local identity to the directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			dc, err := directoryClient()
			if err != nil {
				return err
			}
			id, err := appCtx.LoadIdentity()
			if err != nil {
				return err
			}
			ref := identity.Ref(id)
			dirID, err := dc.Register(cmd.Context(), domain.AgentRegistration{
				AgentName:     ref.Agent,
				Org:           ref.Org,
				PublicKey:     ref.Key,
				EncryptionKey: ref.EncKey,
				Endpoint:      endpoint,
				Description:   description,
				Capabilities:  caps,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s as %s\n", ref, dirID)
			return nil
		},
	}
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "where peers can reach this agent")
	cmd.Flags().StringVar(&description, "description", "", "free-form description")
	cmd.Flags().StringSliceVar(&caps, "cap", nil, "advertised capabilities")
	return cmd
}

func searchCmd() *cobra.Command {
	var q domain.AgentQuery
	cmd := &cobra.Command{
		Use:   "search [text]",
		Short: "Search the directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dc, err := directoryClient()
			if err != nil {
				return err
			}
			if len(args) == 1 {
				q.Text = args[0]
			}
			list, err := dc.Search(cmd.Context(), q)
			if err != nil {
				return err
			}
			return printJSON(cmd, list)
		},
	}
	cmd.Flags().StringVar(&q.Capability, "capability", "", "only agents advertising this capability")
	cmd.Flags().StringVar(&q.Org, "org", "", "only agents in this organisation")
	cmd.Flags().IntVar(&q.Limit, "limit", 0, "maximum results")
	return cmd
}

func heartbeatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "heartbeat id",
		Short: "Refresh a directory registration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dc, err := directoryClient()
			if err != nil {
				return err
			}
			hb, err := dc.Heartbeat(cmd.Context(), domain.DirectoryID(args[0]))
			if err != nil {
				return err
			}
			return printJSON(cmd, hb)
		},
	}
	return cmd
}

func deregisterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deregister id",
		Short: "Remove a directory registration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dc, err := directoryClient()
			if err != nil {
				return err
			}
			if err := dc.Deregister(cmd.Context(), domain.DirectoryID(args[0])); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deregistered %s\n", args[0])
			return nil
		},
	}
	return cmd
}
