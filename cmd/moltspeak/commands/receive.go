package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"moltspeak/internal/classification"
	"moltspeak/internal/domain"
	"moltspeak/internal/envelope"
	"moltspeak/internal/message"
)

func verifyCmd() *cobra.Command {
	var redact bool
	cmd := &cobra.Command{
		Use:     "verify [file|-]",
		Aliases: []string{"open"},
		Short:   "Open, validate and verify a received message",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := appCtx.LoadIdentity()
			if err != nil {
				return err
			}
			raw, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			in, err := appCtx.Messages.Accept(cmd.Context(), raw, id)
			if err != nil {
				return err
			}
			if redact {
				in.Wire.P = classification.RedactPayload(in.Wire.P)
			}
			return printJSON(cmd, in)
		},
	}
	cmd.Flags().BoolVar(&redact, "redact", false, "redact detected pii in the printed payload")
	return cmd
}

func handshakeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "handshake [file|-]",
		Short: "Accept a hello message and open a session with its sender",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := appCtx.LoadIdentity()
			if err != nil {
				return err
			}
			raw, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			sess, err := appCtx.Messages.Handshake(cmd.Context(), raw, id)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Session:      %s\n", sess.ID())
			fmt.Fprintf(out, "Remote:       %s@%s\n", sess.RemoteAgent(), sess.RemoteOrg())
			fmt.Fprintf(out, "Capabilities: %v\n", sess.Capabilities())
			if exp, ok := sess.ExpiresAt(); ok {
				fmt.Fprintf(out, "Expires:      %s\n", exp.Format(time.RFC3339))
			}
			return nil
		},
	}
	return cmd
}

// inspection is what inspect prints. Payload is nil when withheld.
type inspection struct {
	Envelope  *envelopeInfo       `json:"envelope,omitempty"`
	Message   *domain.WireMessage `json:"message,omitempty"`
	PII       string              `json:"pii,omitempty"`
	Withheld  bool                `json:"payload_withheld,omitempty"`
	SchemaErr string              `json:"schema_error,omitempty"`
}

type envelopeInfo struct {
	Version    string `json:"moltspeak"`
	Encrypted  bool   `json:"encrypted"`
	Algorithm  string `json:"algorithm,omitempty"`
	Compressed bool   `json:"compressed,omitempty"`
}

func inspectCmd() *cobra.Command {
	var debug bool
	cmd := &cobra.Command{
		Use:   "inspect [file|-]",
		Short: "Show a message without verifying it; payloads are redacted unless --debug",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			var out inspection
			body := raw
			if envelope.IsEnvelope(raw) {
				env, plain, err := envelope.Decode(raw)
				if err != nil {
					return err
				}
				out.Envelope = &envelopeInfo{
					Version:    env.MoltSpeak,
					Encrypted:  env.Header.Encrypted,
					Algorithm:  env.Header.Algorithm,
					Compressed: env.Header.Compressed,
				}
				if env.Header.Encrypted {
					return printJSON(cmd, out)
				}
				body = plain
			}
			w, err := message.ParseWire(body)
			if err != nil {
				return err
			}
			if err := message.ValidatePayload(w.Op, w.P); err != nil {
				out.SchemaErr = err.Error()
			}
			if found := classification.DetectPayload(w.P); found.Any() {
				out.PII = found.Summary()
			}
			switch {
			case debug:
			case !classification.CanLog(w.Cls):
				w.P, out.Withheld = nil, true
			default:
				w.P = classification.RedactPayload(w.P)
			}
			out.Message = &w
			return printJSON(cmd, out)
		},
	}
	cmd.Flags().BoolVar(&debug, "debug", false, "show the payload unredacted")
	return cmd
}
