package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"moltspeak/internal/crypto"
	"moltspeak/internal/domain"
	"moltspeak/internal/envelope"
	"moltspeak/internal/message"
	"moltspeak/internal/services/identity"
)

func buildCmd() *cobra.Command {
	var (
		op, to, cls, payload, re, encKey string
		ttl                              time.Duration
		caps, piiTypes                   []string
		consent                          domain.Consent
		plain                            bool
	)
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build, sign and frame a message for a peer",
		Long: "Build a message, sign it with the local identity and print the envelope.\n" +
			"Confidential, pii and secret messages are sealed for the recipient's\n" +
			"encryption key, taken from --enc-key, a pinned peer or the directory.",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := appCtx.LoadIdentity()
			if err != nil {
				return err
			}
			recipient, err := parseRef(to)
			if err != nil {
				return fmt.Errorf("--to: %w", err)
			}
			level, err := domain.ParseClassification(cls)
			if err != nil {
				return fmt.Errorf("--cls: %w", err)
			}
			p, err := parsePayload(payload)
			if err != nil {
				return err
			}

			b := message.NewBuilder(domain.Operation(op)).
				FromRef(identity.Ref(id)).
				ToRef(recipient).
				WithPayload(p).
				ClassifiedAs(level)
			if re != "" {
				b.InReplyTo(domain.MessageID(re))
			}
			if ttl > 0 {
				b.ExpiresIn(ttl)
			}
			if len(caps) > 0 {
				b.RequiresCapabilities(caps...)
			}
			if len(piiTypes) > 0 {
				b.WithPII(piiTypes, consent)
			}
			m, err := b.Build()
			if err != nil {
				return err
			}

			w := m.ToWire()
			if plain {
				signed, err := appCtx.Messages.Prepare(cmd.Context(), w, id)
				if err != nil {
					return err
				}
				raw, err := message.EncodeWire(signed)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(raw))
				return nil
			}

			key, err := recipientKey(cmd.Context(), recipient, encKey)
			if err != nil {
				return err
			}
			raw, err := appCtx.Messages.Frame(cmd.Context(), w, id, key)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(raw))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&op, "op", "query", "operation")
	f.StringVar(&to, "to", "", "recipient as agent@org")
	f.StringVar(&cls, "cls", "int", "classification (pub, int, conf, pii, sec)")
	f.StringVar(&payload, "payload", "", "payload as a JSON object, or @file")
	f.StringVar(&re, "re", "", "id of the message this replies to")
	f.StringVar(&encKey, "enc-key", "", "recipient x25519 key; overrides pinned and directory keys")
	f.DurationVar(&ttl, "ttl", 0, "expire the message after this long")
	f.StringSliceVar(&caps, "cap", nil, "capabilities the message exercises")
	f.StringSliceVar(&piiTypes, "pii-types", nil, "declared pii types; classifies the message pii")
	f.StringVar(&consent.GrantedBy, "consent-by", "", "who granted consent")
	f.StringVar(&consent.Purpose, "consent-purpose", "", "purpose consent was granted for")
	f.StringVar(&consent.Proof, "consent-proof", "", "consent proof token")
	f.BoolVar(&plain, "bare", false, "print the signed message without an envelope")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func signCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sign [file|-]",
		Short: "Validate and sign a message as the local identity",
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
			m, err := message.FromJSON(raw)
			if err != nil {
				return err
			}
			signed, err := appCtx.Messages.Prepare(cmd.Context(), m.ToWire(), id)
			if err != nil {
				return err
			}
			out, err := message.EncodeWire(signed)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
	return cmd
}

func sealCmd() *cobra.Command {
	var encKey string
	cmd := &cobra.Command{
		Use:   "seal [file|-]",
		Short: "Sign if needed and encrypt a message for its recipient",
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
			w, err := message.ParseWire(raw)
			if err != nil {
				return err
			}
			key, err := recipientKey(cmd.Context(), w.To, encKey)
			if err != nil {
				return err
			}
			if key == nil {
				return fmt.Errorf("no encryption key known for %s; pin one or pass --enc-key", w.To)
			}
			env, err := appCtx.Messages.Seal(cmd.Context(), w, id, *key)
			if err != nil {
				return err
			}
			out, err := envelope.Encode(env)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
	cmd.Flags().StringVar(&encKey, "enc-key", "", "recipient x25519 key")
	return cmd
}

// recipientKey returns the encryption key for to: the explicit flag, then
// the key carried in the reference, then the resolver chain. nil means no
// key is known.
func recipientKey(ctx context.Context, to domain.AgentRef, explicit string) (*domain.X25519Public, error) {
	raw := strings.TrimSpace(explicit)
	if raw == "" {
		raw = to.EncKey
	}
	if raw == "" {
		ref, err := appCtx.Resolver.Resolve(ctx, to)
		if err != nil {
			appCtx.Log.Debug().Err(err).Str("peer", to.String()).Msg("no encryption key resolved")
			return nil, nil
		}
		raw = ref.EncKey
	}
	if raw == "" {
		return nil, nil
	}
	k, err := crypto.ParseEncryptionKey(raw)
	if err != nil {
		return nil, fmt.Errorf("encryption key for %s: %w", to, err)
	}
	return &k, nil
}
