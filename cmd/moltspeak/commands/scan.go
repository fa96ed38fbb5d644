package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"moltspeak/internal/classification"
)

func scanCmd() *cobra.Command {
	var redact, mask, asJSON bool
	cmd := &cobra.Command{
		Use:   "scan [file|-]",
		Short: "Detect pii in text or a JSON payload",
		Long: "Report which kinds of pii appear in the input without echoing the matches.\n" +
			"With --redact or --mask the cleaned input is printed instead.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if asJSON {
				var p map[string]any
				if err := json.Unmarshal(raw, &p); err != nil {
					return fmt.Errorf("input must be a JSON object: %w", err)
				}
				switch {
				case redact:
					return printJSON(cmd, classification.RedactPayload(p))
				case mask:
					return printJSON(cmd, classification.MaskPayload(p))
				}
				return report(cmd, classification.DetectPayload(p))
			}

			text := string(raw)
			switch {
			case redact:
				fmt.Fprint(out, classification.Redact(text))
				return nil
			case mask:
				fmt.Fprint(out, classification.Mask(text))
				return nil
			}
			return report(cmd, classification.Detect(text))
		},
	}
	cmd.Flags().BoolVar(&redact, "redact", false, "print the input with pii replaced by placeholders")
	cmd.Flags().BoolVar(&mask, "mask", false, "print the input with pii partially masked")
	cmd.Flags().BoolVar(&asJSON, "json", false, "treat the input as a JSON payload")
	cmd.MarkFlagsMutuallyExclusive("redact", "mask")
	return cmd
}

func report(cmd *cobra.Command, found classification.Detection) error {
	out := cmd.OutOrStdout()
	if !found.Any() {
		fmt.Fprintln(out, "No pii detected.")
		return nil
	}
	counts := found.Counts()
	var lines []string
	for _, t := range found.Types() {
		lines = append(lines, fmt.Sprintf("  %-12s %d", t, counts[t]))
	}
	fmt.Fprintf(out, "PII detected:\n%s\n", strings.Join(lines, "\n"))
	return nil
}
