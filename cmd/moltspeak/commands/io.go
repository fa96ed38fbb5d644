package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"moltspeak/internal/domain"
	"moltspeak/internal/message"
)

// readInput returns the contents of the file named by args[0], or stdin
// when there is no argument or it is "-".
func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(args[0])
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// parseRef splits "agent@org".
func parseRef(s string) (domain.AgentRef, error) {
	agent, org, ok := strings.Cut(strings.TrimSpace(s), "@")
	if !ok {
		return domain.AgentRef{}, fmt.Errorf("expected agent@org, got %q", s)
	}
	ref := domain.AgentRef{Agent: agent, Org: org}
	if err := message.ValidateAgentRef("ref", ref); err != nil {
		return domain.AgentRef{}, err
	}
	return ref, nil
}

// parsePayload accepts inline JSON or @path.
func parsePayload(raw string) (map[string]any, error) {
	if raw == "" {
		return map[string]any{}, nil
	}
	b := []byte(raw)
	if strings.HasPrefix(raw, "@") {
		var err error
		if b, err = os.ReadFile(raw[1:]); err != nil {
			return nil, err
		}
	}
	var p map[string]any
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("payload must be a JSON object: %w", err)
	}
	return p, nil
}
