package training

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/smrichards/dota2-llm/internal/logging"
)

// splitCommand turns a configured command line into name and args.
func splitCommand(command string) (string, []string, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return "", nil, fmt.Errorf("empty command")
	}
	return fields[0], fields[1:], nil
}

// Launch runs the external trainer with --config pointing at the plan and
// streams its output. A non-zero exit is returned as an error.
func Launch(ctx context.Context, command string, p *Plan, stdout, stderr io.Writer) error {
	name, args, err := splitCommand(command)
	if err != nil {
		return fmt.Errorf("trainer: %w", err)
	}
	args = append(args, "--config", p.ConfigPath)

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	logging.For("training").Info().
		Str("command", name+" "+strings.Join(args, " ")).
		Int("examples", p.Examples).
		Msg("launching trainer")

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("trainer %s: %w", name, err)
	}
	return nil
}
