package training

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"

	"github.com/goccy/go-json"
)

// laneTerms maps loose lane names to Dota 2 positions. Only the first term
// found in a question is rewritten.
var laneTerms = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`(?i)bot lane`), "safe lane carry position"},
	{regexp.MustCompile(`(?i)top lane`), "offlane position"},
	{regexp.MustCompile(`(?i)mid lane`), "mid position"},
}

// FormatPrompt rewrites lane terms and wraps question in the instruction
// tags, with an explicit Dota 2 hint.
func FormatPrompt(question string) string {
	q := strings.TrimSpace(question)
	for _, t := range laneTerms {
		if t.re.MatchString(q) {
			q = t.re.ReplaceAllString(q, t.repl)
			break
		}
	}
	return fmt.Sprintf("[INST] %s (This is about Dota 2) [/INST]", q)
}

// ExtractResponse keeps the text after the last closing instruction tag.
func ExtractResponse(text string) string {
	if i := strings.LastIndex(text, "[/INST]"); i >= 0 {
		text = text[i+len("[/INST]"):]
	}
	return strings.TrimSpace(text)
}

// GenerationRequest is written to the inference runner's stdin.
type GenerationRequest struct {
	Prompt            string  `json:"prompt"`
	MaxInputLength    int     `json:"max_input_length"`
	MaxNewTokens      int     `json:"max_new_tokens"`
	Temperature       float64 `json:"temperature"`
	TopP              float64 `json:"top_p"`
	RepetitionPenalty float64 `json:"repetition_penalty"`
}

// Asker sends one question at a time to the external inference runner.
type Asker struct {
	command  string
	modelDir string
}

func NewAsker(command, modelDir string) *Asker {
	return &Asker{command: command, modelDir: modelDir}
}

// Ask runs the inference command with --model and returns the model's
// answer. A failing runner surfaces its stderr in the error.
func (a *Asker) Ask(ctx context.Context, question string) (string, error) {
	name, args, err := splitCommand(a.command)
	if err != nil {
		return "", fmt.Errorf("inference: %w", err)
	}
	args = append(args, "--model", a.modelDir)

	req, err := json.Marshal(GenerationRequest{
		Prompt:            FormatPrompt(question),
		MaxInputLength:    1024,
		MaxNewTokens:      256,
		Temperature:       0.7,
		TopP:              0.9,
		RepetitionPenalty: 1.1,
	})
	if err != nil {
		return "", err
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = bytes.NewReader(req)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("inference %s: %w: %s", name, err, msg)
		}
		return "", fmt.Errorf("inference %s: %w", name, err)
	}
	return ExtractResponse(stdout.String()), nil
}
