// Package training prepares a dataset for the external fine-tuning program,
// launches it, and wraps the external inference runner.
package training

import (
	"fmt"

	"github.com/smrichards/dota2-llm/internal/dataset"
)

// ReadDataset loads the instruction/output dataset fully into memory.
func ReadDataset(path string) ([]dataset.Example, error) {
	return dataset.ReadFile(path)
}

// FormatExample renders ex in the instruction-tagged chat format the base
// model was tuned on.
func FormatExample(ex dataset.Example) string {
	return fmt.Sprintf("[INST] %s [/INST] %s", ex.Instruction, ex.Output)
}

// TextRecord is one line of the trainer's text dataset.
type TextRecord struct {
	Text string `json:"text"`
}
