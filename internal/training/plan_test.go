package training

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/smrichards/dota2-llm/internal/config"
	"github.com/smrichards/dota2-llm/internal/dataset"
)

func testTrainingConfig() config.TrainingConfig {
	return config.TrainingConfig{
		ModelName:                 "mistralai/Mistral-Nemo-Instruct-2407",
		MaxLength:                 2048,
		LearningRate:              2e-4,
		BatchSize:                 4,
		GradientAccumulationSteps: 4,
		NumEpochs:                 3,
		WarmupSteps:               100,
		LoraR:                     16,
		LoraAlpha:                 32,
		LoraDropout:               0.1,
		LoraTargetModules:         []string{"q_proj", "v_proj"},
	}
}

func writeDataset(t *testing.T, examples []dataset.Example) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.jsonl")
	if err := dataset.WriteFile(path, examples); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestPrepare(t *testing.T) {
	data := writeDataset(t, []dataset.Example{
		{Instruction: "What is a stack?", Output: "Pulling extra neutral camps."},
		{Instruction: "When to buy BKB?", Output: "Against heavy <magic> damage."},
	})
	out := filepath.Join(t.TempDir(), "model")

	p, err := Prepare(data, out, testTrainingConfig())
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if p.Examples != 2 {
		t.Errorf("Examples = %d, want 2", p.Examples)
	}

	raw, err := os.ReadFile(p.TextPath)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if len(lines) != 2 {
		t.Fatalf("text dataset has %d lines", len(lines))
	}
	var rec TextRecord
	if err := json.Unmarshal([]byte(lines[1]), &rec); err != nil {
		t.Fatal(err)
	}
	if rec.Text != "[INST] When to buy BKB? [/INST] Against heavy <magic> damage." {
		t.Errorf("text record = %q", rec.Text)
	}

	cfgRaw, err := os.ReadFile(p.ConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	var tc TrainerConfig
	if err := json.Unmarshal(cfgRaw, &tc); err != nil {
		t.Fatal(err)
	}
	if tc.Lora.R != 16 || tc.Lora.Alpha != 32 || tc.Lora.Dropout != 0.1 {
		t.Errorf("lora = %+v", tc.Lora)
	}
	if !tc.Quantization.LoadIn4Bit || tc.Quantization.QuantType != "nf4" || !tc.Quantization.UseDoubleQuant {
		t.Errorf("quantization = %+v", tc.Quantization)
	}
	if tc.Arguments.Optim != "paged_adamw_8bit" || tc.Arguments.LRSchedulerType != "cosine" {
		t.Errorf("arguments = %+v", tc.Arguments)
	}
	if tc.Arguments.NumTrainEpochs != 3 || tc.TrainFile != p.TextPath {
		t.Errorf("epochs=%d train_file=%s", tc.Arguments.NumTrainEpochs, tc.TrainFile)
	}

	var generic struct {
		Arguments map[string]any `json:"training_arguments"`
	}
	if err := json.Unmarshal(cfgRaw, &generic); err != nil {
		t.Fatal(err)
	}
	for key, want := range map[string]bool{"packing": false, "remove_unused_columns": false, "prediction_loss_only": true} {
		if got, ok := generic.Arguments[key]; !ok || got != want {
			t.Errorf("training_arguments[%q] = %v (present %v), want %v", key, got, ok, want)
		}
	}
}

func TestPrepareEmptyDataset(t *testing.T) {
	data := writeDataset(t, nil)
	if _, err := Prepare(data, t.TempDir(), testTrainingConfig()); err == nil {
		t.Fatal("expected error for empty dataset")
	}
}

func TestPrepareMissingDataset(t *testing.T) {
	if _, err := Prepare(filepath.Join(t.TempDir(), "nope.jsonl"), t.TempDir(), testTrainingConfig()); err == nil {
		t.Fatal("expected error for missing dataset")
	}
}

func TestLaunchPassesConfig(t *testing.T) {
	p := &Plan{ConfigPath: "/tmp/model/train_config.json"}
	var stdout bytes.Buffer
	if err := Launch(context.Background(), "echo trainer", p, &stdout, &stdout); err != nil {
		t.Fatalf("Launch() error = %v", err)
	}
	if got := strings.TrimSpace(stdout.String()); got != "trainer --config /tmp/model/train_config.json" {
		t.Errorf("trainer saw %q", got)
	}
}

func TestLaunchFailure(t *testing.T) {
	if err := Launch(context.Background(), "false", &Plan{}, &bytes.Buffer{}, &bytes.Buffer{}); err == nil {
		t.Fatal("expected error for failing trainer")
	}
	if err := Launch(context.Background(), "   ", &Plan{}, nil, nil); err == nil {
		t.Fatal("expected error for empty command")
	}
}
