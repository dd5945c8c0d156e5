package training

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"github.com/smrichards/dota2-llm/internal/config"
	"github.com/smrichards/dota2-llm/internal/dataset"
)

const (
	TextFileName   = "train_text.jsonl"
	ConfigFileName = "train_config.json"
)

// QuantizationConfig describes how the base model weights are loaded.
type QuantizationConfig struct {
	LoadIn4Bit     bool   `json:"load_in_4bit"`
	QuantType      string `json:"bnb_4bit_quant_type"`
	ComputeDType   string `json:"bnb_4bit_compute_dtype"`
	UseDoubleQuant bool   `json:"bnb_4bit_use_double_quant"`
}

// LoraConfig describes the adapter injected into the base model.
type LoraConfig struct {
	R             int      `json:"r"`
	Alpha         int      `json:"lora_alpha"`
	Dropout       float64  `json:"lora_dropout"`
	TargetModules []string `json:"target_modules"`
	Bias          string   `json:"bias"`
	TaskType      string   `json:"task_type"`
}

// Arguments are the trainer loop settings.
type Arguments struct {
	OutputDir                 string  `json:"output_dir"`
	NumTrainEpochs            int     `json:"num_train_epochs"`
	PerDeviceTrainBatchSize   int     `json:"per_device_train_batch_size"`
	GradientAccumulationSteps int     `json:"gradient_accumulation_steps"`
	LearningRate              float64 `json:"learning_rate"`
	WarmupSteps               int     `json:"warmup_steps"`
	LoggingSteps              int     `json:"logging_steps"`
	SaveSteps                 int     `json:"save_steps"`
	SaveTotalLimit            int     `json:"save_total_limit"`
	Optim                     string  `json:"optim"`
	LRSchedulerType           string  `json:"lr_scheduler_type"`
	GradientCheckpointing     bool    `json:"gradient_checkpointing"`
	FP16                      bool    `json:"fp16"`
	Packing                   bool    `json:"packing"`
	RemoveUnusedColumns       bool    `json:"remove_unused_columns"`
	PredictionLossOnly        bool    `json:"prediction_loss_only"`
}

// TrainerConfig is written to train_config.json and read by the external
// trainer.
type TrainerConfig struct {
	ModelName    string             `json:"model_name"`
	MaxLength    int                `json:"max_length"`
	TrainFile    string             `json:"train_file"`
	TextField    string             `json:"dataset_text_field"`
	Quantization QuantizationConfig `json:"quantization"`
	Lora         LoraConfig         `json:"lora"`
	Arguments    Arguments          `json:"training_arguments"`
}

// NewTrainerConfig maps env-derived settings onto the trainer's schema.
func NewTrainerConfig(cfg config.TrainingConfig, outputDir string) TrainerConfig {
	return TrainerConfig{
		ModelName: cfg.ModelName,
		MaxLength: cfg.MaxLength,
		TrainFile: filepath.Join(outputDir, TextFileName),
		TextField: "text",
		Quantization: QuantizationConfig{
			LoadIn4Bit:     true,
			QuantType:      "nf4",
			ComputeDType:   "float16",
			UseDoubleQuant: true,
		},
		Lora: LoraConfig{
			R:             cfg.LoraR,
			Alpha:         cfg.LoraAlpha,
			Dropout:       cfg.LoraDropout,
			TargetModules: cfg.LoraTargetModules,
			Bias:          "none",
			TaskType:      "CAUSAL_LM",
		},
		Arguments: Arguments{
			OutputDir:                 outputDir,
			NumTrainEpochs:            cfg.NumEpochs,
			PerDeviceTrainBatchSize:   cfg.BatchSize,
			GradientAccumulationSteps: cfg.GradientAccumulationSteps,
			LearningRate:              cfg.LearningRate,
			WarmupSteps:               cfg.WarmupSteps,
			LoggingSteps:              10,
			SaveSteps:                 100,
			SaveTotalLimit:            2,
			Optim:                     "paged_adamw_8bit",
			LRSchedulerType:           "cosine",
			GradientCheckpointing:     true,
			FP16:                      true,
			Packing:                   false,
			RemoveUnusedColumns:       false,
			PredictionLossOnly:        true,
		},
	}
}

// Plan is the set of files handed to the trainer.
type Plan struct {
	TextPath   string
	ConfigPath string
	Examples   int
	Config     TrainerConfig
}

// Prepare reads dataPath, writes the formatted text dataset and the trainer
// config into outputDir.
func Prepare(dataPath, outputDir string, cfg config.TrainingConfig) (*Plan, error) {
	examples, err := ReadDataset(dataPath)
	if err != nil {
		return nil, err
	}
	if len(examples) == 0 {
		return nil, fmt.Errorf("%s: no training examples", dataPath)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	p := &Plan{
		TextPath:   filepath.Join(outputDir, TextFileName),
		ConfigPath: filepath.Join(outputDir, ConfigFileName),
		Examples:   len(examples),
		Config:     NewTrainerConfig(cfg, outputDir),
	}
	if err := WriteTextDataset(p.TextPath, examples); err != nil {
		return nil, err
	}

	data, err := json.MarshalIndent(p.Config, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal trainer config: %w", err)
	}
	if err := os.WriteFile(p.ConfigPath, append(data, '\n'), 0o644); err != nil {
		return nil, fmt.Errorf("write trainer config: %w", err)
	}
	return p, nil
}

// WriteTextDataset writes one {"text": ...} record per example.
func WriteTextDataset(path string, examples []dataset.Example) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create text dataset: %w", err)
	}
	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, ex := range examples {
		if err := enc.Encode(TextRecord{Text: FormatExample(ex)}); err != nil {
			f.Close()
			return fmt.Errorf("encode text record: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
