package config

import "github.com/caarlos0/env/v11"

type TrainingConfig struct {
	ModelName string `env:"MODEL_NAME" envDefault:"mistralai/Mistral-Nemo-Instruct-2407"`
	MaxLength int    `env:"MAX_LENGTH" envDefault:"2048"`

	LearningRate              float64 `env:"LEARNING_RATE" envDefault:"2e-4"`
	BatchSize                 int     `env:"BATCH_SIZE" envDefault:"4"`
	GradientAccumulationSteps int     `env:"GRADIENT_ACCUMULATION_STEPS" envDefault:"4"`
	NumEpochs                 int     `env:"NUM_EPOCHS" envDefault:"3"`
	WarmupSteps               int     `env:"WARMUP_STEPS" envDefault:"100"`

	LoraR             int      `env:"LORA_R" envDefault:"16"`
	LoraAlpha         int      `env:"LORA_ALPHA" envDefault:"32"`
	LoraDropout       float64  `env:"LORA_DROPOUT" envDefault:"0.1"`
	LoraTargetModules []string `env:"LORA_TARGET_MODULES" envSeparator:"," envDefault:"q_proj,v_proj,k_proj,o_proj,gate_proj,up_proj,down_proj"`

	DataFile         string `env:"TRAINING_DATA_FILE" envDefault:"data/dota2_training_data.jsonl"`
	ModelsDir        string `env:"MODELS_DIR" envDefault:"models"`
	TrainerCommand   string `env:"TRAINER_COMMAND" envDefault:"python -m dota_finetune"`
	InferenceCommand string `env:"INFERENCE_COMMAND" envDefault:"python -m dota_infer"`
}

func LoadTraining() (TrainingConfig, error) {
	var cfg TrainingConfig
	err := env.Parse(&cfg)
	return cfg, err
}
