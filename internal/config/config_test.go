package config

import (
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Precision != PrecisionAuto {
		t.Errorf("expected PrecisionAuto, got %v", cfg.Precision)
	}
	if cfg.Strategy != StrategyNone {
		t.Errorf("expected StrategyNone, got %v", cfg.Strategy)
	}
	if !cfg.Deterministic {
		t.Error("expected Deterministic to be true")
	}
	if cfg.LoaderBatch != 1 {
		t.Errorf("expected LoaderBatch 1, got %d", cfg.LoaderBatch)
	}
	if cfg.NumWorkers != 0 {
		t.Errorf("expected NumWorkers 0, got %d", cfg.NumWorkers)
	}
	if cfg.MaxEpochs != 0 {
		t.Errorf("expected MaxEpochs 0, got %d", cfg.MaxEpochs)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Run)
		wantErr bool
	}{
		{"valid default", func(r *Run) {}, false},
		{"zero loader batch", func(r *Run) { r.LoaderBatch = 0 }, true},
		{"negative workers", func(r *Run) { r.NumWorkers = -1 }, true},
		{"negative max batches", func(r *Run) { r.MaxBatches = -1 }, true},
		{"negative max epochs", func(r *Run) { r.MaxEpochs = -1 }, true},
		{"workers allowed", func(r *Run) { r.NumWorkers = 8 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateDefaultsLogEvery(t *testing.T) {
	cfg := Default()
	cfg.LogEvery = 0
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.LogEvery != 1000 {
		t.Errorf("expected LogEvery defaulted to 1000, got %d", cfg.LogEvery)
	}
}

func TestPrecisionMode(t *testing.T) {
	if Precision32.String() != "fp32" {
		t.Errorf("expected fp32, got %s", Precision32.String())
	}
	if Precision16.String() != "fp16" {
		t.Errorf("expected fp16, got %s", Precision16.String())
	}
	if PrecisionAuto.String() != "auto" {
		t.Errorf("expected auto, got %s", PrecisionAuto.String())
	}
	if Precision32.Bits() != 32 {
		t.Errorf("expected 32 bits, got %d", Precision32.Bits())
	}
	if Precision16.Bits() != 16 {
		t.Errorf("expected 16 bits, got %d", Precision16.Bits())
	}
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Strategy
		wantErr bool
	}{
		{"empty", "", StrategyNone, false},
		{"none", "none", StrategyNone, false},
		{"ddp", "ddp", StrategyDDP, false},
		{"mixed case", "DDP", StrategyDDP, false},
		{"unknown", "horovod", StrategyNone, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStrategy(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseStrategy(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseStrategy(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
