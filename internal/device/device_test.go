package device

import (
	"testing"

	"github.com/cyrusvahidi/gosynth/internal/config"
)

func TestSelect(t *testing.T) {
	tests := []struct {
		name          string
		gpus          int
		wantPrecision config.PrecisionMode
		wantStrategy  config.Strategy
		wantDevices   int
	}{
		{"no gpus", 0, config.Precision32, config.StrategyNone, 1},
		{"single gpu", 1, config.Precision16, config.StrategyNone, 1},
		{"two gpus", 2, config.Precision16, config.StrategyDDP, 2},
		{"eight gpus", 8, config.Precision16, config.StrategyDDP, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := Select(tt.gpus)
			if plan.Precision != tt.wantPrecision {
				t.Errorf("precision = %v, want %v", plan.Precision, tt.wantPrecision)
			}
			if plan.Strategy != tt.wantStrategy {
				t.Errorf("strategy = %v, want %v", plan.Strategy, tt.wantStrategy)
			}
			if len(plan.Devices) != tt.wantDevices {
				t.Errorf("devices = %d, want %d", len(plan.Devices), tt.wantDevices)
			}
		})
	}
}

func TestSelectCPUPlan(t *testing.T) {
	plan := Select(0)
	if plan.Primary().Kind != KindCPU {
		t.Errorf("expected CPU primary device, got %v", plan.Primary())
	}
}

func TestSelectGPUOrdinals(t *testing.T) {
	plan := Select(3)
	for i, d := range plan.Devices {
		if d.Kind != KindCUDA {
			t.Errorf("device %d: expected CUDA kind", i)
		}
		if d.Ordinal != i {
			t.Errorf("device %d: ordinal = %d", i, d.Ordinal)
		}
	}
}

func TestCountOverride(t *testing.T) {
	t.Setenv("GOSYNTH_GPUS", "4")
	if got := Count(); got != 4 {
		t.Errorf("Count() = %d, want 4", got)
	}

	t.Setenv("GOSYNTH_GPUS", "0")
	if got := Count(); got != 0 {
		t.Errorf("Count() = %d, want 0", got)
	}
}

func TestDeviceString(t *testing.T) {
	if got := CPU().String(); got != "cpu" {
		t.Errorf("CPU().String() = %q", got)
	}
	if got := CUDA(1).String(); got != "cuda:1" {
		t.Errorf("CUDA(1).String() = %q", got)
	}
}

func TestDeviceAvailable(t *testing.T) {
	t.Setenv("GOSYNTH_GPUS", "2")

	if !CPU().Available() {
		t.Error("CPU should always be available")
	}
	if !CUDA(0).Available() {
		t.Error("cuda:0 should be available with 2 visible gpus")
	}
	if !CUDA(1).Available() {
		t.Error("cuda:1 should be available with 2 visible gpus")
	}
	if CUDA(2).Available() {
		t.Error("cuda:2 should not be available with 2 visible gpus")
	}
}

func TestCores(t *testing.T) {
	if Cores() < 1 {
		t.Errorf("Cores() = %d, want >= 1", Cores())
	}
}
