package device

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"

	"github.com/cyrusvahidi/gosynth/internal/config"
)

// Kind distinguishes the host CPU from CUDA accelerators.
type Kind int

const (
	KindCPU Kind = iota
	KindCUDA
)

// Device identifies one compute device.
type Device struct {
	Kind    Kind
	Ordinal int
}

func CPU() Device {
	return Device{Kind: KindCPU}
}

func CUDA(ordinal int) Device {
	return Device{Kind: KindCUDA, Ordinal: ordinal}
}

func (d Device) String() string {
	if d.Kind == KindCUDA {
		return fmt.Sprintf("cuda:%d", d.Ordinal)
	}
	return "cpu"
}

// Available reports whether the device is usable in this process.
func (d Device) Available() bool {
	if d.Kind == KindCPU {
		return true
	}
	return d.Ordinal >= 0 && d.Ordinal < Count()
}

// Count returns the number of visible CUDA devices. Detection is best-effort
// and returns zero when no accelerator can be found.
//
// GOSYNTH_GPUS overrides detection; tests and CI use it to pin the run plan.
func Count() int {
	if v := os.Getenv("GOSYNTH_GPUS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	if v := os.Getenv("CUDA_VISIBLE_DEVICES"); v != "" {
		if v == "-1" {
			return 0
		}
		return len(strings.Split(v, ","))
	}
	if entries, err := os.ReadDir("/proc/driver/nvidia/gpus"); err == nil {
		return len(entries)
	}
	if out, err := exec.Command("nvidia-smi", "-L").Output(); err == nil {
		n := 0
		for _, line := range strings.Split(string(out), "\n") {
			if strings.HasPrefix(strings.TrimSpace(line), "GPU ") {
				n++
			}
		}
		return n
	}
	return 0
}

// Cores returns the number of logical CPU cores.
func Cores() int {
	return runtime.NumCPU()
}

// Plan is the resolved hardware configuration for one run.
type Plan struct {
	Devices   []Device
	Precision config.PrecisionMode
	Strategy  config.Strategy
}

// Primary returns the device the model is placed on first.
func (p Plan) Primary() Device {
	if len(p.Devices) == 0 {
		return CPU()
	}
	return p.Devices[0]
}

// Select resolves precision and strategy from the accelerator count: full
// precision on CPU only, half precision on any GPU, DDP when more than one
// GPU is visible.
func Select(gpus int) Plan {
	if gpus <= 0 {
		return Plan{
			Devices:   []Device{CPU()},
			Precision: config.Precision32,
			Strategy:  config.StrategyNone,
		}
	}
	devices := make([]Device, gpus)
	for i := range devices {
		devices[i] = CUDA(i)
	}
	strategy := config.StrategyNone
	if gpus > 1 {
		strategy = config.StrategyDDP
	}
	return Plan{
		Devices:   devices,
		Precision: config.Precision16,
		Strategy:  strategy,
	}
}
