package jobsys

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	yaml "go.yaml.in/yaml/v3"
)

const (
	DefaultFiberPoolSize = 32

	// defaultPollSpins is the yield budget of goroutines that wait on a
	// counter outside the job system, where sleeping is harmless.
	defaultPollSpins   = 256
	defaultIdleInitial = 5 * time.Microsecond
	defaultIdleMax     = 200 * time.Microsecond
)

// IdlePolicy describes how a processor waits when it finds no work.
//
// By default a lane with no work only yields the processor
// (runtime.Gosched) and never sleeps. A positive Spins opts into backoff:
// after Spins empty polls the lane sleeps for delays growing from Initial
// up to Max until work shows up. Zero or negative Spins means yield only.
type IdlePolicy struct {
	Spins   int           `yaml:"spins"`
	Initial time.Duration `yaml:"initial"`
	Max     time.Duration `yaml:"max"`
}

// Options configure a Scheduler.
//
// All zero values are replaced with sensible defaults in FillDefaults.
type Options struct {
	// Workers is the number of processors, the render processor included.
	Workers int `yaml:"workers"`

	// FiberPoolSize is the number of pooled fiber contexts.
	FiberPoolSize int `yaml:"fiber_pool_size"`

	// PinWorkers locks workers and fibers to OS threads bound to CPUs.
	// Supported on Linux only.
	PinWorkers bool `yaml:"pin_workers"`

	// CPUs maps processor i to CPUs[i]. Processors past the end of the
	// slice use i modulo the number of CPUs.
	CPUs []int `yaml:"cpus"`

	Idle IdlePolicy `yaml:"idle"`

	// Ctx carries the logger; it is also the parent of every job context.
	Ctx context.Context `yaml:"-"`

	Metrics MetricsPolicy `yaml:"-"`

	// OnJobError receives errors returned by jobs and recovered panics.
	OnJobError func(error) `yaml:"-"`

	// OnInternalError receives scheduler failures such as CPU pinning errors.
	OnInternalError func(error) `yaml:"-"`
}

func (o *Options) FillDefaults() {
	if o.Workers <= 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	if o.FiberPoolSize <= 0 {
		o.FiberPoolSize = DefaultFiberPoolSize
	}
	if o.Idle.Initial <= 0 {
		o.Idle.Initial = defaultIdleInitial
	}
	if o.Idle.Max <= 0 {
		o.Idle.Max = defaultIdleMax
	}
	if o.Idle.Max < o.Idle.Initial {
		o.Idle.Max = o.Idle.Initial
	}
	if o.Ctx == nil {
		o.Ctx = context.Background()
	}
	if o.Metrics == nil {
		o.Metrics = &NoopMetrics{}
	}
}

// LoadOptions reads Options from a YAML file. Durations use Go syntax
// ("50us", "1ms"). Fields that cannot be expressed in YAML keep their
// zero values.
func LoadOptions(path string) (Options, error) {
	var o Options
	data, err := os.ReadFile(path)
	if err != nil {
		return o, fmt.Errorf("jobsys: read options: %w", err)
	}
	if err := yaml.Unmarshal(data, &o); err != nil {
		return o, fmt.Errorf("jobsys: yaml unmarshal: %w", err)
	}
	return o, nil
}
