package jobsys_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	js "github.com/azargarov/jobsys"
)

func TestFillDefaults(t *testing.T) {
	var o js.Options
	o.FillDefaults()

	if o.Workers <= 0 {
		t.Fatal("expected Workers to be set by FillDefaults")
	}
	if o.FiberPoolSize != js.DefaultFiberPoolSize {
		t.Fatalf("FiberPoolSize = %d; want %d", o.FiberPoolSize, js.DefaultFiberPoolSize)
	}
	if o.Idle.Spins != 0 {
		t.Fatalf("Spins = %d; want 0 (yield only)", o.Idle.Spins)
	}
	if o.Idle.Initial <= 0 || o.Idle.Max < o.Idle.Initial {
		t.Fatalf("idle backoff not filled: %+v", o.Idle)
	}
	if o.Ctx == nil || o.Metrics == nil {
		t.Fatal("expected Ctx and Metrics to be set by FillDefaults")
	}
}

func TestFillDefaultsKeepsNegativeSpins(t *testing.T) {
	o := js.Options{Idle: js.IdlePolicy{Spins: -1}}
	o.FillDefaults()
	if o.Idle.Spins != -1 {
		t.Fatalf("Spins = %d; want -1", o.Idle.Spins)
	}
}

func TestLoadOptions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobsys.yaml")
	data := []byte(`workers: 3
fiber_pool_size: 48
pin_workers: true
cpus: [2, 3, 4]
idle:
  spins: 16
  initial: 20us
  max: 1ms
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	o, err := js.LoadOptions(path)
	if err != nil {
		t.Fatalf("LoadOptions failed: %v", err)
	}
	if o.Workers != 3 || o.FiberPoolSize != 48 || !o.PinWorkers {
		t.Fatalf("unexpected options: %+v", o)
	}
	if len(o.CPUs) != 3 || o.CPUs[0] != 2 || o.CPUs[2] != 4 {
		t.Fatalf("CPUs = %v", o.CPUs)
	}
	if o.Idle.Spins != 16 || o.Idle.Initial != 20*time.Microsecond || o.Idle.Max != time.Millisecond {
		t.Fatalf("Idle = %+v", o.Idle)
	}
}

func TestLoadOptionsErrors(t *testing.T) {
	if _, err := js.LoadOptions(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("workers: [oops"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := js.LoadOptions(path); err == nil {
		t.Fatal("expected error for malformed yaml")
	}
}
