// Command jobsim runs a fork/join workload on the job system and prints
// scheduler statistics.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	lg "github.com/Andrej220/go-utils/zlog"
	js "github.com/azargarov/jobsys"
)

type result struct {
	hits       int64
	renderProc int
	elapsed    time.Duration
}

func main() {
	var (
		cfgPath string
		jobs    int
		rounds  int
	)
	flag.StringVar(&cfgPath, "config", "", "path to options yaml")
	flag.IntVar(&jobs, "jobs", 1000, "jobs per round")
	flag.IntVar(&rounds, "rounds", 10, "fork/join rounds")
	flag.Parse()

	var opts js.Options
	if cfgPath != "" {
		var err error
		if opts, err = js.LoadOptions(cfgPath); err != nil {
			fmt.Println("fatal:", err)
			os.Exit(1)
		}
	}
	metrics := &js.AtomicMetrics{}
	opts.Metrics = metrics
	opts.OnInternalError = func(err error) {
		lg.FromContext(context.Background()).Warn("scheduler error", lg.Any("error", err))
	}

	s := js.New(opts)

	sigCtx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	go func() {
		<-sigCtx.Done()
		s.Stop()
	}()

	var res result
	start := func(ctx context.Context, _ any) error {
		defer s.Stop()
		return simulate(ctx, s, jobs, rounds, &res)
	}

	if err := s.Run(js.Job{Fn: start}); err != nil {
		fmt.Println("fatal:", err)
		os.Exit(1)
	}

	st := s.Stats()
	fmt.Printf("rounds=%d jobs/round=%d hits=%d elapsed=%s\n", rounds, jobs, res.hits, res.elapsed)
	fmt.Printf("render job ran on processor %d\n", res.renderProc)
	fmt.Printf("executed=%d switches=%d workers=%d fibers=%d\n",
		metrics.Executed(), metrics.Switches(), st.Workers, st.PoolSize)
}

// simulate runs rounds of jobs Normal jobs plus one Render job against a
// single counter per round.
func simulate(ctx context.Context, s *js.Scheduler, jobs, rounds int, res *result) error {
	var hits atomic.Int64
	var renderProc atomic.Int64

	work := func(context.Context, any) error {
		hits.Add(1)
		return nil
	}
	render := func(ctx context.Context, _ any) error {
		renderProc.Store(int64(s.CurrentProcessor(ctx)))
		return nil
	}

	batch := make([]js.Job, 0, jobs+1)
	for range jobs {
		batch = append(batch, js.Job{Fn: work, Priority: js.Normal})
	}
	batch = append(batch, js.Job{Fn: render, Priority: js.Render})

	began := time.Now()
	for round := 0; round < rounds; round++ {
		var c js.Counter
		if err := s.RunJobs(batch, &c); err != nil {
			return err
		}
		if err := s.WaitOnCounter(ctx, &c, 0); err != nil {
			return err
		}
		lg.FromContext(ctx).Info("round finished",
			lg.Int("round", round),
			lg.Int("processor", s.CurrentProcessor(ctx)),
		)
	}

	res.hits = hits.Load()
	res.renderProc = int(renderProc.Load())
	res.elapsed = time.Since(began)
	return nil
}
