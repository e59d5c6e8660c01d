package jacobi

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/AQing-527/Jacobi-Iterative-With-Mutex/barrier"
	"github.com/AQing-527/Jacobi-Iterative-With-Mutex/grid"
	"github.com/AQing-527/Jacobi-Iterative-With-Mutex/partition"
)

var hotBottom = grid.Boundary{Top: 0, Bottom: 100, Left: 0, Right: 0}

func scenario() Config {
	return Config{
		Rows:      6,
		Cols:      6,
		Workers:   2,
		Epsilon:   0.5,
		MaxCycles: 1000,
		Boundary:  hotBottom,
		Initial:   25,
		History:   true,
	}
}

// runWithin fails the test if Run does not return within limit
func runWithin(t *testing.T, s *Solver, limit time.Duration) (Result, error) {
	t.Helper()
	type out struct {
		res Result
		err error
	}
	ch := make(chan out, 1)
	go func() {
		res, err := s.Run()
		ch <- out{res, err}
	}()
	select {
	case o := <-ch:
		return o.res, o.err
	case <-time.After(limit):
		t.Fatalf("[TEST] Run did not return within %s", limit)
	}
	return Result{}, nil
}

func TestScenarioConverges(t *testing.T) {
	s, err := Configure(scenario())
	if err != nil {
		t.Fatalf("[TEST] Configure returned %v", err)
	}
	res, err := runWithin(t, s, 10*time.Second)
	if err != nil {
		t.Fatalf("[TEST] Run returned %v", err)
	}

	if !res.Converged {
		t.Errorf("[TEST] Expected convergence, stopped by ceiling after %d cycles", res.Iterations)
	}
	if res.Iterations != 7 {
		t.Errorf("[TEST] Iterations got %d, want 7", res.Iterations)
	}
	if res.MaxChange > 0.5 {
		t.Errorf("[TEST] Final max change %v above epsilon", res.MaxChange)
	}
	if v := res.Grid.At(4, 3); math.Abs(v-59.05303955078125) > 1e-9 {
		t.Errorf("[TEST] Cell (4,3) got %v, want 59.053", v)
	}
	// symmetric plate, symmetric answer
	if res.Grid.At(4, 2) != res.Grid.At(4, 3) || res.Grid.At(2, 1) != res.Grid.At(2, 4) {
		t.Errorf("[TEST] Result not symmetric about the vertical axis")
	}
	// temperature rises toward the hot edge
	for i := 1; i < 4; i++ {
		if res.Grid.At(i, 3) >= res.Grid.At(i+1, 3) {
			t.Errorf("[TEST] Column 3 not increasing toward the bottom at row %d", i)
		}
	}

	ref := grid.NewMatrix(6, 6)
	ref.Fill(hotBottom, 25)
	if !res.Grid.BoundaryEqual(ref) {
		t.Errorf("[TEST] Boundary cells changed during the run")
	}

	if len(res.History) != res.Iterations {
		t.Errorf("[TEST] History has %d entries, want %d", len(res.History), res.Iterations)
	}
	if res.History[0] != 18.75 {
		t.Errorf("[TEST] First cycle max change got %v, want 18.75", res.History[0])
	}
	if len(res.Workers) != 2 {
		t.Fatalf("[TEST] Expected stats for 2 workers, got %d", len(res.Workers))
	}
	for _, w := range res.Workers {
		if w.Cycles != res.Iterations {
			t.Errorf("[TEST] Worker %d ran %d cycles, want %d", w.ID, w.Cycles, res.Iterations)
		}
	}
}

func TestDeterministicAcrossWorkerCounts(t *testing.T) {
	base := Config{
		Rows:      20,
		Cols:      20,
		Epsilon:   0.001,
		MaxCycles: 100000,
		Boundary:  grid.Boundary{Top: 0, Bottom: 1000, Left: 0, Right: 0},
		Initial:   25,
	}

	var results []Result
	for _, workers := range []int{1, 4, 18} {
		cfg := base
		cfg.Workers = workers
		s, err := Configure(cfg)
		if err != nil {
			t.Fatalf("[TEST] Configure(%d workers) returned %v", workers, err)
		}
		res, err := runWithin(t, s, 30*time.Second)
		if err != nil {
			t.Fatalf("[TEST] Run(%d workers) returned %v", workers, err)
		}
		if !res.Converged {
			t.Errorf("[TEST] %d workers did not converge", workers)
		}
		results = append(results, res)
	}

	for _, res := range results[1:] {
		d, err := res.Grid.MaxDiff(results[0].Grid)
		if err != nil || d > 1e-9 {
			t.Errorf("[TEST] Result differs from single worker run by %v (%v)", d, err)
		}
		if res.Iterations != results[0].Iterations {
			t.Errorf("[TEST] Iterations got %d, single worker took %d", res.Iterations, results[0].Iterations)
		}
	}
}

func TestMaxChangeTrendsToZero(t *testing.T) {
	cfg := Config{
		Rows:      30,
		Cols:      25,
		Workers:   3,
		Epsilon:   0.01,
		MaxCycles: 50000,
		Boundary:  grid.Boundary{Top: 10, Bottom: 500, Left: 50, Right: 0},
		Initial:   25,
		History:   true,
	}
	s, _ := Configure(cfg)
	res, err := runWithin(t, s, 30*time.Second)
	if err != nil {
		t.Fatalf("[TEST] Run returned %v", err)
	}
	h := res.History
	if !res.Converged || h[len(h)-1] > cfg.Epsilon {
		t.Errorf("[TEST] Run did not converge, last change %v", h[len(h)-1])
	}
	if h[len(h)-1] >= h[0] {
		t.Errorf("[TEST] Max change did not fall: first %v last %v", h[0], h[len(h)-1])
	}
	// no window of ten cycles ends above where it started
	for i := 10; i < len(h); i++ {
		if h[i] > h[i-10]+1e-12 {
			t.Errorf("[TEST] Max change rose from %v to %v at cycle %d", h[i-10], h[i], i+1)
			break
		}
	}
}

func TestCeilingTerminates(t *testing.T) {
	for _, workers := range []int{1, 2, 5} {
		for _, ceiling := range []int{1, 2, 3, 17} {
			cfg := Config{
				Rows:      7,
				Cols:      9,
				Workers:   workers,
				Epsilon:   0,
				MaxCycles: ceiling,
				Boundary:  hotBottom,
				Initial:   25,
			}
			s, err := Configure(cfg)
			if err != nil {
				t.Fatalf("[TEST] Configure returned %v", err)
			}
			res, err := runWithin(t, s, 10*time.Second)
			if err != nil {
				t.Fatalf("[TEST] Run returned %v", err)
			}
			if res.Converged || res.Iterations != ceiling {
				t.Errorf("[TEST] workers=%d ceiling=%d got converged=%v iterations=%d",
					workers, ceiling, res.Converged, res.Iterations)
			}
			if res.MaxChange <= 0 {
				t.Errorf("[TEST] Achieved max change not reported, got %v", res.MaxChange)
			}
		}
	}
}

func TestConfigureRejects(t *testing.T) {
	good := scenario()
	cases := []struct {
		name  string
		patch func(*Config)
		check func(error) bool
	}{
		{"rows", func(c *Config) { c.Rows = 2 }, func(e error) bool { var x InvalidDimensions; return errors.As(e, &x) }},
		{"cols", func(c *Config) { c.Cols = 0 }, func(e error) bool { var x InvalidDimensions; return errors.As(e, &x) }},
		{"zero workers", func(c *Config) { c.Workers = 0 }, func(e error) bool { var x InvalidWorkerCount; return errors.As(e, &x) }},
		{"too many workers", func(c *Config) { c.Workers = 5 }, func(e error) bool { var x InvalidWorkerCount; return errors.As(e, &x) }},
		{"epsilon", func(c *Config) { c.Epsilon = -1 }, func(e error) bool { var x InvalidEpsilon; return errors.As(e, &x) }},
		{"nan epsilon", func(c *Config) { c.Epsilon = math.NaN() }, func(e error) bool { var x InvalidEpsilon; return errors.As(e, &x) }},
		{"ceiling", func(c *Config) { c.MaxCycles = 0 }, func(e error) bool { var x InvalidCeiling; return errors.As(e, &x) }},
		{"seed", func(c *Config) { c.Initial = math.Inf(1) }, func(e error) bool { var x InvalidSeed; return errors.As(e, &x) }},
	}
	for _, tc := range cases {
		cfg := good
		tc.patch(&cfg)
		s, err := Configure(cfg)
		if s != nil || !tc.check(err) {
			t.Errorf("[TEST] %s: got solver=%v err=%v", tc.name, s != nil, err)
		}
	}

	cfg := good
	cfg.Workers = 4
	if _, err := Configure(cfg); err != nil {
		t.Errorf("[TEST] One worker per interior row rejected: %v", err)
	}
}

func TestConfigureRejectsBadPartition(t *testing.T) {
	defer func(f func(int, int) ([]partition.Band, error)) { splitRows = f }(splitRows)
	// rows 2 and 3 claimed twice, row 4 left out
	splitRows = func(rows, workers int) ([]partition.Band, error) {
		return []partition.Band{{ID: 0, Start: 1, End: 4}, {ID: 1, Start: 2, End: 4}}, nil
	}

	s, err := Configure(scenario())
	var bad InvalidPartition
	if s != nil || !errors.As(err, &bad) {
		t.Fatalf("[TEST] Malformed partition got solver=%v err=%v, want InvalidPartition", s != nil, err)
	}
	var coverage partition.CoverageError
	if !errors.As(err, &coverage) || coverage.Row != 2 {
		t.Errorf("[TEST] InvalidPartition does not carry the coverage fault, got %v", err)
	}
}

func TestBandsFollowPartition(t *testing.T) {
	cfg := Config{Rows: 12, Cols: 5, Workers: 4, Epsilon: 0.1, MaxCycles: 10}
	s, err := Configure(cfg)
	if err != nil {
		t.Fatalf("[TEST] Configure returned %v", err)
	}
	want, _ := partition.Bands(cfg.Rows, cfg.Workers)
	got := s.Bands()
	if len(got) != len(want) {
		t.Fatalf("[TEST] Bands got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("[TEST] Band %d got %v, want %v", i, got[i], want[i])
		}
	}
	got[0].End = 11
	if s.Bands()[0] != want[0] {
		t.Errorf("[TEST] Bands returned the solver's own slice")
	}
}

func TestRunTwice(t *testing.T) {
	s, _ := Configure(scenario())
	if _, err := s.Run(); err != nil {
		t.Fatalf("[TEST] Run returned %v", err)
	}
	var again AlreadyRun
	if _, err := s.Run(); !errors.As(err, &again) {
		t.Errorf("[TEST] Second Run got %v, want AlreadyRun", err)
	}
}

func TestConfigureWithPlate(t *testing.T) {
	seed := grid.NewMatrix(6, 8)
	seed.Fill(grid.Boundary{}, 0)
	// uneven boundary the per-edge form can not express
	for j := 0; j < 8; j++ {
		seed.Set(5, j, float64(10*j))
	}
	plate, _ := grid.NewPlateFrom(seed)

	s, err := ConfigureWithPlate(Config{Workers: 3, Epsilon: 1e-6, MaxCycles: 10000}, plate)
	if err != nil {
		t.Fatalf("[TEST] ConfigureWithPlate returned %v", err)
	}
	if got := s.Config(); got.Rows != 6 || got.Cols != 8 {
		t.Errorf("[TEST] Dimensions not taken from plate, got %dx%d", got.Rows, got.Cols)
	}
	res, err := s.Run()
	if err != nil {
		t.Fatalf("[TEST] Run returned %v", err)
	}
	if !res.Grid.BoundaryEqual(seed) {
		t.Errorf("[TEST] Caller boundary changed during the run")
	}

	if _, err := ConfigureWithPlate(Config{Rows: 5, Cols: 8, Workers: 1, MaxCycles: 1}, plate); err == nil {
		t.Errorf("[TEST] Shape mismatch with plate not rejected")
	}

	broken, _ := grid.NewPlateFrom(seed)
	broken.Next().Set(0, 3, 1)
	var changed BoundaryChanged
	if _, err := ConfigureWithPlate(Config{Workers: 1, MaxCycles: 1}, broken); !errors.As(err, &changed) {
		t.Errorf("[TEST] Buffers with different boundaries got %v, want BoundaryChanged", err)
	}
}

func TestWorkerFailureReleasesRun(t *testing.T) {
	s, _ := Configure(Config{Rows: 10, Cols: 10, Workers: 3, Epsilon: 0, MaxCycles: 1000000, Boundary: hotBottom})
	// band reaching the top boundary row makes the stencil read row -1
	s.bands[1] = partition.Band{ID: 1, Start: 0, End: 2}

	_, err := runWithin(t, s, 10*time.Second)
	var failure WorkerFailure
	if !errors.As(err, &failure) || failure.Worker != 1 || failure.Cycle != 1 {
		t.Errorf("[TEST] Run got %v, want WorkerFailure of worker 1 in cycle 1", err)
	}
}

func TestStepStaysInBand(t *testing.T) {
	plate, _ := grid.NewPlate(8, 5, hotBottom, 25)
	before := plate.Next().Clone()
	coord := barrier.New(1)
	w := newWorker(partition.Band{ID: 0, Start: 3, End: 5}, plate, coord, nil)
	w.step(plate.Current(), plate.Next())

	next := plate.Next()
	for i := 0; i < next.Rows; i++ {
		for j := 0; j < next.Cols; j++ {
			inBand := i >= 3 && i < 5 && !next.IsBoundary(i, j)
			if !inBand && next.At(i, j) != before.At(i, j) {
				t.Errorf("[TEST] Cell (%d,%d) outside band was written", i, j)
			}
		}
	}
	if plate.Current().At(3, 2) != 25 {
		t.Errorf("[TEST] Step wrote into the current buffer")
	}
}

func TestTraceWritesLogs(t *testing.T) {
	cfg := scenario()
	cfg.Trace = filepath.Join(t.TempDir(), "govec")
	s, _ := Configure(cfg)
	if _, err := s.Run(); err != nil {
		t.Fatalf("[TEST] Run returned %v", err)
	}
	entries, err := os.ReadDir(cfg.Trace)
	if err != nil || len(entries) < cfg.Workers+1 {
		t.Errorf("[TEST] Expected one GoVector log per process, got %d (%v)", len(entries), err)
	}
}
