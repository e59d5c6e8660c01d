/*
Package jacobi computes the steady state temperature of a 2-D plate with the
Jacobi method.

Each worker owns a contiguous band of interior rows. Every cycle a worker
averages the four neighbours of each of its cells from the current buffer
into the next buffer, then reports its largest change to the barrier. When
the last worker has reported, the driver swaps the buffer roles, checks the
global change against epsilon and the cycle count against the ceiling, and
releases the workers into the next cycle or out of the run.

	s, err := jacobi.Configure(jacobi.Config{Rows: 6, Cols: 6, Workers: 2, Epsilon: 0.5, MaxCycles: 1000})
	res, err := s.Run()
*/
package jacobi

import (
	"math"
	"sync"
	"time"

	"github.com/AQing-527/Jacobi-Iterative-With-Mutex/barrier"
	"github.com/AQing-527/Jacobi-Iterative-With-Mutex/grid"
	"github.com/AQing-527/Jacobi-Iterative-With-Mutex/partition"
	"github.com/AQing-527/Jacobi-Iterative-With-Mutex/tlog"
)

// Config holds everything the solver needs for one run
type Config struct {
	Rows      int
	Cols      int
	Workers   int
	Epsilon   float64 // stop once no cell changes by more than this
	MaxCycles int     // stop after this many cycles even without convergence
	Boundary  grid.Boundary
	Initial   float64 // interior seed
	History   bool    // keep the global max-change of every cycle
	Trace     string  // directory for GoVector barrier logs, empty disables
}

// Result of a finished run
type Result struct {
	Grid       *grid.Matrix // current buffer after the last swap
	Iterations int          // cycle at which termination was decided
	MaxChange  float64      // global max-change of that cycle
	Converged  bool         // false when the ceiling stopped the run
	History    []float64    // per cycle max-change when Config.History is set
	Workers    []WorkerStats
	Elapsed    time.Duration
}

// Solver owns the plate and the worker bands of one run
type Solver struct {
	cfg   Config
	plate *grid.Plate
	seed  *grid.Matrix // boundary reference taken before the first cycle
	bands []partition.Band
	log   *tlog.Logger
	ran   bool
}

// Option configures a Solver
type Option func(*Solver)

// WithLogger sets the logger of the solver. Workers and the barrier log
// through named children of it.
func WithLogger(l *tlog.Logger) Option {
	return func(s *Solver) { s.log = l }
}

// Configure validates cfg and allocates a plate seeded from cfg.Boundary and
// cfg.Initial.
// Can return the following errors:
// - InvalidDimensions
// - InvalidWorkerCount
// - InvalidEpsilon
// - InvalidCeiling
// - InvalidSeed
// - InvalidPartition
func Configure(cfg Config, opts ...Option) (*Solver, error) {
	if err := validate(cfg); err != nil {
		return nil, err
	}
	for _, v := range []float64{cfg.Boundary.Top, cfg.Boundary.Bottom, cfg.Boundary.Left, cfg.Boundary.Right, cfg.Initial} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, InvalidSeed(v)
		}
	}
	plate, err := grid.NewPlate(cfg.Rows, cfg.Cols, cfg.Boundary, cfg.Initial)
	if err != nil {
		return nil, InvalidDimensions{cfg.Rows, cfg.Cols}
	}
	return newSolver(cfg, plate, opts)
}

// ConfigureWithPlate validates cfg and uses a plate seeded by the caller.
// Both buffers of the plate must carry the same boundary. Zero Rows and Cols
// in cfg are taken from the plate.
// Can return the following errors:
// - InvalidDimensions
// - InvalidWorkerCount
// - InvalidEpsilon
// - InvalidCeiling
// - InvalidSeed
// - InvalidPartition
// - BoundaryChanged
func ConfigureWithPlate(cfg Config, plate *grid.Plate, opts ...Option) (*Solver, error) {
	if plate == nil {
		return nil, InvalidDimensions{cfg.Rows, cfg.Cols}
	}
	if cfg.Rows == 0 && cfg.Cols == 0 {
		cfg.Rows, cfg.Cols = plate.Rows(), plate.Cols()
	}
	if cfg.Rows != plate.Rows() || cfg.Cols != plate.Cols() {
		return nil, InvalidDimensions{cfg.Rows, cfg.Cols}
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}
	for _, v := range plate.Current().Data() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, InvalidSeed(v)
		}
	}
	if !plate.Next().BoundaryEqual(plate.Current()) {
		return nil, BoundaryChanged{}
	}
	return newSolver(cfg, plate, opts)
}

func validate(cfg Config) error {
	if cfg.Rows < grid.MinSize || cfg.Cols < grid.MinSize || cfg.Rows > math.MaxInt32/cfg.Cols {
		return InvalidDimensions{cfg.Rows, cfg.Cols}
	}
	if cfg.Workers < 1 || cfg.Workers > cfg.Rows-2 {
		return InvalidWorkerCount{cfg.Workers, cfg.Rows - 2}
	}
	if cfg.Epsilon < 0 || math.IsNaN(cfg.Epsilon) {
		return InvalidEpsilon(cfg.Epsilon)
	}
	if cfg.MaxCycles < 1 {
		return InvalidCeiling(cfg.MaxCycles)
	}
	return nil
}

// splitRows is the partition policy used by newSolver
var splitRows = partition.Bands

func newSolver(cfg Config, plate *grid.Plate, opts []Option) (*Solver, error) {
	bands, err := splitRows(cfg.Rows, cfg.Workers)
	if err != nil {
		return nil, InvalidWorkerCount{cfg.Workers, cfg.Rows - 2}
	}
	if err := partition.Validate(bands, cfg.Rows); err != nil {
		return nil, InvalidPartition{Err: err}
	}
	s := &Solver{
		cfg:   cfg,
		plate: plate,
		seed:  plate.Current().Clone(),
		bands: bands,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Config returns the validated configuration
func (s *Solver) Config() Config {
	return s.cfg
}

// Bands returns the row band of every worker
func (s *Solver) Bands() []partition.Band {
	return append([]partition.Band(nil), s.bands...)
}

// Run starts one worker per band, makes the continue or stop decision of
// every cycle, and returns once all workers have exited. Reaching the
// ceiling is not an error; Result.Converged tells the two endings apart.
// Can return the following errors:
// - AlreadyRun
// - WorkerFailure
// - barrier.SyncFault
// - BoundaryChanged
func (s *Solver) Run() (Result, error) {
	if s.ran {
		return Result{}, AlreadyRun{}
	}
	s.ran = true

	var tracer *tlog.Tracer
	if s.cfg.Trace != "" {
		var err error
		if tracer, err = tlog.NewTracer(s.cfg.Trace, s.cfg.Workers); err != nil {
			return Result{}, err
		}
	}
	coord := barrier.New(s.cfg.Workers,
		barrier.WithLogger(s.log.Named("barrier")),
		barrier.WithTracer(tracer))

	s.log.LogInfo("Problem size: M=%d, N=%d, workers=%d, epsilon=%g, ceiling=%d",
		s.cfg.Rows, s.cfg.Cols, s.cfg.Workers, s.cfg.Epsilon, s.cfg.MaxCycles)

	var res Result
	start := time.Now()
	workers := make([]*worker, len(s.bands))
	var wg sync.WaitGroup
	for i, b := range s.bands {
		workers[i] = newWorker(b, s.plate, coord, s.log.Named(tlog.WorkerProcess(b.ID)))
		wg.Add(1)
		go workers[i].run(&wg)
	}

	decide := func(cycle int, globalMax float64) bool {
		s.plate.Swap()
		if s.cfg.History {
			res.History = append(res.History, globalMax)
		}
		return globalMax <= s.cfg.Epsilon || cycle >= s.cfg.MaxCycles
	}

	var runErr error
	for {
		d, err := coord.Cycle(decide)
		if err != nil {
			runErr = err
			break
		}
		if d.Cycle%1000 == 0 {
			s.log.LogDebug("Cycle %d max %.6g", d.Cycle, d.GlobalMax)
		}
		if d.Terminated {
			res.Iterations = d.Cycle
			res.MaxChange = d.GlobalMax
			res.Converged = d.GlobalMax <= s.cfg.Epsilon
			break
		}
	}
	wg.Wait()
	tracer.Flush()
	res.Elapsed = time.Since(start)

	if runErr != nil {
		s.log.LogError("Run aborted: %v", runErr)
		return Result{}, runErr
	}
	if !s.plate.BoundaryIntact(s.seed) {
		return Result{}, BoundaryChanged{}
	}

	res.Grid = s.plate.Current()
	res.Workers = make([]WorkerStats, len(workers))
	for i, w := range workers {
		res.Workers[i] = w.stats
	}
	s.log.LogInfo("Converged=%v after %d iterations with error: %8.6f in %s",
		res.Converged, res.Iterations, res.MaxChange, res.Elapsed)
	return res, nil
}
