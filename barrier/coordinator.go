package barrier

import (
	"fmt"
	"sync"

	"github.com/AQing-527/Jacobi-Iterative-With-Mutex/tlog"
)

// State is the phase of the current cycle
type State int

const (
	Collecting State = iota // waiting for reports
	Ready                   // every worker reported, decision pending
	Releasing               // decision applied, waking workers
	Done                    // termination flag set
)

var stateName = map[State]string{
	Collecting: "Collecting", Ready: "Ready", Releasing: "Releasing", Done: "Done",
}

func (s State) String() string {
	if n, ok := stateName[s]; ok {
		return n
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// SyncFault is raised when the protocol reaches a state it can not be in.
// The run is aborted and every worker is released with the termination flag.
type SyncFault struct {
	Worker   int
	Cycle    int
	Reason   string
	Arrivals []uint // reports per worker when the fault was raised
}

func (e SyncFault) Error() string {
	return fmt.Sprintf("Barrier: Sync fault in cycle %d, worker %d: %s", e.Cycle, e.Worker, e.Reason)
}

// Release is what a worker observes when it is woken
type Release struct {
	Cycle      int  // cycle the worker reported for
	Terminated bool // set when the worker must exit
}

// Decision is the outcome of one cycle as seen by the decision maker
type Decision struct {
	Cycle      int
	GlobalMax  float64
	Terminated bool
}

// Coordinator is a barrier that folds one value per worker into a global
// maximum and lets a single decision maker choose to continue or stop before
// the workers are released. All fields below mu are guarded by it.
type Coordinator struct {
	mu       sync.Mutex
	arrived  *sync.Cond // signalled when the last report of a cycle lands
	released *sync.Cond // broadcast once the decision of a cycle is applied

	workers    int
	state      State
	cycle      int     // cycle being collected, starting at 1
	count      int     // reports received this cycle
	globalMax  float64 // max of the local maxima reported this cycle
	terminated bool
	fault      error
	arrivals   *Vclock // reports per worker
	release    []byte  // trace payload of the last release

	log   *tlog.Logger
	trace *tlog.Tracer
}

// Option configures a Coordinator
type Option func(*Coordinator)

// WithLogger sets the logger used for barrier messages
func WithLogger(l *tlog.Logger) Option {
	return func(c *Coordinator) { c.log = l }
}

// WithTracer records every report and release as GoVector events
func WithTracer(t *tlog.Tracer) Option {
	return func(c *Coordinator) { c.trace = t }
}

// New creates a coordinator for the given number of workers
func New(workers int, opts ...Option) *Coordinator {
	c := &Coordinator{
		workers:  workers,
		state:    Collecting,
		cycle:    1,
		arrivals: NewVectorClock(workers),
	}
	c.arrived = sync.NewCond(&c.mu)
	c.released = sync.NewCond(&c.mu)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Workers returns the number of participants
func (c *Coordinator) Workers() int {
	return c.workers
}

// Report folds localMax into the cycle maximum and blocks worker id until the
// decision maker releases the cycle. The returned error is the fault that
// aborted the run, if any.
func (c *Coordinator) Report(id int, localMax float64) (Release, error) {
	var payload []byte
	if id >= 0 && id < c.workers {
		payload = c.trace.Report(id, localMax)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.terminated {
		return Release{Cycle: c.cycle, Terminated: true}, c.fault
	}
	if id < 0 || id >= c.workers {
		c.abortLocked(c.syncFault(id, "unknown worker"))
		return Release{Cycle: c.cycle, Terminated: true}, c.fault
	}
	if c.state != Collecting {
		c.abortLocked(c.syncFault(id, "report while " + c.state.String()))
		return Release{Cycle: c.cycle, Terminated: true}, c.fault
	}
	if n, _ := c.arrivals.Increment(id); n != uint(c.cycle) {
		c.abortLocked(c.syncFault(id, fmt.Sprintf("report number %d", n)))
		return Release{Cycle: c.cycle, Terminated: true}, c.fault
	}

	c.count++
	if localMax > c.globalMax {
		c.globalMax = localMax
	}
	c.trace.Collect(c.cycle, payload)
	if c.count == c.workers {
		c.state = Ready
		c.arrived.Signal()
	}

	// the sink may block, so log without the lock; the wait below keys on
	// the cycle index and does not miss a release that happens meanwhile
	cycle, count := c.cycle, c.count
	c.mu.Unlock()
	c.log.LogMsg("Report[%d]: cycle %d local %.6g count %d/%d", id, cycle, localMax, count, c.workers)
	c.mu.Lock()

	for c.cycle == cycle && !c.terminated {
		c.released.Wait()
	}
	if c.fault == nil {
		c.trace.Acknowledge(id, cycle, c.release)
	}
	return Release{Cycle: cycle, Terminated: c.terminated}, c.fault
}

// Cycle blocks until every worker has reported for the current cycle, then
// calls decide with the cycle index and the global maximum. decide runs with
// the barrier lock held and no worker running, so it may touch any state the
// workers read. If decide returns true the termination flag is set, otherwise
// the next cycle starts. Either way all workers are released.
func (c *Coordinator) Cycle(decide func(cycle int, globalMax float64) bool) (Decision, error) {
	c.mu.Lock()
	d, err := c.cycleLocked(decide)
	c.mu.Unlock()
	if err == nil {
		c.log.LogMsg("Release: cycle %d max %.6g terminated %v", d.Cycle, d.GlobalMax, d.Terminated)
	}
	return d, err
}

func (c *Coordinator) cycleLocked(decide func(cycle int, globalMax float64) bool) (Decision, error) {
	if c.terminated && c.fault == nil {
		return Decision{Cycle: c.cycle, Terminated: true}, c.syncFault(-1, "decision after termination")
	}
	for c.state == Collecting && c.fault == nil {
		c.arrived.Wait()
	}
	if c.fault != nil {
		return Decision{Cycle: c.cycle, GlobalMax: c.globalMax, Terminated: true}, c.fault
	}
	if c.state != Ready {
		c.abortLocked(c.syncFault(-1, "decision while " + c.state.String()))
		return Decision{Cycle: c.cycle, Terminated: true}, c.fault
	}

	if !UniformClock(c.workers, uint(c.cycle)).IsIdentical(c.arrivals) {
		c.abortLocked(c.syncFault(-1, "arrivals " + c.arrivals.String()))
		return Decision{Cycle: c.cycle, Terminated: true}, c.fault
	}

	d := Decision{Cycle: c.cycle, GlobalMax: c.globalMax}
	d.Terminated = decide(c.cycle, c.globalMax)
	c.trace.Decide(d.Cycle, d.GlobalMax, d.Terminated)

	c.state = Releasing
	c.release = c.trace.Release(c.cycle, d.Terminated)
	if d.Terminated {
		c.terminated = true
		c.state = Done
	} else {
		c.cycle++
		c.count = 0
		c.globalMax = 0
		c.state = Collecting
	}
	c.released.Broadcast()
	return d, nil
}

// Abort is called by a worker that can not finish its cycle. It terminates
// the run with err so that neither the decision maker nor the other workers
// wait for the missing report.
func (c *Coordinator) Abort(id int, err error) {
	c.mu.Lock()
	cycle, missing := c.cycle, c.arrivals.Laggards(uint(c.cycle))
	c.abortLocked(err)
	c.mu.Unlock()
	c.log.LogError("Abort[%d]: cycle %d missing %v: %v", id, cycle, missing, err)
}

// syncFault builds a fault for the current cycle with a snapshot of the
// arrival clock. Must be called with mu held.
func (c *Coordinator) syncFault(worker int, reason string) SyncFault {
	return SyncFault{Worker: worker, Cycle: c.cycle, Reason: reason, Arrivals: c.arrivals.Copy().ClockMap}
}

func (c *Coordinator) abortLocked(err error) {
	if err == nil {
		err = c.syncFault(-1, "aborted")
	}
	if c.fault == nil {
		c.fault = err
	}
	c.terminated = true
	c.state = Done
	c.arrived.Signal()
	c.released.Broadcast()
}

// Terminated reports whether the termination flag is set
func (c *Coordinator) Terminated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.terminated
}

// State returns the phase of the current cycle
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err returns the fault that aborted the run, if any
func (c *Coordinator) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fault
}
