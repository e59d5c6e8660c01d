package jacobi

import "fmt"

////////////////////////////////////////////////////////////////////////////////////////////
// <ERROR DEFINITIONS>

// These type definitions allow the caller to explicitly check for the kind
// of error that occurred. Configure and Run list the errors they may raise.
// All configuration errors are returned before any worker is started.

// InvalidDimensions contains the rejected rows and cols
type InvalidDimensions [2]int

func (e InvalidDimensions) Error() string {
	return fmt.Sprintf("Jacobi: Invalid grid dimensions [%dx%d]", e[0], e[1])
}

// InvalidWorkerCount contains the rejected worker count and the number of
// interior rows available
type InvalidWorkerCount [2]int

func (e InvalidWorkerCount) Error() string {
	return fmt.Sprintf("Jacobi: Invalid worker count [%d] for %d interior rows", e[0], e[1])
}

// InvalidEpsilon contains the rejected convergence threshold
type InvalidEpsilon float64

func (e InvalidEpsilon) Error() string {
	return fmt.Sprintf("Jacobi: Invalid convergence threshold [%v]", float64(e))
}

// InvalidCeiling contains the rejected iteration ceiling
type InvalidCeiling int

func (e InvalidCeiling) Error() string {
	return fmt.Sprintf("Jacobi: Invalid iteration ceiling [%d]", int(e))
}

// InvalidSeed contains a boundary or initial value that is not finite
type InvalidSeed float64

func (e InvalidSeed) Error() string {
	return fmt.Sprintf("Jacobi: Seed value is not finite [%v]", float64(e))
}

// InvalidPartition wraps the coverage fault of a band layout that leaves an
// interior row uncovered or covers it twice
type InvalidPartition struct {
	Err error
}

func (e InvalidPartition) Error() string {
	return fmt.Sprintf("Jacobi: Invalid partition: %v", e.Err)
}

func (e InvalidPartition) Unwrap() error {
	return e.Err
}

// AlreadyRun is returned when Run is called a second time on one Solver
type AlreadyRun struct{}

func (e AlreadyRun) Error() string {
	return "Jacobi: Solver has already run"
}

// WorkerFailure is returned when a worker stops before the run terminates
type WorkerFailure struct {
	Worker int
	Cycle  int
	Cause  interface{}
}

func (e WorkerFailure) Error() string {
	return fmt.Sprintf("Jacobi: Worker %d failed in cycle %d: %v", e.Worker, e.Cycle, e.Cause)
}

// BoundaryChanged is returned when a boundary cell differs after the run
type BoundaryChanged struct{}

func (e BoundaryChanged) Error() string {
	return "Jacobi: Boundary cells changed during the run"
}

// </ERROR DEFINITIONS>
////////////////////////////////////////////////////////////////////////////////////////////
