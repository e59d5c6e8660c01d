package jacobi

import (
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/AQing-527/Jacobi-Iterative-With-Mutex/barrier"
	"github.com/AQing-527/Jacobi-Iterative-With-Mutex/grid"
	"github.com/AQing-527/Jacobi-Iterative-With-Mutex/partition"
	"github.com/AQing-527/Jacobi-Iterative-With-Mutex/tlog"
)

// WorkerStats describes the work done by one worker
type WorkerStats struct {
	ID     int
	Band   partition.Band
	Cycles int           // stencil passes over the band
	Busy   time.Duration // time spent in the stencil, barrier waits excluded
}

// worker owns one band of interior rows for the whole run
type worker struct {
	band  partition.Band
	plate *grid.Plate
	coord *barrier.Coordinator
	log   *tlog.Logger
	stats WorkerStats
}

func newWorker(band partition.Band, plate *grid.Plate, coord *barrier.Coordinator, log *tlog.Logger) *worker {
	return &worker{
		band:  band,
		plate: plate,
		coord: coord,
		log:   log,
		stats: WorkerStats{ID: band.ID, Band: band},
	}
}

// run updates the band once per cycle until the coordinator sets the
// termination flag. A panic in the stencil is reported to the coordinator so
// the other workers are released.
func (w *worker) run(wg *sync.WaitGroup) {
	defer wg.Done()
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	defer func() {
		if r := recover(); r != nil {
			err := WorkerFailure{Worker: w.band.ID, Cycle: w.stats.Cycles + 1, Cause: r}
			w.log.LogError("%v", err)
			w.coord.Abort(w.band.ID, err)
		}
	}()

	w.log.LogDebug("Start %v", w.band)
	for {
		start := time.Now()
		localMax := w.step(w.plate.Current(), w.plate.Next())
		w.stats.Busy += time.Since(start)
		w.stats.Cycles++

		rel, err := w.coord.Report(w.band.ID, localMax)
		if err != nil || rel.Terminated {
			w.log.LogDebug("Exit after cycle %d", rel.Cycle)
			return
		}
	}
}

// step writes the four point average of cur into next over the band and
// returns the largest change of any cell.
func (w *worker) step(cur, next *grid.Matrix) float64 {
	localMax := 0.0
	cols := cur.Cols
	for i := w.band.Start; i < w.band.End; i++ {
		up, row, down := cur.Row(i-1), cur.Row(i), cur.Row(i+1)
		out := next.Row(i)
		for j := 1; j < cols-1; j++ {
			v := 0.25 * (up[j] + down[j] + row[j-1] + row[j+1])
			out[j] = v
			if d := math.Abs(v - row[j]); d > localMax {
				localMax = d
			}
		}
	}
	return localMax
}
