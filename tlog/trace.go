package tlog

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/DistributedClocks/GoVector/govec"
)

// Tracer records the barrier protocol as GoVector events. Every worker and
// the coordinator own one GoVector log. A report is a send from the worker to
// the coordinator, a release is a send from the coordinator to every worker.
// The resulting logs can be merged and viewed with ShiViz.
//
// All methods are no-ops on a nil Tracer.
type Tracer struct {
	coord   *govec.GoLog
	workers []*govec.GoLog
	opts    govec.GoLogOptions
}

// CoordinatorProcess is the GoVector process name of the coordinator
const CoordinatorProcess = "coordinator"

// WorkerProcess returns the GoVector process name of worker id
func WorkerProcess(id int) string {
	return "worker" + strconv.Itoa(id)
}

// NewTracer creates GoVector logs for the coordinator and each worker in dir
func NewTracer(dir string, workers int) (*Tracer, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	config := govec.GetDefaultConfig()
	config.Buffered = true

	t := &Tracer{
		workers: make([]*govec.GoLog, workers),
		opts:    govec.GetDefaultLogOptions(),
	}
	t.coord = govec.InitGoVector(CoordinatorProcess, filepath.Join(dir, CoordinatorProcess), config)
	for id := range t.workers {
		process := WorkerProcess(id)
		t.workers[id] = govec.InitGoVector(process, filepath.Join(dir, process), config)
	}
	return t, nil
}

// Report stamps the local max-change of worker id and returns the payload
// handed to the coordinator
func (t *Tracer) Report(id int, localMax float64) []byte {
	if t == nil {
		return nil
	}
	return t.workers[id].PrepareSend(fmt.Sprintf("report %.6g", localMax), localMax, t.opts)
}

// Collect merges a report payload into the coordinator clock
func (t *Tracer) Collect(cycle int, buf []byte) {
	if t == nil || buf == nil {
		return
	}
	var localMax float64
	t.coord.UnpackReceive(fmt.Sprintf("collect cycle %d", cycle), buf, &localMax, t.opts)
}

// Decide records the continue or stop decision of a cycle
func (t *Tracer) Decide(cycle int, globalMax float64, terminated bool) {
	if t == nil {
		return
	}
	verb := "continue"
	if terminated {
		verb = "terminate"
	}
	t.coord.LogLocalEvent(fmt.Sprintf("%s cycle %d max %.6g", verb, cycle, globalMax), t.opts)
}

// Release stamps the release of a cycle and returns the payload every worker
// acknowledges
func (t *Tracer) Release(cycle int, terminated bool) []byte {
	if t == nil {
		return nil
	}
	return t.coord.PrepareSend(fmt.Sprintf("release cycle %d", cycle), terminated, t.opts)
}

// Acknowledge merges a release payload into the clock of worker id
func (t *Tracer) Acknowledge(id, cycle int, buf []byte) {
	if t == nil || buf == nil {
		return
	}
	var terminated bool
	t.workers[id].UnpackReceive(fmt.Sprintf("released cycle %d", cycle), buf, &terminated, t.opts)
}

// Flush writes all buffered events to the log files
func (t *Tracer) Flush() {
	if t == nil {
		return
	}
	t.coord.Flush()
	for _, w := range t.workers {
		w.Flush()
	}
}
