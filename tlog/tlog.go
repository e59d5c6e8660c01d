/*
Package tlog contains the leveled logger shared by the solver components.

Log lines are formatted by the caller and put on a channel. A Sink drains
the channel to a writer in its own goroutine. A logger only waits when the
channel is full, and then only until the drain catches up. Callers holding a
lock that other goroutines need should log after releasing it.
*/
package tlog

import (
	"fmt"
	"io"
	"sync"
)

// Debug levels. Lower levels are included in higher levels.
const (
	LevelNone  = 0 // disable all output
	LevelError = 1 // error messages
	LevelInfo  = 2 // info messages
	LevelMsg   = 3 // barrier report/release trace
	LevelDebug = 4 // verbose debug info
)

// sinkBufSize is how many lines may queue before a logger blocks
const sinkBufSize = 100

// Sink owns the log channel and the goroutine that drains it
type Sink struct {
	logChan chan string
	done    chan struct{}
	once    sync.Once
}

// NewSink starts draining log lines to w
func NewSink(w io.Writer) *Sink {
	s := &Sink{
		logChan: make(chan string, sinkBufSize),
		done:    make(chan struct{}),
	}
	go s.dumpLog(w)
	return s
}

func (s *Sink) dumpLog(w io.Writer) {
	defer close(s.done)
	for line := range s.logChan {
		fmt.Fprint(w, line)
	}
}

// Close stops accepting lines and waits until every queued line is written.
// Loggers must not be used after their sink is closed.
func (s *Sink) Close() {
	s.once.Do(func() {
		close(s.logChan)
	})
	<-s.done
}

// Logger writes leveled messages tagged with a component name
type Logger struct {
	name  string
	level int
	sink  *Sink
}

// New creates a logger. A nil sink discards everything.
func New(name string, level int, sink *Sink) *Logger {
	return &Logger{name: name, level: level, sink: sink}
}

// Named returns a logger sharing the level and sink of l under a new name
func (l *Logger) Named(name string) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{name: name, level: l.level, sink: l.sink}
}

// SetDebug sets the debug message level
func (l *Logger) SetDebug(level int) {
	l.level = level
}

// Level returns the debug message level
func (l *Logger) Level() int {
	if l == nil {
		return LevelNone
	}
	return l.level
}

// LogError used to log any error messages
func (l *Logger) LogError(f string, a ...interface{}) {
	if l.Level() >= LevelError {
		l.Log(f, a...)
	}
}

// LogInfo used to log any info messages
func (l *Logger) LogInfo(f string, a ...interface{}) {
	if l.Level() >= LevelInfo {
		l.Log(f, a...)
	}
}

// LogMsg used to log barrier reports and releases
func (l *Logger) LogMsg(f string, a ...interface{}) {
	if l.Level() >= LevelMsg {
		l.Log(f, a...)
	}
}

// LogDebug used to log verbose debug info
func (l *Logger) LogDebug(f string, a ...interface{}) {
	if l.Level() >= LevelDebug {
		l.Log(f, a...)
	}
}

// Log formats the message and puts it on the sink channel
func (l *Logger) Log(f string, a ...interface{}) {
	if l == nil || l.sink == nil {
		return
	}
	l.sink.logChan <- fmt.Sprintf("[%s]-", l.name) + fmt.Sprintf(f, a...) + "\n"
}
