/*
Package configs contains structs and functions to manipulate the JSON
configuration of a solver run.
*/
package configs

import (
	"encoding/json"
	"os"

	"github.com/AQing-527/Jacobi-Iterative-With-Mutex/grid"
	"github.com/AQing-527/Jacobi-Iterative-With-Mutex/jacobi"
)

// DefaultFile is read by the CLI when no -config flag is given and the file
// exists
const DefaultFile = "config.json"

// DefaultOutput is the solution file written in the gnuplot layout
const DefaultOutput = "jacobi.dat"

// Config is the struct for config.json. Zero fields are not special; use
// Default and override what the file names.
type Config struct {
	Rows      int           // number of rows of the plate
	Cols      int           // number of columns of the plate
	Workers   int           // number of worker goroutines
	Epsilon   float64       // convergence threshold
	MaxCycles int           // iteration ceiling
	Boundary  grid.Boundary // fixed edge temperatures
	Initial   float64       // interior seed temperature
	History   bool          // record the max change of every cycle
	Output    string        // solution file, empty prints to stdout
	Plot      string        // convergence plot PNG, empty disables
	Trace     string        // GoVector log directory, empty disables
	Debug     int           // log level, see package tlog
}

// Default returns the classic heat plate problem: a
// 200x200 plate at room temperature with a 1000 degree heat source along the
// bottom edge.
func Default() Config {
	return Config{
		Rows:      200,
		Cols:      200,
		Workers:   2,
		Epsilon:   0.001,
		MaxCycles: 1000000,
		Boundary:  grid.Boundary{Top: 0, Bottom: 1000, Left: 0, Right: 0},
		Initial:   25,
		Output:    DefaultOutput,
	}
}

// ReadConfig reads the configuration from filename. Fields missing from the
// file keep their Default value.
func ReadConfig(filename string) (Config, error) {
	c := Default()
	cfFile, err := os.ReadFile(filename)
	if err != nil {
		//fail to read config
		return c, err
	}
	err = json.Unmarshal(cfFile, &c)
	if err != nil {
		//unable to decode the config
		return c, err
	}
	return c, nil
}

// WriteConfig writes c to filename as indented JSON
func WriteConfig(filename string, c Config) error {
	cfArr, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		//failed to encode the config
		return err
	}
	return os.WriteFile(filename, cfArr, 0644)
}

// Solver returns the part of c the solver core consumes
func (c Config) Solver() jacobi.Config {
	return jacobi.Config{
		Rows:      c.Rows,
		Cols:      c.Cols,
		Workers:   c.Workers,
		Epsilon:   c.Epsilon,
		MaxCycles: c.MaxCycles,
		Boundary:  c.Boundary,
		Initial:   c.Initial,
		History:   c.History || c.Plot != "",
		Trace:     c.Trace,
	}
}
