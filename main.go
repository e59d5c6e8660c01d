/*
Command jacobi solves the heat plate problem with the Jacobi method on a
fixed number of worker goroutines.

	jacobi [flags] [rows cols threads]

Settings are read from config.json when it exists (or the file named by
-config), then overridden by flags, then by the positional arguments. The
solution is written to jacobi.dat one value per line for gnuplot. -output
names another file, and -output "" prints it to stdout instead.
*/
package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"

	"github.com/AQing-527/Jacobi-Iterative-With-Mutex/configs"
	"github.com/AQing-527/Jacobi-Iterative-With-Mutex/jacobi"
	"github.com/AQing-527/Jacobi-Iterative-With-Mutex/output"
	"github.com/AQing-527/Jacobi-Iterative-With-Mutex/tlog"
)

const usage = "Usage: jacobi [flags] [<rows> <cols> <threads>]"

func main() {
	var (
		configFile = flag.String("config", "", "JSON config file (default "+configs.DefaultFile+" when present)")
		rows       = flag.Int("rows", 0, "number of rows of the plate")
		cols       = flag.Int("cols", 0, "number of columns of the plate")
		threads    = flag.Int("threads", 0, "number of worker threads")
		epsilon    = flag.Float64("epsilon", 0, "convergence threshold")
		maxCycles  = flag.Int("max-cycles", 0, "iteration ceiling")
		outFile    = flag.String("output", configs.DefaultOutput, "solution file in gnuplot layout, empty prints to stdout")
		plotFile   = flag.String("plot", "", "convergence plot PNG")
		traceDir   = flag.String("trace", "", "GoVector log directory")
		debug      = flag.Int("debug", 0, "log level 0-4")
	)
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := loadConfig(*configFile)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// only flags given on the command line override the file
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "rows":
			cfg.Rows = *rows
		case "cols":
			cfg.Cols = *cols
		case "threads":
			cfg.Workers = *threads
		case "epsilon":
			cfg.Epsilon = *epsilon
		case "max-cycles":
			cfg.MaxCycles = *maxCycles
		case "output":
			cfg.Output = *outFile
		case "plot":
			cfg.Plot = *plotFile
		case "trace":
			cfg.Trace = *traceDir
		case "debug":
			cfg.Debug = *debug
		}
	})

	if err := applyArgs(&cfg, flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(1)
	}

	sink := tlog.NewSink(os.Stderr)
	logger := tlog.New("jacobi", cfg.Debug, sink)

	fmt.Printf("Problem size: M=%d, N=%d\n", cfg.Rows, cfg.Cols)
	fmt.Printf("Thread count: T=%d\n", cfg.Workers)

	s, err := jacobi.Configure(cfg.Solver(), jacobi.WithLogger(logger))
	if err != nil {
		sink.Close()
		log.Fatalf("configure: %v", err)
	}
	res, err := s.Run()
	sink.Close()
	if err != nil {
		log.Fatalf("run: %v", err)
	}

	if res.Converged {
		fmt.Printf("Converged after %d iterations with error: %8.6f.\n", res.Iterations, res.MaxChange)
	} else {
		fmt.Printf("Stopped at the ceiling of %d iterations with error: %8.6f.\n", res.Iterations, res.MaxChange)
	}
	fmt.Printf("Elapsed time = %8.4f sec.\n", res.Elapsed.Seconds())
	for _, w := range res.Workers {
		fmt.Printf("Worker %d rows %v: %d cycles, busy %8.4f sec.\n", w.ID, w.Band, w.Cycles, w.Busy.Seconds())
	}
	fmt.Println(output.Summarize(res.Grid))

	if err := output.SaveText(cfg.Output, res.Grid); err != nil {
		log.Fatalf("output: %v", err)
	}
	if cfg.Plot != "" {
		if err := output.SavePlot(cfg.Plot, res.History, cfg.Epsilon); err != nil {
			log.Fatalf("plot: %v", err)
		}
	}
}

// loadConfig reads filename, or the default file when it exists. With
// neither it returns the built in defaults.
func loadConfig(filename string) (configs.Config, error) {
	if filename != "" {
		return configs.ReadConfig(filename)
	}
	c, err := configs.ReadConfig(configs.DefaultFile)
	if errors.Is(err, fs.ErrNotExist) {
		return configs.Default(), nil
	}
	return c, err
}

// applyArgs takes the optional positional rows, cols and threads
func applyArgs(c *configs.Config, args []string) error {
	switch len(args) {
	case 0:
		return nil
	case 3:
	default:
		return fmt.Errorf("expected 0 or 3 arguments, got %d", len(args))
	}
	vals := make([]int, 3)
	for i, a := range args {
		v, err := strconv.Atoi(a)
		if err != nil {
			return fmt.Errorf("argument %q is not an integer", a)
		}
		vals[i] = v
	}
	c.Rows, c.Cols, c.Workers = vals[0], vals[1], vals[2]
	return nil
}
