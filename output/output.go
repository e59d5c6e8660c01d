/*
Package output writes the result of a solver run: the temperature matrix in
the text layout gnuplot reads, a convergence plot, and summary figures.
*/
package output

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/wcharczuk/go-chart/v2"
	"gonum.org/v1/gonum/floats"

	"github.com/AQing-527/Jacobi-Iterative-With-Mutex/grid"
)

// Separators between cells. Tabs read well on a console, one value per line
// is the gnuplot layout.
const (
	ConsoleSep = '\t'
	FileSep    = '\n'
)

// WriteText writes every cell as %6.2f followed by sep, and an empty line
// after each row.
func WriteText(w io.Writer, m *grid.Matrix, sep byte) error {
	bw := bufio.NewWriter(w)
	for i := 0; i < m.Rows; i++ {
		for _, v := range m.Row(i) {
			if _, err := fmt.Fprintf(bw, "%6.2f%c", v, sep); err != nil {
				return err
			}
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// SaveText writes m to filename in the gnuplot layout, or to stdout in the
// console layout when filename is empty.
func SaveText(filename string, m *grid.Matrix) error {
	if filename == "" {
		return WriteText(os.Stdout, m, ConsoleSep)
	}
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := WriteText(f, m, FileSep); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WritePlot renders the per cycle max change and the epsilon threshold as a
// PNG line chart.
func WritePlot(w io.Writer, history []float64, epsilon float64) error {
	if len(history) == 0 {
		return errors.New("output: empty convergence history")
	}
	cycles := make([]float64, len(history))
	for i := range cycles {
		cycles[i] = float64(i + 1)
	}

	graph := chart.Chart{
		Width:  800,
		Height: 400,
		XAxis:  chart.XAxis{Name: "cycle"},
		YAxis:  chart.YAxis{Name: "max change"},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "max change",
				XValues: cycles,
				YValues: history,
				Style:   chart.Style{StrokeColor: chart.ColorBlue, StrokeWidth: 2.0},
			},
			chart.ContinuousSeries{
				Name:    "epsilon",
				XValues: []float64{0, float64(len(history))},
				YValues: []float64{epsilon, epsilon},
				Style:   chart.Style{StrokeColor: chart.ColorRed, StrokeWidth: 1.0, StrokeDashArray: []float64{5.0, 5.0}},
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}
	return graph.Render(chart.PNG, w)
}

// SavePlot writes the convergence plot to filename
func SavePlot(filename string, history []float64, epsilon float64) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := WritePlot(f, history, epsilon); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Stats summarises the interior of a result matrix
type Stats struct {
	Min, Max, Mean float64
}

// Summarize returns the range and mean of the interior cells of m
func Summarize(m *grid.Matrix) Stats {
	interior := make([]float64, 0, (m.Rows-2)*(m.Cols-2))
	for i := 1; i < m.Rows-1; i++ {
		interior = append(interior, m.Row(i)[1:m.Cols-1]...)
	}
	if len(interior) == 0 {
		return Stats{}
	}
	return Stats{
		Min:  floats.Min(interior),
		Max:  floats.Max(interior),
		Mean: floats.Sum(interior) / float64(len(interior)),
	}
}

func (s Stats) String() string {
	return fmt.Sprintf("interior min %.2f max %.2f mean %.2f", s.Min, s.Max, s.Mean)
}
