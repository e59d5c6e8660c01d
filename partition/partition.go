/*
Package partition maps workers to contiguous bands of interior rows.

The interior rows of an R-row plate are 1..R-2. They are split into one band
per worker. When the interior row count does not divide evenly, the first
(R-2) mod workers bands get one extra row each, so band sizes never differ by
more than one.
*/
package partition

import "fmt"

// TooManyWorkers contains the worker count that could not be given a
// non-empty band
type TooManyWorkers [2]int

func (e TooManyWorkers) Error() string {
	return fmt.Sprintf("Partition: %d workers for %d interior rows", e[0], e[1])
}

// InvalidWorkers contains the rejected worker count
type InvalidWorkers int

func (e InvalidWorkers) Error() string {
	return fmt.Sprintf("Partition: Invalid worker count [%d]", int(e))
}

// CoverageError describes the first row that is missing or claimed twice
type CoverageError struct {
	Row   int
	Count int
}

func (e CoverageError) Error() string {
	return fmt.Sprintf("Partition: Row %d covered %d times", e.Row, e.Count)
}

// Band is the half open row range [Start, End) owned by worker ID
type Band struct {
	ID    int
	Start int
	End   int
}

// Len returns the number of rows in the band
func (b Band) Len() int {
	return b.End - b.Start
}

func (b Band) String() string {
	return fmt.Sprintf("W%d[%d,%d)", b.ID, b.Start, b.End)
}

// For returns the band of worker id out of workers on a plate with rows rows.
// The caller must have checked the arguments; see Bands.
func For(id, workers, rows int) Band {
	interior := rows - 2
	size, extra := interior/workers, interior%workers
	start := 1 + id*size + min(id, extra)
	end := start + size
	if id < extra {
		end++
	}
	return Band{ID: id, Start: start, End: end}
}

// Bands returns one band per worker covering interior rows 1..rows-2.
// Can return the following errors:
// - InvalidWorkers
// - TooManyWorkers
func Bands(rows, workers int) ([]Band, error) {
	if workers < 1 {
		return nil, InvalidWorkers(workers)
	}
	if workers > rows-2 {
		return nil, TooManyWorkers{workers, rows - 2}
	}
	bands := make([]Band, workers)
	for id := range bands {
		bands[id] = For(id, workers, rows)
	}
	return bands, nil
}

// Validate checks that bands cover every interior row of a rows-row plate
// exactly once and that no band is empty.
// Can return the following errors:
// - CoverageError
func Validate(bands []Band, rows int) error {
	count := make([]int, rows)
	for _, b := range bands {
		if b.Len() <= 0 {
			return CoverageError{Row: b.Start, Count: 0}
		}
		for i := b.Start; i < b.End; i++ {
			if i < 1 || i > rows-2 {
				return CoverageError{Row: i, Count: 1}
			}
			count[i]++
		}
	}
	for i := 1; i < rows-1; i++ {
		if count[i] != 1 {
			return CoverageError{Row: i, Count: count[i]}
		}
	}
	return nil
}
