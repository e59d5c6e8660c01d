/*
Package barrier implements the aggregating barrier of the Jacobi solver.

This file contains the arrival clock. Entry i counts how many cycles worker i
has reported. While a cycle is being collected no entry may exceed the cycle
index, and once the cycle is Ready every entry must equal it.
*/
package barrier

import (
	"fmt"
)

// Vclock holds one counter per worker
type Vclock struct {
	ClockMap []uint
}

// NewVectorClock returns a clock of n zero entries
func NewVectorClock(n int) *Vclock {
	vc := new(Vclock)
	vc.ClockMap = make([]uint, n)
	return vc
}

// UniformClock returns a clock of n entries all equal to v
func UniformClock(n int, v uint) *Vclock {
	vc := NewVectorClock(n)
	for i := range vc.ClockMap {
		vc.ClockMap[i] = v
	}
	return vc
}

// Increment increments the entry for id and returns the new value
func (vc *Vclock) Increment(id int) (uint, error) {
	if id < 0 || id >= len(vc.ClockMap) {
		return 0, fmt.Errorf("Invalid ID: %d", id)
	}
	vc.ClockMap[id]++
	return vc.ClockMap[id], nil
}

// Copy copies the clock into a new clock
func (vc *Vclock) Copy() *Vclock {
	vc2 := NewVectorClock(len(vc.ClockMap))
	copy(vc2.ClockMap, vc.ClockMap)
	return vc2
}

// IsIdentical checks that both clocks hold the same value for every worker
func (vc *Vclock) IsIdentical(vc2 *Vclock) bool {
	if len(vc.ClockMap) != len(vc2.ClockMap) {
		return false
	}
	for i, val := range vc.ClockMap {
		if vc2.ClockMap[i] != val {
			return false
		}
	}
	return true
}

// Laggards returns the ids whose entry is below v
func (vc *Vclock) Laggards(v uint) []int {
	var ids []int
	for i, val := range vc.ClockMap {
		if val < v {
			ids = append(ids, i)
		}
	}
	return ids
}

func (vc Vclock) String() string {
	return fmt.Sprintf("%v", vc.ClockMap)
}
