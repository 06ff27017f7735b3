// Package models defines the core domain entities: draws, weights, scores,
// winner profiles and backtest records.
package models

import (
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	MainMax   = 50
	StarMax   = 12
	MainCount = 5
	StarCount = 2
)

// DateLayout is the wire format of draw dates.
const DateLayout = "2006-01-02"

var validate = validator.New()

// Draw is one historical result. Draws are immutable once loaded.
type Draw struct {
	Date  time.Time `json:"date" validate:"required"`
	Main  []int     `json:"main" validate:"len=5,unique,dive,min=1,max=50"`
	Stars []int     `json:"stars" validate:"len=2,unique,dive,min=1,max=12"`
}

// Validate checks the uniqueness and range invariants of a draw.
func (d *Draw) Validate() error {
	if err := validate.Struct(d); err != nil {
		return fmt.Errorf("invalid draw %s: %w", d.Date.Format(DateLayout), err)
	}
	return nil
}

// SortedMain returns a sorted copy of the main numbers.
func (d Draw) SortedMain() []int {
	out := append([]int(nil), d.Main...)
	sort.Ints(out)
	return out
}

// Spread is the distance between the largest and smallest main number.
func (d Draw) Spread() int {
	if len(d.Main) == 0 {
		return 0
	}
	lo, hi := d.Main[0], d.Main[0]
	for _, n := range d.Main[1:] {
		if n < lo {
			lo = n
		}
		if n > hi {
			hi = n
		}
	}
	return hi - lo
}

// Sum adds the main numbers.
func (d Draw) Sum() int {
	s := 0
	for _, n := range d.Main {
		s += n
	}
	return s
}

func (d Draw) HasMain(n int) bool {
	for _, m := range d.Main {
		if m == n {
			return true
		}
	}
	return false
}

func (d Draw) HasStar(n int) bool {
	for _, m := range d.Stars {
		if m == n {
			return true
		}
	}
	return false
}

// SharedMain counts main numbers present in both draws.
func (d Draw) SharedMain(other Draw) int {
	c := 0
	for _, n := range d.Main {
		if other.HasMain(n) {
			c++
		}
	}
	return c
}
