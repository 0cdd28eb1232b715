// Package sizefmt renders byte counts as short fixed-width strings such as
// "  1.0M" or " 999B", suitable for aligned columns in reports.
package sizefmt

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// Precision is the number of fractional digits printed for scaled sizes.
	Precision = 1
	// Width is the total width of every formatted value, unit included.
	Width = 4 + Precision + 1
)

var symbols = []string{"B", "K", "M", "G", "T", "P", "E", "Z", "Y"}

var (
	// Blank is the rendering of a zero or absent size.
	Blank = strings.Repeat(" ", Width)
	// Marker is the rendering of a size excluded from accounting.
	Marker = strings.Repeat("!", Width)
)

type state int

const (
	stateAbsent state = iota
	stateBytes
	stateNotCounted
)

// Size is a byte count that may also be absent or explicitly not counted.
type Size struct {
	n     int64
	state state
}

// Bytes returns a measured size.
func Bytes(n int64) Size {
	return Size{n: n, state: stateBytes}
}

var (
	// Absent is a size that was never measured.
	Absent = Size{}
	// NotCounted is a size deliberately left out of the totals.
	NotCounted = Size{state: stateNotCounted}
)

// Formatter formats sizes with a binary (1024) or decimal (1000) denominator.
// The zero value uses binary units.
type Formatter struct {
	Decimal bool
	// Emphasis, when set, wraps Marker so it stands out. It must not change
	// the visible width.
	Emphasis func(string) string
}

func (f Formatter) denominator() float64 {
	if f.Decimal {
		return 1000
	}
	return 1024
}

// Format renders s right-justified to Width.
func (f Formatter) Format(s Size) string {
	switch {
	case s.state == stateNotCounted:
		if f.Emphasis != nil {
			return f.Emphasis(Marker)
		}
		return Marker
	case s.state == stateAbsent, s.n == 0:
		return Blank
	}

	if abs(s.n) < 1000 {
		return pad(strconv.FormatInt(s.n, 10) + symbols[0])
	}

	number := float64(s.n)
	degree := 0
	for (number >= 1000 || number <= -1000) && degree < len(symbols)-1 {
		number /= f.denominator()
		degree++
	}
	return pad(fmt.Sprintf("%.*f%s", Precision, number, symbols[degree]))
}

// FormatBytes is shorthand for f.Format(Bytes(n)).
func (f Formatter) FormatBytes(n int64) string {
	return f.Format(Bytes(n))
}

func pad(s string) string {
	if len(s) >= Width {
		return s
	}
	return strings.Repeat(" ", Width-len(s)) + s
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
