package sizefmt

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatBlankAndMarker(t *testing.T) {
	var f Formatter

	assert.Equal(t, "      ", f.Format(Bytes(0)))
	assert.Equal(t, f.Format(Bytes(0)), f.Format(Absent))
	assert.Equal(t, "!!!!!!", f.Format(NotCounted))
	assert.Len(t, f.Format(Absent), Width)
	assert.Len(t, f.Format(NotCounted), Width)
	assert.Len(t, f.FormatBytes(123456), Width)
}

func TestFormatEmphasizesMarkerOnly(t *testing.T) {
	f := Formatter{Emphasis: func(s string) string { return "*" + s + "*" }}

	assert.Equal(t, "*!!!!!!*", f.Format(NotCounted))
	assert.Equal(t, Blank, f.Format(Absent))
	assert.Equal(t, "  2.0K", f.FormatBytes(2048))
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name    string
		size    int64
		decimal bool
		want    string
	}{
		{"single byte", 1, false, "    1B"},
		{"below scaling threshold", 999, false, "  999B"},
		{"negative bytes", -512, false, " -512B"},
		{"thousand bytes scales in binary", 1000, false, "  1.0K"},
		{"kibibytes", 2048, false, "  2.0K"},
		{"mebibyte", 1048576, false, "  1.0M"},
		{"megabyte decimal", 1000000, true, "  1.0M"},
		{"gibibyte and a half", 1610612736, false, "  1.5G"},
		{"decimal kilobytes", 1500, true, "  1.5K"},
		{"grew by two kibibytes", -2048, false, " -2.0K"},
		{"near kibibyte boundary", 1023, false, "  1.0K"},
		{"large value", 999 * 1024, false, "999.0K"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Formatter{Decimal: tt.decimal}
			assert.Equal(t, tt.want, f.FormatBytes(tt.size))
		})
	}
}

func TestFormatBelowThousandIsExactInteger(t *testing.T) {
	var f Formatter
	for _, n := range []int64{1, 7, 42, 512, 999} {
		got := f.FormatBytes(n)
		assert.Len(t, got, Width)
		assert.Equal(t, pad(strconv.FormatInt(n, 10)+"B"), got)
	}
}

func TestFormatStopsAtLargestUnit(t *testing.T) {
	f := Formatter{Decimal: true}
	got := f.FormatBytes(9_000_000_000_000_000_000)
	assert.Equal(t, "  9.0E", got)
}
