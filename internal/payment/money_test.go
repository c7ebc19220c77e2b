package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMinorUnits(t *testing.T) {
	cases := []struct {
		in   float64
		want int64
	}{
		{in: 0, want: 0},
		{in: 50, want: 5000},
		{in: 450, want: 45000},
		{in: 19.99, want: 1999},
		{in: 0.1 + 0.2, want: 30},
		{in: 1234.565, want: 123457},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, MinorUnits(c.in), "amount %v", c.in)
	}
}
