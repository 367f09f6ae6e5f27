package rarset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseProgress(t *testing.T) {
	tests := []struct {
		line string
		want uint8
		ok   bool
	}{
		{"...  42%  OK", 42, true},
		{"100%", 100, true},
		{"  5%", 5, true},
		{"0%", 0, true},
		{"Extracting  movie.mkv      99%", 99, true},
		{"no percent here", 0, false},
		{"", 0, false},
		{"1000%", 0, false},
		{"%", 0, false},
		{"All OK", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, ok := ParseProgress(tt.line)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
