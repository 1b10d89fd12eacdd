package slug

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerate(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Classic Cotton Tee", "classic-cotton-tee"},
		{"Hello   World!", "hello-world"},
		{"ALL UPPER CASE", "all-upper-case"},
		{"  trim me  ", "trim-me"},
		{"special@#chars", "special-chars"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, Generate(tt.input))
		})
	}
}
