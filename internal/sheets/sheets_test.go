package sheets

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestColumnLetter(t *testing.T) {
	tests := []struct {
		col      int
		expected string
	}{
		{1, "A"},
		{2, "B"},
		{5, "E"},
		{26, "Z"},
		{27, "AA"},
		{52, "AZ"},
		{53, "BA"},
		{0, "A"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, columnLetter(tt.col), "column %d", tt.col)
	}
}

func TestQuoteTitle(t *testing.T) {
	assert.Equal(t, "'Amazon Orders'", quoteTitle("Amazon Orders"))
	assert.Equal(t, "'it''s'", quoteTitle("it's"))
}
