package lineage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	lookup := NewAliasLookup(map[string]string{"X": "A", "XY": "A.1"})

	tests := []struct {
		input    string
		expected string
	}{
		{"", ""},
		{"SomeNotListedAlias", "SomeNotListedAlias"},
		{"X", "A"},
		{"XY", "A.1"},
		{"X.1.1", "A.1.1"},
		{"XYX.1.1", "XYX.1.1"},
		{".X", ".X"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, lookup.Resolve(tt.input))
		})
	}
}

func TestIsSublineageOf(t *testing.T) {
	assert.True(t, IsSublineageOf("B.1", "B.1"))
	assert.True(t, IsSublineageOf("B.1", "B.1.617"))
	assert.True(t, IsSublineageOf("B.1", "B.1.617.2"))
	assert.False(t, IsSublineageOf("B.1", "B.11"))
	assert.False(t, IsSublineageOf("B.1.617", "B.1"))
}
