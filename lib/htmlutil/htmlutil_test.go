package htmlutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFlattenFragment(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"At rest<br>Gone but not forgotten<br/>Forever", "At rest\nGone but not forgotten\nForever"},
		{"<i>In loving memory</i>", "In loving memory"},
		{"plain text", "plain text"},
		{"  <b>trimmed</b>  ", "trimmed"},
		{"", ""},
	}
	for _, tc := range testCases {
		require.Equal(t, tc.expected, FlattenFragment(tc.input), "input: %q", tc.input)
	}
}
