package memorial

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeDate(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"26 May 1928 (aged 81)", "1928-05-26"},
		{"26 May 1928", "1928-05-26"},
		{"3 Feb 1921 (aged 75)", "1921-02-03"},
		{"1928", "1928-00-00"},
		{"Abt. 1928", "1928-00-00"},
		{"abt. 1850", "1850-00-00"},
		{"Abt. garbage", ""},
		{"unknown", ""},
		{"May 1928", ""},
		{"", ""},
		{"   ", ""},
	}
	for _, tc := range testCases {
		require.Equal(t, tc.expected, NormalizeDate(tc.input), "input: %q", tc.input)
	}
}

func TestNormalizeDateIdempotent(t *testing.T) {
	for _, canonical := range []string{"1928-05-26", "1928-00-00"} {
		require.Equal(t, canonical, NormalizeDate(canonical))
		require.Equal(t, canonical, NormalizeDate(NormalizeDate(canonical)))
	}
}
