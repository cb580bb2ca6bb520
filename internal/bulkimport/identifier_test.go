package bulkimport

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCode(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"abc123", "ABC123", true},
		{" ab-c 12.3 ", "ABC123", true},
		{"ABCDEF", "ABCDEF", true},
		{"abc12", "ABC12", false},
		{"abc1234", "ABC1234", false},
		{"", "", false},
		{"!!!", "", false},
	}
	for _, tc := range cases {
		got, ok := NormalizeCode(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		if tc.ok {
			assert.Equal(t, tc.want, got, tc.in)
		}
	}
}

func TestRandomCode_AlphabetAndLength(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := randomCode()
		require.NoError(t, err)
		assert.Len(t, code, codeLength)
		for _, r := range code {
			assert.True(t, strings.ContainsRune(codeAlphabet, r), code)
		}
	}
}
