package bulkimport

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Leganyst/agency-platform/internal/model"
)

func provider(first, last string) model.Provider {
	return model.Provider{ID: uuid.New(), FirstName: first, LastName: last}
}

func TestProviderIndex_ExactMatch(t *testing.T) {
	jane := provider("Jane", "Doe")
	idx := BuildProviderIndex([]model.Provider{jane, provider("Bob", "Smith")})

	got := idx.Match("Jane Doe")
	require.NotNil(t, got)
	assert.Equal(t, jane.ID, got.ID)
}

func TestProviderIndex_LastCommaFirstReversal(t *testing.T) {
	jane := provider("Jane", "Doe")
	idx := BuildProviderIndex([]model.Provider{jane})

	got := idx.Match("Doe, Jane")
	require.NotNil(t, got)
	assert.Equal(t, jane.ID, got.ID)
}

func TestProviderIndex_StripsCredentialTokens(t *testing.T) {
	jane := provider("Jane", "Doe")
	idx := BuildProviderIndex([]model.Provider{jane})

	for _, input := range []string{"Jane Doe LPC", "Doe, Jane LCSW", "Jane Doe, MFTC", "Jane Doe Peer Professional"} {
		got := idx.Match(input)
		require.NotNil(t, got, input)
		assert.Equal(t, jane.ID, got.ID, input)
	}
}

func TestProviderIndex_IgnoresMiddleNames(t *testing.T) {
	jane := provider("Jane", "Doe")
	idx := BuildProviderIndex([]model.Provider{jane})

	got := idx.Match("Jane Marie Doe")
	require.NotNil(t, got)
	assert.Equal(t, jane.ID, got.ID)
}

func TestProviderIndex_AmbiguousKeyDoesNotMatch(t *testing.T) {
	a := provider("Jane", "Doe")
	b := provider("Jane", "Doe")
	idx := BuildProviderIndex([]model.Provider{a, b})

	// Two providers collapse to the same key: better no match than the
	// wrong one.
	assert.Nil(t, idx.Match("Jane Doe"))
}

func TestProviderIndex_NoMatchForUnknownName(t *testing.T) {
	idx := BuildProviderIndex([]model.Provider{provider("Jane", "Doe")})
	assert.Nil(t, idx.Match(""))
	assert.Nil(t, idx.Match("Xavier Quill"))
}

func TestProviderIndex_FuzzyFallback(t *testing.T) {
	jane := provider("Jane", "Doe")
	idx := BuildProviderIndex([]model.Provider{jane})

	got := idx.Match("jane do")
	require.NotNil(t, got)
	assert.Equal(t, jane.ID, got.ID)
}
