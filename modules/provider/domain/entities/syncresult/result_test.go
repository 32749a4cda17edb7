package syncresult

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFailed_HasSingleErrorAndZeroCounts(t *testing.T) {
	r := Failed("Failed to fetch registry snapshot: connection refused")
	require.Equal(t, []string{"Failed to fetch registry snapshot: connection refused"}, r.Errors)
	require.Empty(t, r.Warnings)
	require.Zero(t, r.Total())
	require.True(t, r.HasErrors())
}

func TestResult_JSONShape(t *testing.T) {
	r := New()
	r.FirmsCreated = 2
	r.AddWarning("Removed %d orphan offices", 1)

	raw, err := json.Marshal(r)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	for _, key := range []string{
		"firmsCreated", "firmsUpdated", "firmsReactivated", "firmsDeactivated",
		"officesCreated", "officesUpdated", "officesReactivated", "officesDeactivated",
		"warnings", "errors",
	} {
		require.Contains(t, got, key)
	}
	require.Equal(t, []any{}, got["errors"])
	require.Equal(t, []any{"Removed 1 orphan offices"}, got["warnings"])
}
