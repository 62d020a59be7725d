package refdata

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSeed(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "refdata.json")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestNewFromSeedFile(t *testing.T) {
	path := writeSeed(t, `{
		"vessels": [{
			"pln": "WA1",
			"name": "DAYBREAK",
			"length": 113.97,
			"licenceValidFrom": "2000-12-29T00:00:00Z",
			"licenceValidTo": "2100-12-20T00:00:00Z"
		}],
		"conversionFactors": {"HER|FRE|GUT": 1.12}
	}`)

	cache, err := NewFromSeedFile(path)
	require.NoError(t, err)

	vessel, ok := cache.VesselDetails("WA1")
	require.True(t, ok)
	assert.Equal(t, "DAYBREAK", vessel.Name)
	assert.True(t, vessel.LicenceValidOn(time.Date(2019, 10, 6, 0, 0, 0, 0, time.UTC)))

	assert.Equal(t, 1.12, cache.ConversionFactor("HER", "FRE", "GUT"))
	assert.Equal(t, 1.0, cache.ConversionFactor("HER", "FRE", "WHL"))
}

func TestNewFromSeedFileErrors(t *testing.T) {
	_, err := NewFromSeedFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = NewFromSeedFile(writeSeed(t, `{"vessels": [`))
	assert.Error(t, err)
}

func TestSeedRefreshPicksUpFileEdits(t *testing.T) {
	path := writeSeed(t, `{"vessels": [{"pln": "WA1", "name": "DAYBREAK"}]}`)

	cache, err := NewFromSeedFile(path)
	require.NoError(t, err)

	_, ok := cache.VesselDetails("SY18")
	require.False(t, ok)

	require.NoError(t, os.WriteFile(path, []byte(
		`{"vessels": [{"pln": "WA1", "name": "DAYBREAK"}, {"pln": "SY18", "name": "AMITY"}]}`,
	), 0o600))
	require.NoError(t, cache.RefreshRiskingData(context.Background()))

	vessel, ok := cache.VesselDetails("SY18")
	require.True(t, ok)
	assert.Equal(t, "AMITY", vessel.Name)
}

func TestSeedRefreshKeepsStaleDataOnFailure(t *testing.T) {
	path := writeSeed(t, `{"vessels": [{"pln": "WA1", "name": "DAYBREAK"}]}`)

	cache, err := NewFromSeedFile(path)
	require.NoError(t, err)

	require.NoError(t, os.Remove(path))
	require.Error(t, cache.RefreshRiskingData(context.Background()))

	_, ok := cache.VesselDetails("WA1")
	assert.True(t, ok)
}

func TestRiskingRefresherOption(t *testing.T) {
	called := false
	cache := NewMemory(nil, WithRiskingRefresher(func(context.Context) error {
		called = true
		return nil
	}))

	require.NoError(t, cache.RefreshRiskingData(context.Background()))
	assert.True(t, called)

	// Without a loader the refresh is a no-op.
	require.NoError(t, NewMemory(nil).RefreshRiskingData(context.Background()))
}
