package rules

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	docmodels "catchcert/internal/document/models"
	landing "catchcert/internal/landing/models"
	"catchcert/internal/refdata"
)

var asOf = time.Date(2019, 10, 7, 12, 0, 0, 0, time.UTC)

func licensedVessels() map[string]refdata.Vessel {
	return map[string]refdata.Vessel{
		"WA1": {
			PLN:              "WA1",
			Name:             "DAYBREAK",
			LicenceValidFrom: time.Date(2000, 12, 29, 0, 0, 0, 0, time.UTC),
			LicenceValidTo:   time.Date(2100, 12, 20, 0, 0, 0, 0, time.UTC),
		},
	}
}

func cert(species string, weight float64) []*docmodels.Document {
	return []*docmodels.Document{{
		ID: "doc-1",
		Landings: []docmodels.LandingClaim{{
			ID:      "c1",
			PLN:     "WA1",
			Date:    time.Date(2019, 10, 6, 0, 0, 0, 0, time.UTC),
			Species: species,
			Weight:  weight,
		}},
	}}
}

func landed(species string, weight, factor float64) []landing.Landing {
	return []landing.Landing{{
		PLN:      "WA1",
		LandedAt: time.Date(2019, 10, 6, 8, 0, 0, 0, time.UTC),
		Source:   landing.SourceDeclaration,
		Items:    []landing.CatchItem{{Species: species, Weight: weight, Factor: factor}},
	}}
}

func TestQueryRuleChain(t *testing.T) {
	ctx := context.Background()
	engine := New()

	t.Run("clean claim has no failures", func(t *testing.T) {
		results, err := engine.Query(ctx, cert("HER", 40), landed("HER", 50, 1), licensedVessels(), asOf, nil)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Empty(t, results[0].Failures)
		assert.True(t, results[0].LandingExists)
		assert.Equal(t, 50.0, results[0].LandedWeight)
	})

	t.Run("species mismatch", func(t *testing.T) {
		results, err := engine.Query(ctx, cert("LBE", 78), landed("HER", 50, 1), licensedVessels(), asOf, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{CodeSpeciesMismatch}, results[0].Failures)
	})

	t.Run("overuse after conversion", func(t *testing.T) {
		// 50kg landed at factor 1.2 allows 60kg of claims.
		results, err := engine.Query(ctx, cert("HER", 61), landed("HER", 50, 1.2), licensedVessels(), asOf, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{CodeOveruse}, results[0].Failures)

		results, err = engine.Query(ctx, cert("HER", 60), landed("HER", 50, 1.2), licensedVessels(), asOf, nil)
		require.NoError(t, err)
		assert.Empty(t, results[0].Failures)
	})

	t.Run("overuse is judged across certificates", func(t *testing.T) {
		certs := append(cert("HER", 30), cert("HER", 30)...)
		certs[1].ID = "doc-2"
		certs[1].Landings[0].ID = "c2"

		results, err := engine.Query(ctx, certs, landed("HER", 50, 1), licensedVessels(), asOf, nil)
		require.NoError(t, err)
		require.Len(t, results, 2)
		// Each claim fits alone but the combined 60kg exceeds the 50kg landed.
		for _, result := range results {
			assert.Equal(t, 60.0, result.TotalWeight)
			assert.Equal(t, []string{CodeOveruse}, result.Failures)
		}
	})

	t.Run("no landing data", func(t *testing.T) {
		results, err := engine.Query(ctx, cert("HER", 40), nil, licensedVessels(), asOf, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{CodeNoData}, results[0].Failures)
		assert.False(t, results[0].LandingExists)
	})

	t.Run("unlicensed vessel", func(t *testing.T) {
		vessels := licensedVessels()
		v := vessels["WA1"]
		v.LicenceValidTo = time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)
		vessels["WA1"] = v

		results, err := engine.Query(ctx, cert("HER", 40), landed("HER", 50, 1), vessels, asOf, nil)
		require.NoError(t, err)
		assert.Contains(t, results[0].Failures, CodeNoLicence)
	})

	t.Run("alias resolver matches equivalent codes", func(t *testing.T) {
		resolve := func(species string) string {
			if species == "HER2" {
				return "HER"
			}
			return species
		}
		results, err := engine.Query(ctx, cert("HER2", 40), landed("HER", 50, 1), licensedVessels(), asOf, resolve)
		require.NoError(t, err)
		assert.Empty(t, results[0].Failures)
	})
}

func TestQueryForeignChecksLicenceOnly(t *testing.T) {
	ctx := context.Background()
	engine := New()

	results, err := engine.QueryForeign(ctx, cert("HER", 40), licensedVessels(), asOf, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Empty(t, results[0].Failures)

	results, err = engine.QueryForeign(ctx, cert("HER", 40), map[string]refdata.Vessel{}, asOf, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{CodeNoLicence}, results[0].Failures)
}
