package report

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hortiva/priceintel/internal/pricing"
)

func sampleRun() pricing.RunReport {
	stats := pricing.PriceStats{Lowest: 169.99, Average: 179.63, Highest: 189.9, Samples: 3}
	return pricing.RunReport{
		RunID: "run-123",
		Results: []pricing.ProductReport{
			{
				ProductID:      "prod-7",
				Title:          "Fortis NXT 720W",
				Manufacturer:   "Fox Lighting",
				Handle:         "fortis-nxt-720w",
				Query:          "Fox Lighting Fortis NXT 720W",
				Status:         pricing.StatusOK,
				ReferencePrice: 169.99,
				PriceStats:     &stats,
				SampledShops:   2,
				TotalShops:     3,
			},
			{
				ProductID:  "prod-8",
				Title:      "Hydro Shoot 120",
				Status:     pricing.StatusNoPricesFound,
				TotalShops: 3,
			},
		},
	}
}

func TestWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "report.json")
	require.NoError(t, WriteJSON(path, sampleRun()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded pricing.RunReport
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "run-123", decoded.RunID)
	require.Len(t, decoded.Results, 2)
	require.NotNil(t, decoded.Results[0].PriceStats)
	assert.InDelta(t, 169.99, decoded.Results[0].Lowest, 0.001)

	// Products without samples omit the stats block entirely.
	assert.Nil(t, decoded.Results[1].PriceStats)
}

func TestWriteCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.csv")
	require.NoError(t, WriteCSV(path, sampleRun()))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, csvHeader, records[0])
	assert.Equal(t, []string{
		"prod-7", "Fox Lighting", "Fortis NXT 720W", "fortis-nxt-720w",
		"Fox Lighting Fortis NXT 720W", "ok",
		"169.99", "169.99", "179.63", "189.90", "3", "2", "0", "3",
	}, records[1])

	// Absent prices render as empty cells, not zeros.
	assert.Equal(t, "", records[2][7])
	assert.Equal(t, "no_prices_found", records[2][5])
}
