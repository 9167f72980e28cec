package main

import (
	"bytes"
	"testing"
	"time"

	"IndexImpact/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteTable(t *testing.T) {
	r := &models.Report{
		GeneratedAt: time.Now(),
		Indices: []models.IndexReport{{
			Name:         "DJIA",
			Regime:       models.RegimePrice,
			Contribution: 0.25,
			Coverage:     models.Coverage{Expected: 2, Resolved: 2, Weighted: 2},
			Rows: []models.WeightedRow{
				{Identifier: "AAPL", Price: 190, ReturnPct: 1, WeightPct: 50, ImpactPct: 0.5},
				{Identifier: "IBM", Price: 180, ReturnPct: -0.5, WeightPct: 50, ImpactPct: -0.25, Fallback: true},
			},
		}},
	}

	var buf bytes.Buffer
	require.NoError(t, writeTable(&buf, r))

	out := buf.String()
	assert.Contains(t, out, "DJIA (price)")
	assert.Contains(t, out, "resolved 2/2")
	assert.Contains(t, out, "AAPL")
	assert.Contains(t, out, "IBM*")
	assert.Contains(t, out, "+0.5000")
}
