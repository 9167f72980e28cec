package impact

import (
	"fmt"
	"math/rand"
	"testing"

	"IndexImpact/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankPriceWeightedScenario(t *testing.T) {
	rows := Rank([]Row{
		{Identifier: "B", Price: 50, ReturnPct: -4, WeightPct: 100.0 / 3},
		{Identifier: "A", Price: 100, ReturnPct: 2, WeightPct: 200.0 / 3},
	})
	require.Len(t, rows, 2)
	assert.Equal(t, models.Identifier("A"), rows[0].Identifier)
	assert.InDelta(t, 1.3333, rows[0].ImpactPct, 1e-4)
	assert.Equal(t, models.DirectionPositive, rows[0].Direction)
	assert.InDelta(t, -1.3333, rows[1].ImpactPct, 1e-4)
	assert.Equal(t, models.DirectionNegative, rows[1].Direction)
	assert.InDelta(t, 0, Contribution(rows), 1e-9)
}

func TestRankEmpty(t *testing.T) {
	rows := Rank(nil)
	require.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestRankTiesBrokenByIdentifier(t *testing.T) {
	rows := Rank([]Row{
		{Identifier: "MSFT", ReturnPct: 0, WeightPct: 10},
		{Identifier: "AAPL", ReturnPct: 1, WeightPct: 10},
		{Identifier: "AMZN", ReturnPct: 0, WeightPct: 30},
		{Identifier: "ABNB", ReturnPct: 2, WeightPct: 5},
	})
	got := make([]models.Identifier, len(rows))
	for i, r := range rows {
		got[i] = r.Identifier
	}
	assert.Equal(t, []models.Identifier{"AAPL", "ABNB", "AMZN", "MSFT"}, got)
	assert.Equal(t, models.DirectionFlat, rows[2].Direction)
}

func TestRankDeterministicAndSigned(t *testing.T) {
	r := rand.New(rand.NewSource(5))
	in := make([]Row, 50)
	for i := range in {
		in[i] = Row{
			Identifier: models.Identifier(fmt.Sprintf("S%02d", i)),
			ReturnPct:  float64(r.Intn(11) - 5),
			WeightPct:  float64(r.Intn(4)),
		}
	}
	first := Rank(in)
	for i := range in {
		j := r.Intn(i + 1)
		in[i], in[j] = in[j], in[i]
	}
	second := Rank(in)
	assert.Equal(t, first, second)

	for i, row := range first {
		product := row.WeightPct * row.ReturnPct
		assert.Equal(t, product > 0, row.Direction == models.DirectionPositive, row.Identifier)
		assert.Equal(t, product < 0, row.Direction == models.DirectionNegative, row.Identifier)
		if i > 0 {
			assert.GreaterOrEqual(t, first[i-1].ImpactPct, row.ImpactPct)
		}
	}
}

func TestLeadersAndLaggards(t *testing.T) {
	rows := Rank([]Row{
		{Identifier: "A", ReturnPct: 3, WeightPct: 10},
		{Identifier: "B", ReturnPct: 1, WeightPct: 10},
		{Identifier: "C", ReturnPct: 0, WeightPct: 10},
		{Identifier: "D", ReturnPct: -1, WeightPct: 10},
		{Identifier: "E", ReturnPct: -5, WeightPct: 10},
	})
	leaders := Leaders(rows, 1)
	require.Len(t, leaders, 1)
	assert.Equal(t, models.Identifier("A"), leaders[0].Identifier)

	laggards := Laggards(rows, 0)
	require.Len(t, laggards, 2)
	assert.Equal(t, models.Identifier("E"), laggards[0].Identifier)
	assert.Equal(t, models.Identifier("D"), laggards[1].Identifier)

	assert.Len(t, Top(rows, 3), 3)
	assert.Len(t, Top(rows, 0), 5)
}
