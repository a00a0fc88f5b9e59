package aggregate

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tunelab/tunestore/internal/dataset"
	"github.com/tunelab/tunestore/internal/models"
	"pgregory.net/rapid"
)

func drawExperiment(rt *rapid.T, label string) *models.Experiment {
	mode := rapid.SampledFrom([]string{"min", "max"}).Draw(rt, label+"_mode")
	meta := fmt.Sprintf(`{"created_at": 1, "metric_mode": %q, "metric_names": ["m"], "entrypoint": "x"}`, mode)
	m, err := models.ParseMetadata([]byte(meta))
	require.NoError(rt, err)

	n := rapid.IntRange(0, 40).Draw(rt, label+"_rows")
	table, err := dataset.NewTable("trial_id", "st_tuner_time", "m")
	require.NoError(rt, err)
	for i := range n {
		tm := rapid.Float64Range(0, 1000).Draw(rt, fmt.Sprintf("%s_time_%d", label, i))
		v := rapid.Float64Range(-1e3, 1e3).Draw(rt, fmt.Sprintf("%s_m_%d", label, i))
		require.NoError(rt, table.AppendRow(dataset.Num(float64(i)), dataset.Num(tm), dataset.Num(v)))
	}
	name := rapid.StringMatching(`[a-z]{1,8}`).Draw(rt, label+"_name")
	return &models.Experiment{Name: name, Metadata: m, Results: table}
}

func TestMerge_RowCountProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		k := rapid.IntRange(0, 5).Draw(rt, "experiments")
		exps := make([]*models.Experiment, k)
		total := 0
		for i := range exps {
			exps[i] = drawExperiment(rt, fmt.Sprintf("e%d", i))
			total += exps[i].Results.Len()
		}

		table, err := Merge(exps)
		require.NoError(rt, err)
		require.Equal(rt, total, table.Len())

		row := 0
		for _, e := range exps {
			for range e.Results.Len() {
				assert.Equal(rt, dataset.Str(e.Name), table.Value(row, models.ColumnExperimentName))
				row++
			}
		}
	})
}

func TestBestConfig_IsExtremalProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		exp := drawExperiment(rt, "e")
		if exp.Results.Len() == 0 {
			return
		}
		mode, err := exp.MetricMode()
		require.NoError(rt, err)

		best, err := BestConfig(exp)
		require.NoError(rt, err)
		bv, ok := best["m"].Float()
		require.True(rt, ok)

		col, _ := exp.Results.Column("m")
		firstBest := -1
		for i, v := range col {
			f, _ := v.Float()
			assert.False(rt, mode.Better(f, bv), "row %d beats the chosen best", i)
			if f == bv && firstBest < 0 {
				firstBest = i
			}
		}
		assert.Equal(rt, dataset.Num(float64(firstBest)), best["trial_id"])
	})
}

func TestTimeSeries_MonotoneProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		exp := drawExperiment(rt, "e")
		mode, err := exp.MetricMode()
		require.NoError(rt, err)

		points, err := TimeSeries(exp, "m")
		require.NoError(rt, err)
		require.Len(rt, points, exp.Results.Len())

		for i := 1; i < len(points); i++ {
			assert.LessOrEqual(rt, points[i-1].Time, points[i].Time)
			assert.False(rt, mode.Better(points[i-1].Best, points[i].Best), "running best regressed at %d", i)
		}
	})
}
