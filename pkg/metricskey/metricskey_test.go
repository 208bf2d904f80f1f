package metricskey

import (
	"sort"
	"testing"

	"github.com/effective-security/metrics"
	"github.com/stretchr/testify/assert"
)

func TestMetricsDefinitions(t *testing.T) {
	for _, m := range Metrics {
		assert.NotEmpty(t, m.Name, "Metric name should not be empty")
		assert.NotEmpty(t, m.Help, "Metric help text should not be empty")
		assert.NotEmpty(t, m.RequiredTags, "Metric should have required tags")
		assert.Contains(t, m.Help, m.Name)
	}

	isSorted := sort.SliceIsSorted(Metrics, func(i, j int) bool {
		return Metrics[i].Name < Metrics[j].Name
	})
	assert.True(t, isSorted, "Metrics slice should be sorted by name")

	seen := make(map[string]bool)
	for _, m := range Metrics {
		assert.False(t, seen[m.Name], "Metric name should be unique: %s", m.Name)
		seen[m.Name] = true
	}
	assert.Len(t, seen, 14)

	t.Run("tool metrics have tool tag", func(t *testing.T) {
		for _, m := range []*metrics.Describe{
			&StatsToolCallsSucceeded,
			&StatsToolCallsFailed,
			&StatsToolCallsNotFound,
			&StatsToolCallsCancelled,
			&PerfToolCall,
			&StatsEndpointCallsSucceeded,
			&StatsEndpointCallsFailed,
			&PerfEndpointCall,
		} {
			assert.Equal(t, []string{"tool"}, m.RequiredTags, m.Name)
		}
	})

	t.Run("model metrics have model tag", func(t *testing.T) {
		for _, m := range []*metrics.Describe{
			&StatsModelCallsSucceeded,
			&StatsModelCallsFailed,
			&PerfModelCall,
		} {
			assert.Equal(t, []string{"model"}, m.RequiredTags, m.Name)
		}
	})

	t.Run("counters and samples", func(t *testing.T) {
		for _, m := range Metrics {
			if m.Name[:4] == "perf" {
				assert.Equal(t, metrics.TypeSample, m.Type, m.Name)
			} else {
				assert.Equal(t, metrics.TypeCounter, m.Type, m.Name)
			}
		}
	})
}
