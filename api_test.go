package gridastar

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapGraph map[string][]Neighbor[string]

func (g mapGraph) Neighbors(node string) []Neighbor[string] { return g[node] }

func tableHeuristic(h map[string]int) Heuristic[string] {
	return func(from, _ string) int { return h[from] }
}

func TestSearchReexpandsImprovedNodes(t *testing.T) {
	// h overestimates at y, so x is expanded before its cheapest route via y
	// is known and has to be expanded again.
	graph := mapGraph{
		"a": {{ID: "x", Cost: 5}, {ID: "y", Cost: 1}},
		"y": {{ID: "x", Cost: 1}},
		"x": {{ID: "g", Cost: 10}},
	}
	h := tableHeuristic(map[string]int{"y": 10})

	result, err := Search[string](context.Background(), graph, "a", "g", h)
	require.NoError(t, err)
	assert.True(t, result.Found)
	assert.Equal(t, []string{"a", "y", "x", "g"}, result.Path)
	assert.Equal(t, 12, result.TotalCost)
	assert.Equal(t, 4, result.ExpandedNodes)
}

func TestSearchNotFound(t *testing.T) {
	graph := mapGraph{"a": {{ID: "b", Cost: 1}}}
	result, err := Search[string](context.Background(), graph, "a", "z", tableHeuristic(nil))
	require.NoError(t, err)
	assert.False(t, result.Found)
	assert.Nil(t, result.Path)
	assert.Equal(t, 2, result.ExpandedNodes)
}

func TestSearchRejectsNonPositiveCost(t *testing.T) {
	graph := mapGraph{"a": {{ID: "b", Cost: 0}}}
	_, err := Search[string](context.Background(), graph, "a", "b", tableHeuristic(nil))
	assert.ErrorIs(t, err, ErrNonPositiveCost)
}

func TestSearchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	graph := mapGraph{"a": {{ID: "b", Cost: 1}}}
	_, err := Search[string](ctx, graph, "a", "b", tableHeuristic(nil))
	assert.ErrorIs(t, err, context.Canceled)
}
