package worthy

import "go.uber.org/zap"

// bellmanFord computes the best cumulative cost from source to every node
// under the supplied measure. It is the classic algorithm with the additive
// monoid abstracted away: distances start at the measure's infinite
// sentinel, the source at its identity, and every edge is relaxed in up to
// |V|-1 full passes, stopping early once a pass performs no update.
//
// Relaxation invariant: for every edge (i → j, w), after relaxation
// distance[j] ≤ distance[i] ⊕ w.
//
// A final pass over all edges checks whether any edge would still improve
// its target. For the multiplicative measure this means a cycle of composed
// rates whose round-trip product is not 1, i.e. the input rates imply an
// arbitrage. Rates harvested from multiple uncoordinated providers
// virtually always contain some inconsistency, so this is reported as a
// warning and the best current distances are returned rather than failing.
func bellmanFord[W any](logger *zap.Logger, g *graph[W], source int, m Measure[W]) (dist []W, inconsistent bool) {
	dist = make([]W, g.order)
	for i := range dist {
		dist[i] = m.Infinite()
	}
	if source < 0 || source >= g.order {
		return dist, false
	}
	dist[source] = m.Zero()

	// scan up to |V| - 1 times.
	for pass := 1; pass < g.order; pass++ {
		didUpdate := false
		for _, e := range g.edges {
			if d := m.Combine(dist[e.src], e.weight); m.Less(d, dist[e.dst]) {
				dist[e.dst] = d
				didUpdate = true
			}
		}
		if !didUpdate {
			break
		}
	}

	for _, e := range g.edges {
		if d := m.Combine(dist[e.src], e.weight); m.Less(d, dist[e.dst]) {
			inconsistent = true
			logger.Warn("rate inconsistency: conversion cycle does not round-trip to 1",
				zap.Int("from", e.src),
				zap.Int("to", e.dst),
				zap.Any("weight", e.weight))
		}
	}

	return dist, inconsistent
}
