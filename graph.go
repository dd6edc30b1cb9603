package worthy

import "github.com/shopspring/decimal"

// graph is the minimal structure the solver needs: a node count and a flat
// edge list. Nodes are dense integer indices, so the relaxation loop is a
// plain slice scan with no pointer chasing.
type graph[W any] struct {
	order int
	edges []edge[W]
}

type edge[W any] struct {
	src, dst int
	weight   W
}

func (g *graph[W]) addEdge(src, dst int, weight W) {
	g.edges = append(g.edges, edge[W]{src: src, dst: dst, weight: weight})
}

// reciprocalPrecision bounds the decimal division producing synthetic
// reverse edges. 28 fractional digits keeps round-trip error far below
// anything a rate provider can resolve.
const reciprocalPrecision = 28

// conversionGraph is the ephemeral graph for one valuation call: the node
// space is the set of distinct denominations touched by any observation,
// with a side table mapping each denomination to its index. It is rebuilt
// fresh on every call and owns no cross-call state.
type conversionGraph struct {
	graph[Weight]
	nodes []Denomination
	index map[Denomination]int
}

// newConversionGraph builds the conversion graph from rate observations.
// Each observation contributes one edge to→from weighted by the rate and
// one synthetic reverse edge from→to weighted by its reciprocal. Edges
// point base-ward: the solver computes cost from the source, and the
// desired output is "value of one unit of X expressed in base", which
// composes along edges oriented toward the base. Parallel observations for
// the same pair are all kept; relaxation picks the best one.
//
// An empty observation list yields a graph with zero nodes and zero edges,
// which is valid input, not a fault.
func newConversionGraph(rates []ExchangeRate) *conversionGraph {
	g := &conversionGraph{index: make(map[Denomination]int)}
	for _, r := range rates {
		g.node(r.From)
		g.node(r.To)
	}
	one := decimal.NewFromInt(1)
	for _, r := range rates {
		g.addEdge(g.index[r.To], g.index[r.From], Finite(r.Rate))
		g.addEdge(g.index[r.From], g.index[r.To], Finite(one.DivRound(r.Rate, reciprocalPrecision)))
	}
	return g
}

// node interns a denomination, returning its dense index.
func (g *conversionGraph) node(d Denomination) int {
	if i, ok := g.index[d]; ok {
		return i
	}
	i := len(g.nodes)
	g.nodes = append(g.nodes, d)
	g.index[d] = i
	g.order = len(g.nodes)
	return i
}
