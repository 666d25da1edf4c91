// Package testutil provides deterministic graph-topology fixture generators
// for the PPR engine's unit and property-based tests: chains, stars,
// diamonds, cycles, trees, disconnected components, dense/random graphs,
// bipartite graphs, ladders, and dangling-heavy graphs. All generators
// produce byte-identical output for a given seed, so tests built on them are
// reproducible.
package testutil

import (
	"fmt"
	"math/rand"

	"github.com/kestrelsec/fraudppr/pkg/idmap"
)

// GraphFixture represents an abstract graph topology for testing. Edges are
// [from_idx, to_idx] pairs over Nodes; Nodes are human-readable labels, not
// yet the arbitrary integer NodeIds the engine ingests (see ToRawEdges).
type GraphFixture struct {
	Description string     `json:"description"`
	Nodes       []string   `json:"nodes"`
	Edges       [][2]int   `json:"edges"`
	Properties  Properties `json:"properties,omitempty"`
}

// Properties holds optional metadata about the fixture.
type Properties struct {
	HasCycles     bool `json:"has_cycles,omitempty"`
	IsConnected   bool `json:"is_connected,omitempty"`
	ExpectedDepth int  `json:"expected_depth,omitempty"`
}

// GeneratorConfig controls fixture generation.
type GeneratorConfig struct {
	Seed int64 // Random seed for determinism (0 = fixed fallback seed 42)
	// IDOffset is added to every node's GraphFixture index to produce its
	// NodeId in ToRawEdges, letting tests exercise sparse, non-zero-based
	// IDs (spec.md §4.1's "arbitrary integer node IDs") without changing
	// the topology generators themselves.
	IDOffset int64
	// IDStride multiplies each node's index before IDOffset is added,
	// producing sparse IDs (e.g. stride 1000 gives NodeIds 0, 1000, 2000...).
	// 0 or 1 means contiguous IDs.
	IDStride int64
	// WeightMin/WeightMax bound the uniform edge weight range used by
	// ToRawEdges when no explicit weight function is supplied. Equal bounds
	// (the default, 1/1) produce a uniformly weighted graph.
	WeightMin float64
	WeightMax float64
}

// DefaultConfig returns a config suitable for most tests: deterministic
// seed, contiguous zero-based IDs, uniform unit edge weights.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Seed:      42,
		IDStride:  1,
		WeightMin: 1,
		WeightMax: 1,
	}
}

// Generator creates test fixtures with various topologies.
type Generator struct {
	cfg GeneratorConfig
	rng *rand.Rand
}

// New creates a Generator with the given config.
func New(cfg GeneratorConfig) *Generator {
	seed := cfg.Seed
	if seed == 0 {
		seed = 42
	}
	if cfg.IDStride == 0 {
		cfg.IDStride = 1
	}
	if cfg.WeightMin == 0 && cfg.WeightMax == 0 {
		cfg.WeightMin, cfg.WeightMax = 1, 1
	}
	return &Generator{
		cfg: cfg,
		rng: rand.New(rand.NewSource(seed)),
	}
}

// NewDefault creates a Generator with default config.
func NewDefault() *Generator {
	return New(DefaultConfig())
}

// ============================================================================
// Graph Topology Generators
// ============================================================================

// Chain creates a linear chain: n0 <- n1 <- n2 <- ... <- n{size-1}
// In dependency terms: n1 depends on n0, n2 depends on n1, etc.
// n0 is the root (no dependencies), n{size-1} is the leaf (depends on n{size-2})
// Properties: DAG, depth = size-1, single path
func (g *Generator) Chain(size int) GraphFixture {
	nodes := make([]string, size)
	edges := make([][2]int, 0, size-1)

	for i := 0; i < size; i++ {
		nodes[i] = fmt.Sprintf("n%d", i)
		if i > 0 {
			// Edge [i, i-1] means node i depends on node i-1
			edges = append(edges, [2]int{i, i - 1})
		}
	}

	return GraphFixture{
		Description: fmt.Sprintf("Linear chain of %d nodes: n0 <- n1 <- ... <- n%d", size, size-1),
		Nodes:       nodes,
		Edges:       edges,
		Properties: Properties{
			HasCycles:     false,
			IsConnected:   true,
			ExpectedDepth: size - 1,
		},
	}
}

// Star creates a star topology with a central hub.
// Direction: spokes point TO hub (hub is the dependency)
// Properties: DAG, depth = 1, hub is authority
func (g *Generator) Star(spokes int) GraphFixture {
	size := spokes + 1
	nodes := make([]string, size)
	edges := make([][2]int, spokes)

	nodes[0] = "hub"
	for i := 1; i < size; i++ {
		nodes[i] = fmt.Sprintf("spoke%d", i)
		edges[i-1] = [2]int{i, 0} // spoke -> hub (spoke depends on hub)
	}

	return GraphFixture{
		Description: fmt.Sprintf("Star with hub and %d spokes; spokes depend on hub", spokes),
		Nodes:       nodes,
		Edges:       edges,
		Properties: Properties{
			HasCycles:     false,
			IsConnected:   true,
			ExpectedDepth: 1,
		},
	}
}

// ReverseStar creates a star where hub points to all spokes.
// Direction: hub points TO spokes (spokes are dependencies)
// Properties: DAG, depth = 1, hub is hub (aggregator)
func (g *Generator) ReverseStar(spokes int) GraphFixture {
	size := spokes + 1
	nodes := make([]string, size)
	edges := make([][2]int, spokes)

	nodes[0] = "hub"
	for i := 1; i < size; i++ {
		nodes[i] = fmt.Sprintf("spoke%d", i)
		edges[i-1] = [2]int{0, i} // hub -> spoke (hub depends on spoke)
	}

	return GraphFixture{
		Description: fmt.Sprintf("Reverse star with hub depending on %d spokes", spokes),
		Nodes:       nodes,
		Edges:       edges,
		Properties: Properties{
			HasCycles:     false,
			IsConnected:   true,
			ExpectedDepth: 1,
		},
	}
}

// Diamond creates a diamond dependency pattern.
// Shape: top -> left, top -> right, left -> bottom, right -> bottom
// Generalized: top connects to `width` middle nodes, all connect to bottom
func (g *Generator) Diamond(width int) GraphFixture {
	if width < 1 {
		width = 1
	}

	size := width + 2 // top + middle nodes + bottom
	nodes := make([]string, size)
	edges := make([][2]int, 0, width*2)

	nodes[0] = "top"
	nodes[size-1] = "bottom"

	for i := 1; i <= width; i++ {
		nodes[i] = fmt.Sprintf("mid%d", i)
		edges = append(edges, [2]int{0, i})        // top -> mid
		edges = append(edges, [2]int{i, size - 1}) // mid -> bottom
	}

	return GraphFixture{
		Description: fmt.Sprintf("Diamond with %d middle nodes: top -> mid1..mid%d -> bottom", width, width),
		Nodes:       nodes,
		Edges:       edges,
		Properties: Properties{
			HasCycles:     false,
			IsConnected:   true,
			ExpectedDepth: 2,
		},
	}
}

// Cycle creates a circular dependency (invalid DAG).
// Shape: n0 -> n1 -> n2 -> ... -> n{size-1} -> n0
func (g *Generator) Cycle(size int) GraphFixture {
	nodes := make([]string, size)
	edges := make([][2]int, size)

	for i := 0; i < size; i++ {
		nodes[i] = fmt.Sprintf("n%d", i)
		edges[i] = [2]int{i, (i + 1) % size}
	}

	return GraphFixture{
		Description: fmt.Sprintf("Cycle of %d nodes: n0 -> n1 -> ... -> n%d -> n0", size, size-1),
		Nodes:       nodes,
		Edges:       edges,
		Properties: Properties{
			HasCycles:   true,
			IsConnected: true,
		},
	}
}

// SelfLoop creates a single node with a self-referential edge.
func (g *Generator) SelfLoop() GraphFixture {
	return GraphFixture{
		Description: "Single node with self-loop",
		Nodes:       []string{"n0"},
		Edges:       [][2]int{{0, 0}},
		Properties: Properties{
			HasCycles:   true,
			IsConnected: true,
		},
	}
}

// Tree creates a tree with given depth and branching factor.
// Each non-leaf node has `breadth` children.
func (g *Generator) Tree(depth, breadth int) GraphFixture {
	if depth < 1 {
		depth = 1
	}
	if breadth < 1 {
		breadth = 1
	}

	var nodes []string
	var edges [][2]int

	// BFS-style generation
	nodeID := 0
	nodes = append(nodes, fmt.Sprintf("n%d", nodeID))
	nodeID++

	// Track nodes at each level
	currentLevel := []int{0}

	for d := 0; d < depth; d++ {
		var nextLevel []int
		for _, parent := range currentLevel {
			for b := 0; b < breadth; b++ {
				child := nodeID
				nodes = append(nodes, fmt.Sprintf("n%d", child))
				edges = append(edges, [2]int{parent, child})
				nextLevel = append(nextLevel, child)
				nodeID++
			}
		}
		currentLevel = nextLevel
	}

	return GraphFixture{
		Description: fmt.Sprintf("Tree with depth=%d, breadth=%d (%d nodes)", depth, breadth, len(nodes)),
		Nodes:       nodes,
		Edges:       edges,
		Properties: Properties{
			HasCycles:     false,
			IsConnected:   true,
			ExpectedDepth: depth,
		},
	}
}

// Disconnected creates multiple isolated components.
// Each component is a small chain of `componentSize` nodes.
func (g *Generator) Disconnected(components, componentSize int) GraphFixture {
	var nodes []string
	var edges [][2]int

	nodeID := 0
	for c := 0; c < components; c++ {
		componentStart := nodeID
		for i := 0; i < componentSize; i++ {
			nodes = append(nodes, fmt.Sprintf("c%d_n%d", c, i))
			if i > 0 {
				edges = append(edges, [2]int{nodeID - 1, nodeID})
			}
			nodeID++
		}
		_ = componentStart // Start of each component
	}

	return GraphFixture{
		Description: fmt.Sprintf("%d disconnected components, each a chain of %d nodes", components, componentSize),
		Nodes:       nodes,
		Edges:       edges,
		Properties: Properties{
			HasCycles:     false,
			IsConnected:   false,
			ExpectedDepth: componentSize - 1,
		},
	}
}

// Complete creates a complete DAG where every earlier node points to every later node.
// This is a dense graph with n*(n-1)/2 edges.
func (g *Generator) Complete(size int) GraphFixture {
	nodes := make([]string, size)
	edges := make([][2]int, 0, size*(size-1)/2)

	for i := 0; i < size; i++ {
		nodes[i] = fmt.Sprintf("n%d", i)
		for j := i + 1; j < size; j++ {
			edges = append(edges, [2]int{i, j})
		}
	}

	return GraphFixture{
		Description: fmt.Sprintf("Complete DAG with %d nodes (%d edges)", size, len(edges)),
		Nodes:       nodes,
		Edges:       edges,
		Properties: Properties{
			HasCycles:     false,
			IsConnected:   true,
			ExpectedDepth: size - 1,
		},
	}
}

// RandomDAG creates a random directed acyclic graph.
// density is the probability of an edge existing (0.0 to 1.0).
func (g *Generator) RandomDAG(size int, density float64) GraphFixture {
	if density < 0 {
		density = 0
	}
	if density > 1 {
		density = 1
	}

	nodes := make([]string, size)
	var edges [][2]int

	for i := 0; i < size; i++ {
		nodes[i] = fmt.Sprintf("n%d", i)
	}

	// Only add edges from lower index to higher index to ensure DAG
	for i := 0; i < size; i++ {
		for j := i + 1; j < size; j++ {
			if g.rng.Float64() < density {
				edges = append(edges, [2]int{i, j})
			}
		}
	}

	return GraphFixture{
		Description: fmt.Sprintf("Random DAG with %d nodes, density=%.2f (%d edges)", size, density, len(edges)),
		Nodes:       nodes,
		Edges:       edges,
		Properties: Properties{
			HasCycles:   false,
			IsConnected: false, // May or may not be connected
		},
	}
}

// Bipartite creates a bipartite graph with left nodes depending on right nodes.
func (g *Generator) Bipartite(leftSize, rightSize int) GraphFixture {
	nodes := make([]string, leftSize+rightSize)
	var edges [][2]int

	// Left nodes
	for i := 0; i < leftSize; i++ {
		nodes[i] = fmt.Sprintf("L%d", i)
	}
	// Right nodes
	for i := 0; i < rightSize; i++ {
		nodes[leftSize+i] = fmt.Sprintf("R%d", i)
	}
	// All left nodes depend on all right nodes
	for i := 0; i < leftSize; i++ {
		for j := 0; j < rightSize; j++ {
			edges = append(edges, [2]int{i, leftSize + j})
		}
	}

	return GraphFixture{
		Description: fmt.Sprintf("Bipartite graph: %d left nodes each depend on %d right nodes", leftSize, rightSize),
		Nodes:       nodes,
		Edges:       edges,
		Properties: Properties{
			HasCycles:     false,
			IsConnected:   leftSize > 0 && rightSize > 0,
			ExpectedDepth: 1,
		},
	}
}

// Ladder creates a ladder-like structure with two parallel chains connected by rungs.
func (g *Generator) Ladder(length int) GraphFixture {
	if length < 1 {
		length = 1
	}

	nodes := make([]string, length*2)
	var edges [][2]int

	// Create two parallel chains
	for i := 0; i < length; i++ {
		nodes[i] = fmt.Sprintf("A%d", i)
		nodes[length+i] = fmt.Sprintf("B%d", i)

		// Chain edges
		if i > 0 {
			edges = append(edges, [2]int{i - 1, i})                   // A chain
			edges = append(edges, [2]int{length + i - 1, length + i}) // B chain
		}
		// Rung edges (A depends on B at same level)
		edges = append(edges, [2]int{i, length + i})
	}

	return GraphFixture{
		Description: fmt.Sprintf("Ladder with %d rungs: two parallel chains A0..A%d and B0..B%d", length, length-1, length-1),
		Nodes:       nodes,
		Edges:       edges,
		Properties: Properties{
			HasCycles:     false,
			IsConnected:   true,
			ExpectedDepth: length,
		},
	}
}

// DanglingHeavy creates a graph where most nodes are dangling (zero
// out-degree): a small "hub" set points to every other node, and only the
// hub nodes have outgoing edges. This exercises the dangling-mass
// redistribution path (spec.md §4.4) heavily, since the vast majority of
// random-walk mass lands on nodes with nowhere to go.
func (g *Generator) DanglingHeavy(size, hubCount int) GraphFixture {
	if hubCount < 1 {
		hubCount = 1
	}
	if hubCount > size {
		hubCount = size
	}

	nodes := make([]string, size)
	var edges [][2]int
	for i := 0; i < size; i++ {
		nodes[i] = fmt.Sprintf("n%d", i)
	}
	for h := 0; h < hubCount; h++ {
		for i := hubCount; i < size; i++ {
			edges = append(edges, [2]int{h, i})
		}
	}

	return GraphFixture{
		Description: fmt.Sprintf("Dangling-heavy graph: %d hub nodes point to %d dangling nodes", hubCount, size-hubCount),
		Nodes:       nodes,
		Edges:       edges,
		Properties: Properties{
			HasCycles:   false,
			IsConnected: hubCount > 0 && size > hubCount,
		},
	}
}

// ============================================================================
// Edge-triple conversion
// ============================================================================

// ToRawEdges converts a GraphFixture's index-addressed edges into the
// engine's ingestion shape: idmap.RawEdge triples addressed by arbitrary
// NodeId, per cfg's IDOffset/IDStride. Edge weights are drawn uniformly from
// [WeightMin, WeightMax]; a zero-width range (the default) yields a
// uniformly weighted graph.
func (g *Generator) ToRawEdges(gf GraphFixture) []idmap.RawEdge {
	edges := make([]idmap.RawEdge, len(gf.Edges))
	for i, e := range gf.Edges {
		edges[i] = idmap.RawEdge{
			Src:    g.nodeID(e[0]),
			Dst:    g.nodeID(e[1]),
			Weight: g.nextWeight(),
		}
	}
	return edges
}

// NodeIDs returns the original NodeId every GraphFixture node index maps to
// under cfg's IDOffset/IDStride, in node-index order — useful for tests that
// need to name a seed or assert on a specific node's score by its original
// ID rather than its fixture index.
func (g *Generator) NodeIDs(gf GraphFixture) []int64 {
	ids := make([]int64, len(gf.Nodes))
	for i := range gf.Nodes {
		ids[i] = g.nodeID(i)
	}
	return ids
}

func (g *Generator) nodeID(idx int) int64 {
	return int64(idx)*g.cfg.IDStride + g.cfg.IDOffset
}

func (g *Generator) nextWeight() float64 {
	if g.cfg.WeightMin == g.cfg.WeightMax {
		return g.cfg.WeightMin
	}
	return g.cfg.WeightMin + g.rng.Float64()*(g.cfg.WeightMax-g.cfg.WeightMin)
}

// ============================================================================
// Convenience functions: default-config topology -> raw edges
// ============================================================================

// QuickChain creates a chain fixture's raw edges with default settings.
func QuickChain(size int) []idmap.RawEdge {
	gen := NewDefault()
	return gen.ToRawEdges(gen.Chain(size))
}

// QuickStar creates a star fixture's raw edges with default settings.
func QuickStar(spokes int) []idmap.RawEdge {
	gen := NewDefault()
	return gen.ToRawEdges(gen.Star(spokes))
}

// QuickDiamond creates a diamond fixture's raw edges with default settings.
func QuickDiamond(width int) []idmap.RawEdge {
	gen := NewDefault()
	return gen.ToRawEdges(gen.Diamond(width))
}

// QuickCycle creates a cycle fixture's raw edges with default settings.
func QuickCycle(size int) []idmap.RawEdge {
	gen := NewDefault()
	return gen.ToRawEdges(gen.Cycle(size))
}

// QuickTree creates a tree fixture's raw edges with default settings.
func QuickTree(depth, breadth int) []idmap.RawEdge {
	gen := NewDefault()
	return gen.ToRawEdges(gen.Tree(depth, breadth))
}

// QuickDisconnected creates disconnected components' raw edges with default settings.
func QuickDisconnected(components, size int) []idmap.RawEdge {
	gen := NewDefault()
	return gen.ToRawEdges(gen.Disconnected(components, size))
}

// QuickRandom creates a random DAG's raw edges with default settings.
func QuickRandom(size int, density float64) []idmap.RawEdge {
	gen := NewDefault()
	return gen.ToRawEdges(gen.RandomDAG(size, density))
}

// QuickDanglingHeavy creates a dangling-heavy graph's raw edges with default settings.
func QuickDanglingHeavy(size, hubCount int) []idmap.RawEdge {
	gen := NewDefault()
	return gen.ToRawEdges(gen.DanglingHeavy(size, hubCount))
}

// Empty returns an empty edge slice for edge-case testing (exercises
// apperr.ErrEmptyGraph in pkg/idmap).
func Empty() []idmap.RawEdge {
	return []idmap.RawEdge{}
}

// Single returns a single self-loop edge, the smallest non-empty graph.
func Single() []idmap.RawEdge {
	return []idmap.RawEdge{{Src: 0, Dst: 0, Weight: 1}}
}
