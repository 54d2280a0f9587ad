// Package topology holds the service-dependency graph used for
// topology-aware localization scoring. Nodes are service names; edges are
// undirected unit-weight call relationships captured from a tracing snapshot.
package topology

// Graph is an undirected graph of service call relationships.
type Graph struct {
	adj       map[string]map[string]struct{}
	edgeCount int
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{adj: make(map[string]map[string]struct{})}
}

// AddEdge inserts an undirected edge between u and v. Self-loops and
// duplicate edges are ignored.
func (g *Graph) AddEdge(u, v string) {
	if u == "" || v == "" || u == v {
		return
	}
	if _, ok := g.adj[u][v]; ok {
		return
	}
	if g.adj[u] == nil {
		g.adj[u] = make(map[string]struct{})
	}
	if g.adj[v] == nil {
		g.adj[v] = make(map[string]struct{})
	}
	g.adj[u][v] = struct{}{}
	g.adj[v][u] = struct{}{}
	g.edgeCount++
}

// HasNode reports whether the service appears in the graph.
func (g *Graph) HasNode(name string) bool {
	_, ok := g.adj[name]
	return ok
}

// Degree returns the number of neighbors of the service, 0 if absent.
func (g *Graph) Degree(name string) int {
	return len(g.adj[name])
}

// EdgeCount returns the number of undirected edges.
func (g *Graph) EdgeCount() int {
	return g.edgeCount
}

// NodeCount returns the number of services.
func (g *Graph) NodeCount() int {
	return len(g.adj)
}

// Nodes returns all service names in no particular order.
func (g *Graph) Nodes() []string {
	names := make([]string, 0, len(g.adj))
	for n := range g.adj {
		names = append(names, n)
	}
	return names
}

// AllPairsShortestPaths computes hop-count distances between every pair of
// connected services. Unit edge weights make BFS equivalent to Dijkstra
// here. Unreachable pairs are absent from the result.
func (g *Graph) AllPairsShortestPaths() map[string]map[string]int {
	dist := make(map[string]map[string]int, len(g.adj))
	for src := range g.adj {
		dist[src] = g.bfsFrom(src)
	}
	return dist
}

func (g *Graph) bfsFrom(src string) map[string]int {
	d := map[string]int{src: 0}
	queue := []string{src}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for next := range g.adj[cur] {
			if _, seen := d[next]; seen {
				continue
			}
			d[next] = d[cur] + 1
			queue = append(queue, next)
		}
	}
	return d
}
