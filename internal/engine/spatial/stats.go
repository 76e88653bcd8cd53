package spatial

// Stats is a snapshot of a tree's shape, used for debug overlays and the
// simulator's JSON report.
type Stats struct {
	Kind          string `json:"kind"`
	Nodes         int    `json:"nodes"`
	Leaves        int    `json:"leaves"`
	Depth         int    `json:"depth"`
	Primitives    int    `json:"primitives"`
	PerDepth      []int  `json:"per_depth"`
	PendingMerges int    `json:"pending_merges"`
}

// CollectStats fills the node counters of a Stats from a tree walk.
func CollectStats(kind string, walk func(fn func(NodeInfo) bool)) Stats {
	s := Stats{Kind: kind}
	walk(func(n NodeInfo) bool {
		s.Nodes++
		if n.Leaf {
			s.Leaves++
		}
		if n.Depth > s.Depth {
			s.Depth = n.Depth
		}
		for len(s.PerDepth) <= n.Depth {
			s.PerDepth = append(s.PerDepth, 0)
		}
		s.PerDepth[n.Depth] += n.Primitives
		s.Primitives += n.Primitives
		return true
	})
	return s
}
