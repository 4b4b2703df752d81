package spantree

import (
	"math"
	"sort"
	"time"

	"fortio.org/safecast"
)

// Node is a finished span, or several same-named sibling spans merged into one.
type Node struct {
	Name     string
	Count    uint32        // spans folded into this node, at least 1
	Duration time.Duration // summed over every folded span
	Children []*Node       // closing order until aggregated
}

// MergeInto folds n into other. Both nodes must carry the same name; this is
// not checked. other's children stay first, n's children follow.
func (n *Node) MergeInto(other *Node) {
	other.Duration += n.Duration
	other.Count = addCount(other.Count, n.Count)
	other.Children = append(other.Children, n.Children...)
}

// addCount saturates instead of wrapping around.
func addCount(a, b uint32) uint32 {
	sum, err := safecast.Conv[uint32](uint64(a) + uint64(b))
	if err != nil {
		return math.MaxUint32
	}
	return sum
}

// Aggregate merges same-named children of n, then recurses into what is left.
//
// Children are sorted by name first, so aggregation does not preserve closing
// order. When three or more siblings merge, the survivor's children list is the
// concatenation of each member's children in sorted order; callers should not
// rely on that order.
func (n *Node) Aggregate() {
	if len(n.Children) == 0 {
		return
	}

	sort.SliceStable(n.Children, func(i, j int) bool {
		return n.Children[i].Name < n.Children[j].Name
	})

	idx := 0
	for i := 1; i < len(n.Children); i++ {
		if n.Children[idx].Name == n.Children[i].Name {
			n.Children[i].MergeInto(n.Children[idx])
			continue
		}
		idx++
		n.Children[idx] = n.Children[i]
	}
	clear(n.Children[idx+1:])
	n.Children = n.Children[:idx+1]

	for _, child := range n.Children {
		child.Aggregate()
	}
}
