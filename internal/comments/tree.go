package comments

import "github.com/mr1hm/go-safety-feed/internal/models"

// MaxDisplayDepth is the deepest indentation level rendered. Deeper replies
// keep their real depth but display at this level.
const MaxDisplayDepth = 3

type Node struct {
	models.Comment
	Depth        int     `json:"depth"`
	DisplayDepth int     `json:"displayDepth"`
	Replies      []*Node `json:"replies"`
}

// BuildTree assembles a flat comment list into threads. Comments whose
// parent is missing, and comments caught in a parent cycle, become roots.
// Siblings keep their input order.
func BuildTree(flat []models.Comment) []*Node {
	nodes := make(map[string]*Node, len(flat))
	order := make([]*Node, 0, len(flat))
	for _, c := range flat {
		if _, dup := nodes[c.ID]; dup {
			continue
		}
		n := &Node{Comment: c, Replies: []*Node{}}
		nodes[c.ID] = n
		order = append(order, n)
	}

	cyclic := cycleMembers(order, nodes)

	var roots []*Node
	for _, n := range order {
		parent := parentOf(n, nodes)
		if parent == nil || cyclic[n] {
			roots = append(roots, n)
			continue
		}
		parent.Replies = append(parent.Replies, n)
	}

	for _, r := range roots {
		setDepth(r, 0)
	}
	return roots
}

func parentOf(n *Node, nodes map[string]*Node) *Node {
	if n.ParentCommentID == nil || *n.ParentCommentID == n.ID {
		return nil
	}
	return nodes[*n.ParentCommentID]
}

const (
	unvisited = iota
	visiting
	done
)

// cycleMembers marks the nodes that sit on a parent cycle. Each node is
// walked once; a chain stops at the first node already coloured.
func cycleMembers(order []*Node, nodes map[string]*Node) map[*Node]bool {
	state := make(map[*Node]int, len(order))
	cyclic := make(map[*Node]bool)

	for _, n := range order {
		var path []*Node
		p := n
		for p != nil && state[p] == unvisited {
			state[p] = visiting
			path = append(path, p)
			p = parentOf(p, nodes)
		}

		// Reaching a node still on this path closes a cycle back to it.
		if p != nil && state[p] == visiting {
			for i := len(path) - 1; i >= 0; i-- {
				cyclic[path[i]] = true
				if path[i] == p {
					break
				}
			}
		}
		for _, v := range path {
			state[v] = done
		}
	}
	return cyclic
}

func setDepth(n *Node, depth int) {
	n.Depth = depth
	n.DisplayDepth = min(depth, MaxDisplayDepth)
	for _, r := range n.Replies {
		setDepth(r, depth+1)
	}
}

// Count returns the number of comments in the forest.
func Count(roots []*Node) int {
	total := 0
	for _, r := range roots {
		total += 1 + Count(r.Replies)
	}
	return total
}
