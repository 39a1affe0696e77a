package genre

import (
	"strings"
)

// Option is one entry of a nested genre dropdown.
type Option struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Label string `json:"label"` // Name indented two spaces per level
	Path  string `json:"path"`
	Level int    `json:"level"`
}

// Flatten lists every node depth-first in display order, parents before children.
func (t *Tree) Flatten() []Option {
	out := make([]Option, 0, len(t.nodes))
	t.Walk(func(n *Node) bool {
		out = append(out, Option{
			ID:    n.ID,
			Name:  n.Name,
			Label: strings.Repeat("  ", n.Level) + n.Name,
			Path:  n.Path,
			Level: n.Level,
		})
		return true
	})
	return out
}

// Walk visits nodes depth-first in display order. Returning false from fn skips
// the node's subtree.
func (t *Tree) Walk(fn func(*Node) bool) {
	var visit func(nodes []*Node)
	visit = func(nodes []*Node) {
		for _, n := range nodes {
			if fn(n) {
				visit(n.Children)
			}
		}
	}
	visit(t.TopLevel)
}

// Search returns nodes whose name or path contains query, in display order.
// Matching ignores case and diacritics, so "elec" finds "Électro".
// An empty query matches nothing.
func (t *Tree) Search(query string) []*Node {
	q := Fold(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	var out []*Node
	t.Walk(func(n *Node) bool {
		if strings.Contains(Fold(n.Name), q) || strings.Contains(Fold(n.Path), q) {
			out = append(out, n)
		}
		return true
	})
	return out
}

// Descendants returns id followed by the IDs of every node below it, in display
// order. It returns nil for an unknown id.
func (t *Tree) Descendants(id string) []string {
	root, ok := t.ByID[id]
	if !ok {
		return nil
	}

	out := []string{root.ID}
	var visit func(n *Node)
	visit = func(n *Node) {
		for _, c := range n.Children {
			out = append(out, c.ID)
			visit(c)
		}
	}
	visit(root)
	return out
}

// Ancestors returns the chain above id, root first. Roots and unknown IDs yield nil.
func (t *Tree) Ancestors(id string) []*Node {
	n, ok := t.ByID[id]
	if !ok {
		return nil
	}

	var chain []*Node
	for p := n.Parent; p != nil; p = p.Parent {
		chain = append(chain, p)
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// Expand returns the union of Descendants for each id, without duplicates and
// in first-seen order. Unknown IDs are dropped.
func (t *Tree) Expand(ids []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, id := range ids {
		for _, d := range t.Descendants(id) {
			if !seen[d] {
				seen[d] = true
				out = append(out, d)
			}
		}
	}
	return out
}
