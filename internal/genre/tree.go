package genre

import (
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/stagepass/stagepass-server/internal/domain"
)

// PathSeparator joins ancestor names in Node.Path.
const PathSeparator = " > "

// Node is a genre decorated with its position in the hierarchy.
type Node struct {
	*domain.Genre
	Parent   *Node   `json:"-"`
	Children []*Node `json:"children"`
	Level    int     `json:"level"` // 0 for roots
	Path     string  `json:"path"`  // "Electronic > House > Tech House"
}

// IsRoot reports whether the node has no resolved parent.
func (n *Node) IsRoot() bool {
	return n.Parent == nil
}

// Tree is the navigable view over a flat genre snapshot.
//
// A Tree is immutable once built. Trees handed out by Cache are shared between
// callers and must not be modified.
type Tree struct {
	TopLevel []*Node          // Roots, sorted by name
	ByID     map[string]*Node // Lookup by ID
	ByName   map[string]*Node // Lookup by exact name; later records win on collision

	// nodes holds every node in input order.
	nodes []*Node
}

// Len returns the number of nodes in the tree.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Lookup returns the node for id.
func (t *Tree) Lookup(id string) (*Node, bool) {
	n, ok := t.ByID[id]
	return n, ok
}

// LookupName returns the node registered under the exact name.
func (t *Tree) LookupName(name string) (*Node, bool) {
	n, ok := t.ByName[name]
	return n, ok
}

type buildConfig struct {
	lang language.Tag
}

// BuildOption configures Build.
type BuildOption func(*buildConfig)

// WithLanguage sets the collation language used to order siblings.
func WithLanguage(tag language.Tag) BuildOption {
	return func(c *buildConfig) {
		c.lang = tag
	}
}

// Build converts a flat, unordered genre list into a Tree.
//
// Build never fails. A parent ID that does not resolve within the input makes the
// record a root. When two records share an ID the later one replaces the earlier
// one entirely. Level and Path are assigned by walking down from the roots, so the
// result does not depend on input order. Records caught in a parent cycle are
// never reachable from a root; the cycle is broken by promoting one member to a
// root (see promoteCycles).
func Build(genres []*domain.Genre, opts ...BuildOption) *Tree {
	cfg := buildConfig{lang: language.English}
	for _, opt := range opts {
		opt(&cfg)
	}

	t := &Tree{
		ByID:   make(map[string]*Node, len(genres)),
		ByName: make(map[string]*Node, len(genres)),
	}

	// Node creation pass.
	created := make([]*Node, 0, len(genres))
	for _, g := range genres {
		if g == nil {
			continue
		}
		n := &Node{Genre: g, Path: g.Name}
		t.ByID[g.ID] = n
		created = append(created, n)
	}

	t.nodes = make([]*Node, 0, len(t.ByID))
	for _, n := range created {
		if t.ByID[n.ID] != n {
			continue // superseded by a later record with the same ID
		}
		t.nodes = append(t.nodes, n)
	}

	// Every input name gets an entry, including names carried only by a record
	// that a later duplicate ID replaced; those map to the surviving node.
	for _, g := range genres {
		if g != nil {
			t.ByName[g.Name] = t.ByID[g.ID]
		}
	}

	// Linking pass.
	for _, n := range t.nodes {
		if p, ok := t.ByID[n.ParentID]; ok && n.ParentID != "" {
			n.Parent = p
			p.Children = append(p.Children, n)
			continue
		}
		t.TopLevel = append(t.TopLevel, n)
	}

	visited := make(map[*Node]bool, len(t.nodes))
	assignLevels(t.TopLevel, visited)
	t.promoteCycles(visited)

	// Sort pass. A collator keeps internal buffers, so each build owns one.
	col := collate.New(cfg.lang)
	byName := func(a, b *Node) int {
		return col.CompareString(a.Name, b.Name)
	}
	slices.SortStableFunc(t.TopLevel, byName)
	for _, n := range t.nodes {
		slices.SortStableFunc(n.Children, byName)
	}

	return t
}

// assignLevels sets Level and Path breadth-first from roots.
func assignLevels(roots []*Node, visited map[*Node]bool) {
	queue := make([]*Node, 0, len(roots))
	for _, r := range roots {
		r.Level = 0
		r.Path = r.Name
		visited[r] = true
		queue = append(queue, r)
	}

	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, c := range n.Children {
			if visited[c] {
				continue
			}
			visited[c] = true
			c.Level = n.Level + 1
			c.Path = n.Path + PathSeparator + c.Name
			queue = append(queue, c)
		}
	}
}

// promoteCycles attaches every node left unvisited by assignLevels.
// Such a node sits on, or hangs below, a parent cycle. Walking up from the first
// unvisited node in input order reaches the cycle; the first node met twice is
// detached from its parent and becomes a root, which makes the rest of that
// cycle reachable again.
func (t *Tree) promoteCycles(visited map[*Node]bool) {
	for _, n := range t.nodes {
		if visited[n] {
			continue
		}

		entry := cycleEntry(n)
		entry.detach()
		t.TopLevel = append(t.TopLevel, entry)
		assignLevels([]*Node{entry}, visited)
	}
}

func cycleEntry(n *Node) *Node {
	seen := make(map[*Node]bool)
	for cur := n; cur != nil; cur = cur.Parent {
		if seen[cur] {
			return cur
		}
		seen[cur] = true
	}
	return n
}

// detach removes n from its parent's children.
func (n *Node) detach() {
	p := n.Parent
	if p == nil {
		return
	}
	p.Children = slices.DeleteFunc(p.Children, func(c *Node) bool { return c == n })
	n.Parent = nil
}
