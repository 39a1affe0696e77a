package genre

import (
	"github.com/stagepass/stagepass-server/internal/domain"
)

// Orphan is a genre whose parent ID does not resolve within the snapshot.
type Orphan struct {
	ID       string `json:"id"`
	ParentID string `json:"parent_id"`
}

// Report lists the structural problems Build absorbs silently.
type Report struct {
	Orphans        []Orphan   `json:"orphans"`
	DuplicateIDs   []string   `json:"duplicate_ids"`
	DuplicateNames []string   `json:"duplicate_names"`
	Cycles         [][]string `json:"cycles"` // Each cycle in parent order, starting where it was entered
}

// OK reports whether the snapshot is a clean forest.
func (r Report) OK() bool {
	return len(r.Orphans) == 0 &&
		len(r.DuplicateIDs) == 0 &&
		len(r.DuplicateNames) == 0 &&
		len(r.Cycles) == 0
}

// Validate inspects a flat genre snapshot. It follows the same resolution rules
// as Build: later records win on duplicate IDs and an unresolved parent makes a
// root, so a record reported as an orphan shows up as a root in the tree.
func Validate(genres []*domain.Genre) Report {
	report := Report{
		Orphans:        []Orphan{},
		DuplicateIDs:   []string{},
		DuplicateNames: []string{},
		Cycles:         [][]string{},
	}

	parentOf := make(map[string]string, len(genres))
	order := make([]string, 0, len(genres))
	idCount := make(map[string]int, len(genres))
	for _, g := range genres {
		if g == nil {
			continue
		}
		idCount[g.ID]++
		if idCount[g.ID] == 1 {
			order = append(order, g.ID)
		} else if idCount[g.ID] == 2 {
			report.DuplicateIDs = append(report.DuplicateIDs, g.ID)
		}
		parentOf[g.ID] = g.ParentID
	}

	// Names are checked on surviving records only.
	survivor := make(map[string]*domain.Genre, len(order))
	for _, g := range genres {
		if g != nil {
			survivor[g.ID] = g
		}
	}
	nameCount := make(map[string]int, len(order))
	for _, gid := range order {
		name := survivor[gid].Name
		nameCount[name]++
		if nameCount[name] == 2 {
			report.DuplicateNames = append(report.DuplicateNames, name)
		}
	}

	for _, gid := range order {
		pid := parentOf[gid]
		if pid == "" {
			continue
		}
		if _, ok := parentOf[pid]; !ok {
			report.Orphans = append(report.Orphans, Orphan{ID: gid, ParentID: pid})
		}
	}

	report.Cycles = findCycles(order, parentOf)
	return report
}

// findCycles walks parent links from every ID. Each walk either reaches a root,
// an orphan, a node finished by an earlier walk, or a node already on the current
// walk, which closes a cycle.
func findCycles(order []string, parentOf map[string]string) [][]string {
	const (
		unvisited = iota
		onPath
		done
	)

	state := make(map[string]int, len(order))
	cycles := [][]string{}

	for _, start := range order {
		if state[start] != unvisited {
			continue
		}

		var path []string
		cur := start
		for {
			if _, ok := parentOf[cur]; !ok {
				break
			}
			if state[cur] == done {
				break
			}
			if state[cur] == onPath {
				for i, gid := range path {
					if gid == cur {
						cycle := make([]string, len(path)-i)
						copy(cycle, path[i:])
						cycles = append(cycles, cycle)
						break
					}
				}
				break
			}
			state[cur] = onPath
			path = append(path, cur)

			next := parentOf[cur]
			if next == "" {
				break
			}
			cur = next
		}

		for _, gid := range path {
			state[gid] = done
		}
	}

	return cycles
}
