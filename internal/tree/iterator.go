package tree

import "strings"

// Filter narrows iteration to a subset of the tree. Empty slices mean
// "unfiltered on that dimension"; non-empty dimensions intersect (AND).
type Filter struct {
	Engines []string
	Groups  []int
	Logics  []string
}

func (f Filter) matchEngine(id string) bool {
	if len(f.Engines) == 0 {
		return true
	}
	for _, e := range f.Engines {
		if strings.EqualFold(e, id) {
			return true
		}
	}
	return false
}

func (f Filter) matchGroup(n int) bool {
	if len(f.Groups) == 0 {
		return true
	}
	for _, g := range f.Groups {
		if g == n {
			return true
		}
	}
	return false
}

func (f Filter) matchLogic(name string) bool {
	if len(f.Logics) == 0 {
		return true
	}
	for _, l := range f.Logics {
		if strings.EqualFold(l, name) {
			return true
		}
	}
	return false
}

// ForEachMatch visits every (engine, group, logic) triple matching the
// filter, in tree order. Callers must not mutate the visited nodes; mutation
// paths go through ForEachMatchMutable on a clone.
func ForEachMatch(t *Tree, f Filter, visit func(e *Engine, g *Group, l *Logic)) {
	if t == nil {
		return
	}
	for _, e := range t.Engines {
		if !f.matchEngine(e.ID) {
			continue
		}
		for _, g := range e.Groups {
			if !f.matchGroup(g.Number) {
				continue
			}
			for _, l := range g.Logics {
				if !f.matchLogic(l.Name) {
					continue
				}
				visit(e, g, l)
			}
		}
	}
}

// ForEachMatchMutable is the mutating twin of ForEachMatch. It exists only
// for paths that intentionally rewrite a cloned tree (copy, reset); the
// planner never uses it.
func ForEachMatchMutable(t *Tree, f Filter, visit func(e *Engine, g *Group, l *Logic)) {
	ForEachMatch(t, f, visit)
}
