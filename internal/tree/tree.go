// Package tree holds the in-memory configuration tree: ordered engines,
// each owning numbered groups, each owning one instance of every logic with
// a flat field map. The tree is treated as an immutable snapshot by the
// planner; mutation paths always work on a deep clone and swap the whole
// tree on success.
package tree

import (
	"fmt"
	"math"

	"gridfx-config-bot/internal/schema"
)

// Logic is one strategy module inside a group
type Logic struct {
	Name   string                  `json:"name"`
	Fields map[string]schema.Value `json:"fields"`
}

// Group is one numbered grid tier inside an engine
type Group struct {
	Number int      `json:"number"`
	Logics []*Logic `json:"logics"`
}

// Engine is a top-level strategy container (A/B/C)
type Engine struct {
	ID     string   `json:"id"`
	Groups []*Group `json:"groups"`
}

// Tree is the full configuration snapshot
type Tree struct {
	Engines []*Engine `json:"engines"`
}

// Logic lookup inside a group, nil if absent
func (g *Group) Logic(name string) *Logic {
	for _, l := range g.Logics {
		if l.Name == name {
			return l
		}
	}
	return nil
}

// Group lookup inside an engine, nil if absent
func (e *Engine) Group(number int) *Group {
	for _, g := range e.Groups {
		if g.Number == number {
			return g
		}
	}
	return nil
}

// Engine lookup, nil if absent
func (t *Tree) Engine(id string) *Engine {
	for _, e := range t.Engines {
		if e.ID == id {
			return e
		}
	}
	return nil
}

// Clone returns a deep copy. Copy-on-write whole tree is acceptable at this
// scale (thousands of leaves, not millions).
func (t *Tree) Clone() *Tree {
	out := &Tree{Engines: make([]*Engine, 0, len(t.Engines))}
	for _, e := range t.Engines {
		ce := &Engine{ID: e.ID, Groups: make([]*Group, 0, len(e.Groups))}
		for _, g := range e.Groups {
			cg := &Group{Number: g.Number, Logics: make([]*Logic, 0, len(g.Logics))}
			for _, l := range g.Logics {
				cl := &Logic{Name: l.Name, Fields: make(map[string]schema.Value, len(l.Fields))}
				for k, v := range l.Fields {
					cl.Fields[k] = v
				}
				cg.Logics = append(cg.Logics, cl)
			}
			ce.Groups = append(ce.Groups, cg)
		}
		out.Engines = append(out.Engines, ce)
	}
	return out
}

// LeafCount returns the number of addressable (engine, group, logic, field)
// leaves. Used by the executor's structural size guard.
func (t *Tree) LeafCount() int {
	count := 0
	for _, e := range t.Engines {
		for _, g := range e.Groups {
			for _, l := range g.Logics {
				count += len(l.Fields)
			}
		}
	}
	return count
}

// Validate checks structural invariants: known engine ids, group numbers in
// range, closed logic set, and a uniform field schema across the logics of
// each group.
func (t *Tree) Validate() error {
	for _, e := range t.Engines {
		if !schema.IsEngineID(e.ID) {
			return fmt.Errorf("unknown engine id %q", e.ID)
		}
		for _, g := range e.Groups {
			if g.Number < 1 || g.Number > schema.MaxGroups {
				return fmt.Errorf("engine %s: group %d outside 1..%d", e.ID, g.Number, schema.MaxGroups)
			}
			var want int
			for i, l := range g.Logics {
				if !schema.IsLogicName(l.Name) {
					return fmt.Errorf("engine %s group %d: unknown logic %q", e.ID, g.Number, l.Name)
				}
				if i == 0 {
					want = len(l.Fields)
				} else if len(l.Fields) != want {
					return fmt.Errorf("engine %s group %d: logic %s has %d fields, want %d",
						e.ID, g.Number, l.Name, len(l.Fields), want)
				}
			}
		}
	}
	return nil
}

// Default builds the documented default tree with the given group count per
// engine. Values follow the conservative / moderate / aggressive tiers of the
// stock setfile: groups 1-5, 6-10 and 11+ get progressively larger lots,
// wider grids and looser trails.
func Default(groups int) *Tree {
	if groups < 1 {
		groups = 1
	}
	if groups > schema.MaxGroups {
		groups = schema.MaxGroups
	}
	t := &Tree{}
	for _, id := range schema.EngineIDs {
		e := &Engine{ID: id}
		for n := 1; n <= groups; n++ {
			g := &Group{Number: n}
			for _, name := range schema.LogicNames {
				g.Logics = append(g.Logics, defaultLogic(name, n))
			}
			e.Groups = append(e.Groups, g)
		}
		t.Engines = append(t.Engines, e)
	}
	return t
}

func defaultLogic(name string, group int) *Logic {
	var baseLot, maxLot, gridBase, trailBase float64
	switch {
	case group <= 5:
		baseLot, maxLot, gridBase, trailBase = 0.02, 0.20, 100, 5.0
	case group <= 10:
		baseLot, maxLot, gridBase, trailBase = 0.03, 0.30, 150, 7.5
	default:
		baseLot, maxLot, gridBase, trailBase = 0.05, 0.50, 200, 10.0
	}
	fg := float64(group)

	fields := map[string]schema.Value{
		"enabled":                schema.BoolValue(true),
		"initial_lot":            schema.NumberValue(baseLot),
		"last_lot":               schema.NumberValue(maxLot),
		"multiplier":             schema.NumberValue(round2(1.20 + fg*0.02)),
		"grid":                   schema.NumberValue(gridBase + fg*20),
		"grid_behavior":          schema.EnumValue("fixed"),
		"trail_method":           schema.EnumValue("classic"),
		"trail_value":            schema.NumberValue(round2(trailBase + fg*0.5)),
		"trail_start":            schema.NumberValue(round2(fg * 2.0)),
		"trail_step":             schema.NumberValue(round2(trailBase + fg*0.25)),
		"trail_step_cycle":       schema.NumberValue(1),
		"trail_step_balance":     schema.NumberValue(50),
		"use_tp":                 schema.BoolValue(true),
		"take_profit":            schema.NumberValue(50.0 + fg*10.0),
		"use_sl":                 schema.BoolValue(true),
		"stop_loss":              schema.NumberValue(30.0 + fg*5.0),
		"break_even_activation":  schema.NumberValue(20.0 + fg*2.0),
		"break_even_lock":        schema.NumberValue(10.0 + fg),
		"profit_trail_enabled":   schema.BoolValue(false),
		"profit_trail_peak_drop": schema.NumberValue(50),
		"profit_trail_lock":      schema.NumberValue(30),
		"trigger_pips":           schema.NumberValue(0),
		"trigger_bars":           schema.NumberValue(0),
		"trigger_minutes":        schema.NumberValue(0),
		"reverse_enabled":        schema.BoolValue(false),
		"hedge_enabled":          schema.BoolValue(false),
		"start_level":            schema.NumberValue(0),
	}
	// POWER always starts from level zero; the recovery logics start one
	// tier into the grid.
	if name != schema.LogicPower {
		fields["start_level"] = schema.NumberValue(float64(group))
	}
	return &Logic{Name: name, Fields: fields}
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
