package review

import (
	"testing"

	"gridfx-config-bot/internal/planner"
	"gridfx-config-bot/internal/schema"
)

func samplePreviews() []planner.ChangePreview {
	// Two fields across two groups; grid changes agree per field, stop_loss
	// values differ per group.
	return []planner.ChangePreview{
		{Engine: "A", Group: 1, Logic: schema.LogicPower, Field: "grid",
			CurrentValue: schema.NumberValue(100), NewValue: schema.NumberValue(600)},
		{Engine: "A", Group: 2, Logic: schema.LogicPower, Field: "grid",
			CurrentValue: schema.NumberValue(100), NewValue: schema.NumberValue(600)},
		{Engine: "A", Group: 1, Logic: schema.LogicPower, Field: "stop_loss",
			CurrentValue: schema.NumberValue(35), NewValue: schema.NumberValue(40)},
		{Engine: "A", Group: 2, Logic: schema.LogicPower, Field: "stop_loss",
			CurrentValue: schema.NumberValue(40), NewValue: schema.NumberValue(45)},
	}
}

// TestAggregateByField verifies bucket keys, counts and the various sentinel
func TestAggregateByField(t *testing.T) {
	groups := Aggregate(samplePreviews(), ByField)
	if len(groups) != 2 {
		t.Fatalf("buckets = %d, want 2", len(groups))
	}

	byKey := make(map[string]AggregatedGroup)
	total := 0
	for _, g := range groups {
		byKey[g.Key] = g
		total += g.Count
	}
	if total != 4 {
		t.Errorf("total members = %d, want 4 (count round trip)", total)
	}

	grid := byKey["grid"]
	if grid.CurrentValue != "100" || grid.NewValue != "600" {
		t.Errorf("uniform bucket = %s -> %s, want 100 -> 600", grid.CurrentValue, grid.NewValue)
	}

	sl := byKey["stop_loss"]
	if sl.CurrentValue != VariousSentinel || sl.NewValue != VariousSentinel {
		t.Errorf("mixed bucket = %s -> %s, want various sentinels", sl.CurrentValue, sl.NewValue)
	}
}

// TestAggregateByGroup verifies the group dimension
func TestAggregateByGroup(t *testing.T) {
	groups := Aggregate(samplePreviews(), ByGroup)
	if len(groups) != 2 {
		t.Fatalf("buckets = %d, want 2", len(groups))
	}
	for _, g := range groups {
		if g.Count != 2 {
			t.Errorf("bucket %s count = %d, want 2", g.Key, g.Count)
		}
	}
}

// TestRepresentativeRisk verifies bucket risk reflects the worst member
func TestRepresentativeRisk(t *testing.T) {
	groups := Aggregate(samplePreviews(), ByField)
	for _, g := range groups {
		switch g.Key {
		case "stop_loss":
			if g.Risk != planner.RiskCritical {
				t.Errorf("stop_loss risk = %s, want critical", g.Risk)
			}
		case "grid":
			if g.Risk != planner.RiskHigh {
				t.Errorf("grid risk = %s, want high", g.Risk)
			}
		}
	}
}

// TestSearchAndFilter verifies bucket search and risk filtering
func TestSearchAndFilter(t *testing.T) {
	groups := Aggregate(samplePreviews(), ByField)

	found := Search(groups, "stop")
	if len(found) != 1 || found[0].Key != "stop_loss" {
		t.Errorf("Search(stop) = %+v, want just stop_loss", found)
	}
	if got := Search(groups, ""); len(got) != len(groups) {
		t.Error("empty query should keep all buckets")
	}

	critical := FilterByRisk(groups, planner.RiskCritical)
	if len(critical) != 1 || critical[0].Key != "stop_loss" {
		t.Errorf("FilterByRisk(critical) = %+v, want just stop_loss", critical)
	}
}

// TestDrillDown verifies bucket members resolve back to raw previews
func TestDrillDown(t *testing.T) {
	previews := samplePreviews()
	groups := Aggregate(previews, ByField)
	for _, g := range groups {
		members := DrillDown(previews, g)
		if len(members) != g.Count {
			t.Errorf("bucket %s drilldown = %d members, want %d", g.Key, len(members), g.Count)
		}
		for _, cp := range members {
			if cp.Field != g.Key {
				t.Errorf("bucket %s contains preview for %s", g.Key, cp.Field)
			}
		}
	}
}

// TestSelectionOverlay verifies per-leaf verdicts and confirmation
func TestSelectionOverlay(t *testing.T) {
	previews := samplePreviews()
	overlay := NewSelectionOverlay(len(previews))

	approved, rejected, pending := overlay.Counts()
	if approved != 0 || rejected != 0 || pending != 4 {
		t.Fatalf("fresh overlay counts = %d/%d/%d, want 0/0/4", approved, rejected, pending)
	}

	groups := Aggregate(previews, ByField)
	for _, g := range groups {
		if g.Key == "grid" {
			overlay.ApproveGroup(g)
		} else {
			overlay.RejectGroup(g)
		}
	}
	approved, rejected, pending = overlay.Counts()
	if approved != 2 || rejected != 2 || pending != 0 {
		t.Errorf("counts = %d/%d/%d, want 2/2/0", approved, rejected, pending)
	}

	confirmed := overlay.Confirm()
	if len(confirmed) != 2 {
		t.Fatalf("confirmed = %v, want 2 indices", confirmed)
	}
	for _, idx := range confirmed {
		if previews[idx].Field != "grid" {
			t.Errorf("confirmed index %d is %s, want grid", idx, previews[idx].Field)
		}
	}

	overlay.Reset()
	if _, _, pending = overlay.Counts(); pending != 4 {
		t.Error("reset should return all leaves to pending")
	}

	// Out-of-range indices are ignored.
	overlay.Approve(-1)
	overlay.Approve(99)
	if len(overlay.Confirm()) != 0 {
		t.Error("out-of-range approvals should be ignored")
	}
}
