package review

import "sort"

// SelectionState is the per-leaf review verdict
type SelectionState string

const (
	SelectionPending  SelectionState = "pending"
	SelectionApproved SelectionState = "approved"
	SelectionRejected SelectionState = "rejected"
)

// SelectionOverlay tracks accept/reject decisions per original preview
// index without touching the plan. Confirm reduces the overlay to the
// approved index set for the executor's partial-apply path.
type SelectionOverlay struct {
	size  int
	state map[int]SelectionState
}

// NewSelectionOverlay creates an overlay for a plan with size previews,
// all pending.
func NewSelectionOverlay(size int) *SelectionOverlay {
	return &SelectionOverlay{size: size, state: make(map[int]SelectionState)}
}

// State returns the verdict for one index
func (s *SelectionOverlay) State(index int) SelectionState {
	if v, ok := s.state[index]; ok {
		return v
	}
	return SelectionPending
}

// Approve marks one leaf approved
func (s *SelectionOverlay) Approve(index int) {
	if index >= 0 && index < s.size {
		s.state[index] = SelectionApproved
	}
}

// Reject marks one leaf rejected
func (s *SelectionOverlay) Reject(index int) {
	if index >= 0 && index < s.size {
		s.state[index] = SelectionRejected
	}
}

// ApproveGroup approves every leaf belonging to an aggregated group
func (s *SelectionOverlay) ApproveGroup(group AggregatedGroup) {
	for _, idx := range group.Indices {
		s.Approve(idx)
	}
}

// RejectGroup rejects every leaf belonging to an aggregated group
func (s *SelectionOverlay) RejectGroup(group AggregatedGroup) {
	for _, idx := range group.Indices {
		s.Reject(idx)
	}
}

// Reset clears all verdicts back to pending
func (s *SelectionOverlay) Reset() {
	s.state = make(map[int]SelectionState)
}

// Counts reports how many leaves sit in each state
func (s *SelectionOverlay) Counts() (approved, rejected, pending int) {
	for _, v := range s.state {
		switch v {
		case SelectionApproved:
			approved++
		case SelectionRejected:
			rejected++
		}
	}
	pending = s.size - approved - rejected
	return approved, rejected, pending
}

// Confirm returns the approved indices in ascending order, ready to hand to
// the executor's partial apply.
func (s *SelectionOverlay) Confirm() []int {
	var approved []int
	for idx, v := range s.state {
		if v == SelectionApproved {
			approved = append(approved, idx)
		}
	}
	sort.Ints(approved)
	return approved
}
