package booking

import (
	"context"
	"fmt"
)

// State is the flow's single authoritative position in the selection
// sequence. Transitions are linear and backtrackable; Cancelled is
// reachable from any non-terminal state.
type State int

const (
	SelectingWorkType State = iota
	SelectingTerritory
	SelectingTimeSlot
	SelectingResource
	Confirming
	Submitted
	Cancelled
)

func (s State) String() string {
	switch s {
	case SelectingWorkType:
		return "selecting_work_type"
	case SelectingTerritory:
		return "selecting_territory"
	case SelectingTimeSlot:
		return "selecting_time_slot"
	case SelectingResource:
		return "selecting_resource"
	case Confirming:
		return "confirming"
	case Submitted:
		return "submitted"
	case Cancelled:
		return "cancelled"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Flow drives one coordinator's interactive booking session: work type,
// then territory, then time slot, then resource, then confirmation. A
// failed transition never advances the state or mutates the draft, so the
// user can always retry or back out.
//
// A Flow models a single session and is not safe for concurrent use.
type Flow struct {
	composer *Composer

	state      State
	draft      BookingDraft
	candidates CandidateSet
}

// NewFlow opens a booking session for the given customer.
func NewFlow(customer Customer, composer *Composer) *Flow {
	c := customer
	return &Flow{
		composer: composer,
		state:    SelectingWorkType,
		draft:    BookingDraft{Customer: &c},
	}
}

func (f *Flow) State() State { return f.state }

// Draft returns the current selection state. The returned value shares
// pointers with the flow; callers must treat it as read-only.
func (f *Flow) Draft() BookingDraft { return f.draft }

// Candidates returns the slots fetched on territory selection.
func (f *Flow) Candidates() CandidateSet { return f.candidates }

// SelectWorkType records the work type and clears anything selected in
// later steps, so re-selecting after a backtrack cannot leave stale state.
func (f *Flow) SelectWorkType(wt WorkType) error {
	if f.state != SelectingWorkType {
		return fmt.Errorf("%w: cannot select a work type in state %s", ErrOutOfSequence, f.state)
	}
	if wt.ID == "" {
		return fmt.Errorf("%w: work type id is required", ErrOutOfSequence)
	}
	f.draft.WorkType = &wt
	f.draft.Territory = nil
	f.draft.Slot = nil
	f.draft.Resource = nil
	f.candidates = CandidateSet{}
	f.state = SelectingTerritory
	return nil
}

// SelectTerritory fetches candidates for the territory through the
// composer. When the window holds no usable slot the flow reports
// ErrNoAvailability and stays in SelectingTerritory with the draft
// untouched, so trying another location is a clean first attempt.
func (f *Flow) SelectTerritory(ctx context.Context, t ServiceTerritory) error {
	if f.state != SelectingTerritory || f.draft.WorkType == nil {
		return fmt.Errorf("%w: select a work type first", ErrOutOfSequence)
	}
	if t.ID == "" {
		return fmt.Errorf("%w: territory id is required", ErrOutOfSequence)
	}

	customerID := ""
	if f.draft.Customer != nil {
		customerID = f.draft.Customer.ID
	}
	set, err := f.composer.Resolve(ctx, *f.draft.WorkType, t, customerID)
	if err != nil {
		return err
	}
	if len(set.Candidates) == 0 {
		return ErrNoAvailability
	}

	f.draft.Territory = &t
	f.candidates = set
	f.state = SelectingTimeSlot
	return nil
}

// SelectTimeSlot records the chosen candidate. Candidates with no
// qualified resource are rejected; the upstream API can hand back
// empty-resource placeholders.
func (f *Flow) SelectTimeSlot(c AppointmentCandidate) error {
	if f.state != SelectingTimeSlot {
		return fmt.Errorf("%w: select a territory first", ErrOutOfSequence)
	}
	if c.Start.IsZero() || c.End.IsZero() {
		return fmt.Errorf("%w: time slot must carry a start and end time", ErrOutOfSequence)
	}
	if len(c.Resources) == 0 {
		return fmt.Errorf("%w: time slot has no qualified resources", ErrOutOfSequence)
	}
	f.draft.Slot = &c
	f.state = SelectingResource
	return nil
}

// SelectResource records the chosen associate, who must be qualified for
// the selected slot.
func (f *Flow) SelectResource(res ServiceResource) error {
	if f.state != SelectingResource || f.draft.Slot == nil {
		return fmt.Errorf("%w: select a time slot first", ErrOutOfSequence)
	}
	if !f.draft.Slot.HasResource(res.ID) {
		return fmt.Errorf("%w: resource %s is not available for the selected slot", ErrOutOfSequence, res.ID)
	}
	f.draft.Resource = &res
	f.state = Confirming
	return nil
}

// Back moves to the previous step and clears exactly the data owned by the
// state being left, preventing stale selections from surviving a backtrack.
func (f *Flow) Back() error {
	switch f.state {
	case SelectingTerritory:
		f.draft.WorkType = nil
		f.state = SelectingWorkType
	case SelectingTimeSlot:
		f.draft.Territory = nil
		f.candidates = CandidateSet{}
		f.state = SelectingTerritory
	case SelectingResource:
		f.draft.Slot = nil
		f.state = SelectingTimeSlot
	case Confirming:
		f.draft.Resource = nil
		f.state = SelectingResource
	default:
		return fmt.Errorf("%w: nothing to go back to from state %s", ErrOutOfSequence, f.state)
	}
	return nil
}

// Cancel resets the whole draft and returns the flow to the first step.
// The customer reference survives; it is owned by the caller.
func (f *Flow) Cancel() {
	if f.state == Submitted {
		return
	}
	f.draft.WorkType = nil
	f.draft.Territory = nil
	f.draft.Slot = nil
	f.draft.Resource = nil
	f.candidates = CandidateSet{}
	f.state = Cancelled
}

// Restart reopens a cancelled flow at the first step.
func (f *Flow) Restart() {
	if f.state == Submitted {
		return
	}
	f.draft.WorkType = nil
	f.draft.Territory = nil
	f.draft.Slot = nil
	f.draft.Resource = nil
	f.candidates = CandidateSet{}
	f.state = SelectingWorkType
}

// Complete marks the flow submitted after a successful creation call.
// Submission itself lives in Submitter; resetting UI state stays the
// caller's job.
func (f *Flow) Complete() error {
	if f.state != Confirming {
		return fmt.Errorf("%w: cannot complete from state %s", ErrOutOfSequence, f.state)
	}
	f.state = Submitted
	return nil
}
