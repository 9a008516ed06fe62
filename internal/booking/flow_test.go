package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func slotAt(start time.Time, resources ...string) AppointmentCandidate {
	return AppointmentCandidate{
		Start:       start,
		End:         start.Add(30 * time.Minute),
		TerritoryID: "t1",
		Resources:   resources,
	}
}

func composerReturning(cands []AppointmentCandidate) *Composer {
	platform := &fakePlatform{
		appointmentCandidatesFn: func(ctx context.Context, q CandidateQuery) ([]AppointmentCandidate, error) {
			return cands, nil
		},
		businessHoursFn: func(ctx context.Context, id string) (*BusinessHours, error) {
			return allDayHours(id, "UTC", "00:00:00", "23:59:59"), nil
		},
	}
	return NewComposer(platform, nil)
}

func TestFlowSequenceGuards(t *testing.T) {
	flow := NewFlow(Customer{ID: "acc1", Name: "Jane Doe"}, composerReturning(nil))

	err := flow.SelectTerritory(context.Background(), ServiceTerritory{ID: "t1"})
	require.ErrorIs(t, err, ErrOutOfSequence)
	assert.Contains(t, err.Error(), "select a work type first")

	err = flow.SelectTimeSlot(slotAt(time.Now(), "r1"))
	require.ErrorIs(t, err, ErrOutOfSequence)

	err = flow.SelectResource(ServiceResource{ID: "r1"})
	require.ErrorIs(t, err, ErrOutOfSequence)

	err = flow.Complete()
	require.ErrorIs(t, err, ErrOutOfSequence)

	assert.Equal(t, SelectingWorkType, flow.State(), "failed transitions leave the state unchanged")
}

func TestFlowNoAvailabilityKeepsState(t *testing.T) {
	flow := NewFlow(Customer{ID: "acc1", Name: "Jane Doe"}, composerReturning(nil))
	require.NoError(t, flow.SelectWorkType(WorkType{ID: "wt1", GroupID: "wtg1", Name: "Consultation"}))

	err := flow.SelectTerritory(context.Background(), ServiceTerritory{ID: "t1", OperatingHoursID: "oh1"})
	require.ErrorIs(t, err, ErrNoAvailability)
	assert.Equal(t, SelectingTerritory, flow.State(), "the user can pick a different location")
	assert.Nil(t, flow.Draft().Territory, "the failed territory is not recorded")
}

func TestFlowRejectsEmptyResourceSlot(t *testing.T) {
	start := time.Date(2026, 3, 10, 11, 0, 0, 0, time.UTC)
	flow := NewFlow(Customer{ID: "acc1", Name: "Jane Doe"}, composerReturning([]AppointmentCandidate{slotAt(start, "r1")}))
	require.NoError(t, flow.SelectWorkType(WorkType{ID: "wt1", GroupID: "wtg1"}))
	require.NoError(t, flow.SelectTerritory(context.Background(), ServiceTerritory{ID: "t1", OperatingHoursID: "oh1"}))

	err := flow.SelectTimeSlot(AppointmentCandidate{Start: start, End: start.Add(time.Hour)})
	require.ErrorIs(t, err, ErrOutOfSequence)
	assert.Contains(t, err.Error(), "no qualified resources")
}

func TestFlowRejectsResourceNotInSlot(t *testing.T) {
	start := time.Date(2026, 3, 10, 11, 0, 0, 0, time.UTC)
	flow := NewFlow(Customer{ID: "acc1", Name: "Jane Doe"}, composerReturning([]AppointmentCandidate{slotAt(start, "r1")}))
	require.NoError(t, flow.SelectWorkType(WorkType{ID: "wt1", GroupID: "wtg1"}))
	require.NoError(t, flow.SelectTerritory(context.Background(), ServiceTerritory{ID: "t1", OperatingHoursID: "oh1"}))
	require.NoError(t, flow.SelectTimeSlot(slotAt(start, "r1")))

	err := flow.SelectResource(ServiceResource{ID: "r2", Name: "John Roe"})
	require.ErrorIs(t, err, ErrOutOfSequence)
	assert.Equal(t, SelectingResource, flow.State())
}

func TestFlowBackClearsLeavingStepData(t *testing.T) {
	start := time.Date(2026, 3, 10, 11, 0, 0, 0, time.UTC)
	flow := NewFlow(Customer{ID: "acc1", Name: "Jane Doe"}, composerReturning([]AppointmentCandidate{slotAt(start, "r1")}))
	require.NoError(t, flow.SelectWorkType(WorkType{ID: "wt1", GroupID: "wtg1"}))
	require.NoError(t, flow.SelectTerritory(context.Background(), ServiceTerritory{ID: "t1", OperatingHoursID: "oh1"}))
	require.NoError(t, flow.SelectTimeSlot(slotAt(start, "r1")))
	require.NoError(t, flow.SelectResource(ServiceResource{ID: "r1", Name: "Jane Tech"}))
	require.Equal(t, Confirming, flow.State())

	require.NoError(t, flow.Back())
	assert.Equal(t, SelectingResource, flow.State())
	assert.Nil(t, flow.Draft().Resource)
	assert.NotNil(t, flow.Draft().Slot, "earlier selections survive")

	require.NoError(t, flow.Back())
	assert.Equal(t, SelectingTimeSlot, flow.State())
	assert.Nil(t, flow.Draft().Slot)

	require.NoError(t, flow.Back())
	assert.Equal(t, SelectingTerritory, flow.State())
	assert.Nil(t, flow.Draft().Territory)
	assert.Empty(t, flow.Candidates().Candidates)

	require.NoError(t, flow.Back())
	assert.Equal(t, SelectingWorkType, flow.State())
	assert.Nil(t, flow.Draft().WorkType)

	err := flow.Back()
	require.ErrorIs(t, err, ErrOutOfSequence, "nothing before the first step")
}

func TestFlowCancelResetsDraft(t *testing.T) {
	start := time.Date(2026, 3, 10, 11, 0, 0, 0, time.UTC)
	flow := NewFlow(Customer{ID: "acc1", Name: "Jane Doe"}, composerReturning([]AppointmentCandidate{slotAt(start, "r1")}))
	require.NoError(t, flow.SelectWorkType(WorkType{ID: "wt1", GroupID: "wtg1"}))
	require.NoError(t, flow.SelectTerritory(context.Background(), ServiceTerritory{ID: "t1", OperatingHoursID: "oh1"}))

	flow.Cancel()
	assert.Equal(t, Cancelled, flow.State())
	draft := flow.Draft()
	assert.Nil(t, draft.WorkType)
	assert.Nil(t, draft.Territory)
	assert.Nil(t, draft.Slot)
	assert.Nil(t, draft.Resource)
	require.NotNil(t, draft.Customer)
	assert.Equal(t, "acc1", draft.Customer.ID, "the customer reference survives cancellation")

	flow.Restart()
	assert.Equal(t, SelectingWorkType, flow.State())
}

func TestFlowEndToEnd(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	early := time.Date(2026, 3, 10, 8, 30, 0, 0, ny)
	ok := time.Date(2026, 3, 10, 11, 0, 0, 0, ny)

	var created BookingRequest
	platform := &fakePlatform{
		appointmentCandidatesFn: func(ctx context.Context, q CandidateQuery) ([]AppointmentCandidate, error) {
			return []AppointmentCandidate{
				{Start: early.UTC(), End: early.Add(30 * time.Minute).UTC(), TerritoryID: "t1", Resources: []string{"r1"}},
				{Start: ok.UTC(), End: ok.Add(30 * time.Minute).UTC(), TerritoryID: "t1", Resources: []string{"r1"}},
			}, nil
		},
		businessHoursFn: func(ctx context.Context, id string) (*BusinessHours, error) {
			return allDayHours(id, "America/New_York", "09:00:00", "17:00:00"), nil
		},
		createAppointmentFn: func(ctx context.Context, req BookingRequest) (BookingConfirmation, error) {
			created = req
			return BookingConfirmation{AppointmentID: "app123"}, nil
		},
	}
	composer := NewComposer(platform, nil)

	flow := NewFlow(Customer{ID: "acc1", Name: "Jane Doe"}, composer)
	require.NoError(t, flow.SelectWorkType(WorkType{ID: "wt1", GroupID: "wtg1", Name: "Consultation", EstimatedDuration: 30, DurationUnit: "Minutes"}))
	require.NoError(t, flow.SelectTerritory(context.Background(), ServiceTerritory{ID: "t1", Name: "Downtown", OperatingHoursID: "oh1"}))

	require.Len(t, flow.Candidates().Candidates, 1, "the 08:30 slot is filtered out")
	require.NoError(t, flow.SelectTimeSlot(flow.Candidates().Candidates[0]))
	require.NoError(t, flow.SelectResource(ServiceResource{ID: "r1", Name: "Jane Tech"}))
	require.Equal(t, Confirming, flow.State())

	submitter := NewSubmitter(platform, nil)
	conf, err := submitter.Submit(context.Background(), flow.Draft(), flow.Candidates().Location)
	require.NoError(t, err)
	assert.Equal(t, "app123", conf.AppointmentID)
	assert.Equal(t, "Jane Tech - Jane - Mar 10, 11:00 AM", created.Subject)

	require.NoError(t, flow.Complete())
	assert.Equal(t, Submitted, flow.State())
}
