package booking

import (
	"context"
	"time"
)

// fakePlatform implements Platform with per-call overrides, so each test
// stubs only what it touches.
type fakePlatform struct {
	workTypeGroupsFn        func(ctx context.Context) ([]WorkTypeGroup, error)
	serviceTerritoriesFn    func(ctx context.Context, workTypeGroupID string, start, end time.Time) ([]ServiceTerritory, error)
	serviceResourcesFn      func(ctx context.Context) ([]ServiceResource, error)
	businessHoursFn         func(ctx context.Context, id string) (*BusinessHours, error)
	appointmentCandidatesFn func(ctx context.Context, q CandidateQuery) ([]AppointmentCandidate, error)
	createAppointmentFn     func(ctx context.Context, req BookingRequest) (BookingConfirmation, error)
}

func (f *fakePlatform) WorkTypeGroups(ctx context.Context) ([]WorkTypeGroup, error) {
	if f.workTypeGroupsFn != nil {
		return f.workTypeGroupsFn(ctx)
	}
	return nil, nil
}

func (f *fakePlatform) ServiceTerritories(ctx context.Context, workTypeGroupID string, start, end time.Time) ([]ServiceTerritory, error) {
	if f.serviceTerritoriesFn != nil {
		return f.serviceTerritoriesFn(ctx, workTypeGroupID, start, end)
	}
	return nil, nil
}

func (f *fakePlatform) ServiceResources(ctx context.Context) ([]ServiceResource, error) {
	if f.serviceResourcesFn != nil {
		return f.serviceResourcesFn(ctx)
	}
	return nil, nil
}

func (f *fakePlatform) BusinessHours(ctx context.Context, id string) (*BusinessHours, error) {
	if f.businessHoursFn != nil {
		return f.businessHoursFn(ctx, id)
	}
	return nil, nil
}

func (f *fakePlatform) AppointmentCandidates(ctx context.Context, q CandidateQuery) ([]AppointmentCandidate, error) {
	if f.appointmentCandidatesFn != nil {
		return f.appointmentCandidatesFn(ctx, q)
	}
	return nil, nil
}

func (f *fakePlatform) CreateAppointment(ctx context.Context, req BookingRequest) (BookingConfirmation, error) {
	if f.createAppointmentFn != nil {
		return f.createAppointmentFn(ctx, req)
	}
	return BookingConfirmation{}, nil
}

// allDayHours builds a business-hours record with the same window every
// day of the week.
func allDayHours(id, tz, start, end string) *BusinessHours {
	days := map[time.Weekday]DayWindow{}
	for d := time.Sunday; d <= time.Saturday; d++ {
		days[d] = DayWindow{Start: start, End: end}
	}
	return &BusinessHours{ID: id, Name: "Hours " + id, TimeZone: tz, Days: days}
}
