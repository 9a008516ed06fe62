package booking

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Submitter assembles the final booking payload from a complete draft and
// commits it with a single upstream creation call. It never mutates the
// draft: on failure the caller decides whether to retry or back up a step.
type Submitter struct {
	platform Platform
	log      *zap.Logger
}

func NewSubmitter(platform Platform, log *zap.Logger) *Submitter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Submitter{platform: platform, log: log}
}

// BuildRequest is the single validation gate before the network call: it
// fails with an IncompleteBookingError naming every missing field, and only
// constructs a BookingRequest from a fully-populated draft.
func BuildRequest(draft BookingDraft, loc *time.Location) (BookingRequest, error) {
	var missing []string
	if draft.Customer == nil || draft.Customer.ID == "" {
		missing = append(missing, "Customer")
	}
	if draft.WorkType == nil {
		missing = append(missing, "Work Type")
	}
	if draft.Territory == nil {
		missing = append(missing, "Territory")
	}
	if draft.Slot == nil {
		missing = append(missing, "Time Slot")
	}
	if draft.Resource == nil {
		missing = append(missing, "Resource")
	}
	if len(missing) > 0 {
		return BookingRequest{}, &IncompleteBookingError{Missing: missing}
	}

	if loc == nil {
		loc = time.UTC
	}
	localStart := draft.Slot.Start.In(loc)

	return BookingRequest{
		ParentRecordID:     draft.Customer.ID,
		WorkTypeID:         draft.WorkType.ID,
		ServiceTerritoryID: draft.Territory.ID,
		ResourceID:         draft.Resource.ID,
		Start:              draft.Slot.Start,
		End:                draft.Slot.End,
		Subject: fmt.Sprintf("%s - %s - %s",
			draft.Resource.Name,
			draft.Customer.FirstName(),
			localStart.Format("Jan 2, 3:04 PM")),
		Description: fmt.Sprintf("%s at %s for %s",
			draft.WorkType.Name, draft.Territory.Name, draft.Customer.Name),
		Street: draft.Territory.Street,
		City:   draft.Territory.City,
	}, nil
}

// Submit validates the draft, builds the payload and issues the creation
// call. loc is the territory-local time zone used for the display subject;
// nil falls back to UTC. Upstream rejections come back as
// *UpstreamRejection with the upstream message verbatim; the draft is left
// exactly as it was.
func (s *Submitter) Submit(ctx context.Context, draft BookingDraft, loc *time.Location) (BookingConfirmation, error) {
	req, err := BuildRequest(draft, loc)
	if err != nil {
		return BookingConfirmation{}, err
	}

	conf, err := s.platform.CreateAppointment(ctx, req)
	if err != nil {
		s.log.Warn("appointment creation failed",
			zap.String("customerId", req.ParentRecordID),
			zap.String("territoryId", req.ServiceTerritoryID),
			zap.Error(err))
		return BookingConfirmation{}, err
	}

	conf.Subject = req.Subject
	s.log.Info("appointment created",
		zap.String("appointmentId", conf.AppointmentID),
		zap.String("customerId", req.ParentRecordID),
		zap.Time("start", req.Start))
	return conf, nil
}
