package booking

import (
	"context"
	"strings"
	"time"
)

// WorkType is a bookable service definition. GroupID points at the
// work-type group the type was discovered under; the upstream candidate
// endpoint is scoped by group, not by type.
type WorkType struct {
	ID                string
	Name              string
	GroupID           string
	EstimatedDuration int
	DurationUnit      string
}

type WorkTypeGroup struct {
	ID        string
	Name      string
	Active    bool
	GroupType string
	WorkTypes []WorkType
}

// ServiceTerritory is a bookable location. OperatingHoursID may be empty
// when the upstream record has no hours configured.
type ServiceTerritory struct {
	ID               string
	Name             string
	OperatingHoursID string
	Street           string
	City             string
	State            string
}

// Address renders the postal fields as a single display string.
func (t ServiceTerritory) Address() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{t.Street, t.City, t.State} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

type ServiceResource struct {
	ID              string
	Name            string
	FirstName       string
	LastName        string
	ResourceType    string
	RelatedRecordID string
	Email           string
	Title           string
	Language        string
	PhotoURL        string
}

// AppointmentCandidate is one proposed (time window x qualified resources)
// booking option. Candidates are ephemeral; they are never persisted.
type AppointmentCandidate struct {
	Start       time.Time
	End         time.Time
	TerritoryID string
	Resources   []string
}

// HasResource reports whether the given resource id is qualified for this
// candidate's window.
func (c AppointmentCandidate) HasResource(id string) bool {
	for _, r := range c.Resources {
		if r == id {
			return true
		}
	}
	return false
}

// DayWindow is a single day-of-week open/close window. Times are wall-clock
// strings in HH:MM:SS form, compared in the owning record's time zone.
type DayWindow struct {
	Start string
	End   string
}

// BusinessHours is the per-day-of-week operating window set for a territory,
// keyed by the territory's operating-hours id.
type BusinessHours struct {
	ID       string
	Name     string
	TimeZone string
	Days     map[time.Weekday]DayWindow
}

// Location resolves the record's declared time zone, falling back to UTC
// when the name is absent or unknown.
func (h BusinessHours) Location() *time.Location {
	if h.TimeZone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(h.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

type Customer struct {
	ID    string
	Name  string
	Email string
	Phone string
}

// FirstName returns the leading token of the display name, used for the
// derived appointment subject.
func (c Customer) FirstName() string {
	fields := strings.Fields(c.Name)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// BookingDraft accumulates one coordinator's in-progress selection. All
// fields except Customer start nil and are filled by the flow transitions.
type BookingDraft struct {
	Customer  *Customer
	WorkType  *WorkType
	Territory *ServiceTerritory
	Slot      *AppointmentCandidate
	Resource  *ServiceResource
}

// CandidateQuery is the upstream appointment-candidate request.
// AllowConcurrentScheduling is always false: one appointment per resource
// per slot is a fixed policy.
type CandidateQuery struct {
	Start              time.Time
	End                time.Time
	WorkTypeGroupID    string
	WorkTypeID         string
	TerritoryIDs       []string
	SchedulingPolicyID string
	AccountID          string
}

// BookingRequest is the immutable creation payload. It is only ever built
// from a complete draft; see BuildRequest.
type BookingRequest struct {
	ParentRecordID     string
	WorkTypeID         string
	ServiceTerritoryID string
	ResourceID         string
	Start              time.Time
	End                time.Time
	Subject            string
	Description        string
	Street             string
	City               string
}

// BookingConfirmation is the handle returned by a successful submission.
// Subject carries the derived display subject that was sent upstream.
type BookingConfirmation struct {
	AppointmentID string
	Subject       string
}

// Appointment is an existing upstream service appointment, used for the
// read-only dashboard listing.
type Appointment struct {
	ID                string
	AppointmentNumber string
	Status            string
	Start             time.Time
	End               time.Time
	TerritoryName     string
	WorkTypeName      string
	Description       string
}

// Platform is the upstream scheduling platform consumed by this package.
// Implementations translate transport failures into ErrUpstreamAuth /
// ErrUpstreamUnavailable so callers never see raw HTTP errors.
type Platform interface {
	WorkTypeGroups(ctx context.Context) ([]WorkTypeGroup, error)
	ServiceTerritories(ctx context.Context, workTypeGroupID string, start, end time.Time) ([]ServiceTerritory, error)
	ServiceResources(ctx context.Context) ([]ServiceResource, error)
	BusinessHours(ctx context.Context, id string) (*BusinessHours, error)
	AppointmentCandidates(ctx context.Context, q CandidateQuery) ([]AppointmentCandidate, error)
	CreateAppointment(ctx context.Context, req BookingRequest) (BookingConfirmation, error)
}
