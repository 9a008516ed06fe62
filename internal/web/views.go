package web

import (
	"time"

	"github.com/example/field-scheduler/internal/booking"
	"github.com/example/field-scheduler/internal/records"
)

type workTypeView struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	GroupID           string `json:"groupId"`
	EstimatedDuration int    `json:"estimatedDuration"`
	DurationUnit      string `json:"durationUnit"`
}

type workTypeGroupView struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	GroupType string         `json:"groupType"`
	WorkTypes []workTypeView `json:"workTypes"`
}

type territoryView struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Address          string `json:"address"`
	OperatingHoursID string `json:"operatingHoursId,omitempty"`
}

type resourceView struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ResourceType string `json:"resourceType"`
	Email        string `json:"email,omitempty"`
	Title        string `json:"title,omitempty"`
	PhotoURL     string `json:"photoUrl,omitempty"`
}

type customerView struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

type candidateView struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Resources []string  `json:"resources"`
}

type dateGroupView struct {
	Date       string          `json:"date"`
	Candidates []candidateView `json:"candidates"`
}

type flowView struct {
	ID          string          `json:"id"`
	State       string          `json:"state"`
	Customer    customerView    `json:"customer"`
	WorkType    *workTypeView   `json:"workType,omitempty"`
	Territory   *territoryView  `json:"territory,omitempty"`
	Slot        *candidateView  `json:"slot,omitempty"`
	Resource    *resourceView   `json:"resource,omitempty"`
	Candidates  []dateGroupView `json:"candidates,omitempty"`
	Unvalidated bool            `json:"unvalidated,omitempty"`
}

type dayWindowView struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type businessHoursView struct {
	ID       string                   `json:"id"`
	Name     string                   `json:"name"`
	TimeZone string                   `json:"timeZone"`
	Days     map[string]dayWindowView `json:"days"`
}

type candidateSetView struct {
	Candidates  []dateGroupView `json:"candidates"`
	Unvalidated bool            `json:"unvalidated,omitempty"`
	TimeZone    string          `json:"timeZone"`
}

type bookingLogView struct {
	ID            int64     `json:"id"`
	AppointmentID string    `json:"appointmentId"`
	CustomerName  string    `json:"customerName"`
	WorkTypeName  string    `json:"workTypeName"`
	TerritoryName string    `json:"territoryName"`
	ResourceName  string    `json:"resourceName"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	Subject       string    `json:"subject"`
	CreatedAt     time.Time `json:"createdAt"`
}

type appointmentView struct {
	ID                string    `json:"id"`
	AppointmentNumber string    `json:"appointmentNumber"`
	Status            string    `json:"status"`
	Start             time.Time `json:"start"`
	End               time.Time `json:"end"`
	TerritoryName     string    `json:"territoryName,omitempty"`
	WorkTypeName      string    `json:"workTypeName,omitempty"`
	Description       string    `json:"description,omitempty"`
}

func toWorkTypeView(wt booking.WorkType) workTypeView {
	return workTypeView{
		ID:                wt.ID,
		Name:              wt.Name,
		GroupID:           wt.GroupID,
		EstimatedDuration: wt.EstimatedDuration,
		DurationUnit:      wt.DurationUnit,
	}
}

func toTerritoryView(t booking.ServiceTerritory) territoryView {
	return territoryView{
		ID:               t.ID,
		Name:             t.Name,
		Address:          t.Address(),
		OperatingHoursID: t.OperatingHoursID,
	}
}

func toResourceView(r booking.ServiceResource) resourceView {
	return resourceView{
		ID:           r.ID,
		Name:         r.Name,
		ResourceType: r.ResourceType,
		Email:        r.Email,
		Title:        r.Title,
		PhotoURL:     r.PhotoURL,
	}
}

func toCustomerView(c booking.Customer) customerView {
	return customerView{ID: c.ID, Name: c.Name, Email: c.Email, Phone: c.Phone}
}

func toCandidateView(c booking.AppointmentCandidate) candidateView {
	return candidateView{Start: c.Start, End: c.End, Resources: c.Resources}
}

func toFlowView(sess *flowSession) flowView {
	flow := sess.flow
	draft := flow.Draft()

	v := flowView{
		ID:       sess.id,
		State:    flow.State().String(),
		Customer: toCustomerView(*draft.Customer),
	}
	if draft.WorkType != nil {
		wt := toWorkTypeView(*draft.WorkType)
		v.WorkType = &wt
	}
	if draft.Territory != nil {
		t := toTerritoryView(*draft.Territory)
		v.Territory = &t
	}
	if draft.Slot != nil {
		c := toCandidateView(*draft.Slot)
		v.Slot = &c
	}
	if draft.Resource != nil {
		res := toResourceView(*draft.Resource)
		v.Resource = &res
	}

	if flow.State() == booking.SelectingTimeSlot {
		set := flow.Candidates()
		v.Unvalidated = set.Unvalidated
		loc := set.Location
		if loc == nil {
			loc = time.UTC
		}
		for _, g := range booking.GroupByDate(set.Candidates, loc) {
			gv := dateGroupView{Date: g.Date}
			for _, c := range g.Candidates {
				gv.Candidates = append(gv.Candidates, toCandidateView(c))
			}
			v.Candidates = append(v.Candidates, gv)
		}
	}
	return v
}

func toBusinessHoursView(h booking.BusinessHours) businessHoursView {
	v := businessHoursView{
		ID:       h.ID,
		Name:     h.Name,
		TimeZone: h.TimeZone,
		Days:     map[string]dayWindowView{},
	}
	for day, w := range h.Days {
		v.Days[day.String()] = dayWindowView{Start: w.Start, End: w.End}
	}
	return v
}

func toCandidateSetView(set booking.CandidateSet) candidateSetView {
	loc := set.Location
	if loc == nil {
		loc = time.UTC
	}
	v := candidateSetView{
		Candidates:  []dateGroupView{},
		Unvalidated: set.Unvalidated,
		TimeZone:    loc.String(),
	}
	for _, g := range booking.GroupByDate(set.Candidates, loc) {
		gv := dateGroupView{Date: g.Date}
		for _, c := range g.Candidates {
			gv.Candidates = append(gv.Candidates, toCandidateView(c))
		}
		v.Candidates = append(v.Candidates, gv)
	}
	return v
}

func toBookingLogView(b records.Booking) bookingLogView {
	return bookingLogView{
		ID:            b.ID,
		AppointmentID: b.AppointmentID,
		CustomerName:  b.CustomerName,
		WorkTypeName:  b.WorkTypeName,
		TerritoryName: b.TerritoryName,
		ResourceName:  b.ResourceName,
		Start:         b.Start,
		End:           b.End,
		Subject:       b.Subject,
		CreatedAt:     b.CreatedAt,
	}
}

func toAppointmentView(a booking.Appointment) appointmentView {
	return appointmentView{
		ID:                a.ID,
		AppointmentNumber: a.AppointmentNumber,
		Status:            a.Status,
		Start:             a.Start,
		End:               a.End,
		TerritoryName:     a.TerritoryName,
		WorkTypeName:      a.WorkTypeName,
		Description:       a.Description,
	}
}
