package salesforce

import (
	"time"

	"github.com/example/field-scheduler/internal/booking"
)

// Wire DTOs for the connect scheduling API and SOQL record shapes. Every
// upstream field is optional here; defaulting happens once when the DTO is
// converted, so the rest of the code only sees normalized types.

type workTypeGroupsResponse struct {
	WorkTypeGroups []workTypeGroupRecord `json:"workTypeGroups"`
}

type workTypeGroupRecord struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	IsActive  bool             `json:"isActive"`
	GroupType string           `json:"groupType"`
	WorkTypes []workTypeRecord `json:"workTypes"`
}

type workTypeRecord struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	EstimatedDuration int    `json:"estimatedDuration"`
	DurationType      string `json:"durationType"`
}

type serviceTerritoriesResponse struct {
	Result struct {
		ServiceTerritories []serviceTerritoryRecord `json:"serviceTerritories"`
	} `json:"result"`
}

type serviceTerritoryRecord struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	OperatingHoursID string `json:"operatingHoursId"`
	Street           string `json:"street"`
	City             string `json:"city"`
	State            string `json:"state"`
}

type serviceResourcesResponse struct {
	ServiceResources []serviceResourceRecord `json:"serviceResources"`
}

type serviceResourceRecord struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	ResourceType    string `json:"resourceType"`
	RelatedRecordID string `json:"relatedRecordId"`
	IsActive        bool   `json:"isActive"`
	Email           string `json:"email"`
	Title           string `json:"title"`
	Language        string `json:"language"`
	PhotoURL        string `json:"photoUrl"`
}

// businessHoursRecord is the standard per-day-of-week operating hours
// sobject: one start/end pair per weekday plus an IANA time zone key.
type businessHoursRecord struct {
	ID             string `json:"Id"`
	Name           string `json:"Name"`
	TimeZoneSidKey string `json:"TimeZoneSidKey"`

	MondayStartTime    string `json:"MondayStartTime"`
	MondayEndTime      string `json:"MondayEndTime"`
	TuesdayStartTime   string `json:"TuesdayStartTime"`
	TuesdayEndTime     string `json:"TuesdayEndTime"`
	WednesdayStartTime string `json:"WednesdayStartTime"`
	WednesdayEndTime   string `json:"WednesdayEndTime"`
	ThursdayStartTime  string `json:"ThursdayStartTime"`
	ThursdayEndTime    string `json:"ThursdayEndTime"`
	FridayStartTime    string `json:"FridayStartTime"`
	FridayEndTime      string `json:"FridayEndTime"`
	SaturdayStartTime  string `json:"SaturdayStartTime"`
	SaturdayEndTime    string `json:"SaturdayEndTime"`
	SundayStartTime    string `json:"SundayStartTime"`
	SundayEndTime      string `json:"SundayEndTime"`
}

func (r businessHoursRecord) toDomain() *booking.BusinessHours {
	bh := &booking.BusinessHours{
		ID:       r.ID,
		Name:     r.Name,
		TimeZone: r.TimeZoneSidKey,
		Days:     map[time.Weekday]booking.DayWindow{},
	}
	set := func(day time.Weekday, start, end string) {
		if start != "" && end != "" {
			bh.Days[day] = booking.DayWindow{Start: start, End: end}
		}
	}
	set(time.Monday, r.MondayStartTime, r.MondayEndTime)
	set(time.Tuesday, r.TuesdayStartTime, r.TuesdayEndTime)
	set(time.Wednesday, r.WednesdayStartTime, r.WednesdayEndTime)
	set(time.Thursday, r.ThursdayStartTime, r.ThursdayEndTime)
	set(time.Friday, r.FridayStartTime, r.FridayEndTime)
	set(time.Saturday, r.SaturdayStartTime, r.SaturdayEndTime)
	set(time.Sunday, r.SundayStartTime, r.SundayEndTime)
	return bh
}

type workTypeRef struct {
	ID string `json:"id"`
}

type candidateRequest struct {
	StartTime                 string       `json:"startTime"`
	EndTime                   string       `json:"endTime"`
	WorkTypeGroupID           string       `json:"workTypeGroupId,omitempty"`
	WorkType                  *workTypeRef `json:"workType,omitempty"`
	TerritoryIDs              []string     `json:"territoryIds"`
	SchedulingPolicyID        *string      `json:"schedulingPolicyId"`
	AccountID                 *string      `json:"accountId"`
	AllowConcurrentScheduling bool         `json:"allowConcurrentScheduling"`
}

type candidatesResponse struct {
	Candidates []candidateRecord `json:"candidates"`
}

type candidateRecord struct {
	StartTime   string   `json:"startTime"`
	EndTime     string   `json:"endTime"`
	TerritoryID string   `json:"territoryId"`
	Resources   []string `json:"resources"`
}

type createAppointmentRequest struct {
	ServiceAppointment serviceAppointmentBody `json:"serviceAppointment"`
	AssignedResources  []assignedResourceBody `json:"assignedResources"`
}

type serviceAppointmentBody struct {
	ParentRecordID     string `json:"parentRecordId"`
	WorkTypeID         string `json:"workTypeId"`
	ServiceTerritoryID string `json:"serviceTerritoryId"`
	SchedStartTime     string `json:"schedStartTime"`
	SchedEndTime       string `json:"schedEndTime"`
	AppointmentType    string `json:"appointmentType"`
	Status             string `json:"status"`
	Subject            string `json:"subject,omitempty"`
	Description        string `json:"description,omitempty"`
	Street             string `json:"street,omitempty"`
	City               string `json:"city,omitempty"`
}

type assignedResourceBody struct {
	ServiceResourceID  string `json:"serviceResourceId"`
	IsPrimaryResource  bool   `json:"isPrimaryResource"`
	IsRequiredResource bool   `json:"isRequiredResource"`
}

type createAppointmentResponse struct {
	ID                   string `json:"id"`
	ServiceAppointmentID string `json:"serviceAppointmentId"`
}

type namedRecord struct {
	Name string `json:"Name"`
}

type appointmentRecord struct {
	ID                string       `json:"Id"`
	AppointmentNumber string       `json:"AppointmentNumber"`
	Status            string       `json:"Status"`
	SchedStartTime    string       `json:"SchedStartTime"`
	SchedEndTime      string       `json:"SchedEndTime"`
	ServiceTerritory  *namedRecord `json:"ServiceTerritory"`
	WorkType          *namedRecord `json:"WorkType"`
	Description       string       `json:"Description"`
}

type accountRecord struct {
	ID          string `json:"Id"`
	Name        string `json:"Name"`
	PersonEmail string `json:"PersonEmail"`
	Phone       string `json:"Phone"`
}
