// Package salesforce implements the upstream scheduling platform client
// against the Salesforce Scheduler connect API surface. All responses are
// decoded into local wire DTOs and converted to booking types at the edge;
// transport and auth failures are translated into the booking error
// taxonomy so callers never handle raw HTTP errors.
package salesforce

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/example/field-scheduler/internal/booking"
	"github.com/example/field-scheduler/internal/metrics"
)

const apiVersion = "v59.0"

// Credentials is the authenticated session handed to the client: an access
// token plus the tenant's instance endpoint. The client never negotiates
// tokens itself.
type Credentials struct {
	AccessToken    string
	TenantEndpoint string
}

func (c Credentials) Valid() bool {
	return c.AccessToken != "" && c.TenantEndpoint != ""
}

type Client struct {
	hc    *http.Client
	creds Credentials
}

// Option tweaks client construction; used by tests to shorten timeouts.
type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

func New(creds Credentials, opts ...Option) *Client {
	c := &Client{
		hc:    &http.Client{Timeout: 15 * time.Second},
		creds: creds,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// schedulingURL builds a URL under the connect scheduling API root.
func (c *Client) schedulingURL(endpoint string) string {
	return fmt.Sprintf("%s/services/data/%s/connect/scheduling%s", c.creds.TenantEndpoint, apiVersion, endpoint)
}

func (c *Client) dataURL(endpoint string) string {
	return fmt.Sprintf("%s/services/data/%s%s", c.creds.TenantEndpoint, apiVersion, endpoint)
}

// query runs one SOQL query and decodes the record array. Reference data
// that has no connect endpoint (customers, appointment history) is read
// this way.
func (c *Client) query(ctx context.Context, soql string, records any) error {
	q := url.Values{}
	q.Set("q", soql)
	var res struct {
		Records json.RawMessage `json:"records"`
	}
	if err := c.do(ctx, http.MethodGet, c.dataURL("/query/"), q, nil, &res); err != nil {
		return err
	}
	if len(res.Records) == 0 {
		return nil
	}
	if err := json.Unmarshal(res.Records, records); err != nil {
		return fmt.Errorf("%w: decode records: %v", booking.ErrUpstreamUnavailable, err)
	}
	return nil
}

// do issues one request and maps the response status into the booking
// error taxonomy: 401/403 means the credential was rejected, anything else
// non-2xx (and any transport error) means the platform is unavailable.
func (c *Client) do(ctx context.Context, method, rawURL string, query url.Values, body any, out any) error {
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		rd = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, rd)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.creds.AccessToken)
	req.Header.Set("Content-Type", "application/json")
	if query != nil {
		req.URL.RawQuery = query.Encode()
	}

	res, err := c.hc.Do(req)
	if err != nil {
		metrics.UpstreamRequest(req.URL.Path, "transport_error")
		return fmt.Errorf("%w: %v", booking.ErrUpstreamUnavailable, err)
	}
	defer res.Body.Close()

	metrics.UpstreamRequest(req.URL.Path, fmt.Sprintf("%d", res.StatusCode))

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %v", booking.ErrUpstreamUnavailable, err)
	}

	switch {
	case res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w (status=%d)", booking.ErrUpstreamAuth, res.StatusCode)
	case res.StatusCode >= 400 && res.StatusCode < 500:
		// Client-side rejection: surface the platform's message verbatim.
		return &booking.UpstreamRejection{Message: errorMessage(raw)}
	case res.StatusCode >= 500:
		return fmt.Errorf("%w (status=%d)", booking.ErrUpstreamUnavailable, res.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: decode response: %v", booking.ErrUpstreamUnavailable, err)
	}
	return nil
}

// errorMessage pulls the human-readable message out of the platform's
// error body, which arrives either as one object or an array of them.
func errorMessage(raw []byte) string {
	var single struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &single); err == nil && single.Message != "" {
		return single.Message
	}
	var many []struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &many); err == nil && len(many) > 0 {
		return many[0].Message
	}
	return ""
}

// WorkTypeGroups lists active work-type groups with their nested work
// types. Inactive records are filtered again by the resolver; the query
// already asks for active ones.
func (c *Client) WorkTypeGroups(ctx context.Context) ([]booking.WorkTypeGroup, error) {
	var res workTypeGroupsResponse
	if err := c.do(ctx, http.MethodGet, c.schedulingURL("/work-type-groups"), nil, nil, &res); err != nil {
		return nil, err
	}

	out := make([]booking.WorkTypeGroup, 0, len(res.WorkTypeGroups))
	for _, g := range res.WorkTypeGroups {
		group := booking.WorkTypeGroup{
			ID:        g.ID,
			Name:      g.Name,
			Active:    g.IsActive,
			GroupType: g.GroupType,
		}
		if group.GroupType == "" {
			group.GroupType = "Standard"
		}
		for _, wt := range g.WorkTypes {
			group.WorkTypes = append(group.WorkTypes, booking.WorkType{
				ID:                wt.ID,
				Name:              wt.Name,
				EstimatedDuration: wt.EstimatedDuration,
				DurationUnit:      wt.DurationType,
			})
		}
		out = append(out, group)
	}
	return out, nil
}

// ServiceTerritories lists territories schedulable for one work-type group
// inside the given window.
func (c *Client) ServiceTerritories(ctx context.Context, workTypeGroupID string, start, end time.Time) ([]booking.ServiceTerritory, error) {
	q := url.Values{}
	q.Set("workTypeGroupId", workTypeGroupID)
	q.Set("scheduleStartDate", start.UTC().Format(time.RFC3339))
	q.Set("scheduleEndDate", end.UTC().Format(time.RFC3339))
	q.Set("territoryOption", "All")

	var res serviceTerritoriesResponse
	if err := c.do(ctx, http.MethodGet, c.schedulingURL("/service-territories"), q, nil, &res); err != nil {
		return nil, err
	}

	out := make([]booking.ServiceTerritory, 0, len(res.Result.ServiceTerritories))
	for _, t := range res.Result.ServiceTerritories {
		out = append(out, booking.ServiceTerritory{
			ID:               t.ID,
			Name:             t.Name,
			OperatingHoursID: t.OperatingHoursID,
			Street:           t.Street,
			City:             t.City,
			State:            t.State,
		})
	}
	return out, nil
}

// ServiceResources lists active schedulable associates with their related
// contact details.
func (c *Client) ServiceResources(ctx context.Context) ([]booking.ServiceResource, error) {
	var res serviceResourcesResponse
	if err := c.do(ctx, http.MethodGet, c.schedulingURL("/service-resources"), nil, nil, &res); err != nil {
		return nil, err
	}

	out := make([]booking.ServiceResource, 0, len(res.ServiceResources))
	for _, r := range res.ServiceResources {
		if !r.IsActive {
			continue
		}
		out = append(out, booking.ServiceResource{
			ID:              r.ID,
			Name:            r.Name,
			FirstName:       r.FirstName,
			LastName:        r.LastName,
			ResourceType:    r.ResourceType,
			RelatedRecordID: r.RelatedRecordID,
			Email:           r.Email,
			Title:           r.Title,
			Language:        r.Language,
			PhotoURL:        r.PhotoURL,
		})
	}
	return out, nil
}

// BusinessHours fetches one operating-hours record by id. A 404 from the
// platform yields (nil, nil): the caller decides whether a missing record
// is a configuration error.
func (c *Client) BusinessHours(ctx context.Context, id string) (*booking.BusinessHours, error) {
	if id == "" {
		return nil, nil
	}
	var res businessHoursRecord
	err := c.do(ctx, http.MethodGet, c.dataURL("/sobjects/BusinessHours/"+url.PathEscape(id)), nil, nil, &res)
	if err != nil {
		var rej *booking.UpstreamRejection
		if errors.As(err, &rej) {
			return nil, nil
		}
		return nil, err
	}
	if res.ID == "" {
		return nil, nil
	}
	return res.toDomain(), nil
}

// AppointmentCandidates requests candidate slots for the query window.
// Concurrent scheduling is always disallowed.
func (c *Client) AppointmentCandidates(ctx context.Context, q booking.CandidateQuery) ([]booking.AppointmentCandidate, error) {
	payload := candidateRequest{
		StartTime:                 q.Start.UTC().Format(time.RFC3339),
		EndTime:                   q.End.UTC().Format(time.RFC3339),
		WorkTypeGroupID:           q.WorkTypeGroupID,
		TerritoryIDs:              q.TerritoryIDs,
		SchedulingPolicyID:        orNil(q.SchedulingPolicyID),
		AccountID:                 orNil(q.AccountID),
		AllowConcurrentScheduling: false,
	}
	if q.WorkTypeGroupID == "" && q.WorkTypeID != "" {
		payload.WorkType = &workTypeRef{ID: q.WorkTypeID}
	}

	var res candidatesResponse
	if err := c.do(ctx, http.MethodPost, c.schedulingURL("/getAppointmentCandidates"), nil, payload, &res); err != nil {
		return nil, err
	}

	out := make([]booking.AppointmentCandidate, 0, len(res.Candidates))
	for _, cand := range res.Candidates {
		start, err := time.Parse(time.RFC3339, cand.StartTime)
		if err != nil {
			continue
		}
		end, err := time.Parse(time.RFC3339, cand.EndTime)
		if err != nil {
			continue
		}
		out = append(out, booking.AppointmentCandidate{
			Start:       start,
			End:         end,
			TerritoryID: cand.TerritoryID,
			Resources:   cand.Resources,
		})
	}
	return out, nil
}

// CreateAppointment commits one booking: the service appointment plus its
// primary, required assigned resource, in a single call.
func (c *Client) CreateAppointment(ctx context.Context, req booking.BookingRequest) (booking.BookingConfirmation, error) {
	payload := createAppointmentRequest{
		ServiceAppointment: serviceAppointmentBody{
			ParentRecordID:     req.ParentRecordID,
			WorkTypeID:         req.WorkTypeID,
			ServiceTerritoryID: req.ServiceTerritoryID,
			SchedStartTime:     req.Start.UTC().Format(time.RFC3339),
			SchedEndTime:       req.End.UTC().Format(time.RFC3339),
			AppointmentType:    "In Person",
			Status:             "Scheduled",
			Subject:            req.Subject,
			Description:        req.Description,
			Street:             req.Street,
			City:               req.City,
		},
		AssignedResources: []assignedResourceBody{{
			ServiceResourceID:  req.ResourceID,
			IsPrimaryResource:  true,
			IsRequiredResource: true,
		}},
	}

	var res createAppointmentResponse
	if err := c.do(ctx, http.MethodPost, c.schedulingURL("/service-appointments"), nil, payload, &res); err != nil {
		metrics.BookingSubmitted("rejected")
		return booking.BookingConfirmation{}, err
	}
	if res.ID == "" {
		res.ID = res.ServiceAppointmentID
	}
	metrics.BookingSubmitted("created")
	return booking.BookingConfirmation{AppointmentID: res.ID}, nil
}

// ListAppointments returns non-terminal service appointments ordered by
// scheduled start, for the dashboard view.
func (c *Client) ListAppointments(ctx context.Context) ([]booking.Appointment, error) {
	const soql = `SELECT Id, AppointmentNumber, Status, SchedStartTime, SchedEndTime,
		ServiceTerritory.Name, WorkType.Name, Description
		FROM ServiceAppointment
		WHERE Status NOT IN ('Completed','Canceled')
		ORDER BY SchedStartTime ASC`

	var records []appointmentRecord
	if err := c.query(ctx, soql, &records); err != nil {
		return nil, err
	}

	out := make([]booking.Appointment, 0, len(records))
	for _, a := range records {
		appt := booking.Appointment{
			ID:                a.ID,
			AppointmentNumber: a.AppointmentNumber,
			Status:            a.Status,
			Description:       a.Description,
		}
		if a.ServiceTerritory != nil {
			appt.TerritoryName = a.ServiceTerritory.Name
		}
		if a.WorkType != nil {
			appt.WorkTypeName = a.WorkType.Name
		}
		if t, err := time.Parse(time.RFC3339, a.SchedStartTime); err == nil {
			appt.Start = t
		}
		if t, err := time.Parse(time.RFC3339, a.SchedEndTime); err == nil {
			appt.End = t
		}
		out = append(out, appt)
	}
	return out, nil
}

// Customers lists person accounts by name, optionally filtered by a
// case-insensitive substring search.
func (c *Client) Customers(ctx context.Context, search string) ([]booking.Customer, error) {
	soql := `SELECT Id, Name, PersonEmail, Phone FROM Account
		WHERE IsPersonAccount = true`
	if search != "" {
		soql += fmt.Sprintf(" AND Name LIKE '%%%s%%'", escapeSOQL(search))
	}
	soql += " ORDER BY Name ASC LIMIT 200"

	var records []accountRecord
	if err := c.query(ctx, soql, &records); err != nil {
		return nil, err
	}

	out := make([]booking.Customer, 0, len(records))
	for _, r := range records {
		out = append(out, booking.Customer{
			ID:    r.ID,
			Name:  r.Name,
			Email: r.PersonEmail,
			Phone: r.Phone,
		})
	}
	return out, nil
}

// Customer fetches one person account by id; (nil, nil) when it does not
// exist.
func (c *Client) Customer(ctx context.Context, id string) (*booking.Customer, error) {
	soql := fmt.Sprintf(`SELECT Id, Name, PersonEmail, Phone FROM Account
		WHERE Id = '%s' AND IsPersonAccount = true LIMIT 1`, escapeSOQL(id))

	var records []accountRecord
	if err := c.query(ctx, soql, &records); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &booking.Customer{
		ID:    records[0].ID,
		Name:  records[0].Name,
		Email: records[0].PersonEmail,
		Phone: records[0].Phone,
	}, nil
}

// escapeSOQL escapes single quotes and backslashes in a string literal
// destined for a SOQL WHERE clause.
func escapeSOQL(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

func orNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
