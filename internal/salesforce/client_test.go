package salesforce

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/field-scheduler/internal/booking"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(
		Credentials{AccessToken: "tok", TenantEndpoint: srv.URL},
		WithHTTPClient(srv.Client()),
	)
}

func TestCredentialsValid(t *testing.T) {
	assert.False(t, Credentials{}.Valid())
	assert.False(t, Credentials{AccessToken: "tok"}.Valid())
	assert.False(t, Credentials{TenantEndpoint: "https://x"}.Valid())
	assert.True(t, Credentials{AccessToken: "tok", TenantEndpoint: "https://x"}.Valid())
}

func TestDoSendsBearerToken(t *testing.T) {
	var auth string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.Write([]byte(`{"workTypeGroups":[]}`))
	})

	_, err := c.WorkTypeGroups(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok", auth)
}

func TestDoMapsStatusCodes(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "unauthorized",
			status: http.StatusUnauthorized,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, booking.ErrUpstreamAuth)
			},
		},
		{
			name:   "forbidden",
			status: http.StatusForbidden,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, booking.ErrUpstreamAuth)
			},
		},
		{
			name:   "server error",
			status: http.StatusInternalServerError,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, booking.ErrUpstreamUnavailable)
			},
		},
		{
			name:   "rejection with object message",
			status: http.StatusBadRequest,
			body:   `{"message":"territory is not schedulable"}`,
			check: func(t *testing.T, err error) {
				var rej *booking.UpstreamRejection
				require.ErrorAs(t, err, &rej)
				assert.Equal(t, "territory is not schedulable", rej.Message)
			},
		},
		{
			name:   "rejection with array message",
			status: http.StatusBadRequest,
			body:   `[{"message":"INVALID_FIELD","errorCode":"INVALID_FIELD"}]`,
			check: func(t *testing.T, err error) {
				var rej *booking.UpstreamRejection
				require.ErrorAs(t, err, &rej)
				assert.Equal(t, "INVALID_FIELD", rej.Message)
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			})
			_, err := c.WorkTypeGroups(context.Background())
			require.Error(t, err)
			tc.check(t, err)
		})
	}
}

func TestWorkTypeGroupsDecode(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/services/data/v59.0/connect/scheduling/work-type-groups", r.URL.Path)
		w.Write([]byte(`{"workTypeGroups":[
			{"id":"wtg1","name":"Consultations","isActive":true,"workTypes":[
				{"id":"wt1","name":"Consultation","estimatedDuration":45,"durationType":"Minutes"}
			]},
			{"id":"wtg2","name":"Repairs","isActive":false,"groupType":"Default"}
		]}`))
	})

	groups, err := c.WorkTypeGroups(context.Background())
	require.NoError(t, err)
	require.Len(t, groups, 2)

	assert.Equal(t, "wtg1", groups[0].ID)
	assert.True(t, groups[0].Active)
	assert.Equal(t, "Standard", groups[0].GroupType, "missing group type is defaulted")
	require.Len(t, groups[0].WorkTypes, 1)
	assert.Equal(t, 45, groups[0].WorkTypes[0].EstimatedDuration)
	assert.Equal(t, "Minutes", groups[0].WorkTypes[0].DurationUnit)

	assert.False(t, groups[1].Active)
	assert.Equal(t, "Default", groups[1].GroupType)
}

func TestServiceTerritoriesQueryAndDecode(t *testing.T) {
	start := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/services/data/v59.0/connect/scheduling/service-territories", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "wtg1", q.Get("workTypeGroupId"))
		assert.Equal(t, "2026-03-10T12:00:00Z", q.Get("scheduleStartDate"))
		assert.Equal(t, "2026-03-11T12:00:00Z", q.Get("scheduleEndDate"))
		assert.Equal(t, "All", q.Get("territoryOption"))
		w.Write([]byte(`{"result":{"serviceTerritories":[
			{"id":"t1","name":"Downtown","operatingHoursId":"oh1","street":"1 Main St","city":"Springfield","state":"IL"}
		]}}`))
	})

	territories, err := c.ServiceTerritories(context.Background(), "wtg1", start, end)
	require.NoError(t, err)
	require.Len(t, territories, 1)
	assert.Equal(t, "t1", territories[0].ID)
	assert.Equal(t, "oh1", territories[0].OperatingHoursID)
	assert.Equal(t, "1 Main St, Springfield, IL", territories[0].Address())
}

func TestServiceResourcesDropsInactive(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"serviceResources":[
			{"id":"r1","name":"Jane Tech","isActive":true,"resourceType":"T"},
			{"id":"r2","name":"Gone Person","isActive":false}
		]}`))
	})

	resources, err := c.ServiceResources(context.Background())
	require.NoError(t, err)
	require.Len(t, resources, 1)
	assert.Equal(t, "r1", resources[0].ID)
}

func TestBusinessHours(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/services/data/v59.0/sobjects/BusinessHours/oh1", r.URL.Path)
		w.Write([]byte(`{"Id":"oh1","Name":"Downtown Hours","TimeZoneSidKey":"America/New_York",
			"MondayStartTime":"09:00:00","MondayEndTime":"17:00:00",
			"TuesdayStartTime":"","TuesdayEndTime":""}`))
	})

	hours, err := c.BusinessHours(context.Background(), "oh1")
	require.NoError(t, err)
	require.NotNil(t, hours)
	assert.Equal(t, "America/New_York", hours.TimeZone)
	require.Contains(t, hours.Days, time.Monday)
	assert.Equal(t, "09:00:00", hours.Days[time.Monday].Start)
	assert.NotContains(t, hours.Days, time.Tuesday, "blank windows are closed days")
}

func TestBusinessHoursNotFound(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`[{"message":"The requested resource does not exist","errorCode":"NOT_FOUND"}]`))
	})

	hours, err := c.BusinessHours(context.Background(), "oh-missing")
	require.NoError(t, err)
	assert.Nil(t, hours)
}

func TestBusinessHoursEmptyID(t *testing.T) {
	c := New(Credentials{AccessToken: "tok", TenantEndpoint: "https://example.invalid"})
	hours, err := c.BusinessHours(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, hours)
}

func TestAppointmentCandidatesPayload(t *testing.T) {
	var got map[string]any
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/services/data/v59.0/connect/scheduling/getAppointmentCandidates", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"candidates":[
			{"startTime":"2026-03-10T15:00:00Z","endTime":"2026-03-10T15:30:00Z","territoryId":"t1","resources":["r1","r2"]},
			{"startTime":"not-a-time","endTime":"2026-03-10T16:00:00Z","territoryId":"t1","resources":["r1"]}
		]}`))
	})

	q := booking.CandidateQuery{
		Start:           time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		End:             time.Date(2026, 3, 17, 0, 0, 0, 0, time.UTC),
		WorkTypeGroupID: "wtg1",
		TerritoryIDs:    []string{"t1"},
		AccountID:       "acc1",
	}
	cands, err := c.AppointmentCandidates(context.Background(), q)
	require.NoError(t, err)

	assert.Equal(t, "wtg1", got["workTypeGroupId"])
	assert.NotContains(t, got, "workType", "group scoping wins over the work-type reference")
	assert.Equal(t, []any{"t1"}, got["territoryIds"])
	assert.Equal(t, "acc1", got["accountId"])
	assert.Nil(t, got["schedulingPolicyId"])
	assert.Equal(t, false, got["allowConcurrentScheduling"])

	require.Len(t, cands, 1, "unparsable candidates are dropped")
	assert.Equal(t, []string{"r1", "r2"}, cands[0].Resources)
}

func TestAppointmentCandidatesWorkTypeFallback(t *testing.T) {
	var got map[string]any
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"candidates":[]}`))
	})

	_, err := c.AppointmentCandidates(context.Background(), booking.CandidateQuery{
		Start:        time.Now(),
		End:          time.Now().Add(time.Hour),
		WorkTypeID:   "wt1",
		TerritoryIDs: []string{"t1"},
	})
	require.NoError(t, err)
	assert.NotContains(t, got, "workTypeGroupId")
	assert.Equal(t, map[string]any{"id": "wt1"}, got["workType"])
}

func TestCreateAppointmentPayload(t *testing.T) {
	var got createAppointmentRequest
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/services/data/v59.0/connect/scheduling/service-appointments", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"serviceAppointmentId":"app1"}`))
	})

	start := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	conf, err := c.CreateAppointment(context.Background(), booking.BookingRequest{
		ParentRecordID:     "acc1",
		WorkTypeID:         "wt1",
		ServiceTerritoryID: "t1",
		ResourceID:         "r1",
		Start:              start,
		End:                start.Add(30 * time.Minute),
		Subject:            "Jane Tech - Alice - Mar 10, 11:00 AM",
	})
	require.NoError(t, err)
	assert.Equal(t, "app1", conf.AppointmentID, "falls back to serviceAppointmentId")

	assert.Equal(t, "In Person", got.ServiceAppointment.AppointmentType)
	assert.Equal(t, "Scheduled", got.ServiceAppointment.Status)
	assert.Equal(t, "2026-03-10T15:00:00Z", got.ServiceAppointment.SchedStartTime)
	require.Len(t, got.AssignedResources, 1)
	assert.Equal(t, "r1", got.AssignedResources[0].ServiceResourceID)
	assert.True(t, got.AssignedResources[0].IsPrimaryResource)
	assert.True(t, got.AssignedResources[0].IsRequiredResource)
}

func TestCreateAppointmentRejection(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`[{"message":"Appointment overlaps an absence"}]`))
	})

	_, err := c.CreateAppointment(context.Background(), booking.BookingRequest{})
	var rej *booking.UpstreamRejection
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, "Appointment overlaps an absence", rej.Message)
}

func TestListAppointmentsQuery(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/services/data/v59.0/query/", r.URL.Path)
		soql := r.URL.Query().Get("q")
		assert.Contains(t, soql, "FROM ServiceAppointment")
		assert.Contains(t, soql, "Status NOT IN ('Completed','Canceled')")
		w.Write([]byte(`{"records":[
			{"Id":"app1","AppointmentNumber":"SA-0001","Status":"Scheduled",
			 "SchedStartTime":"2026-03-10T15:00:00Z","SchedEndTime":"2026-03-10T15:30:00Z",
			 "ServiceTerritory":{"Name":"Downtown"},"WorkType":{"Name":"Consultation"}},
			{"Id":"app2","AppointmentNumber":"SA-0002","Status":"Scheduled",
			 "SchedStartTime":"2026-03-11T15:00:00Z","SchedEndTime":"2026-03-11T15:30:00Z"}
		]}`))
	})

	appts, err := c.ListAppointments(context.Background())
	require.NoError(t, err)
	require.Len(t, appts, 2)
	assert.Equal(t, "Downtown", appts[0].TerritoryName)
	assert.Equal(t, "Consultation", appts[0].WorkTypeName)
	assert.Equal(t, time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC), appts[0].Start)
	assert.Empty(t, appts[1].TerritoryName, "null relations decode to empty names")
}

func TestCustomersSearchEscaping(t *testing.T) {
	var soql string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		soql = r.URL.Query().Get("q")
		w.Write([]byte(`{"records":[{"Id":"acc1","Name":"Alice O'Neal","PersonEmail":"alice@example.com","Phone":"555-0100"}]}`))
	})

	customers, err := c.Customers(context.Background(), "O'Neal")
	require.NoError(t, err)
	assert.Contains(t, soql, `Name LIKE '%O\'Neal%'`)
	require.Len(t, customers, 1)
	assert.Equal(t, "alice@example.com", customers[0].Email)
}

func TestCustomerNotFound(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"records":[]}`))
	})

	customer, err := c.Customer(context.Background(), "acc-missing")
	require.NoError(t, err)
	assert.Nil(t, customer)
}
