package web

import (
	"net/http"
	"strconv"

	"github.com/example/field-scheduler/internal/auth"
	"github.com/example/field-scheduler/internal/booking"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func (s *Server) handleWorkTypeGroups(w http.ResponseWriter, r *http.Request) {
	st, _, ok := s.upstreamOr(w, r)
	if !ok {
		return
	}
	groups, err := st.resolver.WorkTypeGroups(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]workTypeGroupView, 0, len(groups))
	for _, g := range groups {
		gv := workTypeGroupView{ID: g.ID, Name: g.Name, GroupType: g.GroupType}
		for _, wt := range g.WorkTypes {
			gv.WorkTypes = append(gv.WorkTypes, toWorkTypeView(wt))
		}
		out = append(out, gv)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleTerritories(w http.ResponseWriter, r *http.Request) {
	st, _, ok := s.upstreamOr(w, r)
	if !ok {
		return
	}
	territories, err := st.resolver.ListServiceTerritories(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]territoryView, 0, len(territories))
	for _, t := range territories {
		out = append(out, toTerritoryView(t))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleResources(w http.ResponseWriter, r *http.Request) {
	st, _, ok := s.upstreamOr(w, r)
	if !ok {
		return
	}
	resources, err := st.resolver.ListServiceResources(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]resourceView, 0, len(resources))
	for _, res := range resources {
		out = append(out, toResourceView(res))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleBusinessHours(w http.ResponseWriter, r *http.Request) {
	st, _, ok := s.upstreamOr(w, r)
	if !ok {
		return
	}
	hours, err := st.upstream.BusinessHours(r.Context(), chi.URLParam(r, "hoursID"))
	if err != nil {
		writeError(w, err)
		return
	}
	if hours == nil {
		writeErrorMsg(w, http.StatusNotFound, "not_found", "business hours record not found")
		return
	}
	writeJSON(w, http.StatusOK, toBusinessHoursView(*hours))
}

type candidatesRequest struct {
	WorkTypeGroupID string `json:"workTypeGroupId"`
	WorkTypeID      string `json:"workTypeId"`
	TerritoryID     string `json:"territoryId"`
	CustomerID      string `json:"customerId"`
}

// handleCandidates resolves availability outside a flow, for callers that
// only want to browse open slots.
func (s *Server) handleCandidates(w http.ResponseWriter, r *http.Request) {
	st, _, ok := s.upstreamOr(w, r)
	if !ok {
		return
	}

	var req candidatesRequest
	if err := decodeJSON(r, &req); err != nil || req.WorkTypeGroupID == "" || req.TerritoryID == "" {
		writeErrorMsg(w, http.StatusBadRequest, "bad_request", "workTypeGroupId and territoryId are required")
		return
	}

	groups, err := st.resolver.WorkTypeGroups(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	wt, ok := findWorkType(groups, req.WorkTypeGroupID, req.WorkTypeID)
	if !ok {
		writeErrorMsg(w, http.StatusNotFound, "not_found", "work type not found")
		return
	}

	territories, err := st.resolver.ListServiceTerritories(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	var territory *booking.ServiceTerritory
	for i := range territories {
		if territories[i].ID == req.TerritoryID {
			territory = &territories[i]
			break
		}
	}
	if territory == nil {
		writeErrorMsg(w, http.StatusNotFound, "not_found", "territory not found")
		return
	}

	set, err := st.composer.Resolve(r.Context(), wt, *territory, req.CustomerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCandidateSetView(set))
}

func (s *Server) handleCustomers(w http.ResponseWriter, r *http.Request) {
	st, _, ok := s.upstreamOr(w, r)
	if !ok {
		return
	}
	customers, err := st.upstream.Customers(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]customerView, 0, len(customers))
	for _, c := range customers {
		out = append(out, toCustomerView(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAppointments(w http.ResponseWriter, r *http.Request) {
	st, _, ok := s.upstreamOr(w, r)
	if !ok {
		return
	}
	appts, err := st.upstream.ListAppointments(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]appointmentView, 0, len(appts))
	for _, a := range appts {
		out = append(out, toAppointmentView(a))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleBookingLog(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	bookings, err := s.Bookings.ListByUser(r.Context(), uid)
	if err != nil {
		s.Log.Error("list bookings", zap.Int64("user_id", uid), zap.Error(err))
		writeError(w, err)
		return
	}

	out := make([]bookingLogView, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, toBookingLogView(b))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleBookingDetail(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "bookingID"), 10, 64)
	if err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "bad_request", "invalid booking id")
		return
	}

	b, err := s.Bookings.GetByIDForUser(r.Context(), id, uid)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingLogView(b))
}
