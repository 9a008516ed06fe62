package web

import (
	"net/http"
	"time"

	"github.com/example/field-scheduler/internal/booking"
	"github.com/example/field-scheduler/internal/records"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func (s *Server) flowSessionOr(w http.ResponseWriter, r *http.Request, userID int64) (*flowSession, bool) {
	sess, ok := s.flows.get(chi.URLParam(r, "flowID"), userID)
	if !ok {
		writeErrorMsg(w, http.StatusNotFound, "not_found", "booking flow not found")
		return nil, false
	}
	return sess, true
}

type flowCreateRequest struct {
	CustomerID string `json:"customerId"`
}

func (s *Server) handleFlowCreate(w http.ResponseWriter, r *http.Request) {
	st, uid, ok := s.upstreamOr(w, r)
	if !ok {
		return
	}

	var req flowCreateRequest
	if err := decodeJSON(r, &req); err != nil || req.CustomerID == "" {
		writeErrorMsg(w, http.StatusBadRequest, "bad_request", "customerId is required")
		return
	}

	customer, err := st.upstream.Customer(r.Context(), req.CustomerID)
	if err != nil {
		writeError(w, err)
		return
	}
	if customer == nil {
		writeErrorMsg(w, http.StatusNotFound, "not_found", "customer not found")
		return
	}

	flow := booking.NewFlow(*customer, st.composer)
	sess := s.flows.create(uid, flow)
	s.Log.Info("booking flow opened",
		zap.Int64("user_id", uid),
		zap.String("flow_id", sess.id),
		zap.String("customer_id", customer.ID))
	writeJSON(w, http.StatusCreated, toFlowView(sess))
}

func (s *Server) handleFlowGet(w http.ResponseWriter, r *http.Request) {
	_, uid, ok := s.upstreamOr(w, r)
	if !ok {
		return
	}
	sess, ok := s.flowSessionOr(w, r, uid)
	if !ok {
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	writeJSON(w, http.StatusOK, toFlowView(sess))
}

type workTypeSelectRequest struct {
	WorkTypeGroupID string `json:"workTypeGroupId"`
	WorkTypeID      string `json:"workTypeId"`
}

func (s *Server) handleFlowWorkType(w http.ResponseWriter, r *http.Request) {
	st, uid, ok := s.upstreamOr(w, r)
	if !ok {
		return
	}
	sess, ok := s.flowSessionOr(w, r, uid)
	if !ok {
		return
	}

	var req workTypeSelectRequest
	if err := decodeJSON(r, &req); err != nil || req.WorkTypeGroupID == "" {
		writeErrorMsg(w, http.StatusBadRequest, "bad_request", "workTypeGroupId is required")
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

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := sess.flow.SelectWorkType(wt); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toFlowView(sess))
}

// findWorkType locates a work type inside one group. With no explicit
// work type id the group's first work type is used; a group with no work
// types still yields a selectable entry carrying the group id, since the
// candidate query is group-scoped.
func findWorkType(groups []booking.WorkTypeGroup, groupID, workTypeID string) (booking.WorkType, bool) {
	for _, g := range groups {
		if g.ID != groupID {
			continue
		}
		if workTypeID == "" {
			if len(g.WorkTypes) > 0 {
				return g.WorkTypes[0], true
			}
			return booking.WorkType{
				ID:                g.ID,
				Name:              g.Name,
				GroupID:           g.ID,
				EstimatedDuration: 30,
				DurationUnit:      "Minutes",
			}, true
		}
		for _, wt := range g.WorkTypes {
			if wt.ID == workTypeID {
				return wt, true
			}
		}
		return booking.WorkType{}, false
	}
	return booking.WorkType{}, false
}

type territorySelectRequest struct {
	TerritoryID string `json:"territoryId"`
}

func (s *Server) handleFlowTerritory(w http.ResponseWriter, r *http.Request) {
	st, uid, ok := s.upstreamOr(w, r)
	if !ok {
		return
	}
	sess, ok := s.flowSessionOr(w, r, uid)
	if !ok {
		return
	}

	var req territorySelectRequest
	if err := decodeJSON(r, &req); err != nil || req.TerritoryID == "" {
		writeErrorMsg(w, http.StatusBadRequest, "bad_request", "territoryId is required")
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

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := sess.flow.SelectTerritory(r.Context(), *territory); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toFlowView(sess))
}

type timeSlotSelectRequest struct {
	Start time.Time `json:"start"`
}

func (s *Server) handleFlowTimeSlot(w http.ResponseWriter, r *http.Request) {
	_, uid, ok := s.upstreamOr(w, r)
	if !ok {
		return
	}
	sess, ok := s.flowSessionOr(w, r, uid)
	if !ok {
		return
	}

	var req timeSlotSelectRequest
	if err := decodeJSON(r, &req); err != nil || req.Start.IsZero() {
		writeErrorMsg(w, http.StatusBadRequest, "bad_request", "start is required")
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	var slot *booking.AppointmentCandidate
	for _, c := range sess.flow.Candidates().Candidates {
		if c.Start.Equal(req.Start) {
			candidate := c
			slot = &candidate
			break
		}
	}
	if slot == nil {
		writeErrorMsg(w, http.StatusNotFound, "not_found", "time slot not found")
		return
	}
	if err := sess.flow.SelectTimeSlot(*slot); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toFlowView(sess))
}

type resourceSelectRequest struct {
	ResourceID string `json:"resourceId"`
}

func (s *Server) handleFlowResource(w http.ResponseWriter, r *http.Request) {
	st, uid, ok := s.upstreamOr(w, r)
	if !ok {
		return
	}
	sess, ok := s.flowSessionOr(w, r, uid)
	if !ok {
		return
	}

	var req resourceSelectRequest
	if err := decodeJSON(r, &req); err != nil || req.ResourceID == "" {
		writeErrorMsg(w, http.StatusBadRequest, "bad_request", "resourceId is required")
		return
	}

	resources, err := st.resolver.ListServiceResources(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	var resource *booking.ServiceResource
	for i := range resources {
		if resources[i].ID == req.ResourceID {
			resource = &resources[i]
			break
		}
	}
	if resource == nil {
		writeErrorMsg(w, http.StatusNotFound, "not_found", "resource not found")
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := sess.flow.SelectResource(*resource); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toFlowView(sess))
}

func (s *Server) handleFlowBack(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.authedUser(w, r)
	if !ok {
		return
	}
	sess, ok := s.flowSessionOr(w, r, uid)
	if !ok {
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := sess.flow.Back(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toFlowView(sess))
}

func (s *Server) handleFlowCancel(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.authedUser(w, r)
	if !ok {
		return
	}
	sess, ok := s.flowSessionOr(w, r, uid)
	if !ok {
		return
	}
	sess.mu.Lock()
	sess.flow.Cancel()
	view := toFlowView(sess)
	sess.mu.Unlock()

	s.flows.remove(sess.id)
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleFlowSubmit(w http.ResponseWriter, r *http.Request) {
	st, uid, ok := s.upstreamOr(w, r)
	if !ok {
		return
	}
	sess, ok := s.flowSessionOr(w, r, uid)
	if !ok {
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	flow := sess.flow
	if flow.State() != booking.Confirming {
		writeErrorMsg(w, http.StatusConflict, "out_of_sequence", "booking is not ready for submission")
		return
	}

	draft := flow.Draft()
	loc := flow.Candidates().Location
	submitter := booking.NewSubmitter(st.upstream, s.Log)
	conf, err := submitter.Submit(r.Context(), draft, loc)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := flow.Complete(); err != nil {
		writeError(w, err)
		return
	}

	if loc == nil {
		loc = time.UTC
	}
	rec := records.Booking{
		UserID:        uid,
		AppointmentID: conf.AppointmentID,
		CustomerID:    draft.Customer.ID,
		CustomerName:  draft.Customer.Name,
		WorkTypeID:    draft.WorkType.ID,
		WorkTypeName:  draft.WorkType.Name,
		TerritoryID:   draft.Territory.ID,
		TerritoryName: draft.Territory.Name,
		ResourceID:    draft.Resource.ID,
		ResourceName:  draft.Resource.Name,
		Start:         draft.Slot.Start,
		End:           draft.Slot.End,
		Subject:       conf.Subject,
	}
	if _, err := s.Bookings.Create(r.Context(), rec); err != nil {
		// The appointment exists upstream; a failed audit write must not
		// look like a failed booking.
		s.Log.Error("record booking", zap.String("appointment_id", conf.AppointmentID), zap.Error(err))
	}

	s.Log.Info("booking submitted",
		zap.Int64("user_id", uid),
		zap.String("flow_id", sess.id),
		zap.String("appointment_id", conf.AppointmentID))
	s.flows.remove(sess.id)

	writeJSON(w, http.StatusOK, map[string]any{
		"appointmentId": conf.AppointmentID,
		"state":         flow.State().String(),
	})
}
