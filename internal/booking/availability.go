package booking

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"
)

// candidateLookahead is the fixed search window for appointment candidates.
const candidateLookahead = 7 * 24 * time.Hour

// Composer requests raw appointment candidates from the platform and
// cross-checks them against the territory's declared business hours. The
// platform owns all slot arithmetic; the composer only sequences, merges
// and filters.
type Composer struct {
	platform Platform
	log      *zap.Logger
	now      func() time.Time
}

func NewComposer(platform Platform, log *zap.Logger) *Composer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Composer{platform: platform, log: log, now: time.Now}
}

// CandidateSet is the composer's result: merged, hour-checked candidates.
// Unvalidated is set when the territory declared no operating-hours id, so
// the business-hours check could not run and candidates passed through
// ungated.
type CandidateSet struct {
	Candidates  []AppointmentCandidate
	Unvalidated bool

	// Location is the territory's declared time zone, used for grouping
	// and display. UTC when the business-hours record was unavailable.
	Location *time.Location
}

// GetCandidates asks the platform for raw candidates over a fixed 7-day
// lookahead. An empty result is a valid outcome ("nothing bookable in the
// window"), distinct from a transport failure.
func (c *Composer) GetCandidates(ctx context.Context, wt WorkType, territory ServiceTerritory, customerID string) ([]AppointmentCandidate, error) {
	start := c.now().UTC()
	q := CandidateQuery{
		Start:           start,
		End:             start.Add(candidateLookahead),
		WorkTypeGroupID: wt.GroupID,
		WorkTypeID:      wt.ID,
		TerritoryIDs:    []string{territory.ID},
		AccountID:       customerID,
	}
	cands, err := c.platform.AppointmentCandidates(ctx, q)
	if err != nil {
		return nil, err
	}
	return MergeCandidates(cands), nil
}

// Resolve fetches candidates for the work type and territory, then applies
// the business-hours filter when the territory declares an operating-hours
// id. A territory with no declared id passes through ungated, flagged via
// CandidateSet.Unvalidated.
func (c *Composer) Resolve(ctx context.Context, wt WorkType, territory ServiceTerritory, customerID string) (CandidateSet, error) {
	cands, err := c.GetCandidates(ctx, wt, territory, customerID)
	if err != nil {
		return CandidateSet{}, err
	}
	if territory.OperatingHoursID == "" {
		c.log.Warn("territory has no operating hours, skipping business-hours check",
			zap.String("territoryId", territory.ID))
		return CandidateSet{Candidates: cands, Unvalidated: true, Location: time.UTC}, nil
	}

	hours, err := c.platform.BusinessHours(ctx, territory.OperatingHoursID)
	if err != nil {
		return CandidateSet{}, err
	}
	if hours == nil {
		return CandidateSet{}, &ConfigurationError{
			Detail: "no business hours record for operating hours id " + territory.OperatingHoursID,
		}
	}

	loc := hours.Location()
	filtered := make([]AppointmentCandidate, 0, len(cands))
	for _, cand := range cands {
		if withinHours(cand, hours, loc) {
			filtered = append(filtered, cand)
		}
	}
	return CandidateSet{Candidates: filtered, Location: loc}, nil
}

// FilterByBusinessHours drops every candidate whose start or end falls
// outside the business-hours window for the day of week the candidate
// starts on, evaluated as wall-clock time in the record's time zone. A
// missing BusinessHours record for the id is a ConfigurationError, distinct
// from "no slots available".
func (c *Composer) FilterByBusinessHours(ctx context.Context, cands []AppointmentCandidate, operatingHoursID string) ([]AppointmentCandidate, error) {
	hours, err := c.platform.BusinessHours(ctx, operatingHoursID)
	if err != nil {
		return nil, err
	}
	if hours == nil {
		return nil, &ConfigurationError{Detail: "no business hours record for operating hours id " + operatingHoursID}
	}

	loc := hours.Location()
	out := make([]AppointmentCandidate, 0, len(cands))
	for _, cand := range cands {
		if withinHours(cand, hours, loc) {
			out = append(out, cand)
		}
	}
	return out, nil
}

func withinHours(cand AppointmentCandidate, hours *BusinessHours, loc *time.Location) bool {
	start := cand.Start.In(loc)
	end := cand.End.In(loc)

	window, ok := hours.Days[start.Weekday()]
	if !ok || window.Start == "" || window.End == "" {
		return false
	}

	// HH:MM:SS strings compare correctly lexicographically.
	s := start.Format("15:04:05")
	e := end.Format("15:04:05")
	return s >= window.Start && e <= window.End
}

// MergeCandidates collapses candidates that share an identical start time
// into one, unioning their resource lists. The upstream API may return one
// candidate per resource combination rather than one per slot.
func MergeCandidates(cands []AppointmentCandidate) []AppointmentCandidate {
	if len(cands) <= 1 {
		return cands
	}

	merged := make(map[int64]*AppointmentCandidate)
	var order []int64
	for _, c := range cands {
		key := c.Start.UnixNano()
		existing, ok := merged[key]
		if !ok {
			c := c
			c.Resources = append([]string(nil), c.Resources...)
			merged[key] = &c
			order = append(order, key)
			continue
		}
		for _, r := range c.Resources {
			if !existing.HasResource(r) {
				existing.Resources = append(existing.Resources, r)
			}
		}
	}

	out := make([]AppointmentCandidate, 0, len(order))
	for _, key := range order {
		out = append(out, *merged[key])
	}
	return out
}

// DateGroup is one territory-local calendar date and its candidates,
// ordered by start time.
type DateGroup struct {
	Date       string
	Candidates []AppointmentCandidate
}

// GroupByDate buckets candidates by calendar date in the given location
// and orders dates, and candidates within a date, ascending.
func GroupByDate(cands []AppointmentCandidate, loc *time.Location) []DateGroup {
	if loc == nil {
		loc = time.UTC
	}

	sorted := append([]AppointmentCandidate(nil), cands...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start.Before(sorted[j].Start) })

	var groups []DateGroup
	byDate := make(map[string]int)
	for _, c := range sorted {
		date := c.Start.In(loc).Format("2006-01-02")
		idx, ok := byDate[date]
		if !ok {
			byDate[date] = len(groups)
			groups = append(groups, DateGroup{Date: date})
			idx = len(groups) - 1
		}
		groups[idx].Candidates = append(groups[idx].Candidates, c)
	}
	return groups
}
