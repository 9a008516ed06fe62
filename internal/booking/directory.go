package booking

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// defaultDurationMinutes is applied when the upstream work type carries no
// usable estimated duration.
const defaultDurationMinutes = 30

// territoryWindow bounds the "currently schedulable" check used when
// discovering territories. It only affects which territories are reported,
// not future bookability.
const territoryWindow = 24 * time.Hour

// Resolver fetches and normalizes the catalog of bookable work types,
// service territories and service resources. The upstream platform only
// lists territories per work-type group, so the resolver fans out one query
// per active group and flattens the union; downstream code never deals with
// grouping.
//
// The work-type-group list is memoized for the lifetime of one Resolver.
// A Resolver is bound to one credential; call Invalidate when the credential
// changes.
type Resolver struct {
	platform Platform
	log      *zap.Logger
	now      func() time.Time

	mu     sync.Mutex
	groups []WorkTypeGroup
}

func NewResolver(platform Platform, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{platform: platform, log: log, now: time.Now}
}

// WorkTypeGroups returns all active groups with their nested work types,
// normalized: inactive groups are dropped and zero/absent durations default
// to 30 minutes.
func (r *Resolver) WorkTypeGroups(ctx context.Context) ([]WorkTypeGroup, error) {
	r.mu.Lock()
	if r.groups != nil {
		cached := r.groups
		r.mu.Unlock()
		return cached, nil
	}
	r.mu.Unlock()

	raw, err := r.platform.WorkTypeGroups(ctx)
	if err != nil {
		return nil, err
	}

	groups := make([]WorkTypeGroup, 0, len(raw))
	for _, g := range raw {
		if !g.Active {
			continue
		}
		for i := range g.WorkTypes {
			wt := &g.WorkTypes[i]
			wt.GroupID = g.ID
			if wt.EstimatedDuration <= 0 {
				wt.EstimatedDuration = defaultDurationMinutes
				wt.DurationUnit = "Minutes"
			}
			if wt.DurationUnit == "" {
				wt.DurationUnit = "Minutes"
			}
		}
		groups = append(groups, g)
	}

	r.mu.Lock()
	r.groups = groups
	r.mu.Unlock()
	return groups, nil
}

// Invalidate drops the memoized group list. Must be called whenever the
// upstream credential behind the platform changes.
func (r *Resolver) Invalidate() {
	r.mu.Lock()
	r.groups = nil
	r.mu.Unlock()
}

// ListServiceTerritories discovers territories across every active
// work-type group concurrently and deduplicates them by id, last seen wins.
// A failing group contributes zero territories instead of failing the whole
// call; directory completeness is best-effort.
func (r *Resolver) ListServiceTerritories(ctx context.Context) ([]ServiceTerritory, error) {
	groups, err := r.WorkTypeGroups(ctx)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return []ServiceTerritory{}, nil
	}

	start := r.now().UTC()
	end := start.Add(territoryWindow)

	results := make([][]ServiceTerritory, len(groups))
	var wg sync.WaitGroup
	for i, g := range groups {
		wg.Add(1)
		go func(i int, g WorkTypeGroup) {
			defer wg.Done()
			ts, err := r.platform.ServiceTerritories(ctx, g.ID, start, end)
			if err != nil {
				r.log.Warn("territory query failed for work-type group",
					zap.String("workTypeGroupId", g.ID),
					zap.Error(err))
				return
			}
			results[i] = ts
		}(i, g)
	}
	wg.Wait()

	// Merge in group order so "last seen wins" is deterministic, keeping
	// first-appearance ordering for the ids themselves.
	byID := make(map[string]ServiceTerritory)
	var order []string
	for _, ts := range results {
		for _, t := range ts {
			if _, seen := byID[t.ID]; !seen {
				order = append(order, t.ID)
			}
			byID[t.ID] = t
		}
	}

	out := make([]ServiceTerritory, 0, len(order))
	for _, id := range order {
		out = append(out, byID[id])
	}
	return out, nil
}

// ListServiceResources returns active schedulable associates. The upstream
// type code "T" (technician) is remapped to the display code "CA" here, at
// the normalization boundary.
func (r *Resolver) ListServiceResources(ctx context.Context) ([]ServiceResource, error) {
	raw, err := r.platform.ServiceResources(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ServiceResource, 0, len(raw))
	for _, sr := range raw {
		if sr.ResourceType == "T" {
			sr.ResourceType = "CA"
		}
		out = append(out, sr)
	}
	return out, nil
}
