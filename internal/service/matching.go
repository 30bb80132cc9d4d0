package service

import (
	"context"
	"errors"
	"sort"

	"go.uber.org/zap"

	"github.com/iliyamo/roadside-assist/internal/geo"
	"github.com/iliyamo/roadside-assist/internal/model"
)

// WorkshopService answers the public workshop queries: proximity search,
// single lookups, a worker's own workshop and review listings.
type WorkshopService struct {
	workshops WorkshopStore
	reviews   ReviewStore
	log       *zap.Logger
}

func NewWorkshopService(workshops WorkshopStore, reviews ReviewStore, log *zap.Logger) *WorkshopService {
	if log == nil {
		log = zap.NewNop()
	}
	return &WorkshopService{workshops: workshops, reviews: reviews, log: log}
}

// WorkshopQuery holds the optional search inputs.  Service matches exactly.
// Near enables distance computation and ordering; RadiusKm additionally
// drops workshops farther away and needs Near.
type WorkshopQuery struct {
	Service  string
	Near     *geo.Point
	RadiusKm *float64
	OpenOnly bool
}

// Search filters all workshops by service, then by distance.  Without a
// point the storage order is kept and no distance is reported.
func (s *WorkshopService) Search(ctx context.Context, q WorkshopQuery) ([]model.Workshop, error) {
	if q.RadiusKm != nil && q.Near == nil {
		return nil, invalid("radiusKm", "lat and lng are required with radiusKm")
	}
	if q.RadiusKm != nil && *q.RadiusKm < 0 {
		return nil, invalid("radiusKm", "must not be negative")
	}
	if q.Near != nil {
		if err := q.Near.Validate(); err != nil {
			return nil, err
		}
	}

	var f model.WorkshopFilter
	if q.OpenOnly {
		open := true
		f.IsOpen = &open
	}
	all, err := s.workshops.List(ctx, f)
	if err != nil {
		return nil, err
	}

	list := make([]model.Workshop, 0, len(all))
	for _, w := range all {
		if q.Service != "" && !w.Offers(q.Service) {
			continue
		}
		list = append(list, w)
	}
	if q.Near == nil {
		return list, nil
	}
	return s.rankByDistance(list, *q.Near, q.RadiusKm), nil
}

// rankByDistance keeps workshops within radius (all of them when radius is
// nil) sorted nearest first.  Filtering and ordering use the exact distance;
// only the reported DistanceKm is rounded.
func (s *WorkshopService) rankByDistance(list []model.Workshop, from geo.Point, radius *float64) []model.Workshop {
	type ranked struct {
		w model.Workshop
		d float64
	}
	kept := make([]ranked, 0, len(list))
	for _, w := range list {
		d, err := geo.DistanceKm(from.Lat, from.Lng, w.Lat, w.Lng)
		if err != nil {
			s.log.Warn("workshop has invalid coordinates", zap.Int64("workshop_id", w.ID), zap.Error(err))
			continue
		}
		if radius != nil && d > *radius {
			continue
		}
		rounded := geo.Round2(d)
		w.DistanceKm = &rounded
		kept = append(kept, ranked{w: w, d: d})
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].d < kept[j].d })

	out := make([]model.Workshop, len(kept))
	for i, k := range kept {
		out[i] = k.w
	}
	return out
}

func (s *WorkshopService) Get(ctx context.Context, id int64) (model.Workshop, error) {
	return s.workshops.GetByID(ctx, id)
}

// ForWorker returns the worker's primary (or most recent) active workshop,
// or nil when the worker has none.
func (s *WorkshopService) ForWorker(ctx context.Context, actor model.Actor) (*model.Workshop, error) {
	w, err := s.workshops.PrimaryForWorker(ctx, actor.ID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// Reviews lists a workshop's reviews, newest first.
func (s *WorkshopService) Reviews(ctx context.Context, workshopID int64) ([]model.Review, error) {
	if _, err := s.workshops.GetByID(ctx, workshopID); err != nil {
		return nil, err
	}
	return s.reviews.ListByWorkshop(ctx, workshopID)
}
