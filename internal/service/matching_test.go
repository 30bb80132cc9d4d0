package service

import (
	"context"
	"errors"
	"testing"

	"github.com/iliyamo/roadside-assist/internal/geo"
)

func TestSearchWithinRadius(t *testing.T) {
	f := newFixture(t)
	got, err := f.workshops().Search(context.Background(), WorkshopQuery{
		Near:     &geo.Point{Lat: 12.9716, Lng: 77.5946},
		RadiusKm: f64(1),
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 1 || got[0].ID != f.shop.ID {
		t.Fatalf("expected only Downtown, got %+v", got)
	}
	if got[0].DistanceKm == nil || *got[0].DistanceKm != 0 {
		t.Fatalf("expected distance 0.00, got %v", got[0].DistanceKm)
	}
}

func TestSearchFarPointFindsNothing(t *testing.T) {
	f := newFixture(t)
	got, err := f.workshops().Search(context.Background(), WorkshopQuery{
		Near:     &geo.Point{Lat: 13.5, Lng: 78.5},
		RadiusKm: f64(5),
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no workshops, got %d", len(got))
	}
}

func TestSearchSortsByDistance(t *testing.T) {
	f := newFixture(t)
	// from Hosur, Hosur is nearer than Downtown
	got, err := f.workshops().Search(context.Background(), WorkshopQuery{Near: &geo.Point{Lat: 12.9, Lng: 77.65}})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 2 || got[0].ID != f.other.ID || got[1].ID != f.shop.ID {
		t.Fatalf("expected Hosur then Downtown, got %+v", got)
	}
	if *got[0].DistanceKm > *got[1].DistanceKm {
		t.Fatalf("expected ascending distances, got %v then %v", *got[0].DistanceKm, *got[1].DistanceKm)
	}
}

func TestSearchByService(t *testing.T) {
	f := newFixture(t)
	svc := f.workshops()
	ctx := context.Background()

	got, err := svc.Search(ctx, WorkshopQuery{Service: "Battery Jump"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 1 || got[0].ID != f.shop.ID {
		t.Fatalf("expected Downtown only, got %+v", got)
	}
	if got[0].DistanceKm != nil {
		t.Fatalf("expected no distance without a point")
	}
	got, err = svc.Search(ctx, WorkshopQuery{Service: "towing"})
	if err != nil || len(got) != 0 {
		t.Fatalf("expected case-sensitive match to find nothing, got %v %v", got, err)
	}
	got, err = svc.Search(ctx, WorkshopQuery{})
	if err != nil || len(got) != 2 || got[0].ID != f.shop.ID {
		t.Fatalf("expected both workshops in storage order, got %v %v", got, err)
	}
}

func TestSearchRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	svc := f.workshops()
	ctx := context.Background()

	var ve *ValidationError
	if _, err := svc.Search(ctx, WorkshopQuery{RadiusKm: f64(3)}); !errors.As(err, &ve) {
		t.Fatalf("expected validation error for radius without point, got %v", err)
	}
	if _, err := svc.Search(ctx, WorkshopQuery{Near: &geo.Point{Lat: 95, Lng: 0}}); !errors.Is(err, geo.ErrInvalidCoordinate) {
		t.Fatalf("expected ErrInvalidCoordinate, got %v", err)
	}
}

func TestForWorker(t *testing.T) {
	f := newFixture(t)
	svc := f.workshops()
	ctx := context.Background()

	w, err := svc.ForWorker(ctx, f.worker)
	if err != nil || w == nil || w.ID != f.shop.ID {
		t.Fatalf("expected Downtown for worker, got %v %v", w, err)
	}
	w, err = svc.ForWorker(ctx, f.idle)
	if err != nil || w != nil {
		t.Fatalf("expected nil workshop for unassigned worker, got %v %v", w, err)
	}
}

func TestReviewsForMissingWorkshop(t *testing.T) {
	f := newFixture(t)
	if _, err := f.workshops().Reviews(context.Background(), 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	list, err := f.workshops().Reviews(context.Background(), f.shop.ID)
	if err != nil || len(list) != 0 {
		t.Fatalf("expected empty review list, got %v %v", list, err)
	}
}
