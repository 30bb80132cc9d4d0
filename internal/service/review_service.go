package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/iliyamo/roadside-assist/internal/model"
	"github.com/iliyamo/roadside-assist/internal/policy"
	"github.com/iliyamo/roadside-assist/internal/repository"
)

// ReviewService lets customers rate the workshop that handled a finished
// request.
type ReviewService struct {
	requests RequestStore
	reviews  ReviewStore
	cache    CachePurger
}

func NewReviewService(requests RequestStore, reviews ReviewStore, cache CachePurger) *ReviewService {
	if cache == nil {
		cache = nopPurger{}
	}
	return &ReviewService{requests: requests, reviews: reviews, cache: cache}
}

type ReviewInput struct {
	Rating  int
	Comment *string
}

// Submit stores one review per (request, owner).  The request must be
// completed or cancelled and linked to a workshop.
func (s *ReviewService) Submit(ctx context.Context, actor model.Actor, requestID int64, in ReviewInput) (model.Review, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return model.Review{}, invalid("rating", "must be between 1 and 5")
	}
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return model.Review{}, err
	}
	if err := policy.CanReview(actor, req); err != nil {
		return model.Review{}, err
	}
	if !req.Status.Terminal() {
		return model.Review{}, fmt.Errorf("%w: request is still %s", ErrConflict, req.Status)
	}
	if req.WorkshopID == nil {
		return model.Review{}, invalid("requestId", "request is not linked to a workshop")
	}

	rv := model.Review{
		RequestID:  requestID,
		WorkshopID: *req.WorkshopID,
		UserID:     actor.ID,
		Rating:     in.Rating,
		Comment:    in.Comment,
	}
	if err := s.reviews.Create(ctx, &rv); err != nil {
		if errors.Is(err, repository.ErrConstraint) {
			return model.Review{}, fmt.Errorf("%w: request already reviewed", ErrConflict)
		}
		return model.Review{}, err
	}
	s.cache.Purge(ctx)
	return rv, nil
}
