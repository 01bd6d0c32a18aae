package services

import (
	"context"
	"errors"
	"math"
	"strings"

	"messmate/metrics"
	"messmate/models"
	"messmate/store"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type ReviewInput struct {
	MessID   models.MessRef `json:"mess_id"`
	Rating   int            `json:"rating" validate:"gte=1,lte=5"`
	Comment  string         `json:"comment" validate:"max=2000"`
	FoodName string         `json:"foodName"`
}

// ReviewResult is a stored review and the mess rating after it was counted.
type ReviewResult struct {
	Review        models.Review `json:"review"`
	UpdatedRating float64       `json:"updatedRating"`
}

type ReviewService struct {
	reviews store.Reviews
	messes  store.Messes
	orders  store.Orders
	users   store.Users
	log     *logrus.Logger
}

func NewReviewService(reviews store.Reviews, messes store.Messes, orders store.Orders, users store.Users, log *logrus.Logger) *ReviewService {
	return &ReviewService{reviews: reviews, messes: messes, orders: orders, users: users, log: log}
}

// Submit stores a student's review of a mess they have ordered from and
// folds the rating into the mess average.
func (s *ReviewService) Submit(ctx context.Context, actor Actor, in ReviewInput) (ReviewResult, error) {
	if actor.Role != models.RoleStudent {
		return ReviewResult{}, Forbidden("Only students can review.")
	}
	if in.MessID.IsZero() || in.Rating == 0 {
		return ReviewResult{}, InvalidInput("Mess ID and rating are required.")
	}
	if err := validateInput(in); err != nil {
		return ReviewResult{}, InvalidInput("Rating must be between 1 and 5.")
	}

	mess, err := s.messes.GetMessByRef(ctx, in.MessID)
	if errors.Is(err, store.ErrNotFound) {
		return ReviewResult{}, NotFound("Mess not found")
	}
	if err != nil {
		return ReviewResult{}, Internal("Failed to add review", err)
	}

	refs := append(mess.Aliases(), in.MessID)
	ordered, err := s.orders.HasOrderForMess(ctx, actor.UserID, refs)
	if err != nil {
		return ReviewResult{}, Internal("Failed to add review", err)
	}
	if !ordered {
		return ReviewResult{}, InvalidInput("You can only review a mess after placing an order from it.")
	}

	review, err := s.reviews.CreateReview(ctx, models.Review{
		MessID:   mess.Ref(),
		UserID:   actor.UserID,
		FoodName: strings.TrimSpace(in.FoodName),
		Rating:   in.Rating,
		Comment:  strings.TrimSpace(in.Comment),
	})
	if err != nil {
		return ReviewResult{}, Internal("Failed to add review", err)
	}

	average, err := s.foldRating(ctx, mess, in.Rating)
	if err != nil {
		return ReviewResult{}, Internal("Failed to update rating", err)
	}

	metrics.RecordReviewSubmitted(in.Rating)
	s.log.WithFields(logrus.Fields{"mess_id": mess.MessID, "rating": in.Rating, "average": average}).Info("review added")
	return ReviewResult{Review: review, UpdatedRating: roundRating(average)}, nil
}

// foldRating counts a stored review into the mess average. Messes without
// running counters may already have reviews, so their statistics are rebuilt
// from every stored review instead.
func (s *ReviewService) foldRating(ctx context.Context, mess models.Mess, rating int) (float64, error) {
	if mess.RatingCount > 0 {
		updated, err := s.messes.ApplyRating(ctx, mess.MessID, rating)
		if err != nil {
			return 0, err
		}
		return updated.Rating, nil
	}

	stats, err := s.reviews.ReviewStats(ctx)
	if err != nil {
		return 0, err
	}
	want := statsFor(mess, indexStats(stats))
	if err := s.messes.SetRatingStats(ctx, mess.MessID, want.Sum, want.Count); err != nil {
		return 0, err
	}
	return want.Average(), nil
}

func indexStats(stats []models.RatingStats) map[string]models.RatingStats {
	byRef := make(map[string]models.RatingStats, len(stats))
	for _, st := range stats {
		byRef[strings.TrimSpace(st.MessRef)] = st
	}
	return byRef
}

// statsFor sums the review statistics stored under any alias of mess.
func statsFor(mess models.Mess, byRef map[string]models.RatingStats) models.RatingStats {
	var out models.RatingStats
	for _, ref := range mess.Aliases() {
		if st, ok := byRef[ref.String()]; ok {
			out.Sum += st.Sum
			out.Count += st.Count
		}
	}
	return out
}

func roundRating(r float64) float64 {
	return decimal.NewFromFloat(r).Round(1).InexactFloat64()
}

// ListReviews returns the reviews of a mess newest first, each with its
// author's name.
func (s *ReviewService) ListReviews(ctx context.Context, ref models.MessRef) ([]models.Review, error) {
	refs := []models.MessRef{ref}
	if mess, err := s.messes.GetMessByRef(ctx, ref); err == nil {
		refs = append(refs, mess.Aliases()...)
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, Internal("Failed to fetch reviews", err)
	}

	reviews, err := s.reviews.ListReviewsByMess(ctx, refs)
	if err != nil {
		return nil, Internal("Failed to fetch reviews", err)
	}
	names := make(map[string]string)
	for i := range reviews {
		key := reviews[i].UserID.Hex()
		name, ok := names[key]
		if !ok {
			if user, err := s.users.GetUser(ctx, reviews[i].UserID); err == nil {
				name = user.Name
			}
			names[key] = name
		}
		if name != "" {
			reviews[i].Author = &models.ReviewAuthor{ID: reviews[i].UserID, Name: name}
		}
	}
	if reviews == nil {
		reviews = []models.Review{}
	}
	return reviews, nil
}

// ReconcileRatings recomputes every mess rating from its stored reviews and
// rewrites the ones that drifted. It returns how many were rewritten.
func (s *ReviewService) ReconcileRatings(ctx context.Context) (int, error) {
	stats, err := s.reviews.ReviewStats(ctx)
	if err != nil {
		return 0, err
	}
	byRef := indexStats(stats)

	messes, err := s.messes.ListMesses(ctx)
	if err != nil {
		return 0, err
	}
	fixed := 0
	for _, mess := range messes {
		want := statsFor(mess, byRef)
		if want.Count == mess.RatingCount && want.Sum == mess.RatingSum && math.Abs(want.Average()-mess.Rating) < 1e-9 {
			continue
		}
		if err := s.messes.SetRatingStats(ctx, mess.MessID, want.Sum, want.Count); err != nil {
			return fixed, err
		}
		fixed++
	}
	metrics.RecordRatingsReconciled(fixed)
	if fixed > 0 {
		s.log.WithField("messes", fixed).Info("mess ratings reconciled")
	}
	return fixed, nil
}
