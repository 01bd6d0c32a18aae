package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"messmate/metrics"
	"messmate/models"
	"messmate/notify"
	"messmate/store"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MessRequestInput struct {
	Name       string       `json:"name" validate:"required"`
	Location   string       `json:"location" validate:"required"`
	Mobile     string       `json:"mobile" validate:"required"`
	Email      string       `json:"email" validate:"required,email"`
	PriceRange string       `json:"price_range"`
	Offer      string       `json:"offer"`
	Menu       *models.Menu `json:"menu"`
	models.Documents
}

type MessRequestService struct {
	requests store.MessRequests
	messes   store.Messes
	pool     *CandidatePool
	notifier notify.Notifier
	log      *logrus.Logger
	now      func() time.Time
}

func NewMessRequestService(requests store.MessRequests, messes store.Messes, pool *CandidatePool, notifier notify.Notifier, log *logrus.Logger) *MessRequestService {
	return &MessRequestService{
		requests: requests,
		messes:   messes,
		pool:     pool,
		notifier: notifier,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Submit queues a partner application for admin review.
func (s *MessRequestService) Submit(ctx context.Context, actor Actor, in MessRequestInput) (models.MessRequest, error) {
	if !actor.Authenticated() {
		return models.MessRequest{}, Unauthorized("Unauthorized")
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Location = strings.TrimSpace(in.Location)
	in.Mobile = strings.TrimSpace(in.Mobile)
	in.Email = strings.TrimSpace(in.Email)
	if in.Name == "" || in.Location == "" || in.Mobile == "" || in.Email == "" || in.Menu == nil {
		return models.MessRequest{}, InvalidInput("Missing required fields")
	}
	if err := validateInput(in); err != nil {
		return models.MessRequest{}, err
	}

	menu := models.NewMenu()
	for _, item := range in.Menu.Items {
		if strings.TrimSpace(item.Name) == "" {
			return models.MessRequest{}, InvalidInput("Every menu item needs a name")
		}
		menu.Items = append(menu.Items, models.NormalizeRequestItem(item))
	}

	req, err := s.requests.CreateMessRequest(ctx, models.MessRequest{
		Name:       in.Name,
		Location:   in.Location,
		Mobile:     in.Mobile,
		Email:      in.Email,
		PriceRange: in.PriceRange,
		Offer:      in.Offer,
		Menu:       menu,
		Documents:  in.Documents,
		OwnerID:    actor.UserID,
		Status:     models.RequestPending,
	})
	if err != nil {
		return models.MessRequest{}, Internal("Failed to submit mess request.", err)
	}
	metrics.RecordRequestDecision(models.RequestPending)
	s.log.WithFields(logrus.Fields{"request_id": req.ID.Hex(), "owner_id": actor.UserID.Hex()}).Info("mess request submitted")
	return req, nil
}

func (s *MessRequestService) List(ctx context.Context, actor Actor, status string) ([]models.MessRequest, error) {
	if !actor.IsAdmin() {
		return nil, Forbidden("Admins only.")
	}
	switch status {
	case "", models.RequestPending, models.RequestApproved, models.RequestRejected:
	default:
		return nil, InvalidInput("Unknown status filter")
	}
	reqs, err := s.requests.ListMessRequests(ctx, status)
	if err != nil {
		return nil, Internal("Failed to fetch mess requests", err)
	}
	return reqs, nil
}

func (s *MessRequestService) ListMine(ctx context.Context, actor Actor) ([]models.MessRequest, error) {
	if !actor.Authenticated() {
		return nil, Unauthorized("Unauthorized")
	}
	reqs, err := s.requests.ListMessRequestsByOwner(ctx, actor.UserID)
	if err != nil {
		return nil, Internal("Failed to fetch mess requests", err)
	}
	return reqs, nil
}

func (s *MessRequestService) pendingRequest(ctx context.Context, actor Actor, id string) (models.MessRequest, error) {
	if !actor.IsAdmin() {
		return models.MessRequest{}, Forbidden("Admins only.")
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.MessRequest{}, InvalidInput("Invalid request id")
	}
	req, err := s.requests.GetMessRequest(ctx, oid)
	if errors.Is(err, store.ErrNotFound) {
		return models.MessRequest{}, NotFound("Request not found")
	}
	if err != nil {
		return models.MessRequest{}, Internal("Failed to load request", err)
	}
	if req.Status != models.RequestPending {
		return models.MessRequest{}, Conflict("Request has already been "+req.Status, store.ErrStateConflict)
	}
	return req, nil
}

// Approve turns a pending request into a live mess. The request is claimed
// first so two admins cannot both approve it; if creating the mess then
// fails the claim is released.
func (s *MessRequestService) Approve(ctx context.Context, actor Actor, id string) (models.Mess, error) {
	req, err := s.pendingRequest(ctx, actor, id)
	if err != nil {
		return models.Mess{}, err
	}
	if err := ensureNameFree(ctx, s.messes, req.Name, 0); err != nil {
		return models.Mess{}, err
	}

	messID, err := s.messes.NextMessID(ctx)
	if err != nil {
		return models.Mess{}, Internal("Failed to approve mess request.", err)
	}

	claimed, err := s.requests.TransitionMessRequest(ctx, req.ID, models.RequestPending, models.RequestDecision{
		Status:     models.RequestApproved,
		ReviewedBy: actor.UserID,
		ReviewedAt: s.now(),
		MessID:     messID,
	})
	if err != nil {
		return models.Mess{}, transitionErr(err)
	}

	mess, err := s.messes.CreateMess(ctx, models.Mess{
		MessID:       messID,
		Name:         claimed.Name,
		Location:     claimed.Location,
		Mobile:       claimed.Mobile,
		Email:        claimed.Email,
		PriceRange:   claimed.PriceRange,
		Offer:        claimed.Offer,
		Documents:    claimed.Documents,
		Menu:         claimed.Menu.Canonical(),
		OwnerID:      claimed.OwnerID,
		Rating:       0,
		DeliveryTime: models.DefaultDeliveryTime,
	})
	if err != nil {
		s.release(claimed)
		return models.Mess{}, Internal("Failed to approve mess request.", err)
	}

	if s.pool != nil {
		s.pool.Invalidate(ctx)
	}
	metrics.RecordRequestDecision(models.RequestApproved)
	s.log.WithFields(logrus.Fields{"request_id": claimed.ID.Hex(), "mess_id": mess.MessID}).Info("mess request approved")
	go s.notify(func(ctx context.Context) error { return s.notifier.MessRequestApproved(ctx, claimed, mess) })
	return mess, nil
}

// release puts a claimed request back into the queue.
func (s *MessRequestService) release(req models.MessRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := s.requests.TransitionMessRequest(ctx, req.ID, models.RequestApproved, models.RequestDecision{
		Status:     models.RequestPending,
		ReviewedAt: s.now(),
	})
	if err != nil {
		s.log.WithError(err).WithField("request_id", req.ID.Hex()).Error("failed to release mess request claim")
	}
}

func (s *MessRequestService) Reject(ctx context.Context, actor Actor, id, reason string) (models.MessRequest, error) {
	req, err := s.pendingRequest(ctx, actor, id)
	if err != nil {
		return models.MessRequest{}, err
	}
	rejected, err := s.requests.TransitionMessRequest(ctx, req.ID, models.RequestPending, models.RequestDecision{
		Status:     models.RequestRejected,
		Reason:     strings.TrimSpace(reason),
		ReviewedBy: actor.UserID,
		ReviewedAt: s.now(),
	})
	if err != nil {
		return models.MessRequest{}, transitionErr(err)
	}

	metrics.RecordRequestDecision(models.RequestRejected)
	s.log.WithField("request_id", rejected.ID.Hex()).Info("mess request rejected")
	go s.notify(func(ctx context.Context) error { return s.notifier.MessRequestRejected(ctx, rejected) })
	return rejected, nil
}

func transitionErr(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return NotFound("Request not found")
	case errors.Is(err, store.ErrStateConflict):
		return Conflict("Request has already been reviewed", err)
	}
	return Internal("Failed to update request", err)
}

func (s *MessRequestService) notify(send func(context.Context) error) {
	if s.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := send(ctx); err != nil {
		s.log.WithError(err).Warn("mess request notification failed")
	}
}
