// Package memory is an in-memory implementation of the store interfaces. It is
// safe for concurrent use and backs tests and STORE_BACKEND=memory.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"messmate/models"
	"messmate/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Store struct {
	mu        sync.RWMutex
	messSeq   int64
	users     map[primitive.ObjectID]models.User
	blacklist map[string]time.Time
	messes    map[int64]models.Mess
	requests  map[primitive.ObjectID]models.MessRequest
	reqOrder  []primitive.ObjectID
	orders    []models.Order
	reviews   []models.Review
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		users:     make(map[primitive.ObjectID]models.User),
		blacklist: make(map[string]time.Time),
		messes:    make(map[int64]models.Mess),
		requests:  make(map[primitive.ObjectID]models.MessRequest),
	}
}

// Users ----------------------------------------------------------------------

func (s *Store) CreateUser(_ context.Context, user models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return models.User{}, fmt.Errorf("user %s: %w", user.Email, store.ErrDuplicate)
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	s.users[user.ID] = user
	return user, nil
}

func (s *Store) GetUser(_ context.Context, id primitive.ObjectID) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return models.User{}, fmt.Errorf("user %s: %w", id.Hex(), store.ErrNotFound)
	}
	return user, nil
}

func (s *Store) FindUserByIdentifier(_ context.Context, identifier string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if strings.EqualFold(user.Email, identifier) || user.Name == identifier {
			return user, nil
		}
	}
	return models.User{}, fmt.Errorf("user %s: %w", identifier, store.ErrNotFound)
}

// TokenBlacklist -------------------------------------------------------------

func (s *Store) BlacklistToken(_ context.Context, token string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.blacklist[token] = expiresAt
	return nil
}

func (s *Store) IsBlacklisted(_ context.Context, token string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.blacklist[token]
	return ok, nil
}

func (s *Store) PurgeExpiredTokens(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var purged int64
	for token, expiresAt := range s.blacklist {
		if !expiresAt.After(now) {
			delete(s.blacklist, token)
			purged++
		}
	}
	return purged, nil
}

// Messes ---------------------------------------------------------------------

func (s *Store) NextMessID(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messSeq++
	return s.messSeq, nil
}

func (s *Store) CreateMess(_ context.Context, mess models.Mess) (models.Mess, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.messes[mess.MessID]; exists {
		return models.Mess{}, fmt.Errorf("mess %d: %w", mess.MessID, store.ErrDuplicate)
	}
	if mess.MessID > s.messSeq {
		s.messSeq = mess.MessID
	}
	if mess.ID.IsZero() {
		mess.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	mess.CreatedAt = now
	mess.UpdatedAt = now
	mess.Menu = mess.Menu.Canonical()
	s.messes[mess.MessID] = mess
	return cloneMess(mess), nil
}

func (s *Store) GetMessByMessID(_ context.Context, messID int64) (models.Mess, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	mess, ok := s.messes[messID]
	if !ok {
		return models.Mess{}, fmt.Errorf("mess %d: %w", messID, store.ErrNotFound)
	}
	return cloneMess(mess), nil
}

func (s *Store) GetMessByRef(ctx context.Context, ref models.MessRef) (models.Mess, error) {
	if id, ok := ref.MessID(); ok {
		return s.GetMessByMessID(ctx, id)
	}
	if oid, ok := ref.ObjectID(); ok {
		s.mu.RLock()
		defer s.mu.RUnlock()
		for _, mess := range s.messes {
			if mess.ID == oid {
				return cloneMess(mess), nil
			}
		}
	}
	return models.Mess{}, fmt.Errorf("mess %s: %w", ref, store.ErrNotFound)
}

func (s *Store) FindMessByName(_ context.Context, name string) (models.Mess, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, mess := range s.messes {
		if mess.Name == name {
			return cloneMess(mess), nil
		}
	}
	return models.Mess{}, fmt.Errorf("mess %q: %w", name, store.ErrNotFound)
}

func (s *Store) ListMesses(_ context.Context) ([]models.Mess, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sortedMessesLocked(func(models.Mess) bool { return true }), nil
}

func (s *Store) ListMessesByOwner(_ context.Context, ownerID primitive.ObjectID) ([]models.Mess, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sortedMessesLocked(func(m models.Mess) bool { return m.OwnerID == ownerID }), nil
}

func (s *Store) sortedMessesLocked(keep func(models.Mess) bool) []models.Mess {
	out := make([]models.Mess, 0, len(s.messes))
	for _, mess := range s.messes {
		if keep(mess) {
			out = append(out, cloneMess(mess))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MessID < out[j].MessID })
	return out
}

func (s *Store) UpdateMessDetails(_ context.Context, messID int64, details models.MessDetails) (models.Mess, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	mess, ok := s.messes[messID]
	if !ok {
		return models.Mess{}, fmt.Errorf("mess %d: %w", messID, store.ErrNotFound)
	}
	details.Apply(&mess)
	mess.UpdatedAt = time.Now().UTC()
	s.messes[messID] = mess
	return cloneMess(mess), nil
}

func (s *Store) ReplaceMenu(_ context.Context, messID int64, expectedVersion int64, menu models.Menu) (models.Mess, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	mess, ok := s.messes[messID]
	if !ok {
		return models.Mess{}, fmt.Errorf("mess %d: %w", messID, store.ErrNotFound)
	}
	if mess.Version != expectedVersion {
		return models.Mess{}, fmt.Errorf("mess %d at version %d: %w", messID, expectedVersion, store.ErrVersionConflict)
	}
	mess.Menu = menu.Canonical()
	mess.Version++
	mess.UpdatedAt = time.Now().UTC()
	s.messes[messID] = mess
	return cloneMess(mess), nil
}

func (s *Store) DeleteMess(_ context.Context, messID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.messes[messID]; !ok {
		return fmt.Errorf("mess %d: %w", messID, store.ErrNotFound)
	}
	delete(s.messes, messID)
	return nil
}

func (s *Store) ApplyRating(_ context.Context, messID int64, rating int) (models.Mess, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	mess, ok := s.messes[messID]
	if !ok {
		return models.Mess{}, fmt.Errorf("mess %d: %w", messID, store.ErrNotFound)
	}
	mess.RatingSum += float64(rating)
	mess.RatingCount++
	mess.Rating = mess.RatingSum / float64(mess.RatingCount)
	s.messes[messID] = mess
	return cloneMess(mess), nil
}

func (s *Store) SetRatingStats(_ context.Context, messID int64, sum float64, count int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	mess, ok := s.messes[messID]
	if !ok {
		return fmt.Errorf("mess %d: %w", messID, store.ErrNotFound)
	}
	mess.RatingSum = sum
	mess.RatingCount = count
	mess.Rating = 0
	if count > 0 {
		mess.Rating = sum / float64(count)
	}
	s.messes[messID] = mess
	return nil
}

// MessRequests ---------------------------------------------------------------

func (s *Store) CreateMessRequest(_ context.Context, req models.MessRequest) (models.MessRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if req.ID.IsZero() {
		req.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	req.CreatedAt = now
	req.UpdatedAt = now
	req.Menu = req.Menu.Canonical()
	if _, exists := s.requests[req.ID]; !exists {
		s.reqOrder = append(s.reqOrder, req.ID)
	}
	s.requests[req.ID] = req
	return cloneRequest(req), nil
}

func (s *Store) GetMessRequest(_ context.Context, id primitive.ObjectID) (models.MessRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	req, ok := s.requests[id]
	if !ok {
		return models.MessRequest{}, fmt.Errorf("mess request %s: %w", id.Hex(), store.ErrNotFound)
	}
	return cloneRequest(req), nil
}

func (s *Store) ListMessRequests(_ context.Context, status string) ([]models.MessRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sortedRequestsLocked(func(r models.MessRequest) bool {
		return status == "" || r.Status == status
	}), nil
}

func (s *Store) ListMessRequestsByOwner(_ context.Context, ownerID primitive.ObjectID) ([]models.MessRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sortedRequestsLocked(func(r models.MessRequest) bool { return r.OwnerID == ownerID }), nil
}

func (s *Store) sortedRequestsLocked(keep func(models.MessRequest) bool) []models.MessRequest {
	out := make([]models.MessRequest, 0, len(s.requests))
	for i := len(s.reqOrder) - 1; i >= 0; i-- {
		if req := s.requests[s.reqOrder[i]]; keep(req) {
			out = append(out, cloneRequest(req))
		}
	}
	return out
}

func (s *Store) TransitionMessRequest(_ context.Context, id primitive.ObjectID, from string, decision models.RequestDecision) (models.MessRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requests[id]
	if !ok {
		return models.MessRequest{}, fmt.Errorf("mess request %s: %w", id.Hex(), store.ErrNotFound)
	}
	if req.Status != from {
		return models.MessRequest{}, fmt.Errorf("mess request %s is %s: %w", id.Hex(), req.Status, store.ErrStateConflict)
	}
	decision.Apply(&req)
	s.requests[id] = req
	return cloneRequest(req), nil
}

// Orders ---------------------------------------------------------------------

func (s *Store) CreateOrder(_ context.Context, order models.Order) (models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	order.CreatedAt = now
	order.UpdatedAt = now
	order.Items = append([]models.OrderLine(nil), order.Items...)
	s.orders = append(s.orders, order)
	return order, nil
}

func (s *Store) ListOrdersByUser(_ context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Order
	for i := len(s.orders) - 1; i >= 0; i-- {
		if s.orders[i].UserID == userID {
			order := s.orders[i]
			order.Items = append([]models.OrderLine(nil), order.Items...)
			out = append(out, order)
		}
	}
	return out, nil
}

func (s *Store) HasOrderForMess(_ context.Context, userID primitive.ObjectID, refs []models.MessRef) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, order := range s.orders {
		if order.UserID == userID && containsRef(refs, order.MessID) {
			return true, nil
		}
	}
	return false, nil
}

// Reviews --------------------------------------------------------------------

func (s *Store) CreateReview(_ context.Context, review models.Review) (models.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if review.ID.IsZero() {
		review.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	review.CreatedAt = now
	review.UpdatedAt = now
	review.Author = nil
	s.reviews = append(s.reviews, review)
	return review, nil
}

func (s *Store) ListReviewsByMess(_ context.Context, refs []models.MessRef) ([]models.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Review
	for i := len(s.reviews) - 1; i >= 0; i-- {
		if containsRef(refs, s.reviews[i].MessID) {
			out = append(out, s.reviews[i])
		}
	}
	return out, nil
}

func (s *Store) ReviewStats(_ context.Context) ([]models.RatingStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byRef := make(map[string]*models.RatingStats)
	var order []string
	for _, review := range s.reviews {
		key := review.MessID.String()
		stats, ok := byRef[key]
		if !ok {
			stats = &models.RatingStats{MessRef: key}
			byRef[key] = stats
			order = append(order, key)
		}
		stats.Sum += float64(review.Rating)
		stats.Count++
	}
	out := make([]models.RatingStats, 0, len(order))
	for _, key := range order {
		out = append(out, *byRef[key])
	}
	return out, nil
}

func containsRef(refs []models.MessRef, ref models.MessRef) bool {
	for _, r := range refs {
		if strings.TrimSpace(string(r)) == strings.TrimSpace(string(ref)) {
			return true
		}
	}
	return false
}

func cloneMess(m models.Mess) models.Mess {
	m.Menu = m.Menu.Canonical()
	return m
}

func cloneRequest(r models.MessRequest) models.MessRequest {
	r.Menu = r.Menu.Canonical()
	if r.ReviewedAt != nil {
		at := *r.ReviewedAt
		r.ReviewedAt = &at
	}
	return r
}
