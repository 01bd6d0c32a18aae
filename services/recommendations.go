package services

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"strings"
	"time"

	"messmate/cache"
	"messmate/models"
	"messmate/store"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	recommendationLimit = 6
	candidatePoolKey    = "messmate:recommendations:pool"
)

// CandidatePool is every dish on every menu, cached between catalog writes.
type CandidatePool struct {
	messes store.Messes
	cache  cache.Cache
	ttl    time.Duration
	log    *logrus.Logger
}

func NewCandidatePool(messes store.Messes, c cache.Cache, ttl time.Duration, log *logrus.Logger) *CandidatePool {
	if c == nil {
		c = cache.Noop{}
	}
	return &CandidatePool{messes: messes, cache: c, ttl: ttl, log: log}
}

func (p *CandidatePool) Candidates(ctx context.Context) ([]models.FoodCandidate, error) {
	if raw, err := p.cache.Get(ctx, candidatePoolKey); err == nil {
		var pool []models.FoodCandidate
		if err := json.Unmarshal(raw, &pool); err == nil {
			return pool, nil
		}
	} else if !errors.Is(err, cache.ErrMiss) {
		p.log.WithError(err).Warn("candidate pool cache read failed")
	}

	messes, err := p.messes.ListMesses(ctx)
	if err != nil {
		return nil, err
	}
	pool := []models.FoodCandidate{}
	for _, mess := range messes {
		pool = append(pool, models.CandidatesFor(mess)...)
	}

	if raw, err := json.Marshal(pool); err == nil {
		if err := p.cache.Set(ctx, candidatePoolKey, raw, p.ttl); err != nil {
			p.log.WithError(err).Warn("candidate pool cache write failed")
		}
	}
	return pool, nil
}

// Invalidate drops the cached pool after a catalog write.
func (p *CandidatePool) Invalidate(ctx context.Context) {
	if err := p.cache.Delete(ctx, candidatePoolKey); err != nil {
		p.log.WithError(err).Warn("candidate pool cache invalidation failed")
	}
}

type RecommendationService struct {
	orders  store.Orders
	pool    *CandidatePool
	shuffle func(n int, swap func(i, j int))
}

func NewRecommendationService(orders store.Orders, pool *CandidatePool) *RecommendationService {
	return &RecommendationService{orders: orders, pool: pool, shuffle: rand.Shuffle}
}

// Recommend picks up to six dishes for userID. Users without a usable id or
// without orders get a random selection; others get dishes matching their
// most ordered type or category that they have not ordered before.
func (s *RecommendationService) Recommend(ctx context.Context, userID string) ([]models.FoodCandidate, error) {
	var orders []models.Order
	if oid, err := primitive.ObjectIDFromHex(userID); err == nil {
		orders, err = s.orders.ListOrdersByUser(ctx, oid)
		if err != nil {
			return nil, Internal("Error fetching recommendations", err)
		}
	}

	pool, err := s.pool.Candidates(ctx)
	if err != nil {
		return nil, Internal("Error fetching recommendations", err)
	}

	if len(orders) == 0 {
		return s.randomPick(pool), nil
	}

	prefs := preferencesOf(orders)
	var matched []models.FoodCandidate
	for _, c := range pool {
		if c.Name == "" || prefs.ordered[strings.ToLower(c.Name)] {
			continue
		}
		if c.Type == prefs.topType || c.Category == prefs.topCategory {
			matched = append(matched, c)
		}
	}
	if len(matched) == 0 {
		return s.randomPick(pool), nil
	}
	return limit(matched), nil
}

func (s *RecommendationService) randomPick(pool []models.FoodCandidate) []models.FoodCandidate {
	picked := append([]models.FoodCandidate{}, pool...)
	s.shuffle(len(picked), func(i, j int) { picked[i], picked[j] = picked[j], picked[i] })
	return limit(picked)
}

func limit(items []models.FoodCandidate) []models.FoodCandidate {
	if len(items) > recommendationLimit {
		return items[:recommendationLimit]
	}
	return items
}

type preferences struct {
	ordered     map[string]bool
	topType     string
	topCategory string
}

func preferencesOf(orders []models.Order) preferences {
	prefs := preferences{ordered: make(map[string]bool)}
	types := newTally()
	categories := newTally()
	for _, order := range orders {
		for _, line := range order.Items {
			if line.Name == "" {
				continue
			}
			prefs.ordered[strings.ToLower(line.Name)] = true
			types.add(line.Type)
			categories.add(line.Category)
		}
	}
	prefs.topType = types.top(models.TypeVeg)
	prefs.topCategory = categories.top(models.DefaultCategory)
	return prefs
}

// tally counts keys and remembers the order they were first seen, so the
// earliest key wins a tie.
type tally struct {
	counts map[string]int
	keys   []string
}

func newTally() *tally {
	return &tally{counts: make(map[string]int)}
}

func (t *tally) add(key string) {
	if key == "" {
		return
	}
	if _, seen := t.counts[key]; !seen {
		t.keys = append(t.keys, key)
	}
	t.counts[key]++
}

func (t *tally) top(fallback string) string {
	best, bestCount := fallback, 0
	for _, key := range t.keys {
		if t.counts[key] > bestCount {
			best, bestCount = key, t.counts[key]
		}
	}
	return best
}
