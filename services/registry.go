package services

import (
	"time"

	"messmate/cache"
	"messmate/notify"
	"messmate/store"

	"github.com/sirupsen/logrus"
)

type Deps struct {
	Store    store.Store
	Cache    cache.Cache
	CacheTTL time.Duration
	Notifier notify.Notifier
	Tokens   *TokenManager
	Log      *logrus.Logger
}

// Registry holds every service built over one store.
type Registry struct {
	Auth            *AuthService
	Catalog         *CatalogService
	Requests        *MessRequestService
	Orders          *OrderService
	Reviews         *ReviewService
	Recommendations *RecommendationService
	Pool            *CandidatePool
}

func NewRegistry(d Deps) *Registry {
	if d.Cache == nil {
		d.Cache = cache.Noop{}
	}
	if d.Notifier == nil {
		d.Notifier = notify.NewLog(d.Log)
	}
	pool := NewCandidatePool(d.Store, d.Cache, d.CacheTTL, d.Log)
	return &Registry{
		Auth:            NewAuthService(d.Store, d.Store, d.Tokens, d.Log),
		Catalog:         NewCatalogService(d.Store, pool, d.Log),
		Requests:        NewMessRequestService(d.Store, d.Store, pool, d.Notifier, d.Log),
		Orders:          NewOrderService(d.Store, d.Store, d.Store, d.Notifier, d.Log),
		Reviews:         NewReviewService(d.Store, d.Store, d.Store, d.Store, d.Log),
		Recommendations: NewRecommendationService(d.Store, pool),
		Pool:            pool,
	}
}
