package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"messmate/models"
	"messmate/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestUsersUniqueEmail(t *testing.T) {
	ctx := context.Background()
	s := New()

	user, err := s.CreateUser(ctx, models.User{Name: "asha", Email: "asha@example.com", Role: models.RoleStudent})
	require.NoError(t, err)
	assert.False(t, user.ID.IsZero())

	_, err = s.CreateUser(ctx, models.User{Name: "other", Email: "ASHA@example.com"})
	assert.ErrorIs(t, err, store.ErrDuplicate)

	found, err := s.FindUserByIdentifier(ctx, "asha")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	_, err = s.FindUserByIdentifier(ctx, "nobody")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestNextMessIDIsUniqueUnderConcurrency(t *testing.T) {
	ctx := context.Background()
	s := New()

	const n = 50
	ids := make(chan int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := s.NextMessID(ctx)
			assert.NoError(t, err)
			ids <- id
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[int64]bool)
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
}

func TestReplaceMenuCompareAndSwap(t *testing.T) {
	ctx := context.Background()
	s := New()

	mess, err := s.CreateMess(ctx, models.Mess{MessID: 1, Name: "Annapurna"})
	require.NoError(t, err)

	updated, err := s.ReplaceMenu(ctx, 1, mess.Version, models.NewMenu(models.MenuItem{Name: "Dal"}))
	require.NoError(t, err)
	assert.Equal(t, mess.Version+1, updated.Version)

	_, err = s.ReplaceMenu(ctx, 1, mess.Version, models.NewMenu())
	assert.ErrorIs(t, err, store.ErrVersionConflict)

	_, err = s.ReplaceMenu(ctx, 99, 0, models.NewMenu())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestApplyRatingKeepsRunningAverage(t *testing.T) {
	ctx := context.Background()
	s := New()
	_, err := s.CreateMess(ctx, models.Mess{MessID: 3, Name: "Annapurna"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for _, r := range []int{5, 4, 3, 4} {
		wg.Add(1)
		go func(r int) {
			defer wg.Done()
			_, err := s.ApplyRating(ctx, 3, r)
			assert.NoError(t, err)
		}(r)
	}
	wg.Wait()

	mess, err := s.GetMessByMessID(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(4), mess.RatingCount)
	assert.InDelta(t, 4.0, mess.Rating, 1e-9)
}

func TestTransitionMessRequestOnlyFromExpectedStatus(t *testing.T) {
	ctx := context.Background()
	s := New()

	req, err := s.CreateMessRequest(ctx, models.MessRequest{Name: "Annapurna", Status: models.RequestPending})
	require.NoError(t, err)

	admin := primitive.NewObjectID()
	now := time.Now().UTC()
	approved, err := s.TransitionMessRequest(ctx, req.ID, models.RequestPending, models.RequestDecision{
		Status: models.RequestApproved, ReviewedBy: admin, ReviewedAt: now, MessID: 7,
	})
	require.NoError(t, err)
	assert.Equal(t, models.RequestApproved, approved.Status)
	assert.Equal(t, int64(7), approved.MessID)
	require.NotNil(t, approved.ReviewedAt)

	_, err = s.TransitionMessRequest(ctx, req.ID, models.RequestPending, models.RequestDecision{Status: models.RequestRejected})
	assert.ErrorIs(t, err, store.ErrStateConflict)

	_, err = s.TransitionMessRequest(ctx, primitive.NewObjectID(), models.RequestPending, models.RequestDecision{})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestListMessRequestsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := New()

	for _, name := range []string{"a", "b", "c"} {
		_, err := s.CreateMessRequest(ctx, models.MessRequest{Name: name, Status: models.RequestPending})
		require.NoError(t, err)
	}
	all, err := s.ListMessRequests(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].Name)
	assert.Equal(t, "a", all[2].Name)

	approved, err := s.ListMessRequests(ctx, models.RequestApproved)
	require.NoError(t, err)
	assert.Empty(t, approved)
}

func TestOrdersAndReviewsByRef(t *testing.T) {
	ctx := context.Background()
	s := New()
	user := primitive.NewObjectID()

	_, err := s.CreateOrder(ctx, models.Order{UserID: user, MessID: "5"})
	require.NoError(t, err)

	ok, err := s.HasOrderForMess(ctx, user, []models.MessRef{"5"})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.HasOrderForMess(ctx, primitive.NewObjectID(), []models.MessRef{"5"})
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.CreateReview(ctx, models.Review{MessID: "5", UserID: user, Rating: 4})
	require.NoError(t, err)
	_, err = s.CreateReview(ctx, models.Review{MessID: "5", UserID: user, Rating: 5})
	require.NoError(t, err)

	reviews, err := s.ListReviewsByMess(ctx, []models.MessRef{"5"})
	require.NoError(t, err)
	require.Len(t, reviews, 2)
	assert.Equal(t, 5, reviews[0].Rating)

	stats, err := s.ReviewStats(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, 9.0, stats[0].Sum)
	assert.Equal(t, int64(2), stats[0].Count)
}

func TestPurgeExpiredTokens(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Now()

	require.NoError(t, s.BlacklistToken(ctx, "old", now.Add(-time.Minute)))
	require.NoError(t, s.BlacklistToken(ctx, "live", now.Add(time.Hour)))

	purged, err := s.PurgeExpiredTokens(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	listed, err := s.IsBlacklisted(ctx, "live")
	require.NoError(t, err)
	assert.True(t, listed)
}
