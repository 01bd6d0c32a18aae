package services

import (
	"context"
	"testing"

	"messmate/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func placeOrder(t *testing.T, f *fixture, student Actor, ref models.MessRef, names ...string) {
	t.Helper()
	in := PlaceOrderInput{MessID: ref}
	for _, name := range names {
		in.Items = append(in.Items, OrderLineInput{Name: name, Price: floatPtr(10)})
	}
	_, err := f.reg.Orders.PlaceOrder(context.Background(), student, in)
	require.NoError(t, err)
}

func TestReviewUpdatesRunningAverage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.actor(t, "owner", models.RoleOwner)
	student := f.actor(t, "student", models.RoleStudent)
	mess := f.mess(t, owner, "Annapurna", models.MenuItem{Name: "Dal", Price: 40})
	placeOrder(t, f, student, mess.Ref(), "Dal")

	first, err := f.reg.Reviews.Submit(ctx, student, ReviewInput{MessID: mess.Ref(), Rating: 4, Comment: "good"})
	require.NoError(t, err)
	assert.Equal(t, 4.0, first.UpdatedRating)

	second, err := f.reg.Reviews.Submit(ctx, student, ReviewInput{MessID: mess.Ref(), Rating: 5})
	require.NoError(t, err)
	assert.Equal(t, 4.5, second.UpdatedRating)

	stored, err := f.store.GetMessByMessID(ctx, mess.MessID)
	require.NoError(t, err)
	assert.Equal(t, 4.5, stored.Rating)
	assert.Equal(t, int64(2), stored.RatingCount)
}

func TestReviewCountsReviewsStoredBeforeCounters(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.actor(t, "owner", models.RoleOwner)
	student := f.actor(t, "student", models.RoleStudent)
	mess := f.mess(t, owner, "Annapurna")
	for i := 0; i < 2; i++ {
		_, err := f.store.CreateReview(ctx, models.Review{MessID: mess.Ref(), UserID: student.UserID, Rating: 1})
		require.NoError(t, err)
	}
	placeOrder(t, f, student, mess.Ref(), "Tea")

	result, err := f.reg.Reviews.Submit(ctx, student, ReviewInput{MessID: mess.Ref(), Rating: 4})
	require.NoError(t, err)
	assert.Equal(t, 2.0, result.UpdatedRating)

	stored, err := f.store.GetMessByMessID(ctx, mess.MessID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stored.RatingCount)
	assert.Equal(t, 6.0, stored.RatingSum)

	result, err = f.reg.Reviews.Submit(ctx, student, ReviewInput{MessID: mess.Ref(), Rating: 5})
	require.NoError(t, err)
	assert.Equal(t, 2.8, result.UpdatedRating)
}

func TestReviewRequiresPriorOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.actor(t, "owner", models.RoleOwner)
	student := f.actor(t, "student", models.RoleStudent)
	mess := f.mess(t, owner, "Annapurna")
	other := f.mess(t, owner, "Shree")
	placeOrder(t, f, student, other.Ref(), "Tea")

	_, err := f.reg.Reviews.Submit(ctx, student, ReviewInput{MessID: mess.Ref(), Rating: 3})
	assert.Equal(t, KindInvalidInput, KindOf(err))

	reviews, err := f.reg.Reviews.ListReviews(ctx, mess.Ref())
	require.NoError(t, err)
	assert.Empty(t, reviews)
}

func TestReviewAcceptsOrdersUnderObjectIDRef(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.actor(t, "owner", models.RoleOwner)
	student := f.actor(t, "student", models.RoleStudent)
	mess := f.mess(t, owner, "Annapurna")

	_, err := f.store.CreateOrder(ctx, models.Order{UserID: student.UserID, MessID: models.MessRef(mess.ID.Hex())})
	require.NoError(t, err)

	result, err := f.reg.Reviews.Submit(ctx, student, ReviewInput{MessID: mess.Ref(), Rating: 2})
	require.NoError(t, err)
	assert.Equal(t, mess.Ref(), result.Review.MessID)
}

func TestReviewValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.actor(t, "owner", models.RoleOwner)
	student := f.actor(t, "student", models.RoleStudent)
	mess := f.mess(t, owner, "Annapurna")

	_, err := f.reg.Reviews.Submit(ctx, owner, ReviewInput{MessID: mess.Ref(), Rating: 4})
	assert.Equal(t, KindForbidden, KindOf(err))

	_, err = f.reg.Reviews.Submit(ctx, student, ReviewInput{Rating: 4})
	assert.Equal(t, KindInvalidInput, KindOf(err))

	_, err = f.reg.Reviews.Submit(ctx, student, ReviewInput{MessID: mess.Ref(), Rating: 6})
	require.Error(t, err)
	assert.Equal(t, "Rating must be between 1 and 5.", err.Error())

	_, err = f.reg.Reviews.Submit(ctx, student, ReviewInput{MessID: "77", Rating: 4})
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestListReviewsIncludesAuthor(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.actor(t, "owner", models.RoleOwner)
	student := f.actor(t, "asha", models.RoleStudent)
	mess := f.mess(t, owner, "Annapurna")
	placeOrder(t, f, student, mess.Ref(), "Tea")

	_, err := f.reg.Reviews.Submit(ctx, student, ReviewInput{MessID: mess.Ref(), Rating: 5, FoodName: "Tea"})
	require.NoError(t, err)

	reviews, err := f.reg.Reviews.ListReviews(ctx, models.MessRef(mess.ID.Hex()))
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	require.NotNil(t, reviews[0].Author)
	assert.Equal(t, "asha", reviews[0].Author.Name)
	assert.Equal(t, "Tea", reviews[0].FoodName)
}

func TestReconcileRatingsFixesDrift(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.actor(t, "owner", models.RoleOwner)
	student := f.actor(t, "student", models.RoleStudent)
	mess := f.mess(t, owner, "Annapurna")
	placeOrder(t, f, student, mess.Ref(), "Tea")

	_, err := f.reg.Reviews.Submit(ctx, student, ReviewInput{MessID: mess.Ref(), Rating: 3})
	require.NoError(t, err)
	_, err = f.store.CreateReview(ctx, models.Review{MessID: models.MessRef(mess.ID.Hex()), UserID: student.UserID, Rating: 5})
	require.NoError(t, err)

	fixed, err := f.reg.Reviews.ReconcileRatings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, fixed)

	stored, err := f.store.GetMessByMessID(ctx, mess.MessID)
	require.NoError(t, err)
	assert.Equal(t, 4.0, stored.Rating)
	assert.Equal(t, int64(2), stored.RatingCount)

	fixed, err = f.reg.Reviews.ReconcileRatings(ctx)
	require.NoError(t, err)
	assert.Zero(t, fixed)
}
