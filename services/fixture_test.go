package services

import (
	"context"
	"testing"
	"time"

	"messmate/cache"
	"messmate/logger"
	"messmate/models"
	"messmate/store/memory"

	"github.com/stretchr/testify/require"
)

type fixture struct {
	store *memory.Store
	reg   *Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := memory.New()
	return &fixture{
		store: st,
		reg: NewRegistry(Deps{
			Store:    st,
			Cache:    cache.NewMemory(0, time.Minute),
			CacheTTL: time.Minute,
			Tokens:   NewTokenManager("test-secret", time.Hour),
			Log:      logger.Discard(),
		}),
	}
}

func (f *fixture) actor(t *testing.T, name, role string) Actor {
	t.Helper()
	user, err := f.store.CreateUser(context.Background(), models.User{
		Name:  name,
		Email: name + "@example.com",
		Role:  role,
	})
	require.NoError(t, err)
	return Actor{UserID: user.ID, Role: role}
}

func (f *fixture) mess(t *testing.T, owner Actor, name string, items ...models.MenuItem) models.Mess {
	t.Helper()
	ctx := context.Background()
	id, err := f.store.NextMessID(ctx)
	require.NoError(t, err)
	mess, err := f.store.CreateMess(ctx, models.Mess{
		MessID:  id,
		Name:    name,
		OwnerID: owner.UserID,
		Menu:    models.NewMenu(items...),
	})
	require.NoError(t, err)
	return mess
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }
