package main

import (
	"context"
	"testing"
	"time"

	"messmate/logger"
	"messmate/models"
	"messmate/services"
	"messmate/store/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const fixtureYAML = `
users:
  - name: admin
    email: admin@messmate.app
    password: supersecret
    role: admin
  - name: ravi
    email: ravi@example.com
    password: supersecret
    role: owner
messes:
  - name: Annapurna
    location: North Campus
    price_range: "80-120"
    owner_email: ravi@example.com
    menu:
      - name: Veg Thali
        price: 90
        type: thali
      - name: Chicken Curry
        price: 150
        isVeg: false
  - name: Sai Mess
    delivery_time: 20 mins
`

func TestSeed(t *testing.T) {
	var fixture seedFile
	require.NoError(t, yaml.Unmarshal([]byte(fixtureYAML), &fixture))

	ctx := context.Background()
	log := logger.Discard()
	st := memory.New()
	reg := services.NewRegistry(services.Deps{
		Store:  st,
		Tokens: services.NewTokenManager("seed-secret", time.Hour),
		Log:    log,
	})

	users, messes, err := seed(ctx, st, reg, fixture, log)
	require.NoError(t, err)
	assert.Equal(t, 2, users)
	assert.Equal(t, 2, messes)

	annapurna, err := st.FindMessByName(ctx, "Annapurna")
	require.NoError(t, err)
	owner, err := st.FindUserByIdentifier(ctx, "ravi@example.com")
	require.NoError(t, err)
	assert.Equal(t, owner.ID, annapurna.OwnerID)
	assert.Equal(t, models.DefaultDeliveryTime, annapurna.DeliveryTime)
	require.Len(t, annapurna.Menu.Items, 2)
	assert.True(t, annapurna.Menu.Items[0].IsVeg)
	assert.False(t, annapurna.Menu.Items[1].IsVeg)

	sai, err := st.FindMessByName(ctx, "Sai Mess")
	require.NoError(t, err)
	assert.Equal(t, "20 mins", sai.DeliveryTime)
	assert.Equal(t, annapurna.MessID+1, sai.MessID)

	users, messes, err = seed(ctx, st, reg, fixture, log)
	require.NoError(t, err)
	assert.Zero(t, users)
	assert.Zero(t, messes)
}

func TestSeedUnknownOwner(t *testing.T) {
	ctx := context.Background()
	log := logger.Discard()
	st := memory.New()
	reg := services.NewRegistry(services.Deps{
		Store:  st,
		Tokens: services.NewTokenManager("seed-secret", time.Hour),
		Log:    log,
	})

	_, _, err := seed(ctx, st, reg, seedFile{Messes: []seedMess{{Name: "Ghost", OwnerEmail: "nobody@example.com"}}}, log)
	assert.Error(t, err)
}
