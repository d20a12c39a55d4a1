package apikey

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/pkg/postgres"
)

func TestHashKey(t *testing.T) {
	assert.Equal(t, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", HashKey("hello"))
}

func TestValidatorLifecycle(t *testing.T) {
	v := NewValidator(postgres.NewTestClient(t))
	ctx := context.Background()

	raw, info, err := v.CreateKey(ctx, "learner "+uuid.NewString(), 0, nil)
	require.NoError(t, err)
	assert.Contains(t, raw, "pp_")
	assert.Equal(t, DefaultRateLimit, info.RateLimit)
	_, err = uuid.Parse(info.ID)
	require.NoError(t, err)

	got, err := v.Validate(ctx, raw)
	require.NoError(t, err)
	assert.Equal(t, info.ID, got.ID)

	keys, err := v.ListKeys(ctx)
	require.NoError(t, err)
	assert.Contains(t, ids(keys), info.ID)

	require.NoError(t, v.RevokeByID(ctx, info.ID))
	_, err = v.Validate(ctx, raw)
	assert.ErrorIs(t, err, ErrInvalidKey)
	assert.ErrorIs(t, v.RevokeKey(ctx, raw), apperrors.ErrNotFound)
}

func TestValidatorExpiredKey(t *testing.T) {
	v := NewValidator(postgres.NewTestClient(t))
	ctx := context.Background()
	past := time.Now().Add(-time.Hour)

	raw, _, err := v.CreateKey(ctx, "expired", 10, &past)
	require.NoError(t, err)
	_, err = v.Validate(ctx, raw)
	assert.ErrorIs(t, err, ErrExpiredKey)
}

func TestValidatorRejectsBadInput(t *testing.T) {
	v := NewValidator(postgres.NewTestClient(t))
	ctx := context.Background()

	_, _, err := v.CreateKey(ctx, "  ", 10, nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.ErrorIs(t, v.RevokeByID(ctx, "not-a-uuid"), apperrors.ErrInvalidInput)
	_, err = v.Validate(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func ids(keys []KeyInfo) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k.ID
	}
	return out
}
