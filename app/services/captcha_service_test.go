package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaptchaServiceGenerateRotate(t *testing.T) {
	svc, err := NewCaptchaServiceRotate(2*time.Minute, 5, 220)
	require.NoError(t, err)

	challenge, err := svc.GenerateRotate(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, challenge.ID)
	assert.NotEmpty(t, challenge.MasterImageBase64)
	assert.NotEmpty(t, challenge.ThumbImageBase64)

	second, err := svc.GenerateRotate(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, challenge.ID, second.ID)
}

func TestCaptchaServiceVerifyRotate(t *testing.T) {
	svc, err := NewCaptchaServiceRotate(2*time.Minute, 5, 220)
	require.NoError(t, err)
	impl := svc.(*captchaServiceImpl)
	ctx := context.Background()

	readTargetAngle := func(id string) int {
		impl.pending.mu.Lock()
		defer impl.pending.mu.Unlock()
		return impl.pending.m[id].targetAngle
	}

	t.Run("correct angle passes and consumes the challenge", func(t *testing.T) {
		challenge, err := svc.GenerateRotate(ctx)
		require.NoError(t, err)
		target := readTargetAngle(challenge.ID)

		assert.True(t, svc.VerifyRotate(ctx, challenge.ID, float64(target)))
		assert.False(t, svc.VerifyRotate(ctx, challenge.ID, float64(target)), "challenges are single use")
	})

	t.Run("angle within tolerance passes", func(t *testing.T) {
		challenge, err := svc.GenerateRotate(ctx)
		require.NoError(t, err)
		target := readTargetAngle(challenge.ID)

		assert.True(t, svc.VerifyRotate(ctx, challenge.ID, float64(target)+4))
	})

	t.Run("wrong angle fails and still consumes the challenge", func(t *testing.T) {
		challenge, err := svc.GenerateRotate(ctx)
		require.NoError(t, err)
		target := readTargetAngle(challenge.ID)

		assert.False(t, svc.VerifyRotate(ctx, challenge.ID, float64(target)+90))
		assert.False(t, svc.VerifyRotate(ctx, challenge.ID, float64(target)), "a failed attempt burns the challenge")
	})

	t.Run("unknown challenge fails", func(t *testing.T) {
		assert.False(t, svc.VerifyRotate(ctx, "no-such-challenge", 42))
	})
}

func TestChallengeStoreExpiry(t *testing.T) {
	cs := &challengeStore{
		m:   make(map[string]pendingChallenge),
		ttl: time.Millisecond,
	}

	cs.Put("soon-gone", 90)
	time.Sleep(5 * time.Millisecond)

	_, ok := cs.Take("soon-gone")
	assert.False(t, ok, "expired challenges are not answerable")

	cs.ttl = time.Minute
	cs.Put("fresh", 45)
	angle, ok := cs.Take("fresh")
	require.True(t, ok)
	assert.Equal(t, 45, angle)

	_, ok = cs.Take("fresh")
	assert.False(t, ok, "take removes the entry")
}
