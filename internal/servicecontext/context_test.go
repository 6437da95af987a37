package servicecontext

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoundTrips(t *testing.T) {
	ctx := context.Background()

	ctx = WithTestID(ctx, "t1")
	ctx = WithSessionToken(ctx, "token-abc")

	testID, ok := TestID(ctx)
	assert.True(t, ok)
	assert.Equal(t, "t1", testID)

	token, ok := SessionToken(ctx)
	assert.True(t, ok)
	assert.Equal(t, "token-abc", token)
}

func TestAbsentValues(t *testing.T) {
	ctx := context.Background()

	_, ok := TestID(ctx)
	assert.False(t, ok)
	_, ok = SessionToken(ctx)
	assert.False(t, ok)
}

func TestEmptyStringIsAbsent(t *testing.T) {
	ctx := WithTestID(context.Background(), "")
	_, ok := TestID(ctx)
	assert.False(t, ok)
}
