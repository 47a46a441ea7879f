package ctxkeys

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	_, ok := RunID(ctx)
	assert.False(t, ok)

	ctx = WithProject(WithPhase(WithRunID(ctx, "run-1"), "design"), "shop")

	id, ok := RunID(ctx)
	assert.True(t, ok)
	assert.Equal(t, "run-1", id)
	p, _ := Project(ctx)
	assert.Equal(t, "shop", p)
	ph, _ := Phase(ctx)
	assert.Equal(t, "design", ph)
}

func TestEmptyValueIsUnset(t *testing.T) {
	ctx := WithRunID(context.Background(), "")
	_, ok := RunID(ctx)
	assert.False(t, ok)
}
