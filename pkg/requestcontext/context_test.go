package requestcontext

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	id "sigcerh/pkg/domain"
)

func TestAccessors(t *testing.T) {
	ctx := context.Background()

	actor, role := Actor(ctx)
	assert.Empty(t, actor)
	assert.Empty(t, role)
	assert.Empty(t, RequestID(ctx))

	fixed := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	ctx = WithTime(WithRequestID(WithActor(ctx, id.ActorID("mesa-1"), "MESA_DE_PARTES"), "req-1"), fixed)

	actor, role = Actor(ctx)
	assert.Equal(t, id.ActorID("mesa-1"), actor)
	assert.Equal(t, "MESA_DE_PARTES", role)
	assert.Equal(t, "req-1", RequestID(ctx))
	assert.Equal(t, fixed, Now(ctx))
}
