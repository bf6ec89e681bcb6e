package cron

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meinhoongagan/gym-booking/services"
	"github.com/meinhoongagan/gym-booking/store"
)

func TestStartRegistersJobs(t *testing.T) {
	mem := store.NewMemory()
	coord := services.NewCoordinator(mem, nil, nil)
	hk := services.NewHousekeeper(mem, nil, time.UTC)

	c, err := Start(context.Background(), coord, hk)
	require.NoError(t, err)
	defer c.Stop()

	entries := c.Entries()
	assert.Len(t, entries, 3)
	for _, e := range entries {
		assert.False(t, e.Next.IsZero())
	}
}
