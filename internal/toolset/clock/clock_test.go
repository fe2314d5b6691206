package clock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tgifai/eternal/internal/toolset"
)

func TestCurrentTime(t *testing.T) {
	ts := &Toolset{now: func() time.Time { return time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC) }}
	c := toolset.NewComposer(ts)

	assert.Equal(t, "Monday, 2024-05-06 07:08:09 UTC", c.Execute(context.Background(), "current_time", ""))
	assert.Equal(t, "Error: unknown timezone \"Mars/Olympus\"", c.Execute(context.Background(), "current_time", "Mars/Olympus"))
}
