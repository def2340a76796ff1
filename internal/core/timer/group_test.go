package timer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupByCategory(t *testing.T) {
	timers := []Timer{
		{ID: "0", Category: "A"},
		{ID: "1", Category: "B"},
		{ID: "2", Category: "A"},
		{ID: "3", Category: ""},
		{ID: "4", Category: ""},
	}

	groups := GroupByCategory(timers)

	require.Len(t, groups, 3)
	assert.Equal(t, "A", groups[0].Category)
	assert.Equal(t, []Timer{timers[0], timers[2]}, groups[0].Timers)
	assert.Equal(t, "B", groups[1].Category)
	assert.Equal(t, []Timer{timers[1]}, groups[1].Timers)
	assert.Equal(t, "", groups[2].Category)
	assert.Equal(t, []Timer{timers[3], timers[4]}, groups[2].Timers)
}

func TestGroupByCategory_Empty(t *testing.T) {
	assert.Empty(t, GroupByCategory(nil))
}
