package analytics

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AdvisorReachMedia/insightstack-go/internal/domain/analytics"
)

func TestBumpTopPage(t *testing.T) {
	t.Run("first sight appends", func(t *testing.T) {
		out, err := bumpTopPage("[]", "/pricing")
		require.NoError(t, err)

		var pages []analytics.TopPage
		require.NoError(t, json.Unmarshal([]byte(out), &pages))
		require.Len(t, pages, 1)
		assert.Equal(t, analytics.TopPage{URL: "/pricing", Count: 1}, pages[0])
	})

	t.Run("existing url increments in place", func(t *testing.T) {
		seed := `[{"url":"/","count":3},{"url":"/pricing","count":2}]`
		out, err := bumpTopPage(seed, "/pricing")
		require.NoError(t, err)

		var pages []analytics.TopPage
		require.NoError(t, json.Unmarshal([]byte(out), &pages))
		require.Len(t, pages, 2)
		assert.Equal(t, "/", pages[0].URL, "first-seen order is preserved")
		assert.Equal(t, 3, pages[0].Count)
		assert.Equal(t, 3, pages[1].Count)
	})

	t.Run("corrupt payload rejected", func(t *testing.T) {
		_, err := bumpTopPage("not json", "/pricing")
		assert.Error(t, err)
	})
}
