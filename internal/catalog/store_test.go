package catalog

import (
	"io"
	"log/slog"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestLoadBuiltin(t *testing.T) {
	s, err := LoadBuiltin(testLogger)
	require.NoError(t, err)

	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, "france", list[0].Name)
	assert.Equal(t, 5, list[0].SiteCount)
	assert.Equal(t, "geoparks", list[1].Name)
	assert.Equal(t, 16, list[1].SiteCount)
}

func TestSiteLookup(t *testing.T) {
	s, err := LoadBuiltin(testLogger)
	require.NoError(t, err)

	for _, key := range []string{"eiffel-tower", "Eiffel Tower", "에펠탑"} {
		site, ok := s.Site("france", key)
		require.True(t, ok, key)
		assert.InDelta(t, 48.8584, site.Location.Lat, 1e-9)
		assert.InDelta(t, 2.2945, site.Location.Lon, 1e-9)
	}

	jeju, ok := s.Site("GEOPARKS", "jeju")
	require.True(t, ok)
	assert.Equal(t, "https://www.jeju.go.kr/geopark/", jeju.URL)
	assert.Len(t, jeju.Tours, 3)

	_, ok = s.Site("france", "atlantis")
	assert.False(t, ok)
	_, ok = s.Site("italy", "colosseum")
	assert.False(t, ok)
}

func TestCollectionSelected(t *testing.T) {
	s, err := LoadBuiltin(testLogger)
	require.NoError(t, err)

	c, ok := s.Collection("geoparks", "busan")
	require.True(t, ok)

	var selected []string
	for _, site := range c.Sites {
		if site.Selected {
			selected = append(selected, site.ID)
		}
	}
	assert.Equal(t, []string{"busan"}, selected)
	assert.InDelta(t, 35.1796, c.Center.Lat, 1e-9)

	// Selection is per request and never leaks into the stored collection.
	plain, ok := s.Collection("geoparks", "")
	require.True(t, ok)
	for _, site := range plain.Sites {
		assert.False(t, site.Selected, site.ID)
	}
	assert.InDelta(t, 36.5, plain.Center.Lat, 1e-9)
}

func TestParseSkipsInvalidSites(t *testing.T) {
	doc := `{
		"name": "Test",
		"sites": [
			{"id": "ok", "name": "Fine", "location": {"lat": 10, "lon": 20}},
			{"id": "", "name": "No ID", "location": {"lat": 0, "lon": 0}},
			{"id": "far", "name": "Off the globe", "location": {"lat": 95, "lon": 0}},
			{"id": "bad-url", "name": "Bad URL", "location": {"lat": 1, "lon": 1}, "url": "not a url"},
			{"id": "OK", "name": "Duplicate", "location": {"lat": 1, "lon": 1}}
		]
	}`
	c, err := Parse(strings.NewReader(doc), testLogger)
	require.NoError(t, err)
	assert.Equal(t, "test", c.Name)
	require.Len(t, c.Sites, 1)
	assert.Equal(t, "ok", c.Sites[0].ID)
}

func TestParseErrors(t *testing.T) {
	_, err := Parse(strings.NewReader("{"), testLogger)
	assert.Error(t, err)

	_, err = Parse(strings.NewReader(`{"sites": []}`), testLogger)
	assert.Error(t, err)
}

func TestLoadRejectsDuplicateCollections(t *testing.T) {
	fsys := fstest.MapFS{
		"c/a.json": {Data: []byte(`{"name": "same", "sites": []}`)},
		"c/b.json": {Data: []byte(`{"name": "Same", "sites": []}`)},
	}
	err := NewStore().Load(fsys, "c", testLogger)
	assert.ErrorContains(t, err, "duplicate collection")
}

func TestEmptyStore(t *testing.T) {
	s := NewStore()
	assert.Empty(t, s.List())
	_, ok := s.Collection("france", "")
	assert.False(t, ok)
}
