package cluster

import (
	stderrors "errors"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/building-discovery/internal/domain"
	"github.com/building-discovery/internal/pkg/errors"
)

var world = domain.Bounds{North: 85, South: -85, East: 180, West: -180}

func madridPair() []Item {
	return []Item{
		{ID: "madrid-a", Point: orb.Point{-3.7038, 40.4168}},
		{ID: "madrid-b", Point: orb.Point{-3.7037, 40.4168}},
		{ID: "sydney", Point: orb.Point{151.2093, -33.8688}},
	}
}

func totalCount(nodes []Node) int {
	sum := 0
	for _, n := range nodes {
		sum += n.Count
	}
	return sum
}

func clustersOnly(nodes []Node) []Node {
	var out []Node
	for _, n := range nodes {
		if n.IsCluster {
			out = append(out, n)
		}
	}
	return out
}

func TestIndex_LeafLevelReturnsRawPoints(t *testing.T) {
	idx := NewIndex(DefaultOptions(), nil)
	idx.Load(madridPair())

	nodes := idx.Clusters(world, 15)
	require.Len(t, nodes, 3)
	assert.Empty(t, clustersOnly(nodes))
	assert.Equal(t, 3, idx.Len())
}

func TestIndex_ClosePointsMergeAtMaxZoom(t *testing.T) {
	idx := NewIndex(DefaultOptions(), nil)
	idx.Load(madridPair())

	nodes := idx.Clusters(world, 14)
	require.Len(t, nodes, 2)

	cl := clustersOnly(nodes)
	require.Len(t, cl, 1)
	assert.Equal(t, 2, cl[0].Count)
	assert.InDelta(t, -3.70375, cl[0].Point.Lon(), 1e-5)
	assert.InDelta(t, 40.4168, cl[0].Point.Lat(), 1e-5)
}

func TestIndex_CountIsPreservedAcrossZooms(t *testing.T) {
	items := make([]Item, 0, 200)
	for i := 0; i < 200; i++ {
		items = append(items, Item{
			ID:    string(rune('A'+i%26)) + string(rune('a'+i/26)),
			Point: orb.Point{2.0 + float64(i%20)*0.01, 48.0 + float64(i/20)*0.01},
		})
	}

	idx := NewIndex(DefaultOptions(), nil)
	idx.Load(items)

	prev := 0
	for z := 0; z <= 15; z++ {
		nodes := idx.Clusters(world, float64(z))
		assert.Equal(t, 200, totalCount(nodes), "zoom %d", z)
		assert.GreaterOrEqual(t, len(nodes), prev, "zoom %d", z)
		prev = len(nodes)
	}
}

func TestIndex_ExpansionZoom(t *testing.T) {
	idx := NewIndex(DefaultOptions(), nil)
	idx.Load(madridPair())

	cl := clustersOnly(idx.Clusters(world, 3))
	require.Len(t, cl, 1)

	zoom, err := idx.ExpansionZoom(cl[0].ClusterID)
	require.NoError(t, err)
	assert.Equal(t, 15, zoom)

	leaves, err := idx.Leaves(cl[0].ClusterID)
	require.NoError(t, err)
	require.Len(t, leaves, 2)
	assert.Equal(t, "madrid-a", leaves[0].ID)
	assert.Equal(t, "madrid-b", leaves[1].ID)
}

func TestIndex_ExpansionZoomSkipsSingleChildLevels(t *testing.T) {
	items := []Item{
		{ID: "a", Point: orb.Point{10.0000, 50}},
		{ID: "b", Point: orb.Point{10.0001, 50}},
		{ID: "c", Point: orb.Point{10.5, 50}},
	}

	idx := NewIndex(DefaultOptions(), nil)
	idx.Load(items)

	cl := clustersOnly(idx.Clusters(world, 0))
	require.Len(t, cl, 1)
	require.Equal(t, 3, cl[0].Count)

	zoom, err := idx.ExpansionZoom(cl[0].ClusterID)
	require.NoError(t, err)

	expanded := idx.Clusters(world, float64(zoom))
	assert.Greater(t, len(expanded), 1)

	before := idx.Clusters(world, float64(zoom-1))
	assert.Len(t, before, 1)
}

func TestIndex_UnknownCluster(t *testing.T) {
	idx := NewIndex(DefaultOptions(), nil)
	idx.Load(madridPair())

	_, err := idx.ExpansionZoom(1)
	assert.True(t, stderrors.Is(err, errors.ErrClusterNotFound))

	_, err = idx.Children(999999)
	assert.True(t, stderrors.Is(err, errors.ErrClusterNotFound))
}

func TestIndex_AntimeridianBounds(t *testing.T) {
	idx := NewIndex(DefaultOptions(), nil)
	idx.Load([]Item{
		{ID: "east", Point: orb.Point{179.9, 1}},
		{ID: "west", Point: orb.Point{-179.9, 1}},
		{ID: "null", Point: orb.Point{0.5, 1}},
	})

	crossing := domain.Bounds{North: 5, South: -5, West: 170, East: -170}
	nodes := idx.Clusters(crossing, 15)
	require.Len(t, nodes, 2)

	ids := []string{nodes[0].ID, nodes[1].ID}
	assert.ElementsMatch(t, []string{"east", "west"}, ids)
}

func TestIndex_EmptyIndex(t *testing.T) {
	idx := NewIndex(Options{}, nil)
	assert.Empty(t, idx.Clusters(world, 5))

	idx.Load(nil)
	assert.Empty(t, idx.Clusters(world, 5))
}

func TestGeoJSON_Properties(t *testing.T) {
	idx := NewIndex(DefaultOptions(), nil)
	idx.Load(madridPair())

	fc := GeoJSON(idx.Clusters(world, 14))
	require.Len(t, fc.Features, 2)

	var clusterFeature, pointFeature map[string]interface{}
	for _, f := range fc.Features {
		if f.Properties["cluster"] == true {
			clusterFeature = f.Properties
		} else {
			pointFeature = f.Properties
		}
	}
	require.NotNil(t, clusterFeature)
	require.NotNil(t, pointFeature)

	assert.Equal(t, 2, clusterFeature["point_count"])
	assert.NotNil(t, clusterFeature["cluster_id"])
	assert.Equal(t, "sydney", pointFeature["id"])
	assert.Nil(t, pointFeature["point_count"])
}

func TestProjectionRoundTrip(t *testing.T) {
	for _, lat := range []float64{-80, -33.8688, 0, 40.4168, 80} {
		assert.InDelta(t, lat, unprojectLat(projectY(lat)), 1e-9)
	}
	for _, lng := range []float64{-180, -3.7, 0, 151.2, 180} {
		assert.InDelta(t, lng, unprojectLng(projectX(lng)), 1e-9)
	}
}
