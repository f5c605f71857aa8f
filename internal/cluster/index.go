package cluster

import (
	"math"
	"sort"
	"strconv"
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"

	"github.com/building-discovery/internal/domain"
	"github.com/building-discovery/internal/pkg/errors"
	"github.com/building-discovery/internal/pkg/logger"
)

// Options - параметры кластеризации. Радиус задаётся в пикселях тайла
// размером Extent.
type Options struct {
	MinZoom   int
	MaxZoom   int
	MinPoints int
	Radius    float64
	Extent    int
}

func DefaultOptions() Options {
	return Options{
		MinZoom:   0,
		MaxZoom:   14,
		MinPoints: 2,
		Radius:    50,
		Extent:    512,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MinZoom < 0 {
		o.MinZoom = 0
	}
	if o.MaxZoom <= 0 {
		o.MaxZoom = d.MaxZoom
	}
	// младшие 5 бит id кластера кодируют зум
	if o.MaxZoom > 24 {
		o.MaxZoom = 24
	}
	if o.MinZoom > o.MaxZoom {
		o.MinZoom = o.MaxZoom
	}
	if o.MinPoints < 2 {
		o.MinPoints = d.MinPoints
	}
	if o.Radius <= 0 {
		o.Radius = d.Radius
	}
	if o.Extent <= 0 {
		o.Extent = d.Extent
	}
	return o
}

// Item - входная точка индекса
type Item struct {
	ID    string
	Point orb.Point
}

// Node - элемент выдачи: одиночная точка или кластер
type Node struct {
	ID        string
	ClusterID int
	IsCluster bool
	Point     orb.Point
	Count     int
}

type node struct {
	x, y      float64
	zoom      int // последний обработанный зум
	id        int // индекс точки или id кластера
	parent    int
	numPoints int
	cluster   bool
}

type clusterRef struct {
	zoom     int
	children []int
}

// Index - иерархическая кластеризация точек по уровням зума.
// Уровень MaxZoom+1 содержит исходные точки.
type Index struct {
	opts   Options
	logger *zap.Logger

	mu       sync.RWMutex
	items    []Item
	levels   [][]node
	clusters map[int]clusterRef
}

func NewIndex(opts Options, log *zap.Logger) *Index {
	return &Index{
		opts:     opts.withDefaults(),
		logger:   logger.OrNop(log),
		clusters: make(map[int]clusterRef),
	}
}

// Load перестраивает индекс целиком
func (idx *Index) Load(items []Item) {
	opts := idx.opts
	levels := make([][]node, opts.MaxZoom+2)
	clusters := make(map[int]clusterRef)

	leaves := make([]node, 0, len(items))
	for i, it := range items {
		leaves = append(leaves, node{
			x:         projectX(it.Point.Lon()),
			y:         projectY(it.Point.Lat()),
			zoom:      math.MaxInt32,
			id:        i,
			parent:    -1,
			numPoints: 1,
		})
	}
	levels[opts.MaxZoom+1] = leaves

	for z := opts.MaxZoom; z >= opts.MinZoom; z-- {
		levels[z] = idx.clusterLevel(levels[z+1], z, len(items), clusters)
	}

	idx.mu.Lock()
	idx.items = items
	idx.levels = levels
	idx.clusters = clusters
	idx.mu.Unlock()

	idx.logger.Debug("Cluster index loaded",
		zap.Int("points", len(items)),
		zap.Int("clusters", len(clusters)))
}

func (idx *Index) clusterLevel(prev []node, zoom, total int, clusters map[int]clusterRef) []node {
	r := idx.opts.Radius / (float64(idx.opts.Extent) * math.Pow(2, float64(zoom)))
	g := newGrid(prev, r)
	next := make([]node, 0, len(prev))

	for i := range prev {
		p := &prev[i]
		if p.zoom <= zoom {
			continue
		}
		p.zoom = zoom

		neighbors := g.within(prev, p.x, p.y, r)
		numPoints := p.numPoints
		for _, j := range neighbors {
			if prev[j].zoom > zoom {
				numPoints += prev[j].numPoints
			}
		}

		if numPoints > p.numPoints && numPoints >= idx.opts.MinPoints {
			id := (i << 5) + (zoom + 1) + total
			wx := p.x * float64(p.numPoints)
			wy := p.y * float64(p.numPoints)
			children := []int{i}
			p.parent = id

			for _, j := range neighbors {
				b := &prev[j]
				if b.zoom <= zoom {
					continue
				}
				b.zoom = zoom
				b.parent = id
				wx += b.x * float64(b.numPoints)
				wy += b.y * float64(b.numPoints)
				children = append(children, j)
			}

			clusters[id] = clusterRef{zoom: zoom, children: children}
			next = append(next, node{
				x:         wx / float64(numPoints),
				y:         wy / float64(numPoints),
				zoom:      math.MaxInt32,
				id:        id,
				parent:    -1,
				numPoints: numPoints,
				cluster:   true,
			})
			continue
		}

		next = append(next, passThrough(*p))
		if numPoints > 1 {
			for _, j := range neighbors {
				b := &prev[j]
				if b.zoom <= zoom {
					continue
				}
				b.zoom = zoom
				next = append(next, passThrough(*b))
			}
		}
	}

	return next
}

func passThrough(n node) node {
	n.zoom = math.MaxInt32
	n.parent = -1
	return n
}

// Clusters возвращает кластеры и точки, попавшие в границы на зуме.
// Границы через антимеридиан (West > East) обрабатываются двумя запросами.
func (idx *Index) Clusters(b domain.Bounds, zoom float64) []Node {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if len(idx.levels) == 0 {
		return nil
	}

	west, east := b.West, b.East
	if east-west >= 360 {
		west, east = -180, 180
	}
	if west > east {
		out := idx.clustersIn(-180, b.South, east, b.North, zoom)
		return append(out, idx.clustersIn(west, b.South, 180, b.North, zoom)...)
	}
	return idx.clustersIn(west, b.South, east, b.North, zoom)
}

func (idx *Index) clustersIn(west, south, east, north, zoom float64) []Node {
	level := idx.levels[idx.limitZoom(zoom)]
	minX, maxX := projectX(west), projectX(east)
	minY, maxY := projectY(north), projectY(south)

	var out []Node
	for _, n := range level {
		if n.x < minX || n.x > maxX || n.y < minY || n.y > maxY {
			continue
		}
		out = append(out, idx.toNode(n))
	}
	return out
}

func (idx *Index) limitZoom(zoom float64) int {
	z := int(math.Floor(zoom))
	if z < idx.opts.MinZoom {
		return idx.opts.MinZoom
	}
	if z > idx.opts.MaxZoom+1 {
		return idx.opts.MaxZoom + 1
	}
	return z
}

func (idx *Index) toNode(n node) Node {
	pt := orb.Point{unprojectLng(n.x), unprojectLat(n.y)}
	if !n.cluster {
		it := idx.items[n.id]
		return Node{ID: it.ID, Point: it.Point, Count: 1}
	}
	return Node{
		ID:        strconv.Itoa(n.id),
		ClusterID: n.id,
		IsCluster: true,
		Point:     pt,
		Count:     n.numPoints,
	}
}

// Children возвращает непосредственных потомков кластера
func (idx *Index) Children(clusterID int) ([]Node, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	ref, ok := idx.clusters[clusterID]
	if !ok {
		return nil, errors.ErrClusterNotFound.WithDetails(map[string]interface{}{
			"cluster_id": clusterID,
		})
	}

	level := idx.levels[ref.zoom+1]
	out := make([]Node, 0, len(ref.children))
	for _, i := range ref.children {
		out = append(out, idx.toNode(level[i]))
	}
	return out, nil
}

// ExpansionZoom - минимальный зум, на котором кластер распадается
// больше чем на одного потомка
func (idx *Index) ExpansionZoom(clusterID int) (int, error) {
	idx.mu.RLock()
	ref, ok := idx.clusters[clusterID]
	idx.mu.RUnlock()
	if !ok {
		return 0, errors.ErrClusterNotFound.WithDetails(map[string]interface{}{
			"cluster_id": clusterID,
		})
	}

	expansion := ref.zoom
	for expansion <= idx.opts.MaxZoom {
		children, err := idx.Children(clusterID)
		if err != nil {
			return 0, err
		}
		expansion++
		if len(children) != 1 || !children[0].IsCluster {
			break
		}
		clusterID = children[0].ClusterID
	}
	return expansion, nil
}

// Leaves возвращает исходные точки кластера, отсортированные по ID
func (idx *Index) Leaves(clusterID int) ([]Item, error) {
	children, err := idx.Children(clusterID)
	if err != nil {
		return nil, err
	}

	var out []Item
	for _, c := range children {
		if !c.IsCluster {
			out = append(out, Item{ID: c.ID, Point: c.Point})
			continue
		}
		leaves, err := idx.Leaves(c.ClusterID)
		if err != nil {
			return nil, err
		}
		out = append(out, leaves...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Len - число исходных точек
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.items)
}

// GeoJSON - выдача Clusters в формате источника карты
func GeoJSON(nodes []Node) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, n := range nodes {
		f := geojson.NewFeature(n.Point)
		f.ID = n.ID
		f.Properties["id"] = n.ID
		f.Properties["cluster"] = n.IsCluster
		if n.IsCluster {
			f.Properties["cluster_id"] = n.ClusterID
			f.Properties["point_count"] = n.Count
		}
		fc.Append(f)
	}
	return fc
}
