package render

import (
	"math"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/matzehuels/scopeview/pkg/hierarchy"
)

const (
	minEdgeWidth = 0.75
	maxEdgeWidth = 12

	// Sizes beyond this many elements all get the widest stroke.
	maxEdgeSizeForWidth = 5e6
	edgeWidthExponent   = 0.3
)

var structureHues = []float64{220, 100, 180, 40, 20, 340, 260, 300, 140, 60}

// StructurePalette returns the fill for the id-th device or cluster.
// Lightened colors are used for fills behind text.
func StructurePalette(id int, lightened bool) string {
	hue := structureHues[((id%len(structureHues))+len(structureHues))%len(structureHues)]
	m := math.Sin(hue * math.Pi / 360)
	sat, light := 90-60*m, 80.0
	if lightened {
		sat, light = sat-30, 95
	}
	return colorful.Hsl(hue, sat/100, light/100).Hex()
}

// MapIndexToHue spreads consecutive ids around the hue wheel using the
// golden ratio, staying within [1, 359).
func MapIndexToHue(id int) float64 {
	const goldenRatio = 1.61803398875
	const hueRange = 358
	return 1 + math.Mod(hueRange*goldenRatio*float64(id), hueRange)
}

// ordinalScale maps names to palette entries in order of first appearance.
type ordinalScale struct {
	index map[string]int
}

func newOrdinalScale(domain []string) *ordinalScale {
	s := &ordinalScale{index: make(map[string]int, len(domain))}
	for _, d := range domain {
		s.lookup(d)
	}
	return s
}

func (s *ordinalScale) lookup(key string) int {
	i, ok := s.index[key]
	if !ok {
		i = len(s.index)
		s.index[key] = i
	}
	return i
}

func (s *ordinalScale) color(key string) string {
	return StructurePalette(s.lookup(key), false)
}

// colorScale interpolates linearly between two colors over [0, max].
type colorScale struct {
	max       float64
	low, high colorful.Color
}

func newColorScale(top float64, colors []string) colorScale {
	low, _ := colorful.Hex(colors[0])
	high, _ := colorful.Hex(colors[1])
	return colorScale{max: top, low: low, high: high}
}

func (s colorScale) color(v float64) string {
	t := 0.5
	if s.max != 0 {
		t = v / s.max
	}
	t = math.Max(0, math.Min(1, t))
	return s.low.BlendRgb(s.high, t).Clamped().Hex()
}

// edgeWidthScale maps a metaedge's tensor size to a stroke width. With shape
// information sizes are element counts and use a clamped power curve;
// without it they are edge counts and scale linearly.
type edgeWidthScale struct {
	shapes  bool
	maxSize float64
}

func (s edgeWidthScale) width(size float64) float64 {
	if s.shapes {
		size = math.Max(1, math.Min(maxEdgeSizeForWidth, size))
		lo, hi := 1.0, math.Pow(maxEdgeSizeForWidth, edgeWidthExponent)
		t := (math.Pow(size, edgeWidthExponent) - lo) / (hi - lo)
		return minEdgeWidth + t*(maxEdgeWidth-minEdgeWidth)
	}
	if s.maxSize <= 1 {
		return (minEdgeWidth + maxEdgeWidth) / 2
	}
	t := (math.Min(math.Max(size, 1), s.maxSize) - 1) / (s.maxSize - 1)
	return minEdgeWidth + t*(maxEdgeWidth-minEdgeWidth)
}

// scales holds the color and width scales shared by every scope.
type scales struct {
	device      *ordinalScale
	xlaCluster  *ordinalScale
	memory      colorScale
	computeTime colorScale
	edgeWidth   edgeWidthScale
}

// computeScales sizes the stats ramps from the top-level scopes, which
// carry the aggregate totals.
func computeScales(h Hierarchy, params Params) scales {
	var maxMemory, maxCompute int64
	top := h.Root().Group.Metagraph
	for _, name := range top.Nodes() {
		n, _ := top.Node(name)
		if n == nil || n.Stats == nil {
			continue
		}
		maxMemory = max(maxMemory, n.Stats.TotalBytes)
		if micros, ok := n.Stats.TotalMicros(); ok {
			maxCompute = max(maxCompute, micros)
		}
	}
	return scales{
		device:      newOrdinalScale(h.Devices()),
		xlaCluster:  newOrdinalScale(h.XLAClusters()),
		memory:      newColorScale(float64(maxMemory), params.MinMaxColors),
		computeTime: newColorScale(float64(maxCompute), params.MinMaxColors),
		edgeWidth: edgeWidthScale{
			shapes:  h.HasShapeInfo(),
			maxSize: float64(h.MaxMetaedgeSize()),
		},
	}
}

// shapeLabel renders a tensor shape as "2×?×3", or "scalar" for rank 0.
func shapeLabel(shape hierarchy.Shape) string {
	if len(shape) == 0 {
		return "scalar"
	}
	dims := make([]string, len(shape))
	for i, d := range shape {
		if d == -1 {
			dims[i] = "?"
		} else {
			dims[i] = strconv.FormatInt(d, 10)
		}
	}
	return strings.Join(dims, "×")
}
