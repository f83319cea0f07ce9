package plot

import (
	"fmt"
	"image/color"
	"math"
	"sort"

	"github.com/notargets/avs/chart2d"
	utils2 "github.com/notargets/avs/utils"

	"github.com/notargets/gofault/faults"
	"github.com/notargets/gofault/feassemble"
	"github.com/notargets/gofault/topology"
)

var stepColors = []color.RGBA{utils2.RED, utils2.GREEN, utils2.WHITE}

/*
SlipProfile returns the tangential slip along a fault as line segments
(x1, y1, x2, y2, ...), x being the distance along the tangent of the first
constrained vertex. In 3D the magnitude of the tangential slip is used.
*/
func SlipProfile(fc *faults.FaultCohesiveDyn, solution *topology.Field) (line []float32) {
	var (
		fs      = fc.Vertices
		slip, _ = fc.VertexSlipTraction(solution)
		x0      = fc.Mesh.Coordinates[fs.Vertices[0]]
		tangent = fs.Frames[0].R[0]
		n       = fs.NumVertices()
		s       = make([]float64, n)
		order   = make([]int, n)
	)
	for i, v := range fs.Vertices {
		for k, x := range fc.Mesh.Coordinates[v] {
			s[i] += (x - x0[k]) * tangent[k]
		}
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return s[order[a]] < s[order[b]] })
	value := func(i int) float32 {
		if len(slip[i]) == 2 {
			return float32(slip[i][0])
		}
		return float32(math.Hypot(slip[i][0], slip[i][1]))
	}
	for j := 1; j < n; j++ {
		a, b := order[j-1], order[j]
		line = append(line, float32(s[a]), value(a), float32(s[b]), value(b))
	}
	return
}

func extent(line []float32) (xMin, xMax, yMin, yMax float32) {
	xMin, xMax = float32(math.MaxFloat32), -float32(math.MaxFloat32)
	yMin, yMax = float32(math.MaxFloat32), -float32(math.MaxFloat32)
	for i := 0; i < len(line)/2; i++ {
		x, y := line[2*i], line[2*i+1]
		if x < xMin {
			xMin = x
		}
		if x > xMax {
			xMax = x
		}
		if y < yMin {
			yMin = y
		}
		if y > yMax {
			yMax = y
		}
	}
	if yMax-yMin < 1.e-12 {
		yMin, yMax = yMin-1, yMax+1
	}
	return
}

/*
SlipChart draws the slip profile of one fault after each step in a chart
window. The chart is scaled to the first profile with a margin of Headroom
times the slip range.
*/
type SlipChart struct {
	Label    string
	Headroom float32
	Fault    *faults.FaultCohesiveDyn
	draw     func(line []float32, col color.RGBA)
}

func NewSlipChart(label string) *SlipChart {
	return &SlipChart{Label: label, Headroom: 4}
}

func (sc *SlipChart) SetPhysics(physics feassemble.Integrator) {
	fc, ok := physics.(*faults.FaultCohesiveDyn)
	if !ok || sc.Fault != nil {
		return
	}
	if len(sc.Label) == 0 || fc.GetMarkerLabel() == sc.Label {
		sc.Fault = fc
	}
}

func (sc *SlipChart) Verify(solution *topology.Field) error {
	if sc.Fault == nil {
		return fmt.Errorf("%w: no fault with label %q to plot", feassemble.ErrInvalidConfiguration, sc.Label)
	}
	if sc.Fault.Vertices.NumVertices() < 2 {
		return fmt.Errorf("%w: fault %s has too few vertices to plot", feassemble.ErrInvalidConfiguration, sc.Fault.Surface)
	}
	return nil
}

func (sc *SlipChart) Update(t float64, tindex int, solution *topology.Field, infoOnly bool) error {
	if infoOnly {
		return nil
	}
	line := SlipProfile(sc.Fault, solution)
	if sc.draw == nil {
		xMin, xMax, yMin, yMax := extent(line)
		dy := sc.Headroom * (yMax - yMin)
		ch := chart2d.NewChart2D(xMin, xMax, yMin-dy, yMax+dy,
			1024, 1024, utils2.WHITE, utils2.BLACK)
		sc.draw = func(line []float32, col color.RGBA) { ch.AddLine(line, col) }
	}
	sc.draw(line, stepColors[tindex%len(stepColors)])
	return nil
}
