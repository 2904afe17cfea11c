package cell_views

import (
	"fmt"
	"html/template"
	"math"

	"gemgrid/server/fastview"

	channerics "github.com/niceyeti/channerics/channels"
)

const (
	cellDim = 80 // pixels per cell side
	// The angle of the x and y axes in the isometric projection.
	projectionAngle = math.Pi / 6
)

var sinAng, cosAng = math.Sin(projectionAngle), math.Cos(projectionAngle)

// ValueFunction is an isometric projection of the surface (x, y, max value).
type ValueFunction struct {
	id      string
	updates <-chan []fastview.EleUpdate
	// Canvas dimensions in pixels, fixed by the board size.
	width, height float64
	xyscale       float64 // pixels per x or y unit
	zscale        float64 // pixels per value unit
}

func NewValueFunction(
	done <-chan struct{},
	grids <-chan Grid,
	size int,
) *ValueFunction {
	vf := &ValueFunction{
		id:      "valuefunction",
		width:   float64(size * cellDim),
		height:  float64(size * cellDim),
		xyscale: cellDim,
		zscale:  cellDim * 0.3,
	}
	vf.updates = channerics.Convert(done, grids, vf.onUpdate)
	return vf
}

func (vf *ValueFunction) Updates() <-chan []fastview.EleUpdate {
	return vf.updates
}

func (vf *ValueFunction) project(x, y, z float64) (float64, float64) {
	sx := (x - y) * cosAng * vf.xyscale
	sy := (x+y)*sinAng*vf.xyscale - z*vf.zscale
	return sx, sy
}

// funcPolygon is the projected quad spanning four adjacent cells: a is bottom left,
// b top left, c top right and d bottom right.
type funcPolygon struct {
	Id     string
	ax, ay float64
	bx, by float64
	cx, cy float64
	dx, dy float64
	avg    float64
}

func polygonId(cell Cell) string {
	return fmt.Sprintf("%d-%d-value-polygon", cell.X, cell.Y)
}

// quad returns the polygon whose top-left corner is the cell at (x, y).
func (vf *ValueFunction) quad(cells [][]Cell, x, y int) *funcPolygon {
	a, b := cells[y+1][x], cells[y][x]
	c, d := cells[y][x+1], cells[y+1][x+1]
	fp := &funcPolygon{
		Id:  polygonId(b),
		avg: (a.Max + b.Max + c.Max + d.Max) / 4,
	}
	fp.ax, fp.ay = vf.project(float64(a.X), float64(a.Y), a.Max)
	fp.bx, fp.by = vf.project(float64(b.X), float64(b.Y), b.Max)
	fp.cx, fp.cy = vf.project(float64(c.X), float64(c.Y), c.Max)
	fp.dx, fp.dy = vf.project(float64(d.X), float64(d.Y), d.Max)
	return fp
}

// String returns a string suitable for the svg-polygon 'points' attribute.
func (fp *funcPolygon) String() string {
	return fmt.Sprintf("%d,%d %d,%d %d,%d %d,%d",
		int(fp.ax), int(fp.ay),
		int(fp.bx), int(fp.by),
		int(fp.cx), int(fp.cy),
		int(fp.dx), int(fp.dy),
	)
}

func (fp *funcPolygon) bounds() (minX, minY, maxX, maxY float64) {
	minX = math.Min(math.Min(fp.ax, fp.bx), math.Min(fp.cx, fp.dx))
	maxX = math.Max(math.Max(fp.ax, fp.bx), math.Max(fp.cx, fp.dx))
	minY = math.Min(math.Min(fp.ay, fp.by), math.Min(fp.cy, fp.dy))
	maxY = math.Max(math.Max(fp.ay, fp.by), math.Max(fp.cy, fp.dy))
	return
}

func (vf *ValueFunction) onUpdate(grid Grid) (ops []fastview.EleUpdate) {
	cells := grid.Cells
	if len(cells) < 2 {
		return nil
	}

	minVal, maxVal := math.MaxFloat64, -math.MaxFloat64
	for _, row := range cells {
		for _, cell := range row {
			minVal = math.Min(minVal, cell.Max)
			maxVal = math.Max(maxVal, cell.Max)
		}
	}

	xmin, ymin := math.MaxFloat64, math.MaxFloat64
	xmax, ymax := -math.MaxFloat64, -math.MaxFloat64
	for y := 0; y < len(cells)-1; y++ {
		for x := 0; x < len(cells[y])-1; x++ {
			polygon := vf.quad(cells, x, y)
			pxmin, pymin, pxmax, pymax := polygon.bounds()
			xmin, ymin = math.Min(xmin, pxmin), math.Min(ymin, pymin)
			xmax, ymax = math.Max(xmax, pxmax), math.Max(ymax, pymax)

			ops = append(ops, fastview.EleUpdate{
				EleId: polygon.Id,
				Ops: []fastview.Op{
					{Key: "points", Value: polygon.String()},
					{Key: "fill", Value: getRGBFill(polygon.avg, minVal, maxVal)},
				},
			})
		}
	}

	// Shift by the min x and y to bring the surface into view, scaling down only if needed.
	scaler := math.Min(
		math.Min(
			math.Abs(vf.width/(xmax-xmin)),
			math.Abs(vf.height/(ymax-ymin)),
		),
		1.0,
	)

	ops = append(ops, fastview.EleUpdate{
		EleId: vf.id + "-group",
		Ops: []fastview.Op{
			{
				Key:   "transform",
				Value: fmt.Sprintf("scale(%f) translate(%d %d)", scaler, int(-xmin), int(-ymin)),
			},
		},
	})
	return
}

// getRGBFill shades from blue at minVal to red at maxVal.
func getRGBFill(val, minVal, maxVal float64) string {
	redPct := 50
	if maxVal > minVal {
		redPct = int(math.Round(100 * (val - minVal) / (maxVal - minVal)))
	}
	return fmt.Sprintf("rgb(%d%%,0%%,%d%%)", redPct, 100-redPct)
}

// Parse defines an svg of one polygon per quad; their points are filled in by updates.
// Polygons are emitted back to front so nearer ones obscure those behind them.
func (vf *ValueFunction) Parse(t *template.Template) (name string, err error) {
	name = vf.id
	_, err = t.Funcs(template.FuncMap{
		"polygonId": polygonId,
	}).Parse(
		`{{ define "` + name + `" }}
		<div style="padding:40px;">
			<svg id="` + vf.id + `" xmlns='http://www.w3.org/2000/svg'
				width="` + fmt.Sprintf("%d", int(2*vf.width)) + `px"
				height="` + fmt.Sprintf("%d", int(2*vf.height)) + `px"
				style="shape-rendering: crispEdges; stroke: lightgrey; stroke-opacity: 1.0; stroke-width: 3;">
				<g id="` + vf.id + "-group" + `" transform="translate(0 0)">
				{{ $cells := .Cells }}
				{{ $last := sub (len $cells) 1 }}
				{{ range $y, $row := $cells }}
					{{ if lt $y $last }}
						{{ range $j, $unused := $row }}
							{{ $x := sub $last $j }}
							{{ if lt $x $last }}
								<polygon id="{{ polygonId (index $row $x) }}" fill="black" fill-opacity="1.0" points="" />
							{{ end }}
						{{ end }}
					{{ end }}
				{{ end }}
				</g>
			</svg>
		</div>
		{{ end }}`)
	return
}
