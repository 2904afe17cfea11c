package cell_views

import (
	"fmt"
	"html/template"

	"gemgrid/server/fastview"

	channerics "github.com/niceyeti/channerics/channels"
)

// ValuesGrid displays each cell's tile, maximum action value, and greedy policy arrow.
type ValuesGrid struct {
	id      string
	updates <-chan []fastview.EleUpdate
}

func NewValuesGrid(
	done <-chan struct{},
	grids <-chan Grid,
) *ValuesGrid {
	vg := &ValuesGrid{id: "valuesgrid"}
	vg.updates = channerics.Convert(done, grids, vg.onUpdate)
	return vg
}

func (vg *ValuesGrid) Updates() <-chan []fastview.EleUpdate {
	return vg.updates
}

func valueTextId(cell Cell) string {
	return fmt.Sprintf("%d-%d-value-text", cell.X, cell.Y)
}

func policyArrowId(cell Cell) string {
	return fmt.Sprintf("%d-%d-policy-arrow", cell.X, cell.Y)
}

// onUpdate returns the ele-updates needed for the view to reflect the grid's values.
func (vg *ValuesGrid) onUpdate(grid Grid) (ops []fastview.EleUpdate) {
	for _, row := range grid.Cells {
		for _, cell := range row {
			ops = append(ops,
				fastview.EleUpdate{
					EleId: valueTextId(cell),
					Ops: []fastview.Op{
						{Key: "textContent", Value: fmt.Sprintf("%.2f", cell.Max)},
					},
				},
				fastview.EleUpdate{
					EleId: policyArrowId(cell),
					Ops: []fastview.Op{
						{Key: "transform", Value: fmt.Sprintf("rotate(%d)", cell.PolicyArrowRotation)},
						{Key: "visibility", Value: cell.ArrowVisibility},
					},
				})
		}
	}
	return
}

// Parse defines the grid's svg. It relies on the parent's arithmetic func-map.
func (vg *ValuesGrid) Parse(t *template.Template) (name string, err error) {
	name = vg.id
	_, err = t.Funcs(template.FuncMap{
		"valueTextId":   valueTextId,
		"policyArrowId": policyArrowId,
	}).Parse(
		`{{ define "` + name + `" }}
		<div id="state_values">
			{{ $cells := len .Cells }}
			{{ $cell_width := 100 }}
			{{ $cell_height := $cell_width }}
			{{ $width := mult $cell_width $cells }}
			{{ $height := mult $cell_height $cells }}
			{{ $half_height := div $cell_height 2 }}
			{{ $half_width := div $cell_width 2 }}
			<svg id="` + vg.id + `"
				width="{{ add $width 1 }}px"
				height="{{ add $height 1 }}px"
				style="shape-rendering: crispEdges;">
				{{ range $row := .Cells }}
					{{ range $cell := $row }}
					<g>
						<rect
							x="{{ mult $cell.X $cell_width }}"
							y="{{ mult $cell.Y $cell_height }}"
							width="{{ $cell_width }}"
							height="{{ $cell_height }}"
							fill="{{ $cell.Fill }}"
							stroke="black"
							stroke-width="1"/>
						<text id="{{ valueTextId $cell }}"
							x="{{ add (mult $cell.X $cell_width) $half_width }}"
							y="{{ add (mult $cell.Y $cell_height) (sub $half_height 10) }}"
							stroke="blue"
							dominant-baseline="text-top" text-anchor="middle"
							>{{ printf "%.2f" $cell.Max }}</text>
						<g transform="translate({{ add (mult $cell.X $cell_width) $half_width }}, {{ add (mult $cell.Y $cell_height) (add $half_height 20) }})">
							<text id="{{ policyArrowId $cell }}"
							stroke="blue" stroke-width="1"
							dominant-baseline="central" text-anchor="middle"
							visibility="{{ $cell.ArrowVisibility }}"
							transform="rotate({{ $cell.PolicyArrowRotation }})"
							>&uarr;</text>
						</g>
					</g>
					{{ end }}
				{{ end }}
			</svg>
		</div>
		{{ end }}`)
	return
}
