package cell_views

import (
	"fmt"
	"html/template"

	"gemgrid/server/fastview"

	channerics "github.com/niceyeti/channerics/channels"
)

// StatsPanel displays the diagnostics of the episode that produced the latest snapshot.
type StatsPanel struct {
	id      string
	updates <-chan []fastview.EleUpdate
}

func NewStatsPanel(
	done <-chan struct{},
	grids <-chan Grid,
) *StatsPanel {
	sp := &StatsPanel{id: "statspanel"}
	sp.updates = channerics.Convert(done, grids, sp.onUpdate)
	return sp
}

func (sp *StatsPanel) Updates() <-chan []fastview.EleUpdate {
	return sp.updates
}

func (sp *StatsPanel) onUpdate(grid Grid) []fastview.EleUpdate {
	text := func(field, value string) fastview.EleUpdate {
		return fastview.EleUpdate{
			EleId: sp.id + "-" + field,
			Ops:   []fastview.Op{{Key: "textContent", Value: value}},
		}
	}

	stats := grid.Stats
	return []fastview.EleUpdate{
		text("episode", fmt.Sprintf("%d", stats.Episode)),
		text("epsilon", fmt.Sprintf("%.4f", stats.Epsilon)),
		text("return", fmt.Sprintf("%.2f", stats.Return)),
		text("timesteps", fmt.Sprintf("%d", stats.Timesteps)),
		text("goal", fmt.Sprintf("%t", stats.ReachedGoal)),
	}
}

func (sp *StatsPanel) Parse(t *template.Template) (name string, err error) {
	name = sp.id
	_, err = t.Parse(
		`{{ define "` + name + `" }}
		<div id="` + sp.id + `" style="font-family: monospace; padding: 10px;">
			<div>Episode: <span id="` + sp.id + `-episode">{{ .Stats.Episode }}</span></div>
			<div>Epsilon: <span id="` + sp.id + `-epsilon">{{ printf "%.4f" .Stats.Epsilon }}</span></div>
			<div>Return: <span id="` + sp.id + `-return">{{ printf "%.2f" .Stats.Return }}</span></div>
			<div>Timesteps: <span id="` + sp.id + `-timesteps">{{ .Stats.Timesteps }}</span></div>
			<div>Reached goal: <span id="` + sp.id + `-goal">{{ .Stats.ReachedGoal }}</span></div>
			<div><a href="/rewards">rewards</a> <a href="/status">status</a></div>
		</div>
		{{ end }}`)
	return
}
