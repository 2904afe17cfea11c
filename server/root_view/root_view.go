package root_view

import (
	"context"
	"html/template"
	"sync"
	"time"

	"gemgrid/server/cell_views"
	"gemgrid/server/fastview"

	channerics "github.com/niceyeti/channerics/channels"
)

const batchRate = time.Millisecond * 20

// RootView is the main page's index.html: the container for all the view components,
// the wiring for their channels, and the websocket bootstrap script.
type RootView struct {
	views   []fastview.ViewComponent
	updates <-chan []fastview.EleUpdate

	mu     sync.Mutex
	latest cell_views.Snapshot
}

// NewRootView builds the page's views over the snapshot stream. The initial snapshot
// is rendered until a newer one arrives.
func NewRootView(
	ctx context.Context,
	initial cell_views.Snapshot,
	snapshots <-chan cell_views.Snapshot,
) (*RootView, error) {
	rv := &RootView{latest: initial}
	size := len(initial.Tiles)

	views, err := fastview.NewViewBuilder[cell_views.Snapshot, cell_views.Grid]().
		WithContext(ctx).
		WithModel(snapshots, cell_views.Convert).
		WithObserver(rv.setLatest).
		WithViews(
			func(done <-chan struct{}, grids <-chan cell_views.Grid) fastview.ViewComponent {
				return cell_views.NewStatsPanel(done, grids)
			},
			func(done <-chan struct{}, grids <-chan cell_views.Grid) fastview.ViewComponent {
				return cell_views.NewValuesGrid(done, grids)
			},
			func(done <-chan struct{}, grids <-chan cell_views.Grid) fastview.ViewComponent {
				return cell_views.NewValueFunction(done, grids, size)
			}).
		Build()
	if err != nil {
		return nil, err
	}

	rv.views = views
	rv.updates = fanIn(ctx.Done(), views)
	return rv, nil
}

// Updates returns the merged ele-update channel for all the views. It has a single
// consumer: updates are split, not copied, among multiple readers.
func (rv *RootView) Updates() <-chan []fastview.EleUpdate {
	return rv.updates
}

func (rv *RootView) setLatest(snap cell_views.Snapshot) {
	rv.mu.Lock()
	defer rv.mu.Unlock()
	rv.latest = snap
}

// Latest returns the view-model of the most recent snapshot, for rendering the page.
func (rv *RootView) Latest() cell_views.Grid {
	rv.mu.Lock()
	defer rv.mu.Unlock()
	return cell_views.Convert(rv.latest)
}

// Parse builds the main page's template, with websocket bootstrap code, and returns its name.
// It also sets up the func-map that the child components depend on.
func (rv *RootView) Parse(
	parent *template.Template,
) (name string, err error) {
	rt := parent.Funcs(
		template.FuncMap{
			"add":  func(i, j int) int { return i + j },
			"sub":  func(i, j int) int { return i - j },
			"mult": func(i, j int) int { return i * j },
			"div":  func(i, j int) int { return i / j },
		})

	var bodySpec string
	for _, vc := range rv.views {
		tname, parseErr := vc.Parse(rt)
		if parseErr != nil {
			return "", parseErr
		}
		bodySpec += `{{ template "` + tname + `" . }}`
	}

	name = "mainpage"
	indexTemplate := `
	{{ define "` + name + `" }}
	<!DOCTYPE html>
	<html>
		<head>
			<link rel="icon" href="data:,">
			<title>gemgrid</title>
			<script>
				const ws = new WebSocket("ws://" + location.host + "/ws");
				ws.onopen = function (event) {
					console.log("Web socket opened")
				};

				ws.onerror = function (event) {
					console.log('WebSocket error: ', event);
				};

				// Apply the pushed ele-updates to the elements with the given ids.
				ws.onmessage = function (event) {
					const items = JSON.parse(event.data)
					for (const update of items) {
						const ele = document.getElementById(update.EleId)
						if (!ele) {
							continue
						}
						for (const op of update.Ops) {
							if (op.Key === "textContent") {
								ele.textContent = op.Value;
							} else {
								ele.setAttribute(op.Key, op.Value)
							}
						}
					}
				}
			</script>
		</head>
		<body>
		<div style="display: flex; flex-wrap: wrap;">
		` + bodySpec + `
		</div>
		</body></html>
	{{ end }}
	`

	_, err = rt.Parse(indexTemplate)
	return
}

// fanIn merges the views' ele-update channels and batches their output.
func fanIn(
	done <-chan struct{},
	views []fastview.ViewComponent,
) <-chan []fastview.EleUpdate {
	inputs := make([]<-chan []fastview.EleUpdate, len(views))
	for i, view := range views {
		inputs[i] = view.Updates()
	}
	return batchify(
		done,
		channerics.Merge(done, inputs...),
		batchRate)
}

// batchify collects updates and emits them at most once per rate, keeping only the
// latest update per ele-id. The source keeps draining while no one reads the output,
// so a late reader receives the current state rather than a stale one.
func batchify(
	done <-chan struct{},
	source <-chan []fastview.EleUpdate,
	rate time.Duration,
) <-chan []fastview.EleUpdate {
	output := make(chan []fastview.EleUpdate)

	go func() {
		defer close(output)

		pending := map[string]fastview.EleUpdate{}
		ticker := channerics.NewTicker(done, rate)
		for {
			select {
			case <-done:
				return
			case updates, ok := <-source:
				if !ok {
					if len(pending) > 0 {
						select {
						case output <- slicedVals(pending):
						case <-done:
						}
					}
					return
				}
				for _, update := range updates {
					pending[update.EleId] = update
				}
			case <-ticker:
				if len(pending) == 0 {
					continue
				}
				select {
				case output <- slicedVals(pending):
					pending = map[string]fastview.EleUpdate{}
				default:
				}
			}
		}
	}()

	return output
}

// slicedVals returns the values of a map as a slice.
func slicedVals[T1 comparable, T2 any](mp map[T1]T2) (sliced []T2) {
	for _, v := range mp {
		sliced = append(sliced, v)
	}
	return
}
