package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	. "gemgrid/grid_world"
	"gemgrid/reinforcement"
	"gemgrid/server/cell_views"
	"gemgrid/server/fastview"

	"github.com/gorilla/websocket"
	. "github.com/smartystreets/goconvey/convey"
)

func demoSnapshot() cell_views.Snapshot {
	env, err := reinforcement.DefaultEnvParameters().NewEnv()
	if err != nil {
		panic(err)
	}
	space := reinforcement.NewStateSpace(env.Board().Positions())
	return cell_views.Snapshot{
		Table: reinforcement.NewValueTable(space.NumStates(), space.NumActions()),
		Space: space,
		Tiles: env.Snapshot().Tiles,
	}
}

func TestServer(t *testing.T) {
	Convey("When the server handles requests", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		snapshots := make(chan cell_views.Snapshot)
		progress := reinforcement.NewProgress()
		progress.Observe(reinforcement.EpisodeStats{Episode: 4, Epsilon: 0.25, Return: 12, ReachedGoal: true})
		returns := []float64{-3, 4, 12}

		server, err := NewServer(ctx, "localhost:0", demoSnapshot(), snapshots, progress, func() []float64 {
			return returns
		})
		So(err, ShouldBeNil)

		get := func(path string) *httptest.ResponseRecorder {
			rec := httptest.NewRecorder()
			server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
			return rec
		}

		Convey("When the index is requested every view is rendered", func() {
			rec := get("/")
			So(rec.Code, ShouldEqual, http.StatusOK)
			body := rec.Body.String()
			So(body, ShouldContainSubstring, `id="valuesgrid"`)
			So(body, ShouldContainSubstring, `id="4-4-value-text"`)
			So(body, ShouldContainSubstring, `id="statspanel-episode"`)
			So(body, ShouldContainSubstring, `id="valuefunction-group"`)
			So(body, ShouldContainSubstring, `/ws`)
			So(strings.Count(body, "<rect"), ShouldEqual, DEMO_SIZE*DEMO_SIZE)
		})

		Convey("When the status is requested the progress is returned as json", func() {
			rec := get("/status")
			So(rec.Code, ShouldEqual, http.StatusOK)
			var report reinforcement.ProgressReport
			So(json.Unmarshal(rec.Body.Bytes(), &report), ShouldBeNil)
			So(report, ShouldResemble, reinforcement.ProgressReport{
				Episode:    4,
				Epsilon:    0.25,
				LastReturn: 12,
				Goals:      1,
			})
		})

		Convey("When the rewards are requested a chart is rendered", func() {
			rec := get("/rewards")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, "Rewards by episode")
		})

		Convey("When an unknown path or method is used", func() {
			So(get("/missing").Code, ShouldEqual, http.StatusNotFound)
			rec := httptest.NewRecorder()
			server.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/status", nil))
			So(rec.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})

		Convey("When a snapshot is published the page is updated over the websocket", func() {
			ts := httptest.NewServer(server)
			defer ts.Close()

			conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
			So(err, ShouldBeNil)
			defer conn.Close()

			snap := demoSnapshot()
			snap.Table.Set(0, Right, 3)
			snap.Stats = reinforcement.EpisodeStats{Episode: 9}
			select {
			case snapshots <- snap:
			case <-time.After(time.Second):
			}

			So(conn.SetReadDeadline(time.Now().Add(5*time.Second)), ShouldBeNil)
			byId := map[string]fastview.EleUpdate{}
			received := func(ids ...string) bool {
				for _, id := range ids {
					if _, ok := byId[id]; !ok {
						return false
					}
				}
				return true
			}
			for !received("statspanel-episode", "0-0-value-text") {
				var updates []fastview.EleUpdate
				if err := conn.ReadJSON(&updates); err != nil {
					break
				}
				for _, update := range updates {
					byId[update.EleId] = update
				}
			}
			So(byId["statspanel-episode"].Ops, ShouldResemble, []fastview.Op{{Key: "textContent", Value: "9"}})
			So(byId["0-0-value-text"].Ops, ShouldResemble, []fastview.Op{{Key: "textContent", Value: "3.00"}})

			Convey("When the page is reloaded it shows the latest snapshot", func() {
				So(get("/").Body.String(), ShouldContainSubstring, `>3.00</text>`)
			})
		})
	})
}
