package reporting

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/gonum/floats"
)

const (
	DEFAULT_CHART_PATH = "charts/rewards.html"
	DEFAULT_WINDOW     = 20
)

// MovingAverage returns the trailing mean of returns over window episodes. The first
// entries average over however many episodes exist so far.
func MovingAverage(returns []float64, window int) []float64 {
	if window < 1 {
		window = 1
	}
	avgs := make([]float64, len(returns))
	for i := range returns {
		lo := i + 1 - window
		if lo < 0 {
			lo = 0
		}
		avgs[i] = floats.Sum(returns[lo:i+1]) / float64(i+1-lo)
	}
	return avgs
}

// RewardsChart builds a line chart of the per-episode return and its moving average.
func RewardsChart(returns []float64, window int) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Rewards by episode",
			Subtitle: fmt.Sprintf("%d episodes, moving average over %d", len(returns), window),
		}),
		charts.WithInitializationOpts(opts.Initialization{
			Theme: "shine",
		}),
	)

	episodes := make([]string, 0, len(returns))
	for i := range returns {
		episodes = append(episodes, fmt.Sprintf("%d", i+1))
	}

	toItems := func(vals []float64) []opts.LineData {
		items := make([]opts.LineData, 0, len(vals))
		for _, v := range vals {
			items = append(items, opts.LineData{Value: v})
		}
		return items
	}

	line.SetXAxis(episodes).
		AddSeries("return", toItems(returns)).
		AddSeries("moving average", toItems(MovingAverage(returns, window)))
	return line
}

// RenderRewards writes a standalone HTML page containing the rewards chart.
func RenderRewards(w io.Writer, returns []float64, window int) error {
	page := components.NewPage()
	page.AddCharts(RewardsChart(returns, window))
	return page.Render(w)
}

// ChartReporter writes the rewards chart to an HTML file once training completes.
// It implements reinforcement.RewardReporter.
type ChartReporter struct {
	path   string
	window int
}

func NewChartReporter(path string, window int) *ChartReporter {
	return &ChartReporter{
		path:   path,
		window: window,
	}
}

// ReportRewards renders the chart file. Failures are logged, not returned.
func (cr *ChartReporter) ReportRewards(returns []float64) {
	if err := cr.write(returns); err != nil {
		log.Printf("rewards chart not written: %v", err)
		return
	}
	log.Printf("rewards chart written to %s", cr.path)
}

func (cr *ChartReporter) write(returns []float64) error {
	if err := os.MkdirAll(filepath.Dir(cr.path), 0o700); err != nil {
		return err
	}
	f, err := os.Create(cr.path)
	if err != nil {
		return err
	}
	defer f.Close()
	return RenderRewards(f, returns, cr.window)
}
