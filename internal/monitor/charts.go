package monitor

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/pitchside/internal/perception/observe"
)

func bodyPoints(bodies []observe.Body) []opts.ScatterData {
	out := make([]opts.ScatterData, 0, len(bodies))
	for _, b := range bodies {
		out = append(out, opts.ScatterData{
			Value: []interface{}{b.Position.X, b.Position.Y},
			Name:  fmt.Sprintf("#%d u%d %s", b.TrackID, b.Uniform, b.Status),
		})
	}
	return out
}

// handleFieldChart renders the latest snapshot as a scatter plot of the
// pitch. This is a debugging page; the JSON endpoints are the interface.
func (ws *WebServer) handleFieldChart(w http.ResponseWriter, r *http.Request) {
	c := ws.snapshot()
	if c == nil {
		ws.writeJSONError(w, http.StatusNotFound, "no cycle published yet")
		return
	}
	halfL, halfW := observe.HalfLength+5, observe.HalfWidth+5

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Pitchside field", Width: "1050px", Height: "680px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "World model",
			Subtitle: fmt.Sprintf("time=%d mode=%s score=%d-%d", c.Time, c.PlayMode, c.Goals, c.GoalsAgainst),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: -halfL, Max: halfL, Name: "x (m)"}),
		charts.WithYAxisOpts(opts.YAxis{Min: -halfW, Max: halfW, Name: "y (m)"}),
	)

	pose := c.Self.Pose
	scatter.AddSeries("self", []opts.ScatterData{{Value: []interface{}{pose.X, pose.Y}, Name: fmt.Sprintf("heading %.0f", pose.Heading)}},
		charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 12}))
	scatter.AddSeries("ours", bodyPoints(c.World.Ours()), charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 9}))
	scatter.AddSeries("opponents", bodyPoints(c.World.Opps()), charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 9}))
	scatter.AddSeries("unknown", bodyPoints(c.World.Undefined()), charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 7}))
	if ball := c.World.Ball(); ball.Status != observe.StatusLost {
		scatter.AddSeries("ball", []opts.ScatterData{{Value: []interface{}{ball.Position.X, ball.Position.Y}, Name: string(ball.Status)}},
			charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 6}))
	}

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render chart: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// handleTrackPlot renders one recorded track as a PNG trajectory.
func (ws *WebServer) handleTrackPlot(w http.ResponseWriter, r *http.Request) {
	if ws.recorder == nil {
		ws.writeJSONError(w, http.StatusNotFound, "recording disabled")
		return
	}
	session, trackID, ok := ws.trackQuery(w, r)
	if !ok {
		return
	}
	points, err := ws.recorder.Tracks(session, trackID)
	if err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(points) == 0 {
		ws.writeJSONError(w, http.StatusNotFound, "no points for track")
		return
	}

	xys := make(plotter.XYs, len(points))
	for i, p := range points {
		xys[i] = plotter.XY{X: p.X, Y: p.Y}
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("track %d (%s %d)", trackID, points[0].Team, points[0].Uniform)
	p.X.Label.Text = "x (m)"
	p.Y.Label.Text = "y (m)"
	p.X.Min, p.X.Max = -observe.HalfLength, observe.HalfLength
	p.Y.Min, p.Y.Max = -observe.HalfWidth, observe.HalfWidth
	p.Add(plotter.NewGrid())

	line, err := plotter.NewLine(xys)
	if err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	line.Width = vg.Points(1)
	p.Add(line)

	wt, err := p.WriterTo(8*vg.Inch, 5.2*vg.Inch, "png")
	if err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(buf.Bytes())
}
