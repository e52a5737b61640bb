package report

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/Zarux/qtictactoe/services/trainer"
)

var ErrNoWindows = errors.New("no training windows to plot")

// TrainingCurve renders win and draw rates per window plus table growth as
// an HTML page.
func TrainingCurve(w io.Writer, names [2]string, windows []trainer.WindowStats) error {
	if len(windows) == 0 {
		return ErrNoWindows
	}

	xs := make([]string, len(windows))
	var (
		wins0  = make([]opts.LineData, len(windows))
		wins1  = make([]opts.LineData, len(windows))
		draws  = make([]opts.LineData, len(windows))
		sizes0 = make([]opts.LineData, len(windows))
		sizes1 = make([]opts.LineData, len(windows))
	)
	for i, win := range windows {
		xs[i] = strconv.Itoa(win.End)
		wins0[i] = opts.LineData{Value: win.WinRate(0)}
		wins1[i] = opts.LineData{Value: win.WinRate(1)}
		draws[i] = opts.LineData{Value: win.DrawRate()}
		sizes0[i] = opts.LineData{Value: win.TableSize[0]}
		sizes1[i] = opts.LineData{Value: win.TableSize[1]}
	}

	rates := charts.NewLine()
	rates.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Outcome rate per window"}),
		charts.WithInitializationOpts(opts.Initialization{Theme: "shine"}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Top: "bottom"}),
	)
	rates.SetXAxis(xs).
		AddSeries(names[0]+" wins", wins0).
		AddSeries(names[1]+" wins", wins1).
		AddSeries("draws", draws)

	growth := charts.NewLine()
	growth.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Table entries"}),
		charts.WithInitializationOpts(opts.Initialization{Theme: "shine"}),
		charts.WithLegendOpts(opts.Legend{Top: "bottom"}),
	)
	growth.SetXAxis(xs).
		AddSeries(names[0], sizes0).
		AddSeries(names[1], sizes1)

	page := components.NewPage()
	page.AddCharts(rates, growth)

	return page.Render(w)
}

func WriteFile(path string, names [2]string, windows []trainer.WindowStats) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create chart dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart: %w", err)
	}

	if err := TrainingCurve(f, names, windows); err != nil {
		_ = f.Close()
		return fmt.Errorf("render chart: %w", err)
	}

	return f.Close()
}
