// Package report collects the evaluations of agents during training, and saves them as a CSV
// table and as an HTML page with the learning curves.
//
// Each Report is identified by a random run ID, used to name the files it saves.
package report

import (
	"cmp"
	"encoding/csv"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/google/uuid"
	"github.com/janpfeifer/rlTicTacToe/internal/arena"
	"github.com/janpfeifer/rlTicTacToe/internal/generics"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Record of one evaluation of an agent.
type Record struct {
	// Config used to create the agent, e.g. "sarsa:alpha=0.3".
	Config string

	// Episodes the agent was trained for when evaluated.
	Episodes int

	// TableSize is the number of (state, action) pairs in the agent's value table.
	TableSize int

	arena.Results
}

// Report is a collection of records. It is safe for concurrent use.
type Report struct {
	RunID uuid.UUID

	mu      sync.Mutex
	records []Record
}

// New creates an empty Report with a new random run ID.
func New() *Report {
	return &Report{RunID: uuid.New()}
}

// Add a record.
func (r *Report) Add(record Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, record)
}

// Records returns a copy of the records, sorted by config and then by number of episodes.
func (r *Report) Records() []Record {
	r.mu.Lock()
	records := slices.Clone(r.records)
	r.mu.Unlock()
	slices.SortStableFunc(records, func(a, b Record) int {
		return cmp.Or(strings.Compare(a.Config, b.Config), cmp.Compare(a.Episodes, b.Episodes))
	})
	return records
}

// Last returns the record with the most episodes for each config.
func (r *Report) Last() map[string]Record {
	last := make(map[string]Record)
	for _, record := range r.Records() {
		last[record.Config] = record
	}
	return last
}

var csvHeader = []string{"run_id", "config", "episodes", "table_size", "matches", "wins", "draws", "losses",
	"win_rate", "draw_rate", "loss_rate"}

// WriteCSV writes the sorted records, with a header line.
func (r *Report) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return errors.Wrap(err, "writing CSV header")
	}
	formatRate := func(rate float64) string { return strconv.FormatFloat(rate, 'f', 4, 64) }
	runID := r.RunID.String()
	for _, record := range r.Records() {
		row := []string{
			runID, record.Config,
			strconv.Itoa(record.Episodes), strconv.Itoa(record.TableSize),
			strconv.Itoa(record.Matches), strconv.Itoa(record.Wins), strconv.Itoa(record.Draws), strconv.Itoa(record.Losses),
			formatRate(record.WinRate()), formatRate(record.DrawRate()), formatRate(record.LossRate()),
		}
		if err := writer.Write(row); err != nil {
			return errors.Wrapf(err, "writing CSV row for %q", record.Config)
		}
	}
	writer.Flush()
	return errors.Wrap(writer.Error(), "flushing CSV")
}

// lineChart of one rate of the records, one series per config, with the number of episodes in the x-axis.
func (r *Report) lineChart(title string, rate func(arena.Results) float64) *charts.Line {
	records := r.Records()
	episodesSet := generics.MakeSet[int]()
	byConfig := make(map[string]map[int]float64)
	for _, record := range records {
		episodesSet.Insert(record.Episodes)
		if byConfig[record.Config] == nil {
			byConfig[record.Config] = make(map[int]float64)
		}
		byConfig[record.Config][record.Episodes] = rate(record.Results)
	}
	episodes := slices.Sorted(maps.Keys(episodesSet))

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: fmt.Sprintf("run %s", r.RunID),
		}),
		charts.WithInitializationOpts(opts.Initialization{
			Theme: "shine",
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: "episodes"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "rate"}),
	)
	line.SetXAxis(generics.SliceMap(episodes, strconv.Itoa))
	for config := range generics.SortedKeys(byConfig) {
		values := byConfig[config]
		items := make([]opts.LineData, 0, len(episodes))
		for _, e := range episodes {
			if value, found := values[e]; found {
				items = append(items, opts.LineData{Value: value})
			} else {
				// Missing evaluation: echarts leaves a gap.
				items = append(items, opts.LineData{Value: "-"})
			}
		}
		line.AddSeries(config, items)
	}
	return line
}

// WriteChart writes an HTML page with the learning curves: win rate and loss rate against the number
// of training episodes.
func (r *Report) WriteChart(w io.Writer) error {
	page := components.NewPage()
	page.PageTitle = fmt.Sprintf("Tic-tac-toe learning curves (run %s)", r.RunID)
	page.AddCharts(
		r.lineChart("Win rate", arena.Results.WinRate),
		r.lineChart("Loss rate", arena.Results.LossRate),
	)
	return errors.Wrap(page.Render(w), "rendering learning curves")
}

// Save writes "<runID>.csv" and "<runID>.html" to dir, creating it if needed. It returns the paths
// of the files written.
func (r *Report) Save(dir string) (csvPath, htmlPath string, err error) {
	if err = os.MkdirAll(dir, 0755); err != nil {
		err = errors.Wrapf(err, "creating report directory %q", dir)
		return
	}
	csvPath = filepath.Join(dir, r.RunID.String()+".csv")
	if err = writeFile(csvPath, r.WriteCSV); err != nil {
		return
	}
	htmlPath = filepath.Join(dir, r.RunID.String()+".html")
	if err = writeFile(htmlPath, r.WriteChart); err != nil {
		return
	}
	klog.V(1).Infof("Report %s saved to %q and %q", r.RunID, csvPath, htmlPath)
	return
}

func writeFile(filePath string, write func(w io.Writer) error) error {
	f, err := os.Create(filePath)
	if err != nil {
		return errors.Wrapf(err, "creating %q", filePath)
	}
	if err = write(f); err != nil {
		_ = f.Close()
		return errors.WithMessagef(err, "writing %q", filePath)
	}
	return errors.Wrapf(f.Close(), "closing %q", filePath)
}
