package metric

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/sugarme/cae/model"
)

// ErrColumns is returned when a summary does not carry the columns of the log.
var ErrColumns = errors.New("metric: summary columns differ from log header")

// Log is the training metrics log of a run: one CSV row per global step.
// Rows are kept in memory; Flush rewrites the file with all rows so far and
// is called by the trainer at the end of every epoch.
type Log struct {
	path    string
	header  []string
	records [][]string
}

// NewLog creates an empty log at path. The file is created right away so a
// bad location fails before training starts.
func NewLog(path string) (*Log, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, err
	}
	return &Log{path: path}, nil
}

// Path of the CSV file.
func (l *Log) Path() string { return l.path }

// AddSummary implements train.SummaryWriter. The first summary fixes the
// columns of the log.
func (l *Log) AddSummary(step int, s model.Summary) error {
	if l.header == nil {
		keys := make([]string, 0, len(s))
		for k := range s {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		l.header = append([]string{"step"}, keys...)
	}
	if len(s) != len(l.header)-1 {
		return fmt.Errorf("%w: got %d values, want %d", ErrColumns, len(s), len(l.header)-1)
	}

	rec := make([]string, len(l.header))
	rec[0] = strconv.Itoa(step)
	for i, k := range l.header[1:] {
		v, ok := s[k]
		if !ok {
			return fmt.Errorf("%w: missing %q", ErrColumns, k)
		}
		rec[i+1] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	l.records = append(l.records, rec)

	return nil
}

// Len is the number of rows logged so far.
func (l *Log) Len() int { return len(l.records) }

// Flush writes all rows logged so far.
func (l *Log) Flush() error {
	if l.header == nil {
		return nil
	}
	rows := append([][]string{l.header}, l.records...)
	df := dataframe.LoadRecords(rows, dataframe.DetectTypes(false), dataframe.DefaultType(series.String))
	if df.Err != nil {
		return df.Err
	}

	f, err := os.Create(l.path)
	if err != nil {
		return err
	}
	if err := df.WriteCSV(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Close flushes the log.
func (l *Log) Close() error {
	return l.Flush()
}

// ReadColumn reads the step column and the named column of a metrics log.
func ReadColumn(path, column string) (steps, values []float64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	df := dataframe.ReadCSV(f, dataframe.HasHeader(true))
	if df.Err != nil {
		return nil, nil, df.Err
	}
	s := df.Col("step")
	v := df.Col(column)
	if s.Err != nil {
		return nil, nil, s.Err
	}
	if v.Err != nil {
		return nil, nil, v.Err
	}

	return s.Float(), v.Float(), nil
}

// PlotColumn draws column of the metrics log at path against the global step
// and saves the figure to out.
func PlotColumn(path, column, out string) error {
	steps, values, err := ReadColumn(path, column)
	if err != nil {
		return err
	}

	p, err := plot.New()
	if err != nil {
		return err
	}
	p.Title.Text = fmt.Sprintf("Training %v", column)
	p.X.Label.Text = "step"
	p.Y.Label.Text = column

	pts := make(plotter.XYs, len(steps))
	for i := range steps {
		pts[i].X = steps[i]
		pts[i].Y = values[i]
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	p.Add(line)

	return p.Save(6*vg.Inch, 4*vg.Inch, out)
}
