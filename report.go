package segbench

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"text/tabwriter"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Column names of the exported score table. They match the result files
// produced by earlier runs of the benchmark, which keeps old and new tables comparable.
const (
	ColumnImage   = "Bild"
	ColumnMethod  = "Methode"
	ColumnScore   = "Dice Score"
	ColumnDataset = "Datensatz"
)

// Record is one row of the score table.
type Record struct {
	Image   string
	Method  string
	Score   float64
	Dataset string
}

// hasDataset reports whether the dataset column has to be written.
func hasDataset(records []Record) bool {
	for _, r := range records {
		if r.Dataset != "" {
			return true
		}
	}
	return false
}

// WriteCSV writes the records as a CSV table. The dataset column is only
// present when at least one record belongs to a named dataset.
func WriteCSV(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	withDataset := hasDataset(records)

	header := []string{ColumnImage, ColumnMethod, ColumnScore}
	if withDataset {
		header = append(header, ColumnDataset)
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{r.Image, r.Method, strconv.FormatFloat(r.Score, 'g', -1, 64)}
		if withDataset {
			row = append(row, r.Dataset)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV reads a score table with or without the dataset column.
func ReadCSV(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("missing header")
	}

	cols := make(map[string]int)
	for i, name := range rows[0] {
		cols[name] = i
	}
	for _, name := range []string{ColumnImage, ColumnMethod, ColumnScore} {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}
	dsCol, withDataset := cols[ColumnDataset]

	records := make([]Record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		score, err := strconv.ParseFloat(row[cols[ColumnScore]], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+2, err)
		}
		rec := Record{
			Image:  row[cols[ColumnImage]],
			Method: row[cols[ColumnMethod]],
			Score:  score,
		}
		if withDataset {
			rec.Dataset = row[dsCol]
		}
		records = append(records, rec)
	}
	return records, nil
}

// Summary aggregates the scores one method obtained over all images.
type Summary struct {
	Method string
	Count  int
	Mean   float64
	StdDev float64
	Median float64
	Min    float64
	Max    float64
}

// Summarize groups the records by method, best mean score first.
func Summarize(records []Record) []Summary {
	var (
		order  []string
		scores = make(map[string][]float64)
	)
	for _, r := range records {
		if _, ok := scores[r.Method]; !ok {
			order = append(order, r.Method)
		}
		scores[r.Method] = append(scores[r.Method], r.Score)
	}

	summaries := make([]Summary, 0, len(order))
	for _, m := range order {
		x := scores[m]
		sort.Float64s(x)

		s := Summary{
			Method: m,
			Count:  len(x),
			Mean:   stat.Mean(x, nil),
			Median: stat.Quantile(0.5, stat.Empirical, x, nil),
			Min:    floats.Min(x),
			Max:    floats.Max(x),
		}
		if len(x) > 1 {
			s.StdDev = stat.StdDev(x, nil)
		}
		if math.IsNaN(s.StdDev) {
			s.StdDev = 0
		}
		summaries = append(summaries, s)
	}
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].Mean > summaries[j].Mean
	})
	return summaries
}

// WriteSummary prints the summaries as an aligned table.
func WriteSummary(w io.Writer, summaries []Summary) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Method\tN\tMean\tStdDev\tMedian\tMin\tMax")
	for _, s := range summaries {
		fmt.Fprintf(tw, "%s\t%d\t%.4f\t%.4f\t%.4f\t%.4f\t%.4f\n",
			s.Method, s.Count, s.Mean, s.StdDev, s.Median, s.Min, s.Max)
	}
	return tw.Flush()
}
