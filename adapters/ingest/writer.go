package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/xuri/excelize/v2"

	"gridpulse/domain/core"
	"gridpulse/domain/pipeline"
	"gridpulse/internal/errors"
)

const timestampLayout = "2006-01-02 15:04:05"

// ArtifactWriter persists the artifact bundle as a directory of CSV files
// plus a combined XLSX workbook for the summary tables.
type ArtifactWriter struct {
	dir string
}

// NewArtifactWriter writes under the given directory, creating it on demand.
func NewArtifactWriter(dir string) *ArtifactWriter {
	return &ArtifactWriter{dir: dir}
}

// Write exports every artifact of the bundle.
func (w *ArtifactWriter) Write(ctx context.Context, a *pipeline.Artifacts) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return errors.WrapCode(err, errors.CodeWriteFailed, "creating output dir "+w.dir)
	}

	steps := []struct {
		name string
		fn   func(*pipeline.Artifacts) error
	}{
		{"missing_report.csv", w.writeMissing},
		{"imputed_ffill_bfill_hourly.csv", w.frameWriter(pipeline.StrategyForwardBackward)},
		{"imputed_interpolate_hourly.csv", w.frameWriter(pipeline.StrategyTimeInterp)},
		{"outlier_flags_daily.csv", w.writeFlags},
		{"daily_clipped.csv", func(a *pipeline.Artifacts) error {
			return w.writeFrame("daily_clipped.csv", a.Outliers.Clipped)
		}},
		{"rolling_stats.csv", func(a *pipeline.Artifacts) error {
			return w.writeFrame("rolling_stats.csv", a.Rolling)
		}},
		{"hour_of_day_mean.csv", w.writeDiurnal},
		{"corr_hourly.csv", w.writeCorrelation},
		{"best_lag_corr.csv", w.writeLagRanking},
		{"daily_mean.csv", func(a *pipeline.Artifacts) error {
			return w.writeFrame("daily_mean.csv", a.Daily)
		}},
	}
	for _, step := range steps {
		if err := step.fn(a); err != nil {
			return errors.WrapCode(err, errors.CodeWriteFailed, "writing "+step.name)
		}
	}
	if err := w.writeWorkbook(a); err != nil {
		return errors.WrapCode(err, errors.CodeWriteFailed, "writing artifacts.xlsx")
	}
	return nil
}

func (w *ArtifactWriter) frameWriter(strategy string) func(*pipeline.Artifacts) error {
	name := "imputed_" + strategy + "_hourly.csv"
	if strategy == pipeline.StrategyTimeInterp {
		name = "imputed_interpolate_hourly.csv"
	}
	return func(a *pipeline.Artifacts) error {
		return w.writeFrame(name, a.Imputed[strategy])
	}
}

func (w *ArtifactWriter) writeFrame(name string, f *core.Frame) error {
	records := [][]string{frameHeader(f)}
	for i, ts := range f.Index {
		row := make([]string, 0, len(f.Sensors)+1)
		row = append(row, ts.Format(timestampLayout))
		for _, s := range f.Sensors {
			row = append(row, formatCell(f.Column(s)[i]))
		}
		records = append(records, row)
	}
	return w.writeCSV(name, records)
}

func (w *ArtifactWriter) writeFlags(a *pipeline.Artifacts) error {
	flags := a.Outliers.Flags
	header := []string{"datetime"}
	for _, s := range flags.Sensors {
		header = append(header, string(s))
	}
	records := [][]string{header}
	for i, ts := range flags.Index {
		row := []string{ts.Format(timestampLayout)}
		for _, s := range flags.Sensors {
			row = append(row, strconv.FormatBool(flags.Column(s)[i]))
		}
		records = append(records, row)
	}
	return w.writeCSV("outlier_flags_daily.csv", records)
}

func (w *ArtifactWriter) writeMissing(a *pipeline.Artifacts) error {
	records := [][]string{{"sensor", "missing_count", "missing_rate"}}
	for _, e := range a.Missing.Per {
		records = append(records, []string{
			string(e.Sensor),
			strconv.Itoa(e.Count),
			strconv.FormatFloat(e.Rate, 'f', 4, 64),
		})
	}
	return w.writeCSV("missing_report.csv", records)
}

func (w *ArtifactWriter) writeDiurnal(a *pipeline.Artifacts) error {
	header := []string{"hour"}
	for _, s := range a.Diurnal.Sensors {
		header = append(header, string(s))
	}
	records := [][]string{header}
	for _, h := range a.Diurnal.Hours {
		row := []string{strconv.Itoa(h)}
		for _, s := range a.Diurnal.Sensors {
			row = append(row, formatCell(a.Diurnal.Mean[s][h]))
		}
		records = append(records, row)
	}
	return w.writeCSV("hour_of_day_mean.csv", records)
}

func (w *ArtifactWriter) writeCorrelation(a *pipeline.Artifacts) error {
	header := []string{""}
	for _, s := range a.Correlation.Sensors {
		header = append(header, string(s))
	}
	records := [][]string{header}
	for i, s := range a.Correlation.Sensors {
		row := []string{string(s)}
		for j := range a.Correlation.Sensors {
			row = append(row, formatCell(a.Correlation.Values[i][j]))
		}
		records = append(records, row)
	}
	return w.writeCSV("corr_hourly.csv", records)
}

func (w *ArtifactWriter) writeLagRanking(a *pipeline.Artifacts) error {
	records := [][]string{{"pair", "best_lag_h", "corr"}}
	for _, r := range a.LagRanking {
		lag := ""
		if r.Lag != nil {
			lag = strconv.Itoa(*r.Lag)
		}
		records = append(records, []string{
			fmt.Sprintf("%s~%s", r.A, r.B),
			lag,
			formatCell(r.Correlation),
		})
	}
	return w.writeCSV("best_lag_corr.csv", records)
}

func (w *ArtifactWriter) writeCSV(name string, records [][]string) error {
	f, err := os.Create(filepath.Join(w.dir, name))
	if err != nil {
		return err
	}
	defer f.Close()
	cw := csv.NewWriter(f)
	if err := cw.WriteAll(records); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

// writeWorkbook collects the small summary tables into one XLSX for analysts
// who want the run at a glance.
func (w *ArtifactWriter) writeWorkbook(a *pipeline.Artifacts) error {
	book := excelize.NewFile()
	defer book.Close()

	if err := w.sheetFromRecords(book, "missing", [][]string{{"sensor", "missing_count", "missing_rate"}}, func(add func([]string)) {
		for _, e := range a.Missing.Per {
			add([]string{string(e.Sensor), strconv.Itoa(e.Count), strconv.FormatFloat(e.Rate, 'f', 4, 64)})
		}
	}); err != nil {
		return err
	}
	if err := w.sheetFromRecords(book, "best_lag", [][]string{{"pair", "best_lag_h", "corr"}}, func(add func([]string)) {
		for _, r := range a.LagRanking {
			lag := ""
			if r.Lag != nil {
				lag = strconv.Itoa(*r.Lag)
			}
			add([]string{fmt.Sprintf("%s~%s", r.A, r.B), lag, formatCell(r.Correlation)})
		}
	}); err != nil {
		return err
	}
	if err := w.sheetFromRecords(book, "diurnal", nil, func(add func([]string)) {
		header := []string{"hour"}
		for _, s := range a.Diurnal.Sensors {
			header = append(header, string(s))
		}
		add(header)
		for _, h := range a.Diurnal.Hours {
			row := []string{strconv.Itoa(h)}
			for _, s := range a.Diurnal.Sensors {
				row = append(row, formatCell(a.Diurnal.Mean[s][h]))
			}
			add(row)
		}
	}); err != nil {
		return err
	}

	book.DeleteSheet("Sheet1")
	return book.SaveAs(filepath.Join(w.dir, "artifacts.xlsx"))
}

func (w *ArtifactWriter) sheetFromRecords(book *excelize.File, sheet string, header [][]string, fill func(add func([]string))) error {
	if _, err := book.NewSheet(sheet); err != nil {
		return err
	}
	rowNum := 0
	var addErr error
	add := func(cells []string) {
		if addErr != nil {
			return
		}
		rowNum++
		for col, cell := range cells {
			name, err := excelize.CoordinatesToCellName(col+1, rowNum)
			if err != nil {
				addErr = err
				return
			}
			if err := book.SetCellValue(sheet, name, cell); err != nil {
				addErr = err
				return
			}
		}
	}
	for _, h := range header {
		add(h)
	}
	fill(add)
	return addErr
}

func frameHeader(f *core.Frame) []string {
	header := make([]string, 0, len(f.Sensors)+1)
	header = append(header, "datetime")
	for _, s := range f.Sensors {
		header = append(header, string(s))
	}
	return header
}

// formatCell renders a value, mapping the absent marker to an empty cell so
// downstream consumers cannot confuse it with zero.
func formatCell(v float64) string {
	if core.IsAbsent(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
