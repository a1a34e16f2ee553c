// Package export writes run results to disk for post-processing
// outside the terminal plots.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/san-kum/odekit/internal/ode"
)

type runData struct {
	Problem string `json:"problem"`
	Method  string `json:"method"`

	Times  []float64   `json:"times"`
	States [][]float64 `json:"states"`

	Events []eventData `json:"events,omitempty"`

	Diagnostics ode.Diagnostics `json:"diagnostics"`
}

type eventData struct {
	Index int     `json:"index"`
	Time  float64 `json:"time"`
}

// JSON writes the full trajectory, events and diagnostics as an
// indented JSON document.
func JSON(path, problem, method string, res *ode.Result) error {
	data := runData{
		Problem:     problem,
		Method:      method,
		Times:       make([]float64, len(res.Samples)),
		States:      make([][]float64, len(res.Samples)),
		Diagnostics: res.Diag,
	}
	for i, s := range res.Samples {
		data.Times[i] = s.T
		data.States[i] = s.Y
	}
	for _, e := range res.Events {
		data.Events = append(data.Events, eventData{Index: e.Index, Time: e.T})
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// CSV writes one row per sample: t, y0, y1, ...
func CSV(path string, res *ode.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	if len(res.Samples) == 0 {
		return nil
	}
	header := []string{"t"}
	for i := range res.Samples[0].Y {
		header = append(header, "y"+strconv.Itoa(i))
	}
	if err := w.Write(header); err != nil {
		return err
	}

	row := make([]string, len(header))
	for _, s := range res.Samples {
		row[0] = strconv.FormatFloat(s.T, 'g', -1, 64)
		for i, v := range s.Y {
			row[i+1] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}

// Write picks the format from the file extension: .json or .csv.
func Write(path, problem, method string, res *ode.Result) error {
	switch filepath.Ext(path) {
	case ".json":
		return JSON(path, problem, method, res)
	case ".csv":
		return CSV(path, res)
	}
	return fmt.Errorf("%w: export format %q (use .json or .csv)", ode.ErrInvalidConfig, filepath.Ext(path))
}
