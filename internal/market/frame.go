// Package market holds the weekly rate table the advisor reasons over.
package market

import (
	"errors"
	"math"
	"slices"
	"sort"
	"time"
)

// Series names as they appear in the frame, the store and tool output.
const (
	Cete28        = "CETE_28D"
	Cete91        = "CETE_91D"
	Cete182       = "CETE_182D"
	Cete364       = "CETE_364D"
	TasaObjetivo  = "Tasa_Objetivo"
	TasaFED       = "Tasa_FED"
	TipoCambioFix = "Tipo_Cambio_Fix"
	INPC          = "INPC"
)

var (
	CetesSeries     = []string{Cete28, Cete91, Cete182, Cete364}
	ExogenousSeries = []string{TasaObjetivo, TasaFED, TipoCambioFix, INPC}
)

// ErrNoData is returned when the reference series has no observations, or
// nothing survives resampling.
var ErrNoData = errors.New("no usable CETE_28D data")

// Observation is one raw value as published by the data provider.
type Observation struct {
	Series string
	Date   time.Time
	Value  float64
}

// Frame is a date-indexed table of series. Every column has one value per
// date. Frames are built once and treated as read-only afterwards.
type Frame struct {
	Dates   []time.Time
	columns map[string][]float64
	order   []string
}

// NewFrame returns an empty frame over dates.
func NewFrame(dates []time.Time) *Frame {
	return &Frame{Dates: dates, columns: map[string][]float64{}}
}

// Set adds or replaces a column. values must have one entry per date.
func (f *Frame) Set(name string, values []float64) {
	if _, ok := f.columns[name]; !ok {
		f.order = append(f.order, name)
	}
	f.columns[name] = values
}

// Column returns the values of a series.
func (f *Frame) Column(name string) ([]float64, bool) {
	if f == nil {
		return nil, false
	}
	v, ok := f.columns[name]
	return v, ok
}

func (f *Frame) Has(name string) bool {
	_, ok := f.Column(name)
	return ok
}

// Names returns the column names in insertion order.
func (f *Frame) Names() []string {
	if f == nil {
		return nil
	}
	return slices.Clone(f.order)
}

func (f *Frame) Len() int {
	if f == nil {
		return 0
	}
	return len(f.Dates)
}

func (f *Frame) Empty() bool { return f.Len() == 0 }

// Last returns the most recent value of a series.
func (f *Frame) Last(name string) (float64, bool) {
	v, ok := f.Column(name)
	if !ok || len(v) == 0 {
		return 0, false
	}
	return v[len(v)-1], true
}

// Mean returns the average of a series over the whole frame.
func (f *Frame) Mean(name string) (float64, bool) {
	v, ok := f.Column(name)
	if !ok || len(v) == 0 {
		return 0, false
	}
	var sum float64
	for _, x := range v {
		sum += x
	}
	return sum / float64(len(v)), true
}

// Observations flattens the frame back into rows, series by series.
func (f *Frame) Observations() []Observation {
	var out []Observation
	for _, name := range f.Names() {
		for i, v := range f.columns[name] {
			out = append(out, Observation{Series: name, Date: f.Dates[i], Value: v})
		}
	}
	return out
}

// FromObservations rebuilds a frame from stored rows without resampling.
// Dates missing for a series are forward filled and leading gaps are dropped,
// the same as Weekly.
func FromObservations(obs []Observation) (*Frame, error) {
	dateSet := map[time.Time]bool{}
	for _, o := range obs {
		dateSet[day(o.Date)] = true
	}
	dates := make([]time.Time, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	if len(dates) == 0 {
		return nil, ErrNoData
	}
	return align(obs, dates)
}

// Weekly turns raw observations into the weekly table: one row per Thursday
// from the first to the last CETE_28D observation, each series carried forward
// to the row date, rows with any missing value dropped.
func Weekly(obs []Observation) (*Frame, error) {
	var first, last time.Time
	for _, o := range obs {
		if o.Series != Cete28 || math.IsNaN(o.Value) {
			continue
		}
		d := day(o.Date)
		if first.IsZero() || d.Before(first) {
			first = d
		}
		if d.After(last) {
			last = d
		}
	}
	if first.IsZero() {
		return nil, ErrNoData
	}
	return align(obs, Thursdays(first, last))
}

// align samples every series on dates using the last value at or before each
// date, then drops rows where any series has no value yet.
func align(obs []Observation, dates []time.Time) (*Frame, error) {
	bySeries := map[string][]Observation{}
	var order []string
	for _, o := range obs {
		if math.IsNaN(o.Value) {
			continue
		}
		if _, ok := bySeries[o.Series]; !ok {
			order = append(order, o.Series)
		}
		o.Date = day(o.Date)
		bySeries[o.Series] = append(bySeries[o.Series], o)
	}
	order = canonicalOrder(order)

	cols := make(map[string][]float64, len(order))
	for _, name := range order {
		s := bySeries[name]
		sort.SliceStable(s, func(i, j int) bool { return s[i].Date.Before(s[j].Date) })
		vals := make([]float64, len(dates))
		j, cur := 0, math.NaN()
		for i, d := range dates {
			for j < len(s) && !s[j].Date.After(d) {
				cur = s[j].Value
				j++
			}
			vals[i] = cur
		}
		cols[name] = vals
	}

	var keep []int
	for i := range dates {
		complete := true
		for _, name := range order {
			if math.IsNaN(cols[name][i]) {
				complete = false
				break
			}
		}
		if complete {
			keep = append(keep, i)
		}
	}
	if len(keep) == 0 {
		return nil, ErrNoData
	}

	f := NewFrame(make([]time.Time, len(keep)))
	for k, i := range keep {
		f.Dates[k] = dates[i]
	}
	for _, name := range order {
		vals := make([]float64, len(keep))
		for k, i := range keep {
			vals[k] = cols[name][i]
		}
		f.Set(name, vals)
	}
	return f, nil
}

// canonicalOrder puts known series first in their usual order, then any
// others alphabetically.
func canonicalOrder(names []string) []string {
	known := append(slices.Clone(CetesSeries), ExogenousSeries...)
	var out []string
	for _, k := range known {
		if slices.Contains(names, k) {
			out = append(out, k)
		}
	}
	var rest []string
	for _, n := range names {
		if !slices.Contains(known, n) {
			rest = append(rest, n)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

// Thursdays returns every Thursday in [from, to].
func Thursdays(from, to time.Time) []time.Time {
	d := day(from)
	for d.Weekday() != time.Thursday {
		d = d.AddDate(0, 0, 1)
	}
	var out []time.Time
	for end := day(to); !d.After(end); d = d.AddDate(0, 0, 7) {
		out = append(out, d)
	}
	return out
}

// NextThursdays returns n weekly dates after last, starting one week later and
// snapped forward to a Thursday.
func NextThursdays(last time.Time, n int) []time.Time {
	if n <= 0 {
		return nil
	}
	start := day(last).AddDate(0, 0, 7)
	return Thursdays(start, start.AddDate(0, 0, 7*n-1))
}

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
