package hicflow

import (
	"math"
	"strconv"

	"gonum.org/v1/plot"
)

// PreciseTicks places about NSuggestedTicks labelled ticks on round values
// with unlabelled minor ticks between them.
type PreciseTicks struct {
	NSuggestedTicks int
}

func (t PreciseTicks) Ticks(min, max float64) []plot.Tick {
	n := t.NSuggestedTicks
	if n == 0 {
		n = 4
	}
	if !(max > min) {
		return []plot.Tick{{Value: min, Label: formatFloatTick(min, -1)}}
	}

	mult, step := majorStep(max-min, n)
	var ticks []plot.Tick
	val := math.Floor(min/step) * step
	for ; val <= max; val += step {
		if val >= min {
			ticks = append(ticks, plot.Tick{Value: val})
		}
	}
	top := math.Max(math.Abs(val), step)
	prec := int(math.Ceil(math.Log10(top)) - math.Floor(math.Log10(step)))
	for i := range ticks {
		v := round(ticks[i].Value, prec)
		ticks[i] = plot.Tick{Value: v, Label: formatFloatTick(v, -1)}
	}

	minor := step / 2
	switch mult {
	case 3, 6:
		minor = step / 3
	case 5:
		minor = step / 5
	}
	return append(ticks, minorTicks(min, max, minor, ticks)...)
}

// majorStep picks a major tick spacing of mult times a power of ten that
// gives about n ticks over width.
func majorStep(width float64, n int) (mult int, step float64) {
	tens := math.Pow10(int(math.Floor(math.Log10(width))))
	for width/tens < float64(n)-1 {
		tens /= 10
	}
	mult = int(width / tens / float64(n-1))
	switch mult {
	case 0:
		mult = 1
	case 7:
		mult = 6
	case 9:
		mult = 8
	}
	return mult, float64(mult) * tens
}

func minorTicks(min, max, delta float64, major []plot.Tick) []plot.Tick {
	var ticks []plot.Tick
	for val := math.Floor(min/delta) * delta; val <= max; val += delta {
		if val < min {
			continue
		}
		taken := false
		for _, t := range major {
			if t.Value == val {
				taken = true
			}
		}
		if !taken {
			ticks = append(ticks, plot.Tick{Value: val})
		}
	}
	return ticks
}

// BinTicks labels the bin edges of a differential measurement. Edges
// outside the axis range are skipped.
type BinTicks struct {
	Edges []float64
	// Precision is the number of significant digits in labels; 0 keeps
	// the shortest exact representation.
	Precision int
}

func (t BinTicks) Ticks(min, max float64) []plot.Tick {
	prec := -1
	if t.Precision > 0 {
		prec = t.Precision
	}
	var ticks []plot.Tick
	for i, e := range t.Edges {
		if e < min || e > max {
			continue
		}
		tick := plot.Tick{Value: e, Label: formatFloatTick(e, prec)}
		// label every other edge when there are many bins
		if len(t.Edges) > 12 && i%2 == 1 {
			tick.Label = ""
		}
		ticks = append(ticks, tick)
	}
	return ticks
}

func round(x float64, prec int) float64 {
	if x == 0 {
		// Make sure zero is returned
		// without the negative bit set.
		return 0
	}
	// Fast path for positive precision on integers.
	if prec >= 0 && x == math.Trunc(x) {
		return x
	}
	pow := math.Pow10(prec)
	intermed := x * pow
	if math.IsInf(intermed, 0) {
		return x
	}
	if x < 0 {
		x = math.Ceil(intermed - 0.5)
	} else {
		x = math.Floor(intermed + 0.5)
	}

	if x == 0 {
		return 0
	}

	return x / pow
}

func formatFloatTick(v float64, prec int) string {
	return strconv.FormatFloat(v, 'g', prec, 64)
}
