// Package stats summarizes the library for the dashboard.
package stats

import (
	"github.com/diamondburned/mirage/internal/media"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary is a snapshot of library totals. Means only count items whose value
// is known.
type Summary struct {
	Items int `json:"items"`
	Audio int `json:"audio"`
	Video int `json:"video"`

	// TotalDuration and MeanDuration are in seconds.
	TotalDuration float64 `json:"total_duration"`
	MeanDuration  float64 `json:"mean_duration"`

	// TotalSize and MeanSize are in bytes.
	TotalSize int64   `json:"total_size"`
	MeanSize  float64 `json:"mean_size"`
}

// Summarize computes the summary of the given items.
func Summarize(items []*media.Item) Summary {
	var sum = Summary{Items: len(items)}

	durations := make([]float64, 0, len(items))
	sizes := make([]float64, 0, len(items))

	for _, item := range items {
		switch item.Type {
		case media.Audio:
			sum.Audio++
		case media.Video:
			sum.Video++
		}

		if item.Duration > 0 {
			durations = append(durations, item.Duration)
		}
		if item.Size > 0 {
			sizes = append(sizes, float64(item.Size))
		}
	}

	if len(durations) > 0 {
		sum.TotalDuration = floats.Sum(durations)
		sum.MeanDuration = stat.Mean(durations, nil)
	}

	if len(sizes) > 0 {
		sum.TotalSize = int64(floats.Sum(sizes))
		sum.MeanSize = stat.Mean(sizes, nil)
	}

	return sum
}
