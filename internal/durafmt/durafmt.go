// Package durafmt formats playback times.
package durafmt

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Unknown is shown for durations that are not known yet.
const Unknown = "--:--"

var durationChunks = []time.Duration{time.Hour, time.Minute, time.Second}

// Format formats the given duration into [HH:]MM:SS form. The hour is omitted
// if there's none. Negative durations are formatted as zero.
func Format(d time.Duration) string {
	if d < 0 {
		d = 0
	}

	var dwords = make([]string, 0, len(durationChunks))
	var n int

	for i, section := range durationChunks {
		n, d = divide(d, section)
		if i == 0 && n < 1 {
			continue
		}

		dwords = append(dwords, fmt.Sprintf("%02d", n))
	}

	return strings.Join(dwords, ":")
}

// Seconds formats a time in seconds, as the coordinator keeps it. NaN and
// infinite values give Unknown.
func Seconds(secs float64) string {
	if math.IsNaN(secs) || math.IsInf(secs, 0) {
		return Unknown
	}
	return Format(time.Duration(secs * float64(time.Second)))
}

// Progress formats "position / duration". A zero duration is shown as
// Unknown.
func Progress(pos, dur float64) string {
	total := Unknown
	if dur > 0 {
		total = Seconds(dur)
	}
	return Seconds(pos) + " / " + total
}

func divide(d, div time.Duration) (n int, newd time.Duration) {
	n = int(d / div)
	return n, d - time.Duration(n)*div
}
