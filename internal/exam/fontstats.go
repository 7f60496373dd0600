package exam

import (
	"sort"
	"strings"
)

const (
	defaultBodySize  = 11.0
	minBoldFloorSize = 12.0
)

// FontStats holds the typical text sizes of one page.
type FontStats struct {
	Body float64 `json:"body"`
	Bold float64 `json:"bold"`
}

// EstimateFontStats takes the median size of body-like spans and of spans
// set in a bold or black face. Medians keep page headers and footnotes from
// skewing the result.
func EstimateFontStats(spans []TextSpan) FontStats {
	var body, bold []float64
	for _, s := range spans {
		if strings.TrimSpace(s.Text) == "" || s.Size <= 0 {
			continue
		}
		if IsBodyLike(s) {
			body = append(body, s.Size)
		}
		if IsBoldFont(s.Font) {
			bold = append(bold, s.Size)
		}
	}

	stats := FontStats{Body: defaultBodySize}
	if len(body) > 0 {
		stats.Body = median(body)
	}
	if len(bold) > 0 {
		stats.Bold = median(bold)
	} else {
		stats.Bold = max(minBoldFloorSize, stats.Body)
	}
	return stats
}

func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
