// SPDX-License-Identifier: MIT
package tui

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"equalizer/internal/dsp"
)

const (
	columnWidth = 3
	columnGap   = 1

	// meterFloorDB is the reference level before any signal has been seen.
	meterFloorDB = 20
	// meterDecay pulls the reference level down each tick so the graph
	// recovers after a loud passage.
	meterDecay = 0.97
)

var (
	lowStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#25A065"))
	midStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#E8C547"))
	highStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#E85D47"))
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#767676"))
)

var sparks = []rune(" ▁▂▃▄▅▆▇█")

// Meter maps snapshot magnitudes to bar levels in [0, 1]. Magnitudes are
// power sums spanning many decades, so they are shown in decibels against a
// slowly decaying peak.
type Meter struct {
	refDB float64
}

// Levels writes the level of each bin of snap into dst, growing it as
// needed, and returns it.
func (m *Meter) Levels(snap dsp.Snapshot, dst []float64) []float64 {
	dst = dst[:0]
	if m.refDB < meterFloorDB {
		m.refDB = meterFloorDB
	}

	peak := 0.0
	for _, v := range snap {
		db := decibels(v)
		peak = max(peak, db)
		dst = append(dst, db)
	}

	m.refDB = max(m.refDB*meterDecay, peak, meterFloorDB)
	for i, db := range dst {
		dst[i] = min(db/m.refDB, 1)
	}
	return dst
}

func decibels(v float64) float64 {
	if v <= 0 {
		return 0
	}
	return 10 * math.Log10(1+v)
}

// renderBars draws one column per level, rows high, with the labels
// underneath.
func renderBars(levels []float64, labels []string, rows int) string {
	if len(levels) == 0 {
		return dimStyle.Render("waiting for audio...")
	}

	heights := make([]int, len(levels))
	for i, l := range levels {
		heights[i] = int(math.Round(l * float64(rows)))
	}

	full := strings.Repeat("█", columnWidth)
	empty := strings.Repeat(" ", columnWidth)
	gap := strings.Repeat(" ", columnGap)

	var sb strings.Builder
	for row := rows; row >= 1; row-- {
		style := rowStyle(row, rows)
		for i, h := range heights {
			if i > 0 {
				sb.WriteString(gap)
			}
			if h >= row {
				sb.WriteString(style.Render(full))
			} else {
				sb.WriteString(empty)
			}
		}
		sb.WriteByte('\n')
	}

	for i := range levels {
		if i > 0 {
			sb.WriteString(gap)
		}
		label := ""
		if i < len(labels) {
			label = labels[i]
		}
		sb.WriteString(dimStyle.Render(padLabel(label)))
	}
	return sb.String()
}

func rowStyle(row, rows int) lipgloss.Style {
	switch frac := float64(row) / float64(rows); {
	case frac > 0.85:
		return highStyle
	case frac > 0.6:
		return midStyle
	default:
		return lowStyle
	}
}

func padLabel(label string) string {
	if len(label) >= columnWidth {
		return label[:columnWidth]
	}
	return strings.Repeat(" ", columnWidth-len(label)) + label
}

// Sparkline renders levels as a single line of block characters, one per
// bin.
func Sparkline(levels []float64) string {
	out := make([]rune, len(levels))
	top := len(sparks) - 1
	for i, l := range levels {
		idx := int(math.Round(min(max(l, 0), 1) * float64(top)))
		out[i] = sparks[idx]
	}
	return string(out)
}
