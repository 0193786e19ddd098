package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var levels = []string{"▁", "▂", "▃", "▄", "▅", "▆", "▇", "█"}

// Sparkline draws one glyph per value, scaled to the largest value.
type Sparkline struct {
	Data  []float64
	Label string
	Style lipgloss.Style
}

func NewSparkline(label string, style lipgloss.Style) Sparkline {
	return Sparkline{
		Label: label,
		Style: style,
	}
}

// Add appends a value. Unknown values are recorded as negative and drawn
// as a gap.
func (s *Sparkline) Add(val float64) {
	s.Data = append(s.Data, val)
}

func (s Sparkline) Max() float64 {
	peak := 0.0
	for _, v := range s.Data {
		if v > peak {
			peak = v
		}
	}
	return peak
}

// Graph is the bare glyph line without styling.
func (s Sparkline) Graph() string {
	peak := s.Max()

	var graph strings.Builder
	for _, v := range s.Data {
		if v < 0 {
			graph.WriteString(" ")
			continue
		}
		if peak == 0 {
			graph.WriteString(levels[0])
			continue
		}

		idx := int(v / peak * float64(len(levels)-1))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(levels) {
			idx = len(levels) - 1
		}
		graph.WriteString(levels[idx])
	}
	return graph.String()
}

func (s Sparkline) View() string {
	if len(s.Data) == 0 {
		return ""
	}
	return s.Style.Render(s.Label) + " " + s.Style.Render(s.Graph()) +
		" " + s.Style.Render(fmt.Sprintf("(peak %.2f)", s.Max()))
}
