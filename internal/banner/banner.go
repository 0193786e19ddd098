package banner

import (
	"abchart/internal/tui/styles"

	"github.com/charmbracelet/lipgloss"
)

func GetString() string {
	renderer := lipgloss.DefaultRenderer()

	style := renderer.NewStyle().
		Foreground(styles.ColorBanner).
		Bold(true)

	ascii := `
       _          _                _
  __ _| |__   ___| |__   __ _ _ __| |_
 / _' | '_ \ / __| '_ \ / _' | '__| __|
| (_| | |_) | (__| | | | (_| | |  | |_
 \__,_|_.__/ \___|_| |_|\__,_|_|   \__|`

	return "\n" + style.Render(ascii) + "\n"
}
