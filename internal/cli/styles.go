package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/vbauerster/mpb/v8/decor"
)

var (
	dirColor   = lipgloss.Color("#5FAFFF")
	dimColor   = lipgloss.Color("#6B7280")
	okColor    = lipgloss.Color("#85DCB0")
	errorColor = lipgloss.Color("#E85D75")
)

// styles renders output for one writer. Colors are dropped when the writer
// is not a terminal.
type styles struct {
	dir     lipgloss.Style
	dim     lipgloss.Style
	success lipgloss.Style
	failure lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		dir:     r.NewStyle().Foreground(dirColor).Bold(true),
		dim:     r.NewStyle().Foreground(dimColor),
		success: r.NewStyle().Foreground(okColor),
		failure: r.NewStyle().Foreground(errorColor).Bold(true),
	}
}

// formatSize renders a byte count with binary units, e.g. "1.5 MiB".
func formatSize(size uint64) string {
	return fmt.Sprintf("% .1f", decor.SizeB1024(int64(size))) //nolint:gosec // sizes fit in int64
}
