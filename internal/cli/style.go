package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	clrBrand  = lipgloss.Color("135") // violet
	clrRed    = lipgloss.Color("203")
	clrYellow = lipgloss.Color("220")
	clrDim    = lipgloss.Color("245")
	clrWhite  = lipgloss.Color("255")
)

// styles wraps lipgloss renderers that respect TTY detection. When output is
// piped or redirected all styling is disabled and raw text is emitted.
type styles struct {
	enabled bool

	Brand   lipgloss.Style
	Dim     lipgloss.Style
	Key     lipgloss.Style
	Value   lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
}

func newStyles(w io.Writer) styles {
	enabled := false
	if f, ok := w.(*os.File); ok {
		enabled = term.IsTerminal(int(f.Fd()))
	}

	s := styles{enabled: enabled}
	if !enabled {
		noop := lipgloss.NewStyle()
		s.Brand = noop
		s.Dim = noop
		s.Key = noop
		s.Value = noop
		s.Warning = noop
		s.Error = noop
		return s
	}

	s.Brand = lipgloss.NewStyle().Bold(true).Foreground(clrBrand)
	s.Dim = lipgloss.NewStyle().Foreground(clrDim)
	s.Key = lipgloss.NewStyle().Foreground(clrDim)
	s.Value = lipgloss.NewStyle().Foreground(clrWhite)
	s.Warning = lipgloss.NewStyle().Foreground(clrYellow).Bold(true)
	s.Error = lipgloss.NewStyle().Foreground(clrRed)
	return s
}

func (s styles) banner() string {
	if !s.enabled {
		return "grokmcp"
	}
	return s.Brand.Render("grokmcp")
}

// kv formats a key-value pair like "  Key:  value".
func (s styles) kv(key, value string) string {
	if !s.enabled {
		return fmt.Sprintf("  %-14s %s", key+":", value)
	}
	return fmt.Sprintf("  %s %s",
		s.Key.Render(fmt.Sprintf("%-14s", key+":")),
		s.Value.Render(value),
	)
}

func (s styles) dim(text string) string {
	if !s.enabled {
		return text
	}
	return s.Dim.Render(text)
}

func (s styles) warnPrefix() string {
	if !s.enabled {
		return "WARNING:"
	}
	return s.Warning.Render("WARNING:")
}

func (s styles) errLine(text string) string {
	if !s.enabled {
		return text
	}
	return s.Error.Render(text)
}
