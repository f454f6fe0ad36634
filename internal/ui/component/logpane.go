package component

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/rovshanmuradov/candy-minter/internal/logger"
	"github.com/rovshanmuradov/candy-minter/internal/ui/style"
)

// highlightFields – поля записи, которые стоит показать рядом с сообщением.
var highlightFields = map[string]bool{
	"signature": true,
	"asset":     true,
	"count":     true,
	"attempt":   true,
	"error":     true,
}

// LogPane показывает хвост кольцевого буфера логов.
type LogPane struct {
	buffer    *logger.LogBuffer
	viewport  viewport.Model
	showDebug bool
	visible   bool
	limit     int

	container lipgloss.Style
	title     lipgloss.Style
	timestamp lipgloss.Style
	source    lipgloss.Style
	levels    map[string]lipgloss.Style
}

// NewLogPane creates a log pane over the given buffer.
func NewLogPane(buffer *logger.LogBuffer) *LogPane {
	palette := style.DefaultPalette()
	return &LogPane{
		buffer:   buffer,
		viewport: viewport.New(60, 6),
		visible:  true,
		limit:    50,
		container: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(palette.Info).
			Padding(0, 1).
			MarginTop(1),
		title:     lipgloss.NewStyle().Foreground(palette.Info).Bold(true),
		timestamp: lipgloss.NewStyle().Foreground(palette.TextMuted),
		source:    lipgloss.NewStyle().Foreground(palette.TextSecondary),
		levels: map[string]lipgloss.Style{
			"error": lipgloss.NewStyle().Foreground(palette.Error).Bold(true),
			"warn":  lipgloss.NewStyle().Foreground(palette.Warning),
			"info":  lipgloss.NewStyle().Foreground(palette.Text),
			"debug": lipgloss.NewStyle().Foreground(palette.TextMuted),
		},
	}
}

// SetSize sets the component dimensions
func (p *LogPane) SetSize(width, height int) {
	// рамка + заголовок
	h := height - 3
	if h < 2 {
		h = 2
	}
	w := width - 4
	if w < 20 {
		w = 20
	}
	p.viewport.Width = w
	p.viewport.Height = h
}

// Toggle switches visibility.
func (p *LogPane) Toggle() {
	p.visible = !p.visible
}

// SetVisible sets visibility.
func (p *LogPane) SetVisible(v bool) {
	p.visible = v
}

// Visible reports whether the pane is rendered.
func (p *LogPane) Visible() bool {
	return p.visible
}

// ShowDebug включает debug записи.
func (p *LogPane) ShowDebug(v bool) {
	p.showDebug = v
}

// Refresh перечитывает буфер и прокручивает вниз.
func (p *LogPane) Refresh() {
	if p.buffer == nil {
		p.viewport.SetContent("No log buffer available")
		return
	}
	var lines []string
	for _, entry := range p.buffer.GetRecentLogs(p.limit) {
		if !p.showDebug && strings.EqualFold(entry.Level, "debug") {
			continue
		}
		lines = append(lines, p.Format(entry))
	}
	if len(lines) == 0 {
		p.viewport.SetContent("No logs yet")
		return
	}
	p.viewport.SetContent(strings.Join(lines, "\n"))
	p.viewport.GotoBottom()
}

// View renders the pane
func (p *LogPane) View() string {
	if !p.visible {
		return ""
	}
	p.Refresh()
	return p.container.Render(lipgloss.JoinVertical(lipgloss.Left,
		p.title.Render("Logs"),
		p.viewport.View(),
	))
}

// Format renders one entry: time, source, message and key fields.
func (p *LogPane) Format(entry logger.LogEntry) string {
	level := strings.ToLower(entry.Level)
	if level == "warning" {
		level = "warn"
	}
	msgStyle, ok := p.levels[level]
	if !ok {
		msgStyle = p.levels["info"]
	}

	var b strings.Builder
	b.WriteString(p.timestamp.Render(entry.Timestamp.Format("15:04:05")))
	b.WriteByte(' ')
	if entry.Logger != "" {
		b.WriteString(p.source.Render("[" + entry.Logger + "]"))
		b.WriteByte(' ')
	}
	b.WriteString(msgStyle.Render(entry.Message))
	if extra := formatFields(entry.Fields); extra != "" {
		b.WriteByte(' ')
		b.WriteString(p.timestamp.Render(extra))
	}
	return b.String()
}

func formatFields(fields map[string]interface{}) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		if highlightFields[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v := fmt.Sprint(fields[k])
		if k == "signature" || k == "asset" {
			v = logger.ShortenAddress(v)
		}
		parts = append(parts, k+"="+v)
	}
	return strings.Join(parts, " ")
}
