package component

import (
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"

	"github.com/rovshanmuradov/candy-minter/internal/logger"
)

func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

func TestLogPane_Format(t *testing.T) {
	p := NewLogPane(nil)
	ts := time.Date(2024, 5, 1, 12, 30, 15, 0, time.UTC)

	line := p.Format(logger.LogEntry{
		Timestamp: ts,
		Level:     "info",
		Logger:    "executor",
		Message:   "Mint confirmed",
		Fields: map[string]interface{}{
			"signature": "5VERv8NMvzbJMEkV8xnrLkEaWRtSz9CosKDYjCJjBRnbJLgp8uirBgmQpjKhoR4tjF3ZpRzrFmBV6UjKdiSZkQUW",
			"ignored":   "x",
		},
	})
	assert.Equal(t, "12:30:15 [executor] Mint confirmed signature=5VER...kQUW", line)
}

func TestLogPane_HidesDebug(t *testing.T) {
	buf := logger.NewLogBuffer(10)
	buf.Add(logger.LogEntry{Level: "debug", Message: "noisy"})
	buf.Add(logger.LogEntry{Level: "warn", Message: "Insufficient balance for batch"})

	p := NewLogPane(buf)
	view := p.View()
	assert.Contains(t, view, "Insufficient balance for batch")
	assert.NotContains(t, view, "noisy")

	p.Toggle()
	assert.Empty(t, p.View())
}
