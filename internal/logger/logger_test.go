package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLogBuffer_RecentOrder(t *testing.T) {
	buf := NewLogBuffer(3)
	for i := 1; i <= 5; i++ {
		buf.Add(LogEntry{Message: fmt.Sprintf("m%d", i)})
	}

	logs := buf.GetRecentLogs(0)
	require.Len(t, logs, 3)
	assert.Equal(t, "m3", logs[0].Message)
	assert.Equal(t, "m5", logs[2].Message)

	last := buf.GetRecentLogs(2)
	assert.Equal(t, []string{"m4", "m5"}, []string{last[0].Message, last[1].Message})
	assert.Equal(t, uint64(5), buf.Total())
}

func TestLogBuffer_NotWrapped(t *testing.T) {
	buf := NewLogBuffer(10)
	buf.Add(LogEntry{Message: "a"})
	buf.Add(LogEntry{Message: "b"})

	logs := buf.GetRecentLogs(5)
	require.Len(t, logs, 2)
	assert.Equal(t, "a", logs[0].Message)
}

func TestLogBuffer_ConcurrentAccess(t *testing.T) {
	buf := NewLogBuffer(50)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				buf.Add(LogEntry{Message: fmt.Sprintf("%d-%d", id, j)})
				_ = buf.GetRecentLogs(5)
			}
		}(g)
	}
	wg.Wait()

	assert.Equal(t, uint64(800), buf.Total())
	assert.Len(t, buf.GetRecentLogs(0), 50)
}

func TestNew_TUIModeWritesToBufferAndFile(t *testing.T) {
	buf := NewLogBuffer(10)
	logFile := filepath.Join(t.TempDir(), "minter.log")

	l, err := New(&Config{LogFile: logFile, MaxSize: 1, Buffer: buf})
	require.NoError(t, err)

	l.Named("executor").Info("Mint confirmed", zap.String("signature", "abc"))
	_ = l.Sync()

	logs := buf.GetRecentLogs(0)
	require.Len(t, logs, 1)
	assert.Equal(t, "Mint confirmed", logs[0].Message)
	assert.Equal(t, "info", logs[0].Level)
	assert.Equal(t, "executor", logs[0].Logger)
	assert.Equal(t, "abc", logs[0].Fields["signature"])

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Mint confirmed")
}

func TestShortenAddress(t *testing.T) {
	assert.Equal(t, "Cndy...G3JR", ShortenAddress("CndyV3LdqHUfDLmE5naZjVN8rBZz4tqhdefbAnjHG3JR"))
	assert.Equal(t, "short", ShortenAddress("short"))
}
