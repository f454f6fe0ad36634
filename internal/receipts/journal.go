// =============================
// File: internal/receipts/journal.go
// =============================
package receipts

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/rovshanmuradov/candy-minter/internal/events"
	"go.uber.org/zap"
)

// Header – колонки CSV журнала минтов.
var Header = []string{"timestamp", "batch_id", "attempt", "wallet", "asset", "signature", "status", "error"}

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Journal пишет по одной строке на каждую завершенную попытку минта.
type Journal struct {
	mu       sync.Mutex
	writer   *csv.Writer
	file     *os.File
	ticker   *time.Ticker
	done     chan struct{}
	closed   bool
	logger   *zap.Logger
	filePath string

	writtenRecords uint64
	flushCount     uint64
}

// Open открывает (или создает) файл журнала в режиме дозаписи.
func Open(filePath string, flushInterval time.Duration, logger *zap.Logger) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	if flushInterval <= 0 {
		flushInterval = time.Second
	}

	j := &Journal{
		writer:   csv.NewWriter(file),
		file:     file,
		ticker:   time.NewTicker(flushInterval),
		done:     make(chan struct{}),
		logger:   logger.Named("receipts"),
		filePath: filePath,
	}

	if stat.Size() == 0 {
		if err := j.writer.Write(Header); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
		j.writer.Flush()
	}

	go j.periodicFlush()
	return j, nil
}

// Attach подписывает журнал на завершение попыток.
func (j *Journal) Attach(bus *events.Bus) events.Subscription {
	return bus.SubscribeFunc(events.AttemptFinished, j.Handle)
}

// Handle implements events.Handler.
func (j *Journal) Handle(_ context.Context, e events.Event) error {
	ev, ok := e.(events.AttemptFinishedEvent)
	if !ok {
		return nil
	}
	return j.Record(ev)
}

// Record добавляет строку для одной попытки.
func (j *Journal) Record(ev events.AttemptFinishedEvent) error {
	status := StatusFailed
	if ev.Success {
		status = StatusSuccess
	}
	record := []string{
		ev.Timestamp().UTC().Format(time.RFC3339),
		ev.BatchID,
		strconv.Itoa(ev.Index),
		ev.Wallet,
		ev.Asset,
		ev.Signature,
		status,
		ev.Error,
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return fmt.Errorf("journal %s is closed", j.filePath)
	}
	if err := j.writer.Write(record); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	j.writtenRecords++
	return nil
}

// Flush forces buffered records to disk.
func (j *Journal) Flush() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.flushLocked()
}

func (j *Journal) flushLocked() error {
	j.writer.Flush()
	if err := j.writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	if err := j.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync file: %w", err)
	}
	j.flushCount++
	return nil
}

func (j *Journal) periodicFlush() {
	for {
		select {
		case <-j.ticker.C:
			if err := j.Flush(); err != nil {
				j.logger.Error("Periodic flush failed",
					zap.String("file", j.filePath),
					zap.Error(err))
			}
		case <-j.done:
			return
		}
	}
}

// Close flushes and closes the file. Повторный вызов ничего не делает.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return nil
	}
	j.closed = true
	close(j.done)
	j.ticker.Stop()

	if err := j.flushLocked(); err != nil {
		j.file.Close()
		return err
	}
	if err := j.file.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}

	j.logger.Info("Receipts journal closed",
		zap.String("file", j.filePath),
		zap.Uint64("records", j.writtenRecords),
		zap.Uint64("flushes", j.flushCount))
	return nil
}

// Stats returns journal statistics.
func (j *Journal) Stats() (records, flushes uint64) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.writtenRecords, j.flushCount
}
