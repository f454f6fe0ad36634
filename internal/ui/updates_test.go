package ui

import (
	"context"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

func TestUpdateSenderNonBlocking(t *testing.T) {
	logger := zap.NewNop()
	msgChan := make(chan tea.Msg, 10) // Small buffer to test blocking
	sender := NewUpdateSender(msgChan, logger)
	defer sender.Close()

	// Fill the channel
	for i := 0; i < 10; i++ {
		sender.SendUpdate(FocusMsg{})
	}

	// These should be dropped without blocking
	start := time.Now()
	for i := 0; i < 100; i++ {
		sender.SendUpdate(FocusMsg{})
	}
	elapsed := time.Since(start)

	// Should complete quickly (non-blocking)
	if elapsed > 100*time.Millisecond {
		t.Errorf("SendUpdate blocked for %v, expected non-blocking", elapsed)
	}

	sent, dropped := sender.GetStats()
	t.Logf("Sent: %d, Dropped: %d", sent, dropped)

	if sent != 10 || dropped != 100 {
		t.Errorf("Expected 10 sent and 100 dropped, got %d/%d", sent, dropped)
	}
}

func TestUpdateSenderConcurrent(t *testing.T) {
	logger := zap.NewNop()
	msgChan := make(chan tea.Msg, 100)
	sender := NewUpdateSender(msgChan, logger)
	defer sender.Close()

	var wg sync.WaitGroup
	numGoroutines := 10
	messagesPerGoroutine := 100

	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < messagesPerGoroutine; j++ {
				sender.SendUpdate(FocusMsg{})
			}
		}()
	}

	wg.Wait()

	sent, dropped := sender.GetStats()
	total := sent + dropped
	expected := uint64(numGoroutines * messagesPerGoroutine)

	if total != expected {
		t.Errorf("Expected %d total messages, got %d (sent: %d, dropped: %d)",
			expected, total, sent, dropped)
	}
}

func TestUpdateSenderSendWait(t *testing.T) {
	msgChan := make(chan tea.Msg, 1)
	sender := NewUpdateSender(msgChan, zap.NewNop())
	defer sender.Close()

	if err := sender.SendWait(context.Background(), FocusMsg{}); err != nil {
		t.Fatalf("SendWait into free slot: %v", err)
	}

	// Канал полон: ждём, пока не истечёт контекст.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := sender.SendWait(ctx, FocusMsg{}); err != context.DeadlineExceeded {
		t.Errorf("Expected DeadlineExceeded, got %v", err)
	}

	sent, dropped := sender.GetStats()
	if sent != 1 || dropped != 0 {
		t.Errorf("Expected 1 sent and 0 dropped, got %d/%d", sent, dropped)
	}
}

func TestWaitForUpdate(t *testing.T) {
	ch := make(chan tea.Msg, 1)
	ch <- FocusMsg{}

	msg := WaitForUpdate(ch)()
	wrapped, ok := msg.(updateMsg)
	if !ok {
		t.Fatalf("Expected updateMsg, got %T", msg)
	}
	if _, ok := wrapped.msg.(FocusMsg); !ok {
		t.Errorf("Expected FocusMsg inside, got %T", wrapped.msg)
	}

	close(ch)
	if msg := WaitForUpdate(ch)(); msg != nil {
		t.Errorf("Expected nil after close, got %T", msg)
	}
}
