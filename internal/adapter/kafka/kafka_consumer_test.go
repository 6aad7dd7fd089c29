package kafka

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/istaaklogisquare-source/ebook-bot-clean/internal/usecase"
)

// stubGroup is a sarama.ConsumerGroup whose Consume blocks until the
// context is cancelled, like a real group sitting on an idle topic.
type stubGroup struct {
	consumeCalls atomic.Int32
	rebalances   int32 // Consume returns nil this many times before blocking
	closed       atomic.Bool
}

func (g *stubGroup) Consume(ctx context.Context, _ []string, _ sarama.ConsumerGroupHandler) error {
	if g.consumeCalls.Add(1) <= g.rebalances {
		return nil
	}
	<-ctx.Done()
	return ctx.Err()
}

func (g *stubGroup) Errors() <-chan error { return nil }

func (g *stubGroup) Close() error {
	g.closed.Store(true)
	return nil
}

func (g *stubGroup) Pause(map[string][]int32)  {}
func (g *stubGroup) Resume(map[string][]int32) {}
func (g *stubGroup) PauseAll()                 {}
func (g *stubGroup) ResumeAll()                {}

func noHandle(context.Context, usecase.PaymentStatusMsg) error { return nil }

func testLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestStart_StopsOnContextCancel(t *testing.T) {
	group := &stubGroup{}
	consumer := NewConsumer(group, []string{"payment-status"}, noHandle, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- consumer.Start(ctx) }()

	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after the context was cancelled")
	}
}

func TestStart_ResumesAfterRebalance(t *testing.T) {
	group := &stubGroup{rebalances: 2}
	consumer := NewConsumer(group, []string{"payment-status"}, noHandle, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- consumer.Start(ctx) }()

	// Give the loop a moment to chew through the nil returns, then stop it.
	require.Eventually(t, func() bool { return group.consumeCalls.Load() >= 3 },
		2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after the context was cancelled")
	}
	assert.GreaterOrEqual(t, group.consumeCalls.Load(), int32(3),
		"a rebalance return must re-enter Consume, not exit the loop")
}

func TestStart_SurfacesConsumeErrors(t *testing.T) {
	group := &errGroup{err: errors.New("broker gone")}
	consumer := NewConsumer(group, []string{"payment-status"}, noHandle, testLogger())

	err := consumer.Start(context.Background())
	assert.EqualError(t, err, "broker gone")
}

type errGroup struct {
	stubGroup
	err error
}

func (g *errGroup) Consume(context.Context, []string, sarama.ConsumerGroupHandler) error {
	return g.err
}
