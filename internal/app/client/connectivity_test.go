package client

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/exp/slog"
)

func TestMonitorTransitions(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := NewMonitor(func(ctx context.Context) error { return nil }, time.Minute, log)

	var notifications int32
	m.OnChange(func(online bool) {
		atomic.AddInt32(&notifications, 1)
	})

	if m.IsOnline() {
		t.Error("До первого опроса состояние должно быть офлайн")
	}

	// Уведомление приходит только при смене состояния
	m.SetOnline(true)
	m.SetOnline(true)
	if n := atomic.LoadInt32(&notifications); n != 1 {
		t.Errorf("Ожидалось 1 уведомление, получено: %d", n)
	}

	m.SetOnline(false)
	if n := atomic.LoadInt32(&notifications); n != 2 {
		t.Errorf("Ожидалось 2 уведомления, получено: %d", n)
	}
	if m.IsOnline() {
		t.Error("Состояние должно быть офлайн")
	}
}

func TestMonitorProbe(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	var available atomic.Bool
	probe := func(ctx context.Context) error {
		if available.Load() {
			return nil
		}
		return errors.New("сервер недоступен")
	}

	m := NewMonitor(probe, 10*time.Millisecond, log)

	online := make(chan bool, 8)
	m.OnChange(func(v bool) { online <- v })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Start(ctx)
	defer m.Stop()

	// Первый опрос проходит сразу и оставляет офлайн
	time.Sleep(30 * time.Millisecond)
	if m.IsOnline() {
		t.Error("При недоступном сервере состояние должно быть офлайн")
	}

	// Восстановление сервера обнаруживается следующим опросом
	available.Store(true)
	select {
	case v := <-online:
		if !v {
			t.Error("Ожидался переход в онлайн")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Переход в онлайн не обнаружен")
	}
}

func TestMonitorStopWithoutStart(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := NewMonitor(func(ctx context.Context) error { return nil }, time.Minute, log)

	done := make(chan struct{})
	go func() {
		m.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop незапущенного монитора не должен блокироваться")
	}
}
