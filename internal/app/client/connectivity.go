package client

import (
	"context"
	"sync"
	"time"

	"golang.org/x/exp/slog"
)

// ProbeFunc проверяет доступность сервера. nil-ошибка означает онлайн.
type ProbeFunc func(ctx context.Context) error

// Monitor следит за доступностью сервера: периодически опрашивает его
// и уведомляет подписчиков при смене состояния. Состояние можно выставить
// и вручную — например, по факту сетевой ошибки в другом месте.
type Monitor struct {
	probe    ProbeFunc
	interval time.Duration
	log      *slog.Logger

	mu      sync.Mutex
	online  bool
	started bool
	subs    []func(online bool)

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func NewMonitor(probe ProbeFunc, interval time.Duration, log *slog.Logger) *Monitor {
	return &Monitor{
		probe:    probe,
		interval: interval,
		log:      log,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// IsOnline возвращает последнее известное состояние связи
func (m *Monitor) IsOnline() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// SetOnline выставляет состояние вручную. Подписчики уведомляются
// только при фактической смене состояния.
func (m *Monitor) SetOnline(online bool) {
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online
	subs := make([]func(bool), len(m.subs))
	copy(subs, m.subs)
	m.mu.Unlock()

	if online {
		m.log.Info("Связь с сервером восстановлена")
	} else {
		m.log.Warn("Связь с сервером потеряна, переход в офлайн-режим")
	}

	for _, fn := range subs {
		fn(online)
	}
}

// OnChange регистрирует подписчика на смену состояния связи
func (m *Monitor) OnChange(fn func(online bool)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = append(m.subs, fn)
}

// Start запускает цикл опроса. Первый опрос выполняется сразу.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	m.started = true
	m.mu.Unlock()

	go func() {
		defer close(m.done)

		m.probeOnce(ctx)

		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-m.stop:
				return
			case <-ticker.C:
				m.probeOnce(ctx)
			}
		}
	}()
}

// Stop останавливает цикл опроса и дожидается его завершения.
// Для монитора, который не запускался, возвращается сразу.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() {
		close(m.stop)
	})

	m.mu.Lock()
	started := m.started
	m.mu.Unlock()
	if started {
		<-m.done
	}
}

func (m *Monitor) probeOnce(ctx context.Context) {
	err := m.probe(ctx)
	if err != nil {
		m.log.Debug("Проверка связи не удалась", "error", err)
	}
	m.SetOnline(err == nil)
}
