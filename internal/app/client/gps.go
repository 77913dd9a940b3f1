package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"golang.org/x/exp/slog"
)

// gpsPollInterval период опроса источника координат
const gpsPollInterval = 5 * time.Second

// Статусы приемника координат
const (
	GPSStatusIdle      = "idle"
	GPSStatusSearching = "searching"
	GPSStatusFound     = "found"
	GPSStatusError     = "error"
)

// ErrNoPosition возвращается, пока приемник не получил ни одной координаты
var ErrNoPosition = errors.New("позиция еще не определена")

// Position одно измерение координат
type Position struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Accuracy  float64   `json:"accuracy"`
	Altitude  *float64  `json:"altitude,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// PositionSource источник координат: системный GPS, NMEA-порт или заглушка
type PositionSource interface {
	Current(ctx context.Context) (*Position, error)
}

// FilePositionSource читает позицию из JSON-файла, который обновляет
// внешний GPS-мост (gpsd, NMEA-конвертер или приложение на телефоне)
type FilePositionSource struct {
	Path string
}

func (f *FilePositionSource) Current(_ context.Context) (*Position, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoPosition
		}
		return nil, fmt.Errorf("ошибка чтения файла позиции: %w", err)
	}

	var pos Position
	if err := json.Unmarshal(data, &pos); err != nil {
		return nil, fmt.Errorf("ошибка парсинга файла позиции: %w", err)
	}
	return &pos, nil
}

// GPSWatcher периодически опрашивает источник координат и хранит
// последнее удачное измерение. Подписчики получают каждое новое измерение.
type GPSWatcher struct {
	source   PositionSource
	interval time.Duration
	log      *slog.Logger

	mu      sync.Mutex
	last    *Position
	status  string
	started bool
	subs    []func(Position)

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func NewGPSWatcher(source PositionSource, interval time.Duration, log *slog.Logger) *GPSWatcher {
	return &GPSWatcher{
		source:   source,
		interval: interval,
		log:      log,
		status:   GPSStatusIdle,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Last возвращает последнее удачное измерение
func (w *GPSWatcher) Last() (*Position, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.last == nil {
		return nil, ErrNoPosition
	}
	pos := *w.last
	return &pos, nil
}

// Current разово опрашивает источник, минуя цикл. Удачное измерение
// запоминается как последнее.
func (w *GPSWatcher) Current(ctx context.Context) (*Position, error) {
	pos, err := w.source.Current(ctx)
	if err != nil {
		return nil, err
	}
	if pos.Timestamp.IsZero() {
		pos.Timestamp = time.Now()
	}

	w.mu.Lock()
	w.last = pos
	w.status = GPSStatusFound
	w.mu.Unlock()
	return pos, nil
}

func (w *GPSWatcher) Status() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status
}

// OnPosition регистрирует подписчика на новые измерения
func (w *GPSWatcher) OnPosition(fn func(Position)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.subs = append(w.subs, fn)
}

// Start запускает цикл опроса источника
func (w *GPSWatcher) Start(ctx context.Context) {
	w.mu.Lock()
	w.started = true
	w.status = GPSStatusSearching
	w.mu.Unlock()

	go func() {
		defer close(w.done)

		w.pollOnce(ctx)

		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-w.stop:
				return
			case <-ticker.C:
				w.pollOnce(ctx)
			}
		}
	}()
}

// Stop останавливает цикл опроса и дожидается его завершения.
// Для приемника, который не запускался, возвращается сразу.
func (w *GPSWatcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stop)
	})

	w.mu.Lock()
	started := w.started
	w.mu.Unlock()
	if started {
		<-w.done
	}
	w.setStatus(GPSStatusIdle)
}

func (w *GPSWatcher) pollOnce(ctx context.Context) {
	pos, err := w.source.Current(ctx)
	if err != nil {
		w.log.Debug("Ошибка получения координат", "error", err)
		w.setStatus(GPSStatusError)
		return
	}
	if pos.Timestamp.IsZero() {
		pos.Timestamp = time.Now()
	}

	w.mu.Lock()
	w.last = pos
	w.status = GPSStatusFound
	subs := make([]func(Position), len(w.subs))
	copy(subs, w.subs)
	w.mu.Unlock()

	for _, fn := range subs {
		fn(*pos)
	}
}

func (w *GPSWatcher) setStatus(status string) {
	w.mu.Lock()
	w.status = status
	w.mu.Unlock()
}
