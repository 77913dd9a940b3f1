package client

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"golang.org/x/exp/slog"
)

// stubSource отдает заранее заданные координаты либо ошибку
type stubSource struct {
	mu  sync.Mutex
	pos *Position
	err error
}

func (s *stubSource) Current(ctx context.Context) (*Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	pos := *s.pos
	return &pos, nil
}

func (s *stubSource) set(pos *Position, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pos, s.err = pos, err
}

func TestGPSWatcher(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	source := &stubSource{err: errors.New("нет сигнала")}
	w := NewGPSWatcher(source, 10*time.Millisecond, log)

	if _, err := w.Last(); !errors.Is(err, ErrNoPosition) {
		t.Errorf("Ожидалась ErrNoPosition, получено: %v", err)
	}

	positions := make(chan Position, 8)
	w.OnPosition(func(p Position) { positions <- p })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	// Пока источник отказывает, позиции нет
	time.Sleep(30 * time.Millisecond)
	if w.Status() != GPSStatusError {
		t.Errorf("Ожидался статус error, получено: %s", w.Status())
	}

	// Появление сигнала замечается следующим опросом
	source.set(&Position{Latitude: 48.8566, Longitude: 2.3522, Accuracy: 3}, nil)
	select {
	case p := <-positions:
		if p.Latitude != 48.8566 {
			t.Errorf("Неверная широта: %f", p.Latitude)
		}
		if p.Timestamp.IsZero() {
			t.Error("Метка времени измерения не проставлена")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Измерение не получено")
	}

	if w.Status() != GPSStatusFound {
		t.Errorf("Ожидался статус found, получено: %s", w.Status())
	}
	last, err := w.Last()
	if err != nil {
		t.Fatalf("Ошибка чтения последнего измерения: %v", err)
	}
	if last.Longitude != 2.3522 {
		t.Errorf("Неверная долгота: %f", last.Longitude)
	}

	w.Stop()
	if w.Status() != GPSStatusIdle {
		t.Errorf("После остановки ожидался статус idle, получено: %s", w.Status())
	}
}

func TestGPSWatcherStopWithoutStart(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	w := NewGPSWatcher(&stubSource{err: errors.New("нет сигнала")}, time.Minute, log)

	done := make(chan struct{})
	go func() {
		w.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop незапущенного приемника не должен блокироваться")
	}
}

func TestGPSWatcherCurrent(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	source := &stubSource{pos: &Position{Latitude: 45.76, Longitude: 4.84, Accuracy: 5}}
	w := NewGPSWatcher(source, time.Minute, log)

	// Разовый опрос работает без запуска цикла и запоминается
	pos, err := w.Current(context.Background())
	if err != nil {
		t.Fatalf("Ошибка разового опроса: %v", err)
	}
	if pos.Latitude != 45.76 || pos.Timestamp.IsZero() {
		t.Errorf("Измерение прочитано неверно: %+v", pos)
	}
	if last, err := w.Last(); err != nil || last.Longitude != 4.84 {
		t.Errorf("Разовое измерение должно стать последним: %+v, %v", last, err)
	}
}

func TestFilePositionSource(t *testing.T) {
	dir := t.TempDir()
	src := &FilePositionSource{Path: dir + "/position.json"}

	if _, err := src.Current(context.Background()); !errors.Is(err, ErrNoPosition) {
		t.Errorf("Без файла ожидалась ErrNoPosition, получено: %v", err)
	}

	data := []byte(`{"latitude": 48.8566, "longitude": 2.3522, "accuracy": 4.5}`)
	if err := os.WriteFile(src.Path, data, 0600); err != nil {
		t.Fatalf("Ошибка записи файла позиции: %v", err)
	}

	pos, err := src.Current(context.Background())
	if err != nil {
		t.Fatalf("Ошибка чтения позиции: %v", err)
	}
	if pos.Latitude != 48.8566 || pos.Accuracy != 4.5 {
		t.Errorf("Позиция прочитана неверно: %+v", pos)
	}

	if err := os.WriteFile(src.Path, []byte("не json"), 0600); err != nil {
		t.Fatalf("Ошибка записи файла позиции: %v", err)
	}
	if _, err := src.Current(context.Background()); err == nil {
		t.Error("Испорченный файл позиции должен давать ошибку")
	}
}
