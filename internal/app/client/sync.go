package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/exp/slog"

	"geoclic/internal/app/client/config"
	"geoclic/internal/domain/point"
	syncdomain "geoclic/internal/domain/sync"
)

var (
	// ErrSyncInProgress возвращается при попытке запустить второй обмен одновременно
	ErrSyncInProgress = errors.New("синхронизация уже выполняется")
	// ErrOffline возвращается, когда обмен невозможен без сети
	ErrOffline = errors.New("нет связи с сервером")
)

// SyncService выполняет круговой обмен с сервером: загружает очередь
// локальных точек и принимает серверные изменения с момента последней
// синхронизации. Одновременно выполняется не более одного обмена.
type SyncService struct {
	storage *Storage
	api     *httpClient
	monitor *Monitor
	cfg     *config.Config
	log     *slog.Logger

	mu        sync.Mutex
	isSyncing bool
}

func NewSyncService(storage *Storage, api *httpClient, monitor *Monitor, cfg *config.Config, log *slog.Logger) *SyncService {
	return &SyncService{
		storage: storage,
		api:     api,
		monitor: monitor,
		cfg:     cfg,
		log:     log,
	}
}

// Sync выполняет один круговой обмен.
// Неудача обмена не трогает ни очередь, ни метку синхронизации:
// следующий запуск повторит все с того же места.
func (s *SyncService) Sync(ctx context.Context) (*syncdomain.Result, error) {
	s.mu.Lock()
	if s.isSyncing {
		s.mu.Unlock()
		return nil, ErrSyncInProgress
	}
	s.isSyncing = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isSyncing = false
		s.mu.Unlock()
	}()

	if !s.monitor.IsOnline() {
		return nil, ErrOffline
	}

	start := time.Now()

	pending, err := s.storage.GetPendingPoints()
	if err != nil {
		return nil, err
	}

	req := syncdomain.Request{
		DeviceID:       s.cfg.DeviceID,
		PointsToUpload: make([]point.CreateRequest, 0, len(pending)),
	}
	for _, pp := range pending {
		req.PointsToUpload = append(req.PointsToUpload, point.NewCreateRequest(pp.Point))
	}

	lastSync, err := s.storage.LastSyncTimestamp()
	if err != nil {
		return nil, err
	}
	if lastSync != "" {
		if t, perr := time.Parse(time.RFC3339, lastSync); perr == nil {
			req.LastSyncAt = &t
		}
	}

	s.log.Info("Запуск синхронизации",
		"pending", len(pending),
		"last_sync", lastSync,
	)

	resp, err := s.api.Sync(ctx, req)
	if err != nil {
		if isNetworkError(err) {
			s.monitor.SetOnline(false)
		}
		return nil, fmt.Errorf("ошибка обмена с сервером: %w", err)
	}

	// Проваленные записи остаются в очереди со счетчиком попыток
	failed := make(map[string]string, len(resp.Errors))
	for _, e := range resp.Errors {
		failed[e.LocalID] = e.Message
	}

	for _, pp := range pending {
		if _, bad := failed[pp.LocalID]; bad {
			if err := s.storage.IncrementPendingPointAttempts(pp.LocalID); err != nil {
				return nil, err
			}
			continue
		}
		if err := s.storage.DeletePendingPoint(pp.LocalID); err != nil {
			return nil, err
		}
		if err := s.confirmUploaded(pp); err != nil {
			return nil, err
		}
	}

	for i := range resp.PointsToDownload {
		p := resp.PointsToDownload[i]
		p.SyncStatus = point.StatusSynced
		p.PendingSync = false
		// Серверная копия замещает локальную запись, созданную офлайн
		if p.LocalID != "" && p.LocalID != p.ID {
			if err := s.storage.DeletePoint(p.LocalID); err != nil {
				return nil, err
			}
		}
		if err := s.storage.SavePoint(&p); err != nil {
			return nil, err
		}
	}

	// Метка двигается только после состоявшегося обмена; частичные
	// ошибки записей ее не блокируют: проваленное останется в очереди
	if resp.Success {
		if err := s.storage.SetLastSyncTimestamp(resp.ServerTime.UTC().Format(time.RFC3339)); err != nil {
			return nil, err
		}
	}

	result := &syncdomain.Result{
		Success:    resp.Success && len(resp.Errors) == 0,
		Uploaded:   resp.PointsUploaded,
		Downloaded: len(resp.PointsToDownload),
		Failed:     len(resp.Errors),
		Errors:     resp.Errors,
		Duration:   time.Since(start),
		StartTime:  start,
		EndTime:    time.Now(),
	}

	s.log.Info("Синхронизация завершена",
		"uploaded", result.Uploaded,
		"downloaded", result.Downloaded,
		"failed", result.Failed,
		"duration", result.Duration,
	)
	return result, nil
}

// confirmUploaded помечает подтвержденную сервером точку синхронизированной
func (s *SyncService) confirmUploaded(pp point.PendingPoint) error {
	local, err := s.storage.GetPoint(pp.LocalID)
	if err != nil {
		if errors.Is(err, point.ErrNotFound) {
			return nil
		}
		return err
	}
	local.SyncStatus = point.StatusSynced
	local.PendingSync = false
	return s.storage.SavePoint(local)
}

// Status собирает сводку синхронизации по локальным данным
func (s *SyncService) Status() (*syncdomain.Status, error) {
	status := &syncdomain.Status{}

	lastSync, err := s.storage.LastSyncTimestamp()
	if err != nil {
		return nil, err
	}
	if lastSync != "" {
		if t, perr := time.Parse(time.RFC3339, lastSync); perr == nil {
			status.LastSyncAt = &t
		}
	}

	if status.PendingUploads, err = s.storage.CountPendingPoints(); err != nil {
		return nil, err
	}

	stats, err := s.storage.Stats()
	if err != nil {
		return nil, err
	}
	status.LexiqueCount = stats.Lexique
	status.ProjectsCount = stats.Projects
	return status, nil
}

// PendingAttempts возвращает очередь с накопленными счетчиками попыток
// для отображения в статусе
func (s *SyncService) PendingAttempts() ([]point.PendingPoint, error) {
	return s.storage.GetPendingPoints()
}

// RemoteStatus запрашивает серверную сводку относительно локальной
// метки синхронизации
func (s *SyncService) RemoteStatus(ctx context.Context) (*syncdomain.Status, error) {
	lastSync, err := s.storage.LastSyncTimestamp()
	if err != nil {
		return nil, err
	}
	var since *time.Time
	if lastSync != "" {
		if t, perr := time.Parse(time.RFC3339, lastSync); perr == nil {
			since = &t
		}
	}
	return s.api.GetSyncStatus(ctx, since)
}

// FormatSyncAge человекочитаемый возраст последней синхронизации
func FormatSyncAge(t *time.Time) string {
	if t == nil {
		return "никогда"
	}
	d := time.Since(*t)
	switch {
	case d < time.Minute:
		return "только что"
	case d < time.Hour:
		return fmt.Sprintf("%d мин назад", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%d ч назад", int(d.Hours()))
	default:
		return fmt.Sprintf("%d дн назад", int(d.Hours()/24))
	}
}
