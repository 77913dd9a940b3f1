package client

import (
	"context"
	"errors"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"

	"geoclic/internal/app/client/config"
	"geoclic/internal/domain/lexique"
	"geoclic/internal/domain/point"
)

// PointsStore — операции над точками с офлайн-поведением: при недоступном
// сервере создание и редактирование уходят в локальную очередь, проверка
// дубликатов считается по локальному кэшу.
type PointsStore struct {
	storage *Storage
	api     *httpClient
	monitor *Monitor
	names   *NameAllocator
	cfg     *config.Config
	log     *slog.Logger

	mu              sync.Mutex
	selectedProject string
}

func NewPointsStore(storage *Storage, api *httpClient, monitor *Monitor, cfg *config.Config, log *slog.Logger) *PointsStore {
	return &PointsStore{
		storage: storage,
		api:     api,
		monitor: monitor,
		names:   NewNameAllocator(storage),
		cfg:     cfg,
		log:     log,
	}
}

// SelectProject задает активный проект для создания точек и выборок
func (ps *PointsStore) SelectProject(projectID string) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.selectedProject = projectID
}

func (ps *PointsStore) SelectedProject() string {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.selectedProject
}

// Reset сбрасывает сессионное состояние: выбранный проект и резервы имен
func (ps *PointsStore) Reset() {
	ps.mu.Lock()
	ps.selectedProject = ""
	ps.mu.Unlock()
	ps.names.Reset()
}

// CreatePoint создает точку: онлайн — на сервере, офлайн (или при сетевой
// ошибке) — в локальной очереди. Пустое имя заменяется автоматическим
// ("Arb 01", "PoiV 02", ...) по категории.
func (ps *PointsStore) CreatePoint(ctx context.Context, req point.CreateRequest) (*point.Point, error) {
	if req.ProjectID == "" {
		req.ProjectID = ps.SelectedProject()
	}

	if req.Name == "" {
		label := ps.LexiqueLabel(req.LexiqueCode)
		name, err := ps.names.Next(label, req.ProjectID)
		if err != nil {
			return nil, err
		}
		req.Name = name
	}

	if err := point.ValidateCreate(req); err != nil {
		ps.names.Release(req.Name)
		return nil, err
	}

	if req.LocalID == "" {
		req.LocalID = uuid.NewString()
	}

	if ps.monitor.IsOnline() {
		created, err := ps.api.CreatePoint(ctx, req)
		if err == nil {
			created.SyncStatus = point.StatusSynced
			if err := ps.storage.SavePoint(created); err != nil {
				return nil, err
			}
			ps.names.Release(req.Name)
			return created, nil
		}
		if isNetworkError(err) {
			ps.monitor.SetOnline(false)
			ps.log.Warn("Сервер недоступен, точка сохранена локально", "local_id", req.LocalID)
		} else {
			return nil, err
		}
	}

	return ps.queueCreate(req)
}

func (ps *PointsStore) queueCreate(req point.CreateRequest) (*point.Point, error) {
	p := point.Point{
		ID:               req.LocalID,
		Name:             req.Name,
		Comment:          req.Comment,
		LexiqueCode:      req.LexiqueCode,
		ProjectID:        req.ProjectID,
		Type:             req.Type,
		Subtype:          req.Subtype,
		GeomType:         req.GeomType,
		Coordinates:      req.Coordinates,
		GPSPrecision:     req.GPSPrecision,
		GPSSource:        req.GPSSource,
		Altitude:         req.Altitude,
		CustomProperties: req.CustomProperties,
		Photos:           req.Photos,
		SyncStatus:       point.StatusPending,
		LocalID:          req.LocalID,
		PendingSync:      true,
	}

	if err := ps.storage.SavePoint(&p); err != nil {
		return nil, err
	}
	pp := point.PendingPoint{Point: p}
	if err := ps.storage.SavePendingPoint(&pp); err != nil {
		return nil, err
	}
	ps.names.Release(req.Name)
	return &p, nil
}

// UpdatePoint применяет частичное обновление. Офлайн-правка помечает
// точку ожидающей синхронизации и обновляет (или создает) запись очереди.
func (ps *PointsStore) UpdatePoint(ctx context.Context, id string, upd point.UpdateRequest) (*point.Point, error) {
	if err := point.ValidateUpdate(upd); err != nil {
		return nil, err
	}

	local, err := ps.storage.GetPoint(id)
	if err != nil {
		return nil, err
	}

	if ps.monitor.IsOnline() && !local.PendingSync {
		updated, err := ps.api.UpdatePoint(ctx, id, upd)
		if err == nil {
			updated.SyncStatus = point.StatusSynced
			if err := ps.storage.SavePoint(updated); err != nil {
				return nil, err
			}
			return updated, nil
		}
		if !isNetworkError(err) {
			return nil, err
		}
		ps.monitor.SetOnline(false)
	}

	point.ApplyUpdate(local, upd)
	local.SyncStatus = point.StatusPending
	local.PendingSync = true
	if local.LocalID == "" {
		local.LocalID = local.ID
	}
	if err := ps.storage.SavePoint(local); err != nil {
		return nil, err
	}

	// Запись очереди создается либо обновляется; счетчик попыток сохраняется
	pp := point.PendingPoint{Point: *local}
	if err := ps.storage.SavePendingPoint(&pp); err != nil {
		return nil, err
	}
	return local, nil
}

// DeletePoint удаляет точку из памяти и кэша в любом режиме. Серверная
// копия удаляется по возможности: офлайн или при сетевой ошибке точка
// исчезает только локально и вернется со следующей серверной выгрузкой.
func (ps *PointsStore) DeletePoint(ctx context.Context, id string) error {
	local, err := ps.storage.GetPoint(id)
	if err != nil {
		return err
	}

	switch {
	case local.PendingSync:
		if err := ps.storage.DeletePendingPoint(local.LocalID); err != nil {
			return err
		}
	case ps.monitor.IsOnline():
		if err := ps.api.DeletePoint(ctx, id); err != nil {
			switch {
			case errors.Is(err, point.ErrAlreadyDeleted):
				// Сервер уже не знает эту точку
			case isNetworkError(err):
				ps.monitor.SetOnline(false)
				ps.log.Warn("Сервер недоступен, точка удалена только локально", "id", id)
			default:
				return err
			}
		}
	default:
		ps.log.Warn("Офлайн: точка удалена только локально", "id", id)
	}

	return ps.storage.DeletePoint(id)
}

// GetPointByID возвращает точку из локального кэша
func (ps *PointsStore) GetPointByID(id string) (*point.Point, error) {
	return ps.storage.GetPoint(id)
}

// LoadPoints возвращает точки активного проекта: онлайн — обновляя кэш
// с сервера, офлайн — из кэша
func (ps *PointsStore) LoadPoints(ctx context.Context) ([]point.Point, error) {
	projectID := ps.SelectedProject()

	if ps.monitor.IsOnline() {
		page, err := ps.api.GetPoints(ctx, projectID, 1, 500)
		if err == nil {
			for i := range page.Items {
				p := page.Items[i]
				p.SyncStatus = point.StatusSynced
				if err := ps.storage.SavePoint(&p); err != nil {
					return nil, err
				}
			}
		} else if isNetworkError(err) {
			ps.monitor.SetOnline(false)
		} else {
			return nil, err
		}
	}

	if projectID != "" {
		return ps.storage.GetPointsByProject(projectID)
	}
	return ps.storage.GetAllPoints()
}

// CheckDuplicate ищет существующие точки рядом с координатой.
// Онлайн проверка выполняется сервером; офлайн — по локальному кэшу.
// radius <= 0 заменяется радиусом из конфигурации.
func (ps *PointsStore) CheckDuplicate(ctx context.Context, lat, lng, radius float64) (*point.DuplicateCheck, error) {
	if radius <= 0 {
		radius = ps.cfg.DuplicateRadius
	}
	if radius < 1 {
		radius = 1
	}
	if radius > 1000 {
		radius = 1000
	}

	if ps.monitor.IsOnline() {
		check, err := ps.api.CheckDuplicate(ctx, lat, lng, radius)
		if err == nil {
			return check, nil
		}
		if !isNetworkError(err) {
			return nil, err
		}
		ps.monitor.SetOnline(false)
		ps.log.Debug("Проверка дубликатов офлайн по локальному кэшу")
	}

	return ps.checkDuplicateLocal(lat, lng, radius)
}

func (ps *PointsStore) checkDuplicateLocal(lat, lng, radius float64) (*point.DuplicateCheck, error) {
	points, err := ps.storage.GetAllPoints()
	if err != nil {
		return nil, err
	}

	var nearby []point.NearbyPoint
	for _, p := range points {
		if len(p.Coordinates) == 0 {
			continue
		}
		d := point.Haversine(lat, lng, p.Coordinates[0].Latitude, p.Coordinates[0].Longitude)
		if d <= radius {
			nearby = append(nearby, point.NearbyPoint{
				ID:        p.ID,
				Name:      p.Name,
				Type:      p.Type,
				Distance:  d,
				Latitude:  p.Coordinates[0].Latitude,
				Longitude: p.Coordinates[0].Longitude,
			})
		}
	}

	sort.Slice(nearby, func(i, j int) bool { return nearby[i].Distance < nearby[j].Distance })

	check := &point.DuplicateCheck{
		HasDuplicate: len(nearby) > 0,
		NearbyPoints: nearby,
		SearchRadius: radius,
	}
	if len(nearby) > 0 {
		check.MinDistance = &nearby[0].Distance
	}
	return check, nil
}

// --- Лексикон ---

// LexiqueLabel возвращает название категории; неизвестный код возвращается как есть
func (ps *PointsStore) LexiqueLabel(code string) string {
	if code == "" {
		return ""
	}
	item, err := ps.storage.GetLexiqueItem(code)
	if err != nil {
		return code
	}
	return item.Label
}

// LexiquePath строит полный путь категории от корня: "Espaces verts > Arbre"
func (ps *PointsStore) LexiquePath(code string) string {
	var labels []string
	seen := make(map[string]bool)
	for code != "" && !seen[code] {
		seen[code] = true
		item, err := ps.storage.GetLexiqueItem(code)
		if err != nil {
			labels = append(labels, code)
			break
		}
		labels = append(labels, item.Label)
		code = item.ParentCode
	}

	// Разворачиваем: шли от листа к корню
	for i, j := 0, len(labels)-1; i < j; i, j = i+1, j-1 {
		labels[i], labels[j] = labels[j], labels[i]
	}
	return strings.Join(labels, " > ")
}

// LexiqueTree возвращает дерево категорий из локального кэша
func (ps *PointsStore) LexiqueTree() ([]*lexique.Node, error) {
	items, err := ps.storage.GetLexique()
	if err != nil {
		return nil, err
	}
	return lexique.BuildTree(items), nil
}

// PendingCounts возвращает размер очередей точек и фотографий
func (ps *PointsStore) PendingCounts() (points, photos int, err error) {
	points, err = ps.storage.CountPendingPoints()
	if err != nil {
		return 0, 0, err
	}
	photos, err = ps.storage.CountPendingPhotos()
	if err != nil {
		return 0, 0, err
	}
	return points, photos, nil
}

// isNetworkError отличает сетевой сбой от ответа сервера с ошибкой
func isNetworkError(err error) bool {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
