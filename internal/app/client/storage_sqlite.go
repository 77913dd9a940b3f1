package client

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"geoclic/internal/domain/lexique"
	"geoclic/internal/domain/point"
)

// Ключ метаданных с меткой последней успешной синхронизации
const metaKeyLastSync = "lastSyncAt"

// ErrNotInitialized возвращается любой операцией хранилища до вызова Init
var ErrNotInitialized = errors.New("хранилище не инициализировано")

// StorageStats — счетчики содержимого локальной базы
type StorageStats struct {
	Points        int `json:"points"`
	PendingPoints int `json:"pendingPoints"`
	PendingPhotos int `json:"pendingPhotos"`
	Lexique       int `json:"lexique"`
	Projects      int `json:"projects"`
	Champs        int `json:"champs"`
}

// Storage — локальное SQLite-хранилище клиента: кэш точек, очереди
// отложенных точек и фотографий, справочники и метаданные синхронизации.
type Storage struct {
	path   string
	engine MigrationEngine

	once    sync.Once
	db      *sql.DB
	initErr error
}

func NewStorage(path string) *Storage {
	return &Storage{path: path, engine: DefaultEngine}
}

// Init открывает базу и применяет миграции. Повторные вызовы без эффекта:
// результат первого вызова запоминается.
func (s *Storage) Init() error {
	s.once.Do(func() {
		db, err := sql.Open("sqlite3", s.path+"?_foreign_keys=on&_journal_mode=WAL")
		if err != nil {
			s.initErr = fmt.Errorf("ошибка открытия базы данных: %w", err)
			return
		}
		if err := runMigrations(s.path, s.engine); err != nil {
			db.Close()
			s.initErr = fmt.Errorf("ошибка инициализации таблиц: %w", err)
			return
		}
		s.db = db
	})
	return s.initErr
}

func (s *Storage) conn() (*sql.DB, error) {
	if s.db == nil {
		return nil, ErrNotInitialized
	}
	return s.db, nil
}

func (s *Storage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// --- Точки ---

// SavePoint сохраняет точку в локальный кэш (upsert по id).
// Без id ключом становится LocalID, при его отсутствии генерируется новый.
// Каждое сохранение обновляет метку LastModified.
func (s *Storage) SavePoint(p *point.Point) error {
	db, err := s.conn()
	if err != nil {
		return err
	}

	if p.ID == "" {
		if p.LocalID != "" {
			p.ID = p.LocalID
		} else {
			p.ID = uuid.NewString()
		}
	}
	p.LastModified = time.Now().UnixMilli()
	if p.SyncStatus == "" {
		p.SyncStatus = point.StatusSynced
	}

	doc, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("ошибка сериализации точки: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO points (id, project_id, lexique_code, sync_status, last_modified, doc)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			project_id = excluded.project_id,
			lexique_code = excluded.lexique_code,
			sync_status = excluded.sync_status,
			last_modified = excluded.last_modified,
			doc = excluded.doc
	`, p.ID, p.ProjectID, p.LexiqueCode, p.SyncStatus, p.LastModified, doc)
	if err != nil {
		return fmt.Errorf("ошибка сохранения точки: %w", err)
	}
	return nil
}

func (s *Storage) GetPoint(id string) (*point.Point, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	var doc string
	err = db.QueryRow("SELECT doc FROM points WHERE id = ?", id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", point.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка получения точки: %w", err)
	}

	var p point.Point
	if err := json.Unmarshal([]byte(doc), &p); err != nil {
		return nil, fmt.Errorf("ошибка парсинга точки: %w", err)
	}
	return &p, nil
}

func (s *Storage) GetAllPoints() ([]point.Point, error) {
	return s.queryPoints("SELECT doc FROM points ORDER BY last_modified DESC")
}

func (s *Storage) GetPointsByProject(projectID string) ([]point.Point, error) {
	return s.queryPoints("SELECT doc FROM points WHERE project_id = ? ORDER BY last_modified DESC", projectID)
}

func (s *Storage) queryPoints(query string, args ...interface{}) ([]point.Point, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения запроса: %w", err)
	}
	defer rows.Close()

	var points []point.Point
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("ошибка сканирования точки: %w", err)
		}
		var p point.Point
		if err := json.Unmarshal([]byte(doc), &p); err != nil {
			return nil, fmt.Errorf("ошибка парсинга точки: %w", err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

func (s *Storage) DeletePoint(id string) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	if _, err := db.Exec("DELETE FROM points WHERE id = ?", id); err != nil {
		return fmt.Errorf("ошибка удаления точки: %w", err)
	}
	return nil
}

func (s *Storage) CountPoints() (int, error) {
	return s.count("SELECT COUNT(*) FROM points")
}

// ClearPoints очищает кэш точек, не трогая очереди и справочники
func (s *Storage) ClearPoints() error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	if _, err := db.Exec("DELETE FROM points"); err != nil {
		return fmt.Errorf("ошибка очистки кэша точек: %w", err)
	}
	return nil
}

// --- Очередь отложенных точек ---

// SavePendingPoint ставит точку в очередь на отправку (upsert по local_id)
func (s *Storage) SavePendingPoint(pp *point.PendingPoint) error {
	db, err := s.conn()
	if err != nil {
		return err
	}

	if pp.LocalID == "" {
		pp.LocalID = uuid.NewString()
	}
	if pp.QueuedAt.IsZero() {
		pp.QueuedAt = time.Now()
	}
	pp.PendingSync = true

	doc, err := json.Marshal(pp)
	if err != nil {
		return fmt.Errorf("ошибка сериализации отложенной точки: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO pending_points (local_id, queued_at, attempts, doc)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(local_id) DO UPDATE SET doc = excluded.doc
	`, pp.LocalID, pp.QueuedAt.UTC().Format(time.RFC3339Nano), pp.Attempts, doc)
	if err != nil {
		return fmt.Errorf("ошибка сохранения отложенной точки: %w", err)
	}
	return nil
}

// GetPendingPoints возвращает очередь в порядке постановки (FIFO)
func (s *Storage) GetPendingPoints() ([]point.PendingPoint, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.Query("SELECT doc, queued_at, attempts FROM pending_points ORDER BY queued_at ASC")
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения запроса: %w", err)
	}
	defer rows.Close()

	var pending []point.PendingPoint
	for rows.Next() {
		var doc, queuedAt string
		var attempts int
		if err := rows.Scan(&doc, &queuedAt, &attempts); err != nil {
			return nil, fmt.Errorf("ошибка сканирования отложенной точки: %w", err)
		}
		var pp point.PendingPoint
		if err := json.Unmarshal([]byte(doc), &pp); err != nil {
			return nil, fmt.Errorf("ошибка парсинга отложенной точки: %w", err)
		}
		// Колонки авторитетнее дубликатов в doc
		pp.QueuedAt, _ = time.Parse(time.RFC3339Nano, queuedAt)
		pp.Attempts = attempts
		pending = append(pending, pp)
	}
	return pending, rows.Err()
}

func (s *Storage) CountPendingPoints() (int, error) {
	return s.count("SELECT COUNT(*) FROM pending_points")
}

// DeletePendingPoint убирает точку из очереди после подтверждения сервером
func (s *Storage) DeletePendingPoint(localID string) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	if _, err := db.Exec("DELETE FROM pending_points WHERE local_id = ?", localID); err != nil {
		return fmt.Errorf("ошибка удаления отложенной точки: %w", err)
	}
	return nil
}

// IncrementPendingPointAttempts увеличивает счетчик неудачных попыток.
// Счетчик никогда не сбрасывается.
func (s *Storage) IncrementPendingPointAttempts(localID string) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	if _, err := db.Exec("UPDATE pending_points SET attempts = attempts + 1 WHERE local_id = ?", localID); err != nil {
		return fmt.Errorf("ошибка обновления счетчика попыток: %w", err)
	}
	return nil
}

// --- Очередь фотографий ---

func (s *Storage) SavePendingPhoto(ph *point.PendingPhoto) error {
	db, err := s.conn()
	if err != nil {
		return err
	}

	if ph.ID == "" {
		ph.ID = uuid.NewString()
	}
	if ph.CreatedAt.IsZero() {
		ph.CreatedAt = time.Now()
	}

	_, err = db.Exec(`
		INSERT INTO pending_photos (id, point_id, data, gps_lat, gps_lng, gps_accuracy, created_at, attempts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET point_id = excluded.point_id, data = excluded.data
	`, ph.ID, ph.PointID, ph.Data, ph.GPSLat, ph.GPSLng, ph.GPSAccuracy,
		ph.CreatedAt.UTC().Format(time.RFC3339Nano), ph.Attempts)
	if err != nil {
		return fmt.Errorf("ошибка сохранения фотографии: %w", err)
	}
	return nil
}

func (s *Storage) GetPendingPhotos() ([]point.PendingPhoto, error) {
	return s.queryPendingPhotos("SELECT id, point_id, data, gps_lat, gps_lng, gps_accuracy, created_at, attempts FROM pending_photos ORDER BY created_at ASC")
}

func (s *Storage) GetPendingPhotosByPoint(pointID string) ([]point.PendingPhoto, error) {
	return s.queryPendingPhotos("SELECT id, point_id, data, gps_lat, gps_lng, gps_accuracy, created_at, attempts FROM pending_photos WHERE point_id = ? ORDER BY created_at ASC", pointID)
}

func (s *Storage) queryPendingPhotos(query string, args ...interface{}) ([]point.PendingPhoto, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения запроса: %w", err)
	}
	defer rows.Close()

	var photos []point.PendingPhoto
	for rows.Next() {
		var ph point.PendingPhoto
		var createdAt string
		if err := rows.Scan(&ph.ID, &ph.PointID, &ph.Data, &ph.GPSLat, &ph.GPSLng,
			&ph.GPSAccuracy, &createdAt, &ph.Attempts); err != nil {
			return nil, fmt.Errorf("ошибка сканирования фотографии: %w", err)
		}
		ph.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		photos = append(photos, ph)
	}
	return photos, rows.Err()
}

func (s *Storage) CountPendingPhotos() (int, error) {
	return s.count("SELECT COUNT(*) FROM pending_photos")
}

func (s *Storage) DeletePendingPhoto(id string) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	if _, err := db.Exec("DELETE FROM pending_photos WHERE id = ?", id); err != nil {
		return fmt.Errorf("ошибка удаления фотографии: %w", err)
	}
	return nil
}

func (s *Storage) IncrementPendingPhotoAttempts(id string) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	if _, err := db.Exec("UPDATE pending_photos SET attempts = attempts + 1 WHERE id = ?", id); err != nil {
		return fmt.Errorf("ошибка обновления счетчика попыток: %w", err)
	}
	return nil
}

// --- Справочники ---

// SaveLexique обновляет узлы лексикона (upsert без удаления отсутствующих)
func (s *Storage) SaveLexique(items []lexique.Item) error {
	db, err := s.conn()
	if err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO lexique (code, parent_code, level, doc) VALUES (?, ?, ?, ?)
		ON CONFLICT(code) DO UPDATE SET parent_code = excluded.parent_code,
			level = excluded.level, doc = excluded.doc
	`)
	if err != nil {
		return fmt.Errorf("ошибка подготовки запроса: %w", err)
	}
	defer stmt.Close()

	for _, item := range items {
		doc, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("ошибка сериализации узла лексикона: %w", err)
		}
		if _, err := stmt.Exec(item.Code, item.ParentCode, item.Level, doc); err != nil {
			return fmt.Errorf("ошибка сохранения узла лексикона %s: %w", item.Code, err)
		}
	}
	return tx.Commit()
}

func (s *Storage) GetLexique() ([]lexique.Item, error) {
	return s.queryLexique("SELECT doc FROM lexique ORDER BY level, code")
}

func (s *Storage) GetLexiqueByLevel(level int) ([]lexique.Item, error) {
	return s.queryLexique("SELECT doc FROM lexique WHERE level = ? ORDER BY code", level)
}

func (s *Storage) GetLexiqueByParent(parentCode string) ([]lexique.Item, error) {
	return s.queryLexique("SELECT doc FROM lexique WHERE parent_code = ? ORDER BY code", parentCode)
}

func (s *Storage) GetLexiqueItem(code string) (*lexique.Item, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	var doc string
	err = db.QueryRow("SELECT doc FROM lexique WHERE code = ?", code).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("узел лексикона не найден: %s", code)
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка получения узла лексикона: %w", err)
	}

	var item lexique.Item
	if err := json.Unmarshal([]byte(doc), &item); err != nil {
		return nil, fmt.Errorf("ошибка парсинга узла лексикона: %w", err)
	}
	return &item, nil
}

func (s *Storage) queryLexique(query string, args ...interface{}) ([]lexique.Item, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения запроса: %w", err)
	}
	defer rows.Close()

	var items []lexique.Item
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("ошибка сканирования узла лексикона: %w", err)
		}
		var item lexique.Item
		if err := json.Unmarshal([]byte(doc), &item); err != nil {
			return nil, fmt.Errorf("ошибка парсинга узла лексикона: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *Storage) SaveProjects(projects []lexique.Project) error {
	db, err := s.conn()
	if err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback()

	for _, pr := range projects {
		doc, err := json.Marshal(pr)
		if err != nil {
			return fmt.Errorf("ошибка сериализации проекта: %w", err)
		}
		_, err = tx.Exec(`
			INSERT INTO projects (id, doc) VALUES (?, ?)
			ON CONFLICT(id) DO UPDATE SET doc = excluded.doc
		`, pr.ID, doc)
		if err != nil {
			return fmt.Errorf("ошибка сохранения проекта %s: %w", pr.ID, err)
		}
	}
	return tx.Commit()
}

func (s *Storage) GetProjects() ([]lexique.Project, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.Query("SELECT doc FROM projects ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения запроса: %w", err)
	}
	defer rows.Close()

	var projects []lexique.Project
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("ошибка сканирования проекта: %w", err)
		}
		var pr lexique.Project
		if err := json.Unmarshal([]byte(doc), &pr); err != nil {
			return nil, fmt.Errorf("ошибка парсинга проекта: %w", err)
		}
		projects = append(projects, pr)
	}
	return projects, rows.Err()
}

func (s *Storage) SaveChamps(champs []lexique.ChampDynamique) error {
	db, err := s.conn()
	if err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback()

	for _, ch := range champs {
		doc, err := json.Marshal(ch)
		if err != nil {
			return fmt.Errorf("ошибка сериализации поля: %w", err)
		}
		// Одно поле может быть привязано к нескольким категориям;
		// запись уникальна по паре (id, lexique_code)
		_, err = tx.Exec(`
			INSERT INTO champs (id, lexique_code, ordre, doc) VALUES (?, ?, ?, ?)
			ON CONFLICT(id, lexique_code) DO UPDATE SET
				ordre = excluded.ordre, doc = excluded.doc
		`, ch.ID, ch.LexiqueCode, ch.Ordre, doc)
		if err != nil {
			return fmt.Errorf("ошибка сохранения поля %s: %w", ch.ID, err)
		}
	}
	return tx.Commit()
}

func (s *Storage) GetChamps() ([]lexique.ChampDynamique, error) {
	return s.queryChamps("SELECT doc FROM champs ORDER BY ordre, id")
}

func (s *Storage) GetChampsByLexique(lexiqueCode string) ([]lexique.ChampDynamique, error) {
	return s.queryChamps("SELECT doc FROM champs WHERE lexique_code = ? ORDER BY ordre, id", lexiqueCode)
}

func (s *Storage) queryChamps(query string, args ...interface{}) ([]lexique.ChampDynamique, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения запроса: %w", err)
	}
	defer rows.Close()

	var champs []lexique.ChampDynamique
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("ошибка сканирования поля: %w", err)
		}
		var ch lexique.ChampDynamique
		if err := json.Unmarshal([]byte(doc), &ch); err != nil {
			return nil, fmt.Errorf("ошибка парсинга поля: %w", err)
		}
		champs = append(champs, ch)
	}
	return champs, rows.Err()
}

// ClearReferenceData удаляет справочники перед полной перезагрузкой
func (s *Storage) ClearReferenceData() error {
	db, err := s.conn()
	if err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"champs", "projects", "lexique"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("ошибка очистки таблицы %s: %w", table, err)
		}
	}
	return tx.Commit()
}

// --- Метаданные ---

func (s *Storage) SetMetadata(key, value string) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	_, err = db.Exec(`
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("ошибка сохранения метаданных: %w", err)
	}
	return nil
}

// GetMetadata возвращает пустую строку, если ключ не задан
func (s *Storage) GetMetadata(key string) (string, error) {
	db, err := s.conn()
	if err != nil {
		return "", err
	}

	var value string
	err = db.QueryRow("SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("ошибка чтения метаданных: %w", err)
	}
	return value, nil
}

// LastSyncTimestamp — метка последнего успешного обмена с сервером
// (ISO 8601); пустая строка означает, что синхронизации еще не было.
func (s *Storage) LastSyncTimestamp() (string, error) {
	return s.GetMetadata(metaKeyLastSync)
}

func (s *Storage) SetLastSyncTimestamp(ts string) error {
	return s.SetMetadata(metaKeyLastSync, ts)
}

// --- Обслуживание ---

func (s *Storage) Stats() (*StorageStats, error) {
	stats := &StorageStats{}
	for _, c := range []struct {
		query string
		dst   *int
	}{
		{"SELECT COUNT(*) FROM points", &stats.Points},
		{"SELECT COUNT(*) FROM pending_points", &stats.PendingPoints},
		{"SELECT COUNT(*) FROM pending_photos", &stats.PendingPhotos},
		{"SELECT COUNT(*) FROM lexique", &stats.Lexique},
		{"SELECT COUNT(*) FROM projects", &stats.Projects},
		{"SELECT COUNT(*) FROM champs", &stats.Champs},
	} {
		n, err := s.count(c.query)
		if err != nil {
			return nil, err
		}
		*c.dst = n
	}
	return stats, nil
}

// ClearAll очищает все таблицы, включая очереди и метаданные.
// Используется при выходе из учетной записи.
func (s *Storage) ClearAll() error {
	db, err := s.conn()
	if err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"points", "pending_points", "pending_photos", "lexique", "projects", "champs", "metadata"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("ошибка очистки таблицы %s: %w", table, err)
		}
	}
	return tx.Commit()
}

func (s *Storage) count(query string) (int, error) {
	db, err := s.conn()
	if err != nil {
		return 0, err
	}
	var n int
	if err := db.QueryRow(query).Scan(&n); err != nil {
		return 0, fmt.Errorf("ошибка подсчета записей: %w", err)
	}
	return n, nil
}
