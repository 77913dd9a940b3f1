// Package emulator — автономный сервер для разработки и тестов клиента.
// Держит все данные в памяти и воспроизводит контракт боевого Geoclic API:
// точки, синхронизацию, фотографии и справочники. Флаги отказов позволяют
// проверять офлайн-поведение клиента.
package emulator

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"geoclic/internal/domain/lexique"
	"geoclic/internal/domain/point"
)

// State — состояние эмулятора в памяти
type State struct {
	mu sync.Mutex

	points   map[string]*point.Point
	modified map[string]time.Time
	photos   map[string][]point.PhotoMeta

	lexique  []lexique.Item
	projects []lexique.Project
	champs   []lexique.ChampDynamique

	tokens map[string]string // токен → логин
	syncID int64

	// Флаги отказов для тестов
	FailSync    bool   // POST /sync отвечает 500
	FailUploads bool   // POST /photos/upload отвечает 500
	RejectName  string // точки с этим именем отклоняются поштучно
}

func NewState() *State {
	return &State{
		points:   make(map[string]*point.Point),
		modified: make(map[string]time.Time),
		photos:   make(map[string][]point.PhotoMeta),
		tokens:   make(map[string]string),
	}
}

// IssueToken выдает токен для логина
func (s *State) IssueToken(login string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	token := uuid.NewString()
	s.tokens[token] = login
	return token
}

// ValidToken проверяет токен
func (s *State) ValidToken(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tokens[token]
	return ok
}

// UserForToken возвращает логин владельца токена
func (s *State) UserForToken(token string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	login, ok := s.tokens[token]
	return login, ok
}

// RevokeToken отзывает токен (для проверки обработки 401 клиентом)
func (s *State) RevokeToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
}

// --- Точки ---

// PutPoint сохраняет точку, присваивая id при необходимости
func (s *State) PutPoint(p *point.Point) *point.Point {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.putPointLocked(p)
}

func (s *State) putPointLocked(p *point.Point) *point.Point {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if p.CreatedAt == "" {
		p.CreatedAt = now.Format(time.RFC3339)
	}
	p.UpdatedAt = now.Format(time.RFC3339)
	p.SyncStatus = point.StatusSynced
	p.PendingSync = false
	s.points[p.ID] = p
	s.modified[p.ID] = now
	return p
}

func (s *State) GetPoint(id string) (*point.Point, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.points[id]
	if !ok {
		return nil, false
	}
	cp := *p
	return &cp, true
}

func (s *State) DeletePoint(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.points[id]; !ok {
		return false
	}
	delete(s.points, id)
	delete(s.modified, id)
	return true
}

// Points возвращает точки, опционально по проекту
func (s *State) Points(projectID string) []point.Point {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []point.Point
	for _, p := range s.points {
		if projectID != "" && p.ProjectID != projectID {
			continue
		}
		out = append(out, *p)
	}
	return out
}

// ChangedSince возвращает точки, измененные после отметки времени
func (s *State) ChangedSince(since *time.Time) []point.Point {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []point.Point
	for id, p := range s.points {
		if since != nil && !s.modified[id].After(*since) {
			continue
		}
		out = append(out, *p)
	}
	return out
}

// NextSyncID выдает монотонный идентификатор обмена
func (s *State) NextSyncID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncID++
	return s.syncID
}

// AttachPhoto привязывает фотографию к точке
func (s *State) AttachPhoto(pointID string, meta point.PhotoMeta) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.photos[pointID] = append(s.photos[pointID], meta)
	if p, ok := s.points[pointID]; ok {
		p.Photos = append(p.Photos, meta)
		s.modified[pointID] = time.Now().UTC()
	}
}

// --- Справочники ---

// SeedRefData загружает справочники (для разработки и тестов)
func (s *State) SeedRefData(items []lexique.Item, projects []lexique.Project, champs []lexique.ChampDynamique) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lexique = items
	s.projects = projects
	s.champs = champs
}

func (s *State) Lexique() []lexique.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]lexique.Item(nil), s.lexique...)
}

func (s *State) Projects() []lexique.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]lexique.Project(nil), s.projects...)
}

// ChampsForLexique возвращает поля, привязанные ровно к этому коду
func (s *State) ChampsForLexique(code string) []lexique.ChampDynamique {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []lexique.ChampDynamique
	for _, ch := range s.champs {
		if strings.EqualFold(ch.LexiqueCode, code) {
			out = append(out, ch)
		}
	}
	return out
}

func (s *State) Champs() []lexique.ChampDynamique {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]lexique.ChampDynamique(nil), s.champs...)
}
