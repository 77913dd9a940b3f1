package client

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	gosync "sync"
	"time"

	"golang.org/x/exp/slog"

	"geoclic/internal/app/client/config"
)

// App собирает клиент целиком: хранилище, HTTP-клиент, монитор связи
// и сервисы точек, синхронизации, фотографий и справочников.
type App struct {
	config        *config.Config
	log           *slog.Logger
	httpClient    *httpClient
	storage       *Storage
	monitor       *Monitor
	points        *PointsStore
	syncService   *SyncService
	photos        *PhotoQueue
	refData       *RefData
	gps           *GPSWatcher
	state         *AppState
	authenticated bool
	wg            gosync.WaitGroup
	cancel        context.CancelFunc
	mu            gosync.RWMutex
}

// AppState хранит состояние приложения между запусками
type AppState struct {
	Initialized     bool   `json:"initialized"`
	UserLogin       string `json:"user_login"`
	SelectedProject string `json:"selected_project,omitempty"`
	DeviceID        string `json:"device_id,omitempty"`
}

func New(cfg *config.Config, log *slog.Logger) (*App, error) {
	state, err := loadAppState(cfg)
	if err != nil {
		log.Warn("Не удалось загрузить состояние приложения", "error", err)
		state = &AppState{}
	}

	// Инициализируем HTTP клиент
	httpCl, err := NewHTTPClient(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации HTTP клиента: %w", err)
	}

	// Инициализируем локальное хранилище
	storage := NewStorage(cfg.DataPath)
	if err := storage.Init(); err != nil {
		return nil, fmt.Errorf("ошибка инициализации хранилища: %w", err)
	}

	// Идентификатор устройства выдается один раз и переживает перезапуски
	if cfg.DeviceID == "" {
		cfg.DeviceID = state.DeviceID
	}
	if cfg.DeviceID == "" {
		cfg.DeviceID = newDeviceID()
		state.DeviceID = cfg.DeviceID
	}

	monitor := NewMonitor(httpCl.TestConnection, time.Duration(cfg.ProbeInterval)*time.Second, log)

	app := &App{
		config:     cfg,
		log:        log,
		httpClient: httpCl,
		storage:    storage,
		monitor:    monitor,
		state:      state,
	}

	app.points = NewPointsStore(storage, httpCl, monitor, cfg, log)
	app.syncService = NewSyncService(storage, httpCl, monitor, cfg, log)
	app.photos = NewPhotoQueue(storage, httpCl, monitor, log)
	app.refData = NewRefData(storage, httpCl, monitor, log)
	app.gps = NewGPSWatcher(&FilePositionSource{Path: cfg.GPSPositionPath}, gpsPollInterval, log)

	if state.SelectedProject != "" {
		app.points.SelectProject(state.SelectedProject)
	}

	// При отзыве токена сбрасываем аутентификацию
	httpCl.SetOnUnauthorized(func() {
		if err := app.ClearToken(); err != nil {
			log.Warn("Не удалось сбросить токен", "error", err)
		}
	})

	// Загружаем токен если он есть
	if token, err := app.GetToken(); err == nil && token != "" {
		httpCl.SetToken(token)
		app.mu.Lock()
		app.authenticated = true
		app.mu.Unlock()
		log.Debug("Токен загружен из файла")
	}

	if err := app.saveAppState(); err != nil {
		log.Warn("Не удалось сохранить состояние", "error", err)
	}

	return app, nil
}

func loadAppState(cfg *config.Config) (*AppState, error) {
	statePath := cfg.ConfigDir + "/state.json"

	if _, err := os.Stat(statePath); os.IsNotExist(err) {
		return &AppState{}, nil
	}

	data, err := os.ReadFile(statePath)
	if err != nil {
		return nil, err
	}

	var state AppState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}

	return &state, nil
}

func (a *App) saveAppState() error {
	statePath := a.config.ConfigDir + "/state.json"
	data, err := json.MarshalIndent(a.state, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(statePath, data, 0600)
}

// Run запускает фоновые циклы: монитор связи и автосинхронизацию
// при восстановлении сети
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	a.monitor.OnChange(func(online bool) {
		if !online {
			return
		}
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			a.drainOnReconnect(ctx)
		}()
	})

	a.monitor.Start(ctx)
	a.gps.Start(ctx)

	a.log.Info("Клиент запущен",
		"server", a.config.ServerURL,
		"device_id", a.config.DeviceID,
		"env", a.config.Env,
	)
}

// drainOnReconnect выполняет обмен и дренаж фотографий после
// восстановления связи
func (a *App) drainOnReconnect(ctx context.Context) {
	if !a.IsAuthenticated() {
		return
	}
	if _, err := a.syncService.Sync(ctx); err != nil {
		a.log.Warn("Автосинхронизация не удалась", "error", err)
		return
	}
	if _, _, err := a.photos.DrainPending(ctx); err != nil {
		a.log.Warn("Дренаж фотографий не удался", "error", err)
	}
}

// Shutdown останавливает фоновые циклы и закрывает хранилище
func (a *App) Shutdown() {
	if a.cancel != nil {
		a.cancel()
	}
	a.monitor.Stop()
	a.gps.Stop()
	a.wg.Wait()
	if err := a.storage.Close(); err != nil {
		a.log.Warn("Ошибка закрытия хранилища", "error", err)
	}
	a.log.Info("Клиент завершил работу")
}

// CheckConnection выполняет разовую проверку связи и обновляет монитор
func (a *App) CheckConnection(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	err := a.httpClient.TestConnection(ctx)
	a.monitor.SetOnline(err == nil)
	return err
}

// --- Аутентификация ---

// IsAuthenticated проверяет, аутентифицирован ли пользователь
func (a *App) IsAuthenticated() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.authenticated {
		token, err := a.GetToken()
		if err == nil && token != "" {
			a.authenticated = true
		}
	}

	return a.authenticated
}

// GetToken возвращает сохраненный токен
func (a *App) GetToken() (string, error) {
	tokenBytes, err := os.ReadFile(a.config.TokenPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("токен не найден. Выполните вход: geoclic auth login")
		}
		return "", fmt.Errorf("ошибка чтения токена: %w", err)
	}
	return string(tokenBytes), nil
}

// SaveToken сохраняет токен аутентификации
func (a *App) SaveToken(token string) error {
	if err := os.WriteFile(a.config.TokenPath, []byte(token), 0600); err != nil {
		return fmt.Errorf("ошибка сохранения токена: %w", err)
	}

	a.httpClient.SetToken(token)

	return nil
}

// ClearToken удаляет токен
func (a *App) ClearToken() error {
	a.mu.Lock()
	a.authenticated = false
	a.state.UserLogin = ""

	if err := os.Remove(a.config.TokenPath); err != nil && !os.IsNotExist(err) {
		a.mu.Unlock()
		return fmt.Errorf("ошибка удаления токена: %w", err)
	}

	if err := a.saveAppState(); err != nil {
		a.mu.Unlock()
		return fmt.Errorf("ошибка сохранения состояния: %w", err)
	}
	a.mu.Unlock()

	a.httpClient.SetToken("")
	return nil
}

// Login выполняет вход пользователя
func (a *App) Login(ctx context.Context, username, password string) (string, error) {
	token, err := a.httpClient.Login(ctx, username, password)
	if err != nil {
		return "", err
	}

	if err = a.SaveToken(token); err != nil {
		return "", fmt.Errorf("ошибка сохранения токена: %w", err)
	}

	a.mu.Lock()
	a.authenticated = true
	a.state.UserLogin = username
	a.state.Initialized = true

	if err = a.saveAppState(); err != nil {
		a.mu.Unlock()
		a.log.Warn("Не удалось сохранить состояние", "error", err)
	} else {
		a.mu.Unlock()
	}

	a.monitor.SetOnline(true)
	a.log.Info("Вход выполнен успешно", "login", username)
	return token, nil
}

// Logout выходит из учетной записи и стирает все локальные данные,
// включая несинхронизированные очереди
func (a *App) Logout() error {
	if err := a.ClearToken(); err != nil {
		return err
	}
	if err := a.storage.ClearAll(); err != nil {
		return fmt.Errorf("ошибка очистки локальных данных: %w", err)
	}
	a.points.Reset()
	a.log.Info("Выход выполнен, локальные данные удалены")
	return nil
}

// --- Проекты ---

// SelectProject делает проект активным и запоминает выбор
func (a *App) SelectProject(projectID string) error {
	a.points.SelectProject(projectID)

	a.mu.Lock()
	a.state.SelectedProject = projectID
	err := a.saveAppState()
	a.mu.Unlock()
	if err != nil {
		return fmt.Errorf("ошибка сохранения состояния: %w", err)
	}
	return nil
}

// --- Доступ к сервисам ---

func (a *App) Points() *PointsStore {
	return a.points
}

func (a *App) SyncService() *SyncService {
	return a.syncService
}

func (a *App) Photos() *PhotoQueue {
	return a.photos
}

func (a *App) RefData() *RefData {
	return a.refData
}

func (a *App) Storage() *Storage {
	return a.storage
}

func (a *App) Monitor() *Monitor {
	return a.monitor
}

func (a *App) GPS() *GPSWatcher {
	return a.gps
}

// CurrentPosition возвращает позицию приемника: последнее измерение
// цикла опроса либо разовое чтение источника
func (a *App) CurrentPosition(ctx context.Context) (*Position, error) {
	if pos, err := a.gps.Last(); err == nil {
		return pos, nil
	}
	return a.gps.Current(ctx)
}

func (a *App) Config() *config.Config {
	return a.config
}

func newDeviceID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "geoclic"
	}
	return fmt.Sprintf("%s-%d", host, time.Now().UnixNano()%1000000)
}
