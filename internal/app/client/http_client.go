package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/exp/slog"

	"geoclic/internal/app/client/config"
	"geoclic/internal/domain/lexique"
	"geoclic/internal/domain/point"
	syncdomain "geoclic/internal/domain/sync"
)

type httpClient struct {
	client      *http.Client
	probeClient *http.Client
	config      *config.Config
	log         *slog.Logger
	baseURL     string
	token       string
	userAgent   string

	// Вызывается при ответе 401: токен отозван или истек
	onUnauthorized func()
}

func NewHTTPClient(cfg *config.Config, log *slog.Logger) (*httpClient, error) {
	client := &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			IdleConnTimeout:     90 * time.Second,
			DisableCompression:  false,
			DisableKeepAlives:   false,
			MaxIdleConnsPerHost: 10,
		},
	}

	return &httpClient{
		client:      client,
		probeClient: &http.Client{Timeout: 5 * time.Second},
		config:      cfg,
		log:         log,
		baseURL:     cfg.APIBase(),
		userAgent:   "Geoclic-Client/1.0",
	}, nil
}

// SetToken устанавливает токен аутентификации
func (h *httpClient) SetToken(token string) {
	h.token = token
}

func (h *httpClient) Token() string {
	return h.token
}

// SetOnUnauthorized регистрирует обработчик ответа 401
func (h *httpClient) SetOnUnauthorized(fn func()) {
	h.onUnauthorized = fn
}

// --- Аутентификация ---

// Login выполняет вход по логину и паролю (form-encoded, как требует сервер)
func (h *httpClient) Login(ctx context.Context, username, password string) (string, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, "POST", h.baseURL+"/auth/login",
		bytes.NewBufferString(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("ошибка создания запроса: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", h.userAgent)

	resp, err := h.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ошибка выполнения запроса: %w", err)
	}

	var loginResp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	if err := h.parseResponse(resp, &loginResp); err != nil {
		return "", err
	}

	h.token = loginResp.AccessToken
	return loginResp.AccessToken, nil
}

// TestConnection проверяет доступность сервера и валидность токена.
// Используется монитором связи, поэтому таймаут короткий.
func (h *httpClient) TestConnection(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", h.baseURL+"/auth/me", nil)
	if err != nil {
		return fmt.Errorf("ошибка создания запроса: %w", err)
	}
	req.Header.Set("User-Agent", h.userAgent)
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}

	resp, err := h.probeClient.Do(req)
	if err != nil {
		return fmt.Errorf("сервер недоступен: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode == http.StatusUnauthorized {
		if h.onUnauthorized != nil {
			h.onUnauthorized()
		}
		return fmt.Errorf("токен недействителен")
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("сервер вернул статус: %d", resp.StatusCode)
	}
	return nil
}

// --- Точки ---

// CreatePoint создает точку на сервере
func (h *httpClient) CreatePoint(ctx context.Context, req point.CreateRequest) (*point.Point, error) {
	resp, err := h.doRequest(ctx, "POST", "/points", req)
	if err != nil {
		return nil, err
	}

	var p point.Point
	if err := h.parseResponse(resp, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdatePoint частично обновляет точку на сервере
func (h *httpClient) UpdatePoint(ctx context.Context, id string, req point.UpdateRequest) (*point.Point, error) {
	resp, err := h.doRequest(ctx, "PATCH", "/points/"+id, req)
	if err != nil {
		return nil, err
	}

	var p point.Point
	if err := h.parseResponse(resp, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (h *httpClient) DeletePoint(ctx context.Context, id string) error {
	resp, err := h.doRequest(ctx, "DELETE", "/points/"+id, nil)
	if err != nil {
		return err
	}
	if resp.StatusCode == http.StatusNotFound {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return point.ErrAlreadyDeleted
	}
	return h.parseResponse(resp, nil)
}

// GetPoints возвращает страницу точек; projectID пустой — все точки
func (h *httpClient) GetPoints(ctx context.Context, projectID string, page, size int) (*point.Page, error) {
	q := url.Values{}
	if projectID != "" {
		q.Set("project_id", projectID)
	}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if size > 0 {
		q.Set("size", strconv.Itoa(size))
	}

	path := "/points"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	resp, err := h.doRequest(ctx, "GET", path, nil)
	if err != nil {
		return nil, err
	}

	var pg point.Page
	if err := h.parseResponse(resp, &pg); err != nil {
		return nil, err
	}
	return &pg, nil
}

// CheckDuplicate ищет точки в радиусе radius метров от координаты
func (h *httpClient) CheckDuplicate(ctx context.Context, lat, lng, radius float64) (*point.DuplicateCheck, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lng", strconv.FormatFloat(lng, 'f', -1, 64))
	q.Set("radius", strconv.FormatFloat(radius, 'f', -1, 64))

	resp, err := h.doRequest(ctx, "GET", "/points/check-duplicate?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var check point.DuplicateCheck
	if err := h.parseResponse(resp, &check); err != nil {
		return nil, err
	}
	return &check, nil
}

// --- Синхронизация ---

// Sync выполняет один круговой обмен с сервером
func (h *httpClient) Sync(ctx context.Context, req syncdomain.Request) (*syncdomain.Response, error) {
	resp, err := h.doRequest(ctx, "POST", "/sync", req)
	if err != nil {
		return nil, err
	}

	var syncResp syncdomain.Response
	if err := h.parseResponse(resp, &syncResp); err != nil {
		return nil, err
	}
	return &syncResp, nil
}

// GetOfflinePackage скачивает полный пакет справочников
func (h *httpClient) GetOfflinePackage(ctx context.Context) (*syncdomain.OfflinePackage, error) {
	resp, err := h.doRequest(ctx, "GET", "/sync/offline-package", nil)
	if err != nil {
		return nil, err
	}

	var pkg syncdomain.OfflinePackage
	if err := h.parseResponse(resp, &pkg); err != nil {
		return nil, err
	}
	return &pkg, nil
}

// GetSyncStatus запрашивает серверную сводку синхронизации
func (h *httpClient) GetSyncStatus(ctx context.Context, lastSyncAt *time.Time) (*syncdomain.Status, error) {
	path := "/sync/status"
	if lastSyncAt != nil {
		q := url.Values{}
		q.Set("last_sync_at", lastSyncAt.UTC().Format(time.RFC3339))
		path += "?" + q.Encode()
	}

	resp, err := h.doRequest(ctx, "GET", path, nil)
	if err != nil {
		return nil, err
	}

	var status syncdomain.Status
	if err := h.parseResponse(resp, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// --- Фотографии ---

// UploadPhoto загружает фотографию multipart-запросом
func (h *httpClient) UploadPhoto(ctx context.Context, ph point.PendingPhoto) (*point.PhotoMeta, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", ph.ID+".jpg")
	if err != nil {
		return nil, fmt.Errorf("ошибка формирования запроса: %w", err)
	}
	if _, err := part.Write(ph.Data); err != nil {
		return nil, fmt.Errorf("ошибка формирования запроса: %w", err)
	}

	if err := w.WriteField("point_id", ph.PointID); err != nil {
		return nil, fmt.Errorf("ошибка формирования запроса: %w", err)
	}
	writeOptionalField := func(name string, v *float64) error {
		if v == nil {
			return nil
		}
		return w.WriteField(name, strconv.FormatFloat(*v, 'f', -1, 64))
	}
	if err := writeOptionalField("latitude", ph.GPSLat); err != nil {
		return nil, fmt.Errorf("ошибка формирования запроса: %w", err)
	}
	if err := writeOptionalField("longitude", ph.GPSLng); err != nil {
		return nil, fmt.Errorf("ошибка формирования запроса: %w", err)
	}
	if err := writeOptionalField("accuracy", ph.GPSAccuracy); err != nil {
		return nil, fmt.Errorf("ошибка формирования запроса: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("ошибка формирования запроса: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", h.baseURL+"/photos/upload", &buf)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("User-Agent", h.userAgent)
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения запроса: %w", err)
	}

	var meta point.PhotoMeta
	if err := h.parseResponse(resp, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// --- Справочники ---

func (h *httpClient) GetLexique(ctx context.Context) ([]lexique.Item, error) {
	resp, err := h.doRequest(ctx, "GET", "/lexique", nil)
	if err != nil {
		return nil, err
	}

	var items []lexique.Item
	if err := h.parseResponse(resp, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (h *httpClient) GetProjects(ctx context.Context) ([]lexique.Project, error) {
	resp, err := h.doRequest(ctx, "GET", "/projects", nil)
	if err != nil {
		return nil, err
	}

	var projects []lexique.Project
	if err := h.parseResponse(resp, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

func (h *httpClient) GetChampsForLexique(ctx context.Context, code string) ([]lexique.ChampDynamique, error) {
	resp, err := h.doRequest(ctx, "GET", "/champs/lexique/"+url.PathEscape(code), nil)
	if err != nil {
		return nil, err
	}

	var champs []lexique.ChampDynamique
	if err := h.parseResponse(resp, &champs); err != nil {
		return nil, err
	}
	return champs, nil
}

// --- Внутреннее ---

func (h *httpClient) doRequest(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("ошибка маршалинга тела запроса: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, h.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}

	// Добавляем заголовки
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", h.userAgent)
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}

	h.log.Debug("Отправка запроса",
		"method", method,
		"url", req.URL.String(),
	)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения запроса: %w", err)
	}

	return resp, nil
}

func (h *httpClient) parseResponse(resp *http.Response, result interface{}) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("ошибка чтения ответа: %w", err)
	}

	h.log.Debug("Получен ответ",
		"status", resp.StatusCode,
		"size", len(body),
	)

	if resp.StatusCode == http.StatusUnauthorized {
		if h.onUnauthorized != nil {
			h.onUnauthorized()
		}
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Detail string `json:"detail"`
			Error  string `json:"error"`
		}
		if err := json.Unmarshal(body, &errResp); err == nil {
			if errResp.Detail != "" {
				return fmt.Errorf("ошибка сервера: %s", errResp.Detail)
			}
			if errResp.Error != "" {
				return fmt.Errorf("ошибка сервера: %s", errResp.Error)
			}
		}
		return fmt.Errorf("ошибка сервера: статус %d", resp.StatusCode)
	}

	if result != nil {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("ошибка парсинга ответа: %w", err)
		}
	}

	return nil
}
