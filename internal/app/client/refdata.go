package client

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/exp/slog"

	"geoclic/internal/domain/lexique"
)

// Ключ метаданных с версией справочников
const metaKeyLexiqueVersion = "lexiqueVersion"

// RefData обновляет локальные справочники (лексикон, проекты, поля)
// офлайн-пакетом с сервера. Обновление всегда добавляющее: отсутствующие
// на сервере записи локально не удаляются, полная замена — по запросу.
type RefData struct {
	storage *Storage
	api     *httpClient
	monitor *Monitor
	log     *slog.Logger
}

func NewRefData(storage *Storage, api *httpClient, monitor *Monitor, log *slog.Logger) *RefData {
	return &RefData{
		storage: storage,
		api:     api,
		monitor: monitor,
		log:     log,
	}
}

// Refresh скачивает офлайн-пакет и обновляет справочники.
// replace очищает локальные справочники перед загрузкой.
func (r *RefData) Refresh(ctx context.Context, replace bool) error {
	if !r.monitor.IsOnline() {
		return ErrOffline
	}

	pkg, err := r.api.GetOfflinePackage(ctx)
	if err != nil {
		if isNetworkError(err) {
			r.monitor.SetOnline(false)
			return ErrOffline
		}
		return fmt.Errorf("ошибка загрузки офлайн-пакета: %w", err)
	}

	if replace {
		if err := r.storage.ClearReferenceData(); err != nil {
			return err
		}
	}

	if err := r.storage.SaveLexique(pkg.LexiqueEntries); err != nil {
		return err
	}
	if err := r.storage.SaveProjects(pkg.Projects); err != nil {
		return err
	}
	if err := r.storage.SaveChamps(pkg.ChampsDynamiques); err != nil {
		return err
	}
	if pkg.LexiqueVersion != "" {
		if err := r.storage.SetMetadata(metaKeyLexiqueVersion, pkg.LexiqueVersion); err != nil {
			return err
		}
	}
	if err := r.storage.SetMetadata("refDataUpdatedAt", time.Now().UTC().Format(time.RFC3339)); err != nil {
		return err
	}

	r.log.Info("Справочники обновлены",
		"lexique", len(pkg.LexiqueEntries),
		"projects", len(pkg.Projects),
		"champs", len(pkg.ChampsDynamiques),
		"version", pkg.LexiqueVersion,
	)
	return nil
}

// Projects возвращает проекты из локального кэша
func (r *RefData) Projects() ([]lexique.Project, error) {
	return r.storage.GetProjects()
}

// LexiqueVersion возвращает версию локального лексикона
func (r *RefData) LexiqueVersion() (string, error) {
	return r.storage.GetMetadata(metaKeyLexiqueVersion)
}
