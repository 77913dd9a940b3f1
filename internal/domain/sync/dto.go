// Package sync описывает контракт обмена Mobile ↔ Сервер: один круговой
// обмен загружает все локальные мутации и в том же ответе возвращает
// серверные изменения с момента последней синхронизации.
package sync

import (
	"time"

	"geoclic/internal/domain/lexique"
	"geoclic/internal/domain/point"
)

// Request тело POST /sync
type Request struct {
	DeviceID       string                `json:"device_id" validate:"required"`
	LastSyncAt     *time.Time            `json:"last_sync_at,omitempty"`
	PointsToUpload []point.CreateRequest `json:"points_to_upload"`
}

// ItemError ошибка обработки одной записи из пакета загрузки.
// LocalID позволяет клиенту оставить в очереди именно проваленные
// записи, а подтвержденные — удалить.
type ItemError struct {
	LocalID string `json:"local_id"`
	Message string `json:"message"`
}

// Response ответ POST /sync
type Response struct {
	Success          bool          `json:"success"`
	SyncID           int64         `json:"sync_id"`
	ServerTime       time.Time     `json:"server_time"`
	PointsUploaded   int           `json:"points_uploaded"`
	PointsToDownload []point.Point `json:"points_to_download"`
	Errors           []ItemError   `json:"errors"`
}

// OfflinePackage полный пакет справочных данных для офлайн-режима.
// Запрашивается при первом подключении или после долгого отсутствия.
type OfflinePackage struct {
	ServerTime       time.Time                `json:"server_time"`
	LexiqueVersion   string                   `json:"lexique_version"`
	LexiqueEntries   []lexique.Item           `json:"lexique_entries"`
	ChampsDynamiques []lexique.ChampDynamique `json:"champs_dynamiques"`
	Projects         []lexique.Project        `json:"projects"`
}

// Status сводка состояния синхронизации
type Status struct {
	LastSyncAt       *time.Time `json:"last_sync_at,omitempty"`
	PendingUploads   int        `json:"pending_uploads"`
	PendingDownloads int        `json:"pending_downloads"`
	ServerVersion    string     `json:"server_version"`
	LexiqueVersion   string     `json:"lexique_version,omitempty"`
	LexiqueCount     int        `json:"lexique_count"`
	ProjectsCount    int        `json:"projects_count"`
}

// Result итог одного прогона синхронизации на клиенте
type Result struct {
	Success    bool          `json:"success"`
	Uploaded   int           `json:"uploaded"`
	Downloaded int           `json:"downloaded"`
	Failed     int           `json:"failed"`
	Errors     []ItemError   `json:"errors,omitempty"`
	Duration   time.Duration `json:"duration"`
	StartTime  time.Time     `json:"start_time"`
	EndTime    time.Time     `json:"end_time"`
}
