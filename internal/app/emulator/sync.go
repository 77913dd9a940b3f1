package emulator

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	syncdomain "geoclic/internal/domain/sync"
)

func (e *Emulator) setupSyncRoutes() {
	huma.Register(e.api, huma.Operation{
		OperationID: "sync-exchange",
		Method:      http.MethodPost,
		Path:        "/api/sync",
		Summary:     "Круговой обмен: загрузка очереди и выдача изменений",
		Tags:        []string{"sync"},
		Middlewares: huma.Middlewares{e.authMiddleware()},
	}, e.exchange)

	huma.Register(e.api, huma.Operation{
		OperationID: "sync-offline-package",
		Method:      http.MethodGet,
		Path:        "/api/sync/offline-package",
		Summary:     "Полный пакет справочников для офлайн-режима",
		Tags:        []string{"sync"},
		Middlewares: huma.Middlewares{e.authMiddleware()},
	}, e.offlinePackage)

	huma.Register(e.api, huma.Operation{
		OperationID: "sync-status",
		Method:      http.MethodGet,
		Path:        "/api/sync/status",
		Summary:     "Сводка состояния синхронизации",
		Tags:        []string{"sync"},
		Middlewares: huma.Middlewares{e.authMiddleware()},
	}, e.syncStatus)
}

type exchangeInput struct {
	Body syncdomain.Request
}

type exchangeOutput struct {
	Body syncdomain.Response
}

func (e *Emulator) exchange(_ context.Context, input *exchangeInput) (*exchangeOutput, error) {
	if e.state.FailSync {
		return nil, huma.Error500InternalServerError("синхронизация временно недоступна")
	}

	req := input.Body
	resp := syncdomain.Response{
		Success:    true,
		SyncID:     e.state.NextSyncID(),
		ServerTime: time.Now().UTC(),
		Errors:     []syncdomain.ItemError{},
	}

	for _, create := range req.PointsToUpload {
		if create.Name == "" || len(create.Coordinates) == 0 {
			resp.Errors = append(resp.Errors, syncdomain.ItemError{
				LocalID: create.LocalID,
				Message: "неполные данные точки",
			})
			continue
		}
		if e.state.RejectName != "" && create.Name == e.state.RejectName {
			resp.Errors = append(resp.Errors, syncdomain.ItemError{
				LocalID: create.LocalID,
				Message: "точка отклонена сервером: " + create.Name,
			})
			continue
		}
		e.state.PutPoint(pointFromCreate(create))
		resp.PointsUploaded++
	}

	resp.PointsToDownload = e.state.ChangedSince(req.LastSyncAt)

	e.log.Info("Обмен выполнен",
		"device_id", req.DeviceID,
		"uploaded", resp.PointsUploaded,
		"downloaded", len(resp.PointsToDownload),
		"errors", len(resp.Errors),
	)
	return &exchangeOutput{Body: resp}, nil
}

type offlinePackageOutput struct {
	Body syncdomain.OfflinePackage
}

func (e *Emulator) offlinePackage(_ context.Context, _ *struct{}) (*offlinePackageOutput, error) {
	return &offlinePackageOutput{Body: syncdomain.OfflinePackage{
		ServerTime:       time.Now().UTC(),
		LexiqueVersion:   "emulator-1",
		LexiqueEntries:   e.state.Lexique(),
		ChampsDynamiques: e.state.Champs(),
		Projects:         e.state.Projects(),
	}}, nil
}

type syncStatusInput struct {
	LastSyncAt string `query:"last_sync_at"`
}

type syncStatusOutput struct {
	Body syncdomain.Status
}

func (e *Emulator) syncStatus(_ context.Context, input *syncStatusInput) (*syncStatusOutput, error) {
	status := syncdomain.Status{
		ServerVersion:  "emulator",
		LexiqueVersion: "emulator-1",
		LexiqueCount:   len(e.state.Lexique()),
		ProjectsCount:  len(e.state.Projects()),
	}
	if input.LastSyncAt != "" {
		if t, err := time.Parse(time.RFC3339, input.LastSyncAt); err == nil {
			status.LastSyncAt = &t
			status.PendingDownloads = len(e.state.ChangedSince(&t))
		}
	}
	return &syncStatusOutput{Body: status}, nil
}
