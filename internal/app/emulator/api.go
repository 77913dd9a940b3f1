package emulator

import (
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"golang.org/x/exp/slog"
)

// Emulator связывает состояние с HTTP-обработчиками
type Emulator struct {
	state *State
	log   *slog.Logger
	api   huma.API
}

// New создает *chi.Mux со всеми операциями эмулятора.
// JSON-операции регистрируются через huma; вход по форме и загрузка
// фотографий multipart-запросом обрабатываются напрямую через chi.
func New(state *State, log *slog.Logger) *chi.Mux {
	mux := chi.NewMux()

	config := huma.DefaultConfig("Geoclic API Emulator", "1.0.0")
	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {Type: "http", Scheme: "bearer"},
	}

	e := &Emulator{state: state, log: log}
	e.api = humachi.New(mux, config)

	e.setupPointRoutes()
	e.setupSyncRoutes()
	e.setupRefDataRoutes()

	mux.Post("/api/auth/login", e.handleLogin)
	mux.Get("/api/auth/me", e.handleMe)
	mux.Post("/api/photos/upload", e.handlePhotoUpload)

	return mux
}

// authMiddleware отклоняет запросы без действующего токена
func (e *Emulator) authMiddleware() func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		token := bearerToken(ctx.Header("Authorization"))
		if !e.state.ValidToken(token) {
			huma.WriteErr(e.api, ctx, http.StatusUnauthorized, "недействительный токен")
			return
		}
		next(ctx)
	}
}

func bearerToken(header string) string {
	return strings.TrimPrefix(header, "Bearer ")
}
