package emulator

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"geoclic/internal/domain/point"
)

// handleLogin принимает form-encoded вход, как боевой сервер
func (e *Emulator) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "некорректная форма"})
		return
	}

	username := r.PostFormValue("username")
	password := r.PostFormValue("password")
	if username == "" || password == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "неверные учетные данные"})
		return
	}

	token := e.state.IssueToken(username)
	e.log.Info("Выдан токен", "login", username)

	writeJSON(w, http.StatusOK, map[string]string{
		"access_token": token,
		"token_type":   "bearer",
	})
}

func (e *Emulator) handleMe(w http.ResponseWriter, r *http.Request) {
	login, ok := e.state.UserForToken(bearerToken(r.Header.Get("Authorization")))
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "недействительный токен"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"username": login})
}

// handlePhotoUpload принимает multipart-загрузку фотографии
func (e *Emulator) handlePhotoUpload(w http.ResponseWriter, r *http.Request) {
	if !e.state.ValidToken(bearerToken(r.Header.Get("Authorization"))) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "недействительный токен"})
		return
	}
	if e.state.FailUploads {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "хранилище фотографий недоступно"})
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "некорректный multipart-запрос"})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "файл обязателен"})
		return
	}
	defer file.Close()

	pointID := r.FormValue("point_id")
	if pointID == "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": "point_id обязателен"})
		return
	}
	if _, ok := e.state.GetPoint(pointID); !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "точка не найдена: " + pointID})
		return
	}

	meta := point.PhotoMeta{
		ID:          uuid.NewString(),
		Filename:    header.Filename,
		GPSLat:      parseFloatField(r, "latitude"),
		GPSLng:      parseFloatField(r, "longitude"),
		GPSAccuracy: parseFloatField(r, "accuracy"),
	}
	meta.URL = "/media/photos/" + meta.ID
	e.state.AttachPhoto(pointID, meta)

	e.log.Info("Фотография загружена", "point_id", pointID, "filename", header.Filename)
	writeJSON(w, http.StatusOK, meta)
}

func parseFloatField(r *http.Request, name string) *float64 {
	raw := r.FormValue(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
