package handlers

import (
	"ByteGuard/internal/config"
	"ByteGuard/internal/middleware"
	"ByteGuard/internal/repo"
	"ByteGuard/internal/service"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Handler struct {
	Router chi.Router
}

// NewHandler разводящий для хендлеров
func NewHandler(
	userService *service.UserService,
	fileService *service.FileService,
	shareService *service.ShareService,
	groupService *service.GroupService,
	historyService *service.HistoryService,
	settingsService *service.SettingsService,
	revocations repo.RevocationRepository,
	logger *zap.SugaredLogger,
	cfg *config.Config,
) *Handler {
	r := chi.NewRouter()

	r.Use(middleware.WithGzip)
	r.Use(middleware.WithLogging)
	r.Use(middleware.WithAuth(cfg.AuthSecret, revocations))

	// Handlers
	userHandler := NewUserHandler(userService, revocations, logger, cfg)
	fileHandler := NewFileHandler(fileService, shareService, historyService, logger, cfg)
	groupHandler := NewGroupHandler(groupService, logger)
	settingsHandler := NewSettingsHandler(settingsService, logger)

	r.Get("/api/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "ByteGuard PQC Backend"})
	})

	// Auth routes
	r.Post("/api/auth/register", userHandler.Register)
	r.Post("/api/auth/login", userHandler.Login)
	r.Post("/api/auth/logout", userHandler.Logout)
	r.Get("/api/auth/session", userHandler.Session)
	r.Put("/api/auth/kyber-key", userHandler.UpdateKyberKey)
	r.Get("/api/auth/search", userHandler.Search)
	r.Get("/api/auth/pubkey/{researcherID}", userHandler.Pubkey)

	// File routes
	r.Post("/api/files/upload", fileHandler.Upload)
	r.Get("/api/files/download/{fileID}", fileHandler.Download)
	r.Get("/api/files/my-files", fileHandler.MyFiles)
	r.Delete("/api/files/{fileID}", fileHandler.Delete)
	r.Post("/api/files/share", fileHandler.Share)
	r.Get("/api/files/shared", fileHandler.ListSent)
	r.Get("/api/files/received", fileHandler.ListReceived)
	r.Get("/api/files/share/{shareCode}", fileHandler.GetShareByCode)
	r.Delete("/api/files/shared/{shareID}", fileHandler.RevokeShare)
	r.Get("/api/files/history", fileHandler.History)
	r.Post("/api/files/history", fileHandler.AppendHistory)
	r.Delete("/api/files/history", fileHandler.ClearHistory)
	r.Delete("/api/files/history/{entryID}", fileHandler.DeleteHistoryEntry)

	// Group routes
	r.Get("/api/groups", groupHandler.List)
	r.Post("/api/groups/create", groupHandler.Create)
	r.Get("/api/groups/shared-files", groupHandler.SharedFiles)
	r.Get("/api/groups/{groupID}", groupHandler.Get)
	r.Delete("/api/groups/{groupID}", groupHandler.Delete)
	r.Post("/api/groups/{groupID}/members", groupHandler.AddMember)
	r.Delete("/api/groups/{groupID}/members/{userID}", groupHandler.RemoveMember)
	r.Post("/api/groups/{groupID}/share-file", groupHandler.ShareFile)
	r.Get("/api/groups/{groupID}/pubkeys", groupHandler.Pubkeys)

	// Settings routes
	r.Get("/api/settings", settingsHandler.Get)
	r.Put("/api/settings", settingsHandler.Put)

	return &Handler{Router: r}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError маппит таксономию сервисных ошибок на HTTP-статусы.
// Внутренние ошибки наружу не раскрываются.
func writeError(w http.ResponseWriter, logger *zap.SugaredLogger, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		status = http.StatusConflict
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.Errorw("internal error", "error", err)
		msg = "internal error"
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

// requireUser достаёт user_id из контекста; без него отвечает 401.
func requireUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	uid, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return 0, false
	}
	return uid, true
}

func fmtTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
