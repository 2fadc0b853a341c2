package handlers

import (
	"ByteGuard/internal/config"
	"ByteGuard/internal/middleware"
	"ByteGuard/internal/model"
	"ByteGuard/internal/repo"
	"ByteGuard/internal/service"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// UserHandler — регистрация, вход, выход и реестр публичных ключей.
type UserHandler struct {
	UserService *service.UserService
	Revocations repo.RevocationRepository
	Logger      *zap.SugaredLogger
	Config      *config.Config
}

func NewUserHandler(userService *service.UserService, revocations repo.RevocationRepository, logger *zap.SugaredLogger, cfg *config.Config) *UserHandler {
	return &UserHandler{UserService: userService, Revocations: revocations, Logger: logger, Config: cfg}
}

// UserDTO — представление пользователя наружу; хеш пароля и сам ключ не отдаём.
type UserDTO struct {
	ID           int64  `json:"id"`
	ResearcherID string `json:"researcherId"`
	Role         string `json:"role"`
	HasKyberKey  bool   `json:"hasKyberKey"`
	CreatedAt    string `json:"createdAt"`
}

func toUserDTO(u *model.User) UserDTO {
	return UserDTO{
		ID:           u.ID,
		ResearcherID: u.ResearcherID,
		Role:         u.Role,
		HasKyberKey:  u.HasKey(),
		CreatedAt:    fmtTime(u.CreatedAt),
	}
}

type credentialsRequest struct {
	ResearcherID   string  `json:"researcherId"`
	Password       string  `json:"password"`
	KyberPublicKey *string `json:"kyberPublicKey,omitempty"`
}

type authResponse struct {
	Token string  `json:"token"`
	User  UserDTO `json:"user"`
}

func (h *UserHandler) issueToken(u *model.User) (string, error) {
	ttl := time.Duration(h.Config.TokenTTLHours) * time.Hour
	return middleware.IssueToken(u.ID, u.ResearcherID, h.Config.AuthSecret, ttl)
}

// Register — регистрация нового исследователя; ключ Kyber опционален.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request"})
		return
	}

	u, err := h.UserService.Register(r.Context(), req.ResearcherID, req.Password, req.KyberPublicKey)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}

	token, err := h.issueToken(u)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, authResponse{Token: token, User: toUserDTO(u)})
}

// Login — вход по researcherId и паролю.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request"})
		return
	}

	u, err := h.UserService.Login(r.Context(), req.ResearcherID, req.Password)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}

	token, err := h.issueToken(u)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, authResponse{Token: token, User: toUserDTO(u)})
}

// Logout отзывает текущий токен: jti уходит в общий реестр до истечения
// самого токена, попутно вычищаются истёкшие строки.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}
	ti, ok := middleware.GetTokenInfoFromContext(r.Context())
	if !ok || ti.JTI == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	if err := h.Revocations.Revoke(r.Context(), ti.JTI, ti.ExpiresAt); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	if err := h.Revocations.PurgeExpired(r.Context(), time.Now()); err != nil {
		h.Logger.Warnw("revocation purge failed", "error", err)
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

// Session — проверка токена, возвращает текущего пользователя.
func (h *UserHandler) Session(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	u, err := h.UserService.GetByID(r.Context(), uid)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": toUserDTO(u)})
}

// UpdateKyberKey сохраняет или заменяет публичный ключ пользователя.
func (h *UserHandler) UpdateKyberKey(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req struct {
		KyberPublicKey string `json:"kyberPublicKey"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request"})
		return
	}

	u, err := h.UserService.SetPublicKey(r.Context(), uid, req.KyberPublicKey)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Kyber public key updated",
		"user":    toUserDTO(u),
	})
}

// Search — поиск исследователей по подстроке researcherId.
func (h *UserHandler) Search(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}

	users, err := h.UserService.Search(r.Context(), r.URL.Query().Get("q"), uid)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}

	type hit struct {
		ID           int64  `json:"id"`
		ResearcherID string `json:"researcherId"`
		HasKyberKey  bool   `json:"hasKyberKey"`
	}
	out := make([]hit, 0, len(users))
	for i := range users {
		out = append(out, hit{
			ID:           users[i].ID,
			ResearcherID: users[i].ResearcherID,
			HasKyberKey:  users[i].HasKey(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// Pubkey — публичный ключ получателя для инкапсуляции AES-ключа отправителем.
func (h *UserHandler) Pubkey(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}

	rid := chi.URLParam(r, "researcherID")
	u, err := h.UserService.LookupPublicKey(r.Context(), rid)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"researcherId":   u.ResearcherID,
		"kyberPublicKey": *u.KyberPublicKey,
	})
}
