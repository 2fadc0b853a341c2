package handlers

import (
	"ByteGuard/internal/model"
	"ByteGuard/internal/service"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// SettingsHandler — настройки пользователя.
type SettingsHandler struct {
	SettingsService *service.SettingsService
	Logger          *zap.SugaredLogger
}

func NewSettingsHandler(settingsService *service.SettingsService, logger *zap.SugaredLogger) *SettingsHandler {
	return &SettingsHandler{SettingsService: settingsService, Logger: logger}
}

// SettingsDTO — настройки наружу и частичный ввод внутрь.
type SettingsDTO struct {
	Algorithm      string `json:"algorithm"`
	KeySize        string `json:"keySize"`
	AutoDelete     bool   `json:"autoDelete"`
	Animations     bool   `json:"animations"`
	HighContrast   bool   `json:"highContrast"`
	SessionTimeout string `json:"sessionTimeout"`
	TwoFactor      bool   `json:"twoFactor"`
	AuditLogging   bool   `json:"auditLogging"`
}

func toSettingsDTO(s *model.UserSettings) SettingsDTO {
	return SettingsDTO{
		Algorithm:      s.Algorithm,
		KeySize:        s.KeySize,
		AutoDelete:     s.AutoDelete,
		Animations:     s.Animations,
		HighContrast:   s.HighContrast,
		SessionTimeout: s.SessionTimeout,
		TwoFactor:      s.TwoFactor,
		AuditLogging:   s.AuditLogging,
	}
}

// Get — настройки пользователя; дефолты, если строки ещё нет.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	s, err := h.SettingsService.Get(r.Context(), uid)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toSettingsDTO(s))
}

// Put — частичное обновление: не присланные поля сохраняют значения.
func (h *SettingsHandler) Put(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req struct {
		Algorithm      *string `json:"algorithm"`
		KeySize        *string `json:"keySize"`
		AutoDelete     *bool   `json:"autoDelete"`
		Animations     *bool   `json:"animations"`
		HighContrast   *bool   `json:"highContrast"`
		SessionTimeout *string `json:"sessionTimeout"`
		TwoFactor      *bool   `json:"twoFactor"`
		AuditLogging   *bool   `json:"auditLogging"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request"})
		return
	}

	s, err := h.SettingsService.Update(r.Context(), uid, service.SettingsPatch{
		Algorithm:      req.Algorithm,
		KeySize:        req.KeySize,
		AutoDelete:     req.AutoDelete,
		Animations:     req.Animations,
		HighContrast:   req.HighContrast,
		SessionTimeout: req.SessionTimeout,
		TwoFactor:      req.TwoFactor,
		AuditLogging:   req.AuditLogging,
	})
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toSettingsDTO(s))
}
