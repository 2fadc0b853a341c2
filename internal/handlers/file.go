package handlers

import (
	"ByteGuard/internal/config"
	"ByteGuard/internal/model"
	"ByteGuard/internal/service"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// FileHandler — загрузка/выдача блобов, прямые шары и журнал операций.
type FileHandler struct {
	FileService    *service.FileService
	ShareService   *service.ShareService
	HistoryService *service.HistoryService
	Logger         *zap.SugaredLogger
	Config         *config.Config
}

func NewFileHandler(fileService *service.FileService, shareService *service.ShareService, historyService *service.HistoryService, logger *zap.SugaredLogger, cfg *config.Config) *FileHandler {
	return &FileHandler{
		FileService:    fileService,
		ShareService:   shareService,
		HistoryService: historyService,
		Logger:         logger,
		Config:         cfg,
	}
}

// FileDTO — каталожная запись наружу; локатор хранилища не отдаём.
type FileDTO struct {
	ID            int64  `json:"id"`
	OwnerID       int64  `json:"ownerId"`
	FileName      string `json:"fileName"`
	OriginalSize  int64  `json:"originalSize"`
	EncryptedSize int64  `json:"encryptedSize"`
	ContentType   string `json:"contentType"`
	SHA256Hash    string `json:"sha256Hash"`
	CreatedAt     string `json:"createdAt"`
}

func toFileDTO(m *model.FileMetadata) FileDTO {
	return FileDTO{
		ID:            m.ID,
		OwnerID:       m.OwnerID,
		FileName:      m.FileName,
		OriginalSize:  m.OriginalSize,
		EncryptedSize: m.EncryptedSize,
		ContentType:   m.ContentType,
		SHA256Hash:    m.SHA256Hash,
		CreatedAt:     fmtTime(m.CreatedAt),
	}
}

// ShareDTO — прямой шар наружу.
type ShareDTO struct {
	ID            int64  `json:"id"`
	FileID        int64  `json:"fileId"`
	FileName      string `json:"fileName,omitempty"`
	SenderID      int64  `json:"senderId"`
	SenderName    string `json:"senderName,omitempty"`
	RecipientID   int64  `json:"recipientId"`
	RecipientName string `json:"recipientName,omitempty"`
	ShareCode     string `json:"shareCode"`
	Permission    string `json:"permission"`
	KEMCiphertext string `json:"kemCiphertext"`
	CreatedAt     string `json:"createdAt"`

	// Поля файла; заполняются только в ответе get-by-code
	IV            string `json:"iv,omitempty"`
	OriginalSize  int64  `json:"originalSize,omitempty"`
	EncryptedSize int64  `json:"encryptedSize,omitempty"`
}

func toShareDTO(s *model.SharedAccess) ShareDTO {
	d := ShareDTO{
		ID:            s.ID,
		FileID:        s.FileID,
		SenderID:      s.SenderID,
		RecipientID:   s.RecipientID,
		ShareCode:     s.ShareCode,
		Permission:    s.Permission,
		KEMCiphertext: s.KEMCiphertext,
		CreatedAt:     fmtTime(s.CreatedAt),
	}
	if s.File != nil {
		d.FileName = s.File.FileName
	}
	if s.Sender != nil {
		d.SenderName = s.Sender.ResearcherID
	}
	if s.Recipient != nil {
		d.RecipientName = s.Recipient.ResearcherID
	}
	return d
}

// HistoryDTO — запись журнала наружу.
type HistoryDTO struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	OriginalSize  int64  `json:"originalSize"`
	EncryptedSize int64  `json:"encryptedSize"`
	Type          string `json:"type"`
	Operation     string `json:"operation"`
	Timestamp     string `json:"timestamp"`
}

func toHistoryDTO(e *model.FileHistory) HistoryDTO {
	return HistoryDTO{
		ID:            e.ID,
		Name:          e.Name,
		OriginalSize:  e.OriginalSize,
		EncryptedSize: e.EncryptedSize,
		Type:          e.FileType,
		Operation:     e.Operation,
		Timestamp:     fmtTime(e.Timestamp),
	}
}

// Upload принимает multipart/form-data: file + fileName + originalSize + iv +
// sha256Hash (опционально) + contentType. Байты пишутся на диск как есть.
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}

	maxBody := int64(h.Config.BlobMaxSizeMB)*1024*1024 + 1*1024*1024
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		h.Logger.Warnw("Upload: invalid multipart form", "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid multipart form"})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "no file provided"})
		return
	}
	defer file.Close()

	fileName := r.FormValue("fileName")
	if fileName == "" && header != nil {
		fileName = header.Filename
	}
	originalSize, _ := strconv.ParseInt(r.FormValue("originalSize"), 10, 64)

	meta, err := h.FileService.Upload(r.Context(), uid, file, service.UploadParams{
		FileName:     fileName,
		OriginalSize: originalSize,
		IV:           r.FormValue("iv"),
		ContentType:  r.FormValue("contentType"),
		SHA256Hash:   r.FormValue("sha256Hash"),
	})
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toFileDTO(meta))
}

// Download отдаёт зашифрованные байты; авторизация в сервисе.
func (h *FileHandler) Download(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	fileID, err := strconv.ParseInt(chi.URLParam(r, "fileID"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid file id"})
		return
	}

	meta, rc, err := h.FileService.Download(r.Context(), fileID, uid)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", `attachment; filename="`+service.DownloadName(meta)+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		h.Logger.Warnw("Download: stream interrupted", "file_id", fileID, "error", err)
	}
}

// MyFiles — загруженные файлы пользователя, новые первыми.
func (h *FileHandler) MyFiles(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	files, err := h.FileService.List(r.Context(), uid)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	out := make([]FileDTO, 0, len(files))
	for i := range files {
		out = append(out, toFileDTO(&files[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

// Delete удаляет файл владельца вместе с шарами и байтами на диске.
func (h *FileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	fileID, err := strconv.ParseInt(chi.URLParam(r, "fileID"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid file id"})
		return
	}
	if err := h.FileService.Delete(r.Context(), fileID, uid); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "File deleted"})
}

// Share создаёт прямой шар с KEM-шифртекстом получателя.
func (h *FileHandler) Share(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req struct {
		FileID        int64  `json:"fileId"`
		RecipientID   string `json:"recipientId"`
		KEMCiphertext string `json:"kemCiphertext"`
		Permission    string `json:"permission"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request"})
		return
	}

	share, err := h.ShareService.Create(r.Context(), uid, req.FileID, req.RecipientID, req.KEMCiphertext, req.Permission)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toShareDTO(share))
}

// ListSent — шары, отправленные пользователем.
func (h *FileHandler) ListSent(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	shares, err := h.ShareService.ListSent(r.Context(), uid)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toShareDTOs(shares))
}

// ListReceived — шары, полученные пользователем.
func (h *FileHandler) ListReceived(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	shares, err := h.ShareService.ListReceived(r.Context(), uid)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toShareDTOs(shares))
}

func toShareDTOs(shares []model.SharedAccess) []ShareDTO {
	out := make([]ShareDTO, 0, len(shares))
	for i := range shares {
		out = append(out, toShareDTO(&shares[i]))
	}
	return out
}

// GetShareByCode — шар по коду вместе с IV и размерами файла, чтобы получатель
// мог декапсулировать ключ и расшифровать блоб.
func (h *FileHandler) GetShareByCode(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}

	share, err := h.ShareService.GetByCode(r.Context(), chi.URLParam(r, "shareCode"), uid)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}

	d := toShareDTO(share)
	if share.File != nil {
		d.IV = share.File.IV
		d.OriginalSize = share.File.OriginalSize
		d.EncryptedSize = share.File.EncryptedSize
	}
	writeJSON(w, http.StatusOK, d)
}

// RevokeShare отзывает шар отправителя.
func (h *FileHandler) RevokeShare(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	shareID, err := strconv.ParseInt(chi.URLParam(r, "shareID"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid share id"})
		return
	}
	if err := h.ShareService.Revoke(r.Context(), shareID, uid); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Access revoked"})
}

// History — последние записи журнала пользователя.
func (h *FileHandler) History(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	entries, err := h.HistoryService.List(r.Context(), uid)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	out := make([]HistoryDTO, 0, len(entries))
	for i := range entries {
		out = append(out, toHistoryDTO(&entries[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

// AppendHistory — клиентская запись журнала (encrypt/decrypt происходят
// на стороне клиента и сервера не касаются).
func (h *FileHandler) AppendHistory(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req struct {
		Name          string `json:"name"`
		OriginalSize  int64  `json:"originalSize"`
		EncryptedSize int64  `json:"encryptedSize"`
		Type          string `json:"type"`
		Operation     string `json:"operation"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request"})
		return
	}

	entry, err := h.HistoryService.Append(r.Context(), uid, req.Name, req.OriginalSize, req.EncryptedSize, req.Type, req.Operation)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toHistoryDTO(entry))
}

// DeleteHistoryEntry удаляет одну запись журнала пользователя.
func (h *FileHandler) DeleteHistoryEntry(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	entryID, err := strconv.ParseInt(chi.URLParam(r, "entryID"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid entry id"})
		return
	}
	if err := h.HistoryService.DeleteOne(r.Context(), entryID, uid); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Deleted"})
}

// ClearHistory очищает журнал пользователя.
func (h *FileHandler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := h.HistoryService.Clear(r.Context(), uid); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "History cleared"})
}
