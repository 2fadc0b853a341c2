package handlers

import (
	"ByteGuard/internal/model"
	"ByteGuard/internal/service"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// GroupHandler — группы, членство и групповые шары.
type GroupHandler struct {
	GroupService *service.GroupService
	Logger       *zap.SugaredLogger
}

func NewGroupHandler(groupService *service.GroupService, logger *zap.SugaredLogger) *GroupHandler {
	return &GroupHandler{GroupService: groupService, Logger: logger}
}

// GroupDTO — группа глазами запрашивающего.
type GroupDTO struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	OwnerID     int64  `json:"ownerId"`
	OwnerName   string `json:"ownerName,omitempty"`
	MemberCount int64  `json:"memberCount"`
	IsOwner     bool   `json:"isOwner"`
	MyRole      string `json:"myRole"`
	CreatedAt   string `json:"createdAt"`
}

func toGroupDTO(v *service.GroupView) GroupDTO {
	d := GroupDTO{
		ID:          v.Group.ID,
		Name:        v.Group.Name,
		Description: v.Group.Description,
		OwnerID:     v.Group.OwnerID,
		MemberCount: v.MemberCount,
		IsOwner:     v.IsOwner,
		MyRole:      v.MyRole,
		CreatedAt:   fmtTime(v.Group.CreatedAt),
	}
	if v.Group.Owner != nil {
		d.OwnerName = v.Group.Owner.ResearcherID
	}
	return d
}

// MemberDTO — участник группы.
type MemberDTO struct {
	ID           int64  `json:"id"`
	GroupID      int64  `json:"groupId"`
	UserID       int64  `json:"userId"`
	ResearcherID string `json:"researcherId,omitempty"`
	HasKyberKey  bool   `json:"hasKyberKey"`
	Role         string `json:"role"`
	JoinedAt     string `json:"joinedAt"`
}

func toMemberDTO(m *model.GroupMembership) MemberDTO {
	d := MemberDTO{
		ID:       m.ID,
		GroupID:  m.GroupID,
		UserID:   m.UserID,
		Role:     m.Role,
		JoinedAt: fmtTime(m.JoinedAt),
	}
	if m.User != nil {
		d.ResearcherID = m.User.ResearcherID
		d.HasKyberKey = m.User.HasKey()
	}
	return d
}

// GroupShareDTO — групповой шар с проекцией шифртекста запрашивающего.
// myKemCiphertext == null означает, что для него шифртекст не публиковался.
type GroupShareDTO struct {
	ID              int64   `json:"id"`
	FileID          int64   `json:"fileId"`
	FileName        string  `json:"fileName,omitempty"`
	GroupID         int64   `json:"groupId"`
	GroupName       string  `json:"groupName,omitempty"`
	SharedBy        string  `json:"sharedBy,omitempty"`
	MyKEMCiphertext *string `json:"myKemCiphertext"`
	IV              string  `json:"iv,omitempty"`
	ContentType     string  `json:"contentType,omitempty"`
	OriginalSize    int64   `json:"originalSize,omitempty"`
	CreatedAt       string  `json:"createdAt"`
}

func toGroupShareDTO(v *service.GroupGrantView) GroupShareDTO {
	g := v.Grant
	d := GroupShareDTO{
		ID:              g.ID,
		FileID:          g.FileID,
		GroupID:         g.GroupID,
		MyKEMCiphertext: v.MyKEMCiphertext,
		IV:              v.IV,
		ContentType:     v.ContentType,
		OriginalSize:    v.OriginalSize,
		CreatedAt:       fmtTime(g.CreatedAt),
	}
	if g.File != nil {
		d.FileName = g.File.FileName
	}
	if g.Group != nil {
		d.GroupName = g.Group.Name
	}
	if g.Sharer != nil {
		d.SharedBy = g.Sharer.ResearcherID
	}
	return d
}

// List — группы пользователя с вычисленными isOwner и myRole.
func (h *GroupHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	views, err := h.GroupService.ListMine(r.Context(), uid)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	out := make([]GroupDTO, 0, len(views))
	for i := range views {
		out = append(out, toGroupDTO(&views[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

// Create создаёт группу; создатель — владелец и админ.
func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request"})
		return
	}

	v, err := h.GroupService.Create(r.Context(), uid, req.Name, req.Description)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toGroupDTO(v))
}

// Get — карточка группы: участники и групповые шары.
func (h *GroupHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	groupID, err := strconv.ParseInt(chi.URLParam(r, "groupID"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid group id"})
		return
	}

	d, err := h.GroupService.Get(r.Context(), groupID, uid)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}

	members := make([]MemberDTO, 0, len(d.Members))
	for i := range d.Members {
		members = append(members, toMemberDTO(&d.Members[i]))
	}
	sharedFiles := make([]GroupShareDTO, 0, len(d.SharedFiles))
	for i := range d.SharedFiles {
		sharedFiles = append(sharedFiles, toGroupShareDTO(&d.SharedFiles[i]))
	}

	resp := struct {
		GroupDTO
		Members     []MemberDTO     `json:"members"`
		SharedFiles []GroupShareDTO `json:"sharedFiles"`
	}{
		GroupDTO:    toGroupDTO(&d.GroupView),
		Members:     members,
		SharedFiles: sharedFiles,
	}
	writeJSON(w, http.StatusOK, resp)
}

// Delete удаляет группу; только буквальный владелец.
func (h *GroupHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	groupID, err := strconv.ParseInt(chi.URLParam(r, "groupID"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid group id"})
		return
	}
	if err := h.GroupService.Delete(r.Context(), uid, groupID); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Group deleted"})
}

// AddMember добавляет исследователя в группу.
func (h *GroupHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	groupID, err := strconv.ParseInt(chi.URLParam(r, "groupID"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid group id"})
		return
	}

	var req struct {
		ResearcherID string `json:"researcherId"`
		Role         string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request"})
		return
	}

	m, err := h.GroupService.AddMember(r.Context(), uid, groupID, req.ResearcherID, req.Role)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toMemberDTO(m))
}

// RemoveMember исключает участника из группы.
func (h *GroupHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	groupID, err := strconv.ParseInt(chi.URLParam(r, "groupID"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid group id"})
		return
	}
	targetID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid user id"})
		return
	}

	if err := h.GroupService.RemoveMember(r.Context(), uid, groupID, targetID); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Member removed"})
}

// ShareFile публикует файл в группу с картой «участник → KEM-шифртекст».
// Клиент инкапсулирует AES-ключ под публичный ключ каждого участника.
func (h *GroupHandler) ShareFile(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	groupID, err := strconv.ParseInt(chi.URLParam(r, "groupID"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid group id"})
		return
	}

	var req struct {
		FileID         int64             `json:"fileId"`
		KEMCiphertexts map[string]string `json:"kemCiphertexts"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request"})
		return
	}

	cts := make(model.CiphertextMap, len(req.KEMCiphertexts))
	for k, v := range req.KEMCiphertexts {
		memberID, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "kemCiphertexts keys must be user ids"})
			return
		}
		cts[memberID] = v
	}

	view, err := h.GroupService.ShareFile(r.Context(), uid, groupID, req.FileID, cts)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toGroupShareDTO(view))
}

// SharedFiles — групповые шары, доступные пользователю, с его шифртекстом.
func (h *GroupHandler) SharedFiles(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	views, err := h.GroupService.SharedWithMe(r.Context(), uid)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	out := make([]GroupShareDTO, 0, len(views))
	for i := range views {
		out = append(out, toGroupShareDTO(&views[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

// Pubkeys — ключи участников для массовой инкапсуляции; участники без ключа
// в список не попадают.
func (h *GroupHandler) Pubkeys(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	groupID, err := strconv.ParseInt(chi.URLParam(r, "groupID"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid group id"})
		return
	}

	keys, err := h.GroupService.MemberPublicKeys(r.Context(), uid, groupID)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}

	type keyDTO struct {
		UserID         int64  `json:"userId"`
		ResearcherID   string `json:"researcherId"`
		KyberPublicKey string `json:"kyberPublicKey"`
	}
	out := make([]keyDTO, 0, len(keys))
	for _, k := range keys {
		out = append(out, keyDTO{UserID: k.UserID, ResearcherID: k.ResearcherID, KyberPublicKey: k.KyberPublicKey})
	}
	writeJSON(w, http.StatusOK, out)
}
