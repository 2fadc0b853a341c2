package handlers_test

import (
	"ByteGuard/internal/config"
	"ByteGuard/internal/handlers"
	"ByteGuard/internal/model"
	"ByteGuard/internal/repo"
	"ByteGuard/internal/service"
	"ByteGuard/internal/storage"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	_ "modernc.org/sqlite"
)

// Интеграционные тесты гоняют запросы через полный роутер с настоящими
// репозиториями поверх in-memory SQLite и блоб-хранилищем во временном каталоге.

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	dial := gormsqlite.Dialector{DriverName: "sqlite", DSN: dsn}
	db, err := gorm.Open(dial, &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite (modernc): %v", err)
	}
	if err := db.AutoMigrate(
		&model.User{},
		&model.FileMetadata{},
		&model.SharedAccess{},
		&model.Group{},
		&model.GroupMembership{},
		&model.GroupFileAccess{},
		&model.FileHistory{},
		&model.UserSettings{},
		&model.RevokedToken{},
	); err != nil {
		t.Fatalf("failed to automigrate: %v", err)
	}
	return db
}

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	cfg := &config.Config{AuthSecret: "test-secret", BlobMaxSizeMB: 1, TokenTTLHours: 1}
	logger := zap.NewNop().Sugar()

	db := newTestDB(t)
	store, err := storage.NewBlobStore(t.TempDir())
	require.NoError(t, err)

	users := repo.NewUserRepository(db)
	files := repo.NewFileRepository(db)
	revocations := repo.NewRevocationRepository(db)

	h := handlers.NewHandler(
		service.NewUserService(users),
		service.NewFileService(files, store),
		service.NewShareService(repo.NewShareRepository(db), files, users),
		service.NewGroupService(repo.NewGroupRepository(db), users, files),
		service.NewHistoryService(repo.NewHistoryRepository(db)),
		service.NewSettingsService(repo.NewSettingsRepository(db)),
		revocations,
		logger,
		cfg,
	)
	return h.Router
}

// doJSON шлёт запрос с JSON-телом; body == nil — без тела.
func doJSON(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(bytes.NewReader(rr.Body.Bytes())).Decode(v))
}

type userEnvelope struct {
	Token string `json:"token"`
	User  struct {
		ID           int64  `json:"id"`
		ResearcherID string `json:"researcherId"`
		Role         string `json:"role"`
		HasKyberKey  bool   `json:"hasKyberKey"`
	} `json:"user"`
}

// registerUser регистрирует пользователя через API и возвращает токен и id.
func registerUser(t *testing.T, router http.Handler, rid, password string) userEnvelope {
	t.Helper()
	rr := doJSON(t, router, http.MethodPost, "/api/auth/register", "", map[string]string{
		"researcherId": rid,
		"password":     password,
	})
	require.Equal(t, http.StatusCreated, rr.Code, "register %s: %s", rid, rr.Body.String())
	var env userEnvelope
	decodeBody(t, rr, &env)
	require.NotEmpty(t, env.Token)
	return env
}

func setKyberKey(t *testing.T, router http.Handler, token, key string) {
	t.Helper()
	rr := doJSON(t, router, http.MethodPut, "/api/auth/kyber-key", token, map[string]string{
		"kyberPublicKey": key,
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
}

// uploadFile грузит блоб multipart-запросом и возвращает id файла.
func uploadFile(t *testing.T, router http.Handler, token, fileName string, blob []byte) int64 {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", fileName+".enc")
	require.NoError(t, err)
	_, err = fw.Write(blob)
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("fileName", fileName))
	require.NoError(t, mw.WriteField("originalSize", "1000"))
	require.NoError(t, mw.WriteField("iv", "aXYtMTIz"))
	require.NoError(t, mw.WriteField("contentType", "application/pdf"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/files/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var dto struct {
		ID int64 `json:"id"`
	}
	decodeBody(t, rr, &dto)
	require.NotZero(t, dto.ID)
	return dto.ID
}
