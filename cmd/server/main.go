package main

import (
	"ByteGuard/internal/config"
	"ByteGuard/internal/handlers"
	"ByteGuard/internal/middleware"
	"ByteGuard/internal/repo"
	"ByteGuard/internal/service"
	"ByteGuard/internal/storage"
	"net/http"

	"go.uber.org/zap"
)

func main() {
	cfg := config.NewConfig()

	// создаём предустановленный регистратор zap
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}

	// делаем регистратор SugaredLogger
	sugar := logger.Sugar()
	middleware.SetLogger(sugar) // передаём логгер в middleware
	//сброс буфера логгера
	defer func() {
		if err := logger.Sync(); err != nil {
			sugar.Errorw("Failed to sync logger", "error", err)
		}
	}()

	gormDB, err := repo.InitDB(cfg.DatabaseDSN)
	if err != nil {
		sugar.Fatalw("failed to initialize database", "error", err)
	}

	blobStore, err := storage.NewBlobStore(cfg.StorageDir)
	if err != nil {
		sugar.Fatalw("failed to initialize blob storage", "error", err)
	}

	userRepo := repo.NewUserRepository(gormDB)
	fileRepo := repo.NewFileRepository(gormDB)
	shareRepo := repo.NewShareRepository(gormDB)
	groupRepo := repo.NewGroupRepository(gormDB)
	historyRepo := repo.NewHistoryRepository(gormDB)
	settingsRepo := repo.NewSettingsRepository(gormDB)
	revocations := repo.NewRevocationRepository(gormDB)

	userService := service.NewUserService(userRepo)
	fileService := service.NewFileService(fileRepo, blobStore)
	shareService := service.NewShareService(shareRepo, fileRepo, userRepo)
	groupService := service.NewGroupService(groupRepo, userRepo, fileRepo)
	historyService := service.NewHistoryService(historyRepo)
	settingsService := service.NewSettingsService(settingsRepo)

	h := handlers.NewHandler(
		userService,
		fileService,
		shareService,
		groupService,
		historyService,
		settingsService,
		revocations,
		sugar,
		cfg,
	)

	addr := cfg.BaseURL

	sugar.Infow(
		"Starting server",
		"addr", addr,
	)

	sugar.Infow("Config",
		"BaseURL", cfg.BaseURL,
		"EnableHTTPS", cfg.EnableHTTPS,
		"DatabaseDSN", cfg.DatabaseDSN,
		"StorageDir", cfg.StorageDir,
	)

	if err := http.ListenAndServe(addr, h.Router); err != nil {
		sugar.Fatalw("Server failed", "error", err)
	}
}
