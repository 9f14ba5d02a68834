package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/creator-escrow/internal/config"
	"github.com/ignatzorin/creator-escrow/internal/db"
	"github.com/ignatzorin/creator-escrow/internal/gateway"
	httpHandlers "github.com/ignatzorin/creator-escrow/internal/http/handlers"
	httpRouter "github.com/ignatzorin/creator-escrow/internal/http/router"
	"github.com/ignatzorin/creator-escrow/internal/logger"
	"github.com/ignatzorin/creator-escrow/internal/repository"
	"github.com/ignatzorin/creator-escrow/internal/repository/common"
	"github.com/ignatzorin/creator-escrow/internal/service"
	"github.com/ignatzorin/creator-escrow/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	logger.Init(cfg.LogLevel)
	if cfg.Env == "development" {
		logger.SetTextFormatter()
	}

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		logger.Log.Fatalf("main: ошибка миграций: %v", err)
	}

	// Репозитории.
	tx := common.NewTransactor(dbConn)
	orderRepo := repository.NewOrderRepository(dbConn)
	sellerRepo := repository.NewSellerRepository(dbConn)
	paymentRepo := repository.NewPaymentRepository(dbConn)
	withdrawalRepo := repository.NewWithdrawalRepository(dbConn)
	resolutionRepo := repository.NewResolutionRepository(dbConn)
	chatRepo := repository.NewChatRepository(dbConn)
	historyRepo := repository.NewOrderHistoryRepository(dbConn)

	gw := gateway.NewClient(cfg.Gateway.BaseURL, cfg.Gateway.KeyID, cfg.Gateway.KeySecret, cfg.Gateway.Timeout)
	tokens := service.NewTokenVerifier(cfg.JWTSecret)

	// Вебсокеты.
	hub := ws.NewHub(ctx)
	go hub.Run()

	// Сервисы.
	orderService := service.NewOrderService(orderRepo, sellerRepo, historyRepo, hub)
	escrowService := service.NewEscrowService(tx, orderRepo, orderService, paymentRepo, gw, service.EscrowPolicy{
		Currency:       cfg.Escrow.Currency,
		FeePercent:     cfg.Escrow.PlatformFeePercent,
		MilestoneCount: cfg.Escrow.MilestoneCount,
		KeyID:          cfg.Gateway.KeyID,
	}, hub)
	withdrawalService := service.NewWithdrawalService(tx, withdrawalRepo, paymentRepo, sellerRepo, service.WithdrawalPolicy{
		Minimum:    cfg.Escrow.MinWithdrawalAmount,
		LockWindow: cfg.Escrow.WithdrawalLockWindow,
	}, hub)
	resolutionService := service.NewResolutionService(tx, resolutionRepo, orderRepo, orderService, sellerRepo, hub)
	chatService := service.NewChatService(chatRepo, orderRepo, hub)

	// Роутер.
	engine := httpRouter.SetupRouter(cfg, httpRouter.Handlers{
		Order:      httpHandlers.NewOrderHandler(orderService),
		Payment:    httpHandlers.NewPaymentHandler(escrowService),
		Seller:     httpHandlers.NewSellerHandler(withdrawalService),
		Resolution: httpHandlers.NewResolutionHandler(resolutionService),
		Chat:       httpHandlers.NewChatHandler(chatService),
		Admin:      httpHandlers.NewAdminHandler(escrowService, orderService, withdrawalService, resolutionService),
		WS:         httpHandlers.NewWSHandler(hub, chatService, tokens, cfg.AllowedOrigins),
		Health:     httpHandlers.NewHealthHandler(dbConn),
	}, tokens)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Log.WithError(err).Error("main: ошибка остановки http сервера")
		}
	}()

	logger.Log.WithField("port", cfg.HTTPPort).Info("main: HTTP сервер запущен")

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		logger.Log.WithError(err).Error("main: ошибка закрытия базы")
	}
}
