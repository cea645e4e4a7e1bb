package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
	"github.com/onepost/notifier/internal/auth"
	"github.com/onepost/notifier/internal/dispatcher"
	"github.com/onepost/notifier/internal/gateway"
	"github.com/onepost/notifier/internal/handler"
	"github.com/onepost/notifier/internal/persistence"
	"github.com/onepost/notifier/internal/presence"
	"github.com/onepost/notifier/internal/server"
	"go.uber.org/zap"
)

type App struct {
	logger          *zap.Logger
	settings        Settings
	engine          persistence.Engine
	gateway         *gateway.Gateway
	websocketServer *server.WebSocketServer
	restServer      *server.RESTServer
}

func NewApp(logger *zap.Logger, settings Settings, engine persistence.Engine) *App {
	originChecker := server.NewOriginChecker(settings.AllowedOriginList())
	websocketUpgrader := &websocket.Upgrader{
		ReadBufferSize:    1024,
		WriteBufferSize:   1024,
		CheckOrigin:       originChecker.Check,
		EnableCompression: true,
	}

	authenticator := auth.NewAuthenticator(settings.JWTSecret, settings.JWTAudience, settings.APIKeyList())

	registry := presence.NewInMemoryRegistry(logger.Named("presence"))
	connectionGateway := gateway.NewGateway(logger.Named("gateway"), registry, settings.SendBufferSize)
	notificationDispatcher := dispatcher.NewDispatcher(logger.Named("dispatcher"), registry, connectionGateway)

	heartbeatHandler := handler.NewHeartbeatHandler()
	joinHandler := handler.NewJoinHandler(connectionGateway)
	leaveHandler := handler.NewLeaveHandler(connectionGateway)
	notifyHandler := handler.NewNotifyHandler(logger, validator.New(), engine, notificationDispatcher)
	notificationsHandler := handler.NewNotificationsHandler(engine)
	presenceHandler := handler.NewPresenceHandler(registry)

	router := server.NewRouter(
		logger,
		heartbeatHandler,
		joinHandler,
		leaveHandler,
	)

	websocketServer := server.NewWebSocketServer(
		logger,
		websocketUpgrader,
		server.WebSocketSettings{
			PongWait:       settings.PongWait,
			WriteWait:      settings.WriteWait,
			MaxMessageSize: int64(settings.MaxMessageSize),
		},
		connectionGateway,
		router,
	)
	restServer := server.NewRESTServer(
		logger,
		authenticator,
		originChecker,
		notifyHandler,
		notificationsHandler,
		presenceHandler,
	)

	return &App{
		logger,
		settings,
		engine,
		connectionGateway,
		websocketServer,
		restServer,
	}
}

func (a *App) setup(ctx context.Context) error {
	setupCtx, setupCtxCancel := context.WithTimeout(ctx, 30*time.Second)
	defer setupCtxCancel()

	err := a.engine.Setup(setupCtx)
	if err != nil {
		return fmt.Errorf("setup persistence engine: %w", err)
	}

	a.startHttpServer(ctx)

	return nil
}

func (a *App) startHttpServer(ctx context.Context) {
	notifyCtx, notifyCtxCancel := signal.NotifyContext(ctx, syscall.SIGTERM, syscall.SIGINT)
	defer notifyCtxCancel()

	address := fmt.Sprintf("0.0.0.0:%d", a.settings.Port)

	router := mux.NewRouter().
		PathPrefix(a.settings.BasePath).
		Subrouter()

	a.websocketServer.Register(router)
	a.restServer.Register(router)

	httpServer := &http.Server{
		Addr:    address,
		Handler: router,
	}

	a.logger.Info("starting http server",
		zap.String("address", address),
		zap.String("basePath", a.settings.BasePath))

	go func() {
		err := httpServer.ListenAndServe()

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("failed to start http server",
				zap.Error(err))
		}
	}()

	<-notifyCtx.Done()

	a.logger.Info("stopping http server",
		zap.Int("connections", a.gateway.Count()))

	a.gateway.Shutdown()

	shutdownCtx, shutdownCtxCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCtxCancel()

	err := httpServer.Shutdown(shutdownCtx)
	if err != nil {
		a.logger.Fatal("http server shutdown failed",
			zap.Error(err))
	}

	a.logger.Info("http server stopped")
}

func main() {
	ctx := context.Background()

	bootstrapLogger, _ := zap.NewDevelopment()

	err := godotenv.Load()
	if err != nil {
		bootstrapLogger.Debug("no .env file loaded", zap.Error(err))
	}

	var settings Settings
	_, err = env.UnmarshalFromEnviron(&settings)
	if err != nil {
		bootstrapLogger.Fatal("failed to parse settings from environment", zap.Error(err))
	}

	err = settings.Validate()
	if err != nil {
		bootstrapLogger.Fatal("invalid settings", zap.Error(err))
	}

	logger, err := buildZapLogger(settings.LogEncoding, settings.LogLevel)
	if err != nil {
		bootstrapLogger.Fatal("failed to build logger", zap.Error(err))
	}
	defer logger.Sync()

	engine, closeEngine, err := openPersistenceEngine(logger, settings)
	if err != nil {
		logger.Fatal("failed to open persistence engine", zap.Error(err))
	}
	defer func() {
		closeCtx, closeCtxCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer closeCtxCancel()

		if err := closeEngine(closeCtx); err != nil {
			logger.Error("failed to close persistence engine", zap.Error(err))
		}
	}()

	app := NewApp(logger, settings, engine)

	err = app.setup(ctx)
	if err != nil {
		logger.Fatal("failed to setup", zap.Error(err))
	}
}
