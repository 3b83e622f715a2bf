package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"whiteboardgo/internal/board"
	"whiteboardgo/internal/config"
	"whiteboardgo/internal/database/db_client"
	"whiteboardgo/internal/http/http_server"
	"whiteboardgo/internal/services/room"
	"whiteboardgo/internal/ws"

	"go.uber.org/zap"
)

var (
	Log, _ = zap.NewDevelopment()
)

func main() {
	defer Log.Sync()
	zap.ReplaceGlobals(Log)

	// 1. Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		Log.Fatal("Failed to load configuration", zap.Error(err))
	}
	Log.Debug("Configuration loaded successfully", zap.Any("config", cfg))

	// 2. Context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGINT, syscall.SIGTERM,
	)
	defer stop()

	// 3. Postgres db client
	pgDb, err := db_client.Open(cfg.PostgresHost, cfg.PostgresPort,
		cfg.PostgresUser, cfg.PostgresPassword, cfg.PostgresDb)
	if err != nil {
		Log.Fatal("pg-open", zap.Error(err))
	}
	defer pgDb.Close()

	// 4. Room/participant persistence service
	roomService := room.NewRoomService(pgDb)

	// 5. In-memory board state + WebSockets hub
	boardStore := board.NewStore()
	hub := ws.NewHub()

	// 6. Background: idle-room eviction sweep
	boardStore.RunSweeper(ctx, hub, cfg.RoomSweepInterval, cfg.RoomIdleTTL)

	// 7. Initialize the WS server
	wsSrv := ws.NewWsServer(hub, boardStore, roomService)

	// 8. HTTP + WS server
	httpServer := http_server.NewHttpServer(ctx, cfg.HttpServerPort, wsSrv, roomService, boardStore)
	if err := httpServer.Start(); err != nil {
		Log.Fatal("Failed to start HTTP server", zap.Error(err))
	}
}
