package main

import (
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/wfunc/blockoni/board"
	"github.com/wfunc/blockoni/config"
	"github.com/wfunc/blockoni/game"
	"github.com/wfunc/blockoni/logger"
	"github.com/wfunc/blockoni/monitor"
	"github.com/wfunc/blockoni/persistence"
	"github.com/wfunc/blockoni/rpc"
	"github.com/wfunc/blockoni/server"
	"github.com/wfunc/blockoni/services"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	// Initialize logger
	logger.Init(cfg.Log.Development)
	defer logger.Sync()
	if err := logger.SetLevel(cfg.Log.Level); err != nil {
		logger.Log.Warnf("%v, keeping info", err)
	}

	settings, err := game.SettingsFromConfig(cfg.Game)
	if err != nil {
		logger.Log.Fatalf("Invalid game settings: %v", err)
	}
	// fail fast on a board the engine could not build
	if _, err := board.Build(settings.Board); err != nil {
		logger.Log.Fatalf("Invalid board: %v", err)
	}

	// Initialize Database
	db, err := persistence.Open(cfg.Database)
	if err != nil {
		logger.Log.Fatalf("Failed to open match archive: %v", err)
	}
	defer db.Close()
	logger.Log.Infof("Match archive ready (%s).", cfg.Database.Driver)
	matches := services.NewMatchService(db)

	mon := monitor.NewMonitor("blockoni")
	mon.StartServer(cfg.Server.MetricsAddress)
	defer mon.Stop()

	rpcServer, err := rpc.NewServer(cfg.Server.RPCAddress)
	if err != nil {
		logger.Log.Fatalf("Failed to create RPC server: %v", err)
	}
	if err := rpcServer.Register(rpc.NewMatchService(matches)); err != nil {
		logger.Log.Fatalf("Failed to register RPC service: %v", err)
	}
	go rpcServer.Start()
	defer rpcServer.Stop()

	health := rpc.NewHealthServer()
	lis, err := net.Listen("tcp", cfg.Server.GRPCAddress)
	if err != nil {
		logger.Log.Fatalf("Failed to listen on %s: %v", cfg.Server.GRPCAddress, err)
	}
	go func() {
		if err := health.Serve(lis); err != nil {
			logger.Log.Errorf("gRPC health server: %v", err)
		}
	}()
	defer health.Stop()

	// Initialize Game Server
	gameServer := server.NewGameServer(server.Options{
		Addr:      cfg.Server.HTTPAddress,
		MaxRooms:  cfg.Server.MaxRooms,
		Heartbeat: cfg.Server.Heartbeat,
		Settings:  settings,
		Seed:      cfg.Game.Seed,
		Matches:   matches,
		Monitor:   mon,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- gameServer.Start()
	}()
	health.SetServing(true)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case s := <-sig:
		logger.Log.Infof("Received %s, shutting down.", s)
	case err := <-errCh:
		if err != nil {
			logger.Log.Errorf("Game server stopped: %v", err)
		}
	}
	health.SetServing(false)
	gameServer.Shutdown()
}
