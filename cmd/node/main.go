package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/seqdex/seqdex/params"
	"github.com/seqdex/seqdex/pkg/api"
	"github.com/seqdex/seqdex/pkg/book"
	"github.com/seqdex/seqdex/pkg/storage"
	"github.com/seqdex/seqdex/pkg/util"
)

func main() {
	cfg := params.LoadFromEnv("")

	logger, err := util.NewLogger()
	if cfg.Node.LogFile != "" {
		logger, err = util.NewLoggerWithFile(cfg.Node.LogFile)
	}
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()
	sugar.Infow("node_starting", "listen", cfg.Node.ListenAddr, "data_dir", cfg.Node.DataDir)

	store, err := storage.NewPebbleStore(cfg.Node.DataDir)
	if err != nil {
		sugar.Fatalw("storage_open_failed", "err", err)
	}
	defer store.Close()

	engine := book.NewEngine(cfg.Protocol, store, sugar)

	snap, err := store.LoadSnapshot()
	if err != nil {
		sugar.Fatalw("snapshot_load_failed", "err", err)
	}
	engine.Restore(snap)
	st := engine.State()
	sugar.Infow("ledger_restored",
		"orders", len(snap.Orders), "quotes", len(snap.Quotes),
		"height", st.Height, "next_order_id", st.NextOrderID)

	server := api.NewServer(engine, sugar)
	go func() {
		if err := server.Start(cfg.Node.ListenAddr); err != nil {
			sugar.Fatalw("api_server_failed", "err", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	sugar.Infow("node_shutting_down")
}
