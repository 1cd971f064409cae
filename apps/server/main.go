package main

import (
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"coup-lite/apps/server/internal/auth"
	"coup-lite/apps/server/internal/gateway"
	"coup-lite/apps/server/internal/lobby"
	"coup-lite/apps/server/internal/stats"
	"coup-lite/apps/server/internal/store"
	"coup-lite/coup/npc"
)

func main() {
	// Optional .env for local development; real deployments set the
	// environment directly.
	if err := godotenv.Load(); err == nil {
		log.Printf("[Server] Loaded .env")
	}

	authService, authMode, err := auth.NewServiceFromEnv()
	if err != nil {
		log.Fatalf("[Server] Failed to init auth manager: %v", err)
	}
	defer authService.Close()

	matchStore, storeMode, err := store.NewFromEnv()
	if err != nil {
		log.Fatalf("[Server] Failed to init match store: %v", err)
	}
	defer matchStore.Close()

	statsService, statsMode, err := stats.NewServiceFromEnv()
	if err != nil {
		log.Fatalf("[Server] Failed to init stats service: %v", err)
	}
	defer statsService.Close()

	npcManager := npc.NewManager()

	lby := lobby.New(matchStore, statsService, npcManager)
	defer lby.Stop()
	gw := gateway.New(lby, authService)

	if err := lby.RestoreFromStore(); err != nil {
		log.Printf("[Server] Match restore failed: %v", err)
	}
	lby.StartReaper()

	authHTTP := auth.NewHTTPHandler(authService)
	statsHTTP := stats.NewHTTPHandler(statsService)
	lobbyHTTP := lobby.NewHTTPHandler(lby)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", gw.HandleWebSocket)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	authHTTP.RegisterRoutes(mux)
	statsHTTP.RegisterRoutes(mux)
	lobbyHTTP.RegisterRoutes(mux)

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	log.Printf("[Server] Auth mode: %s", authMode)
	log.Printf("[Server] Store mode: %s", storeMode)
	log.Printf("[Server] Stats mode: %s", statsMode)
	log.Printf("[Server] Starting WebSocket server on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("[Server] Failed to start: %v", err)
	}
}
