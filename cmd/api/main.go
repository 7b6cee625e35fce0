package main

import (
	"log"

	"paper-backend/internal/shared/config"
	"paper-backend/internal/shared/server"
)

func main() {
	cfg := config.Load()

	r, err := server.NewRouter(cfg)
	if err != nil {
		log.Fatalf("startup error: %v", err)
	}

	addr := server.Addr(cfg.Port)
	log.Printf("Starting API server on %s", addr)

	if err := r.Run(addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
