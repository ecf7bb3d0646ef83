package main

import (
	"context"
	"log"
	"os"

	"github.com/Macca12138/dealdesk/internal/api"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err == nil {
		log.Printf("Loaded environment from .env")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8081"
	}

	srv := api.NewServer(nil)
	go srv.WarmCache(context.Background())

	log.Printf("Server starting on port %s...", port)
	if err := srv.Start(port); err != nil {
		log.Fatal(err)
	}
}
