package main

import (
	"log"

	"github.com/joho/godotenv"

	"gatepass/cmd/internal/app"
)

func main() {
	// Load .env when present; deployments set real environment variables.
	_ = godotenv.Load()

	if err := app.Run(); err != nil {
		log.Fatal(err)
	}
}
