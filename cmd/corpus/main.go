package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/corpus/internal/adapters/driving/cli"
)

func main() {
	// Optional .env for API keys; absence is fine.
	_ = godotenv.Load()

	os.Exit(cli.Execute())
}
