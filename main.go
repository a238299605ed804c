package main

import (
	"github.com/joho/godotenv"

	"options-trader/internal/cli"
)

func main() {
	// Environment overrides may live in a local .env during development.
	_ = godotenv.Load()

	cli.Execute()
}
