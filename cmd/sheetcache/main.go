package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/dealroom-caching/tokyo-ecosystem-data/internal/cli"
)

func main() {
	// A missing .env is fine; it only exists in local setups.
	_ = godotenv.Load()

	cmd := cli.NewRootCmd()
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
