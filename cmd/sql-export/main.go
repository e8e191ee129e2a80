package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/databridge/sql-gcs-etl/internal/cli"
)

func main() {
	// load the .env file if it exists
	godotenv.Load()

	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
