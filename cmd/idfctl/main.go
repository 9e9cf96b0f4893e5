// Command idfctl administers an IDF portal database from the shell:
// migrations, user accounts, device imports and offline table checks.
package main

import (
	"os"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
