// Command qrctl is the support and load-testing companion to the table QR API.
package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found")
	}

	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
