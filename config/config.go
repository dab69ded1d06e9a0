package config

import (
	"log"

	"github.com/joho/godotenv"
)

// LoadEnv loads .env into the process environment. Variables already set
// win over the file.
func LoadEnv() {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("Warning: .env file not found, reading from system environment variables")
	}
}
