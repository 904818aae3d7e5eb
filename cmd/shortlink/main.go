package main

import (
	"log"

	_ "github.com/joho/godotenv/autoload"

	"github.com/MrSnakeDoc/shortlink/internal/app"
)

func main() {
	a, err := app.New()
	if err != nil {
		log.Fatalf("shortlink failed to start: %v", err)
	}
	if err := a.Run(); err != nil {
		log.Fatalf("shortlink stopped with error: %v", err)
	}
}
