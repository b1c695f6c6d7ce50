package main

import (
	"github.com/joho/godotenv"

	"despesify/internal/cli"
)

func main() {
	_ = godotenv.Load()
	cli.Execute()
}
