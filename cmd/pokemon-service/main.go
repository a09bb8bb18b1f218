package main

import (
	"os"

	"github.com/rochacaio/pokemon-backend/pokemonservice"
)

func main() {
	if err := pokemonservice.Run(); err != nil {
		os.Exit(1)
	}
}
