package main

import (
	"os"

	"github.com/dmitrijs2005/campushub/internal/server"
)

func main() {
	os.Exit(server.Main())
}
