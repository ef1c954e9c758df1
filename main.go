package main

import (
	"os"

	"github.com/javier19927/proyecto-fullstack-sub002/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
