package main

import (
	"context"
	"log"

	"github.com/jobhive/jobhive/internal/di"
)

func main() {
	a, err := di.InitializeJobApp(context.Background())
	if err != nil {
		log.Fatal(err)
	}
	if err := a.Run(); err != nil {
		log.Fatal(err)
	}
}
