package main

import (
	"log"

	"github.com/jobhive/jobhive/internal/tools/jobctl"
)

func main() {
	if err := jobctl.NewRootCommand().Execute(); err != nil {
		log.Fatal(err)
	}
}
