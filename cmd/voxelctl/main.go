package main

import (
	"log"
	"os"
)

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		log.Fatalf("❌ %v", err)
	}
}
