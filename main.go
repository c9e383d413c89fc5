package main

import (
	"os"

	"github.com/abhisek/quizpool/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
