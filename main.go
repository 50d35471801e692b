package main

import (
	"os"

	"github.com/mayaoy/fun-news-crawler/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
