package main

import (
	"os"

	fiberlog "github.com/gofiber/fiber/v2/log"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fiberlog.Errorf("%v", err)
		os.Exit(1)
	}
}
