package main

import (
	"os"

	"go.uber.org/zap"

	"github.com/yumyai/annoteval/logger"
)

const VERSION = "0.1.0"

func main() {
	defer logger.Sync() // Make sure that the buffered is flushed.

	if err := newRootCmd().Execute(); err != nil {
		logger.Error("annoteval failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}
