package signal

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// WaitForShutdown blocks until a terminating signal arrives.
//
// SIGTSTP triggers quietFunc (graceful drain, the process keeps running);
// SIGINT/SIGTERM trigger shutdownFunc with a timeout and then return.
func WaitForShutdown(logger *zap.Logger, quietFunc func(), shutdownFunc func() error) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGTSTP)

	for {
		sig := <-sigChan
		if sig == syscall.SIGTSTP {
			logger.Info("received quiet signal", zap.String("signal", sig.String()))
			quietFunc()
			continue
		}

		logger.Info("received shutdown signal", zap.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		go func() {
			if err := shutdownFunc(); err != nil {
				logger.Error("shutdown failed", zap.Error(err))
			}
			cancel()
		}()

		<-ctx.Done()
		cancel()
		logger.Info("shutdown completed")
		return
	}
}
