// Package logger provides a structured logging facility based on Zap.
//
// New builds a development logger for the debug level and a production
// logger otherwise. The console format uses colored capital levels, json is
// the default. WithRayID tags entries written from Fiber handlers with the
// request's ray id so all lines of one request can be correlated.
//
// # Usage
//
//	log, _ := logger.New(&logger.Config{Level: "info"})
//	log.Info("Sync started")
//
//	// In a request handler:
//	l := logger.WithRayID(log, c)
//	l.Error("Handler failed", zap.Error(err))
package logger
