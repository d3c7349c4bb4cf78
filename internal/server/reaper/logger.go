package reaper

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/mpmonitor/internal/logging"
)

// AsynqLogger adapts logging.Logger to asynq.Logger.
type AsynqLogger struct {
	l logging.Logger
}

func NewAsynqLogger(l logging.Logger) *AsynqLogger {
	return &AsynqLogger{l: l.With("module", "asynq")}
}

func (a *AsynqLogger) Debug(args ...any) { a.l.Debug(context.Background(), fmt.Sprint(args...)) }
func (a *AsynqLogger) Info(args ...any)  { a.l.Info(context.Background(), fmt.Sprint(args...)) }
func (a *AsynqLogger) Warn(args ...any)  { a.l.Warn(context.Background(), fmt.Sprint(args...)) }
func (a *AsynqLogger) Error(args ...any) { a.l.Error(context.Background(), fmt.Sprint(args...)) }

func (a *AsynqLogger) Fatal(args ...any) {
	a.l.Error(context.Background(), fmt.Sprint(args...))
	os.Exit(1)
}
