package logger

import (
	"os"
	"sync"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"gitlab.com/nunet/yarn-data/internal/config"
)

var (
	once      sync.Once
	otelzLog  *otelzap.Logger
	debugMode = func() bool {
		if _, debug := os.LookupEnv("YARN_DEBUG"); debug {
			return true
		}
		return config.GetConfig().General.Debug
	}
)

type Logger struct {
	*zap.Logger
}

func (l *Logger) init() error {
	var err error
	if debugMode() {
		zapConfig := zap.NewDevelopmentConfig()
		zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		l.Logger, err = zapConfig.Build()
	} else {
		l.Logger, err = zap.NewProduction()
	}
	return err
}

// New takes in a package to initlialize the new Logger in.
func New(pkg string) *Logger {
	Log := &Logger{}
	if err := Log.init(); err != nil {
		panic(err)
	}

	Log.Logger = Log.Logger.With(
		zap.String("package", pkg),
	)

	return Log
}

// OtelZapLogger returns the process wide logger that also records log entries
// on the active span of a context.
func OtelZapLogger(pkg string) otelzap.Logger {
	once.Do(func() {
		l := New(pkg)
		otelzLog = otelzap.New(l.Logger, otelzap.WithMinLevel(zapcore.InfoLevel))
	})
	return *otelzLog
}
