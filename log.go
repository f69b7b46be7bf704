package mdvrp

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	LogErr   = 1
	LogInfo  = 2
	LogDebug = 3
	LogSpam  = 4
)

var (
	logger = zap.NewNop().Sugar()
	maxLvl int
)

// InitLoggers sets the verbosity for Log. Messages above logLvl are dropped.
func InitLoggers(logLvl int) {
	maxLvl = logLvl
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006/01/02 15:04:05")
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(os.Stdout), zapcore.DebugLevel)
	logger = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).Sugar()
}

// SyncLoggers flushes anything buffered by the logger.
func SyncLoggers() {
	_ = logger.Sync()
}

func Log(msgLvl int, printF string, args ...interface{}) {
	if msgLvl > maxLvl {
		return
	}
	switch msgLvl {
	case LogErr:
		logger.Errorf(printF, args...)
	case LogInfo:
		logger.Infof(printF, args...)
	case LogDebug:
		logger.Debugf(printF, args...)
	case LogSpam:
		logger.With("spam", true).Debugf(printF, args...)
	}
}
