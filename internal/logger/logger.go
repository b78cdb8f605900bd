package logger

import (
	"os"
	"time"

	"github.com/natefinch/lumberjack"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Configure 初始化全局 zerolog：控制台 + 滚动日志文件双写
func Configure(level zerolog.Level) {
	zerolog.TimeFieldFormat = time.DateTime

	file := &lumberjack.Logger{
		Filename:   "atfinder.log",
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	}
	console := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.DateTime,
	}

	multiWriter := zerolog.MultiLevelWriter(console, file)

	log.Logger = zerolog.New(multiWriter).
		With().
		Timestamp().
		Logger().
		Level(level)
}
