// Package nlog is the fabric's logging façade: package-level severity
// functions (Infof/Warningf/Errorf) in the style of an embedded-systems
// logger, backed by a zap.SugaredLogger so call sites never thread a
// logger instance through the fan-out hot path.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package nlog

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	once   sync.Once
	sugar  *zap.SugaredLogger
	fields []zap.Field
	mu     sync.RWMutex
)

func logger() *zap.SugaredLogger {
	once.Do(func() {
		cfg := zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		l, err := cfg.Build(zap.AddCallerSkip(1))
		if err != nil {
			l = zap.NewNop()
		}
		sugar = l.Sugar()
	})
	mu.RLock()
	defer mu.RUnlock()
	if len(fields) == 0 {
		return sugar
	}
	return sugar.Desugar().With(fields...).Sugar()
}

// SetDefaultFields attaches fields (e.g. a source or sink name, when
// Config.EnableNames is set) to every subsequent log line. Intended to
// be called once at startup, not on the emit/process hot path.
func SetDefaultFields(kv ...any) {
	mu.Lock()
	defer mu.Unlock()
	fields = fields[:0]
	for i := 0; i+1 < len(kv); i += 2 {
		key, _ := kv[i].(string)
		fields = append(fields, zap.Any(key, kv[i+1]))
	}
}

func Infof(format string, args ...any)    { logger().Infof(format, args...) }
func Infoln(args ...any)                  { logger().Info(args...) }
func Warningf(format string, args ...any) { logger().Warnf(format, args...) }
func Warningln(args ...any)               { logger().Warn(args...) }
func Errorf(format string, args ...any)   { logger().Errorf(format, args...) }
func Errorln(args ...any)                 { logger().Error(args...) }

// Flush syncs the underlying zap core; call before process exit.
func Flush() {
	_ = logger().Sync()
}
