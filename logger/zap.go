// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewZap builds a zap logger for the given level (debug, info, error) and
// encoding (json or console). Unknown levels fall back to info.
func NewZap(level, format string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}
	if format == "" || format == "text" {
		format = "console"
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zapLevel)
	config.Encoding = format
	config.EncoderConfig = encoderConfig
	config.DisableCaller = true
	config.DisableStacktrace = true

	return config.Build()
}

// ZapFunc adapts a zap logger to a LogFunc. keyvals are read as alternating
// key/value pairs; a dangling key is logged under "extra".
func ZapFunc(z *zap.Logger) LogFunc {
	sugar := z.Sugar()
	return func(level LogLevel, msg string, keyvals ...interface{}) {
		if len(keyvals)%2 == 1 {
			keyvals = append(keyvals[:len(keyvals)-1:len(keyvals)-1], "extra", fmt.Sprint(keyvals[len(keyvals)-1]))
		}
		switch level {
		case DebugLevel:
			sugar.Debugw(msg, keyvals...)
		case ErrorLevel:
			sugar.Errorw(msg, keyvals...)
		default:
			sugar.Infow(msg, keyvals...)
		}
	}
}
