// Copyright 2025 The kanari-core Authors
// This file is part of the kanari-core library.
//
// The kanari-core library is free software: you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// The kanari-core library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the GNU Lesser
// General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the kanari-core library. If not, see
// <http://www.gnu.org/licenses/>.

// Package log is the engine's structured logging facade. It mirrors the
// small, slog-backed wrapper go-ethereum-family clients carry as their own
// "log" package: a handful of level functions plus a New() that returns a
// logger with bound key/value context, so call sites read like
// log.Info("block sealed", "height", h) instead of threading a *slog.Logger
// through every signature.
package log

import (
	"log/slog"
	"os"
)

var root = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

// SetDefault replaces the root handler, e.g. to switch to JSON output or
// raise the level for a production deployment.
func SetDefault(l *slog.Logger) { root = l }

// Logger is a slog.Logger with bound context, returned by New.
type Logger = slog.Logger

// New returns a Logger with ctx key/value pairs bound to every record.
func New(ctx ...any) *Logger { return root.With(ctx...) }

func Debug(msg string, ctx ...any) { root.Debug(msg, ctx...) }
func Info(msg string, ctx ...any)  { root.Info(msg, ctx...) }
func Warn(msg string, ctx ...any)  { root.Warn(msg, ctx...) }
func Error(msg string, ctx ...any) { root.Error(msg, ctx...) }
