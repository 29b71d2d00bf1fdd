// Copyright 2017-2021 Lei Ni (nilei81@gmail.com) and other contributors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

/*
Package logger manages loggers used in raftclient.
*/
package logger

import (
	"sync"

	"github.com/lni/goutils/logutil/capnslog"
)

// LogLevel is the log level defined in raftclient.
type LogLevel int

const (
	// CRITICAL is the CRITICAL log level
	CRITICAL LogLevel = iota - 1
	// ERROR is the ERROR log level
	ERROR
	// WARNING is the WARNING log level
	WARNING
	// NOTICE is the NOTICE log level
	NOTICE
	// INFO is the INFO log level
	INFO
	// DEBUG is the DEBUG log level
	DEBUG
)

// Factory is the factory method for creating logger used for the specified
// package.
type Factory func(pkgName string) ILogger

// ILogger is the interface implemented by loggers that can be used by
// raftclient. You can implement your own ILogger implementation by building
// wrapper struct on top of your favourite logging library.
type ILogger interface {
	SetLevel(LogLevel)
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warningf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Panicf(format string, args ...interface{})
}

// SetLoggerFactory sets the factory function used to create ILogger instances.
// Loggers already handed out are switched to the new implementation.
func SetLoggerFactory(f Factory) {
	_loggers.mu.Lock()
	defer _loggers.mu.Unlock()
	_loggers.factory = f
	for name, l := range _loggers.loggers {
		l.set(f(name))
	}
}

// GetLogger returns the logger for the specified package name. The most common
// use case for the returned logger is to set its log verbosity level.
func GetLogger(pkgName string) ILogger {
	_loggers.mu.Lock()
	defer _loggers.mu.Unlock()
	l, ok := _loggers.loggers[pkgName]
	if !ok {
		l = &logger{}
		l.set(_loggers.factory(pkgName))
		_loggers.loggers[pkgName] = l
	}
	return l
}

type sysLoggers struct {
	mu      sync.Mutex
	factory Factory
	loggers map[string]*logger
}

var _loggers = sysLoggers{
	factory: createCapnsLog,
	loggers: make(map[string]*logger),
}

// logger is a stable handle so package level plog variables follow a factory
// change made after package initialisation.
type logger struct {
	mu     sync.RWMutex
	logger ILogger
}

var _ ILogger = (*logger)(nil)

func (l *logger) set(il ILogger) {
	l.mu.Lock()
	l.logger = il
	l.mu.Unlock()
}

func (l *logger) get() ILogger {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.logger
}

func (l *logger) SetLevel(level LogLevel) {
	l.get().SetLevel(level)
}

func (l *logger) Debugf(format string, args ...interface{}) {
	l.get().Debugf(format, args...)
}

func (l *logger) Infof(format string, args ...interface{}) {
	l.get().Infof(format, args...)
}

func (l *logger) Warningf(format string, args ...interface{}) {
	l.get().Warningf(format, args...)
}

func (l *logger) Errorf(format string, args ...interface{}) {
	l.get().Errorf(format, args...)
}

func (l *logger) Panicf(format string, args ...interface{}) {
	l.get().Panicf(format, args...)
}

type capnsLog struct {
	logger *capnslog.PackageLogger
}

func createCapnsLog(pkgName string) ILogger {
	return &capnsLog{
		logger: capnslog.NewPackageLogger("github.com/coufalja/raftclient", pkgName),
	}
}

func (c *capnsLog) SetLevel(level LogLevel) {
	c.logger.SetLevel(capnslog.LogLevel(level))
}

func (c *capnsLog) Debugf(format string, args ...interface{}) {
	c.logger.Debugf(format, args...)
}

func (c *capnsLog) Infof(format string, args ...interface{}) {
	c.logger.Infof(format, args...)
}

func (c *capnsLog) Warningf(format string, args ...interface{}) {
	c.logger.Warningf(format, args...)
}

func (c *capnsLog) Errorf(format string, args ...interface{}) {
	c.logger.Errorf(format, args...)
}

func (c *capnsLog) Panicf(format string, args ...interface{}) {
	c.logger.Panicf(format, args...)
}
