// Copyright 2021 Daniel Basedow. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package log provides a minimal leveled logging facade. Callers hand
// the library any implementation of Logger; everything in this package
// is optional convenience around it.
package log

// Logger is the logging abstraction consumed by the library.
type Logger interface {
	Log(level Level, keyvals ...interface{}) error
}

type logger struct {
	logger Logger
	prefix []interface{}
}

func (c *logger) Log(level Level, keyvals ...interface{}) error {
	kvs := make([]interface{}, 0, len(c.prefix)+len(keyvals))
	kvs = append(kvs, c.prefix...)
	kvs = append(kvs, keyvals...)
	return c.logger.Log(level, kvs...)
}

// With returns a new Logger that prepends the given key-value pairs to
// every emitted record.
func With(l Logger, kv ...interface{}) Logger {
	if c, ok := l.(*logger); ok {
		kvs := make([]interface{}, 0, len(c.prefix)+len(kv))
		kvs = append(kvs, kv...)
		kvs = append(kvs, c.prefix...)
		return &logger{
			logger: c.logger,
			prefix: kvs,
		}
	}
	return &logger{logger: l, prefix: kv}
}
