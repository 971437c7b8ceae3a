// Copyright 2025 the original author or authors.
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

package osmquest

import (
	"log/slog"
	"runtime"
	"time"
)

const (
	// DefaultElementPadding is how far, in meters, the map data around a
	// single updated element reaches when a complex quest type needs it.
	DefaultElementPadding = 100.0

	// DefaultInboxSize is the default number of events that may be queued
	// before callers block.
	DefaultInboxSize = 64
)

// DefaultWorkers provides the default number of evaluation workers.
func DefaultWorkers() uint16 {
	cpus := uint16(runtime.GOMAXPROCS(-1))

	return max(cpus-1, 1)
}

// options provides optional configuration parameters for Controller
// construction.
type options struct {
	logger         *slog.Logger
	workers        uint16
	elementPadding float64
	inboxSize      int
	now            func() time.Time
}

// Option configures how we set up the controller.
type Option func(*options)

// WithLogger lets you set the logger.  The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithWorkers lets you set the number of goroutines evaluating a full
// snapshot.
func WithWorkers(n uint16) Option {
	return func(o *options) {
		o.workers = max(n, 1)
	}
}

// WithElementPadding lets you set the padding, in meters, of the map data
// fetched for complex quest types on single element updates.
func WithElementPadding(meters float64) Option {
	return func(o *options) {
		o.elementPadding = max(meters, 0)
	}
}

// WithInboxSize lets you set how many events may wait in the inbox.
func WithInboxSize(n int) Option {
	return func(o *options) {
		o.inboxSize = max(n, 0)
	}
}

// WithClock lets you set the clock used to timestamp hidden quests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func defaultOptions() options {
	return options{
		logger:         slog.Default(),
		workers:        DefaultWorkers(),
		elementPadding: DefaultElementPadding,
		inboxSize:      DefaultInboxSize,
		now:            time.Now,
	}
}
