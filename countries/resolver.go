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

package countries

import (
	"context"
	"errors"
	"log/slog"
)

var ErrNotLoaded = errors.New("country boundaries not loaded")

// State of a Resolver.
type State int

const (
	Pending State = iota
	Ready
)

func (s State) String() string {
	if s == Ready {
		return "ready"
	}

	return "pending"
}

// LoadFunc loads the country index.  It is called exactly once.
type LoadFunc func(ctx context.Context) (Index, error)

// Resolver is a handle on a country index that is loaded once, in the
// background, at startup.  Once ready it never changes.  A failed load is
// ready too, with a nil index and the load error.
type Resolver struct {
	done  chan struct{}
	index Index
	err   error
}

// NewResolver starts loading the index in the background.
func NewResolver(ctx context.Context, load LoadFunc) *Resolver {
	r := &Resolver{done: make(chan struct{})}

	go func() {
		defer close(r.done)

		index, err := load(ctx)
		if err == nil && index == nil {
			err = ErrNotLoaded
		}

		if err != nil {
			slog.Error("unable to load country boundaries", "error", err)

			index = nil
		}

		r.index, r.err = index, err
	}()

	return r
}

// Resolved returns a resolver that is already ready with index.
func Resolved(index Index) *Resolver {
	r := &Resolver{done: make(chan struct{}), index: index}
	if index == nil {
		r.err = ErrNotLoaded
	}

	close(r.done)

	return r
}

// State reports whether the load has completed, without blocking.
func (r *Resolver) State() State {
	select {
	case <-r.done:
		return Ready
	default:
		return Pending
	}
}

// Await blocks until the load has completed.  This is a one time startup
// cost; after that it returns immediately.
func (r *Resolver) Await(ctx context.Context) (Index, error) {
	select {
	case <-r.done:
		return r.index, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
