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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// eventsTotal counts processed events.
	// Labels: event, status (ok, error)
	eventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "osmquest",
		Subsystem: "controller",
		Name:      "events_total",
		Help:      "Total events processed by the reconciliation controller",
	}, []string{"event", "status"})

	eventDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "osmquest",
		Subsystem: "controller",
		Name:      "event_duration_seconds",
		Help:      "Time spent processing one event",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
	}, []string{"event"})

	questsAdded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "osmquest",
		Subsystem: "controller",
		Name:      "quests_added_total",
		Help:      "Total quests materialized",
	}, []string{"event"})

	questsDeleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "osmquest",
		Subsystem: "controller",
		Name:      "quests_deleted_total",
		Help:      "Total quests deleted",
	}, []string{"event"})
)
