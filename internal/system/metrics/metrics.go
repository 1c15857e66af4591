/*
 * Copyright (c) 2025-2026, WSO2 LLC. (http://www.wso2.com).
 *
 * WSO2 LLC. licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ucr"

// Outcomes recorded for lifecycle operations.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Collector owns the orchestrator metrics. All methods are safe on a nil receiver so that components
// can be built without metrics in tests.
type Collector struct {
	registry            *prometheus.Registry
	transitions         *prometheus.CounterVec
	transitionDuration  *prometheus.HistogramVec
	validations         *prometheus.CounterVec
	simulationScenarios *prometheus.CounterVec
	simulationDuration  prometheus.Histogram
	activations         *prometheus.CounterVec
	publishFailures     prometheus.Counter
}

func NewCollector() *Collector {

	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	return &Collector{
		registry: registry,
		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rule_transitions_total",
			Help:      "Lifecycle operations on rules by action and outcome.",
		}, []string{"action", "outcome"}),
		transitionDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rule_transition_duration_seconds",
			Help:      "Time taken by a lifecycle operation including its transaction.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"action"}),
		validations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rule_validations_total",
			Help:      "Rule validations by result.",
		}, []string{"result"}),
		simulationScenarios: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "simulation_scenarios_total",
			Help:      "Simulated scenarios by result.",
		}, []string{"result"}),
		simulationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "simulation_duration_seconds",
			Help:      "Time taken to simulate a batch of scenarios.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
		activations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduled_activations_total",
			Help:      "Scheduled deployments completed by the activation worker.",
		}, []string{"outcome"}),
		publishFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_publish_failures_total",
			Help:      "Transition events that could not be published.",
		}),
	}
}

// ObserveTransition records a lifecycle operation started at start.
func (c *Collector) ObserveTransition(action string, start time.Time, err error) {
	if c == nil {
		return
	}
	c.transitions.WithLabelValues(action, outcome(err)).Inc()
	c.transitionDuration.WithLabelValues(action).Observe(time.Since(start).Seconds())
}

func (c *Collector) ObserveValidation(ok bool) {
	if c == nil {
		return
	}
	result := "invalid"
	if ok {
		result = "valid"
	}
	c.validations.WithLabelValues(result).Inc()
}

func (c *Collector) ObserveSimulation(passed, failed int, duration time.Duration) {
	if c == nil {
		return
	}
	c.simulationScenarios.WithLabelValues("passed").Add(float64(passed))
	c.simulationScenarios.WithLabelValues("failed").Add(float64(failed))
	c.simulationDuration.Observe(duration.Seconds())
}

func (c *Collector) ObserveActivation(err error) {
	if c == nil {
		return
	}
	c.activations.WithLabelValues(outcome(err)).Inc()
}

func (c *Collector) IncPublishFailure() {
	if c == nil {
		return
	}
	c.publishFailures.Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func outcome(err error) string {
	if err != nil {
		return OutcomeFailure
	}
	return OutcomeSuccess
}
