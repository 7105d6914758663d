// Package prometheus implements metrics.Client on top of a dedicated
// prometheus registry. Instruments are created lazily on first use.
package prometheus

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
)

type Client struct {
	namespace  string
	registry   *prometheus.Registry
	mu         sync.Mutex
	counters   map[string]*prometheus.CounterVec
	histograms map[string]*prometheus.HistogramVec
}

func NewClient(namespace string) *Client {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Client{
		namespace:  sanitize(namespace),
		registry:   registry,
		counters:   make(map[string]*prometheus.CounterVec),
		histograms: make(map[string]*prometheus.HistogramVec),
	}
}

func (c *Client) Inc(_ context.Context, key string, value any, attributes ...attribute.KeyValue) {
	delta, ok := toFloat(value)
	if !ok || delta < 0 {
		return
	}

	names, values := splitAttributes(attributes)

	counter, err := c.counter(key, names)
	if err != nil {
		return
	}

	counter.WithLabelValues(values...).Add(delta)
}

func (c *Client) Observe(_ context.Context, key string, value float64, attributes ...attribute.KeyValue) {
	names, values := splitAttributes(attributes)

	histogram, err := c.histogram(key, names)
	if err != nil {
		return
	}

	histogram.WithLabelValues(values...).Observe(value)
}

func (c *Client) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

func (c *Client) Shutdown(_ context.Context) error {
	return nil
}

func (c *Client) counter(key string, labels []string) (*prometheus.CounterVec, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := instrumentID(key, labels)
	if counter, ok := c.counters[id]; ok {
		return counter, nil
	}

	counter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: c.namespace,
		Name:      sanitize(key) + "_total",
		Help:      fmt.Sprintf("Counter for %s.", key),
	}, labels)

	if err := c.registry.Register(counter); err != nil {
		return nil, fmt.Errorf("registering counter %s: %w", key, err)
	}

	c.counters[id] = counter

	return counter, nil
}

func (c *Client) histogram(key string, labels []string) (*prometheus.HistogramVec, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := instrumentID(key, labels)
	if histogram, ok := c.histograms[id]; ok {
		return histogram, nil
	}

	histogram := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: c.namespace,
		Name:      sanitize(key),
		Help:      fmt.Sprintf("Histogram for %s.", key),
		Buckets:   prometheus.DefBuckets,
	}, labels)

	if err := c.registry.Register(histogram); err != nil {
		return nil, fmt.Errorf("registering histogram %s: %w", key, err)
	}

	c.histograms[id] = histogram

	return histogram, nil
}

func instrumentID(key string, labels []string) string {
	return key + "|" + strings.Join(labels, ",")
}

func splitAttributes(attributes []attribute.KeyValue) ([]string, []string) {
	sorted := make([]attribute.KeyValue, len(attributes))
	copy(sorted, attributes)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })

	names := make([]string, 0, len(sorted))
	values := make([]string, 0, len(sorted))

	for _, attr := range sorted {
		names = append(names, sanitize(string(attr.Key)))
		values = append(values, attr.Value.Emit())
	}

	return names, values
}

func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	default:
		return 0, false
	}
}
