package sitecount

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/eryajf/promwrite"
	"github.com/miekg/dns"
	"go.uber.org/zap"
)

// Collector defines a source of metrics for export
type Collector interface {
	Collect() []Metric
	Name() string
}

// Metric represents a single metric data point
type Metric struct {
	Name       string
	Value      float64
	Labels     map[string]string
	MetricType MetricType
	Timestamp  time.Time
}

// MetricType represents the type of a metric
type MetricType int

const (
	Counter MetricType = iota
	Gauge
)

// Exporter pushes metrics to a Prometheus remote write endpoint
type Exporter struct {
	config ExportConfig
	logger *zap.Logger

	mutex       sync.Mutex
	client      *promwrite.Client
	targetHost  string
	resolvedIPs []string
}

// NewExporter creates an exporter for the configured remote write URL
func NewExporter(config ExportConfig, logger *zap.Logger) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	config.Timeout = pickDuration(config.Timeout, 15*time.Second)
	config.DNSTimeout = pickDuration(config.DNSTimeout, 800*time.Millisecond)
	if config.InstanceIP == "" {
		if host, err := os.Hostname(); err == nil {
			config.InstanceIP = host
		} else {
			logger.Warn("Failed to read host name for instance label", zap.Error(err))
		}
	}

	var host string
	if u, err := url.Parse(config.RemoteWriteURL); err == nil {
		host = u.Hostname()
	}

	return &Exporter{
		config:     config,
		logger:     logger,
		targetHost: host,
	}
}

// CollectAll gathers the metrics of every collector
func CollectAll(collectors ...Collector) []Metric {
	var metrics []Metric
	for _, c := range collectors {
		metrics = append(metrics, c.Collect()...)
	}
	return metrics
}

// Export sends metrics in one remote write request. On failure the target
// host is re-resolved and the request retried once.
func (e *Exporter) Export(ctx context.Context, metrics []Metric) error {
	if len(metrics) == 0 {
		return nil
	}

	e.mutex.Lock()
	defer e.mutex.Unlock()

	if e.client == nil {
		e.refreshClient(ctx)
	}

	ctx, cancel := context.WithTimeout(ctx, e.config.Timeout)
	defer cancel()

	req := &promwrite.WriteRequest{
		TimeSeries: e.convertToTimeSeries(metrics),
	}

	if _, err := e.client.Write(ctx, req); err != nil {
		e.logger.Warn("Remote write failed, refreshing client", zap.Error(err))
		e.refreshClient(ctx)
		if _, retryErr := e.client.Write(ctx, req); retryErr != nil {
			return fmt.Errorf("writing time series failed after retry: %w", retryErr)
		}
	}

	e.logger.Debug("Exported counters",
		zap.String("url", e.config.RemoteWriteURL), zap.Int("series", len(req.TimeSeries)))
	return nil
}

// refreshClient resolves the target host and recreates the client so new
// connections pick up the current address set
func (e *Exporter) refreshClient(ctx context.Context) {
	if e.targetHost != "" && net.ParseIP(e.targetHost) == nil {
		ips, err := e.resolve(ctx, e.targetHost)
		if err != nil {
			e.logger.Warn("DNS lookup failed", zap.String("host", e.targetHost), zap.Error(err))
		} else {
			e.resolvedIPs = ips
			e.logger.Info("Resolved remote write host",
				zap.String("host", e.targetHost), zap.Strings("ips", ips))
		}
	}
	e.client = promwrite.NewClient(e.config.RemoteWriteURL)
}

// resolve tries each configured DNS server in order, then the system resolver
func (e *Exporter) resolve(ctx context.Context, host string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.config.DNSTimeout)
	defer cancel()

	var firstErr error
	for _, srv := range e.config.DNSUDPServers {
		ips, err := resolveUDP(ctx, host, srv, e.config.DNSTimeout)
		if err == nil && len(ips) > 0 {
			return ips, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}

	netIPs, err := net.DefaultResolver.LookupIP(ctx, "ip", host)
	if err == nil && len(netIPs) > 0 {
		ips := make([]string, 0, len(netIPs))
		for _, ip := range netIPs {
			ips = append(ips, ip.String())
		}
		return ips, nil
	}
	if firstErr == nil {
		firstErr = err
	}
	if firstErr == nil {
		firstErr = fmt.Errorf("no dns result")
	}
	return nil, firstErr
}

func resolveUDP(ctx context.Context, host, server string, timeout time.Duration) ([]string, error) {
	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(host), dns.TypeA)
	c := &dns.Client{Net: "udp", Timeout: timeout}
	r, _, err := c.ExchangeContext(ctx, m, server)
	if err != nil {
		return nil, fmt.Errorf("udp dns via %s: %w", server, err)
	}
	if r == nil || r.Rcode != dns.RcodeSuccess {
		return nil, fmt.Errorf("udp dns via %s: bad response", server)
	}
	ips := make([]string, 0, len(r.Answer))
	for _, ans := range r.Answer {
		if a, ok := ans.(*dns.A); ok {
			ips = append(ips, a.A.String())
		}
	}
	return ips, nil
}

// convertToTimeSeries converts metrics to promwrite time series format
func (e *Exporter) convertToTimeSeries(metrics []Metric) []promwrite.TimeSeries {
	result := make([]promwrite.TimeSeries, 0, len(metrics))

	prefix := fmt.Sprintf("%s_%s", e.config.Namespace, e.config.Subsystem)

	for _, metric := range metrics {
		labels := make([]promwrite.Label, 0, 3+len(e.config.CustomLabels)+len(metric.Labels))

		labels = append(labels,
			promwrite.Label{Name: "__name__", Value: fmt.Sprintf("%s_%s", prefix, metric.Name)},
			promwrite.Label{Name: "instance", Value: e.config.InstanceIP},
			promwrite.Label{Name: "job", Value: e.config.ServiceName},
		)

		for k, v := range e.config.CustomLabels {
			labels = append(labels, promwrite.Label{Name: k, Value: v})
		}

		for k, v := range metric.Labels {
			labels = append(labels, promwrite.Label{Name: k, Value: v})
		}

		result = append(result, promwrite.TimeSeries{
			Labels: labels,
			Sample: promwrite.Sample{
				Time:  metric.Timestamp,
				Value: metric.Value,
			},
		})
	}

	return result
}
