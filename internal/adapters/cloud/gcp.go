package cloud

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	monitoring "cloud.google.com/go/monitoring/apiv3/v2"
	"cloud.google.com/go/monitoring/apiv3/v2/monitoringpb"
	"github.com/forge-platform/forgecode/internal/core/domain"
	"github.com/forge-platform/forgecode/internal/core/ports"
	"google.golang.org/api/option"
	metricpb "google.golang.org/genproto/googleapis/api/metric"
	monitoredrespb "google.golang.org/genproto/googleapis/api/monitoredres"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// GCPConfig holds Cloud Monitoring configuration for build metrics.
type GCPConfig struct {
	ProjectID       string `json:"project_id"`
	CredentialsPath string `json:"credentials_path,omitempty"`
	MetricPrefix    string `json:"metric_prefix"`
}

// DefaultGCPConfig returns default GCP configuration.
func DefaultGCPConfig() GCPConfig {
	return GCPConfig{
		MetricPrefix: "custom.googleapis.com/forge",
	}
}

// Metric names written under the configured prefix.
const (
	MetricBuildDuration = "build_duration_ms"
	MetricBuildStatus   = "build_status"
	MetricExitCode      = "exit_code"
)

type sendFunc func(ctx context.Context, req *monitoringpb.CreateTimeSeriesRequest) error

// GCPBuildMetrics exports the outcome of every finished build to Cloud
// Monitoring as custom metrics.
type GCPBuildMetrics struct {
	config GCPConfig
	client *monitoring.MetricClient
	send   sendFunc
	logger ports.Logger

	mu          sync.Mutex
	seriesCount int64
	errorsCount int64
}

// NewGCPBuildMetrics creates an exporter with a Cloud Monitoring client.
// Without a credentials path the client uses Application Default Credentials.
func NewGCPBuildMetrics(ctx context.Context, config GCPConfig, logger ports.Logger) (*GCPBuildMetrics, error) {
	if config.ProjectID == "" {
		return nil, fmt.Errorf("project_id is required")
	}

	var opts []option.ClientOption
	if config.CredentialsPath != "" {
		if _, err := os.Stat(config.CredentialsPath); err != nil {
			return nil, fmt.Errorf("credentials file not found: %s", config.CredentialsPath)
		}
		opts = append(opts, option.WithCredentialsFile(config.CredentialsPath))
	}

	client, err := monitoring.NewMetricClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create monitoring client: %w", err)
	}

	m := newGCPBuildMetrics(config, logger, func(ctx context.Context, req *monitoringpb.CreateTimeSeriesRequest) error {
		return client.CreateTimeSeries(ctx, req)
	})
	m.client = client
	logger.Debug("Build metrics enabled", "project", config.ProjectID, "prefix", m.config.MetricPrefix)
	return m, nil
}

func newGCPBuildMetrics(config GCPConfig, logger ports.Logger, send sendFunc) *GCPBuildMetrics {
	if config.MetricPrefix == "" {
		config.MetricPrefix = DefaultGCPConfig().MetricPrefix
	}
	return &GCPBuildMetrics{
		config: config,
		send:   send,
		logger: logger,
	}
}

// Record writes the duration and status of a finished build, plus the exit
// code when the program ran. Pending builds are ignored.
func (m *GCPBuildMetrics) Record(ctx context.Context, build *domain.Build) error {
	if !build.IsTerminal() {
		return nil
	}

	series := m.TimeSeries(build)
	req := &monitoringpb.CreateTimeSeriesRequest{
		Name:       fmt.Sprintf("projects/%s", m.config.ProjectID),
		TimeSeries: series,
	}

	if err := m.send(ctx, req); err != nil {
		m.mu.Lock()
		m.errorsCount++
		m.mu.Unlock()
		return fmt.Errorf("failed to send build metrics: %w", err)
	}

	m.mu.Lock()
	m.seriesCount += int64(len(series))
	m.mu.Unlock()
	m.logger.Debug("Sent build metrics", "id", build.ID, "series", len(series))
	return nil
}

// TimeSeries converts a finished build into Cloud Monitoring time series.
func (m *GCPBuildMetrics) TimeSeries(build *domain.Build) []*monitoringpb.TimeSeries {
	end := time.Now()
	if build.CompletedAt != nil {
		end = *build.CompletedAt
	}

	durationMs := float64(build.Duration) / float64(time.Millisecond)
	statusLabels := buildLabels(build)
	statusLabels["status"] = string(build.Status)

	series := []*monitoringpb.TimeSeries{
		m.timeSeries(MetricBuildDuration, buildLabels(build), end, &monitoringpb.TypedValue{
			Value: &monitoringpb.TypedValue_DoubleValue{DoubleValue: durationMs},
		}),
		m.timeSeries(MetricBuildStatus, statusLabels, end, &monitoringpb.TypedValue{
			Value: &monitoringpb.TypedValue_Int64Value{Int64Value: 1},
		}),
	}
	if build.Ran() {
		series = append(series, m.timeSeries(MetricExitCode, buildLabels(build), end, &monitoringpb.TypedValue{
			Value: &monitoringpb.TypedValue_Int64Value{Int64Value: int64(build.ExitCode)},
		}))
	}
	return series
}

func (m *GCPBuildMetrics) timeSeries(name string, labels map[string]string, end time.Time, value *monitoringpb.TypedValue) *monitoringpb.TimeSeries {
	return &monitoringpb.TimeSeries{
		Metric: &metricpb.Metric{
			Type:   fmt.Sprintf("%s/%s", m.config.MetricPrefix, name),
			Labels: labels,
		},
		Resource: &monitoredrespb.MonitoredResource{
			Type: "global",
			Labels: map[string]string{
				"project_id": m.config.ProjectID,
			},
		},
		Points: []*monitoringpb.Point{{
			Interval: &monitoringpb.TimeInterval{
				EndTime: timestamppb.New(end),
			},
			Value: value,
		}},
	}
}

func buildLabels(build *domain.Build) map[string]string {
	return map[string]string{
		"target":  string(build.Target),
		"kind":    string(build.Kind),
		"sandbox": strconv.FormatBool(build.Sandbox),
	}
}

// Stats returns the number of series sent and of failed requests.
func (m *GCPBuildMetrics) Stats() (seriesCount, errorsCount int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seriesCount, m.errorsCount
}

// Close closes the monitoring client.
func (m *GCPBuildMetrics) Close() error {
	if m.client != nil {
		return m.client.Close()
	}
	return nil
}

var _ ports.BuildMetrics = (*GCPBuildMetrics)(nil)
