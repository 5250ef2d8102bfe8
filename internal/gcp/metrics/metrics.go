// Package metrics queries Cloud Monitoring time series for the plumber
// monitoring tools. The only query today is VM CPU utilization; the request
// shape is built separately from the client so it stays testable.
package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	monitoring "cloud.google.com/go/monitoring/apiv3/v2"
	"cloud.google.com/go/monitoring/apiv3/v2/monitoringpb"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/timestamppb"

	"plumber/internal/report"
)

const (
	// cpuMetricFilter selects the per-instance CPU utilization metric.
	cpuMetricFilter = `metric.type = "compute.googleapis.com/instance/cpu/utilization"`

	// cpuWindow is how far back the CPU query looks.
	cpuWindow = 5 * time.Minute

	// cpuAlignment is the per-series mean interval.
	cpuAlignment = time.Minute
)

// CPURequest builds the ListTimeSeries request for mean CPU utilization of
// every VM instance over the last five minutes, grouped by instance and
// zone.
func CPURequest(projectID string, now time.Time) *monitoringpb.ListTimeSeriesRequest {
	return &monitoringpb.ListTimeSeriesRequest{
		Name:   "projects/" + projectID,
		Filter: cpuMetricFilter,
		Interval: &monitoringpb.TimeInterval{
			StartTime: timestamppb.New(now.Add(-cpuWindow)),
			EndTime:   timestamppb.New(now),
		},
		Aggregation: &monitoringpb.Aggregation{
			AlignmentPeriod:    durationpb.New(cpuAlignment),
			PerSeriesAligner:   monitoringpb.Aggregation_ALIGN_MEAN,
			CrossSeriesReducer: monitoringpb.Aggregation_REDUCE_MEAN,
			GroupByFields:      []string{"resource.label.instance_id", "resource.label.zone"},
		},
		View: monitoringpb.ListTimeSeriesRequest_FULL,
	}
}

// seriesSource abstracts the metric client's iterator for tests.
type seriesSource interface {
	list(ctx context.Context, req *monitoringpb.ListTimeSeriesRequest) ([]*monitoringpb.TimeSeries, error)
}

// Client answers Cloud Monitoring queries for one project.
type Client struct {
	projectID string
	metric    *monitoring.MetricClient
	source    seriesSource
	log       *zap.Logger
	now       func() time.Time
}

// NewClient connects to Cloud Monitoring for the given project.
func NewClient(ctx context.Context, projectID string, log *zap.Logger, opts ...option.ClientOption) (*Client, error) {
	if projectID == "" {
		return nil, fmt.Errorf("project id is required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	metric, err := monitoring.NewMetricClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("metric client: %w", err)
	}
	return &Client{
		projectID: projectID,
		metric:    metric,
		source:    &metricSource{metric: metric},
		log:       log,
		now:       time.Now,
	}, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	if c.metric == nil {
		return nil
	}
	return c.metric.Close()
}

type metricSource struct {
	metric *monitoring.MetricClient
}

func (s *metricSource) list(ctx context.Context, req *monitoringpb.ListTimeSeriesRequest) ([]*monitoringpb.TimeSeries, error) {
	it := s.metric.ListTimeSeries(ctx, req)

	var out []*monitoringpb.TimeSeries
	for {
		series, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		out = append(out, series)
	}
	return out, nil
}

// CPUUtilization reports the mean CPU utilization of every VM instance in
// the project over the last five minutes.
func (c *Client) CPUUtilization(ctx context.Context) report.Report {
	req := CPURequest(c.projectID, c.now())

	c.log.Debug("querying cloud monitoring",
		zap.String("project", c.projectID),
		zap.String("filter", req.Filter))

	series, err := c.source.list(ctx, req)
	if err != nil {
		return report.Errorf("failed to get CPU utilization: %v", err)
	}
	if len(series) == 0 {
		return report.Success("No CPU utilization data found for the specified project and time range.")
	}

	var lines []string
	lines = append(lines, "CPU Utilization Data:")
	for _, s := range series {
		labels := s.GetResource().GetLabels()
		instance := labelOr(labels, "instance_id", "N/A")
		zone := labelOr(labels, "zone", "N/A")
		lines = append(lines, fmt.Sprintf("  Instance ID: %s, Zone: %s", instance, zone))

		for _, p := range s.GetPoints() {
			ts := p.GetInterval().GetEndTime().AsTime().UTC().Format(time.RFC3339)
			lines = append(lines, fmt.Sprintf("    Timestamp: %s, Value: %.2f%%", ts, p.GetValue().GetDoubleValue()*100))
		}
	}
	return report.Success(strings.Join(lines, "\n"))
}

func labelOr(labels map[string]string, key, def string) string {
	if v, ok := labels[key]; ok && v != "" {
		return v
	}
	return def
}
