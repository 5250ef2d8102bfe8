package metrics

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/monitoring/apiv3/v2/monitoringpb"
	"go.uber.org/zap"
	mrpb "google.golang.org/genproto/googleapis/api/monitoredres"
	"google.golang.org/protobuf/types/known/timestamppb"

	"plumber/internal/report"
)

var testNow = time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)

type fakeSource struct {
	series []*monitoringpb.TimeSeries
	err    error
	gotReq *monitoringpb.ListTimeSeriesRequest
}

func (f *fakeSource) list(_ context.Context, req *monitoringpb.ListTimeSeriesRequest) ([]*monitoringpb.TimeSeries, error) {
	f.gotReq = req
	return f.series, f.err
}

func testClient(src *fakeSource) *Client {
	return &Client{
		projectID: "test-project",
		source:    src,
		log:       zap.NewNop(),
		now:       func() time.Time { return testNow },
	}
}

func TestCPURequest(t *testing.T) {
	req := CPURequest("test-project", testNow)

	if req.Name != "projects/test-project" {
		t.Errorf("name = %q", req.Name)
	}
	if !strings.Contains(req.Filter, "compute.googleapis.com/instance/cpu/utilization") {
		t.Errorf("filter = %q", req.Filter)
	}
	window := req.Interval.EndTime.AsTime().Sub(req.Interval.StartTime.AsTime())
	if window != 5*time.Minute {
		t.Errorf("window = %s, want 5m", window)
	}

	agg := req.Aggregation
	if agg.AlignmentPeriod.AsDuration() != time.Minute {
		t.Errorf("alignment = %s", agg.AlignmentPeriod.AsDuration())
	}
	if agg.PerSeriesAligner != monitoringpb.Aggregation_ALIGN_MEAN {
		t.Errorf("aligner = %v", agg.PerSeriesAligner)
	}
	if agg.CrossSeriesReducer != monitoringpb.Aggregation_REDUCE_MEAN {
		t.Errorf("reducer = %v", agg.CrossSeriesReducer)
	}
	wantFields := []string{"resource.label.instance_id", "resource.label.zone"}
	for i, f := range wantFields {
		if agg.GroupByFields[i] != f {
			t.Errorf("group by %d = %q, want %q", i, agg.GroupByFields[i], f)
		}
	}
	if req.View != monitoringpb.ListTimeSeriesRequest_FULL {
		t.Errorf("view = %v", req.View)
	}
}

func TestCPUUtilizationRendersSeries(t *testing.T) {
	src := &fakeSource{series: []*monitoringpb.TimeSeries{{
		Resource: &mrpb.MonitoredResource{
			Type:   "gce_instance",
			Labels: map[string]string{"instance_id": "1234567890", "zone": "us-central1-a"},
		},
		Points: []*monitoringpb.Point{{
			Interval: &monitoringpb.TimeInterval{EndTime: timestamppb.New(testNow)},
			Value:    &monitoringpb.TypedValue{Value: &monitoringpb.TypedValue_DoubleValue{DoubleValue: 0.4237}},
		}},
	}}}

	rep := testClient(src).CPUUtilization(context.Background())
	if rep.Status != report.StatusSuccess {
		t.Fatalf("status = %s: %s", rep.Status, rep.Message)
	}
	for _, want := range []string{
		"CPU Utilization Data:",
		"Instance ID: 1234567890, Zone: us-central1-a",
		"Value: 42.37%",
	} {
		if !strings.Contains(rep.Report, want) {
			t.Errorf("report missing %q:\n%s", want, rep.Report)
		}
	}
}

func TestCPUUtilizationNoData(t *testing.T) {
	rep := testClient(&fakeSource{}).CPUUtilization(context.Background())
	if rep.Status != report.StatusSuccess {
		t.Fatalf("status = %s", rep.Status)
	}
	if !strings.Contains(rep.Report, "No CPU utilization data found") {
		t.Errorf("report = %q", rep.Report)
	}
}

func TestCPUUtilizationMissingLabels(t *testing.T) {
	src := &fakeSource{series: []*monitoringpb.TimeSeries{{
		Resource: &mrpb.MonitoredResource{Type: "gce_instance"},
	}}}
	rep := testClient(src).CPUUtilization(context.Background())
	if !strings.Contains(rep.Report, "Instance ID: N/A, Zone: N/A") {
		t.Errorf("report = %q", rep.Report)
	}
}

func TestCPUUtilizationError(t *testing.T) {
	src := &fakeSource{err: errors.New("quota exceeded")}
	rep := testClient(src).CPUUtilization(context.Background())
	if !rep.IsError() {
		t.Fatalf("status = %s", rep.Status)
	}
	if !strings.Contains(rep.Message, "quota exceeded") {
		t.Errorf("message = %q", rep.Message)
	}
}
