package logs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/logging"
	"cloud.google.com/go/logging/logadmin"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"plumber/internal/report"
)

// entrySource abstracts the logadmin iterator so report shaping can be
// tested without a project.
type entrySource interface {
	fetch(ctx context.Context, filter string, limit int) ([]*logging.Entry, error)
}

// Client answers the monitoring log queries for one project.
type Client struct {
	projectID string
	admin     *logadmin.Client
	source    entrySource
	log       *zap.Logger
	now       func() time.Time
}

// NewClient connects to Cloud Logging for the given project.
func NewClient(ctx context.Context, projectID string, log *zap.Logger, opts ...option.ClientOption) (*Client, error) {
	if projectID == "" {
		return nil, fmt.Errorf("project id is required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	admin, err := logadmin.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("logadmin client for %s: %w", projectID, err)
	}
	return &Client{
		projectID: projectID,
		admin:     admin,
		source:    &logadminSource{admin: admin},
		log:       log,
		now:       time.Now,
	}, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	if c.admin == nil {
		return nil
	}
	return c.admin.Close()
}

type logadminSource struct {
	admin *logadmin.Client
}

func (s *logadminSource) fetch(ctx context.Context, filter string, limit int) ([]*logging.Entry, error) {
	it := s.admin.Entries(ctx, logadmin.Filter(filter), logadmin.NewestFirst())

	var out []*logging.Entry
	for len(out) < limit {
		e, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// run executes a query and shapes the standard "fetched entries" report.
func (c *Client) run(ctx context.Context, q Query, header string) report.Report {
	filter, err := q.Filter(c.now())
	if err != nil {
		return report.Errorf("%v", err)
	}

	c.log.Debug("querying cloud logging",
		zap.String("project", c.projectID),
		zap.String("filter", filter),
		zap.Int("limit", q.Cap()))

	entries, err := c.source.fetch(ctx, filter, q.Cap())
	if err != nil {
		return report.Errorf("failed to fetch logs: %v", err)
	}
	if len(entries) == 0 {
		return report.Success("No log entries found matching the criteria.")
	}

	lines := make([]string, 0, len(entries)+1)
	lines = append(lines, header)
	for i, e := range entries {
		lines = append(lines, RenderEntry(i+1, e))
	}
	return report.Success(strings.Join(lines, "\n"))
}

// LatestError returns the single newest ERROR entry within the default
// lookback.
func (c *Client) LatestError(ctx context.Context) report.Report {
	q := Query{Severity: "ERROR", Limit: 1}
	filter, err := q.Filter(c.now())
	if err != nil {
		return report.Errorf("%v", err)
	}

	entries, err := c.source.fetch(ctx, filter, 1)
	if err != nil {
		return report.Errorf("failed to get latest error: %v", err)
	}
	if len(entries) == 0 {
		return report.Success("No ERROR log entries found.")
	}
	return report.Successf("Latest Error Log: %s", RenderEntry(1, entries[0]))
}

// Latest returns the newest entries, optionally filtered by severity.
// An unknown severity fetches all levels.
func (c *Client) Latest(ctx context.Context, severity string) report.Report {
	return c.run(ctx, Query{Severity: severity}, "Fetched recent log entries:")
}

// ByResource returns the newest entries for one resource type, optionally
// filtered by severity.
func (c *Client) ByResource(ctx context.Context, severity, resourceType string, limit int) report.Report {
	q := Query{Severity: severity, ResourceType: resourceType, Limit: limit}
	return c.run(ctx, q, "Fetched recent log entries:")
}

// Range returns entries within an explicit time window. Zero times fall
// back to the defaults (end = now, start = end minus the lookback).
func (c *Client) Range(ctx context.Context, severity string, start, end time.Time, limit int) report.Report {
	q := Query{Severity: severity, Start: start, End: end, Limit: limit}
	return c.run(ctx, q, "Fetched filtered log entries:")
}

// DataflowJob returns the newest logs for one Dataflow job.
func (c *Client) DataflowJob(ctx context.Context, jobID string, limit int) report.Report {
	if jobID == "" {
		return report.Errorf("dataflow job id is required")
	}
	header := fmt.Sprintf("Logs for Dataflow job %s:", jobID)
	return c.run(ctx, DataflowJobQuery(jobID, limit), header)
}

// DataprocJob returns the newest logs for one Dataproc job.
func (c *Client) DataprocJob(ctx context.Context, jobID string, limit int) report.Report {
	if jobID == "" {
		return report.Errorf("dataproc job id is required")
	}
	header := fmt.Sprintf("Logs for Dataproc job %s:", jobID)
	return c.run(ctx, DataprocJobQuery(jobID, limit), header)
}

// DataprocCluster returns the newest logs for one Dataproc cluster,
// selected by name, UUID, or both.
func (c *Client) DataprocCluster(ctx context.Context, name, uuid string, limit int) report.Report {
	if name == "" && uuid == "" {
		return report.Errorf("one of cluster name or cluster uuid is required")
	}
	label := name
	if label == "" {
		label = uuid
	}
	header := fmt.Sprintf("Logs for Dataproc cluster %s:", label)
	return c.run(ctx, DataprocClusterQuery(name, uuid, limit), header)
}
