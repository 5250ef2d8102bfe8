// Package logs retrieves Cloud Logging entries for the plumber monitoring
// tools. Filter construction is kept separate from the logadmin client so
// the query shapes are testable without a project.
package logs

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

const (
	// DefaultLookback bounds every query that has no explicit start time.
	DefaultLookback = 90 * 24 * time.Hour

	// DefaultLimit caps results when the caller does not say how many.
	DefaultLimit = 10
)

// severities are the log levels a query may filter on. Anything else is
// treated as "no severity filter".
var severities = map[string]struct{}{
	"DEFAULT": {},
	"DEBUG":   {},
	"INFO":    {},
	"NOTICE":  {},
	"WARNING": {},
	"ERROR":   {},
}

// NormalizeSeverity maps user input onto a canonical severity name.
// Unknown or empty input yields "", meaning all severities.
func NormalizeSeverity(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if _, ok := severities[s]; ok {
		return s
	}
	return ""
}

// resourceTypes are the monitored-resource types the resource-scoped query
// accepts.
var resourceTypes = map[string]struct{}{
	"cloud_dataproc_cluster":                {},
	"dataflow_step":                         {},
	"gce_instance":                          {},
	"audited_resource":                      {},
	"project":                               {},
	"gce_firewall_rule":                     {},
	"gce_instance_group_manager":            {},
	"gce_instance_template":                 {},
	"gce_instance_group":                    {},
	"gcs_bucket":                            {},
	"api":                                   {},
	"pubsub_topic":                          {},
	"datapipelines.googleapis.com/Pipeline": {},
	"gce_subnetwork":                        {},
	"networking.googleapis.com/Location":    {},
	"client_auth_config_brand":              {},
	"service_account":                       {},
}

// ValidResourceType reports whether t is a supported resource type.
func ValidResourceType(t string) bool {
	_, ok := resourceTypes[t]
	return ok
}

// ResourceTypes returns the supported resource types, sorted.
func ResourceTypes() []string {
	out := make([]string, 0, len(resourceTypes))
	for t := range resourceTypes {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Query describes one Cloud Logging retrieval. The zero value fetches the
// DefaultLimit newest entries of any severity within the default lookback.
type Query struct {
	// Severity filters on one level when set to a canonical name.
	Severity string

	// ResourceType filters on resource.type when set.
	ResourceType string

	// Clauses are extra filter terms ANDed verbatim, e.g. a job-id label.
	Clauses []string

	// Start and End bound the time window. A zero Start defaults to
	// End minus DefaultLookback; a zero End means now.
	Start, End time.Time

	// Limit caps the number of entries; zero means DefaultLimit.
	Limit int
}

// Cap returns the effective result cap.
func (q Query) Cap() int {
	if q.Limit > 0 {
		return q.Limit
	}
	return DefaultLimit
}

// Filter renders the query as a Cloud Logging filter expression. now
// anchors the default window.
func (q Query) Filter(now time.Time) (string, error) {
	var terms []string

	if q.ResourceType != "" {
		if !ValidResourceType(q.ResourceType) {
			return "", fmt.Errorf("unsupported resource type %q (supported: %s)",
				q.ResourceType, strings.Join(ResourceTypes(), ", "))
		}
		terms = append(terms, fmt.Sprintf("resource.type=%q", q.ResourceType))
	}

	terms = append(terms, q.Clauses...)

	if sev := NormalizeSeverity(q.Severity); sev != "" {
		terms = append(terms, "severity = "+sev)
	}

	end := q.End
	if end.IsZero() {
		end = now
	}
	start := q.Start
	if start.IsZero() {
		start = end.Add(-DefaultLookback)
	}
	if end.Before(start) {
		return "", fmt.Errorf("end time %s is before start time %s",
			end.Format(time.RFC3339), start.Format(time.RFC3339))
	}

	terms = append(terms, fmt.Sprintf("timestamp >= %q", start.UTC().Format(time.RFC3339)))
	if !q.End.IsZero() {
		terms = append(terms, fmt.Sprintf("timestamp <= %q", end.UTC().Format(time.RFC3339)))
	}

	return strings.Join(terms, " AND "), nil
}

// DataflowJobQuery scopes a query to one Dataflow job's worker and step
// logs.
func DataflowJobQuery(jobID string, limit int) Query {
	return Query{
		ResourceType: "dataflow_step",
		Clauses:      []string{fmt.Sprintf("resource.labels.job_id=%q", jobID)},
		Limit:        limit,
	}
}

// DataprocJobQuery scopes a query to one Dataproc job via the job-id label
// its driver output carries.
func DataprocJobQuery(jobID string, limit int) Query {
	return Query{
		ResourceType: "cloud_dataproc_cluster",
		Clauses:      []string{fmt.Sprintf("labels.%q=%q", "dataproc.googleapis.com/job_id", jobID)},
		Limit:        limit,
	}
}

// DataprocClusterQuery scopes a query to one Dataproc cluster by name, and
// by UUID too when known (names are reusable, UUIDs are not).
func DataprocClusterQuery(name, uuid string, limit int) Query {
	q := Query{
		ResourceType: "cloud_dataproc_cluster",
		Limit:        limit,
	}
	if name != "" {
		q.Clauses = append(q.Clauses, fmt.Sprintf("resource.labels.cluster_name=%q", name))
	}
	if uuid != "" {
		q.Clauses = append(q.Clauses, fmt.Sprintf("resource.labels.cluster_uuid=%q", uuid))
	}
	return q
}
