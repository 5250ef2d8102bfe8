// Package dataflow launches Apache Beam pipelines and template jobs on
// Google Cloud Dataflow by shelling out to the Python interpreter, Maven
// and gcloud, and scraping the identifiers the services print.
package dataflow

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

const maxJobNameLen = 63

var (
	invalidJobChars = regexp.MustCompile(`[^a-z0-9-]`)
	hyphenRuns      = regexp.MustCompile(`-+`)

	// jobIDPattern matches the job id Dataflow prints on launch,
	// e.g. 2026-08-01_12_30_00-123456789.
	jobIDPattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2}_\d{2}_\d{2}_\d{2}-\d+`)

	// stagedPathPatterns match the GCS path Maven prints after staging a
	// template, flex and classic respectively.
	stagedPathPatterns = []*regexp.Regexp{
		regexp.MustCompile(`Flex Template was staged!\s+(gs://\S+)`),
		regexp.MustCompile(`Template staged successfully\. It is available at\s+(gs://\S+)`),
	}

	jobDetailPatterns = map[string]*regexp.Regexp{
		"id":              regexp.MustCompile(`id: '([^']*)'`),
		"clientRequestId": regexp.MustCompile(`clientRequestId: '([^']*)'`),
		"createTime":      regexp.MustCompile(`createTime: '([^']*)'`),
	}
)

// SanitizeJobName rewrites a string into a valid Dataflow job name:
// lowercase, [a-z0-9-] only, no hyphen runs, starts with a letter, ends
// alphanumeric, at most 63 characters. An empty result gets a generated
// name.
func SanitizeJobName(name string) string {
	s := strings.ToLower(name)
	s = invalidJobChars.ReplaceAllString(s, "-")
	s = hyphenRuns.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")

	if s == "" {
		return fmt.Sprintf("job-%s", uuid.NewString()[:8])
	}
	if s[0] < 'a' || s[0] > 'z' {
		s = "job-" + s
	}
	if last := s[len(s)-1]; last == '-' {
		s = s[:len(s)-1]
	}
	if len(s) > maxJobNameLen {
		s = s[:maxJobNameLen]
	}
	return s
}

// FindJobID scrapes the Dataflow job id from launch output, or "" when
// absent.
func FindJobID(output string) string {
	return jobIDPattern.FindString(output)
}

// StagedTemplatePath scrapes the staged template GCS path from Maven
// output, or "" when absent.
func StagedTemplatePath(output string) string {
	for _, p := range stagedPathPatterns {
		if m := p.FindStringSubmatch(output); m != nil {
			return m[1]
		}
	}
	return ""
}

// jobDetails scrapes the launch output for the identifiers the service
// echoes back.
func jobDetails(output string) map[string]string {
	out := map[string]string{}
	if jobDetailPatterns["id"].FindStringSubmatch(output) == nil {
		return out
	}
	for key, p := range jobDetailPatterns {
		if m := p.FindStringSubmatch(output); m != nil {
			out[key] = m[1]
		}
	}
	return out
}
