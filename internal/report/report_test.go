package report

import (
	"strings"
	"testing"
)

func TestSuccessf(t *testing.T) {
	r := Successf("fetched %d entries", 3)
	if r.Status != StatusSuccess {
		t.Errorf("got status %q, want %q", r.Status, StatusSuccess)
	}
	if r.Report != "fetched 3 entries" {
		t.Errorf("got report %q", r.Report)
	}
	if r.IsError() {
		t.Error("success report should not be an error")
	}
	if r.Err() != nil {
		t.Errorf("Err() = %v, want nil", r.Err())
	}
}

func TestErrorf(t *testing.T) {
	r := Errorf("failed to fetch logs: %s", "permission denied")
	if !r.IsError() {
		t.Fatal("error report should be an error")
	}
	if r.Err() == nil {
		t.Fatal("Err() should be non-nil")
	}
	if got := r.String(); !strings.Contains(got, "permission denied") {
		t.Errorf("String() = %q, want the message included", got)
	}
}

func TestWarningfKeepsBody(t *testing.T) {
	r := Warningf("job launched", "archive failed: %s", "bucket gone")
	if r.Status != StatusWarning {
		t.Errorf("got status %q, want %q", r.Status, StatusWarning)
	}
	if r.IsError() {
		t.Error("warning is not an error")
	}
	out := r.String()
	if !strings.Contains(out, "job launched") || !strings.Contains(out, "bucket gone") {
		t.Errorf("String() = %q, want both body and warning", out)
	}
}
