package gcs

import (
	"context"
	"fmt"
	"strings"

	"plumber/internal/report"
	"plumber/internal/tools"
)

// Tools exposes the storage operations to the tool registry.
func (s *Store) Tools() []tools.Tool {
	pathProp := tools.Property{Type: "string", Description: "gs://bucket/prefix path"}

	return []tools.Tool{
		{
			Name:        "list_gcs_objects",
			Description: "List the objects under a gs:// path.",
			Category:    tools.CategoryGeneral,
			Execute: func(ctx context.Context, args map[string]any) report.Report {
				bucket, prefix, err := ParsePath(tools.StringArg(args, "path", ""))
				if err != nil {
					return report.Errorf("%v", err)
				}
				objects, err := s.List(ctx, bucket, prefix)
				if err != nil {
					return report.Errorf("%v", err)
				}
				if len(objects) == 0 {
					return report.Success("no objects found")
				}
				var b strings.Builder
				fmt.Fprintf(&b, "Found %d objects:\n", len(objects))
				for _, o := range objects {
					fmt.Fprintf(&b, "gs://%s/%s\n", bucket, o)
				}
				return report.Success(strings.TrimRight(b.String(), "\n"))
			},
			Schema: tools.Schema{
				Required:   []string{"path"},
				Properties: map[string]tools.Property{"path": pathProp},
			},
		},
		{
			Name:        "upload_gcs_object",
			Description: "Upload text content to a gs:// object.",
			Category:    tools.CategoryGeneral,
			Execute: func(ctx context.Context, args map[string]any) report.Report {
				bucket, object, err := ParsePath(tools.StringArg(args, "path", ""))
				if err != nil {
					return report.Errorf("%v", err)
				}
				if object == "" {
					return report.Errorf("object name required in path")
				}
				content := tools.StringArg(args, "content", "")
				if err := s.Upload(ctx, bucket, object, "text/plain", []byte(content)); err != nil {
					return report.Errorf("%v", err)
				}
				return report.Successf("uploaded gs://%s/%s (%d bytes)", bucket, object, len(content))
			},
			Schema: tools.Schema{
				Required: []string{"path", "content"},
				Properties: map[string]tools.Property{
					"path":    pathProp,
					"content": {Type: "string", Description: "content to write"},
				},
			},
		},
		{
			Name:        "download_gcs_object",
			Description: "Download a gs:// object and return its content.",
			Category:    tools.CategoryGeneral,
			Execute: func(ctx context.Context, args map[string]any) report.Report {
				bucket, object, err := ParsePath(tools.StringArg(args, "path", ""))
				if err != nil {
					return report.Errorf("%v", err)
				}
				if object == "" {
					return report.Errorf("object name required in path")
				}
				data, err := s.Download(ctx, bucket, object)
				if err != nil {
					return report.Errorf("%v", err)
				}
				return report.Success(string(data))
			},
			Schema: tools.Schema{
				Required:   []string{"path"},
				Properties: map[string]tools.Property{"path": pathProp},
			},
		},
		{
			Name:        "delete_gcs_object",
			Description: "Delete a gs:// object.",
			Category:    tools.CategoryGeneral,
			Execute: func(ctx context.Context, args map[string]any) report.Report {
				bucket, object, err := ParsePath(tools.StringArg(args, "path", ""))
				if err != nil {
					return report.Errorf("%v", err)
				}
				if object == "" {
					return report.Errorf("object name required in path")
				}
				if err := s.DeleteObject(ctx, bucket, object); err != nil {
					return report.Errorf("%v", err)
				}
				return report.Successf("deleted gs://%s/%s", bucket, object)
			},
			Schema: tools.Schema{
				Required:   []string{"path"},
				Properties: map[string]tools.Property{"path": pathProp},
			},
		},
	}
}
