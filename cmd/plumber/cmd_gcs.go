package main

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"plumber/internal/gcp/gcs"
)

var gcsCmd = &cobra.Command{
	Use:   "gcs",
	Short: "Inspect and move objects in Cloud Storage",
}

var gcsLsCmd = &cobra.Command{
	Use:   "ls gs://bucket[/prefix]",
	Short: "List objects under a prefix",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bucket, prefix, err := gcs.ParsePath(args[0])
		if err != nil {
			return err
		}
		store, err := gcs.NewStore(cmd.Context(), logger)
		if err != nil {
			return err
		}
		defer store.Close()

		objects, err := store.List(cmd.Context(), bucket, prefix)
		if err != nil {
			return err
		}
		if len(objects) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no objects found")
			return nil
		}
		for _, o := range objects {
			fmt.Fprintf(cmd.OutOrStdout(), "gs://%s/%s\n", bucket, o)
		}
		return nil
	},
}

var gcsUploadCmd = &cobra.Command{
	Use:   "upload <local-file-or-dir> gs://bucket[/prefix]",
	Short: "Upload a local file, or a directory recursively",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		info, err := os.Stat(args[0])
		if err != nil {
			return err
		}
		bucket, prefix, err := gcs.ParsePath(args[1])
		if err != nil {
			return err
		}

		store, err := gcs.NewStore(cmd.Context(), logger)
		if err != nil {
			return err
		}
		defer store.Close()

		if info.IsDir() {
			objects, err := store.UploadDir(cmd.Context(), bucket, prefix, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "uploaded %d objects to gs://%s/%s\n", len(objects), bucket, prefix)
			return nil
		}

		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		object := prefix
		if object == "" || strings.HasSuffix(args[1], "/") {
			object = path.Join(prefix, filepath.Base(args[0]))
		}
		if err := store.Upload(cmd.Context(), bucket, object, "application/octet-stream", data); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "uploaded gs://%s/%s (%d bytes)\n", bucket, object, len(data))
		return nil
	},
}

var gcsDownloadCmd = &cobra.Command{
	Use:   "download gs://bucket/object [local-file]",
	Short: "Download an object",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		bucket, object, err := gcs.ParsePath(args[0])
		if err != nil {
			return err
		}
		if object == "" {
			return fmt.Errorf("object name required in %q", args[0])
		}
		dest := path.Base(object)
		if len(args) == 2 {
			dest = args[1]
		}

		store, err := gcs.NewStore(cmd.Context(), logger)
		if err != nil {
			return err
		}
		defer store.Close()

		data, err := store.Download(cmd.Context(), bucket, object)
		if err != nil {
			return err
		}
		if err := os.WriteFile(dest, data, 0o644); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "downloaded gs://%s/%s to %s (%d bytes)\n", bucket, object, dest, len(data))
		return nil
	},
}

var gcsBucketsCmd = &cobra.Command{
	Use:   "buckets",
	Short: "List the project's buckets",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireProject(); err != nil {
			return err
		}
		store, err := gcs.NewStore(cmd.Context(), logger)
		if err != nil {
			return err
		}
		defer store.Close()

		buckets, err := store.Buckets(cmd.Context(), cfg.Cloud.ProjectID)
		if err != nil {
			return err
		}
		if len(buckets) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no buckets found")
			return nil
		}
		for _, b := range buckets {
			fmt.Fprintf(cmd.OutOrStdout(), "gs://%s\n", b)
		}
		return nil
	},
}

var gcsMkBucketCmd = &cobra.Command{
	Use:   "mkbucket <name>",
	Short: "Create a bucket in the configured project and location",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireProject(); err != nil {
			return err
		}
		store, err := gcs.NewStore(cmd.Context(), logger)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.CreateBucket(cmd.Context(), cfg.Cloud.ProjectID, args[0], cfg.Cloud.Location); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created gs://%s\n", args[0])
		return nil
	},
}

var gcsRmCmd = &cobra.Command{
	Use:   "rm gs://bucket[/object]",
	Short: "Delete an object, or an empty bucket",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bucket, object, err := gcs.ParsePath(args[0])
		if err != nil {
			return err
		}
		store, err := gcs.NewStore(cmd.Context(), logger)
		if err != nil {
			return err
		}
		defer store.Close()

		if object == "" {
			if err := store.DeleteBucket(cmd.Context(), bucket); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted gs://%s\n", bucket)
			return nil
		}
		if err := store.DeleteObject(cmd.Context(), bucket, object); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted gs://%s/%s\n", bucket, object)
		return nil
	},
}

func init() {
	gcsCmd.AddCommand(gcsLsCmd, gcsUploadCmd, gcsDownloadCmd, gcsBucketsCmd, gcsMkBucketCmd, gcsRmCmd)
	rootCmd.AddCommand(gcsCmd)
}
