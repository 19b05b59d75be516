package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/docker/go-units"
	"github.com/spf13/cobra"

	"github.com/JaimeStill/casefile/internal/batch"
	"github.com/JaimeStill/casefile/internal/versions"
)

type uploadOptions struct {
	slotOptions
	Notes       string
	Concurrency int
	FileTimeout string
	Quiet       bool
}

func newUploadCommand(root *rootOptions) *cobra.Command {
	opts := &uploadOptions{}

	cmd := &cobra.Command{
		Use:   "upload <file>...",
		Short: "Upload files as new versions of a document slot",
		Long: `Upload one or more files into a document slot. Each accepted file becomes
the slot's newest active version; files are uploaded concurrently and a
failure in one file does not stop the others.

Example:
  casefile upload --case c-1042 --type payslip march.pdf april.pdf`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpload(cmd, root, opts, args)
		},
	}
	opts.bind(cmd)
	cmd.Flags().StringVar(&opts.Notes, "notes", "", "notes attached to every uploaded version")
	cmd.Flags().IntVarP(&opts.Concurrency, "concurrency", "c", 3, "maximum simultaneous uploads")
	cmd.Flags().StringVar(&opts.FileTimeout, "file-timeout", "2m", "timeout for each file")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "suppress progress output")

	return cmd
}

func runUpload(cmd *cobra.Command, root *rootOptions, opts *uploadOptions, paths []string) error {
	cfg := &batch.Config{Concurrency: opts.Concurrency, FileTimeout: opts.FileTimeout}
	if err := cfg.Finalize(nil); err != nil {
		return err
	}

	slot := opts.slot()
	if err := slot.Validate(); err != nil {
		return err
	}

	files := make([]batch.File, len(paths))
	for i, path := range paths {
		files[i] = localFile(slot, path, opts.Notes)
	}

	var jobOpts []batch.JobOption
	if !opts.Quiet {
		jobOpts = append(jobOpts, batch.WithProgress(progressPrinter(cmd.ErrOrStderr(), files)))
	}

	o := batch.New(root.client(), cfg, root.logger(cmd))
	report := o.Upload(cmd.Context(), files, jobOpts...)

	out := cmd.OutOrStdout()
	var err error
	if root.Format == "json" {
		err = writeJSON(out, report)
	} else {
		err = writeReport(out, report)
	}
	if err != nil {
		return err
	}

	if report.Outcome() == batch.OutcomeFailed {
		return fmt.Errorf("all %d uploads failed", len(files))
	}
	return nil
}

// localFile describes path for upload. A path that cannot be read becomes
// a file that fails on its own without holding back the rest of the batch.
// Content inspection runs in the upload worker.
func localFile(slot versions.Slot, path, notes string) batch.File {
	file := batch.File{
		Slot:  slot,
		Meta:  versions.FileMeta{Filename: filepath.Base(path)},
		Notes: notes,
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}

	info, err := os.Stat(path)
	if err == nil && info.IsDir() {
		err = fmt.Errorf("%s is a directory", path)
	}
	if err != nil {
		file.Prepare = func(_ context.Context, meta versions.FileMeta) (versions.FileMeta, error) {
			return meta, err
		}
		return file
	}
	file.Meta.SizeBytes = info.Size()

	file.Prepare = func(ctx context.Context, meta versions.FileMeta) (versions.FileMeta, error) {
		f, err := os.Open(path)
		if err != nil {
			return meta, err
		}
		defer f.Close()

		contentType, pageCount, err := versions.Inspect(f, meta.Filename, versions.TypeByExtension(meta.Filename))
		if err != nil && contentType == "" {
			return meta, fmt.Errorf("inspect %s: %w", path, err)
		}
		meta.ContentType = contentType
		meta.PageCount = pageCount
		return meta, nil
	}
	return file
}

// progressPrinter reports each file at quarter steps so concurrent uploads
// stay readable.
func progressPrinter(w io.Writer, files []batch.File) batch.ProgressFunc {
	var mu sync.Mutex
	last := make([]int, len(files))

	return func(index, percent int) {
		mu.Lock()
		defer mu.Unlock()
		if percent < 100 && percent-last[index] < 25 {
			return
		}
		last[index] = percent
		meta := files[index].Meta
		fmt.Fprintf(w, "%-32s %8s %s%%\n", meta.Filename, units.HumanSize(float64(meta.SizeBytes)), strconv.Itoa(percent))
	}
}
