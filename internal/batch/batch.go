// Package batch drives multi-file uploads through a bounded worker pool with
// per-file progress and a partial-failure report.
package batch

import (
	"context"
	"encoding/json"
	"io"

	"github.com/JaimeStill/casefile/internal/versions"
)

// Uploader records a single upload. versions.Machine and the HTTP client
// both satisfy it.
type Uploader interface {
	RecordUpload(ctx context.Context, cmd versions.UploadCommand) (*versions.Version, error)
}

// File is one queued upload. Prepare and Open are called once each, in that
// order, by the worker that uploads the file.
type File struct {
	Slot     versions.Slot
	Meta     versions.FileMeta
	Notes    string
	Uploader string
	Open     func() (io.ReadCloser, error)

	// Prepare, when set, completes Meta before the upload, for example by
	// sniffing the content type. An error rejects only this file.
	Prepare func(ctx context.Context, meta versions.FileMeta) (versions.FileMeta, error)
}

// JobState is the overall state of a batch job.
type JobState string

const (
	JobIdle      JobState = "idle"
	JobRunning   JobState = "running"
	JobCompleted JobState = "completed"
)

// TicketStatus is the state of one file within a job.
type TicketStatus string

const (
	TicketPending   TicketStatus = "pending"
	TicketUploading TicketStatus = "uploading"
	TicketSuccess   TicketStatus = "success"
	TicketError     TicketStatus = "error"
)

// Terminal reports whether the ticket has finished.
func (s TicketStatus) Terminal() bool {
	return s == TicketSuccess || s == TicketError
}

// Ticket tracks one file's progress.
type Ticket struct {
	Index    int          `json:"index"`
	Filename string       `json:"filename"`
	Percent  int          `json:"percent"`
	Status   TicketStatus `json:"status"`
	Error    string       `json:"error,omitempty"`
}

// ProgressFunc receives percent updates for the file at index. It is called
// from worker goroutines and must be safe for concurrent use.
type ProgressFunc func(index, percent int)

// Result is the tagged outcome for one file: Fulfilled with a Version or
// Rejected with Err.
type Result struct {
	Index    int
	Filename string
	Version  *versions.Version
	Err      error
}

// Fulfilled reports whether the upload produced a version.
func (r Result) Fulfilled() bool {
	return r.Err == nil && r.Version != nil
}

func (r Result) MarshalJSON() ([]byte, error) {
	out := struct {
		Index    int               `json:"index"`
		Filename string            `json:"filename"`
		Status   string            `json:"status"`
		Version  *versions.Version `json:"version,omitempty"`
		Reason   string            `json:"reason,omitempty"`
	}{
		Index:    r.Index,
		Filename: r.Filename,
		Status:   "fulfilled",
		Version:  r.Version,
	}
	if !r.Fulfilled() {
		out.Status = "rejected"
		if r.Err != nil {
			out.Reason = r.Err.Error()
		}
	}
	return json.Marshal(out)
}

// Outcome summarizes a finished job.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomePartial   Outcome = "partial"
	OutcomeFailed    Outcome = "failed"
)

// Report holds results in input order. Counts are derived from Results.
type Report struct {
	Results []Result
}

func (r Report) Succeeded() int {
	n := 0
	for _, res := range r.Results {
		if res.Fulfilled() {
			n++
		}
	}
	return n
}

func (r Report) Failed() int {
	return len(r.Results) - r.Succeeded()
}

// Outcome is failed only when nothing succeeded and something failed; any
// mix of results is partial.
func (r Report) Outcome() Outcome {
	switch succeeded, failed := r.Succeeded(), r.Failed(); {
	case failed == 0:
		return OutcomeCompleted
	case succeeded == 0:
		return OutcomeFailed
	default:
		return OutcomePartial
	}
}

// Rejected returns the failed results.
func (r Report) Rejected() []Result {
	var out []Result
	for _, res := range r.Results {
		if !res.Fulfilled() {
			out = append(out, res)
		}
	}
	return out
}

func (r Report) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Outcome   Outcome  `json:"outcome"`
		Succeeded int      `json:"succeeded"`
		Failed    int      `json:"failed"`
		Results   []Result `json:"results"`
	}{
		Outcome:   r.Outcome(),
		Succeeded: r.Succeeded(),
		Failed:    r.Failed(),
		Results:   r.Results,
	})
}
