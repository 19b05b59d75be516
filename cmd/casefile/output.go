package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/docker/go-units"

	"github.com/JaimeStill/casefile/internal/batch"
	"github.com/JaimeStill/casefile/internal/versions"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeVersions(w io.Writer, vs []versions.Version) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tID\tFILE\tSIZE\tRETENTION\tVERIFICATION\tUPLOADER\tCREATED")
	for _, v := range vs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			v.Number,
			v.ID,
			v.Filename,
			units.HumanSize(float64(v.SizeBytes)),
			v.Retention,
			verificationLabel(v),
			v.Uploader,
			v.CreatedAt.Local().Format(time.DateTime),
		)
	}
	return tw.Flush()
}

func verificationLabel(v versions.Version) string {
	if v.Verification == versions.VerificationRejected && v.RejectionReason != "" {
		return fmt.Sprintf("%s (%s)", v.Verification, v.RejectionReason)
	}
	return string(v.Verification)
}

func writeReport(w io.Writer, r batch.Report) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tSTATUS\tVERSION\tDETAIL")
	for _, res := range r.Results {
		if res.Fulfilled() {
			fmt.Fprintf(tw, "%s\tfulfilled\t%d\t%s\n", res.Filename, res.Version.Number, res.Version.ID)
			continue
		}
		fmt.Fprintf(tw, "%s\trejected\t-\t%v\n", res.Filename, res.Err)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%s: %d uploaded, %d failed\n", r.Outcome(), r.Succeeded(), r.Failed())
	return err
}
