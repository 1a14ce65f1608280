package report

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"bennypowers.dev/tplcache/internal/config"
	"bennypowers.dev/tplcache/internal/harness"
	"gopkg.in/yaml.v3"
)

// Report collects the unit reports of one check run
type Report struct {
	Version string                `json:"version" yaml:"version"`
	Units   []*harness.UnitReport `json:"units" yaml:"units"`
	Failed  []Failure             `json:"failed,omitempty" yaml:"failed,omitempty"`
}

// Failure records a file that could not be compiled or evaluated
type Failure struct {
	File  string `json:"file" yaml:"file"`
	Error string `json:"error" yaml:"error"`
}

// OK reports whether every unit passed and no file failed
func (r *Report) OK() bool {
	if len(r.Failed) > 0 {
		return false
	}
	for _, u := range r.Units {
		if !u.OK() {
			return false
		}
	}
	return true
}

// Write renders r to w in the given format
func Write(w io.Writer, r *Report, format string) error {
	switch format {
	case config.FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		return enc.Close()
	case config.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case config.FormatText, "":
		return writeText(w, r)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

func writeText(w io.Writer, r *Report) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tSLOT\tTAG\tPOSITION\tEVALS\tRESULT")
	for _, u := range r.Units {
		for _, s := range u.Slots {
			result := "ok"
			if !s.OK() {
				result = "FAIL"
			}
			fmt.Fprintf(tw, "%s\t%d\t%s\t%d:%d\t%d\t%s\n",
				u.Name, s.Site.Slot, s.Site.Tag, s.Site.Line, s.Site.Column, s.Evaluations, result)
		}
	}
	for _, f := range r.Failed {
		fmt.Fprintf(tw, "%s\t-\t-\t-\t-\tERROR: %s\n", f.File, f.Error)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	status := "PASS"
	if !r.OK() {
		status = "FAIL"
	}
	_, err := fmt.Fprintf(w, "%s: %d units, %d call sites, %d failures\n",
		status, len(r.Units), r.sites(), len(r.Failed))
	return err
}

func (r *Report) sites() int {
	n := 0
	for _, u := range r.Units {
		n += len(u.Slots)
	}
	return n
}
