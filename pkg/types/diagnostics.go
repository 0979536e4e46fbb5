package types

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// -----------------------------------------------------------------------------
// Diagnostics
// -----------------------------------------------------------------------------
//
// A structural check collects every issue it finds instead of stopping at the
// first one. Each issue names the affected structure, the file offset of the
// metadata word involved and, where useful, the expected and actual values.

// Severity classifies how serious a diagnostic issue is.
type Severity int

const (
	SevInfo     Severity = iota // unusual but valid
	SevWarning                  // space is wasted but no buffer is affected
	SevError                    // a buffer's contents are unreachable or wrong
	SevCritical                 // two buffers share storage
)

func (s Severity) String() string {
	switch s {
	case SevInfo:
		return "INFO"
	case SevWarning:
		return "WARNING"
	case SevError:
		return "ERROR"
	case SevCritical:
		return "CRITICAL"
	}
	return fmt.Sprintf("Severity(%d)", int(s))
}

func (s Severity) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// DiagCategory classifies the type of issue found.
type DiagCategory int

const (
	DiagStructure DiagCategory = iota // chain shape or record contents
	DiagIntegrity                     // ownership: a block referenced twice or not at all
	DiagSpace                         // leaked blocks
)

func (c DiagCategory) String() string {
	switch c {
	case DiagStructure:
		return "structure"
	case DiagIntegrity:
		return "integrity"
	case DiagSpace:
		return "space"
	}
	return fmt.Sprintf("DiagCategory(%d)", int(c))
}

func (c DiagCategory) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// Diagnostic is a single issue found in a heap.
type Diagnostic struct {
	Severity Severity     `json:"severity"`
	Category DiagCategory `json:"category"`

	Offset    int64  `json:"offset"`    // absolute file offset of the metadata word
	Structure string `json:"structure"` // "record", "chain", "indexer", "overflow"
	Ref       int64  `json:"ref"`       // buffer id or block id the issue is about

	Issue    string `json:"issue"`
	Expected any    `json:"expected,omitempty"`
	Actual   any    `json:"actual,omitempty"`
}

// DiagnosticReport collects all diagnostics found during a scan.
type DiagnosticReport struct {
	FilePath string        `json:"file_path,omitempty"`
	ScanTime time.Duration `json:"scan_time"`

	Diagnostics []Diagnostic `json:"diagnostics"`
	Summary     DiagSummary  `json:"summary"`

	BySeverity map[Severity][]Diagnostic `json:"-"`
	ByOffset   []Diagnostic              `json:"-"` // sorted by offset after Finalize
}

// DiagSummary provides quick statistics.
type DiagSummary struct {
	Critical int `json:"critical"`
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
	Info     int `json:"info"`
}

// NewDiagnosticReport creates an empty report.
func NewDiagnosticReport() *DiagnosticReport {
	return &DiagnosticReport{BySeverity: make(map[Severity][]Diagnostic)}
}

// Add adds a diagnostic to the report and updates the summary.
func (r *DiagnosticReport) Add(d Diagnostic) {
	r.Diagnostics = append(r.Diagnostics, d)
	switch d.Severity {
	case SevCritical:
		r.Summary.Critical++
	case SevError:
		r.Summary.Errors++
	case SevWarning:
		r.Summary.Warnings++
	case SevInfo:
		r.Summary.Info++
	}
	r.BySeverity[d.Severity] = append(r.BySeverity[d.Severity], d)
}

// Finalize sorts diagnostics by offset.
func (r *DiagnosticReport) Finalize() {
	r.ByOffset = make([]Diagnostic, len(r.Diagnostics))
	copy(r.ByOffset, r.Diagnostics)
	sort.SliceStable(r.ByOffset, func(i, j int) bool {
		return r.ByOffset[i].Offset < r.ByOffset[j].Offset
	})
}

// HasErrors returns true if any errors or critical issues were found.
func (r *DiagnosticReport) HasErrors() bool {
	return r.Summary.Critical > 0 || r.Summary.Errors > 0
}

// HasAnyIssues returns true if any issues were found (including warnings and info).
func (r *DiagnosticReport) HasAnyIssues() bool {
	return len(r.Diagnostics) > 0
}

// FormatJSON returns the report as formatted JSON (2-space indentation).
func (r *DiagnosticReport) FormatJSON() (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// FormatText returns a human-readable text report.
func (r *DiagnosticReport) FormatText() string {
	var b strings.Builder

	b.WriteString(strings.Repeat("=", 79) + "\n")
	b.WriteString("Buffer Heap Diagnostic Report\n")
	b.WriteString(strings.Repeat("=", 79) + "\n\n")
	if r.FilePath != "" {
		fmt.Fprintf(&b, "File:      %s\n", r.FilePath)
	}
	fmt.Fprintf(&b, "Scan time: %v\n\n", r.ScanTime)

	b.WriteString("SUMMARY\n")
	b.WriteString(strings.Repeat("-", 79) + "\n")
	fmt.Fprintf(&b, "  Critical: %d\n", r.Summary.Critical)
	fmt.Fprintf(&b, "  Errors:   %d\n", r.Summary.Errors)
	fmt.Fprintf(&b, "  Warnings: %d\n", r.Summary.Warnings)
	fmt.Fprintf(&b, "  Info:     %d\n\n", r.Summary.Info)

	if len(r.Diagnostics) == 0 {
		b.WriteString("No issues found.\n")
		return b.String()
	}

	b.WriteString("DIAGNOSTICS\n")
	b.WriteString(strings.Repeat("-", 79) + "\n\n")
	for _, severity := range []Severity{SevCritical, SevError, SevWarning, SevInfo} {
		diags := r.BySeverity[severity]
		if len(diags) == 0 {
			continue
		}
		fmt.Fprintf(&b, "%s (%d)\n", severity, len(diags))
		b.WriteString(strings.Repeat("~", 79) + "\n")
		for i, d := range diags {
			fmt.Fprintf(&b, "\n%d. [%s/%s] at offset 0x%X\n", i+1, d.Structure, d.Category, d.Offset)
			fmt.Fprintf(&b, "   %s\n", d.Issue)
			if d.Expected != nil {
				fmt.Fprintf(&b, "   Expected: %v\n", d.Expected)
			}
			if d.Actual != nil {
				fmt.Fprintf(&b, "   Actual:   %v\n", d.Actual)
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

// FormatTextCompact returns one line per issue, in offset order. Call
// Finalize first.
func (r *DiagnosticReport) FormatTextCompact() string {
	var b strings.Builder
	for _, d := range r.ByOffset {
		fmt.Fprintf(&b, "0x%08X [%s/%s/%s] %s\n", d.Offset, d.Severity, d.Structure, d.Category, d.Issue)
	}
	if len(r.Diagnostics) == 0 {
		b.WriteString("No issues found.\n")
	}
	return b.String()
}
