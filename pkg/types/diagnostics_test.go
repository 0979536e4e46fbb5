package types

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiagnosticReport_SummaryAndOrder(t *testing.T) {
	r := NewDiagnosticReport()
	r.Add(Diagnostic{Severity: SevWarning, Category: DiagSpace, Structure: "indexer", Offset: 0x40, Issue: "leaked"})
	r.Add(Diagnostic{Severity: SevCritical, Category: DiagIntegrity, Structure: "chain", Offset: 0x20, Issue: "shared"})
	r.Finalize()

	assert.Equal(t, DiagSummary{Critical: 1, Warnings: 1}, r.Summary)
	assert.True(t, r.HasErrors())
	assert.True(t, r.HasAnyIssues())
	require.Len(t, r.ByOffset, 2)
	assert.Equal(t, "shared", r.ByOffset[0].Issue)

	compact := r.FormatTextCompact()
	assert.True(t, strings.HasPrefix(compact, "0x00000020 [CRITICAL/chain/integrity] shared"), compact)
	assert.Contains(t, r.FormatText(), "CRITICAL (1)")
}

func TestDiagnosticReport_Empty(t *testing.T) {
	r := NewDiagnosticReport()
	r.Finalize()
	assert.False(t, r.HasAnyIssues())
	assert.Contains(t, r.FormatText(), "No issues found.")
	assert.Equal(t, "No issues found.\n", r.FormatTextCompact())
}

func TestDiagnosticReport_JSONUsesNames(t *testing.T) {
	r := NewDiagnosticReport()
	r.Add(Diagnostic{Severity: SevError, Category: DiagStructure, Structure: "record", Issue: "short chain", Expected: 3, Actual: 1})

	out, err := r.FormatJSON()
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	diags := decoded["diagnostics"].([]any)
	first := diags[0].(map[string]any)
	assert.Equal(t, "ERROR", first["severity"])
	assert.Equal(t, "structure", first["category"])
}
