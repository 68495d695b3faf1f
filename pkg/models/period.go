package models

import (
	"time"
)

// PeriodSource records how a period was identified from its column header.
type PeriodSource string

const (
	SourceDetected           PeriodSource = "detected"
	SourcePositionalFallback PeriodSource = "positional-fallback"
)

// Period is one fiscal interval on the statement's period axis.
// Periods returned by the resolver are ordered chronologically (oldest first).
type Period struct {
	Index       int          `json:"index"`  // position on the sorted axis
	Column      int          `json:"column"` // data column the values come from
	Header      string       `json:"header"`
	Label       string       `json:"label"`
	Start       time.Time    `json:"start,omitempty"`
	End         time.Time    `json:"end,omitempty"`
	Approximate bool         `json:"approximate"`
	Pattern     string       `json:"pattern,omitempty"`
	Source      PeriodSource `json:"source"`
}

func (p Period) Detected() bool {
	return p.Source == SourceDetected
}

// WarningKind classifies a non-fatal signal raised while preparing the input.
type WarningKind string

const (
	WarningPositionalFallback WarningKind = "positional_fallback"
	WarningPartialFallback    WarningKind = "partial_fallback"
	WarningReordered          WarningKind = "reordered"
	WarningDuplicatePeriod    WarningKind = "duplicate_period"
	WarningNoteColumns        WarningKind = "note_columns_excluded"
	WarningColumnMismatch     WarningKind = "column_mismatch"
)

type Warning struct {
	Kind    WarningKind `json:"kind"`
	Message string      `json:"message"`
}

// ExcludedColumn is a source column dropped before numeric parsing.
type ExcludedColumn struct {
	Column int    `json:"column"`
	Header string `json:"header"`
	Reason string `json:"reason"`
}
