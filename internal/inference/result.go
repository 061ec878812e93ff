package inference

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/encoding/json"

	"github.com/tangzhangming/pcode/internal/errors"
	"github.com/tangzhangming/pcode/internal/i18n"
)

// ============================================================================
// Result
// ============================================================================

// Result 一次推断的汇总；错误与警告按源代码位置排序
type Result struct {
	RunID               uuid.UUID
	Success             bool
	Mode                Mode
	State               State
	NodesAnalyzed       int64
	TypesInferred       int64
	Unresolved          int64
	Errors              []*errors.TypeError
	Warnings            []*errors.TypeError
	Elapsed             time.Duration
	CacheHits           int64
	ExternalResolutions int64
	TimedOut            bool
	Cancelled           bool
}

func emptyResult(mode Mode) *Result {
	return &Result{
		RunID:   uuid.New(),
		Success: true,
		Mode:    mode,
		State:   Done,
	}
}

// HasErrors 是否有错误级别的诊断
func (r *Result) HasErrors() bool {
	return len(r.Errors) > 0
}

// Diagnostics 错误与警告合并后按位置排序
func (r *Result) Diagnostics() []*errors.TypeError {
	all := make([]*errors.TypeError, 0, len(r.Errors)+len(r.Warnings))
	all = append(all, r.Errors...)
	all = append(all, r.Warnings...)
	errors.SortByPosition(all)
	return all
}

// Summary 一行统计
func (r *Result) Summary() string {
	return i18n.T(i18n.MsgReportSummary,
		r.Mode, r.NodesAnalyzed, r.TypesInferred, r.Unresolved,
		r.CacheHits, r.ExternalResolutions, r.Elapsed.Round(time.Microsecond))
}

// Report 人类可读的报告：统计、中断说明、错误、警告
func (r *Result) Report() string {
	var sb strings.Builder
	sb.WriteString(r.Summary())
	sb.WriteByte('\n')

	switch {
	case r.TimedOut:
		sb.WriteString(i18n.T(i18n.MsgReportTimedOut))
		sb.WriteByte('\n')
	case r.Cancelled:
		sb.WriteString(i18n.T(i18n.MsgReportCanceled))
		sb.WriteByte('\n')
	}

	if len(r.Errors) == 0 && len(r.Warnings) == 0 {
		sb.WriteString(i18n.T(i18n.MsgReportClean))
		sb.WriteByte('\n')
		return sb.String()
	}
	writeGroup(&sb, i18n.T(i18n.MsgReportErrors, len(r.Errors)), r.Errors)
	writeGroup(&sb, i18n.T(i18n.MsgReportWarnings, len(r.Warnings)), r.Warnings)
	return sb.String()
}

func writeGroup(sb *strings.Builder, title string, list []*errors.TypeError) {
	if len(list) == 0 {
		return
	}
	sb.WriteString(title)
	sb.WriteByte('\n')
	for _, e := range list {
		fmt.Fprintf(sb, "  %s: [%s] %s\n", e.Span.Start, e.Code, e.Message)
	}
}

// ----------------------------------------------------------------------------
// JSON
// ----------------------------------------------------------------------------

type jsonPosition struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

type jsonDiagnostic struct {
	*errors.TypeError
	File  string       `json:"file,omitempty"`
	Start jsonPosition `json:"start"`
	End   jsonPosition `json:"end"`
}

type jsonResult struct {
	RunID               string           `json:"run_id"`
	Success             bool             `json:"success"`
	Mode                Mode             `json:"mode"`
	State               State            `json:"state"`
	NodesAnalyzed       int64            `json:"nodes_analyzed"`
	TypesInferred       int64            `json:"types_inferred"`
	Unresolved          int64            `json:"unresolved"`
	CacheHits           int64            `json:"cache_hits"`
	ExternalResolutions int64            `json:"external_resolutions"`
	ElapsedMS           float64          `json:"elapsed_ms"`
	TimedOut            bool             `json:"timed_out"`
	Cancelled           bool             `json:"cancelled"`
	Errors              []jsonDiagnostic `json:"errors"`
	Warnings            []jsonDiagnostic `json:"warnings"`
}

func toJSONDiagnostics(list []*errors.TypeError) []jsonDiagnostic {
	out := make([]jsonDiagnostic, 0, len(list))
	for _, e := range list {
		out = append(out, jsonDiagnostic{
			TypeError: e,
			File:      e.Span.Start.Filename,
			Start:     jsonPosition{Line: e.Span.Start.Line, Column: e.Span.Start.Column},
			End:       jsonPosition{Line: e.Span.End.Line, Column: e.Span.End.Column},
		})
	}
	return out
}

// MarshalJSON 实现 json.Marshaler
func (r *Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonResult{
		RunID:               r.RunID.String(),
		Success:             r.Success,
		Mode:                r.Mode,
		State:               r.State,
		NodesAnalyzed:       r.NodesAnalyzed,
		TypesInferred:       r.TypesInferred,
		Unresolved:          r.Unresolved,
		CacheHits:           r.CacheHits,
		ExternalResolutions: r.ExternalResolutions,
		ElapsedMS:           float64(r.Elapsed) / float64(time.Millisecond),
		TimedOut:            r.TimedOut,
		Cancelled:           r.Cancelled,
		Errors:              toJSONDiagnostics(r.Errors),
		Warnings:            toJSONDiagnostics(r.Warnings),
	})
}
