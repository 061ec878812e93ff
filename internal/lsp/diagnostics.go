package lsp

import (
	"go.lsp.dev/protocol"

	"github.com/tangzhangming/pcode/internal/errors"
	"github.com/tangzhangming/pcode/internal/i18n"
	"github.com/tangzhangming/pcode/internal/token"
)

// diagnosticSource 诊断来源名
const diagnosticSource = "pcode"

// getDiagnostics 获取文档的诊断信息：语法错误在前，其后是推断结果
func (s *Server) getDiagnostics(doc *Document) []protocol.Diagnostic {
	diagnostics := []protocol.Diagnostic{}

	for _, err := range doc.ParseErrs {
		line := err.Pos.Line - 1
		_, startCol, endCol := doc.GetWordRangeAt(line, err.Pos.Column-1)
		if endCol <= startCol {
			startCol, endCol = err.Pos.Column-1, err.Pos.Column
		}
		diagnostics = append(diagnostics, protocol.Diagnostic{
			Range: protocol.Range{
				Start: position(line, startCol),
				End:   position(line, endCol),
			},
			Severity: protocol.DiagnosticSeverityError,
			Code:     errors.S0001,
			Source:   diagnosticSource,
			Message:  err.Message,
		})
	}

	res := doc.Result
	if res == nil {
		return diagnostics
	}
	for _, d := range res.Diagnostics() {
		diagnostics = append(diagnostics, TypeErrorToDiagnostic(d))
	}
	if res.TimedOut {
		diagnostics = append(diagnostics, protocol.Diagnostic{
			Range:    protocol.Range{Start: position(0, 0), End: position(0, 0)},
			Severity: protocol.DiagnosticSeverityInformation,
			Source:   diagnosticSource,
			Message:  i18n.T(i18n.MsgReportTimedOut),
		})
	}
	return diagnostics
}

// TypeErrorToDiagnostic 将推断诊断转换为 LSP 诊断
func TypeErrorToDiagnostic(d *errors.TypeError) protocol.Diagnostic {
	diag := protocol.Diagnostic{
		Range:    spanToRange(d.Span),
		Severity: severityOf(d.Level),
		Code:     d.Code,
		Source:   diagnosticSource,
		Message:  d.Message,
	}
	return diag
}

func severityOf(level errors.Level) protocol.DiagnosticSeverity {
	switch level {
	case errors.LevelWarning:
		return protocol.DiagnosticSeverityWarning
	case errors.LevelNote:
		return protocol.DiagnosticSeverityInformation
	case errors.LevelHelp:
		return protocol.DiagnosticSeverityHint
	}
	return protocol.DiagnosticSeverityError
}

// spanToRange 行列从 1 开始转换为从 0 开始；空范围扩展为一个字符
func spanToRange(span token.Span) protocol.Range {
	start := position(span.Start.Line-1, span.Start.Column-1)
	end := start
	if span.End.Line > 0 {
		end = position(span.End.Line-1, span.End.Column-1)
	}
	if end.Line < start.Line || (end.Line == start.Line && end.Character <= start.Character) {
		end = protocol.Position{Line: start.Line, Character: start.Character + 1}
	}
	return protocol.Range{Start: start, End: end}
}

func position(line, character int) protocol.Position {
	if line < 0 {
		line = 0
	}
	if character < 0 {
		character = 0
	}
	return protocol.Position{Line: uint32(line), Character: uint32(character)}
}
