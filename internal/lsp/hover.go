package lsp

import (
	"fmt"
	"strings"

	"github.com/segmentio/encoding/json"
	"go.lsp.dev/protocol"

	"github.com/tangzhangming/pcode/internal/ast"
	"github.com/tangzhangming/pcode/internal/token"
	"github.com/tangzhangming/pcode/internal/types"
)

// maxHoverExpr 悬停中显示的表达式最大长度
const maxHoverExpr = 60

// handleHover 处理悬停请求
func (s *Server) handleHover(id json.RawMessage, params json.RawMessage) {
	var p protocol.HoverParams
	if err := json.Unmarshal(params, &p); err != nil {
		s.sendError(id, codeParseError, "Parse error")
		return
	}

	doc := s.documents.Get(string(p.TextDocument.URI))
	if doc == nil {
		s.sendResult(id, nil)
		return
	}

	hover := s.getHoverInfo(doc, int(p.Position.Line), int(p.Position.Character))
	if hover == nil {
		s.sendResult(id, nil)
		return
	}
	s.sendResult(id, hover)
}

// getHoverInfo 显示位置处最内层表达式推断出的类型
func (s *Server) getHoverInfo(doc *Document, line, character int) *protocol.Hover {
	if doc.Program == nil {
		return nil
	}
	if doc.Result == nil && s.workspace != nil {
		s.workspace.Analyze(s.ctx, doc)
	}

	expr := ast.ExpressionAt(doc.Program, token.Position{Line: line + 1, Column: character + 1})
	if expr == nil {
		return nil
	}
	typ := expr.Meta().InferredType()
	if typ == nil {
		return nil
	}

	var sb strings.Builder
	sb.WriteString("```pcode\n")
	fmt.Fprintf(&sb, "%s: %s\n", shorten(expr.String()), types.Display(typ))
	sb.WriteString("```")

	switch e := expr.(type) {
	case *ast.Identifier:
		if s.workspace != nil {
			if fn, ok := s.workspace.catalog.Function(e.Name); ok {
				fmt.Fprintf(&sb, "\n\n```pcode\n%s\n```", fn.String())
			}
		}
	case *ast.MemberAccess:
		if e.ResolvedMethod != nil {
			fmt.Fprintf(&sb, "\n\n%s.%s", e.ResolvedMethod.DeclaringTypeName(), e.ResolvedMethod.MemberName())
		}
	}

	rng := spanToRange(ast.SpanOf(expr))
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.Markdown,
			Value: sb.String(),
		},
		Range: &rng,
	}
}

func shorten(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > maxHoverExpr {
		return s[:maxHoverExpr-3] + "..."
	}
	return s
}
