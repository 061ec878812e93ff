package ast

import (
	"strings"

	"github.com/tangzhangming/pcode/internal/token"
)

// ============================================================================
// 语句节点
// ============================================================================

// BlockStmt 语句序列，构成一个词法作用域
type BlockStmt struct {
	Start      token.Position
	Statements []Statement
	Stop       token.Position
}

func (s *BlockStmt) Pos() token.Position { return s.Start }
func (s *BlockStmt) End() token.Position { return s.Stop }
func (s *BlockStmt) String() string {
	var parts []string
	for _, stmt := range s.Statements {
		parts = append(parts, stmt.String())
	}
	return strings.Join(parts, "; ")
}
func (s *BlockStmt) stmtNode() {}

// ExprStmt 表达式语句
type ExprStmt struct {
	Expr Expression
}

func (s *ExprStmt) Pos() token.Position { return s.Expr.Pos() }
func (s *ExprStmt) End() token.Position { return s.Expr.End() }
func (s *ExprStmt) String() string      { return s.Expr.String() }
func (s *ExprStmt) stmtNode()           {}

// VarScope 变量声明的作用域关键字
type VarScope int

const (
	ScopeLocal VarScope = iota
	ScopeGlobal
	ScopeComponent
	ScopeInstance
)

func (s VarScope) String() string {
	switch s {
	case ScopeGlobal:
		return "Global"
	case ScopeComponent:
		return "Component"
	case ScopeInstance:
		return "instance"
	default:
		return "Local"
	}
}

// VarName 声明中的单个变量
type VarName struct {
	Token token.Token // &name
	Init  Expression  // 可为 nil
}

// VarDeclStmt 变量声明 (Local string &a = "x", &b;)
type VarDeclStmt struct {
	ScopeToken token.Token
	Scope      VarScope
	Type       TypeNode
	Names      []*VarName
	Semicolon  token.Token
}

func (s *VarDeclStmt) Pos() token.Position { return s.ScopeToken.Pos }
func (s *VarDeclStmt) End() token.Position {
	if n := len(s.Names); n > 0 {
		last := s.Names[n-1]
		if last.Init != nil {
			return last.Init.End()
		}
		return endOf(last.Token)
	}
	return s.Type.End()
}
func (s *VarDeclStmt) String() string {
	var names []string
	for _, n := range s.Names {
		names = append(names, n.Token.Literal)
	}
	return s.Scope.String() + " " + s.Type.String() + " " + strings.Join(names, ", ")
}
func (s *VarDeclStmt) stmtNode() {}

// IfStmt If ... Then ... Else ... End-If
type IfStmt struct {
	IfToken   token.Token
	Condition Expression
	Then      *BlockStmt
	Else      *BlockStmt // 可为 nil
	EndToken  token.Token
}

func (s *IfStmt) Pos() token.Position { return s.IfToken.Pos }
func (s *IfStmt) End() token.Position { return endOf(s.EndToken) }
func (s *IfStmt) String() string      { return "If " + s.Condition.String() }
func (s *IfStmt) stmtNode()           {}

// ForStmt For &i = a To b Step c ... End-For
type ForStmt struct {
	ForToken token.Token
	Variable Expression
	From     Expression
	To       Expression
	Step     Expression // 可为 nil
	Body     *BlockStmt
	EndToken token.Token
}

func (s *ForStmt) Pos() token.Position { return s.ForToken.Pos }
func (s *ForStmt) End() token.Position { return endOf(s.EndToken) }
func (s *ForStmt) String() string      { return "For " + s.Variable.String() }
func (s *ForStmt) stmtNode()           {}

// WhileStmt While cond ... End-While
type WhileStmt struct {
	WhileToken token.Token
	Condition  Expression
	Body       *BlockStmt
	EndToken   token.Token
}

func (s *WhileStmt) Pos() token.Position { return s.WhileToken.Pos }
func (s *WhileStmt) End() token.Position { return endOf(s.EndToken) }
func (s *WhileStmt) String() string      { return "While " + s.Condition.String() }
func (s *WhileStmt) stmtNode()           {}

// RepeatStmt Repeat ... Until cond
type RepeatStmt struct {
	RepeatToken token.Token
	Body        *BlockStmt
	Condition   Expression
}

func (s *RepeatStmt) Pos() token.Position { return s.RepeatToken.Pos }
func (s *RepeatStmt) End() token.Position { return s.Condition.End() }
func (s *RepeatStmt) String() string      { return "Repeat Until " + s.Condition.String() }
func (s *RepeatStmt) stmtNode()           {}

// WhenClause Evaluate 的一个分支
type WhenClause struct {
	WhenToken token.Token
	Operator  token.Token // 可选的比较运算符 (When > 5)
	Value     Expression
	Body      *BlockStmt
}

// EvaluateStmt Evaluate x When a ... When-Other ... End-Evaluate
type EvaluateStmt struct {
	EvaluateToken token.Token
	Subject       Expression
	Whens         []*WhenClause
	Other         *BlockStmt // 可为 nil
	EndToken      token.Token
}

func (s *EvaluateStmt) Pos() token.Position { return s.EvaluateToken.Pos }
func (s *EvaluateStmt) End() token.Position { return endOf(s.EndToken) }
func (s *EvaluateStmt) String() string      { return "Evaluate " + s.Subject.String() }
func (s *EvaluateStmt) stmtNode()           {}

// ReturnStmt Return [expr]
type ReturnStmt struct {
	ReturnToken token.Token
	Value       Expression // 可为 nil
}

func (s *ReturnStmt) Pos() token.Position { return s.ReturnToken.Pos }
func (s *ReturnStmt) End() token.Position {
	if s.Value != nil {
		return s.Value.End()
	}
	return endOf(s.ReturnToken)
}
func (s *ReturnStmt) String() string {
	if s.Value != nil {
		return "Return " + s.Value.String()
	}
	return "Return"
}
func (s *ReturnStmt) stmtNode() {}

// CatchClause catch Type &e
type CatchClause struct {
	CatchToken token.Token
	Type       TypeNode
	Variable   token.Token
	Body       *BlockStmt
}

// TryStmt try ... catch ... end-try
type TryStmt struct {
	TryToken token.Token
	Body     *BlockStmt
	Catches  []*CatchClause
	EndToken token.Token
}

func (s *TryStmt) Pos() token.Position { return s.TryToken.Pos }
func (s *TryStmt) End() token.Position { return endOf(s.EndToken) }
func (s *TryStmt) String() string      { return "try" }
func (s *TryStmt) stmtNode()           {}

// ThrowStmt throw expr
type ThrowStmt struct {
	ThrowToken token.Token
	Value      Expression
}

func (s *ThrowStmt) Pos() token.Position { return s.ThrowToken.Pos }
func (s *ThrowStmt) End() token.Position { return s.Value.End() }
func (s *ThrowStmt) String() string      { return "throw " + s.Value.String() }
func (s *ThrowStmt) stmtNode()           {}

// BranchStmt Break / Continue / Exit
type BranchStmt struct {
	Token token.Token
	Value Expression // Exit(1) 的可选参数
}

func (s *BranchStmt) Pos() token.Position { return s.Token.Pos }
func (s *BranchStmt) End() token.Position {
	if s.Value != nil {
		return s.Value.End()
	}
	return endOf(s.Token)
}
func (s *BranchStmt) String() string { return s.Token.Literal }
func (s *BranchStmt) stmtNode()      {}
