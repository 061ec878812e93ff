package ast

import (
	"strings"

	"github.com/tangzhangming/pcode/internal/token"
)

// Node 是所有 AST 节点的基接口
type Node interface {
	Pos() token.Position // 返回节点在源代码中的位置
	End() token.Position // 返回节点结束位置
	String() string      // 返回节点的字符串表示（用于调试）
}

// Expression 表示一个表达式节点
//
// 每个表达式携带 Meta，类型推断会把推断出的类型与诊断写回节点。
type Expression interface {
	Node
	Meta() *Meta
	exprNode()
}

// Statement 表示一个语句节点
type Statement interface {
	Node
	stmtNode()
}

// Declaration 表示一个声明节点
type Declaration interface {
	Node
	declNode()
}

// TypeNode 表示类型节点
type TypeNode interface {
	Node
	typeNode()
}

// SpanOf 返回节点覆盖的源代码范围
func SpanOf(n Node) token.Span {
	return token.Span{Start: n.Pos(), End: n.End()}
}

// ============================================================================
// 类型节点
// ============================================================================

// SimpleType 简单类型 (string, integer, Rowset, 短类名 ...)
type SimpleType struct {
	Token token.Token // 类型 token
	Name  string      // 类型名称
}

func (t *SimpleType) Pos() token.Position { return t.Token.Pos }
func (t *SimpleType) End() token.Position { return endOf(t.Token) }
func (t *SimpleType) String() string      { return t.Name }
func (t *SimpleType) typeNode()           {}

// ArrayType 数组类型 (array of array of string)
type ArrayType struct {
	ArrayToken token.Token // 第一个 array token
	Dims       int         // 维数
	Element    TypeNode    // 元素类型，可为 nil（array 不带 of 时元素为 any）
}

func (t *ArrayType) Pos() token.Position { return t.ArrayToken.Pos }
func (t *ArrayType) End() token.Position {
	if t.Element != nil {
		return t.Element.End()
	}
	return endOf(t.ArrayToken)
}
func (t *ArrayType) String() string {
	elem := "any"
	if t.Element != nil {
		elem = t.Element.String()
	}
	return strings.Repeat("array of ", t.Dims) + elem
}
func (t *ArrayType) typeNode() {}

// AppClassTypeRef 应用类路径 (PKG:SUB:Class)
type AppClassTypeRef struct {
	Start token.Token // 第一个路径段
	Last  token.Token // 最后一个路径段
	Path  []string    // 全部路径段，最后一段为类名
}

func (t *AppClassTypeRef) Pos() token.Position { return t.Start.Pos }
func (t *AppClassTypeRef) End() token.Position { return endOf(t.Last) }
func (t *AppClassTypeRef) String() string      { return strings.Join(t.Path, ":") }
func (t *AppClassTypeRef) typeNode()           {}

// ClassName 返回路径中的类名
func (t *AppClassTypeRef) ClassName() string { return t.Path[len(t.Path)-1] }

// ============================================================================
// 表达式节点
// ============================================================================

// LiteralKind 字面量种类
type LiteralKind int

const (
	LitString LiteralKind = iota
	LitInteger
	LitNumber
	LitBoolean
	LitNull
)

// Literal 字面量
type Literal struct {
	exprBase
	Token token.Token
	Kind  LiteralKind
	Value interface{} // string / int64 / float64 / bool / nil
}

func (e *Literal) Pos() token.Position { return e.Token.Pos }
func (e *Literal) End() token.Position { return endOf(e.Token) }
func (e *Literal) String() string      { return e.Token.Literal }
func (e *Literal) exprNode()           {}

// Variable &变量
type Variable struct {
	exprBase
	Token token.Token
	Name  string // 含 & 前缀
}

func (e *Variable) Pos() token.Position { return e.Token.Pos }
func (e *Variable) End() token.Position { return endOf(e.Token) }
func (e *Variable) String() string      { return e.Name }
func (e *Variable) exprNode()           {}

// Identifier 裸标识符（函数名、记录名、类短名、属性名）
type Identifier struct {
	exprBase
	Token token.Token
	Name  string
}

func (e *Identifier) Pos() token.Position { return e.Token.Pos }
func (e *Identifier) End() token.Position { return endOf(e.Token) }
func (e *Identifier) String() string      { return e.Name }
func (e *Identifier) exprNode()           {}

// SystemVariable %系统变量（不含 %This / %Super）
type SystemVariable struct {
	exprBase
	Token token.Token
	Name  string // 含 % 前缀
}

func (e *SystemVariable) Pos() token.Position { return e.Token.Pos }
func (e *SystemVariable) End() token.Position { return endOf(e.Token) }
func (e *SystemVariable) String() string      { return e.Name }
func (e *SystemVariable) exprNode()           {}

// ThisExpr %This
type ThisExpr struct {
	exprBase
	Token token.Token
}

func (e *ThisExpr) Pos() token.Position { return e.Token.Pos }
func (e *ThisExpr) End() token.Position { return endOf(e.Token) }
func (e *ThisExpr) String() string      { return "%This" }
func (e *ThisExpr) exprNode()           {}

// SuperExpr %Super
type SuperExpr struct {
	exprBase
	Token token.Token
}

func (e *SuperExpr) Pos() token.Position { return e.Token.Pos }
func (e *SuperExpr) End() token.Position { return endOf(e.Token) }
func (e *SuperExpr) String() string      { return "%Super" }
func (e *SuperExpr) exprNode()           {}

// BinaryExpr 二元表达式
type BinaryExpr struct {
	exprBase
	Left     Expression
	Operator token.Token
	Right    Expression
}

func (e *BinaryExpr) Pos() token.Position { return e.Left.Pos() }
func (e *BinaryExpr) End() token.Position { return e.Right.End() }
func (e *BinaryExpr) String() string {
	return "(" + e.Left.String() + " " + e.Operator.Literal + " " + e.Right.String() + ")"
}
func (e *BinaryExpr) exprNode() {}

// UnaryExpr 一元表达式 (-x, Not x)
type UnaryExpr struct {
	exprBase
	Operator token.Token
	Operand  Expression
}

func (e *UnaryExpr) Pos() token.Position { return e.Operator.Pos }
func (e *UnaryExpr) End() token.Position { return e.Operand.End() }
func (e *UnaryExpr) String() string {
	return "(" + e.Operator.Literal + " " + e.Operand.String() + ")"
}
func (e *UnaryExpr) exprNode() {}

// CallExpr 函数/方法调用
//
// Function 为 Identifier 时是内置或用户函数，为 MemberAccess 时是方法调用，
// 其他表达式表示调用对象的默认方法（如 &rs(1)）。
type CallExpr struct {
	exprBase
	Function  Expression
	LParen    token.Token
	Arguments []Expression
	RParen    token.Token
}

func (e *CallExpr) Pos() token.Position { return e.Function.Pos() }
func (e *CallExpr) End() token.Position { return endOf(e.RParen) }
func (e *CallExpr) String() string {
	var args []string
	for _, arg := range e.Arguments {
		args = append(args, arg.String())
	}
	return e.Function.String() + "(" + strings.Join(args, ", ") + ")"
}
func (e *CallExpr) exprNode() {}

// MethodRef 是成员访问解析到的方法，供后续调用校验使用
type MethodRef interface {
	MemberName() string
	DeclaringTypeName() string
}

// MemberAccess 成员访问 (&obj.Name, RECORD.FIELD)
type MemberAccess struct {
	exprBase
	Object Expression
	Dot    token.Token
	Member token.Token

	// ResolvedMethod 类型推断时记录匹配到的方法
	ResolvedMethod MethodRef
}

func (e *MemberAccess) Pos() token.Position { return e.Object.Pos() }
func (e *MemberAccess) End() token.Position { return endOf(e.Member) }
func (e *MemberAccess) String() string      { return e.Object.String() + "." + e.Member.Literal }
func (e *MemberAccess) exprNode()           {}

// Name 成员名
func (e *MemberAccess) Name() string { return e.Member.Literal }

// IndexExpr 数组下标 (&a[1], &a[1, 2])
type IndexExpr struct {
	exprBase
	Object   Expression
	LBracket token.Token
	Indexes  []Expression
	RBracket token.Token
}

func (e *IndexExpr) Pos() token.Position { return e.Object.Pos() }
func (e *IndexExpr) End() token.Position { return endOf(e.RBracket) }
func (e *IndexExpr) String() string {
	var idx []string
	for _, i := range e.Indexes {
		idx = append(idx, i.String())
	}
	return e.Object.String() + "[" + strings.Join(idx, ", ") + "]"
}
func (e *IndexExpr) exprNode() {}

// ObjectCreation create PKG:Class(args)
type ObjectCreation struct {
	exprBase
	CreateToken token.Token
	Type        TypeNode
	Arguments   []Expression
	RParen      token.Token
}

func (e *ObjectCreation) Pos() token.Position { return e.CreateToken.Pos }
func (e *ObjectCreation) End() token.Position {
	if e.RParen.Type == token.RPAREN {
		return endOf(e.RParen)
	}
	return e.Type.End()
}
func (e *ObjectCreation) String() string {
	var args []string
	for _, arg := range e.Arguments {
		args = append(args, arg.String())
	}
	return "create " + e.Type.String() + "(" + strings.Join(args, ", ") + ")"
}
func (e *ObjectCreation) exprNode() {}

// TypeCastExpr 类型转换 (&obj As PKG:Class)
type TypeCastExpr struct {
	exprBase
	Expr    Expression
	AsToken token.Token
	Type    TypeNode
}

func (e *TypeCastExpr) Pos() token.Position { return e.Expr.Pos() }
func (e *TypeCastExpr) End() token.Position { return e.Type.End() }
func (e *TypeCastExpr) String() string {
	return "(" + e.Expr.String() + " As " + e.Type.String() + ")"
}
func (e *TypeCastExpr) exprNode() {}

// AssignExpr 赋值 (=, +=, -=, |=)
type AssignExpr struct {
	exprBase
	Target   Expression
	Operator token.Token
	Value    Expression
}

func (e *AssignExpr) Pos() token.Position { return e.Target.Pos() }
func (e *AssignExpr) End() token.Position { return e.Value.End() }
func (e *AssignExpr) String() string {
	return e.Target.String() + " " + e.Operator.Literal + " " + e.Value.String()
}
func (e *AssignExpr) exprNode() {}

// endOf 计算 token 的结束位置
func endOf(t token.Token) token.Position {
	p := t.Pos
	p.Column += len(t.Literal)
	p.Offset += len(t.Literal)
	return p
}
