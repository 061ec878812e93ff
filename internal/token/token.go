package token

import (
	"fmt"
	"strings"
)

// ============================================================================
// Token 类型定义
// ============================================================================
//
// TokenType 使用 iota 自动编号，按类别分组：
// 1. 特殊标记（ILLEGAL, EOF, COMMENT）
// 2. 字面量（标识符、&变量、%系统变量、数字、字符串）
// 3. 运算符
// 4. 分隔符
// 5. 关键字（不区分大小写，含 end-if 等连字符形式）
//
// ============================================================================

// TokenType 表示 Token 的类型
type TokenType int

const (
	// ----------------------------------------------------------
	// 特殊标记
	// ----------------------------------------------------------
	ILLEGAL TokenType = iota // 非法字符
	EOF                      // 文件结束
	COMMENT                  // 注释

	// ----------------------------------------------------------
	// 字面量
	// ----------------------------------------------------------
	IDENT    // 标识符
	VARIABLE // &变量
	SYSVAR   // %系统变量 (%This, %Super, %Date ...)
	INT      // 整数字面量
	NUMBER   // 小数字面量
	STRING   // 字符串字面量

	// ----------------------------------------------------------
	// 运算符
	// ----------------------------------------------------------
	PLUS         // +
	MINUS        // -
	STAR         // *
	SLASH        // /
	POWER        // **
	PIPE         // | (字符串连接)
	EQ           // = (赋值与比较共用)
	NE           // <> 或 !=
	LT           // <
	LE           // <=
	GT           // >
	GE           // >=
	PLUS_ASSIGN  // +=
	MINUS_ASSIGN // -=
	PIPE_ASSIGN  // |=

	// ----------------------------------------------------------
	// 分隔符
	// ----------------------------------------------------------
	LPAREN    // (
	RPAREN    // )
	LBRACKET  // [
	RBRACKET  // ]
	COMMA     // ,
	SEMICOLON // ;
	DOT       // .
	COLON     // :

	keyword_beg

	// ----------------------------------------------------------
	// 值与逻辑
	// ----------------------------------------------------------
	AND
	OR
	NOT
	TRUE
	FALSE
	NULL

	// ----------------------------------------------------------
	// 声明
	// ----------------------------------------------------------
	IMPORT
	CLASS
	END_CLASS
	INTERFACE
	END_INTERFACE
	EXTENDS
	IMPLEMENTS
	METHOD
	END_METHOD
	PROPERTY
	GET
	SET
	END_GET
	END_SET
	READONLY
	ABSTRACT
	PRIVATE
	PROTECTED
	INSTANCE
	CONSTANT
	FUNCTION
	END_FUNCTION
	RETURNS
	LOCAL
	GLOBAL
	COMPONENT
	DECLARE
	PEOPLECODE
	OUT
	AS
	ARRAY
	OF
	CREATE

	// ----------------------------------------------------------
	// 控制流
	// ----------------------------------------------------------
	IF
	THEN
	ELSE
	END_IF
	FOR
	TO
	STEP
	END_FOR
	WHILE
	END_WHILE
	REPEAT
	UNTIL
	EVALUATE
	WHEN
	WHEN_OTHER
	END_EVALUATE
	BREAK
	CONTINUE
	EXIT
	RETURN
	TRY
	CATCH
	END_TRY
	THROW

	keyword_end
)

var tokenNames = map[TokenType]string{
	ILLEGAL:  "ILLEGAL",
	EOF:      "EOF",
	COMMENT:  "COMMENT",
	IDENT:    "IDENT",
	VARIABLE: "VARIABLE",
	SYSVAR:   "SYSVAR",
	INT:      "INT",
	NUMBER:   "NUMBER",
	STRING:   "STRING",

	PLUS:         "+",
	MINUS:        "-",
	STAR:         "*",
	SLASH:        "/",
	POWER:        "**",
	PIPE:         "|",
	EQ:           "=",
	NE:           "<>",
	LT:           "<",
	LE:           "<=",
	GT:           ">",
	GE:           ">=",
	PLUS_ASSIGN:  "+=",
	MINUS_ASSIGN: "-=",
	PIPE_ASSIGN:  "|=",

	LPAREN:    "(",
	RPAREN:    ")",
	LBRACKET:  "[",
	RBRACKET:  "]",
	COMMA:     ",",
	SEMICOLON: ";",
	DOT:       ".",
	COLON:     ":",

	AND:   "And",
	OR:    "Or",
	NOT:   "Not",
	TRUE:  "True",
	FALSE: "False",
	NULL:  "Null",

	IMPORT:        "import",
	CLASS:         "class",
	END_CLASS:     "end-class",
	INTERFACE:     "interface",
	END_INTERFACE: "end-interface",
	EXTENDS:       "extends",
	IMPLEMENTS:    "implements",
	METHOD:        "method",
	END_METHOD:    "end-method",
	PROPERTY:      "property",
	GET:           "get",
	SET:           "set",
	END_GET:       "end-get",
	END_SET:       "end-set",
	READONLY:      "readonly",
	ABSTRACT:      "abstract",
	PRIVATE:       "private",
	PROTECTED:     "protected",
	INSTANCE:      "instance",
	CONSTANT:      "Constant",
	FUNCTION:      "Function",
	END_FUNCTION:  "End-Function",
	RETURNS:       "Returns",
	LOCAL:         "Local",
	GLOBAL:        "Global",
	COMPONENT:     "Component",
	DECLARE:       "Declare",
	PEOPLECODE:    "PeopleCode",
	OUT:           "out",
	AS:            "As",
	ARRAY:         "array",
	OF:            "of",
	CREATE:        "create",

	IF:           "If",
	THEN:         "Then",
	ELSE:         "Else",
	END_IF:       "End-If",
	FOR:          "For",
	TO:           "To",
	STEP:         "Step",
	END_FOR:      "End-For",
	WHILE:        "While",
	END_WHILE:    "End-While",
	REPEAT:       "Repeat",
	UNTIL:        "Until",
	EVALUATE:     "Evaluate",
	WHEN:         "When",
	WHEN_OTHER:   "When-Other",
	END_EVALUATE: "End-Evaluate",
	BREAK:        "Break",
	CONTINUE:     "Continue",
	EXIT:         "Exit",
	RETURN:       "Return",
	TRY:          "try",
	CATCH:        "catch",
	END_TRY:      "end-try",
	THROW:        "throw",
}

// keywords 关键字表，键为小写形式
var keywords map[string]TokenType

func init() {
	keywords = make(map[string]TokenType, int(keyword_end-keyword_beg))
	for t := keyword_beg + 1; t < keyword_end; t++ {
		keywords[strings.ToLower(tokenNames[t])] = t
	}
}

// LookupIdent 查找标识符是否为关键字
//
// PeopleCode 的关键字不区分大小写，查表前统一转为小写。
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[strings.ToLower(ident)]; ok {
		return tok
	}
	return IDENT
}

// IsKeyword 判断 TokenType 是否为关键字
func IsKeyword(t TokenType) bool {
	return t > keyword_beg && t < keyword_end
}

// String 返回 TokenType 的字符串表示
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TokenType(%d)", t)
}

// ============================================================================
// Position - 源代码位置
// ============================================================================

// Position 表示源代码中的位置
type Position struct {
	Filename string // 文件名
	Line     int    // 行号 (从1开始)
	Column   int    // 列号 (从1开始)
	Offset   int    // 字节偏移量 (从0开始)
}

// String 返回位置的字符串表示，格式为 "filename:line:column"
func (p Position) String() string {
	if p.Filename != "" {
		return fmt.Sprintf("%s:%d:%d", p.Filename, p.Line, p.Column)
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// IsValid 检查位置是否有效
func (p Position) IsValid() bool {
	return p.Line > 0
}

// Before 判断 p 是否位于 q 之前
func (p Position) Before(q Position) bool {
	if p.Line != q.Line {
		return p.Line < q.Line
	}
	return p.Column < q.Column
}

// ============================================================================
// Span - 源代码范围
// ============================================================================

// Span 表示源代码中的一个范围（开始到结束）
type Span struct {
	Start Position // 开始位置
	End   Position // 结束位置
}

// NewSpan 创建新的 Span
func NewSpan(start, end Position) Span {
	return Span{Start: start, End: end}
}

// SpanFromToken 从 Token 创建 Span
func SpanFromToken(t Token) Span {
	endPos := t.Pos
	endPos.Column += len(t.Literal)
	endPos.Offset += len(t.Literal)
	return Span{Start: t.Pos, End: endPos}
}

// Length 返回 Span 的长度（仅在同一行有效）
func (s Span) Length() int {
	if s.Start.Line == s.End.Line && s.End.Column > s.Start.Column {
		return s.End.Column - s.Start.Column
	}
	return 1
}

// String 返回 Span 的字符串表示
func (s Span) String() string {
	if s.Start.Line == s.End.Line {
		return fmt.Sprintf("%s:%d:%d-%d", s.Start.Filename, s.Start.Line, s.Start.Column, s.End.Column)
	}
	return fmt.Sprintf("%s:%d:%d-%d:%d", s.Start.Filename, s.Start.Line, s.Start.Column, s.End.Line, s.End.Column)
}

// ============================================================================
// Token - 词法单元
// ============================================================================

// Token 表示一个词法单元
type Token struct {
	Type    TokenType   // Token 类型
	Literal string      // 原始字面量
	Value   interface{} // 解析后的值 (用于数字、字符串等)
	Pos     Position    // 位置信息
}

// String 返回 Token 的字符串表示（用于调试）
func (t Token) String() string {
	switch t.Type {
	case IDENT, VARIABLE, SYSVAR, INT, NUMBER, STRING:
		return fmt.Sprintf("%s(%s) at %s", t.Type, t.Literal, t.Pos)
	default:
		return fmt.Sprintf("%s at %s", t.Type, t.Pos)
	}
}

// Is 判断 Token 是否为给定类型之一
func (t Token) Is(types ...TokenType) bool {
	for _, tt := range types {
		if t.Type == tt {
			return true
		}
	}
	return false
}

// New 创建一个新的 Token
func New(tokenType TokenType, literal string, pos Position) Token {
	return Token{
		Type:    tokenType,
		Literal: literal,
		Pos:     pos,
	}
}

// NewWithValue 创建一个带值的 Token
func NewWithValue(tokenType TokenType, literal string, value interface{}, pos Position) Token {
	return Token{
		Type:    tokenType,
		Literal: literal,
		Value:   value,
		Pos:     pos,
	}
}
