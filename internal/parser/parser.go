package parser

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/tangzhangming/pcode/internal/ast"
	"github.com/tangzhangming/pcode/internal/i18n"
	"github.com/tangzhangming/pcode/internal/lexer"
	"github.com/tangzhangming/pcode/internal/token"
)

// Parser 语法分析器
type Parser struct {
	lexer     *lexer.Lexer
	tokens    []token.Token
	current   int
	errors    []Error
	filename  string
	panicMode bool // 错误恢复模式标志，用于避免级联报错
	exprDepth int  // 表达式解析深度，防止栈溢出
}

// maxExprDepth 最大表达式嵌套深度，防止栈溢出
const maxExprDepth = 200

// Error 语法分析错误
type Error struct {
	Pos     token.Position
	Message string
}

func (e Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Message)
}

// New 创建一个新的语法分析器
func New(source, filename string) *Parser {
	l := lexer.New(source, filename)
	tokens := l.ScanTokens()

	p := &Parser{
		lexer:    l,
		tokens:   tokens,
		filename: filename,
	}
	for _, e := range l.Errors() {
		p.errors = append(p.errors, Error{Pos: e.Pos, Message: e.Message})
	}
	return p
}

// ParseSource 解析源代码，语法错误合并为一个 error 返回
//
// 即使有错误也会返回尽可能完整的 Program。
func ParseSource(source, filename string) (*ast.Program, error) {
	p := New(source, filename)
	prog := p.Parse()
	var err error
	for _, e := range p.Errors() {
		err = multierr.Append(err, e)
	}
	return prog, err
}

// Parse 解析整个程序
func (p *Parser) Parse() *ast.Program {
	prog := &ast.Program{Filename: p.filename}

	for !p.isAtEnd() {
		p.panicMode = false
		start := p.current

		switch p.peek().Type {
		case token.SEMICOLON:
			p.advance()
			continue

		case token.IMPORT:
			if imp := p.parseImport(); imp != nil {
				prog.Imports = append(prog.Imports, imp)
			}

		case token.CLASS:
			if cls := p.parseClass(); cls != nil {
				prog.Class = cls
			}

		case token.INTERFACE:
			if iface := p.parseInterface(); iface != nil {
				prog.Interface = iface
			}

		case token.METHOD, token.GET, token.SET:
			impl := p.parseMethodImpl()
			if impl != nil {
				if prog.Class == nil {
					p.errorAt(impl.MethodToken.Pos, i18n.T(i18n.ErrUnexpectedToken, impl.MethodToken.Literal))
				} else {
					prog.Class.Impls = append(prog.Class.Impls, impl)
				}
			}

		case token.FUNCTION:
			if fn := p.parseFunction(); fn != nil {
				prog.Functions = append(prog.Functions, fn)
			}

		case token.DECLARE:
			if fn := p.parseDeclareFunction(); fn != nil {
				prog.Functions = append(prog.Functions, fn)
			}

		case token.CONSTANT:
			if c := p.parseConstant(ast.VisibilityPublic); c != nil {
				prog.Constants = append(prog.Constants, c)
			}

		default:
			stmt := p.parseStatement()
			if stmt != nil && !p.panicMode {
				prog.Statements = append(prog.Statements, stmt)
			}
			if !p.panicMode && !p.match(token.SEMICOLON) && !p.isAtEnd() && !p.isTopLevelStart() {
				p.error(i18n.T(i18n.ErrExpectedToken, "';'", p.peek().Literal))
			}
		}

		if p.panicMode {
			if p.current == start {
				p.advance()
			}
			p.synchronize()
		}
	}

	return prog
}

// Errors 返回所有语法错误（包括词法错误）
func (p *Parser) Errors() []Error {
	return p.errors
}

// HasErrors 检查是否有错误
func (p *Parser) HasErrors() bool {
	return len(p.errors) > 0
}

// ============================================================================
// 辅助方法
// ============================================================================

func (p *Parser) isAtEnd() bool {
	return p.peek().Type == token.EOF
}

func (p *Parser) peek() token.Token {
	return p.tokens[p.current]
}

func (p *Parser) lookAhead(n int) token.Token {
	if p.current+n >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.current+n]
}

func (p *Parser) previous() token.Token {
	if p.current == 0 {
		return p.tokens[0]
	}
	return p.tokens[p.current-1]
}

func (p *Parser) advance() token.Token {
	if !p.isAtEnd() {
		p.current++
	}
	return p.previous()
}

func (p *Parser) check(t token.TokenType) bool {
	if p.isAtEnd() {
		return t == token.EOF
	}
	return p.peek().Type == t
}

func (p *Parser) checkAny(types ...token.TokenType) bool {
	for _, t := range types {
		if p.check(t) {
			return true
		}
	}
	return false
}

func (p *Parser) match(types ...token.TokenType) bool {
	for _, t := range types {
		if p.check(t) {
			p.advance()
			return true
		}
	}
	return false
}

// consume 消费指定类型的 token，what 用于错误信息
func (p *Parser) consume(t token.TokenType, what string) token.Token {
	if p.check(t) {
		return p.advance()
	}
	p.error(i18n.T(i18n.ErrExpectedToken, what, p.describe(p.peek())))
	p.panicMode = true
	return token.Token{}
}

// consumeName 消费一个名称：标识符或被当作名称使用的关键字
//
// PeopleCode 允许 Value、Get、Name 等词作为成员名。
func (p *Parser) consumeName() token.Token {
	tok := p.peek()
	if tok.Type == token.IDENT || token.IsKeyword(tok.Type) {
		return p.advance()
	}
	p.error(i18n.T(i18n.ErrExpectedIdentifier))
	p.panicMode = true
	return token.Token{}
}

func (p *Parser) describe(tok token.Token) string {
	if tok.Type == token.EOF {
		return "end of file"
	}
	if tok.Literal != "" {
		return "'" + tok.Literal + "'"
	}
	return tok.Type.String()
}

// maxParseErrors 最大错误数量限制，防止错误爆炸
const maxParseErrors = 50

func (p *Parser) error(message string) {
	p.errorAt(p.peek().Pos, message)
}

func (p *Parser) errorAt(pos token.Position, message string) {
	// panicMode 下跳过后续错误，避免级联报错
	if p.panicMode {
		return
	}

	// 避免在同一位置重复报错
	if len(p.errors) > 0 {
		last := p.errors[len(p.errors)-1]
		if last.Pos.Line == pos.Line && last.Pos.Column == pos.Column {
			return
		}
	}

	if len(p.errors) >= maxParseErrors {
		p.errors = append(p.errors, Error{Pos: pos, Message: "too many errors, aborting"})
		p.panicMode = true
		p.current = len(p.tokens) - 1
		return
	}

	p.errors = append(p.errors, Error{Pos: pos, Message: message})
}

// isTopLevelStart 判断当前 token 是否开始一个顶层声明
func (p *Parser) isTopLevelStart() bool {
	return p.checkAny(token.IMPORT, token.CLASS, token.INTERFACE, token.FUNCTION, token.DECLARE,
		token.METHOD, token.GET, token.SET, token.CONSTANT)
}

func (p *Parser) synchronize() {
	p.panicMode = false
	for !p.isAtEnd() {
		// 分号后是安全点
		if p.previous().Type == token.SEMICOLON {
			return
		}

		switch p.peek().Type {
		case token.IMPORT, token.CLASS, token.INTERFACE, token.FUNCTION, token.DECLARE,
			token.METHOD, token.CONSTANT, token.LOCAL, token.GLOBAL, token.COMPONENT:
			return
		}

		p.advance()
	}
}

// ============================================================================
// 类型解析
// ============================================================================

// parseType 解析类型：array of T、PKG:SUB:Class、简单类型名
func (p *Parser) parseType() ast.TypeNode {
	if p.check(token.ARRAY) {
		arrayToken := p.advance()
		dims := 1
		for p.check(token.OF) && p.lookAhead(1).Type == token.ARRAY {
			p.advance()
			p.advance()
			dims++
		}
		var elem ast.TypeNode
		if p.match(token.OF) {
			elem = p.parseNamedType()
			if elem == nil {
				return nil
			}
		}
		return &ast.ArrayType{ArrayToken: arrayToken, Dims: dims, Element: elem}
	}
	return p.parseNamedType()
}

// parseNamedType 解析简单类型名或应用类路径
func (p *Parser) parseNamedType() ast.TypeNode {
	if !p.check(token.IDENT) {
		p.error(i18n.T(i18n.ErrExpectedType))
		p.panicMode = true
		return nil
	}
	first := p.advance()
	if !p.check(token.COLON) {
		return &ast.SimpleType{Token: first, Name: first.Literal}
	}

	path := []string{first.Literal}
	last := first
	for p.match(token.COLON) {
		last = p.consumeName()
		if p.panicMode {
			return nil
		}
		path = append(path, last.Literal)
	}
	return &ast.AppClassTypeRef{Start: first, Last: last, Path: path}
}

// isTypeStart 判断当前位置是否是类型的开始
func (p *Parser) isTypeStart() bool {
	return p.checkAny(token.ARRAY, token.IDENT)
}
