package parser

import (
	"strings"

	"github.com/tangzhangming/pcode/internal/ast"
	"github.com/tangzhangming/pcode/internal/i18n"
	"github.com/tangzhangming/pcode/internal/token"
)

// ============================================================================
// 声明解析
// ============================================================================

// parseImport import PKG:SUB:Class; 或 import PKG:*;
func (p *Parser) parseImport() *ast.ImportDecl {
	decl := &ast.ImportDecl{ImportToken: p.advance()}
	first := p.consumeName()
	if p.panicMode {
		return nil
	}
	decl.Path = append(decl.Path, first.Literal)
	for p.match(token.COLON) {
		if p.match(token.STAR) {
			decl.Wildcard = true
			break
		}
		seg := p.consumeName()
		if p.panicMode {
			return nil
		}
		decl.Path = append(decl.Path, seg.Literal)
	}
	p.match(token.SEMICOLON)
	return decl
}

// parseClass 解析 class ... end-class 头部
func (p *Parser) parseClass() *ast.ClassDecl {
	cls := &ast.ClassDecl{ClassToken: p.advance()}
	cls.Name = p.consume(token.IDENT, "class name")
	if p.panicMode {
		return nil
	}

	if p.match(token.EXTENDS) {
		if cls.Extends = p.parseNamedType(); cls.Extends == nil {
			return nil
		}
	}
	if p.match(token.IMPLEMENTS) {
		for {
			iface := p.parseNamedType()
			if iface == nil {
				return nil
			}
			cls.Implements = append(cls.Implements, iface)
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	p.match(token.SEMICOLON)

	visibility := ast.VisibilityPublic
	for !p.isAtEnd() && !p.check(token.END_CLASS) {
		switch p.peek().Type {
		case token.SEMICOLON:
			p.advance()
		case token.PROTECTED:
			p.advance()
			visibility = ast.VisibilityProtected
		case token.PRIVATE:
			p.advance()
			visibility = ast.VisibilityPrivate
		case token.METHOD:
			m := p.parseMethodHeader(visibility)
			if m == nil {
				return nil
			}
			cls.Methods = append(cls.Methods, m)
		case token.PROPERTY:
			prop := p.parsePropertyDecl(visibility)
			if prop == nil {
				return nil
			}
			cls.Properties = append(cls.Properties, prop)
		case token.INSTANCE:
			inst := p.parseVarNames(p.advance(), ast.ScopeInstance)
			if inst == nil {
				return nil
			}
			cls.Instances = append(cls.Instances, inst)
		case token.CONSTANT:
			c := p.parseConstant(visibility)
			if c == nil {
				return nil
			}
			cls.Constants = append(cls.Constants, c)
		default:
			p.error(i18n.T(i18n.ErrUnexpectedToken, p.describe(p.peek())))
			p.panicMode = true
			return nil
		}
	}

	cls.EndToken = p.consume(token.END_CLASS, "'end-class'")
	if p.panicMode {
		return nil
	}
	p.match(token.SEMICOLON)
	return cls
}

// parseInterface 解析 interface ... end-interface
func (p *Parser) parseInterface() *ast.InterfaceDecl {
	iface := &ast.InterfaceDecl{InterfaceToken: p.advance()}
	iface.Name = p.consume(token.IDENT, "interface name")
	if p.panicMode {
		return nil
	}
	if p.match(token.EXTENDS) {
		if iface.Extends = p.parseNamedType(); iface.Extends == nil {
			return nil
		}
	}
	p.match(token.SEMICOLON)

	for !p.isAtEnd() && !p.check(token.END_INTERFACE) {
		switch p.peek().Type {
		case token.SEMICOLON:
			p.advance()
		case token.METHOD:
			m := p.parseMethodHeader(ast.VisibilityPublic)
			if m == nil {
				return nil
			}
			// 接口方法总是抽象的
			m.Abstract = true
			iface.Methods = append(iface.Methods, m)
		case token.PROPERTY:
			prop := p.parsePropertyDecl(ast.VisibilityPublic)
			if prop == nil {
				return nil
			}
			prop.Abstract = true
			iface.Properties = append(iface.Properties, prop)
		default:
			p.error(i18n.T(i18n.ErrUnexpectedToken, p.describe(p.peek())))
			p.panicMode = true
			return nil
		}
	}

	iface.EndToken = p.consume(token.END_INTERFACE, "'end-interface'")
	if p.panicMode {
		return nil
	}
	p.match(token.SEMICOLON)
	return iface
}

// parseMethodHeader method Name(&a As T, &b As T out) Returns T [abstract];
func (p *Parser) parseMethodHeader(visibility ast.Visibility) *ast.MethodHeader {
	m := &ast.MethodHeader{MethodToken: p.advance(), Visibility: visibility}
	m.Name = p.consumeName()
	if p.panicMode {
		return nil
	}
	if p.check(token.LPAREN) {
		m.Params = p.parseParams()
		if p.panicMode {
			return nil
		}
	}
	if p.match(token.RETURNS) {
		if m.Returns = p.parseType(); m.Returns == nil {
			return nil
		}
	}
	if p.match(token.ABSTRACT) {
		m.Abstract = true
	}
	p.match(token.SEMICOLON)
	return m
}

// parseParams 解析 (&a As T, &b As T out)
func (p *Parser) parseParams() []*ast.Param {
	p.consume(token.LPAREN, "'('")
	var params []*ast.Param
	for !p.check(token.RPAREN) && !p.isAtEnd() {
		param := &ast.Param{Name: p.consume(token.VARIABLE, "parameter name")}
		if p.panicMode {
			return nil
		}
		if p.match(token.AS) {
			if param.Type = p.parseType(); param.Type == nil {
				return nil
			}
		}
		if p.match(token.OUT) {
			param.Out = true
		}
		params = append(params, param)
		if !p.match(token.COMMA) {
			break
		}
	}
	p.consume(token.RPAREN, "')'")
	return params
}

// parsePropertyDecl property Type Name [get] [set] [readonly] [abstract];
func (p *Parser) parsePropertyDecl(visibility ast.Visibility) *ast.PropertyDecl {
	prop := &ast.PropertyDecl{PropertyToken: p.advance(), Visibility: visibility}
	if prop.Type = p.parseType(); prop.Type == nil {
		return nil
	}
	prop.Name = p.consumeName()
	if p.panicMode {
		return nil
	}
	for {
		switch {
		case p.match(token.GET):
			prop.HasGet = true
		case p.match(token.SET):
			prop.HasSet = true
		case p.match(token.READONLY):
			prop.ReadOnly = true
		case p.match(token.ABSTRACT):
			prop.Abstract = true
		default:
			p.match(token.SEMICOLON)
			return prop
		}
	}
}

// parseConstant Constant &NAME = value;
func (p *Parser) parseConstant(visibility ast.Visibility) *ast.ConstantDecl {
	c := &ast.ConstantDecl{ConstantToken: p.advance(), Visibility: visibility}
	c.Name = p.consume(token.VARIABLE, "constant name")
	p.consume(token.EQ, "'='")
	if p.panicMode {
		return nil
	}
	if c.Value = p.parseExpression(); c.Value == nil {
		return nil
	}
	p.match(token.SEMICOLON)
	return c
}

// parseMethodImpl method Name ... end-method; get Name ... end-get; set Name ... end-set;
func (p *Parser) parseMethodImpl() *ast.MethodImpl {
	impl := &ast.MethodImpl{MethodToken: p.advance()}
	impl.Accessor = impl.MethodToken.Type
	impl.Name = p.consumeName()
	if p.panicMode {
		return nil
	}
	p.match(token.SEMICOLON)

	var end token.TokenType
	var what string
	switch impl.Accessor {
	case token.GET:
		end, what = token.END_GET, "'end-get'"
	case token.SET:
		end, what = token.END_SET, "'end-set'"
	default:
		end, what = token.END_METHOD, "'end-method'"
	}

	impl.Body = p.parseBlock(end)
	impl.EndToken = p.consume(end, what)
	if p.panicMode {
		return nil
	}
	p.match(token.SEMICOLON)
	return impl
}

// parseFunction Function Name(params) [Returns T] ... End-Function;
func (p *Parser) parseFunction() *ast.FunctionDecl {
	fn := &ast.FunctionDecl{FunctionToken: p.advance()}
	fn.Name = p.consumeName()
	if p.panicMode {
		return nil
	}
	if p.check(token.LPAREN) {
		fn.Params = p.parseParams()
		if p.panicMode {
			return nil
		}
	}
	if p.match(token.RETURNS) {
		if fn.Returns = p.parseType(); fn.Returns == nil {
			return nil
		}
	}
	p.match(token.SEMICOLON)

	fn.Body = p.parseBlock(token.END_FUNCTION)
	fn.EndToken = p.consume(token.END_FUNCTION, "'End-Function'")
	if p.panicMode {
		return nil
	}
	p.match(token.SEMICOLON)
	return fn
}

// parseDeclareFunction Declare Function Name PeopleCode REC.FIELD FieldFormula;
//
// 外部声明只记录函数名，参数与返回类型未知。
func (p *Parser) parseDeclareFunction() *ast.FunctionDecl {
	declareToken := p.advance()
	p.consume(token.FUNCTION, "'Function'")
	if p.panicMode {
		return nil
	}
	fn := &ast.FunctionDecl{FunctionToken: declareToken, Declared: true}
	fn.Name = p.consumeName()
	if p.panicMode {
		return nil
	}
	p.match(token.PEOPLECODE)
	var lib strings.Builder
	prevDot := true
	for !p.isAtEnd() && !p.check(token.SEMICOLON) {
		tok := p.advance()
		isDot := tok.Type == token.DOT
		if !isDot && !prevDot {
			lib.WriteByte(' ')
		}
		lib.WriteString(tok.Literal)
		prevDot = isDot
	}
	fn.Library = lib.String()
	p.match(token.SEMICOLON)
	return fn
}
