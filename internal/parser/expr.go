package parser

import (
	"strings"

	"github.com/tangzhangming/pcode/internal/ast"
	"github.com/tangzhangming/pcode/internal/i18n"
	"github.com/tangzhangming/pcode/internal/token"
)

// ============================================================================
// 表达式解析 (Pratt)
// ============================================================================

// 优先级从低到高
const (
	PREC_NONE       = iota
	PREC_OR         // Or
	PREC_AND        // And
	PREC_NOT        // Not
	PREC_COMPARISON // =, <>, <, >, <=, >=
	PREC_CAST       // As
	PREC_CONCAT     // |
	PREC_TERM       // +, -
	PREC_FACTOR     // *, /
	PREC_POWER      // **
	PREC_UNARY      // -
	PREC_POSTFIX    // (), [], .
	PREC_PRIMARY
)

func (p *Parser) getPrecedence(t token.TokenType) int {
	switch t {
	case token.OR:
		return PREC_OR
	case token.AND:
		return PREC_AND
	case token.EQ, token.NE, token.LT, token.LE, token.GT, token.GE:
		return PREC_COMPARISON
	case token.AS:
		return PREC_CAST
	case token.PIPE:
		return PREC_CONCAT
	case token.PLUS, token.MINUS:
		return PREC_TERM
	case token.STAR, token.SLASH:
		return PREC_FACTOR
	case token.POWER:
		return PREC_POWER
	case token.LPAREN, token.LBRACKET, token.DOT:
		return PREC_POSTFIX
	default:
		return PREC_NONE
	}
}

func (p *Parser) parseExpression() ast.Expression {
	// 检查递归深度，防止栈溢出
	p.exprDepth++
	if p.exprDepth > maxExprDepth {
		p.error(i18n.T(i18n.ErrExpressionTooDeep))
		p.panicMode = true
		p.exprDepth--
		return nil
	}
	defer func() { p.exprDepth-- }()

	return p.parsePrecedence(PREC_OR)
}

func (p *Parser) parsePrecedence(precedence int) ast.Expression {
	left := p.parsePrefixExpr()
	if left == nil {
		return nil
	}
	return p.parseInfixLoop(left, precedence)
}

func (p *Parser) parseInfixLoop(left ast.Expression, precedence int) ast.Expression {
	for precedence <= p.getPrecedence(p.peek().Type) && !p.panicMode {
		left = p.parseInfixExpr(left)
		if left == nil {
			return nil
		}
	}
	return left
}

func (p *Parser) parsePrefixExpr() ast.Expression {
	switch p.peek().Type {
	case token.INT:
		tok := p.advance()
		return &ast.Literal{Token: tok, Kind: ast.LitInteger, Value: tok.Value}
	case token.NUMBER:
		tok := p.advance()
		return &ast.Literal{Token: tok, Kind: ast.LitNumber, Value: tok.Value}
	case token.STRING:
		tok := p.advance()
		return &ast.Literal{Token: tok, Kind: ast.LitString, Value: tok.Value}
	case token.TRUE:
		tok := p.advance()
		return &ast.Literal{Token: tok, Kind: ast.LitBoolean, Value: true}
	case token.FALSE:
		tok := p.advance()
		return &ast.Literal{Token: tok, Kind: ast.LitBoolean, Value: false}
	case token.NULL:
		tok := p.advance()
		return &ast.Literal{Token: tok, Kind: ast.LitNull}
	case token.VARIABLE:
		tok := p.advance()
		return &ast.Variable{Token: tok, Name: tok.Literal}
	case token.SYSVAR:
		tok := p.advance()
		switch {
		case strings.EqualFold(tok.Literal, "%This"):
			return &ast.ThisExpr{Token: tok}
		case strings.EqualFold(tok.Literal, "%Super"):
			return &ast.SuperExpr{Token: tok}
		}
		return &ast.SystemVariable{Token: tok, Name: tok.Literal}
	case token.IDENT:
		tok := p.advance()
		return &ast.Identifier{Token: tok, Name: tok.Literal}
	case token.LPAREN:
		p.advance()
		inner := p.parseExpression()
		p.consume(token.RPAREN, "')'")
		return inner
	case token.MINUS:
		// -&a ** 2 等价于 -(&a ** 2)
		op := p.advance()
		operand := p.parsePrecedence(PREC_POWER)
		if operand == nil {
			return nil
		}
		return &ast.UnaryExpr{Operator: op, Operand: operand}
	case token.NOT:
		op := p.advance()
		operand := p.parsePrecedence(PREC_COMPARISON)
		if operand == nil {
			return nil
		}
		return &ast.UnaryExpr{Operator: op, Operand: operand}
	case token.CREATE:
		return p.parseObjectCreation()
	default:
		p.error(i18n.T(i18n.ErrExpectedExpression))
		p.panicMode = true
		return nil
	}
}

func (p *Parser) parseInfixExpr(left ast.Expression) ast.Expression {
	switch p.peek().Type {
	case token.PLUS, token.MINUS, token.STAR, token.SLASH, token.POWER, token.PIPE,
		token.EQ, token.NE, token.LT, token.LE, token.GT, token.GE,
		token.AND, token.OR:
		return p.parseBinaryExpr(left)
	case token.AS:
		return p.parseTypeCastExpr(left)
	case token.LPAREN:
		return p.parseCallExpr(left)
	case token.LBRACKET:
		return p.parseIndexExpr(left)
	case token.DOT:
		return p.parseMemberAccess(left)
	default:
		return left
	}
}

func (p *Parser) parseBinaryExpr(left ast.Expression) ast.Expression {
	op := p.advance()
	prec := p.getPrecedence(op.Type)
	// ** 右结合
	if op.Type == token.POWER {
		prec--
	}
	right := p.parsePrecedence(prec + 1)
	if right == nil {
		return nil
	}
	return &ast.BinaryExpr{Left: left, Operator: op, Right: right}
}

func (p *Parser) parseTypeCastExpr(left ast.Expression) ast.Expression {
	asToken := p.advance()
	typ := p.parseType()
	if typ == nil {
		return nil
	}
	return &ast.TypeCastExpr{Expr: left, AsToken: asToken, Type: typ}
}

func (p *Parser) parseCallExpr(left ast.Expression) ast.Expression {
	lparen := p.advance()
	args := p.parseArguments()
	rparen := p.consume(token.RPAREN, "')'")
	if p.panicMode {
		return nil
	}
	return &ast.CallExpr{Function: left, LParen: lparen, Arguments: args, RParen: rparen}
}

// parseArguments 解析逗号分隔的参数，调用方已消费 '('
func (p *Parser) parseArguments() []ast.Expression {
	var args []ast.Expression
	if p.check(token.RPAREN) {
		return args
	}
	for {
		arg := p.parseExpression()
		if arg == nil {
			return args
		}
		args = append(args, arg)
		if !p.match(token.COMMA) {
			return args
		}
	}
}

func (p *Parser) parseIndexExpr(left ast.Expression) ast.Expression {
	lbracket := p.advance()
	var indexes []ast.Expression
	for {
		idx := p.parseExpression()
		if idx == nil {
			return nil
		}
		indexes = append(indexes, idx)
		if !p.match(token.COMMA) {
			break
		}
	}
	rbracket := p.consume(token.RBRACKET, "']'")
	if p.panicMode {
		return nil
	}
	return &ast.IndexExpr{Object: left, LBracket: lbracket, Indexes: indexes, RBracket: rbracket}
}

func (p *Parser) parseMemberAccess(left ast.Expression) ast.Expression {
	dot := p.advance()
	member := p.consumeName()
	if p.panicMode {
		return nil
	}
	return &ast.MemberAccess{Object: left, Dot: dot, Member: member}
}

// parseObjectCreation create PKG:Class(args) 或 create Class()
func (p *Parser) parseObjectCreation() ast.Expression {
	createToken := p.advance()
	typ := p.parseNamedType()
	if typ == nil {
		return nil
	}
	expr := &ast.ObjectCreation{CreateToken: createToken, Type: typ}
	if p.match(token.LPAREN) {
		expr.Arguments = p.parseArguments()
		expr.RParen = p.consume(token.RPAREN, "')'")
		if p.panicMode {
			return nil
		}
	}
	return expr
}

// ============================================================================
// 语句级表达式（赋值）
// ============================================================================

// parseExprOrAssign 解析表达式语句
//
// 在 PeopleCode 中 '=' 既是赋值也是比较：只有语句起始处的 '=' 才是赋值。
func (p *Parser) parseExprOrAssign() ast.Expression {
	left := p.parsePrecedence(PREC_POSTFIX)
	if left == nil {
		return nil
	}

	if p.checkAny(token.EQ, token.PLUS_ASSIGN, token.MINUS_ASSIGN, token.PIPE_ASSIGN) {
		if !isValidAssignTarget(left) {
			p.error(i18n.T(i18n.ErrInvalidAssignTarget))
		}
		op := p.advance()
		value := p.parseExpression()
		if value == nil {
			return nil
		}
		return &ast.AssignExpr{Target: left, Operator: op, Value: value}
	}

	return p.parseInfixLoop(left, PREC_OR)
}

// isValidAssignTarget 检查表达式是否是有效的赋值目标
func isValidAssignTarget(expr ast.Expression) bool {
	switch expr.(type) {
	case *ast.Variable, *ast.IndexExpr, *ast.MemberAccess, *ast.Identifier:
		return true
	case *ast.CallExpr:
		// &rs(1).GetRecord(1) 这类默认方法调用的结果也可作为左值
		return true
	default:
		return false
	}
}
