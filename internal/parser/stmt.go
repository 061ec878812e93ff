package parser

import (
	"github.com/tangzhangming/pcode/internal/ast"
	"github.com/tangzhangming/pcode/internal/i18n"
	"github.com/tangzhangming/pcode/internal/token"
)

// ============================================================================
// 语句解析
// ============================================================================

func (p *Parser) parseStatement() ast.Statement {
	switch p.peek().Type {
	case token.LOCAL, token.GLOBAL, token.COMPONENT:
		return p.parseVarDecl()
	case token.IF:
		return p.parseIfStmt()
	case token.FOR:
		return p.parseForStmt()
	case token.WHILE:
		return p.parseWhileStmt()
	case token.REPEAT:
		return p.parseRepeatStmt()
	case token.EVALUATE:
		return p.parseEvaluateStmt()
	case token.RETURN:
		return p.parseReturnStmt()
	case token.TRY:
		return p.parseTryStmt()
	case token.THROW:
		throwToken := p.advance()
		value := p.parseExpression()
		if value == nil {
			return nil
		}
		return &ast.ThrowStmt{ThrowToken: throwToken, Value: value}
	case token.BREAK, token.CONTINUE:
		return &ast.BranchStmt{Token: p.advance()}
	case token.EXIT:
		stmt := &ast.BranchStmt{Token: p.advance()}
		if p.match(token.LPAREN) {
			if !p.check(token.RPAREN) {
				stmt.Value = p.parseExpression()
			}
			p.consume(token.RPAREN, "')'")
		}
		return stmt
	default:
		expr := p.parseExprOrAssign()
		if expr == nil {
			return nil
		}
		return &ast.ExprStmt{Expr: expr}
	}
}

// parseVarDecl Local|Global|Component Type &a [= expr], &b;
func (p *Parser) parseVarDecl() ast.Statement {
	scopeToken := p.advance()
	scope := ast.ScopeLocal
	switch scopeToken.Type {
	case token.GLOBAL:
		scope = ast.ScopeGlobal
	case token.COMPONENT:
		scope = ast.ScopeComponent
	}
	decl := p.parseVarNames(scopeToken, scope)
	if decl == nil {
		return nil
	}
	return decl
}

func (p *Parser) parseVarNames(scopeToken token.Token, scope ast.VarScope) *ast.VarDeclStmt {
	typ := p.parseType()
	if typ == nil {
		return nil
	}
	stmt := &ast.VarDeclStmt{ScopeToken: scopeToken, Scope: scope, Type: typ}
	for {
		nameTok := p.consume(token.VARIABLE, "variable name")
		if p.panicMode {
			return nil
		}
		name := &ast.VarName{Token: nameTok}
		if p.match(token.EQ) {
			name.Init = p.parseExpression()
			if name.Init == nil {
				return nil
			}
		}
		stmt.Names = append(stmt.Names, name)
		if !p.match(token.COMMA) {
			break
		}
	}
	return stmt
}

// parseBlock 解析语句序列直到遇到任一终止 token（不消费终止 token）
func (p *Parser) parseBlock(terminators ...token.TokenType) *ast.BlockStmt {
	block := &ast.BlockStmt{Start: p.peek().Pos}

	for !p.isAtEnd() && !p.checkAny(terminators...) {
		if p.match(token.SEMICOLON) {
			continue
		}

		start := p.current
		stmt := p.parseStatement()
		if p.panicMode {
			// 块内错误恢复：跳到下一个分号或块结束
			if p.current == start {
				p.advance()
			}
			for !p.isAtEnd() && !p.checkAny(terminators...) {
				if p.previous().Type == token.SEMICOLON {
					break
				}
				p.advance()
			}
			p.panicMode = false
			continue
		}
		if stmt != nil {
			block.Statements = append(block.Statements, stmt)
		}

		if !p.match(token.SEMICOLON) && !p.checkAny(terminators...) && !p.isAtEnd() {
			p.error(i18n.T(i18n.ErrExpectedToken, "';'", p.describe(p.peek())))
		}
	}

	block.Stop = p.peek().Pos
	return block
}

func (p *Parser) parseIfStmt() ast.Statement {
	ifToken := p.advance()
	cond := p.parseExpression()
	if cond == nil {
		return nil
	}
	p.consume(token.THEN, "'Then'")
	if p.panicMode {
		return nil
	}
	stmt := &ast.IfStmt{IfToken: ifToken, Condition: cond}
	stmt.Then = p.parseBlock(token.ELSE, token.END_IF)
	if p.match(token.ELSE) {
		stmt.Else = p.parseBlock(token.END_IF)
	}
	stmt.EndToken = p.consume(token.END_IF, "'End-If'")
	if p.panicMode {
		return nil
	}
	return stmt
}

func (p *Parser) parseForStmt() ast.Statement {
	forToken := p.advance()
	varTok := p.consume(token.VARIABLE, "loop variable")
	p.consume(token.EQ, "'='")
	if p.panicMode {
		return nil
	}
	stmt := &ast.ForStmt{ForToken: forToken, Variable: &ast.Variable{Token: varTok, Name: varTok.Literal}}
	if stmt.From = p.parseExpression(); stmt.From == nil {
		return nil
	}
	p.consume(token.TO, "'To'")
	if p.panicMode {
		return nil
	}
	if stmt.To = p.parseExpression(); stmt.To == nil {
		return nil
	}
	if p.match(token.STEP) {
		if stmt.Step = p.parseExpression(); stmt.Step == nil {
			return nil
		}
	}
	p.match(token.SEMICOLON)
	stmt.Body = p.parseBlock(token.END_FOR)
	stmt.EndToken = p.consume(token.END_FOR, "'End-For'")
	if p.panicMode {
		return nil
	}
	return stmt
}

func (p *Parser) parseWhileStmt() ast.Statement {
	whileToken := p.advance()
	cond := p.parseExpression()
	if cond == nil {
		return nil
	}
	p.match(token.SEMICOLON)
	stmt := &ast.WhileStmt{WhileToken: whileToken, Condition: cond}
	stmt.Body = p.parseBlock(token.END_WHILE)
	stmt.EndToken = p.consume(token.END_WHILE, "'End-While'")
	if p.panicMode {
		return nil
	}
	return stmt
}

func (p *Parser) parseRepeatStmt() ast.Statement {
	repeatToken := p.advance()
	body := p.parseBlock(token.UNTIL)
	p.consume(token.UNTIL, "'Until'")
	if p.panicMode {
		return nil
	}
	cond := p.parseExpression()
	if cond == nil {
		return nil
	}
	return &ast.RepeatStmt{RepeatToken: repeatToken, Body: body, Condition: cond}
}

func (p *Parser) parseEvaluateStmt() ast.Statement {
	evalToken := p.advance()
	subject := p.parseExpression()
	if subject == nil {
		return nil
	}
	stmt := &ast.EvaluateStmt{EvaluateToken: evalToken, Subject: subject}

	for p.check(token.WHEN) {
		clause := &ast.WhenClause{WhenToken: p.advance()}
		if p.checkAny(token.EQ, token.NE, token.LT, token.LE, token.GT, token.GE) {
			clause.Operator = p.advance()
		}
		if clause.Value = p.parseExpression(); clause.Value == nil {
			return nil
		}
		clause.Body = p.parseBlock(token.WHEN, token.WHEN_OTHER, token.END_EVALUATE)
		stmt.Whens = append(stmt.Whens, clause)
	}
	if p.match(token.WHEN_OTHER) {
		stmt.Other = p.parseBlock(token.END_EVALUATE)
	}
	stmt.EndToken = p.consume(token.END_EVALUATE, "'End-Evaluate'")
	if p.panicMode {
		return nil
	}
	return stmt
}

// blockEnders 可以紧跟在无值 Return 后的 token
var blockEnders = []token.TokenType{
	token.SEMICOLON, token.END_IF, token.ELSE, token.END_FOR, token.END_WHILE, token.UNTIL,
	token.WHEN, token.WHEN_OTHER, token.END_EVALUATE, token.END_METHOD, token.END_GET,
	token.END_SET, token.END_FUNCTION, token.CATCH, token.END_TRY, token.EOF,
}

func (p *Parser) parseReturnStmt() ast.Statement {
	stmt := &ast.ReturnStmt{ReturnToken: p.advance()}
	if !p.checkAny(blockEnders...) {
		if stmt.Value = p.parseExpression(); stmt.Value == nil {
			return nil
		}
	}
	return stmt
}

func (p *Parser) parseTryStmt() ast.Statement {
	stmt := &ast.TryStmt{TryToken: p.advance()}
	stmt.Body = p.parseBlock(token.CATCH, token.END_TRY)
	for p.check(token.CATCH) {
		clause := &ast.CatchClause{CatchToken: p.advance()}
		if clause.Type = p.parseType(); clause.Type == nil {
			return nil
		}
		clause.Variable = p.consume(token.VARIABLE, "exception variable")
		if p.panicMode {
			return nil
		}
		clause.Body = p.parseBlock(token.CATCH, token.END_TRY)
		stmt.Catches = append(stmt.Catches, clause)
	}
	stmt.EndToken = p.consume(token.END_TRY, "'end-try'")
	if p.panicMode {
		return nil
	}
	return stmt
}
