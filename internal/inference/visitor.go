package inference

import (
	"strings"

	"github.com/tangzhangming/pcode/internal/ast"
	"github.com/tangzhangming/pcode/internal/classinfo"
	"github.com/tangzhangming/pcode/internal/token"
	"github.com/tangzhangming/pcode/internal/types"
)

// ============================================================================
// Visiting: 声明与语句
// ============================================================================

// visitProgram 按子节点顺序深度优先遍历整个程序
//
// 每个顶层声明之间检查一次取消。
func (c *Context) visitProgram() {
	prog := c.prog
	if prog.Class != nil {
		for _, k := range prog.Class.Constants {
			if c.stopped() {
				return
			}
			c.visitExpr(k.Value)
		}
		for _, impl := range prog.Class.Impls {
			if c.stopped() {
				return
			}
			c.visitImpl(impl)
		}
	}
	for _, k := range prog.Constants {
		if c.stopped() {
			return
		}
		c.visitExpr(k.Value)
	}
	for _, fn := range prog.Functions {
		if c.stopped() {
			return
		}
		c.visitFunction(fn)
	}
	for _, stmt := range prog.Statements {
		if c.stopped() {
			return
		}
		c.visitStmt(stmt)
	}
}

// visitImpl 方法或 get/set 访问器的实现体
func (c *Context) visitImpl(impl *ast.MethodImpl) {
	c.EnterScope()
	defer c.ExitScope()

	f := &frame{name: impl.Name.Literal, returns: types.Void}
	switch impl.Accessor {
	case token.GET, token.SET:
		var propType types.TypeInfo = types.Any
		if c.class != nil {
			if p, ok := c.class.Property(impl.Name.Literal); ok {
				propType = p.Type
			}
		}
		if impl.Accessor == token.GET {
			f.returns = propType
		} else {
			c.Declare("&NewValue", propType)
		}
	default:
		var m *classinfo.ClassMethodInfo
		if c.class != nil {
			name := impl.Name.Literal
			if c.class.Constructor != nil && strings.EqualFold(c.class.Constructor.Name, name) {
				m = c.class.Constructor
			} else {
				m, _ = c.class.Method(name)
			}
		}
		if m != nil {
			for _, p := range m.Params {
				c.Declare(p.Name, p.Type)
			}
			if m != c.class.Constructor {
				f.returns = m.Return
			}
		}
	}

	outer := c.frame
	c.frame = f
	defer func() { c.frame = outer }()
	c.visitBlock(impl.Body)
}

// visitFunction 函数体；Declare Function 没有函数体
func (c *Context) visitFunction(fn *ast.FunctionDecl) {
	if fn.Body == nil {
		return
	}
	c.EnterScope()
	defer c.ExitScope()

	for _, p := range fn.Params {
		c.Declare(p.Name.Literal, c.imports.TypeOf(p.Type))
	}
	f := &frame{name: fn.Name.Literal, returns: types.Void}
	if fn.Returns != nil {
		f.returns = c.imports.TypeOf(fn.Returns)
	}
	outer := c.frame
	c.frame = f
	defer func() { c.frame = outer }()
	c.visitBlock(fn.Body)
}

// visitBlock 在新作用域中访问语句序列
func (c *Context) visitBlock(b *ast.BlockStmt) {
	if b == nil {
		return
	}
	c.EnterScope()
	defer c.ExitScope()
	c.visitStmts(b.Statements)
}

func (c *Context) visitStmts(list []ast.Statement) {
	for _, stmt := range list {
		if c.stopped() {
			return
		}
		c.visitStmt(stmt)
	}
}

func (c *Context) visitStmt(stmt ast.Statement) {
	if stmt == nil {
		return
	}
	c.stats.NodesAnalyzed.Inc()

	switch s := stmt.(type) {
	case *ast.BlockStmt:
		c.visitBlock(s)

	case *ast.ExprStmt:
		c.visitExpr(s.Expr)

	case *ast.VarDeclStmt:
		c.visitVarDecl(s)

	case *ast.IfStmt:
		c.visitExpr(s.Condition)
		c.visitBlock(s.Then)
		c.visitBlock(s.Else)

	case *ast.ForStmt:
		if v, ok := s.Variable.(*ast.Variable); ok {
			if _, found := c.Lookup(v.Name); !found {
				c.Declare(v.Name, types.Integer)
			}
		}
		c.visitExpr(s.Variable)
		c.visitExpr(s.From)
		c.visitExpr(s.To)
		if s.Step != nil {
			c.visitExpr(s.Step)
		}
		c.visitBlock(s.Body)

	case *ast.WhileStmt:
		c.visitExpr(s.Condition)
		c.visitBlock(s.Body)

	case *ast.RepeatStmt:
		c.visitBlock(s.Body)
		c.visitExpr(s.Condition)

	case *ast.EvaluateStmt:
		c.visitExpr(s.Subject)
		for _, w := range s.Whens {
			if c.stopped() {
				return
			}
			c.visitExpr(w.Value)
			c.visitBlock(w.Body)
		}
		c.visitBlock(s.Other)

	case *ast.ReturnStmt:
		c.visitReturn(s)

	case *ast.TryStmt:
		c.visitBlock(s.Body)
		for _, clause := range s.Catches {
			c.EnterScope()
			c.Declare(clause.Variable.Literal, c.imports.TypeOf(clause.Type))
			c.visitBlock(clause.Body)
			c.ExitScope()
		}

	case *ast.ThrowStmt:
		c.visitExpr(s.Value)

	case *ast.BranchStmt:
		if s.Value != nil {
			c.visitExpr(s.Value)
		}
	}
}

// visitVarDecl Local 变量进入当前作用域；Global/Component 同时登记为程序级
func (c *Context) visitVarDecl(s *ast.VarDeclStmt) {
	t := c.imports.TypeOf(s.Type)
	for _, name := range s.Names {
		if name.Init != nil {
			c.visitExpr(name.Init)
			c.sites.inits = append(c.sites.inits, initSite{name: name.Token, target: t, value: name.Init})
		}
		if s.Scope == ast.ScopeGlobal || s.Scope == ast.ScopeComponent {
			c.SetGlobal(name.Token.Literal, t)
		}
		c.Declare(name.Token.Literal, t)
	}
}

func (c *Context) visitReturn(s *ast.ReturnStmt) {
	var value types.TypeInfo
	if s.Value != nil {
		value = c.visitExpr(s.Value)
	}
	if c.frame != nil {
		c.sites.returns = append(c.sites.returns, returnSite{
			stmt:     s,
			where:    c.frame.name,
			declared: c.frame.returns,
			value:    value,
		})
	}
}
