package inference

import (
	"strings"

	"go.uber.org/zap"

	"github.com/tangzhangming/pcode/internal/ast"
	"github.com/tangzhangming/pcode/internal/classinfo"
	"github.com/tangzhangming/pcode/internal/types"
)

// ============================================================================
// CollectingGlobals
// ============================================================================

// collectGlobals 在访问任何表达式之前登记程序级声明，使前向引用可以解析
func (c *Context) collectGlobals() {
	prog := c.prog
	c.imports = classinfo.NewImportScope(prog.Imports, classinfo.PackageOf(c.opts.ProgramName))

	if prog.Class != nil || prog.Interface != nil {
		info, err := c.classes.FromProgram(c.ctx, prog, c.opts.ProgramName)
		if err != nil {
			c.logger.Debug("class header resolution interrupted", zap.Error(err))
		}
		c.class = info
	}
	c.compat = types.Compat{
		Hierarchy:         c.classes.Hierarchy(c.ctx, c.class),
		TreatUnknownAsAny: c.opts.TreatUnknownAsAny,
	}

	for _, k := range prog.Constants {
		c.SetGlobal(k.Name.Literal, classinfo.LiteralType(k.Value))
	}

	for _, fn := range prog.Functions {
		key := strings.ToLower(fn.Name.Literal)
		// 同名时函数定义优先于 Declare Function
		if prev, ok := c.functions[key]; ok && !prev.Declared {
			continue
		}
		c.functions[key] = fn
	}

	for _, stmt := range prog.Statements {
		decl, ok := stmt.(*ast.VarDeclStmt)
		if !ok || decl.Scope == ast.ScopeLocal {
			continue
		}
		t := c.imports.TypeOf(decl.Type)
		for _, name := range decl.Names {
			c.SetGlobal(name.Token.Literal, t)
		}
	}

	// 全程序的变量声明，按出现顺序第一次声明为准
	ast.Walk(prog, func(n ast.Node) bool {
		if decl, ok := n.(*ast.VarDeclStmt); ok {
			t := c.imports.TypeOf(decl.Type)
			for _, name := range decl.Names {
				key := strings.ToLower(name.Token.Literal)
				if _, seen := c.declared[key]; !seen {
					c.declared[key] = t
				}
			}
		}
		return true
	})

	c.logger.Debug("globals collected",
		zap.Int("globals", len(c.globals)),
		zap.Int("functions", len(c.functions)),
		zap.Bool("class", c.class != nil))
}

// classInfo 按限定名取类元数据：当前程序的类优先，其次是本次运行的缓存
func (c *Context) classInfo(name string) *classinfo.ClassTypeInfo {
	if name == "" {
		return nil
	}
	if c.class != nil && strings.EqualFold(name, c.class.QualifiedName) {
		return c.class
	}
	key := strings.ToLower(name)
	if v, ok := c.typeCache.Load(key); ok {
		c.stats.CacheHits.Inc()
		info, _ := v.(*classinfo.ClassTypeInfo)
		return info
	}
	info, err := c.classes.Resolve(c.ctx, name)
	if err != nil {
		// 只有取消会返回错误，不记录缺失
		return nil
	}
	c.typeCache.Store(key, info)
	return info
}

// externalProgram Thorough 模式下解析 Declare Function 的来源程序
func (c *Context) externalProgram(name string) *ast.Program {
	if c.opts.Mode != Thorough || c.opts.Resolver == nil || name == "" {
		return nil
	}
	key := strings.ToLower(name)
	if v, ok := c.resolvedPrograms.Load(key); ok {
		c.stats.CacheHits.Inc()
		prog, _ := v.(*ast.Program)
		return prog
	}
	c.stats.ExternalResolutions.Inc()
	prog, err := c.opts.Resolver.ResolveProgram(c.ctx, name)
	if err != nil {
		c.logger.Warn("failed to resolve external program", zap.String("program", name), zap.Error(err))
		if c.ctx.Err() != nil {
			return nil
		}
		prog = nil
	}
	c.resolvedPrograms.Store(key, prog)
	return prog
}

// functionDecl 查找用户函数；Declare Function 在 Thorough 模式下替换为来源程序中的定义
func (c *Context) functionDecl(name string) (*ast.FunctionDecl, *classinfo.ImportScope) {
	fn, ok := c.functions[strings.ToLower(name)]
	if !ok {
		return nil, nil
	}
	if !fn.Declared {
		return fn, c.imports
	}
	if ext := c.externalProgram(fn.Library); ext != nil {
		for _, def := range ext.Functions {
			if !def.Declared && strings.EqualFold(def.Name.Literal, fn.Name.Literal) {
				return def, classinfo.NewImportScope(ext.Imports, "")
			}
		}
	}
	return fn, c.imports
}
