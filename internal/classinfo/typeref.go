package classinfo

import (
	"strings"

	"github.com/tangzhangming/pcode/internal/ast"
	"github.com/tangzhangming/pcode/internal/types"
)

// ============================================================================
// 类型引用解析
// ============================================================================

// ImportScope 把源码中的短类名补全为限定名
//
// 查找顺序：显式 import、通配 import、所在包，最后原样保留。
type ImportScope struct {
	explicit  map[string]string // 小写类名 -> 限定名
	wildcards []string
	pkg       string
}

// NewImportScope 根据 import 列表和当前类所在的包创建作用域
func NewImportScope(imports []*ast.ImportDecl, pkg string) *ImportScope {
	s := &ImportScope{explicit: make(map[string]string), pkg: pkg}
	for _, imp := range imports {
		if imp == nil || len(imp.Path) == 0 {
			continue
		}
		if imp.Wildcard {
			s.wildcards = append(s.wildcards, imp.Package())
			continue
		}
		name := imp.Path[len(imp.Path)-1]
		key := strings.ToLower(name)
		// 同名的重复 import 以第一个为准
		if _, dup := s.explicit[key]; !dup {
			s.explicit[key] = strings.Join(imp.Path, ":")
		}
	}
	return s
}

// PackageOf 限定名的包部分，没有包时返回空串
func PackageOf(qualified string) string {
	if i := strings.LastIndexByte(qualified, ':'); i >= 0 {
		return qualified[:i]
	}
	return ""
}

// Package 当前类所在的包
func (s *ImportScope) Package() string { return s.pkg }

// Qualify 补全短类名，已带包路径的名称原样返回
func (s *ImportScope) Qualify(name string) string {
	if strings.Contains(name, ":") || s == nil {
		return name
	}
	if q, ok := s.explicit[strings.ToLower(name)]; ok {
		return q
	}
	if len(s.wildcards) > 0 {
		return s.wildcards[0] + ":" + name
	}
	if s.pkg != "" {
		return s.pkg + ":" + name
	}
	return name
}

// TypeOf 把类型节点转换为 TypeInfo，nil 节点返回 Any
func (s *ImportScope) TypeOf(n ast.TypeNode) types.TypeInfo {
	switch t := n.(type) {
	case nil:
		return types.Any
	case *ast.ArrayType:
		var elem types.TypeInfo = types.Any
		if t.Element != nil {
			elem = s.TypeOf(t.Element)
		}
		return types.NewArray(elem, t.Dims)
	case *ast.AppClassTypeRef:
		return types.NewAppClass(strings.Join(t.Path, ":"))
	case *ast.SimpleType:
		if typ, ok := types.ParseTypeName(t.Name); ok {
			return typ
		}
		return types.NewAppClass(s.Qualify(t.Name))
	}
	return types.Unknown
}

// ClassRef 把 extends/implements 引用转换为限定名，非应用类返回空串
func (s *ImportScope) ClassRef(n ast.TypeNode) string {
	if t, ok := s.TypeOf(n).(*types.AppClassType); ok {
		return t.QualifiedName
	}
	return ""
}
