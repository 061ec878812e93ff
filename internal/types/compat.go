package types

import "strings"

// ============================================================================
// 可赋值性
// ============================================================================

// Hierarchy 提供应用类的祖先链（基类与实现的接口，按解析顺序）
//
// ok 为 false 表示源类无法解析。
type Hierarchy interface {
	Ancestors(qualifiedName string) (ancestors []string, ok bool)
}

// HierarchyFunc 函数适配器
type HierarchyFunc func(qualifiedName string) ([]string, bool)

// Ancestors 实现 Hierarchy
func (f HierarchyFunc) Ancestors(qualifiedName string) ([]string, bool) {
	return f(qualifiedName)
}

// Compat 可赋值性判定
type Compat struct {
	// Hierarchy 可为 nil，此时应用类只按名称比较
	Hierarchy Hierarchy
	// TreatUnknownAsAny 宽松模式：Unknown 视为 Any
	TreatUnknownAsAny bool
}

// IsAssignableFrom 判断 source 类型的值能否存入 target 类型的位置
func (c Compat) IsAssignableFrom(target, source TypeInfo) bool {
	if IsUnknown(target) {
		return c.TreatUnknownAsAny
	}
	if IsAny(target) || IsAny(source) {
		return true
	}
	if IsUnknown(source) {
		return c.TreatUnknownAsAny
	}
	if target.Kind() == KindPolymorphic || source.Kind() == KindPolymorphic {
		return true
	}

	switch t := target.(type) {
	case *PrimitiveType:
		s, ok := source.(*PrimitiveType)
		if !ok {
			return false
		}
		if t.Prim == s.Prim {
			return true
		}
		return t.IsNumeric() && s.IsNumeric()

	case *ArrayType:
		s, ok := source.(*ArrayType)
		if !ok || s.Dims != t.Dims {
			return false
		}
		return c.IsAssignableFrom(t.Elem, s.Elem)

	case *AppClassType:
		s, ok := source.(*AppClassType)
		if !ok {
			return false
		}
		if strings.EqualFold(t.QualifiedName, s.QualifiedName) {
			return true
		}
		if c.Hierarchy == nil {
			return c.TreatUnknownAsAny
		}
		chain, ok := c.Hierarchy.Ancestors(s.QualifiedName)
		if !ok {
			return c.TreatUnknownAsAny
		}
		for _, name := range chain {
			if strings.EqualFold(name, t.QualifiedName) {
				return true
			}
		}
		return false

	case *BuiltinObjectType:
		if strings.EqualFold(t.ObjectName, "Object") {
			switch source.Kind() {
			case KindAppClass, KindBuiltinObject, KindArray:
				return true
			}
			return false
		}
		s, ok := source.(*BuiltinObjectType)
		return ok && strings.EqualFold(t.ObjectName, s.ObjectName)

	case *ReferenceType:
		s, ok := source.(*ReferenceType)
		return ok && s.Category == t.Category
	}

	return false
}

// IsAssignableFrom 使用严格模式、无继承信息的默认判定
func IsAssignableFrom(target, source TypeInfo) bool {
	return Compat{}.IsAssignableFrom(target, source)
}
