package signature

import (
	"fmt"
	"strings"

	"github.com/tangzhangming/pcode/internal/types"
)

// Visibility 成员可见性（只对应用类方法有意义）
type Visibility uint8

const (
	Public Visibility = iota
	Protected
	Private
)

func (v Visibility) String() string {
	switch v {
	case Protected:
		return "protected"
	case Private:
		return "private"
	}
	return "public"
}

// ============================================================================
// FunctionInfo
// ============================================================================

// FunctionInfo 函数或方法签名
//
// Return 与 UnionReturns 互斥，UnionReturns 非空时优先。
type FunctionInfo struct {
	Name             string
	Overloads        [][]Parameter
	Return           types.TypeWithDimensionality
	UnionReturns     []types.TypeWithDimensionality
	IsDefaultMethod  bool
	IsProperty       bool
	IsOptionalReturn bool
	Visibility       Visibility
	Description      string
}

// HasUnionReturn 是否声明了联合返回类型
func (f *FunctionInfo) HasUnionReturn() bool { return len(f.UnionReturns) > 0 }

// ReturnTypes 返回声明的全部返回类型
func (f *FunctionInfo) ReturnTypes() []types.TypeWithDimensionality {
	if f.HasUnionReturn() {
		return f.UnionReturns
	}
	return []types.TypeWithDimensionality{f.Return}
}

// ReturnsVoid 无返回值
func (f *FunctionInfo) ReturnsVoid() bool {
	return !f.HasUnionReturn() && f.Return.IsVoid()
}

// ReturnsArray 任一返回类型是数组
func (f *FunctionInfo) ReturnsArray() bool {
	for _, t := range f.ReturnTypes() {
		if t.IsArray() {
			return true
		}
	}
	return false
}

// IsPolymorphicReturn 任一返回类型依赖调用点
func (f *FunctionInfo) IsPolymorphicReturn() bool {
	for _, t := range f.ReturnTypes() {
		if t.IsPolymorphic() {
			return true
		}
	}
	return false
}

// HasVarArgs 任一重载包含不限个数的可变参数
func (f *FunctionInfo) HasVarArgs() bool {
	for _, overload := range f.Overloads {
		if _, max := ArityWindow(overload); max < 0 {
			return true
		}
	}
	return false
}

// HasOptionalParameters 任一重载包含可选参数
func (f *FunctionInfo) HasOptionalParameters() bool {
	for _, overload := range f.Overloads {
		for _, p := range overload {
			if p.IsOptional() {
				return true
			}
		}
	}
	return false
}

// HasMultipleSignatures 是否有多个重载
func (f *FunctionInfo) HasMultipleSignatures() bool { return len(f.Overloads) > 1 }

// ResolveReturnTypes 将多态返回类型按调用点解析，保持联合类型的顺序
func (f *FunctionInfo) ResolveReturnTypes(receiver types.TypeInfo, args []types.TypeInfo) []types.TypeWithDimensionality {
	declared := f.ReturnTypes()
	out := make([]types.TypeWithDimensionality, len(declared))
	for i, t := range declared {
		if !t.IsPolymorphic() {
			out[i] = t
			continue
		}
		out[i] = types.FromTypeInfo(resolveMember(t, receiver, args))
	}
	return out
}

// ResolveReturnTypeInfos 同 ResolveReturnTypes，但直接返回推断期类型
func (f *FunctionInfo) ResolveReturnTypeInfos(receiver types.TypeInfo, args []types.TypeInfo) []types.TypeInfo {
	declared := f.ReturnTypes()
	out := make([]types.TypeInfo, len(declared))
	for i, t := range declared {
		if t.IsPolymorphic() {
			out[i] = resolveMember(t, receiver, args)
		} else {
			out[i] = t.ToTypeInfo()
		}
	}
	return out
}

// resolveMember 解析单个多态成员，配置错误时返回 Any
func resolveMember(t types.TypeWithDimensionality, receiver types.TypeInfo, args []types.TypeInfo) types.TypeInfo {
	poly, ok := t.ToTypeInfo().(*types.PolymorphicType)
	if !ok {
		return types.Any
	}
	return types.Resolve(poly, receiver, args)
}

// ArityFits 实参个数是否落在某个重载的范围内
func (f *FunctionInfo) ArityFits(n int) bool {
	if len(f.Overloads) == 0 {
		return n == 0
	}
	for _, overload := range f.Overloads {
		min, max := ArityWindow(overload)
		if n >= min && (max < 0 || n <= max) {
			return true
		}
	}
	return false
}

// ArityString 描述可接受的实参个数，用于诊断
func (f *FunctionInfo) ArityString() string {
	if len(f.Overloads) == 0 {
		return "0"
	}
	var parts []string
	seen := make(map[string]bool)
	for _, overload := range f.Overloads {
		min, max := ArityWindow(overload)
		var s string
		switch {
		case max < 0:
			s = fmt.Sprintf("%d+", min)
		case min == max:
			s = fmt.Sprintf("%d", min)
		default:
			s = fmt.Sprintf("%d-%d", min, max)
		}
		if !seen[s] {
			seen[s] = true
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " or ")
}

func (f *FunctionInfo) String() string {
	var sb strings.Builder
	for i, overload := range f.Overloads {
		if i > 0 {
			sb.WriteString("\n")
		}
		f.writeSignature(&sb, overload)
	}
	if len(f.Overloads) == 0 {
		f.writeSignature(&sb, nil)
	}
	return sb.String()
}

func (f *FunctionInfo) writeSignature(sb *strings.Builder, params []Parameter) {
	sb.WriteString(f.Name)
	if !f.IsProperty {
		sb.WriteString("(")
		sb.WriteString(joinParams(params))
		sb.WriteString(")")
	}
	if f.ReturnsVoid() {
		return
	}
	sb.WriteString(" Returns ")
	rets := f.ReturnTypes()
	for i, t := range rets {
		if i > 0 {
			sb.WriteString("|")
		}
		sb.WriteString(t.String())
	}
}

// Equal 结构相等
func (f *FunctionInfo) Equal(o *FunctionInfo) bool {
	if f == nil || o == nil {
		return f == o
	}
	if f.Name != o.Name || f.IsDefaultMethod != o.IsDefaultMethod || f.IsProperty != o.IsProperty ||
		f.IsOptionalReturn != o.IsOptionalReturn || f.Visibility != o.Visibility || f.Description != o.Description {
		return false
	}
	if !f.Return.Equal(o.Return) || !twdListEqual(f.UnionReturns, o.UnionReturns) {
		return false
	}
	if len(f.Overloads) != len(o.Overloads) {
		return false
	}
	for i := range f.Overloads {
		if !ParamsEqual(f.Overloads[i], o.Overloads[i]) {
			return false
		}
	}
	return true
}

// ============================================================================
// PropertyInfo
// ============================================================================

// PropertyInfo 属性或系统变量
type PropertyInfo struct {
	Name             string
	Visibility       Visibility
	Type             types.TypeWithDimensionality
	UnionTypes       []types.TypeWithDimensionality
	IsOptionalReturn bool
}

// Types 返回声明的全部类型，联合类型优先
func (p *PropertyInfo) Types() []types.TypeWithDimensionality {
	if len(p.UnionTypes) > 0 {
		return p.UnionTypes
	}
	return []types.TypeWithDimensionality{p.Type}
}

// TypeInfo 返回第一个声明类型对应的推断期类型
func (p *PropertyInfo) TypeInfo() types.TypeInfo {
	return p.Types()[0].ToTypeInfo()
}

func (p *PropertyInfo) String() string {
	parts := make([]string, 0, len(p.Types()))
	for _, t := range p.Types() {
		parts = append(parts, t.String())
	}
	return p.Name + " As " + strings.Join(parts, "|")
}

// Equal 结构相等
func (p *PropertyInfo) Equal(o *PropertyInfo) bool {
	if p == nil || o == nil {
		return p == o
	}
	return p.Name == o.Name && p.Visibility == o.Visibility && p.IsOptionalReturn == o.IsOptionalReturn &&
		p.Type.Equal(o.Type) && twdListEqual(p.UnionTypes, o.UnionTypes)
}

// ============================================================================
// BuiltinObjectInfo
// ============================================================================

// BuiltinObjectInfo 内置对象：按名称哈希索引的方法与属性
type BuiltinObjectInfo struct {
	Name              string
	Type              types.PeopleCodeType
	DefaultMethodHash uint32 // 0 表示没有默认方法
	Methods           map[uint32]*FunctionInfo
	Properties        map[uint32]*PropertyInfo
}

// NewBuiltinObject 创建空的内置对象描述
func NewBuiltinObject(name string, tag types.PeopleCodeType) *BuiltinObjectInfo {
	return &BuiltinObjectInfo{
		Name:       name,
		Type:       tag,
		Methods:    make(map[uint32]*FunctionInfo),
		Properties: make(map[uint32]*PropertyInfo),
	}
}

// AddMethod 添加方法；IsDefaultMethod 的方法同时成为默认方法
func (o *BuiltinObjectInfo) AddMethod(fn *FunctionInfo) {
	h := Hash(fn.Name)
	o.Methods[h] = fn
	if fn.IsDefaultMethod {
		o.DefaultMethodHash = h
	}
}

// AddProperty 添加属性
func (o *BuiltinObjectInfo) AddProperty(prop *PropertyInfo) {
	o.Properties[Hash(prop.Name)] = prop
}

// Method 按名称查找方法（不区分大小写）
func (o *BuiltinObjectInfo) Method(name string) (*FunctionInfo, bool) {
	fn, ok := o.Methods[Hash(name)]
	if ok && !strings.EqualFold(fn.Name, name) {
		return nil, false
	}
	return fn, ok
}

// Property 按名称查找属性（不区分大小写）
func (o *BuiltinObjectInfo) Property(name string) (*PropertyInfo, bool) {
	prop, ok := o.Properties[Hash(name)]
	if ok && !strings.EqualFold(prop.Name, name) {
		return nil, false
	}
	return prop, ok
}

// DefaultMethod 返回默认方法
func (o *BuiltinObjectInfo) DefaultMethod() (*FunctionInfo, bool) {
	if o.DefaultMethodHash == 0 {
		return nil, false
	}
	fn, ok := o.Methods[o.DefaultMethodHash]
	return fn, ok
}

// Equal 结构相等
func (o *BuiltinObjectInfo) Equal(x *BuiltinObjectInfo) bool {
	if o == nil || x == nil {
		return o == x
	}
	if o.Name != x.Name || o.Type != x.Type || o.DefaultMethodHash != x.DefaultMethodHash ||
		len(o.Methods) != len(x.Methods) || len(o.Properties) != len(x.Properties) {
		return false
	}
	for h, fn := range o.Methods {
		if !fn.Equal(x.Methods[h]) {
			return false
		}
	}
	for h, prop := range o.Properties {
		if !prop.Equal(x.Properties[h]) {
			return false
		}
	}
	return true
}
