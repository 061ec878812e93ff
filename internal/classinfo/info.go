// Package classinfo 应用类与接口的元数据模型及其按需解析
//
// 类按限定名 (PKG:SUB:Class) 标识，源码通过 SourceProvider 获取、解析后缓存。
// 缓存中的 ClassTypeInfo 构建完成后不再修改，失效时整体替换。
package classinfo

import (
	"strings"

	"github.com/tangzhangming/pcode/internal/signature"
	"github.com/tangzhangming/pcode/internal/token"
	"github.com/tangzhangming/pcode/internal/types"
)

// ParamInfo 方法参数
type ParamInfo struct {
	Name string
	Type types.TypeInfo
	Out  bool
}

// ClassMethodInfo 应用类方法
type ClassMethodInfo struct {
	Name          string
	Visibility    signature.Visibility
	Params        []ParamInfo
	Return        types.TypeInfo // 无返回值时为 Void
	IsAbstract    bool
	DeclaringType string
	Pos           token.Position
}

// MemberName 实现 ast.MethodRef
func (m *ClassMethodInfo) MemberName() string { return m.Name }

// DeclaringTypeName 实现 ast.MethodRef
func (m *ClassMethodInfo) DeclaringTypeName() string { return m.DeclaringType }

// ReturnsVoid 无返回值
func (m *ClassMethodInfo) ReturnsVoid() bool { return types.IsVoid(m.Return) }

func (m *ClassMethodInfo) String() string {
	var sb strings.Builder
	sb.WriteString(m.Name)
	sb.WriteString("(")
	for i, p := range m.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(p.Name)
		sb.WriteString(" As ")
		sb.WriteString(types.Display(p.Type))
		if p.Out {
			sb.WriteString(" out")
		}
	}
	sb.WriteString(")")
	if !m.ReturnsVoid() {
		sb.WriteString(" Returns ")
		sb.WriteString(types.Display(m.Return))
	}
	return sb.String()
}

// ClassPropertyInfo 属性、实例变量或类常量
type ClassPropertyInfo struct {
	Name          string
	Visibility    signature.Visibility
	Type          types.TypeInfo
	IsReadOnly    bool
	IsInstance    bool
	IsConstant    bool
	IsAbstract    bool
	DeclaringType string
	Pos           token.Position
}

// ClassTypeInfo 一个应用类或接口
//
// 接口的 BaseClassName 是它扩展的接口。成员表的键为小写名称。
type ClassTypeInfo struct {
	QualifiedName         string
	IsInterface           bool
	BaseClassName         string
	ImplementedInterfaces []string
	Properties            map[string]*ClassPropertyInfo
	Methods               map[string]*ClassMethodInfo
	Constructor           *ClassMethodInfo

	// CyclicLinks 因循环继承而被切断的链接
	CyclicLinks []string
}

func newClassTypeInfo(name string) *ClassTypeInfo {
	return &ClassTypeInfo{
		QualifiedName: name,
		Properties:    make(map[string]*ClassPropertyInfo),
		Methods:       make(map[string]*ClassMethodInfo),
	}
}

// ClassName 限定名中的类名
func (c *ClassTypeInfo) ClassName() string {
	if i := strings.LastIndexByte(c.QualifiedName, ':'); i >= 0 {
		return c.QualifiedName[i+1:]
	}
	return c.QualifiedName
}

// Type 返回对应的 TypeInfo
func (c *ClassTypeInfo) Type() types.TypeInfo {
	return types.NewAppClass(c.QualifiedName)
}

// IsAbstract 接口，或自身声明了抽象方法
func (c *ClassTypeInfo) IsAbstract() bool {
	if c.IsInterface {
		return true
	}
	for _, m := range c.Methods {
		if m.IsAbstract {
			return true
		}
	}
	return false
}

// Method 只查找自身声明的方法
func (c *ClassTypeInfo) Method(name string) (*ClassMethodInfo, bool) {
	m, ok := c.Methods[strings.ToLower(name)]
	return m, ok
}

// Property 只查找自身声明的属性
func (c *ClassTypeInfo) Property(name string) (*ClassPropertyInfo, bool) {
	p, ok := c.Properties[strings.ToLower(name)]
	return p, ok
}

// AccessContext 成员访问发生的位置
type AccessContext struct {
	FromClass string // 发起访问的类的限定名，类外为空
	ViaSuper  bool   // 通过 %Super 访问
	all       bool
}

// Unrestricted 忽略可见性，用于区分“成员不存在”和“成员不可见”
var Unrestricted = AccessContext{all: true}

// visible 判断成员对当前访问是否可见
//
// start 是查找起点的类，depth 为 0 表示成员声明在起点类上。
func (a AccessContext) visible(v signature.Visibility, declaring, start string, depth int) bool {
	if a.all {
		return true
	}
	switch v {
	case signature.Protected:
		return a.ViaSuper || strings.EqualFold(a.FromClass, start) || strings.EqualFold(a.FromClass, declaring)
	case signature.Private:
		return depth == 0 && !a.ViaSuper && strings.EqualFold(a.FromClass, declaring)
	}
	return true
}
