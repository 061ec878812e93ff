package types

import "fmt"

// ============================================================================
// 多态类型
// ============================================================================

// PolyRule 多态类型的解析规则
type PolyRule int

const (
	// SameAsObject 与接收对象类型相同
	SameAsObject PolyRule = iota
	// ElementOfObject 接收对象（容器）的元素类型，维数减一
	ElementOfObject
	// SameAsArgument 与第 ArgIndex 个实参类型相同
	SameAsArgument
	// ArrayOfArgument 以第 ArgIndex 个实参为元素的数组，维数加一
	ArrayOfArgument
)

var polyRuleNames = [...]string{
	SameAsObject:    "SameAsObject",
	ElementOfObject: "ElementOfObject",
	SameAsArgument:  "SameAsArgument",
	ArrayOfArgument: "ArrayOfArgument",
}

func (r PolyRule) String() string {
	if int(r) >= 0 && int(r) < len(polyRuleNames) {
		return polyRuleNames[r]
	}
	return fmt.Sprintf("PolyRule(%d)", int(r))
}

// PolymorphicType 依赖调用点接收对象或实参的类型
type PolymorphicType struct {
	Rule     PolyRule
	ArgIndex int
}

func (t *PolymorphicType) Kind() Kind   { return KindPolymorphic }
func (t *PolymorphicType) Name() string { return t.Rule.String() }
func (t *PolymorphicType) String() string {
	switch t.Rule {
	case SameAsArgument, ArrayOfArgument:
		return fmt.Sprintf("%s(%d)", t.Rule, t.ArgIndex)
	}
	return t.Rule.String()
}

// NewPolymorphic 创建多态类型
func NewPolymorphic(rule PolyRule, argIndex int) TypeInfo {
	return &PolymorphicType{Rule: rule, ArgIndex: argIndex}
}

// Resolve 根据接收对象类型与实参类型求出具体类型
//
// 纯函数：只依赖参数。缺少输入或规则未知时返回 Any。
func Resolve(p *PolymorphicType, receiver TypeInfo, args []TypeInfo) TypeInfo {
	if p == nil {
		return Any
	}
	switch p.Rule {
	case SameAsObject:
		if receiver == nil {
			return Any
		}
		return receiver

	case ElementOfObject:
		arr, ok := receiver.(*ArrayType)
		if !ok {
			return Any
		}
		if arr.Dims > 1 {
			return &ArrayType{Elem: arr.Elem, Dims: arr.Dims - 1}
		}
		return arr.Elem

	case SameAsArgument:
		if arg := argAt(args, p.ArgIndex); arg != nil {
			return arg
		}
		return Any

	case ArrayOfArgument:
		arg := argAt(args, p.ArgIndex)
		if arg == nil || IsUnknown(arg) {
			arg = Any
		}
		return NewArray(arg, 1)
	}
	return Any
}

func argAt(args []TypeInfo, i int) TypeInfo {
	if i < 0 || i >= len(args) {
		return nil
	}
	return args[i]
}

// ResolveType 非多态类型原样返回
func ResolveType(t TypeInfo, receiver TypeInfo, args []TypeInfo) TypeInfo {
	if p, ok := t.(*PolymorphicType); ok {
		return Resolve(p, receiver, args)
	}
	if t == nil {
		return Any
	}
	return t
}

// ResolveAll 对联合类型的每个成员分别求值，保持顺序
func ResolveAll(list []TypeInfo, receiver TypeInfo, args []TypeInfo) []TypeInfo {
	out := make([]TypeInfo, len(list))
	for i, t := range list {
		out[i] = ResolveType(t, receiver, args)
	}
	return out
}

// First 取联合类型的第一个成员，空列表返回 Unknown
//
// 这是为只需要单一类型的调用方提供的简化；需要完整信息时应使用整个列表。
func First(list []TypeInfo) TypeInfo {
	if len(list) == 0 {
		return Unknown
	}
	return list[0]
}
