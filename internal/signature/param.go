// Package signature 描述内置函数、内置对象与应用类方法的签名
package signature

import (
	"fmt"
	"strings"

	"github.com/tangzhangming/pcode/internal/types"
)

// ============================================================================
// Parameter - 参数形态
// ============================================================================

// ParamTag 参数变体标签，同时也是目录中的编码字节
type ParamTag uint8

const (
	TagSingle ParamTag = iota
	TagUnion
	TagGroup
	TagVariable
	TagReference
)

func (t ParamTag) String() string {
	switch t {
	case TagSingle:
		return "single"
	case TagUnion:
		return "union"
	case TagGroup:
		return "group"
	case TagVariable:
		return "variable"
	case TagReference:
		return "reference"
	}
	return fmt.Sprintf("ParamTag(%d)", uint8(t))
}

// Unlimited 可变参数的上限哨兵值
const Unlimited int32 = -1

// Parameter 参数（封闭集合）
type Parameter interface {
	Tag() ParamTag
	Name() string
	// MinArgumentCount 至少消费的实参个数
	MinArgumentCount() int
	// MaxArgumentCount 至多消费的实参个数，-1 表示不限
	MaxArgumentCount() int
	IsOptional() bool
	String() string
}

// SingleParameter 单一类型参数
type SingleParameter struct {
	Type      types.TypeWithDimensionality
	ParamName string
}

func (p *SingleParameter) Tag() ParamTag         { return TagSingle }
func (p *SingleParameter) Name() string          { return p.ParamName }
func (p *SingleParameter) MinArgumentCount() int { return 1 }
func (p *SingleParameter) MaxArgumentCount() int { return 1 }
func (p *SingleParameter) IsOptional() bool      { return false }
func (p *SingleParameter) String() string        { return named(p.ParamName, p.Type.String()) }

// UnionParameter 接受若干类型之一
type UnionParameter struct {
	Types     []types.TypeWithDimensionality
	ParamName string
}

func (p *UnionParameter) Tag() ParamTag         { return TagUnion }
func (p *UnionParameter) Name() string          { return p.ParamName }
func (p *UnionParameter) MinArgumentCount() int { return 1 }
func (p *UnionParameter) MaxArgumentCount() int { return 1 }
func (p *UnionParameter) IsOptional() bool      { return false }
func (p *UnionParameter) String() string {
	parts := make([]string, len(p.Types))
	for i, t := range p.Types {
		parts[i] = t.String()
	}
	return named(p.ParamName, strings.Join(parts, "|"))
}

// GroupParameter 作为一个整体出现的一组相关参数
type GroupParameter struct {
	ParamName string
	Params    []Parameter
}

func (p *GroupParameter) Tag() ParamTag { return TagGroup }
func (p *GroupParameter) Name() string  { return p.ParamName }

func (p *GroupParameter) MinArgumentCount() int {
	n := 0
	for _, inner := range p.Params {
		n += inner.MinArgumentCount()
	}
	return n
}

func (p *GroupParameter) MaxArgumentCount() int {
	n := 0
	for _, inner := range p.Params {
		m := inner.MaxArgumentCount()
		if m < 0 {
			return -1
		}
		n += m
	}
	return n
}

func (p *GroupParameter) IsOptional() bool { return p.MinArgumentCount() == 0 }

func (p *GroupParameter) String() string {
	return "(" + joinParams(p.Params) + ")"
}

// VariableParameter 内部参数重复 Min..Max 次
type VariableParameter struct {
	Min, Max  int32 // Max == Unlimited 表示不限
	ParamName string
	Inner     Parameter
}

func (p *VariableParameter) Tag() ParamTag { return TagVariable }
func (p *VariableParameter) Name() string  { return p.ParamName }

func (p *VariableParameter) MinArgumentCount() int {
	return int(p.Min) * p.Inner.MinArgumentCount()
}

func (p *VariableParameter) MaxArgumentCount() int {
	inner := p.Inner.MaxArgumentCount()
	if p.Max == Unlimited || inner < 0 {
		return -1
	}
	return int(p.Max) * inner
}

func (p *VariableParameter) IsOptional() bool { return p.Min == 0 }

// IsUnlimited 是否为不限个数的可变参数
func (p *VariableParameter) IsUnlimited() bool { return p.Max == Unlimited }

func (p *VariableParameter) String() string {
	inner := p.Inner.String()
	switch {
	case p.Min == 0 && p.Max == 1:
		return "[" + inner + "]"
	case p.Max == Unlimited:
		return fmt.Sprintf("%s{%d,}", inner, p.Min)
	}
	return fmt.Sprintf("%s{%d,%d}", inner, p.Min, p.Max)
}

// ReferenceParameter 按名称传入的元数据引用 (Record.JOB, Field.EMPLID)
type ReferenceParameter struct {
	Category  types.ReferenceCategory
	ParamName string
}

func (p *ReferenceParameter) Tag() ParamTag         { return TagReference }
func (p *ReferenceParameter) Name() string          { return p.ParamName }
func (p *ReferenceParameter) MinArgumentCount() int { return 1 }
func (p *ReferenceParameter) MaxArgumentCount() int { return 1 }
func (p *ReferenceParameter) IsOptional() bool      { return false }
func (p *ReferenceParameter) String() string {
	return named(p.ParamName, p.Category.String()+".name")
}

func named(name, typ string) string {
	if name == "" {
		return typ
	}
	return name + " As " + typ
}

func joinParams(params []Parameter) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = p.String()
	}
	return strings.Join(parts, ", ")
}

// ArityWindow 返回一组参数可接受的实参个数范围，max 为 -1 表示不限
func ArityWindow(params []Parameter) (min, max int) {
	for _, p := range params {
		min += p.MinArgumentCount()
		if max >= 0 {
			if m := p.MaxArgumentCount(); m < 0 {
				max = -1
			} else {
				max += m
			}
		}
	}
	return min, max
}

// ParamEqual 结构相等
func ParamEqual(a, b Parameter) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Tag() != b.Tag() || a.Name() != b.Name() {
		return false
	}
	switch x := a.(type) {
	case *SingleParameter:
		return x.Type.Equal(b.(*SingleParameter).Type)
	case *UnionParameter:
		return twdListEqual(x.Types, b.(*UnionParameter).Types)
	case *GroupParameter:
		return ParamsEqual(x.Params, b.(*GroupParameter).Params)
	case *VariableParameter:
		y := b.(*VariableParameter)
		return x.Min == y.Min && x.Max == y.Max && ParamEqual(x.Inner, y.Inner)
	case *ReferenceParameter:
		return x.Category == b.(*ReferenceParameter).Category
	}
	return false
}

// ParamsEqual 参数列表结构相等
func ParamsEqual(a, b []Parameter) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !ParamEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

func twdListEqual(a, b []types.TypeWithDimensionality) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}
