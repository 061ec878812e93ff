// Package types 定义类型推断使用的类型格（type lattice）
package types

import (
	"fmt"
	"strings"
)

// ============================================================================
// 类型种类
// ============================================================================

// Kind 类型种类（封闭集合）
type Kind int

const (
	KindPrimitive Kind = iota
	KindArray
	KindAppClass
	KindBuiltinObject
	KindReference
	KindAny
	KindVoid
	KindUnknown
	KindPolymorphic
)

var kindNames = [...]string{
	KindPrimitive:     "Primitive",
	KindArray:         "Array",
	KindAppClass:      "AppClass",
	KindBuiltinObject: "BuiltinObject",
	KindReference:     "Reference",
	KindAny:           "Any",
	KindVoid:          "Void",
	KindUnknown:       "Unknown",
	KindPolymorphic:   "Polymorphic",
}

func (k Kind) String() string {
	if int(k) >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// TypeInfo 推断期使用的类型
type TypeInfo interface {
	Kind() Kind
	Name() string
	String() string
}

// ============================================================================
// 基本类型
// ============================================================================

// PrimitiveKind 基本类型
type PrimitiveKind int

const (
	PrimString PrimitiveKind = iota
	PrimInteger
	PrimNumber
	PrimBoolean
	PrimDate
	PrimTime
	PrimDateTime
)

var primitiveNames = [...]string{
	PrimString:   "String",
	PrimInteger:  "Integer",
	PrimNumber:   "Number",
	PrimBoolean:  "Boolean",
	PrimDate:     "Date",
	PrimTime:     "Time",
	PrimDateTime: "DateTime",
}

func (p PrimitiveKind) String() string {
	if int(p) >= 0 && int(p) < len(primitiveNames) {
		return primitiveNames[p]
	}
	return fmt.Sprintf("PrimitiveKind(%d)", int(p))
}

// PrimitiveType 基本类型
type PrimitiveType struct {
	Prim PrimitiveKind
}

func (t *PrimitiveType) Kind() Kind      { return KindPrimitive }
func (t *PrimitiveType) Name() string    { return t.Prim.String() }
func (t *PrimitiveType) String() string  { return t.Prim.String() }
func (t *PrimitiveType) IsNumeric() bool { return t.Prim == PrimInteger || t.Prim == PrimNumber }

// ArrayType 数组类型，Dims >= 1，Elem 不会再是数组
type ArrayType struct {
	Elem TypeInfo
	Dims int
}

func (t *ArrayType) Kind() Kind   { return KindArray }
func (t *ArrayType) Name() string { return t.String() }
func (t *ArrayType) String() string {
	return strings.Repeat("array of ", t.Dims) + t.Elem.String()
}

// AppClassType 应用类，按限定名标识 (PKG:SUB:Class)
type AppClassType struct {
	QualifiedName string
}

func (t *AppClassType) Kind() Kind     { return KindAppClass }
func (t *AppClassType) Name() string   { return t.QualifiedName }
func (t *AppClassType) String() string { return t.QualifiedName }

// ClassName 返回限定名中的类名部分
func (t *AppClassType) ClassName() string {
	if i := strings.LastIndex(t.QualifiedName, ":"); i >= 0 {
		return t.QualifiedName[i+1:]
	}
	return t.QualifiedName
}

// BuiltinObjectType 系统内置对象 (Rowset, Field ...)
type BuiltinObjectType struct {
	ObjectName string
}

func (t *BuiltinObjectType) Kind() Kind     { return KindBuiltinObject }
func (t *BuiltinObjectType) Name() string   { return t.ObjectName }
func (t *BuiltinObjectType) String() string { return t.ObjectName }

// ReferenceType 声明式元数据引用 (RECORD.JOB, FIELD.EMPLID)
type ReferenceType struct {
	Category ReferenceCategory
	Target   string // 可为空
}

func (t *ReferenceType) Kind() Kind   { return KindReference }
func (t *ReferenceType) Name() string { return t.Category.String() }
func (t *ReferenceType) String() string {
	if t.Target != "" {
		return t.Category.String() + "." + t.Target
	}
	return t.Category.String()
}

type anyType struct{}

func (anyType) Kind() Kind     { return KindAny }
func (anyType) Name() string   { return "Any" }
func (anyType) String() string { return "Any" }

type voidType struct{}

func (voidType) Kind() Kind     { return KindVoid }
func (voidType) Name() string   { return "Void" }
func (voidType) String() string { return "Void" }

type unknownType struct{}

func (unknownType) Kind() Kind     { return KindUnknown }
func (unknownType) Name() string   { return "Unknown" }
func (unknownType) String() string { return "Unknown" }

// 单例
var (
	Any     TypeInfo = anyType{}
	Void    TypeInfo = voidType{}
	Unknown TypeInfo = unknownType{}

	String   TypeInfo = &PrimitiveType{PrimString}
	Integer  TypeInfo = &PrimitiveType{PrimInteger}
	Number   TypeInfo = &PrimitiveType{PrimNumber}
	Boolean  TypeInfo = &PrimitiveType{PrimBoolean}
	Date     TypeInfo = &PrimitiveType{PrimDate}
	Time     TypeInfo = &PrimitiveType{PrimTime}
	DateTime TypeInfo = &PrimitiveType{PrimDateTime}
)

// Primitive 返回基本类型单例
func Primitive(p PrimitiveKind) TypeInfo {
	switch p {
	case PrimString:
		return String
	case PrimInteger:
		return Integer
	case PrimNumber:
		return Number
	case PrimBoolean:
		return Boolean
	case PrimDate:
		return Date
	case PrimTime:
		return Time
	case PrimDateTime:
		return DateTime
	}
	return Unknown
}

// NewArray 创建数组类型，嵌套数组会合并维数
func NewArray(elem TypeInfo, dims int) TypeInfo {
	if dims <= 0 {
		return elem
	}
	if elem == nil {
		elem = Any
	}
	if inner, ok := elem.(*ArrayType); ok {
		return &ArrayType{Elem: inner.Elem, Dims: inner.Dims + dims}
	}
	return &ArrayType{Elem: elem, Dims: dims}
}

// NewAppClass 创建应用类类型
func NewAppClass(qualifiedName string) TypeInfo {
	return &AppClassType{QualifiedName: qualifiedName}
}

// NewBuiltinObject 创建内置对象类型
func NewBuiltinObject(name string) TypeInfo {
	return &BuiltinObjectType{ObjectName: name}
}

// NewReference 创建引用类型
func NewReference(category ReferenceCategory, target string) TypeInfo {
	return &ReferenceType{Category: category, Target: target}
}

// ============================================================================
// 判定与比较
// ============================================================================

// IsUnknown 判断是否为 Unknown（nil 视为 Unknown）
func IsUnknown(t TypeInfo) bool {
	return t == nil || t.Kind() == KindUnknown
}

// IsAny 判断是否为 Any
func IsAny(t TypeInfo) bool {
	return t != nil && t.Kind() == KindAny
}

// IsVoid 判断是否为 Void
func IsVoid(t TypeInfo) bool {
	return t != nil && t.Kind() == KindVoid
}

// IsPrimitive 判断是否为给定的基本类型
func IsPrimitive(t TypeInfo, p PrimitiveKind) bool {
	pt, ok := t.(*PrimitiveType)
	return ok && pt.Prim == p
}

// IsNumeric 判断是否为 Integer 或 Number
func IsNumeric(t TypeInfo) bool {
	pt, ok := t.(*PrimitiveType)
	return ok && pt.IsNumeric()
}

// Equal 结构相等；应用类与内置对象名称不区分大小写
func Equal(a, b TypeInfo) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch x := a.(type) {
	case *PrimitiveType:
		return x.Prim == b.(*PrimitiveType).Prim
	case *ArrayType:
		y := b.(*ArrayType)
		return x.Dims == y.Dims && Equal(x.Elem, y.Elem)
	case *AppClassType:
		return strings.EqualFold(x.QualifiedName, b.(*AppClassType).QualifiedName)
	case *BuiltinObjectType:
		return strings.EqualFold(x.ObjectName, b.(*BuiltinObjectType).ObjectName)
	case *ReferenceType:
		y := b.(*ReferenceType)
		return x.Category == y.Category && strings.EqualFold(x.Target, y.Target)
	case *PolymorphicType:
		y := b.(*PolymorphicType)
		return x.Rule == y.Rule && x.ArgIndex == y.ArgIndex
	}
	return true
}

// Display 返回用于诊断的类型名，nil 显示为 Unknown
func Display(t TypeInfo) string {
	if t == nil {
		return Unknown.String()
	}
	return t.String()
}
