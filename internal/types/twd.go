package types

import (
	"fmt"
	"strings"
)

// ============================================================================
// PeopleCodeType - 目录中的紧凑类型标签
// ============================================================================

// PeopleCodeType 单字节类型标签
type PeopleCodeType uint8

const (
	TypeAny PeopleCodeType = iota
	TypeBoolean
	TypeDate
	TypeDateTime
	TypeInteger
	TypeNumber
	TypeString
	TypeTime
	TypeVoid
	TypeUnknown
	TypeAppClass
	TypeSameAsObject
	TypeElementOfObject
	TypeSameAsArgument
	TypeArrayOfArgument
)

// 内置对象标签从 32 开始
const (
	TypeObject PeopleCodeType = 32 + iota
	TypeRowset
	TypeRow
	TypeRecord
	TypeField
	TypeSQL
	TypeFile
	TypeMessage
	TypeXmlDoc
	TypeXmlNode
	TypeGrid
	TypeGridColumn
	TypeChart
	TypeApiObject
	TypeException
	TypeJavaObject
	TypeRequest
	TypeResponse
	TypeProcessRequest
	TypePage
	TypeArrayObject
	TypeAnalyticInstance
	TypeCrypt
	TypeInterlink
	TypeTransformData
	TypeImage

	typeObjectEnd
)

var pcTypeNames = map[PeopleCodeType]string{
	TypeAny:             "any",
	TypeBoolean:         "boolean",
	TypeDate:            "date",
	TypeDateTime:        "datetime",
	TypeInteger:         "integer",
	TypeNumber:          "number",
	TypeString:          "string",
	TypeTime:            "time",
	TypeVoid:            "void",
	TypeUnknown:         "unknown",
	TypeAppClass:        "appclass",
	TypeSameAsObject:    "$same",
	TypeElementOfObject: "$element",
	TypeSameAsArgument:  "$arg",
	TypeArrayOfArgument: "$arrayofarg",

	TypeObject:           "Object",
	TypeRowset:           "Rowset",
	TypeRow:              "Row",
	TypeRecord:           "Record",
	TypeField:            "Field",
	TypeSQL:              "SQL",
	TypeFile:             "File",
	TypeMessage:          "Message",
	TypeXmlDoc:           "XmlDoc",
	TypeXmlNode:          "XmlNode",
	TypeGrid:             "Grid",
	TypeGridColumn:       "GridColumn",
	TypeChart:            "Chart",
	TypeApiObject:        "ApiObject",
	TypeException:        "Exception",
	TypeJavaObject:       "JavaObject",
	TypeRequest:          "Request",
	TypeResponse:         "Response",
	TypeProcessRequest:   "ProcessRequest",
	TypePage:             "Page",
	TypeArrayObject:      "Array",
	TypeAnalyticInstance: "AnalyticInstance",
	TypeCrypt:            "Crypt",
	TypeInterlink:        "Interlink",
	TypeTransformData:    "TransformData",
	TypeImage:            "Image",
}

var pcTypeByName map[string]PeopleCodeType

func init() {
	pcTypeByName = make(map[string]PeopleCodeType, len(pcTypeNames))
	for t, name := range pcTypeNames {
		pcTypeByName[strings.ToLower(name)] = t
	}
	pcTypeByName["float"] = TypeNumber
	pcTypeByName["character"] = TypeString
}

func (t PeopleCodeType) String() string {
	if name, ok := pcTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("PeopleCodeType(%d)", uint8(t))
}

// IsObject 是否为内置对象标签
func (t PeopleCodeType) IsObject() bool {
	return t >= TypeObject && t < typeObjectEnd
}

// IsPolymorphic 是否为多态标签
func (t PeopleCodeType) IsPolymorphic() bool {
	return t >= TypeSameAsObject && t <= TypeArrayOfArgument
}

// ParsePeopleCodeType 按名称查找标签（不区分大小写）
func ParsePeopleCodeType(name string) (PeopleCodeType, bool) {
	t, ok := pcTypeByName[strings.ToLower(name)]
	return t, ok
}

// ============================================================================
// TypeWithDimensionality - 目录的序列化单元
// ============================================================================

// TypeWithDimensionality 类型标签 + 数组维数 + 应用类路径 + 是否为引用
//
// IsReference 为 true 时 Type 字节存放的是 ReferenceCategory；
// 多态标签 $arg / $arrayofarg 的 Dims 字节存放实参下标。
type TypeWithDimensionality struct {
	Type         PeopleCodeType
	Dims         uint8
	AppClassPath string
	IsReference  bool
}

// Of 创建非数组类型
func Of(t PeopleCodeType) TypeWithDimensionality {
	return TypeWithDimensionality{Type: t}
}

// ArrayOf 创建数组类型
func ArrayOf(t PeopleCodeType, dims uint8) TypeWithDimensionality {
	return TypeWithDimensionality{Type: t, Dims: dims}
}

// AppClassOf 创建应用类类型
func AppClassOf(path string) TypeWithDimensionality {
	return TypeWithDimensionality{Type: TypeAppClass, AppClassPath: path}
}

// ReferenceOf 创建引用类型
func ReferenceOf(c ReferenceCategory) TypeWithDimensionality {
	return TypeWithDimensionality{Type: PeopleCodeType(c), IsReference: true}
}

// Equal 结构相等（类型 + 维数 + 应用类路径 + 引用标记）
func (t TypeWithDimensionality) Equal(o TypeWithDimensionality) bool {
	return t.Type == o.Type && t.Dims == o.Dims && t.IsReference == o.IsReference &&
		strings.EqualFold(t.AppClassPath, o.AppClassPath)
}

// IsVoid 是否为 void
func (t TypeWithDimensionality) IsVoid() bool {
	return !t.IsReference && t.Type == TypeVoid
}

// IsArray 是否为数组
func (t TypeWithDimensionality) IsArray() bool {
	return !t.IsReference && !t.Type.IsPolymorphic() && t.Dims > 0
}

// IsPolymorphic 是否为多态类型
func (t TypeWithDimensionality) IsPolymorphic() bool {
	return !t.IsReference && t.Type.IsPolymorphic()
}

func (t TypeWithDimensionality) String() string {
	if t.IsReference {
		return ReferenceCategory(t.Type).String() + "(ref)"
	}
	base := t.Type.String()
	switch {
	case t.Type == TypeAppClass:
		base = t.AppClassPath
	case t.Type == TypeSameAsArgument || t.Type == TypeArrayOfArgument:
		return fmt.Sprintf("%s(%d)", base, t.Dims)
	}
	return strings.Repeat("array of ", int(t.Dims)) + base
}

// ToTypeInfo 转换为推断期使用的 TypeInfo
func (t TypeWithDimensionality) ToTypeInfo() TypeInfo {
	if t.IsReference {
		return NewReference(ReferenceCategory(t.Type), "")
	}

	var base TypeInfo
	switch t.Type {
	case TypeAny:
		base = Any
	case TypeBoolean:
		base = Boolean
	case TypeDate:
		base = Date
	case TypeDateTime:
		base = DateTime
	case TypeInteger:
		base = Integer
	case TypeNumber:
		base = Number
	case TypeString:
		base = String
	case TypeTime:
		base = Time
	case TypeVoid:
		return Void
	case TypeUnknown:
		base = Unknown
	case TypeAppClass:
		if t.AppClassPath == "" {
			base = Unknown
		} else {
			base = NewAppClass(t.AppClassPath)
		}
	case TypeSameAsObject:
		return NewPolymorphic(SameAsObject, 0)
	case TypeElementOfObject:
		return NewPolymorphic(ElementOfObject, 0)
	case TypeSameAsArgument:
		return NewPolymorphic(SameAsArgument, int(t.Dims))
	case TypeArrayOfArgument:
		return NewPolymorphic(ArrayOfArgument, int(t.Dims))
	default:
		if t.Type.IsObject() {
			base = NewBuiltinObject(t.Type.String())
		} else {
			base = Unknown
		}
	}
	return NewArray(base, int(t.Dims))
}

// FromTypeInfo 将 TypeInfo 压缩为目录单元
func FromTypeInfo(ti TypeInfo) TypeWithDimensionality {
	switch x := ti.(type) {
	case nil:
		return Of(TypeUnknown)
	case *PrimitiveType:
		switch x.Prim {
		case PrimString:
			return Of(TypeString)
		case PrimInteger:
			return Of(TypeInteger)
		case PrimNumber:
			return Of(TypeNumber)
		case PrimBoolean:
			return Of(TypeBoolean)
		case PrimDate:
			return Of(TypeDate)
		case PrimTime:
			return Of(TypeTime)
		case PrimDateTime:
			return Of(TypeDateTime)
		}
	case *ArrayType:
		inner := FromTypeInfo(x.Elem)
		inner.Dims = uint8(x.Dims)
		return inner
	case *AppClassType:
		return AppClassOf(x.QualifiedName)
	case *BuiltinObjectType:
		if t, ok := ParsePeopleCodeType(x.ObjectName); ok && t.IsObject() {
			return Of(t)
		}
		return Of(TypeObject)
	case *ReferenceType:
		return ReferenceOf(x.Category)
	case *PolymorphicType:
		switch x.Rule {
		case SameAsObject:
			return Of(TypeSameAsObject)
		case ElementOfObject:
			return Of(TypeElementOfObject)
		case SameAsArgument:
			return TypeWithDimensionality{Type: TypeSameAsArgument, Dims: uint8(x.ArgIndex)}
		case ArrayOfArgument:
			return TypeWithDimensionality{Type: TypeArrayOfArgument, Dims: uint8(x.ArgIndex)}
		}
	}
	switch ti.Kind() {
	case KindAny:
		return Of(TypeAny)
	case KindVoid:
		return Of(TypeVoid)
	}
	return Of(TypeUnknown)
}

// ParseTypeWithDimensionality 解析 "array of array of string"、"PKG:Class"、"RECORD(ref)" 等写法
func ParseTypeWithDimensionality(s string) (TypeWithDimensionality, error) {
	text := strings.TrimSpace(s)
	var dims uint8
	for {
		lower := strings.ToLower(text)
		if !strings.HasPrefix(lower, "array") {
			break
		}
		rest := strings.TrimSpace(text[len("array"):])
		if rest == "" {
			return ArrayOf(TypeAny, dims+1), nil
		}
		if !strings.HasPrefix(strings.ToLower(rest), "of ") {
			break
		}
		dims++
		text = strings.TrimSpace(rest[len("of "):])
	}

	if strings.HasSuffix(strings.ToLower(text), "(ref)") {
		name := strings.TrimSpace(text[:len(text)-len("(ref)")])
		c, ok := ParseReferenceCategory(name)
		if !ok {
			return TypeWithDimensionality{}, fmt.Errorf("unknown reference category %q", name)
		}
		return ReferenceOf(c), nil
	}
	if strings.Contains(text, ":") {
		t := AppClassOf(text)
		t.Dims = dims
		return t, nil
	}
	if i := strings.IndexByte(text, '('); i > 0 && strings.HasSuffix(text, ")") {
		tag, ok := ParsePeopleCodeType(text[:i])
		if ok && (tag == TypeSameAsArgument || tag == TypeArrayOfArgument) {
			var idx uint8
			if _, err := fmt.Sscanf(text[i+1:len(text)-1], "%d", &idx); err != nil {
				return TypeWithDimensionality{}, fmt.Errorf("bad argument index in %q", s)
			}
			return TypeWithDimensionality{Type: tag, Dims: idx}, nil
		}
	}
	tag, ok := ParsePeopleCodeType(text)
	if !ok {
		return TypeWithDimensionality{}, fmt.Errorf("unknown type %q", s)
	}
	return ArrayOf(tag, dims), nil
}
