package catalog

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/tangzhangming/pcode/internal/signature"
	"github.com/tangzhangming/pcode/internal/types"
)

// encoder 记录编码器
//
// inline 为 true 时参数名直接内联（旧格式），否则写入共享名称表并以索引引用。
type encoder struct {
	buf       bytes.Buffer
	inline    bool
	names     []string
	nameIndex map[string]uint32
}

func newEncoder(inline bool) *encoder {
	return &encoder{inline: inline, nameIndex: make(map[string]uint32)}
}

func (e *encoder) u8(v uint8) {
	e.buf.WriteByte(v)
}

func (e *encoder) u32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	e.buf.Write(b[:])
}

func (e *encoder) i32(v int32) {
	e.u32(uint32(v))
}

func (e *encoder) uvarint(v uint64) {
	var b [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(b[:], v)
	e.buf.Write(b[:n])
}

func (e *encoder) str(s string) {
	e.uvarint(uint64(len(s)))
	e.buf.WriteString(s)
}

// intern 添加名称到名称表，返回索引
func (e *encoder) intern(name string) uint32 {
	if idx, ok := e.nameIndex[name]; ok {
		return idx
	}
	idx := uint32(len(e.names))
	e.names = append(e.names, name)
	e.nameIndex[name] = idx
	return idx
}

// nameRef 写入名称引用：0 表示无名称，否则 (index << 1) | 1
func (e *encoder) nameRef(name string) {
	if e.inline {
		e.str(name)
		return
	}
	if name == "" {
		e.uvarint(0)
		return
	}
	e.uvarint(uint64(e.intern(name))<<1 | 1)
}

func (e *encoder) tuple(t types.TypeWithDimensionality) {
	e.u8(uint8(t.Type))
	e.u8(t.Dims)
	e.str(t.AppClassPath)
	if t.IsReference {
		e.u8(1)
	} else {
		e.u8(0)
	}
}

func (e *encoder) count(what string, n int) error {
	if n > 0xFF {
		return fmt.Errorf("catalog: too many %s (%d)", what, n)
	}
	e.u8(uint8(n))
	return nil
}

func (e *encoder) params(list []signature.Parameter) error {
	if err := e.count("parameters", len(list)); err != nil {
		return err
	}
	for _, p := range list {
		if err := e.param(p); err != nil {
			return err
		}
	}
	return nil
}

func (e *encoder) param(p signature.Parameter) error {
	e.u8(uint8(p.Tag()))
	switch x := p.(type) {
	case *signature.SingleParameter:
		e.tuple(x.Type)
		e.nameRef(x.ParamName)
	case *signature.UnionParameter:
		if err := e.count("union members", len(x.Types)); err != nil {
			return err
		}
		for _, t := range x.Types {
			e.tuple(t)
		}
		e.nameRef(x.ParamName)
	case *signature.GroupParameter:
		e.nameRef(x.ParamName)
		return e.params(x.Params)
	case *signature.VariableParameter:
		if x.Inner == nil {
			return fmt.Errorf("catalog: variable parameter %q has no inner parameter", x.ParamName)
		}
		e.i32(x.Min)
		if x.IsUnlimited() {
			e.i32(unlimitedSentinel)
		} else {
			e.i32(x.Max)
		}
		e.nameRef(x.ParamName)
		return e.param(x.Inner)
	case *signature.ReferenceParameter:
		e.u8(uint8(x.Category))
		e.nameRef(x.ParamName)
	default:
		return fmt.Errorf("catalog: unsupported parameter %T", p)
	}
	return nil
}

func (e *encoder) returns(flags uint8, single types.TypeWithDimensionality, union []types.TypeWithDimensionality) error {
	if flags&recFlagUnionReturn == 0 {
		e.tuple(single)
		return nil
	}
	if err := e.count("return types", len(union)); err != nil {
		return err
	}
	for _, t := range union {
		e.tuple(t)
	}
	return nil
}

func visibilityBits(v signature.Visibility) uint8 {
	return uint8(v) << recFlagVisShift & recFlagVisMask
}

func (e *encoder) function(fn *signature.FunctionInfo) error {
	var flags uint8
	if fn.HasUnionReturn() {
		flags |= recFlagUnionReturn
	}
	if fn.IsDefaultMethod {
		flags |= recFlagDefaultMethod
	}
	if fn.IsProperty {
		flags |= recFlagProperty
	}
	if fn.IsOptionalReturn {
		flags |= recFlagOptionalReturn
	}
	flags |= visibilityBits(fn.Visibility)
	e.u8(flags)

	if err := e.returns(flags, fn.Return, fn.UnionReturns); err != nil {
		return err
	}
	if err := e.count("overloads", len(fn.Overloads)); err != nil {
		return err
	}
	for _, overload := range fn.Overloads {
		if err := e.params(overload); err != nil {
			return fmt.Errorf("%s: %w", fn.Name, err)
		}
	}
	return nil
}

func (e *encoder) property(p *signature.PropertyInfo) error {
	flags := recFlagProperty | visibilityBits(p.Visibility)
	if len(p.UnionTypes) > 0 {
		flags |= recFlagUnionReturn
	}
	if p.IsOptionalReturn {
		flags |= recFlagOptionalReturn
	}
	e.u8(flags)
	if err := e.returns(flags, p.Type, p.UnionTypes); err != nil {
		return err
	}
	// 属性没有重载
	e.u8(0)
	return nil
}

// object 内置对象：方法与属性按哈希排序稀疏存放
func (e *encoder) object(o *signature.BuiltinObjectInfo) error {
	e.u8(uint8(o.Type))
	e.u32(o.DefaultMethodHash)

	e.u32(uint32(len(o.Methods)))
	for _, h := range sortedKeys(o.Methods) {
		fn := o.Methods[h]
		e.u32(h)
		e.str(fn.Name)
		if err := e.function(fn); err != nil {
			return fmt.Errorf("%s.%w", o.Name, err)
		}
	}

	e.u32(uint32(len(o.Properties)))
	for _, h := range sortedKeys(o.Properties) {
		prop := o.Properties[h]
		e.u32(h)
		e.str(prop.Name)
		if err := e.property(prop); err != nil {
			return err
		}
	}
	return nil
}

func sortedKeys[V any](m map[uint32]V) []uint32 {
	keys := make([]uint32, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
