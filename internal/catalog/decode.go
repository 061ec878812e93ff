package catalog

import (
	"encoding/binary"
	"fmt"

	"github.com/tangzhangming/pcode/internal/signature"
	"github.com/tangzhangming/pcode/internal/types"
)

// maxParamNesting 组与可变参数的最大嵌套层数，防止损坏文件导致深递归
const maxParamNesting = 16

// decoder 记录解码器，只读访问底层缓冲区
type decoder struct {
	data   []byte
	pos    int
	names  []string
	inline bool
}

func (d *decoder) fail(format string, args ...any) error {
	return &FormatError{Offset: d.pos, Msg: fmt.Sprintf(format, args...)}
}

func (d *decoder) u8() (uint8, error) {
	if d.pos >= len(d.data) {
		return 0, d.fail("unexpected end of file")
	}
	v := d.data[d.pos]
	d.pos++
	return v, nil
}

func (d *decoder) u32() (uint32, error) {
	if d.pos+4 > len(d.data) {
		return 0, d.fail("unexpected end of file")
	}
	v := binary.BigEndian.Uint32(d.data[d.pos:])
	d.pos += 4
	return v, nil
}

func (d *decoder) i32() (int32, error) {
	v, err := d.u32()
	return int32(v), err
}

func (d *decoder) uvarint() (uint64, error) {
	if d.pos >= len(d.data) {
		return 0, d.fail("unexpected end of file")
	}
	v, n := binary.Uvarint(d.data[d.pos:])
	if n <= 0 {
		return 0, d.fail("malformed varint")
	}
	d.pos += n
	return v, nil
}

func (d *decoder) str() (string, error) {
	n, err := d.uvarint()
	if err != nil {
		return "", err
	}
	if n > uint64(len(d.data)-d.pos) {
		return "", d.fail("string length %d out of range", n)
	}
	s := string(d.data[d.pos : d.pos+int(n)])
	d.pos += int(n)
	return s, nil
}

func (d *decoder) nameRef() (string, error) {
	if d.inline {
		return d.str()
	}
	v, err := d.uvarint()
	if err != nil {
		return "", err
	}
	if v&1 == 0 {
		return "", nil
	}
	idx := v >> 1
	if idx >= uint64(len(d.names)) {
		return "", d.fail("name index %d out of range", idx)
	}
	return d.names[idx], nil
}

func (d *decoder) tuple() (types.TypeWithDimensionality, error) {
	var t types.TypeWithDimensionality
	tag, err := d.u8()
	if err != nil {
		return t, err
	}
	dims, err := d.u8()
	if err != nil {
		return t, err
	}
	path, err := d.str()
	if err != nil {
		return t, err
	}
	ref, err := d.u8()
	if err != nil {
		return t, err
	}
	t.Type = types.PeopleCodeType(tag)
	t.Dims = dims
	t.AppClassPath = path
	t.IsReference = ref != 0
	return t, nil
}

func (d *decoder) tuples() ([]types.TypeWithDimensionality, error) {
	n, err := d.u8()
	if err != nil {
		return nil, err
	}
	out := make([]types.TypeWithDimensionality, n)
	for i := range out {
		if out[i], err = d.tuple(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (d *decoder) params(depth int) ([]signature.Parameter, error) {
	n, err := d.u8()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	out := make([]signature.Parameter, n)
	for i := range out {
		if out[i], err = d.param(depth); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (d *decoder) param(depth int) (signature.Parameter, error) {
	if depth > maxParamNesting {
		return nil, d.fail("parameter nesting too deep")
	}
	tag, err := d.u8()
	if err != nil {
		return nil, err
	}

	switch signature.ParamTag(tag) {
	case signature.TagSingle:
		t, err := d.tuple()
		if err != nil {
			return nil, err
		}
		name, err := d.nameRef()
		if err != nil {
			return nil, err
		}
		return &signature.SingleParameter{Type: t, ParamName: name}, nil

	case signature.TagUnion:
		ts, err := d.tuples()
		if err != nil {
			return nil, err
		}
		name, err := d.nameRef()
		if err != nil {
			return nil, err
		}
		return &signature.UnionParameter{Types: ts, ParamName: name}, nil

	case signature.TagGroup:
		name, err := d.nameRef()
		if err != nil {
			return nil, err
		}
		inner, err := d.params(depth + 1)
		if err != nil {
			return nil, err
		}
		return &signature.GroupParameter{ParamName: name, Params: inner}, nil

	case signature.TagVariable:
		lo, err := d.i32()
		if err != nil {
			return nil, err
		}
		hi, err := d.i32()
		if err != nil {
			return nil, err
		}
		if hi == unlimitedSentinel {
			hi = signature.Unlimited
		}
		name, err := d.nameRef()
		if err != nil {
			return nil, err
		}
		inner, err := d.param(depth + 1)
		if err != nil {
			return nil, err
		}
		return &signature.VariableParameter{Min: lo, Max: hi, ParamName: name, Inner: inner}, nil

	case signature.TagReference:
		cat, err := d.u8()
		if err != nil {
			return nil, err
		}
		name, err := d.nameRef()
		if err != nil {
			return nil, err
		}
		return &signature.ReferenceParameter{Category: types.ReferenceCategory(cat), ParamName: name}, nil
	}
	return nil, d.fail("unknown parameter tag %d", tag)
}

func (d *decoder) returns(flags uint8) (types.TypeWithDimensionality, []types.TypeWithDimensionality, error) {
	if flags&recFlagUnionReturn != 0 {
		union, err := d.tuples()
		return types.TypeWithDimensionality{}, union, err
	}
	t, err := d.tuple()
	return t, nil, err
}

func (d *decoder) function(name string) (*signature.FunctionInfo, error) {
	flags, err := d.u8()
	if err != nil {
		return nil, err
	}
	fn := &signature.FunctionInfo{
		Name:             name,
		IsDefaultMethod:  flags&recFlagDefaultMethod != 0,
		IsProperty:       flags&recFlagProperty != 0,
		IsOptionalReturn: flags&recFlagOptionalReturn != 0,
		Visibility:       signature.Visibility((flags & recFlagVisMask) >> recFlagVisShift),
	}
	if fn.Return, fn.UnionReturns, err = d.returns(flags); err != nil {
		return nil, err
	}

	n, err := d.u8()
	if err != nil {
		return nil, err
	}
	if n > 0 {
		fn.Overloads = make([][]signature.Parameter, n)
		for i := range fn.Overloads {
			if fn.Overloads[i], err = d.params(0); err != nil {
				return nil, err
			}
		}
	}
	return fn, nil
}

func (d *decoder) property(name string) (*signature.PropertyInfo, error) {
	flags, err := d.u8()
	if err != nil {
		return nil, err
	}
	prop := &signature.PropertyInfo{
		Name:             name,
		IsOptionalReturn: flags&recFlagOptionalReturn != 0,
		Visibility:       signature.Visibility((flags & recFlagVisMask) >> recFlagVisShift),
	}
	if prop.Type, prop.UnionTypes, err = d.returns(flags); err != nil {
		return nil, err
	}
	if _, err := d.u8(); err != nil {
		return nil, err
	}
	return prop, nil
}

func (d *decoder) object(name string) (*signature.BuiltinObjectInfo, error) {
	tag, err := d.u8()
	if err != nil {
		return nil, err
	}
	obj := signature.NewBuiltinObject(name, types.PeopleCodeType(tag))
	if obj.DefaultMethodHash, err = d.u32(); err != nil {
		return nil, err
	}

	methods, err := d.u32()
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < methods; i++ {
		h, err := d.u32()
		if err != nil {
			return nil, err
		}
		mname, err := d.str()
		if err != nil {
			return nil, err
		}
		fn, err := d.function(mname)
		if err != nil {
			return nil, err
		}
		obj.Methods[h] = fn
	}

	props, err := d.u32()
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < props; i++ {
		h, err := d.u32()
		if err != nil {
			return nil, err
		}
		pname, err := d.str()
		if err != nil {
			return nil, err
		}
		prop, err := d.property(pname)
		if err != nil {
			return nil, err
		}
		obj.Properties[h] = prop
	}
	return obj, nil
}
