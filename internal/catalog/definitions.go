package catalog

import (
	"fmt"
	"io"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/tangzhangming/pcode/internal/signature"
	"github.com/tangzhangming/pcode/internal/types"
)

// ============================================================================
// YAML 定义：目录的源格式
// ============================================================================

// Definitions 内置函数、系统变量与内置对象的定义
type Definitions struct {
	Functions       []FunctionDef `yaml:"functions"`
	SystemVariables []PropertyDef `yaml:"system_variables"`
	Objects         []ObjectDef   `yaml:"objects"`
}

// FunctionDef 函数或方法定义
//
// Params 是只有一个重载时的简写，与 Overloads 互斥。
type FunctionDef struct {
	Name           string       `yaml:"name"`
	Returns        typeList     `yaml:"returns,omitempty"`
	OptionalReturn bool         `yaml:"optional_return,omitempty"`
	Default        bool         `yaml:"default,omitempty"`
	Property       bool         `yaml:"property,omitempty"`
	Visibility     string       `yaml:"visibility,omitempty"`
	Params         []ParamDef   `yaml:"params,omitempty"`
	Overloads      [][]ParamDef `yaml:"overloads,omitempty"`
}

// ParamDef 参数定义，type、ref、group 三者选一
type ParamDef struct {
	Name     string     `yaml:"name,omitempty"`
	Type     typeList   `yaml:"type,omitempty"` // 多个类型表示联合参数
	Ref      string     `yaml:"ref,omitempty"`
	Group    []ParamDef `yaml:"group,omitempty"`
	Optional bool       `yaml:"optional,omitempty"`
	Repeat   *RepeatDef `yaml:"repeat,omitempty"`
}

// RepeatDef 可变参数次数，Max 缺省为不限
type RepeatDef struct {
	Min int32  `yaml:"min"`
	Max *int32 `yaml:"max,omitempty"`
}

// PropertyDef 属性或系统变量定义
type PropertyDef struct {
	Name       string   `yaml:"name"`
	Type       typeList `yaml:"type"`
	Optional   bool     `yaml:"optional,omitempty"`
	Visibility string   `yaml:"visibility,omitempty"`
}

// ObjectDef 内置对象定义
type ObjectDef struct {
	Name       string        `yaml:"name"`
	Methods    []FunctionDef `yaml:"methods,omitempty"`
	Properties []PropertyDef `yaml:"properties,omitempty"`
}

// typeList 接受单个标量或标量序列
type typeList []string

func (l *typeList) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		*l = typeList{n.Value}
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := n.Decode(&items); err != nil {
			return err
		}
		*l = items
		return nil
	}
	return fmt.Errorf("line %d: expected a type or a list of types", n.Line)
}

// LoadDefinitions 读取 YAML 定义，未知字段视为错误
func LoadDefinitions(r io.Reader) (*Definitions, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var defs Definitions
	if err := dec.Decode(&defs); err != nil && err != io.EOF {
		return nil, fmt.Errorf("catalog definitions: %w", err)
	}
	return &defs, nil
}

// Writer 把定义转换为目录写入器，所有错误合并返回
func (d *Definitions) Writer(opts ...Option) (*Writer, error) {
	w := NewWriter(opts...)
	var errs error

	for i := range d.Functions {
		fn, err := d.Functions[i].info()
		if err == nil {
			err = w.AddFunction(fn)
		}
		errs = multierr.Append(errs, err)
	}
	for i := range d.SystemVariables {
		prop, err := d.SystemVariables[i].info()
		if err == nil {
			err = w.AddProperty(prop)
		}
		errs = multierr.Append(errs, err)
	}
	for i := range d.Objects {
		obj, err := d.Objects[i].info()
		if err == nil {
			err = w.AddObject(obj)
		}
		errs = multierr.Append(errs, err)
	}

	if errs != nil {
		return nil, errs
	}
	return w, nil
}

func parseVisibility(s string) (signature.Visibility, error) {
	switch s {
	case "", "public":
		return signature.Public, nil
	case "protected":
		return signature.Protected, nil
	case "private":
		return signature.Private, nil
	}
	return signature.Public, fmt.Errorf("unknown visibility %q", s)
}

func parseTypes(list typeList) ([]types.TypeWithDimensionality, error) {
	out := make([]types.TypeWithDimensionality, 0, len(list))
	for _, s := range list {
		t, err := types.ParseTypeWithDimensionality(s)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (def *FunctionDef) info() (*signature.FunctionInfo, error) {
	if def.Name == "" {
		return nil, fmt.Errorf("function without name")
	}
	wrap := func(err error) error { return fmt.Errorf("function %s: %w", def.Name, err) }

	vis, err := parseVisibility(def.Visibility)
	if err != nil {
		return nil, wrap(err)
	}
	fn := &signature.FunctionInfo{
		Name:             def.Name,
		IsDefaultMethod:  def.Default,
		IsProperty:       def.Property,
		IsOptionalReturn: def.OptionalReturn,
		Visibility:       vis,
	}

	rets, err := parseTypes(def.Returns)
	if err != nil {
		return nil, wrap(err)
	}
	switch len(rets) {
	case 0:
		fn.Return = types.Of(types.TypeVoid)
	case 1:
		fn.Return = rets[0]
	default:
		fn.UnionReturns = rets
	}

	overloads := def.Overloads
	if len(def.Params) > 0 {
		if len(overloads) > 0 {
			return nil, wrap(fmt.Errorf("both params and overloads given"))
		}
		overloads = [][]ParamDef{def.Params}
	}
	for _, defs := range overloads {
		params, err := paramList(defs)
		if err != nil {
			return nil, wrap(err)
		}
		fn.Overloads = append(fn.Overloads, params)
	}
	return fn, nil
}

func paramList(defs []ParamDef) ([]signature.Parameter, error) {
	out := make([]signature.Parameter, 0, len(defs))
	for i := range defs {
		p, err := defs[i].param()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (def *ParamDef) param() (signature.Parameter, error) {
	given := 0
	for _, set := range []bool{len(def.Type) > 0, def.Ref != "", len(def.Group) > 0} {
		if set {
			given++
		}
	}
	if given != 1 {
		return nil, fmt.Errorf("parameter %q: exactly one of type, ref or group is required", def.Name)
	}

	var p signature.Parameter
	switch {
	case def.Ref != "":
		c, ok := types.ParseReferenceCategory(def.Ref)
		if !ok {
			return nil, fmt.Errorf("parameter %q: unknown reference category %q", def.Name, def.Ref)
		}
		p = &signature.ReferenceParameter{Category: c, ParamName: def.Name}
	case len(def.Group) > 0:
		inner, err := paramList(def.Group)
		if err != nil {
			return nil, err
		}
		p = &signature.GroupParameter{ParamName: def.Name, Params: inner}
	default:
		ts, err := parseTypes(def.Type)
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", def.Name, err)
		}
		if len(ts) == 1 {
			p = &signature.SingleParameter{Type: ts[0], ParamName: def.Name}
		} else {
			p = &signature.UnionParameter{Types: ts, ParamName: def.Name}
		}
	}

	switch {
	case def.Optional && def.Repeat != nil:
		return nil, fmt.Errorf("parameter %q: optional and repeat are exclusive", def.Name)
	case def.Optional:
		return &signature.VariableParameter{Min: 0, Max: 1, Inner: p}, nil
	case def.Repeat != nil:
		hi := signature.Unlimited
		if def.Repeat.Max != nil {
			hi = *def.Repeat.Max
		}
		if def.Repeat.Min < 0 || (hi != signature.Unlimited && hi < def.Repeat.Min) {
			return nil, fmt.Errorf("parameter %q: bad repeat range %d..%d", def.Name, def.Repeat.Min, hi)
		}
		return &signature.VariableParameter{Min: def.Repeat.Min, Max: hi, Inner: p}, nil
	}
	return p, nil
}

func (def *PropertyDef) info() (*signature.PropertyInfo, error) {
	if def.Name == "" {
		return nil, fmt.Errorf("property without name")
	}
	vis, err := parseVisibility(def.Visibility)
	if err != nil {
		return nil, fmt.Errorf("property %s: %w", def.Name, err)
	}
	ts, err := parseTypes(def.Type)
	if err != nil {
		return nil, fmt.Errorf("property %s: %w", def.Name, err)
	}
	prop := &signature.PropertyInfo{Name: def.Name, Visibility: vis, IsOptionalReturn: def.Optional}
	switch len(ts) {
	case 0:
		return nil, fmt.Errorf("property %s: missing type", def.Name)
	case 1:
		prop.Type = ts[0]
	default:
		prop.UnionTypes = ts
	}
	return prop, nil
}

func (def *ObjectDef) info() (*signature.BuiltinObjectInfo, error) {
	if def.Name == "" {
		return nil, fmt.Errorf("object without name")
	}
	tag, ok := types.ParsePeopleCodeType(def.Name)
	if !ok || !tag.IsObject() {
		tag = types.TypeObject
	}
	obj := signature.NewBuiltinObject(def.Name, tag)

	var errs error
	for i := range def.Methods {
		fn, err := def.Methods[i].info()
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", def.Name, err))
			continue
		}
		if _, dup := obj.Methods[signature.Hash(fn.Name)]; dup {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w: method %s", def.Name, ErrDuplicate, fn.Name))
			continue
		}
		obj.AddMethod(fn)
	}
	for i := range def.Properties {
		prop, err := def.Properties[i].info()
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", def.Name, err))
			continue
		}
		if _, dup := obj.Properties[signature.Hash(prop.Name)]; dup {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w: property %s", def.Name, ErrDuplicate, prop.Name))
			continue
		}
		obj.AddProperty(prop)
	}
	if errs != nil {
		return nil, errs
	}
	return obj, nil
}
