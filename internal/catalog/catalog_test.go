package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/tangzhangming/pcode/internal/signature"
	"github.com/tangzhangming/pcode/internal/types"
)

func sampleFunctions() []*signature.FunctionInfo {
	return []*signature.FunctionInfo{
		{
			Name:   "CreateRecord",
			Return: types.Of(types.TypeRecord),
			Overloads: [][]signature.Parameter{
				{&signature.ReferenceParameter{Category: types.RefRecord, ParamName: "recordname"}},
			},
		},
		{
			Name:   "SQLExec",
			Return: types.Of(types.TypeBoolean),
			Overloads: [][]signature.Parameter{{
				&signature.UnionParameter{
					Types:     []types.TypeWithDimensionality{types.Of(types.TypeString), types.ReferenceOf(types.RefSQL)},
					ParamName: "sql",
				},
				&signature.VariableParameter{Min: 0, Max: signature.Unlimited,
					Inner: &signature.SingleParameter{Type: types.Of(types.TypeAny), ParamName: "bind"}},
			}},
		},
		{
			Name: "ScrollSelect",
			UnionReturns: []types.TypeWithDimensionality{
				types.Of(types.TypeInteger), types.ArrayOf(types.TypeString, 2), types.AppClassOf("PKG:SUB:Thing"),
			},
			IsOptionalReturn: true,
			Overloads: [][]signature.Parameter{
				{
					&signature.VariableParameter{Min: 1, Max: 3, ParamName: "path", Inner: &signature.GroupParameter{
						ParamName: "level",
						Params: []signature.Parameter{
							&signature.ReferenceParameter{Category: types.RefRecord, ParamName: "recordname"},
							&signature.SingleParameter{Type: types.Of(types.TypeInteger)},
						},
					}},
				},
				{},
			},
		},
		{
			Name:      "CreateArray",
			Return:    types.Of(types.TypeArrayOfArgument),
			Overloads: [][]signature.Parameter{{&signature.VariableParameter{Min: 0, Max: signature.Unlimited, Inner: &signature.SingleParameter{Type: types.Of(types.TypeAny), ParamName: "recordname"}}}},
		},
	}
}

func sampleObject() *signature.BuiltinObjectInfo {
	rs := signature.NewBuiltinObject("Rowset", types.TypeRowset)
	rs.AddMethod(&signature.FunctionInfo{
		Name: "GetRow", IsDefaultMethod: true, Return: types.Of(types.TypeRow),
		Overloads: [][]signature.Parameter{{&signature.SingleParameter{Type: types.Of(types.TypeInteger), ParamName: "n"}}},
	})
	rs.AddMethod(&signature.FunctionInfo{Name: "Flush", Return: types.Of(types.TypeVoid), Visibility: signature.Protected})
	rs.AddProperty(&signature.PropertyInfo{Name: "ActiveRowCount", Type: types.Of(types.TypeInteger)})
	return rs
}

func buildSample(t *testing.T, opts ...Option) []byte {
	t.Helper()
	w := NewWriter(opts...)
	for _, fn := range sampleFunctions() {
		require.NoError(t, w.AddFunction(fn))
	}
	require.NoError(t, w.AddProperty(&signature.PropertyInfo{Name: "%Date", Type: types.Of(types.TypeDate)}))
	require.NoError(t, w.AddProperty(&signature.PropertyInfo{
		Name:       "%Value",
		UnionTypes: []types.TypeWithDimensionality{types.Of(types.TypeString), types.Of(types.TypeNumber)},
	}))
	require.NoError(t, w.AddObject(sampleObject()))
	data, err := w.Bytes()
	require.NoError(t, err)
	return data
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		opts   []Option
		legacy bool
	}{
		{"name table", []Option{WithNameTable()}, false},
		{"legacy inline names", nil, true},
		{"single bucket", []Option{WithNameTable(), WithBuckets(1)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewReader(buildSample(t, tt.opts...))
			require.NoError(t, err)
			assert.Equal(t, tt.legacy, r.Legacy())
			assert.Equal(t, 7, r.Len())
			assert.True(t, r.Kind().Has(RecordFunction))
			assert.True(t, r.Kind().Has(RecordProperty))
			assert.True(t, r.Kind().Has(RecordObject))
			require.NoError(t, r.Verify())

			for _, want := range sampleFunctions() {
				got, ok := r.LookupFunction(want.Name)
				require.True(t, ok, want.Name)
				assert.True(t, want.Equal(got), "%s:\nwant %s\n got %s", want.Name, want, got)
			}

			date, ok := r.LookupProperty("%date")
			require.True(t, ok)
			assert.Equal(t, "%Date", date.Name)
			assert.True(t, date.Type.Equal(types.Of(types.TypeDate)))

			value, ok := r.LookupProperty("%Value")
			require.True(t, ok)
			assert.Len(t, value.UnionTypes, 2)

			obj, ok := r.LookupObject("ROWSET")
			require.True(t, ok)
			assert.True(t, sampleObject().Equal(obj))
			def, ok := obj.DefaultMethod()
			require.True(t, ok)
			assert.Equal(t, "GetRow", def.Name)
			flush, ok := obj.Method("flush")
			require.True(t, ok)
			assert.Equal(t, signature.Protected, flush.Visibility)
		})
	}
}

func TestLookupIsCaseInsensitiveAndKindScoped(t *testing.T) {
	r, err := NewReader(buildSample(t, WithNameTable()))
	require.NoError(t, err)

	_, ok := r.LookupFunction("sqlexec")
	assert.True(t, ok)
	_, ok = r.LookupFunction("SQLEXEC")
	assert.True(t, ok)

	// 同名但类型不同的记录互不可见
	_, ok = r.LookupProperty("SQLExec")
	assert.False(t, ok)
	_, ok = r.LookupObject("CreateRecord")
	assert.False(t, ok)
	_, ok = r.LookupFunction("NoSuchFunction")
	assert.False(t, ok)
}

func TestNameTableDeduplicates(t *testing.T) {
	r, err := NewReader(buildSample(t, WithNameTable()))
	require.NoError(t, err)

	count := 0
	for _, name := range r.NameTable() {
		if name == "recordname" {
			count++
		}
	}
	assert.Equal(t, 1, count)

	withTable := buildSample(t, WithNameTable())
	inline := buildSample(t)
	assert.NotEqual(t, len(withTable), len(inline))
}

func TestCollisionsKeepEveryEntry(t *testing.T) {
	w := NewWriter(WithNameTable(), WithBuckets(3))
	for i := 0; i < 200; i++ {
		require.NoError(t, w.AddFunction(&signature.FunctionInfo{
			Name:   fmt.Sprintf("Fn%03d", i),
			Return: types.Of(types.TypeInteger),
			Overloads: [][]signature.Parameter{{
				&signature.SingleParameter{Type: types.Of(types.TypeString), ParamName: fmt.Sprintf("p%d", i%7)},
			}},
		}))
	}
	data, err := w.Bytes()
	require.NoError(t, err)

	r, err := NewReader(data)
	require.NoError(t, err)
	require.NoError(t, r.Verify())
	assert.Len(t, r.Names(), 200)
	for i := 0; i < 200; i++ {
		fn, ok := r.LookupFunction(fmt.Sprintf("fn%03d", i))
		require.True(t, ok, i)
		assert.Equal(t, fmt.Sprintf("p%d", i%7), fn.Overloads[0][0].Name())
	}
}

func TestFreshReadersAgree(t *testing.T) {
	data := buildSample(t, WithNameTable())

	a, err := NewReader(data)
	require.NoError(t, err)
	b, err := NewReader(data)
	require.NoError(t, err)

	// 不同的查询顺序不影响结果
	_, _ = a.LookupObject("Rowset")
	_, _ = a.LookupFunction("ScrollSelect")

	for _, name := range []string{"ScrollSelect", "CreateArray", "SQLExec"} {
		fa, ok := b.LookupFunction(name)
		require.True(t, ok)
		fb, ok := a.LookupFunction(name)
		require.True(t, ok)
		assert.True(t, fa.Equal(fb))
	}
}

func TestNameTableProbe(t *testing.T) {
	data := buildSample(t, WithNameTable())
	// 清除标志位，读取器应通过探测识别出名称表
	data[7] &^= FlagNameTable

	r, err := NewReader(data)
	require.NoError(t, err)
	assert.False(t, r.Legacy())
	require.NoError(t, r.Verify())
	fn, ok := r.LookupFunction("CreateRecord")
	require.True(t, ok)
	assert.Equal(t, "recordname", fn.Overloads[0][0].Name())
}

func TestBadInput(t *testing.T) {
	_, err := NewReader([]byte("PCA"))
	var fe *FormatError
	assert.True(t, errors.As(err, &fe))

	bad := buildSample(t)
	copy(bad, "NOPE")
	_, err = NewReader(bad)
	assert.True(t, errors.Is(err, ErrBadMagic))

	future := buildSample(t)
	future[4] = MajorVersion + 1
	_, err = NewReader(future)
	assert.True(t, errors.As(err, &fe))

	truncated := buildSample(t, WithNameTable())
	truncated = truncated[:len(truncated)-10]
	r, err := NewReader(truncated)
	require.NoError(t, err)
	assert.Error(t, r.Verify())
}

func TestDuplicateEntries(t *testing.T) {
	w := NewWriter()
	require.NoError(t, w.AddFunction(&signature.FunctionInfo{Name: "Len"}))
	err := w.AddFunction(&signature.FunctionInfo{Name: "LEN"})
	assert.True(t, errors.Is(err, ErrDuplicate))
	// 不同类型可以同名
	assert.NoError(t, w.AddProperty(&signature.PropertyInfo{Name: "Len"}))
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "builtins"+FileExtension)
	var buf bytes.Buffer
	w := NewWriter(WithNameTable())
	for _, fn := range sampleFunctions() {
		require.NoError(t, w.AddFunction(fn))
	}
	n, err := w.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	r, err := Open(path)
	require.NoError(t, err)
	fn, ok := r.LookupFunction("createrecord")
	require.True(t, ok)
	assert.Equal(t, "CreateRecord", fn.Name)
	require.NoError(t, r.Close())
	require.NoError(t, r.Close())

	_, err = Open(filepath.Join(t.TempDir(), "missing.pcat"))
	assert.Error(t, err)
}

func TestConcurrentLookups(t *testing.T) {
	r, err := NewReader(buildSample(t, WithNameTable()))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if _, ok := r.LookupFunction("SQLExec"); !ok {
					t.Error("SQLExec not found")
					return
				}
				if _, ok := r.LookupObject("Rowset"); !ok {
					t.Error("Rowset not found")
					return
				}
			}
		}()
	}
	wg.Wait()
}

// ============================================================================
// YAML 定义
// ============================================================================

const sampleYAML = `
functions:
  - name: Substring
    returns: string
    params: [{name: source, type: string}, {name: start, type: number}, {name: length, type: number}]
  - name: Split
    returns: array of string
    params: [{name: s, type: string}, {name: sep, type: string, optional: true}]
  - name: Value
    returns: [string, number]
    overloads:
      - []
      - [{name: field, ref: FIELD}]
system_variables:
  - {name: "%UserId", type: string}
objects:
  - name: Array
    methods:
      - {name: Pop, returns: $element}
      - {name: Clone, returns: $same}
    properties:
      - {name: Len, type: integer}
`

func TestLoadDefinitions(t *testing.T) {
	defs, err := LoadDefinitions(strings.NewReader(sampleYAML))
	require.NoError(t, err)
	c, err := FromDefinitions(defs)
	require.NoError(t, err)

	sub, ok := c.Function("SUBSTRING")
	require.True(t, ok)
	assert.Equal(t, "3", sub.ArityString())

	split, ok := c.Function("Split")
	require.True(t, ok)
	assert.True(t, split.ArityFits(1))
	assert.True(t, split.ArityFits(2))
	assert.False(t, split.ArityFits(3))

	value, ok := c.Function("Value")
	require.True(t, ok)
	assert.True(t, value.HasUnionReturn())
	assert.True(t, value.HasMultipleSignatures())

	user, ok := c.SystemVariable("UserId")
	require.True(t, ok)
	assert.Equal(t, "%UserId", user.Name)

	arr, ok := c.Object("array")
	require.True(t, ok)
	assert.Equal(t, types.TypeArrayObject, arr.Type)
	pop, ok := arr.Method("pop")
	require.True(t, ok)
	assert.True(t, pop.IsPolymorphicReturn())
}

func TestLoadDefinitionsCollectsErrors(t *testing.T) {
	const broken = `
functions:
  - name: A
    returns: nosuchtype
  - name: B
    params: [{name: x, type: string, ref: RECORD}]
  - name: C
    params: [{name: x, ref: NOTACATEGORY}]
  - name: D
    params: [{name: x, type: string, optional: true, repeat: {min: 1}}]
  - name: E
    params: [{name: x, type: string}]
    overloads: [[{name: y, type: string}]]
`
	defs, err := LoadDefinitions(strings.NewReader(broken))
	require.NoError(t, err)
	_, err = defs.Writer()
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 5)

	_, err = LoadDefinitions(strings.NewReader("functions:\n  - name: X\n    bogus: 1\n"))
	assert.Error(t, err)
}

func TestDefaultCatalog(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	require.NoError(t, c.Reader().Verify())
	assert.False(t, c.Reader().Legacy())

	tests := []struct {
		name  string
		arity int
		fits  bool
	}{
		{"Substring", 3, true},
		{"Substring", 2, false},
		{"CreateRecord", 1, true},
		{"MessageBox", 5, true},
		{"MessageBox", 9, true},
		{"GetLevel0", 0, true},
		{"Rand", 1, false},
		{"Max", 1, false},
	}
	for _, tt := range tests {
		fn, ok := c.Function(tt.name)
		require.True(t, ok, tt.name)
		assert.Equal(t, tt.fits, fn.ArityFits(tt.arity), "%s/%d", tt.name, tt.arity)
	}

	date, ok := c.SystemVariable("%Date")
	require.True(t, ok)
	assert.Equal(t, "Date", date.TypeInfo().String())

	row, ok := c.Object("Row")
	require.True(t, ok)
	def, ok := row.DefaultMethod()
	require.True(t, ok)
	assert.Equal(t, "GetRecord", def.Name)

	again, err := Default()
	require.NoError(t, err)
	assert.Same(t, c, again)
}

func TestHashMatchesSignatureHash(t *testing.T) {
	assert.Equal(t, signature.Hash("GetRowset"), Hash("getrowset"))
}
