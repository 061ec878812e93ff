package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allPrimitives = []TypeInfo{String, Integer, Number, Boolean, Date, Time, DateTime}

func TestAnyAssignableWithPrimitives(t *testing.T) {
	for _, c := range []Compat{{}, {TreatUnknownAsAny: true}} {
		for _, p := range allPrimitives {
			assert.True(t, c.IsAssignableFrom(Any, p), "Any <- %s", p)
			assert.True(t, c.IsAssignableFrom(p, Any), "%s <- Any", p)
		}
	}
}

func TestUnknownTarget(t *testing.T) {
	values := append([]TypeInfo{Any, Void, Unknown, NewArray(String, 2), NewAppClass("PKG:A"),
		NewBuiltinObject("Rowset"), NewReference(RefRecord, "JOB")}, allPrimitives...)

	strict := Compat{}
	lenient := Compat{TreatUnknownAsAny: true}
	for _, v := range values {
		assert.False(t, strict.IsAssignableFrom(Unknown, v), "strict Unknown <- %s", v)
		assert.True(t, lenient.IsAssignableFrom(Unknown, v), "lenient Unknown <- %s", v)
	}
}

func TestUnknownSource(t *testing.T) {
	assert.False(t, Compat{}.IsAssignableFrom(String, Unknown))
	assert.True(t, Compat{TreatUnknownAsAny: true}.IsAssignableFrom(String, Unknown))
	assert.True(t, Compat{}.IsAssignableFrom(Any, Unknown))
}

func TestPrimitiveAssignability(t *testing.T) {
	tests := []struct {
		target, source TypeInfo
		want           bool
	}{
		{String, String, true},
		{Integer, Number, true},
		{Number, Integer, true},
		{String, Integer, false},
		{Boolean, String, false},
		{Date, DateTime, false},
	}
	for _, tt := range tests {
		if got := IsAssignableFrom(tt.target, tt.source); got != tt.want {
			t.Errorf("IsAssignableFrom(%s, %s) = %v, want %v", tt.target, tt.source, got, tt.want)
		}
	}
}

func TestArrayAssignability(t *testing.T) {
	assert.True(t, IsAssignableFrom(NewArray(String, 1), NewArray(String, 1)))
	assert.False(t, IsAssignableFrom(NewArray(String, 1), NewArray(String, 2)))
	assert.False(t, IsAssignableFrom(NewArray(String, 1), NewArray(Boolean, 1)))
	assert.True(t, IsAssignableFrom(NewArray(Any, 2), NewArray(Integer, 2)))
	assert.False(t, IsAssignableFrom(NewArray(String, 1), String))
}

func TestAppClassAssignability(t *testing.T) {
	chains := map[string][]string{
		"PKG:Child": {"PKG:Base", "PKG:IThing"},
		"PKG:Base":  {"PKG:IThing"},
	}
	h := HierarchyFunc(func(name string) ([]string, bool) {
		chain, ok := chains[name]
		return chain, ok
	})
	c := Compat{Hierarchy: h}

	assert.True(t, c.IsAssignableFrom(NewAppClass("PKG:Base"), NewAppClass("pkg:base")))
	assert.True(t, c.IsAssignableFrom(NewAppClass("PKG:Base"), NewAppClass("PKG:Child")))
	assert.True(t, c.IsAssignableFrom(NewAppClass("PKG:IThing"), NewAppClass("PKG:Child")))
	assert.False(t, c.IsAssignableFrom(NewAppClass("PKG:Child"), NewAppClass("PKG:Base")))

	// 无法解析的源类由宽松标志决定
	assert.False(t, c.IsAssignableFrom(NewAppClass("PKG:Base"), NewAppClass("EXT:Other")))
	c.TreatUnknownAsAny = true
	assert.True(t, c.IsAssignableFrom(NewAppClass("PKG:Base"), NewAppClass("EXT:Other")))
}

func TestObjectAssignability(t *testing.T) {
	obj := NewBuiltinObject("Object")
	assert.True(t, IsAssignableFrom(obj, NewAppClass("PKG:A")))
	assert.True(t, IsAssignableFrom(obj, NewBuiltinObject("Rowset")))
	assert.False(t, IsAssignableFrom(obj, String))
	assert.True(t, IsAssignableFrom(NewBuiltinObject("rowset"), NewBuiltinObject("Rowset")))
	assert.False(t, IsAssignableFrom(NewBuiltinObject("Row"), NewBuiltinObject("Rowset")))

	assert.True(t, IsAssignableFrom(NewReference(RefRecord, ""), NewReference(RefRecord, "JOB")))
	assert.False(t, IsAssignableFrom(NewReference(RefRecord, ""), NewReference(RefField, "EMPLID")))
}

func TestResolvePolymorphic(t *testing.T) {
	rs := NewBuiltinObject("Rowset")
	tests := []struct {
		name     string
		poly     *PolymorphicType
		receiver TypeInfo
		args     []TypeInfo
		want     TypeInfo
	}{
		{"same as object", &PolymorphicType{Rule: SameAsObject}, rs, nil, rs},
		{"same as object missing", &PolymorphicType{Rule: SameAsObject}, nil, nil, Any},
		{"element of 1d", &PolymorphicType{Rule: ElementOfObject}, NewArray(String, 1), nil, String},
		{"element of 3d", &PolymorphicType{Rule: ElementOfObject}, NewArray(Integer, 3), nil, NewArray(Integer, 2)},
		{"element of non-array", &PolymorphicType{Rule: ElementOfObject}, String, nil, Any},
		{"same as argument", &PolymorphicType{Rule: SameAsArgument, ArgIndex: 1}, nil, []TypeInfo{String, Date}, Date},
		{"argument out of range", &PolymorphicType{Rule: SameAsArgument, ArgIndex: 4}, nil, []TypeInfo{String}, Any},
		{"array of argument", &PolymorphicType{Rule: ArrayOfArgument}, nil, []TypeInfo{NewArray(Number, 1)}, NewArray(Number, 2)},
		{"unknown rule", &PolymorphicType{Rule: PolyRule(99)}, rs, nil, Any},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.poly, tt.receiver, tt.args)
			assert.True(t, Equal(tt.want, got), "want %s, got %s", Display(tt.want), Display(got))
		})
	}
}

func TestResolveAllKeepsOrder(t *testing.T) {
	union := []TypeInfo{String, NewPolymorphic(SameAsObject, 0), NewPolymorphic(SameAsArgument, 0)}
	got := ResolveAll(union, NewBuiltinObject("Row"), []TypeInfo{Integer})

	require.Len(t, got, 3)
	assert.Equal(t, "String", got[0].String())
	assert.Equal(t, "Row", got[1].String())
	assert.Equal(t, "Integer", got[2].String())
	assert.Equal(t, "String", First(got).String())
	assert.True(t, IsUnknown(First(nil)))
}

func TestTypeWithDimensionalityRoundTrip(t *testing.T) {
	values := []TypeInfo{
		String, Integer, Any, Void,
		NewArray(Date, 2),
		NewAppClass("PKG:SUB:Thing"),
		NewArray(NewAppClass("PKG:Thing"), 1),
		NewBuiltinObject("Rowset"),
		NewReference(RefField, ""),
		NewPolymorphic(SameAsObject, 0),
		NewPolymorphic(ArrayOfArgument, 2),
	}
	for _, v := range values {
		twd := FromTypeInfo(v)
		assert.True(t, Equal(v, twd.ToTypeInfo()), "%s -> %s -> %s", v, twd, twd.ToTypeInfo())
	}
}

func TestParseTypeWithDimensionality(t *testing.T) {
	tests := []struct {
		in   string
		want TypeWithDimensionality
	}{
		{"string", Of(TypeString)},
		{"Array of Array of Number", ArrayOf(TypeNumber, 2)},
		{"array", ArrayOf(TypeAny, 1)},
		{"PKG:Thing", AppClassOf("PKG:Thing")},
		{"RECORD(ref)", ReferenceOf(RefRecord)},
		{"$arg(1)", TypeWithDimensionality{Type: TypeSameAsArgument, Dims: 1}},
		{"rowset", Of(TypeRowset)},
	}
	for _, tt := range tests {
		got, err := ParseTypeWithDimensionality(tt.in)
		require.NoError(t, err, tt.in)
		assert.True(t, tt.want.Equal(got), "%q: want %s, got %s", tt.in, tt.want, got)
	}

	_, err := ParseTypeWithDimensionality("nosuchtype")
	assert.Error(t, err)
}

func TestParseTypeName(t *testing.T) {
	tests := []struct {
		name string
		want TypeInfo
	}{
		{"STRING", String},
		{"float", Number},
		{"rowset", NewBuiltinObject("Rowset")},
		{"PKG:Cls", NewAppClass("PKG:Cls")},
	}
	for _, tt := range tests {
		got, ok := ParseTypeName(tt.name)
		require.True(t, ok, tt.name)
		assert.True(t, Equal(tt.want, got), "%s: got %s", tt.name, got)
	}
	_, ok := ParseTypeName("Whatever")
	assert.False(t, ok)
}

func TestReferenceCategory(t *testing.T) {
	c, ok := ParseReferenceCategory("record")
	require.True(t, ok)
	assert.Equal(t, RefRecord, c)
	assert.Equal(t, "RECORD", c.String())
	_, ok = ParseReferenceCategory("bogus")
	assert.False(t, ok)
}
