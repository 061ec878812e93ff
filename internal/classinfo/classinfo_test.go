package classinfo

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tangzhangming/pcode/internal/ast"
	"github.com/tangzhangming/pcode/internal/parser"
	"github.com/tangzhangming/pcode/internal/signature"
	"github.com/tangzhangming/pcode/internal/types"
)

// mapProvider 内存中的源码表，记录请求次数
type mapProvider struct {
	sources map[string]string
	calls   map[string]int
	err     error
}

func newProvider(sources map[string]string) *mapProvider {
	return &mapProvider{sources: sources, calls: make(map[string]int)}
}

func (p *mapProvider) TryGetProgramSource(_ context.Context, name string) (string, bool, error) {
	p.calls[strings.ToLower(name)]++
	if p.err != nil {
		return "", false, p.err
	}
	for k, v := range p.sources {
		if strings.EqualFold(k, name) {
			return v, true, nil
		}
	}
	return "", false, nil
}

var zooSources = map[string]string{
	"PKG:Base": `
class Base
   method Base(&name As string);
   method Speak() Returns string;
   property string Name get;
   property integer Age get set;
protected
   method Helper() Returns integer;
private
   method Secret() Returns string;
   instance array of string &tags;
   Constant &LIMIT = 10;
end-class;
`,
	"PKG:Child": `
import OTHER:Toy;

class Child extends Base
   method Speak() Returns string;
   method Play(&t As Toy, &n As number out) Returns boolean;
end-class;
`,
	"PKG:IRun": `
interface IRun
   method Run();
   method Stop();
end-interface;
`,
	"PKG:Runner": `
class Runner implements PKG:IRun
   method Run();
end-class;
`,
	"PKG:Sprinter": `
class Sprinter extends PKG:Runner
end-class;
`,
	"PKG:Partial": `
class Partial implements PKG:IRun
   method Run() abstract;
end-class;
`,
	"PKG:Loop": `
class Loop extends PKG:Loop
   method Spin();
end-class;
`,
	"PKG:A": `
class A extends PKG:B
   method FromA();
end-class;
`,
	"PKG:B": `
class B extends PKG:A
   method FromB();
end-class;
`,
}

func newZoo() (*Resolver, *mapProvider) {
	p := newProvider(zooSources)
	return NewResolver(p), p
}

func TestResolveMembers(t *testing.T) {
	r, _ := newZoo()
	ctx := context.Background()

	base, err := r.Resolve(ctx, "pkg:base")
	require.NoError(t, err)
	require.NotNil(t, base)

	assert.Equal(t, "pkg:base", base.QualifiedName)
	assert.Equal(t, "base", base.ClassName())
	assert.False(t, base.IsInterface)
	assert.False(t, base.IsAbstract())

	require.NotNil(t, base.Constructor)
	assert.Equal(t, "name", base.Constructor.Params[0].Name[1:])
	_, ok := base.Method("Base")
	assert.False(t, ok, "constructor is not an ordinary method")

	speak, ok := base.Method("SPEAK")
	require.True(t, ok)
	assert.True(t, types.Equal(types.String, speak.Return))
	assert.Equal(t, "Speak() Returns String", speak.String())

	helper, _ := base.Method("Helper")
	assert.Equal(t, signature.Protected, helper.Visibility)

	name, ok := base.Property("Name")
	require.True(t, ok)
	assert.True(t, name.IsReadOnly)
	age, _ := base.Property("age")
	assert.False(t, age.IsReadOnly)

	tags, ok := base.Property("&tags")
	require.True(t, ok)
	assert.True(t, tags.IsInstance)
	assert.Equal(t, signature.Private, tags.Visibility)
	assert.Equal(t, "array of String", types.Display(tags.Type))

	limit, ok := base.Property("&LIMIT")
	require.True(t, ok)
	assert.True(t, limit.IsConstant)
	assert.True(t, types.Equal(types.Integer, limit.Type))
}

func TestResolveQualifiesShortNames(t *testing.T) {
	r, _ := newZoo()
	child, err := r.Resolve(context.Background(), "PKG:Child")
	require.NoError(t, err)
	require.NotNil(t, child)

	assert.Equal(t, "PKG:Base", child.BaseClassName)
	play, ok := child.Method("play")
	require.True(t, ok)
	assert.Equal(t, "OTHER:Toy", types.Display(play.Params[0].Type))
	assert.True(t, play.Params[1].Out)
	assert.True(t, types.Equal(types.Number, play.Params[1].Type))
	assert.Equal(t, "PKG:Child", play.DeclaringTypeName())

	var ref ast.MethodRef = play
	assert.Equal(t, "Play", ref.MemberName())
}

func TestCyclicInheritanceTerminates(t *testing.T) {
	r, _ := newZoo()
	ctx := context.Background()

	loop, err := r.Resolve(ctx, "PKG:Loop")
	require.NoError(t, err)
	require.NotNil(t, loop)
	assert.Empty(t, loop.BaseClassName)
	assert.Equal(t, []string{"PKG:Loop"}, loop.CyclicLinks)
	assert.NotNil(t, r.FindMethodInfo(ctx, loop, "Spin", AccessContext{}))
	assert.Nil(t, r.FindMethodInfo(ctx, loop, "Missing", AccessContext{}))

	a, err := r.Resolve(ctx, "PKG:A")
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, "PKG:B", a.BaseClassName)

	b, err := r.Resolve(ctx, "PKG:B")
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.Empty(t, b.BaseClassName)
	assert.Equal(t, []string{"PKG:A"}, b.CyclicLinks)

	assert.NotNil(t, r.FindMethodInfo(ctx, a, "FromB", AccessContext{}))
	ancestors, ok := r.Ancestors(ctx, "PKG:A")
	require.True(t, ok)
	assert.Equal(t, []string{"PKG:B"}, ancestors)
}

func TestMemberVisibility(t *testing.T) {
	r, _ := newZoo()
	ctx := context.Background()
	child, err := r.Resolve(ctx, "PKG:Child")
	require.NoError(t, err)
	base, err := r.Resolve(ctx, "PKG:Base")
	require.NoError(t, err)

	tests := []struct {
		name   string
		cls    *ClassTypeInfo
		member string
		access AccessContext
		want   string // 声明类型，空表示不可见
	}{
		{"public inherited", child, "Age", AccessContext{}, "PKG:Base"},
		{"override wins", child, "Speak", AccessContext{}, "PKG:Child"},
		{"protected from outside", child, "Helper", AccessContext{}, ""},
		{"protected from subclass", child, "Helper", AccessContext{FromClass: "PKG:Child"}, "PKG:Base"},
		{"protected via super", base, "Helper", AccessContext{FromClass: "PKG:Child", ViaSuper: true}, "PKG:Base"},
		{"private from subclass", child, "Secret", AccessContext{FromClass: "PKG:Child"}, ""},
		{"private via super", base, "Secret", AccessContext{FromClass: "PKG:Child", ViaSuper: true}, ""},
		{"private inside declaring class", base, "Secret", AccessContext{FromClass: "pkg:base"}, "PKG:Base"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := r.FindMethodInfo(ctx, tt.cls, tt.member, tt.access)
			p := r.FindPropertyInfo(ctx, tt.cls, tt.member, tt.access)
			got := ""
			switch {
			case m != nil:
				got = m.DeclaringType
			case p != nil:
				got = p.DeclaringType
			}
			assert.Equal(t, strings.ToLower(tt.want), strings.ToLower(got))
		})
	}

	assert.Nil(t, r.FindPropertyInfo(ctx, child, "&tags", AccessContext{FromClass: "PKG:Child"}))
	assert.NotNil(t, r.FindPropertyInfo(ctx, base, "&tags", AccessContext{FromClass: "PKG:Base"}))
}

func TestUnimplementedAbstractMembers(t *testing.T) {
	r, _ := newZoo()
	ctx := context.Background()

	names := func(ms []*ClassMethodInfo) []string {
		var out []string
		for _, m := range ms {
			out = append(out, m.Name)
		}
		return out
	}

	runner, _ := r.Resolve(ctx, "PKG:Runner")
	assert.Equal(t, []string{"Stop"}, names(r.UnimplementedAbstractMembers(ctx, runner)))

	sprinter, _ := r.Resolve(ctx, "PKG:Sprinter")
	assert.Equal(t, []string{"Stop"}, names(r.UnimplementedAbstractMembers(ctx, sprinter)))

	partial, _ := r.Resolve(ctx, "PKG:Partial")
	assert.True(t, partial.IsAbstract())
	assert.Nil(t, r.UnimplementedAbstractMembers(ctx, partial))

	iface, _ := r.Resolve(ctx, "PKG:IRun")
	require.NotNil(t, iface)
	assert.True(t, iface.IsInterface)
	assert.Nil(t, r.UnimplementedAbstractMembers(ctx, iface))
}

func TestHierarchyDrivesAssignability(t *testing.T) {
	r, _ := newZoo()
	ctx := context.Background()

	ancestors, ok := r.Ancestors(ctx, "PKG:Sprinter")
	require.True(t, ok)
	assert.Equal(t, []string{"PKG:Runner", "PKG:IRun"}, ancestors)

	_, ok = r.Ancestors(ctx, "PKG:Nowhere")
	assert.False(t, ok)

	compat := types.Compat{Hierarchy: r.Hierarchy(ctx, nil)}
	assert.True(t, compat.IsAssignableFrom(types.NewAppClass("PKG:IRun"), types.NewAppClass("PKG:Sprinter")))
	assert.False(t, compat.IsAssignableFrom(types.NewAppClass("PKG:Sprinter"), types.NewAppClass("PKG:Runner")))
	assert.False(t, compat.IsAssignableFrom(types.NewAppClass("PKG:Base"), types.NewAppClass("PKG:Nowhere")))
}

func TestFromProgramIsNotCached(t *testing.T) {
	r, p := newZoo()
	ctx := context.Background()

	prog, err := parser.ParseSource(`
class Scratch extends PKG:Base
   method Extra();
end-class;
`, "local.pcode")
	require.NoError(t, err)

	local, err := r.FromProgram(ctx, prog, "PKG:Scratch")
	require.NoError(t, err)
	require.NotNil(t, local)
	assert.Equal(t, "PKG:Base", local.BaseClassName)
	assert.Equal(t, 1, r.Cache().Len(), "only the base class is cached")
	assert.Equal(t, 0, p.calls["pkg:scratch"])

	compat := types.Compat{Hierarchy: r.Hierarchy(ctx, local)}
	assert.True(t, compat.IsAssignableFrom(types.NewAppClass("PKG:Base"), local.Type()))

	script, err := parser.ParseSource(`Local string &s;`, "script.pcode")
	require.NoError(t, err)
	none, err := r.FromProgram(ctx, script, "")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestCacheAndStats(t *testing.T) {
	r, p := newZoo()
	ctx := context.Background()
	var run Stats
	counted := r.WithStats(&run)

	first, err := counted.Resolve(ctx, "PKG:Child")
	require.NoError(t, err)
	second, err := counted.Resolve(ctx, "pkg:child")
	require.NoError(t, err)
	assert.Same(t, first, second)

	assert.Equal(t, 1, p.calls["pkg:child"])
	assert.Equal(t, 1, p.calls["pkg:base"])
	assert.Equal(t, int64(2), run.Fetches.Load())
	assert.GreaterOrEqual(t, run.CacheHits.Load(), int64(1))
	assert.Equal(t, run.Fetches.Load(), r.Stats().Fetches.Load())
	assert.Equal(t, 2, r.Cache().Len())

	assert.True(t, r.Invalidate("PKG:CHILD"))
	assert.False(t, r.Invalidate("PKG:CHILD"))
	third, err := r.Resolve(ctx, "PKG:Child")
	require.NoError(t, err)
	assert.NotSame(t, first, third)
	assert.Equal(t, 2, p.calls["pkg:child"])

	r.Cache().Clear()
	assert.Zero(t, r.Cache().Len())
}

func TestProviderFaults(t *testing.T) {
	ctx := context.Background()

	missing, err := NewResolver(newProvider(nil)).Resolve(ctx, "PKG:Gone")
	assert.NoError(t, err)
	assert.Nil(t, missing)

	broken := newProvider(zooSources)
	broken.err = errors.New("disk on fire")
	r := NewResolver(broken)
	info, err := r.Resolve(ctx, "PKG:Base")
	assert.NoError(t, err)
	assert.Nil(t, info)
	assert.Equal(t, int64(1), r.Stats().Failures.Load())

	script := NewResolver(ProviderFunc(func(context.Context, string) (string, bool, error) {
		return "Local string &s;", true, nil
	}))
	info, err = script.Resolve(ctx, "PKG:Script")
	assert.NoError(t, err)
	assert.Nil(t, info)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = NewResolver(newProvider(zooSources)).Resolve(cancelled, "PKG:Base")
	assert.ErrorIs(t, err, context.Canceled)

	cacheOnly := NewResolver(nil)
	info, err = cacheOnly.Resolve(ctx, "PKG:Base")
	assert.NoError(t, err)
	assert.Nil(t, info)
}

func TestImportScope(t *testing.T) {
	prog, err := parser.ParseSource(`
import A:B:Exact;
import W:*;
import X:*;
Local string &s;
`, "scope.pcode")
	require.NoError(t, err)
	scope := NewImportScope(prog.Imports, "HOME:SUB")

	tests := []struct {
		name string
		want string
	}{
		{"Exact", "A:B:Exact"},
		{"exact", "A:B:Exact"},
		{"Other", "W:Other"},
		{"Q:Full", "Q:Full"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, scope.Qualify(tt.name), tt.name)
	}

	bare := NewImportScope(nil, "HOME:SUB")
	assert.Equal(t, "HOME:SUB:Thing", bare.Qualify("Thing"))
	assert.Equal(t, "Thing", NewImportScope(nil, "").Qualify("Thing"))
	assert.Equal(t, "HOME", PackageOf("HOME:Thing"))
	assert.Equal(t, "", PackageOf("Thing"))

	assert.True(t, types.Equal(types.Integer, scope.TypeOf(&ast.SimpleType{Name: "integer"})))
	assert.True(t, types.Equal(types.NewBuiltinObject("Rowset"), scope.TypeOf(&ast.SimpleType{Name: "rowset"})))
	assert.Equal(t, "array of any", strings.ToLower(types.Display(scope.TypeOf(&ast.ArrayType{Dims: 1}))))
	assert.Equal(t, "A:B:Exact", scope.ClassRef(&ast.SimpleType{Name: "Exact"}))
	assert.Equal(t, "", scope.ClassRef(&ast.SimpleType{Name: "string"}))
}

func TestChainCompleteness(t *testing.T) {
	r, p := newZoo()
	ctx := context.Background()

	sprinter, _ := r.Resolve(ctx, "PKG:Sprinter")
	assert.True(t, r.Complete(ctx, sprinter))

	loop, _ := r.Resolve(ctx, "PKG:Loop")
	assert.False(t, r.Complete(ctx, loop), "cyclic link leaves the chain incomplete")

	delete(p.sources, "PKG:Base")
	child, _ := r.Resolve(ctx, "PKG:Child")
	require.NotNil(t, child)
	assert.False(t, r.Complete(ctx, child), "unresolved base leaves the chain incomplete")
	assert.False(t, r.Complete(ctx, nil))
}

func TestUnrestrictedAccessSeesPrivateMembers(t *testing.T) {
	r, _ := newZoo()
	ctx := context.Background()
	child, _ := r.Resolve(ctx, "PKG:Child")
	require.NotNil(t, child)

	assert.Nil(t, r.FindMethodInfo(ctx, child, "Secret", AccessContext{FromClass: "PKG:Child"}))
	m := r.FindMethodInfo(ctx, child, "Secret", Unrestricted)
	require.NotNil(t, m)
	assert.Equal(t, signature.Private, m.Visibility)
}

func TestCacheOnlyDoesNotFetch(t *testing.T) {
	r, p := newZoo()
	ctx := context.Background()

	quick := r.CacheOnly()
	info, err := quick.Resolve(ctx, "PKG:Base")
	require.NoError(t, err)
	assert.Nil(t, info)
	assert.Zero(t, p.calls["pkg:base"])

	_, _ = r.Resolve(ctx, "PKG:Base")
	info, _ = quick.Resolve(ctx, "PKG:Base")
	assert.NotNil(t, info, "cache is shared")
}

func TestMemberNamesFollowVisibility(t *testing.T) {
	r, _ := newZoo()
	ctx := context.Background()
	child, _ := r.Resolve(ctx, "PKG:Child")
	require.NotNil(t, child)

	outside := r.MemberNames(ctx, child, AccessContext{})
	assert.Contains(t, outside, "Play")
	assert.Contains(t, outside, "Age")
	assert.NotContains(t, outside, "Helper")
	assert.NotContains(t, outside, "Secret")
	assert.IsIncreasing(t, outside)

	// 覆盖的方法只出现一次
	n := 0
	for _, name := range outside {
		if strings.EqualFold(name, "Speak") {
			n++
		}
	}
	assert.Equal(t, 1, n)

	inside := r.MemberNames(ctx, child, AccessContext{FromClass: "PKG:Child"})
	assert.Contains(t, inside, "Helper")
	assert.Nil(t, r.MemberNames(ctx, nil, AccessContext{}))
}
