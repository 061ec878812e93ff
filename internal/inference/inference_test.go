package inference

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tangzhangming/pcode/internal/ast"
	"github.com/tangzhangming/pcode/internal/catalog"
	"github.com/tangzhangming/pcode/internal/classinfo"
	"github.com/tangzhangming/pcode/internal/errors"
	"github.com/tangzhangming/pcode/internal/parser"
	"github.com/tangzhangming/pcode/internal/signature"
	"github.com/tangzhangming/pcode/internal/types"
)

// ============================================================================
// 辅助函数
// ============================================================================

func parse(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, err := parser.ParseSource(src, "test.pcode")
	require.NoError(t, err)
	return prog
}

func builtins(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)
	return cat
}

// infer 解析并推断；未指定目录时使用内置目录
func infer(t *testing.T, src string, opts Options) (*ast.Program, *Result) {
	t.Helper()
	prog := parse(t, src)
	if opts.Catalog == nil {
		opts.Catalog = builtins(t)
	}
	return prog, Run(context.Background(), prog, opts)
}

// classes 以内存中的源码表构造类解析器
func classes(sources map[string]string) *classinfo.Resolver {
	return classinfo.NewResolver(classinfo.ProviderFunc(func(_ context.Context, name string) (string, bool, error) {
		for k, v := range sources {
			if strings.EqualFold(k, name) {
				return v, true, nil
			}
		}
		return "", false, nil
	}))
}

func codes(list []*errors.TypeError) []string {
	out := make([]string, 0, len(list))
	for _, e := range list {
		out = append(out, e.Code)
	}
	return out
}

// valueOf 语句中被推断的主要表达式：初始值、赋值右侧或表达式本身
func valueOf(t *testing.T, stmt ast.Statement) ast.Expression {
	t.Helper()
	switch s := stmt.(type) {
	case *ast.VarDeclStmt:
		require.NotNil(t, s.Names[0].Init, "declaration without initializer")
		return s.Names[0].Init
	case *ast.ExprStmt:
		if a, ok := s.Expr.(*ast.AssignExpr); ok {
			return a.Value
		}
		return s.Expr
	case *ast.ReturnStmt:
		return s.Value
	}
	t.Fatalf("unexpected statement %T", stmt)
	return nil
}

func typeName(e ast.Expression) string {
	if !e.Meta().HasType() {
		return "<none>"
	}
	return types.Display(e.Meta().InferredType())
}

// snapshot 所有表达式节点的类型与诊断，用于比较两次运行
func snapshot(prog *ast.Program) []string {
	var out []string
	ast.Walk(prog, func(n ast.Node) bool {
		if e, ok := n.(ast.Expression); ok && e != nil {
			out = append(out, fmt.Sprintf("%s:%s:%d", e.String(), typeName(e), len(e.Meta().Diagnostics())))
		}
		return true
	})
	return out
}

// ============================================================================
// 模式与状态
// ============================================================================

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
		ok   bool
	}{
		{"disabled", Disabled, true},
		{"Quick", Quick, true},
		{"THOROUGH", Thorough, true},
		{"fast", Disabled, false},
	}
	for _, tt := range tests {
		got, ok := ParseMode(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	var m Mode
	require.NoError(t, m.UnmarshalText([]byte("thorough")))
	assert.Equal(t, Thorough, m)
	assert.Error(t, m.UnmarshalText([]byte("slow")))
}

func TestStateTerminal(t *testing.T) {
	for _, s := range []State{NotStarted, CollectingGlobals, Visiting, Validating} {
		assert.False(t, s.Terminal(), s.String())
	}
	for _, s := range []State{Done, Failed, TimedOut, Cancelled} {
		assert.True(t, s.Terminal(), s.String())
	}
	assert.Equal(t, "timed-out", TimedOut.String())
}

func TestDisabledModeSkipsInference(t *testing.T) {
	prog := parse(t, `Local integer &n = "text";`)
	e := NewEngine()
	res := e.Run(context.Background(), prog, Options{Mode: Disabled, Catalog: builtins(t)})

	assert.True(t, res.Success)
	assert.Equal(t, Done, res.State)
	assert.Equal(t, Done, e.State())
	assert.Zero(t, res.NodesAnalyzed)
	assert.Empty(t, res.Errors)
	assert.False(t, valueOf(t, prog.Statements[0]).Meta().HasType())
}

func TestEngineReachesDone(t *testing.T) {
	e := NewEngine()
	assert.Equal(t, NotStarted, e.State())

	prog := parse(t, `&x = 1;`)
	res := e.Run(context.Background(), prog, Options{Mode: Quick})
	assert.Equal(t, Done, e.State())
	assert.True(t, res.Success)
	assert.NotEqual(t, res.RunID.String(), Run(context.Background(), prog, Options{Mode: Quick}).RunID.String())
}

// ============================================================================
// 表达式类型
// ============================================================================

func TestExpressionTypes(t *testing.T) {
	prog, res := infer(t, `
Local string &x;
&x = "5" + 3;
Local Rowset &rs = GetLevel0();
Local Row &row = &rs(1);
Local Record &rec = &row.JOB;
Local Field &f = &rec.EMPLID;
Local integer &count = &rs.RowCount;
Local array of string &names;
Local string &first = &names[1];
Local string &last = &names.Pop();
Local integer &size = &names.Len;
Local number &d = %Date + 1;
Local Record &r2 = CreateRecord(Record.JOB);
Local boolean &b = &count > 1 And &size < 3;
Local string &joined = &first | &count;
Local integer &avg = &count / 2;
&anything = Mystery(1, 2);
`, Options{Mode: Quick})

	require.Empty(t, res.Errors, "%v", res.Errors)
	want := map[int]string{
		1:  "String",
		2:  "Rowset",
		3:  "Row",
		4:  "Record",
		5:  "Field",
		6:  "Integer",
		8:  "String",
		9:  "String",
		10: "Integer",
		11: "Number",
		12: "Record",
		13: "Boolean",
		14: "String",
		15: "Integer",
		16: "Unknown",
	}
	for i, typ := range want {
		assert.Equal(t, typ, typeName(valueOf(t, prog.Statements[i])), "statement %d", i)
	}
	assert.True(t, res.Success)
	assert.Positive(t, res.TypesInferred)
	assert.Positive(t, res.Unresolved)
}

func TestIntegerArithmeticStaysInteger(t *testing.T) {
	prog, res := infer(t, `
Local integer &a = 1 + 2 * 3;
Local number &b = 1.5 + 2;
Local integer &c = -&a;
Local integer &q = &a / 2;
Local integer &p = &a ** 2;
Local number &r = &a / 2.5;
Local number &d = %Date + 1;
`, Options{Mode: Quick})

	require.Empty(t, res.Errors)
	assert.Equal(t, "Integer", typeName(valueOf(t, prog.Statements[0])))
	assert.Equal(t, "Number", typeName(valueOf(t, prog.Statements[1])))
	assert.Equal(t, "Integer", typeName(valueOf(t, prog.Statements[2])))
	assert.Equal(t, "Integer", typeName(valueOf(t, prog.Statements[3])))
	assert.Equal(t, "Integer", typeName(valueOf(t, prog.Statements[4])))
	assert.Equal(t, "Number", typeName(valueOf(t, prog.Statements[5])))
	assert.Equal(t, "Number", typeName(valueOf(t, prog.Statements[6])))
}

func TestCalleeIdentifierCarriesCallType(t *testing.T) {
	prog, _ := infer(t, `&n = Len("abc");`, Options{Mode: Quick})
	call := valueOf(t, prog.Statements[0]).(*ast.CallExpr)
	assert.Equal(t, "Integer", typeName(call))
	assert.Equal(t, "Integer", typeName(call.Function))
}

func TestVariablesInNestedBlocks(t *testing.T) {
	prog, res := infer(t, `
Function Total(&items As array of number) Returns number
   Local number &sum = 0;
   Local integer &i;
   For &i = 1 To &items.Len
      &sum = &sum + &items[&i];
   End-For;
   Return &sum;
End-Function;

If True Then
   Local string &inner = "a";
End-If;
&outer = &inner;
For &k = 1 To 3
   &outer = &k;
End-For;
`, Options{Mode: Quick})

	require.Empty(t, res.Errors, "%v", res.Errors)
	// 块外的引用回退到全程序声明
	assert.Equal(t, "String", typeName(valueOf(t, prog.Statements[1])))
	loop := prog.Statements[2].(*ast.ForStmt)
	assert.Equal(t, "Integer", typeName(loop.Variable))
}

// ============================================================================
// 诊断
// ============================================================================

func TestDiagnostics(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code string
		kind errors.Kind
	}{
		{"assignment mismatch", "Local integer &n;\n&n = \"a\";", errors.T0100, errors.KindTypeMismatch},
		{"initializer mismatch", `Local integer &n = "a";`, errors.T0100, errors.KindTypeMismatch},
		{"void assignment", `&x = Error("boom");`, errors.T0200, errors.KindVoidAssignment},
		{"void initializer", `Local string &s = Error("boom");`, errors.T0200, errors.KindVoidAssignment},
		{"builtin arity", `&n = Len("a", "b");`, errors.T0300, errors.KindArgumentCountMismatch},
		{"builtin argument type", `Local string &s = Substring(1, 2, 3);`, errors.T0101, errors.KindTypeMismatch},
		{"reference argument", `Local Record &r = CreateRecord("JOB");`, errors.T0101, errors.KindTypeMismatch},
		{"default method arity", "Local Rowset &rs = GetLevel0();\n&row = &rs(1, 2);", errors.T0300, errors.KindArgumentCountMismatch},
		{"value from void function", "Function Greet()\n   Return 1;\nEnd-Function;", errors.T0102, errors.KindTypeMismatch},
		{"return mismatch", "Function Greet() Returns integer\n   Return \"x\";\nEnd-Function;", errors.T0102, errors.KindTypeMismatch},
		{"user function arity", "Function Add(&a As integer) Returns integer\n   Return &a;\nEnd-Function;\n&r = Add();", errors.T0300, errors.KindArgumentCountMismatch},
		{"user function argument", "Function Add(&a As integer) Returns integer\n   Return &a;\nEnd-Function;\n&r = Add(\"x\");", errors.T0101, errors.KindTypeMismatch},
		{"super outside class", `&x = %Super.Name;`, errors.T0402, errors.KindUnknownType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, res := infer(t, tt.src, Options{Mode: Quick})
			require.Len(t, res.Errors, 1, "%v", res.Errors)
			assert.Equal(t, tt.code, res.Errors[0].Code)
			assert.Equal(t, tt.kind, res.Errors[0].Kind)
			assert.True(t, res.Success)
		})
	}
}

func TestPositionalSkipsUnfilledOptional(t *testing.T) {
	a := &signature.SingleParameter{Type: types.Of(types.TypeString), ParamName: "a"}
	b := &signature.SingleParameter{Type: types.Of(types.TypeBoolean), ParamName: "b"}
	c := &signature.SingleParameter{Type: types.Of(types.TypeInteger), ParamName: "c"}
	params := []signature.Parameter{a, &signature.VariableParameter{Min: 0, Max: 1, Inner: b}, c}

	slots, ok := positional(params, 2)
	require.True(t, ok)
	assert.Equal(t, []signature.Parameter{a, c}, slots)

	slots, ok = positional(params, 3)
	require.True(t, ok)
	assert.Equal(t, []signature.Parameter{a, b, c}, slots)

	rest := &signature.VariableParameter{Min: 1, Max: signature.Unlimited, Inner: c}
	slots, ok = positional([]signature.Parameter{a, rest}, 4)
	require.True(t, ok)
	assert.Equal(t, []signature.Parameter{a, c, c, c}, slots)

	_, ok = positional([]signature.Parameter{a, c}, 3)
	assert.False(t, ok)
}

func TestUnknownValuesAreNotErrors(t *testing.T) {
	_, res := infer(t, `
Local integer &n = Mystery();
Local string &s = &undeclared;
&n = Len(&alsoUndeclared);
&obj = GetSomething();
&n = &obj.Whatever;
`, Options{Mode: Quick})
	assert.Empty(t, res.Errors)
	assert.Empty(t, res.Warnings)
}

func TestDiagnosticAttachedToNode(t *testing.T) {
	prog, res := infer(t, `Local integer &n = "a";`, Options{Mode: Quick})
	require.Len(t, res.Errors, 1)
	value := valueOf(t, prog.Statements[0])
	require.Len(t, value.Meta().Diagnostics(), 1)
	assert.Same(t, res.Errors[0], value.Meta().Diagnostics()[0])
	assert.Equal(t, "Integer", res.Errors[0].Expected)
	assert.Equal(t, "String", res.Errors[0].Actual)
}

func TestErrorsSortedByPosition(t *testing.T) {
	_, res := infer(t, `
Function Late() Returns integer
   Return "x";
End-Function;
Local integer &a = "1";
&b = Len();
`, Options{Mode: Quick})

	require.Len(t, res.Errors, 3)
	for i := 1; i < len(res.Errors); i++ {
		prev, cur := res.Errors[i-1].Span.Start, res.Errors[i].Span.Start
		assert.True(t, prev.Before(cur), "%s before %s", prev, cur)
	}
	assert.Equal(t, []string{errors.T0102, errors.T0100, errors.T0300}, codes(res.Errors))
}

func TestLenientModeDowngradesUnknown(t *testing.T) {
	src := `
Function Twice(&n As integer) Returns integer
   Return &n * 2;
End-Function;

Local integer &r = Twice(Mystery());
`
	_, strict := infer(t, src, Options{Mode: Quick})
	require.Len(t, strict.Errors, 1)
	assert.Equal(t, errors.T0101, strict.Errors[0].Code)
	assert.Equal(t, "Unknown", strict.Errors[0].Actual)
	assert.True(t, strict.Success)

	_, lenient := infer(t, src, Options{Mode: Quick, TreatUnknownAsAny: true})
	assert.Empty(t, lenient.Errors)
	require.Len(t, lenient.Warnings, 1)
	assert.Equal(t, errors.LevelWarning, lenient.Warnings[0].Level)
}

func TestRepeatedRunsAreIdempotent(t *testing.T) {
	prog := parse(t, `
Local integer &n = "a";
Local string &s = Substring(&n, 1, 2) | "x";
&v = Len();
`)
	opts := Options{Mode: Quick, Catalog: builtins(t)}

	first := Run(context.Background(), prog, opts)
	before := snapshot(prog)
	second := Run(context.Background(), prog, opts)

	assert.Equal(t, codes(first.Errors), codes(second.Errors))
	assert.Equal(t, first.NodesAnalyzed, second.NodesAnalyzed)
	assert.Equal(t, before, snapshot(prog))
}

// ============================================================================
// 应用类
// ============================================================================

var animalSources = map[string]string{
	"PKG:Animal": `
class Animal
   method Animal(&name As string);
   method Speak() Returns string;
   property string Name get;
protected
   method Secret() Returns integer;
private
   method Hidden() Returns string;
end-class;
`,
	"PKG:Dog": `
class Dog extends Animal
   method Dog(&name As string);
   method Bark() Returns string;
end-class;
`,
	"PKG:IShape": `
interface IShape
   method Area() Returns number;
   method Label() Returns string;
end-interface;
`,
}

func TestClassMembersFromScript(t *testing.T) {
	src := `
Local PKG:Dog &d = create PKG:Dog("rex");
Local string &s = &d.Bark();
&s = &d.Hidden();
&s = &d.Fly();
&d = create PKG:Dog();
Local string &n = &d.Name;
`
	prog, res := infer(t, src, Options{Mode: Thorough, Classes: classes(animalSources)})

	assert.Equal(t, []string{errors.T0502, errors.T0501, errors.T0300}, codes(res.Errors))
	assert.Equal(t, "PKG:Dog", typeName(valueOf(t, prog.Statements[0])))

	call := valueOf(t, prog.Statements[1]).(*ast.CallExpr)
	assert.Equal(t, "String", typeName(call))
	access := call.Function.(*ast.MemberAccess)
	require.NotNil(t, access.ResolvedMethod)
	assert.Equal(t, "PKG:Dog", access.ResolvedMethod.DeclaringTypeName())

	assert.Equal(t, "Unknown", typeName(valueOf(t, prog.Statements[2])))
	assert.Equal(t, "String", typeName(valueOf(t, prog.Statements[5])))
	assert.Positive(t, res.ExternalResolutions)
}

func TestMissingMemberSuggestsVisibleName(t *testing.T) {
	src := `
Local PKG:Dog &d = create PKG:Dog("rex");
Local string &s = &d.Speek();
&s = &d.Hiden();
`
	_, res := infer(t, src, Options{Mode: Thorough, Classes: classes(animalSources)})

	require.Equal(t, []string{errors.T0501, errors.T0501}, codes(res.Errors))
	assert.Equal(t, []string{"did you mean 'Speak'?"}, res.Errors[0].Hints)
	// 私有成员对脚本不可见，不作为候选
	assert.Empty(t, res.Errors[1].Hints)
}

func TestQuickModeDoesNotFetchClasses(t *testing.T) {
	src := `
Local PKG:Dog &d = create PKG:Dog();
&s = &d.Fly();
`
	resolver := classes(animalSources)
	prog, res := infer(t, src, Options{Mode: Quick, Classes: resolver})

	assert.Empty(t, res.Errors)
	assert.Zero(t, res.ExternalResolutions)
	assert.Equal(t, "Unknown", typeName(valueOf(t, prog.Statements[1])))
	assert.Zero(t, resolver.Cache().Len())
}

func TestClassProgramBodies(t *testing.T) {
	src := `
class Dog extends Animal
   method Dog(&name As string);
   method Bark() Returns string;
   property integer Age get set;
private
   instance integer &age;
end-class;

method Dog
   %Super = create Animal(&name);
   &age = 0;
end-method;

method Bark
   Local integer &n = %Super.Secret();
   &h = %Super.Hidden();
   Return %This.Speak() | "!" | &age;
end-method;

get Age
   Return &age;
end-get;

set Age
   &age = &NewValue;
end-set;
`
	prog, res := infer(t, src, Options{
		Mode:        Thorough,
		Classes:     classes(animalSources),
		ProgramName: "PKG:Dog",
	})

	assert.Equal(t, []string{errors.T0502}, codes(res.Errors), "%v", res.Errors)

	bark := prog.Class.Impls[1].Body.Statements
	assert.Equal(t, "Integer", typeName(valueOf(t, bark[0])))
	assert.Equal(t, "String", typeName(valueOf(t, bark[2])))

	setter := prog.Class.Impls[3].Body.Statements
	assert.Equal(t, "Integer", typeName(valueOf(t, setter[0])))
}

func TestSuperWithoutBaseClass(t *testing.T) {
	prog, res := infer(t, `
class Lonely
   method Greet() Returns string;
end-class;

method Greet
   Return %Super.Name;
end-method;
`, Options{Mode: Quick, ProgramName: "PKG:Lonely"})

	require.Len(t, res.Errors, 1)
	assert.Equal(t, errors.T0401, res.Errors[0].Code)
	assert.Equal(t, errors.KindUnknownType, res.Errors[0].Kind)
	ret := prog.Class.Impls[0].Body.Statements[0]
	assert.Equal(t, "Unknown", typeName(valueOf(t, ret)))
}

func TestUnimplementedInterfaceMethods(t *testing.T) {
	src := `
class Square implements IShape
   method Area() Returns number;
end-class;

method Area
   Return 4;
end-method;
`
	_, res := infer(t, src, Options{Mode: Thorough, Classes: classes(animalSources), ProgramName: "PKG:Square"})
	require.Len(t, res.Errors, 1, "%v", res.Errors)
	assert.Equal(t, errors.T0002, res.Errors[0].Code)
	assert.Contains(t, res.Errors[0].Message, "Label")

	_, quick := infer(t, src, Options{Mode: Quick, Classes: classes(animalSources), ProgramName: "PKG:Square"})
	assert.Empty(t, quick.Errors)
}

func TestUnknownClassInCreate(t *testing.T) {
	_, res := infer(t, `&x = create PKG:Ghost();`, Options{Mode: Thorough, Classes: classes(animalSources)})
	assert.Empty(t, res.Errors)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, errors.T0400, res.Warnings[0].Code)
}

// ============================================================================
// Declare Function
// ============================================================================

const helperLibrary = `
Function Helper(&n As integer) Returns string
   Return "v" | &n;
End-Function;
`

func TestDeclaredFunctionResolution(t *testing.T) {
	src := `
Declare Function Helper PeopleCode FUNCLIB_X.FIELD FieldFormula;
Local string &a = Helper(1);
Local string &b = Helper("x");
`
	var requested []string
	resolver := ProgramResolverFunc(func(_ context.Context, name string) (*ast.Program, error) {
		requested = append(requested, name)
		return parser.ParseSource(helperLibrary, "funclib.pcode")
	})

	prog, res := infer(t, src, Options{Mode: Thorough, Resolver: resolver})
	assert.Equal(t, []string{"FUNCLIB_X.FIELD FieldFormula"}, requested)
	assert.Equal(t, "String", typeName(valueOf(t, prog.Statements[0])))
	assert.Equal(t, []string{errors.T0101}, codes(res.Errors))
	assert.EqualValues(t, 1, res.ExternalResolutions)

	requested = nil
	prog, res = infer(t, src, Options{Mode: Quick, Resolver: resolver})
	assert.Empty(t, requested)
	assert.Empty(t, res.Errors)
	assert.Equal(t, "Unknown", typeName(valueOf(t, prog.Statements[0])))
}

func TestFunctionDefinitionBeatsDeclaration(t *testing.T) {
	prog, res := infer(t, `
Declare Function Helper PeopleCode FUNCLIB_X.FIELD FieldFormula;

Function Helper() Returns integer
   Return 1;
End-Function;

Local integer &n = Helper();
`, Options{Mode: Quick})
	assert.Empty(t, res.Errors)
	assert.Equal(t, "Integer", typeName(valueOf(t, prog.Statements[0])))
}

// ============================================================================
// 超时、取消与内部错误
// ============================================================================

func TestCancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	prog := parse(t, `Local integer &n = "a";`)
	res := Run(ctx, prog, Options{Mode: Quick, Catalog: builtins(t)})
	assert.Equal(t, Cancelled, res.State)
	assert.True(t, res.Cancelled)
	assert.False(t, res.TimedOut)
	assert.False(t, res.Success)
	assert.Empty(t, res.Errors)
}

func TestExpiredDeadlineTimesOut(t *testing.T) {
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	res := Run(ctx, parse(t, `&x = 1;`), Options{Mode: Quick})
	assert.Equal(t, TimedOut, res.State)
	assert.True(t, res.TimedOut)
	assert.False(t, res.Success)
}

func TestTimeoutKeepsPartialResults(t *testing.T) {
	src := `
Declare Function Slow PeopleCode FUNCLIB_X.FIELD FieldFormula;
Local integer &a = 1;
&b = Slow();
Local string &c = "x";
`
	resolver := ProgramResolverFunc(func(ctx context.Context, _ string) (*ast.Program, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	prog, res := infer(t, src, Options{Mode: Thorough, Resolver: resolver, Timeout: 20 * time.Millisecond})

	assert.Equal(t, TimedOut, res.State)
	assert.True(t, res.TimedOut)
	assert.Equal(t, "Integer", typeName(valueOf(t, prog.Statements[0])))
	assert.Equal(t, "<none>", typeName(valueOf(t, prog.Statements[2])))
	assert.Contains(t, res.Report(), "timed out")
}

func TestCancellationDuringVisit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	resolver := ProgramResolverFunc(func(context.Context, string) (*ast.Program, error) {
		cancel()
		return nil, nil
	})
	prog := parse(t, `
Declare Function Helper PeopleCode FUNCLIB_X.FIELD FieldFormula;
&a = Helper();
Local string &c = "x";
`)
	e := NewEngine()
	res := e.Run(ctx, prog, Options{Mode: Thorough, Resolver: resolver, Catalog: builtins(t)})
	assert.Equal(t, Cancelled, res.State)
	assert.Equal(t, Cancelled, e.State())
	assert.Equal(t, "Unknown", typeName(valueOf(t, prog.Statements[0])))
	assert.False(t, valueOf(t, prog.Statements[1]).Meta().HasType())
}

// panicCatalog 模拟出错的签名目录
type panicCatalog struct{}

func (panicCatalog) Function(string) (*signature.FunctionInfo, bool) { panic("catalog corrupted") }
func (panicCatalog) SystemVariable(string) (*signature.PropertyInfo, bool) {
	return nil, false
}
func (panicCatalog) Object(string) (*signature.BuiltinObjectInfo, bool) { return nil, false }

func TestInternalFaultFails(t *testing.T) {
	e := NewEngine()
	prog := parse(t, "Local integer &n = \"a\";\n&x = Len(\"a\");")
	res := e.Run(context.Background(), prog, Options{Mode: Quick, Catalog: panicCatalog{}})

	assert.Equal(t, Failed, res.State)
	assert.Equal(t, Failed, e.State())
	assert.False(t, res.Success)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, errors.T0090, res.Errors[0].Code)
	assert.Contains(t, res.Errors[0].Message, "catalog corrupted")
	assert.Empty(t, res.Warnings)
}

// ============================================================================
// 结果输出
// ============================================================================

func TestReport(t *testing.T) {
	_, clean := infer(t, `&x = 1;`, Options{Mode: Quick})
	assert.Contains(t, clean.Report(), "no problems found")
	assert.Contains(t, clean.Summary(), "quick mode")

	_, res := infer(t, "Local integer &n = \"a\";\n&x = create PKG:Ghost();", Options{Mode: Thorough, Classes: classes(nil)})
	report := res.Report()
	assert.Contains(t, report, "Errors (1):")
	assert.Contains(t, report, "Warnings (1):")
	assert.Contains(t, report, "[T0100]")
	assert.Contains(t, report, "[T0400]")
	assert.Len(t, res.Diagnostics(), 2)
	assert.True(t, res.HasErrors())
}

func TestResultJSON(t *testing.T) {
	_, res := infer(t, `Local integer &n = "a";`, Options{Mode: Quick})
	data, err := json.Marshal(res)
	require.NoError(t, err)

	var decoded struct {
		RunID   string `json:"run_id"`
		Success bool   `json:"success"`
		Mode    string `json:"mode"`
		State   string `json:"state"`
		Errors  []struct {
			Code     string `json:"code"`
			Kind     string `json:"kind"`
			Level    string `json:"level"`
			Expected string `json:"expected"`
			File     string `json:"file"`
			Start    struct {
				Line int `json:"line"`
			} `json:"start"`
		} `json:"errors"`
		Warnings []json.RawMessage `json:"warnings"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, res.RunID.String(), decoded.RunID)
	assert.True(t, decoded.Success)
	assert.Equal(t, "quick", decoded.Mode)
	assert.Equal(t, "done", decoded.State)
	require.Len(t, decoded.Errors, 1)
	assert.Equal(t, "T0100", decoded.Errors[0].Code)
	assert.Equal(t, "TypeMismatch", decoded.Errors[0].Kind)
	assert.Equal(t, "error", decoded.Errors[0].Level)
	assert.Equal(t, "Integer", decoded.Errors[0].Expected)
	assert.Equal(t, "test.pcode", decoded.Errors[0].File)
	assert.Equal(t, 1, decoded.Errors[0].Start.Line)
	assert.NotNil(t, decoded.Warnings)
}

// ============================================================================
// 作用域
// ============================================================================

func TestScopeChain(t *testing.T) {
	outer := NewScope(nil)
	outer.Declare("&A", types.Integer)
	inner := NewScope(outer)
	inner.Declare("&b", types.String)

	typ, ok := inner.Lookup("&a")
	require.True(t, ok)
	assert.Equal(t, types.Integer, typ)

	_, ok = outer.Lookup("&B")
	assert.False(t, ok)
	assert.Same(t, outer, inner.Parent())

	inner.Declare("&a", types.Number)
	typ, _ = inner.Lookup("&a")
	assert.Equal(t, types.Number, typ)
	typ, _ = outer.Lookup("&a")
	assert.Equal(t, types.Integer, typ)
}
