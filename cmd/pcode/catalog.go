package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/tangzhangming/pcode/internal/catalog"
	"github.com/tangzhangming/pcode/internal/config"
	"github.com/tangzhangming/pcode/internal/signature"
)

// cmdCatalog catalog build|lookup|verify
func (a *app) cmdCatalog(args []string) int {
	if len(args) < 1 {
		a.printUsage()
		return exitUsage
	}
	switch args[0] {
	case "build":
		return a.cmdCatalogBuild(args[1:])
	case "lookup":
		return a.cmdCatalogLookup(args[1:])
	case "verify":
		return a.cmdCatalogVerify(args[1:])
	default:
		fmt.Fprintf(a.stderr, Msg().ErrUnknownSubCmd+"\n", "catalog", args[0])
		return exitUsage
	}
}

// cmdCatalogBuild 把 YAML 定义编译为二进制目录，写出后重新打开校验
func (a *app) cmdCatalogBuild(args []string) int {
	m := Msg()
	fs := flag.NewFlagSet("catalog build", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	output := fs.String("o", "builtins.pcat", m.OptOutput)
	legacy := fs.Bool("legacy", false, m.OptLegacy)
	buckets := fs.Int("buckets", 0, m.OptBuckets)
	fs.Usage = a.usageFunc("pcode catalog build [options] [definitions.yaml]", fs.PrintDefaults)

	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	// 未给出定义文件时编译内置定义
	var in io.Reader = bytes.NewReader(catalog.DefaultDefinitions())
	if fs.NArg() > 0 {
		f, err := os.Open(fs.Arg(0))
		if err != nil {
			fmt.Fprintf(a.stderr, m.ErrReadFile+"\n", err)
			return exitProblem
		}
		defer f.Close()
		in = f
	}

	defs, err := catalog.LoadDefinitions(in)
	if err != nil {
		fmt.Fprintf(a.stderr, m.ErrBuildFailed+"\n", err)
		return exitProblem
	}
	opts := []catalog.Option{catalog.WithBuckets(*buckets)}
	if !*legacy {
		opts = append(opts, catalog.WithNameTable())
	}
	w, err := defs.Writer(opts...)
	if err != nil {
		fmt.Fprintf(a.stderr, m.ErrBuildFailed+"\n", err)
		return exitProblem
	}
	data, err := w.Bytes()
	if err != nil {
		fmt.Fprintf(a.stderr, m.ErrBuildFailed+"\n", err)
		return exitProblem
	}
	if err := os.WriteFile(*output, data, 0644); err != nil {
		fmt.Fprintf(a.stderr, m.ErrBuildFailed+"\n", err)
		return exitProblem
	}

	r, err := catalog.Open(*output)
	if err != nil {
		fmt.Fprintf(a.stderr, m.ErrVerifyFailed+"\n", err)
		return exitProblem
	}
	defer r.Close()
	if err := r.Verify(); err != nil {
		fmt.Fprintf(a.stderr, m.ErrVerifyFailed+"\n", err)
		return exitProblem
	}

	fmt.Fprintf(a.stdout, m.SuccessCatalogBuilt+"\n", *output, r.Len(), len(data))
	return exitOK
}

// cmdCatalogLookup 打印名称对应的函数、系统变量与内置对象
func (a *app) cmdCatalogLookup(args []string) int {
	m := Msg()
	fs := flag.NewFlagSet("catalog lookup", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	path := fs.String("catalog", "", m.OptCatalog)
	fs.Usage = a.usageFunc("pcode catalog lookup [options] <name>...", fs.PrintDefaults)

	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return exitUsage
	}

	cat, err := a.openCatalog(*path)
	if err != nil {
		fmt.Fprintf(a.stderr, m.ErrCatalog+"\n", err)
		return exitProblem
	}
	defer cat.Close()

	code := exitOK
	for _, name := range fs.Args() {
		if !a.lookup(cat, name) {
			fmt.Fprintf(a.stderr, m.ErrNotFound+"\n", name)
			code = exitProblem
		}
	}
	return code
}

func (a *app) lookup(cat *catalog.Catalog, name string) bool {
	m := Msg()
	w := a.stdout
	found := false

	if fn, ok := cat.Function(name); ok {
		fmt.Fprintf(w, "%s %s\n", m.Function, fn)
		found = true
	}
	if prop, ok := cat.SystemVariable(name); ok {
		fmt.Fprintf(w, "%s %s\n", m.SystemVar, prop)
		found = true
	}
	if obj, ok := cat.Object(name); ok {
		fmt.Fprintf(w, "%s %s\n", m.Object, obj.Name)
		writeObjectMembers(w, obj)
		found = true
	}
	return found
}

// writeObjectMembers 按名称排序输出对象成员，默认方法以 * 标记
func writeObjectMembers(w io.Writer, obj *signature.BuiltinObjectInfo) {
	m := Msg()
	methods := make([]*signature.FunctionInfo, 0, len(obj.Methods))
	for _, fn := range obj.Methods {
		methods = append(methods, fn)
	}
	sort.Slice(methods, func(i, j int) bool {
		return strings.ToLower(methods[i].Name) < strings.ToLower(methods[j].Name)
	})
	props := make([]*signature.PropertyInfo, 0, len(obj.Properties))
	for _, p := range obj.Properties {
		props = append(props, p)
	}
	sort.Slice(props, func(i, j int) bool {
		return strings.ToLower(props[i].Name) < strings.ToLower(props[j].Name)
	})

	def, hasDefault := obj.DefaultMethod()
	if len(methods) > 0 {
		fmt.Fprintf(w, "  %s:\n", m.Methods)
		for _, fn := range methods {
			mark := " "
			if hasDefault && fn == def {
				mark = "*"
			}
			fmt.Fprintf(w, "  %s %s\n", mark, fn)
		}
	}
	if len(props) > 0 {
		fmt.Fprintf(w, "  %s:\n", m.Properties)
		for _, p := range props {
			fmt.Fprintf(w, "    %s\n", p)
		}
	}
}

// cmdCatalogVerify 逐条解码目录文件
func (a *app) cmdCatalogVerify(args []string) int {
	m := Msg()
	fs := flag.NewFlagSet("catalog verify", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	fs.Usage = a.usageFunc("pcode catalog verify <file>...", fs.PrintDefaults)

	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return exitUsage
	}

	code := exitOK
	for _, path := range fs.Args() {
		r, err := catalog.Open(path)
		if err == nil {
			err = r.Verify()
			n := r.Len()
			_ = r.Close()
			if err == nil {
				fmt.Fprintf(a.stdout, m.SuccessVerified+"\n", path, n)
				continue
			}
		}
		fmt.Fprintf(a.stderr, m.ErrVerifyFailed+"\n", err)
		code = exitProblem
	}
	return code
}

// openCatalog -catalog 指定的文件，否则当前目录配置的目录
func (a *app) openCatalog(path string) (*catalog.Catalog, error) {
	if path != "" {
		return catalog.Load(path)
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Discover(wd)
	if err != nil {
		return nil, err
	}
	return cfg.OpenCatalog()
}
