package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/tangzhangming/pcode/internal/errors"
	"github.com/tangzhangming/pcode/internal/i18n"
	"github.com/tangzhangming/pcode/internal/source"
)

const (
	Version = "0.1.0"
)

// 退出码
const (
	exitOK      = 0
	exitProblem = 1 // 检查发现错误或操作失败
	exitUsage   = 2
)

// app 一次命令行调用
type app struct {
	ctx    context.Context
	stdout io.Writer
	stderr io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run 解析全局参数并分发子命令，返回退出码
func run(ctx context.Context, argv []string, stdout, stderr io.Writer) int {
	args, lang := preprocessArgs(argv)

	InitLanguage(lang)
	switch GetLanguage() {
	case LangChinese:
		i18n.SetLanguage(i18n.LangChinese)
	default:
		i18n.SetLanguage(i18n.LangEnglish)
	}

	if f, ok := stdout.(*os.File); ok {
		errors.SetColorsEnabled(errors.SupportsColor(f))
	} else {
		errors.SetColorsEnabled(false)
	}

	a := &app{ctx: ctx, stdout: stdout, stderr: stderr}

	if len(args) < 1 {
		a.printUsage()
		return exitOK
	}

	command := args[0]
	switch command {
	case "check":
		return a.cmdCheck(args[1:])
	case "catalog":
		return a.cmdCatalog(args[1:])
	case "source":
		return a.cmdSource(args[1:])
	case "init":
		return a.cmdInit(args[1:])
	case "version", "-v", "--version":
		return a.cmdVersion()
	case "help", "-h", "--help":
		a.printUsage()
		return exitOK
	default:
		// 直接给出文件时按 check 处理
		if !isFlag(command) && strings.EqualFold(extOf(command), source.FileExtension) {
			return a.cmdCheck(args)
		}
		fmt.Fprintf(a.stderr, Msg().ErrUnknownCmd+"\n\n", command)
		a.printUsage()
		return exitUsage
	}
}

// preprocessArgs 提取全局 --lang 参数
func preprocessArgs(args []string) (rest []string, lang string) {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--lang" || arg == "-lang" {
			if i+1 < len(args) {
				lang = args[i+1]
				i++
				continue
			}
		} else if strings.HasPrefix(arg, "--lang=") {
			lang = strings.TrimPrefix(arg, "--lang=")
			continue
		} else if strings.HasPrefix(arg, "-lang=") {
			lang = strings.TrimPrefix(arg, "-lang=")
			continue
		}
		rest = append(rest, arg)
	}
	return rest, lang
}

func isFlag(s string) bool {
	return len(s) > 0 && s[0] == '-'
}

func extOf(path string) string {
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		return path[i:]
	}
	return ""
}

func (a *app) printUsage() {
	m := Msg()
	w := a.stdout
	fmt.Fprintf(w, m.VersionTitle+"\n\n", Version)
	fmt.Fprintln(w, m.HelpUsage)
	fmt.Fprintln(w, "  pcode [--lang en|zh] <command> [options] [arguments]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, m.HelpCommands)
	fmt.Fprintf(w, "  check <file>...         %s\n", m.CmdCheck)
	fmt.Fprintf(w, "  catalog build <yaml>    %s\n", m.CmdCatalogBuild)
	fmt.Fprintf(w, "  catalog lookup <name>   %s\n", m.CmdCatalogLookup)
	fmt.Fprintf(w, "  catalog verify <file>   %s\n", m.CmdCatalogVerify)
	fmt.Fprintf(w, "  source import <dir>     %s\n", m.CmdSourceImport)
	fmt.Fprintf(w, "  source list             %s\n", m.CmdSourceList)
	fmt.Fprintf(w, "  init                    %s\n", m.CmdInit)
	fmt.Fprintf(w, "  version                 %s\n", m.CmdVersion)
	fmt.Fprintf(w, "  help                    %s\n", m.CmdHelp)
	fmt.Fprintln(w)
	fmt.Fprintln(w, m.HelpOptions)
	fmt.Fprintf(w, "  --lang <en|zh>          %s\n", m.OptLang)
	fmt.Fprintln(w)
	fmt.Fprintln(w, m.HelpExamples)
	fmt.Fprintf(w, "  pcode check -mode thorough src/PKG/Main%s\n", source.FileExtension)
	fmt.Fprintf(w, "  pcode check -json main%s\n", source.FileExtension)
	fmt.Fprintln(w, "  pcode catalog build -o builtins.pcat builtins.yaml")
	fmt.Fprintln(w, "  pcode catalog lookup Substring %Date")
	fmt.Fprintln(w, "  pcode --lang zh help")
}

// cmdVersion 显示版本信息
func (a *app) cmdVersion() int {
	m := Msg()
	fmt.Fprintf(a.stdout, m.VersionTitle+"\n", Version)
	fmt.Fprintln(a.stdout, m.VersionDesc)
	return exitOK
}

// usageFunc 子命令的帮助输出
func (a *app) usageFunc(usage string, printDefaults func()) func() {
	return func() {
		m := Msg()
		fmt.Fprintln(a.stderr, m.HelpUsage+" "+usage)
		fmt.Fprintln(a.stderr)
		fmt.Fprintln(a.stderr, m.HelpOptions)
		printDefaults()
	}
}
