package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/tangzhangming/pcode/internal/i18n"
	"github.com/tangzhangming/pcode/internal/logging"
	"github.com/tangzhangming/pcode/internal/lsp"
)

const Version = lsp.Version

func main() {
	// 解析命令行参数
	showVersion := flag.Bool("version", false, "显示版本信息")
	showHelp := flag.Bool("help", false, "显示帮助信息")
	logFile := flag.String("log", "", "日志文件路径（默认不记录日志）")
	logLevel := flag.String("log-level", "info", "日志级别")

	flag.Parse()

	if *showVersion {
		fmt.Printf("PeopleCode Language Server v%s\n", Version)
		os.Exit(0)
	}

	if *showHelp {
		printUsage(os.Stdout)
		os.Exit(0)
	}

	logger, err := logging.FromEnv(*logLevel, *logFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "LSP server error: %v\n", err)
		os.Exit(2)
	}
	defer func() { _ = logger.Sync() }()

	i18n.SetLanguage(i18n.FromEnv())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// 创建并启动 LSP 服务器
	server := lsp.NewServer(os.Stdin, os.Stdout, logger)
	if err := server.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "LSP server error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "PeopleCode Language Server - LSP 服务器")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "用法:")
	fmt.Fprintln(w, "  pcodels [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "选项:")
	fmt.Fprintln(w, "  --version            显示版本信息")
	fmt.Fprintln(w, "  --help               显示帮助信息")
	fmt.Fprintln(w, "  --log <file>         日志文件路径")
	fmt.Fprintln(w, "  --log-level <level>  debug、info、warn 或 error")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "环境变量 %s 指定日志文件，%s=1 输出调试日志，%s=zh 使用中文诊断。\n", logging.EnvLogFile, logging.EnvDebug, i18n.EnvLang)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "LSP 服务器通过标准输入输出 (stdio) 与编辑器通信，")
	fmt.Fprintln(w, "提供诊断与类型悬停；项目配置读取工作区根目录下的 pcode.toml。")
}
