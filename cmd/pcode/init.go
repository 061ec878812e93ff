package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tangzhangming/pcode/internal/config"
	"github.com/tangzhangming/pcode/internal/inference"
	"github.com/tangzhangming/pcode/internal/source"
)

// cmdInit 在项目目录中生成 pcode.toml 与 src 目录
func (a *app) cmdInit(args []string) int {
	m := Msg()
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	dir := fs.String("dir", "", m.OptDir)
	mode := fs.String("mode", "", m.OptMode)
	fs.Usage = a.usageFunc("pcode init [options]", fs.PrintDefaults)

	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	root := *dir
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			fmt.Fprintf(a.stderr, m.ErrGetWorkDir+"\n", err)
			return exitProblem
		}
		root = wd
	}

	// 检查是否已存在配置文件
	configPath := filepath.Join(root, config.ConfigFileName)
	if _, err := os.Stat(configPath); err == nil {
		fmt.Fprintf(a.stderr, m.ErrConfigExists+"\n", config.ConfigFileName)
		return exitProblem
	}

	cfg := config.Default()
	cfg.Source.Dir = "src"
	if *mode != "" {
		md, ok := inference.ParseMode(*mode)
		if !ok {
			fmt.Fprintf(a.stderr, m.ErrInvalidMode+"\n", *mode)
			return exitUsage
		}
		cfg.Inference.Mode = md
	}

	srcDir := filepath.Join(root, cfg.Source.Dir)
	fmt.Fprintf(a.stdout, m.InitCreating+"\n", srcDir)
	if err := os.MkdirAll(srcDir, 0755); err != nil {
		fmt.Fprintf(a.stderr, m.ErrCreateDir+"\n", err)
		return exitProblem
	}
	fmt.Fprintf(a.stdout, m.InitCreating+"\n", configPath)
	if err := cfg.Save(configPath); err != nil {
		fmt.Fprintf(a.stderr, m.ErrCreateConfig+"\n", err)
		return exitProblem
	}

	fmt.Fprintln(a.stdout)
	fmt.Fprintf(a.stdout, m.InitSuccess+"\n", root)
	fmt.Fprintln(a.stdout)
	fmt.Fprintln(a.stdout, m.InitNextSteps)
	fmt.Fprintf(a.stdout, "  mkdir -p src/PKG && $EDITOR src/PKG/Main%s\n", source.FileExtension)
	fmt.Fprintf(a.stdout, "  pcode check src/PKG/Main%s\n", source.FileExtension)
	return exitOK
}
