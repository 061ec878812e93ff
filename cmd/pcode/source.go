package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/tangzhangming/pcode/internal/config"
	"github.com/tangzhangming/pcode/internal/source"
)

// cmdSource source import|list
func (a *app) cmdSource(args []string) int {
	if len(args) < 1 {
		a.printUsage()
		return exitUsage
	}
	switch args[0] {
	case "import":
		return a.cmdSourceImport(args[1:])
	case "list":
		return a.cmdSourceList(args[1:])
	default:
		fmt.Fprintf(a.stderr, Msg().ErrUnknownSubCmd+"\n", "source", args[0])
		return exitUsage
	}
}

// openDatabase -db 指定的数据库，否则当前目录配置中的 source.sqlite
func (a *app) openDatabase(path string) (*source.SQLite, error) {
	m := Msg()
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf(m.ErrGetWorkDir, err)
		}
		cfg, err := config.Discover(wd)
		if err != nil {
			return nil, fmt.Errorf(m.ErrConfig, err)
		}
		if cfg.Source.SQLite == "" {
			return nil, fmt.Errorf("%s", m.ErrNoDatabase)
		}
		path = cfg.Resolve(cfg.Source.SQLite)
	}
	return source.OpenSQLite(a.ctx, path)
}

// cmdSourceImport 把目录树中的类源码导入数据库
func (a *app) cmdSourceImport(args []string) int {
	m := Msg()
	fs := flag.NewFlagSet("source import", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	dbPath := fs.String("db", "", m.OptDatabase)
	fs.Usage = a.usageFunc("pcode source import [options] <dir>", fs.PrintDefaults)

	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return exitUsage
	}

	db, err := a.openDatabase(*dbPath)
	if err != nil {
		fmt.Fprintln(a.stderr, err)
		return exitProblem
	}
	defer db.Close()

	n, err := db.ImportDir(a.ctx, source.NewDir(fs.Arg(0)))
	if err != nil {
		fmt.Fprintf(a.stderr, m.ErrImportFailed+"\n", err)
		return exitProblem
	}
	target := *dbPath
	if target == "" {
		target = "source.sqlite"
	}
	fmt.Fprintf(a.stdout, m.SuccessImported+"\n", n, target)
	return exitOK
}

// cmdSourceList 列出数据库中的程序及其指纹
func (a *app) cmdSourceList(args []string) int {
	m := Msg()
	fs := flag.NewFlagSet("source list", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	dbPath := fs.String("db", "", m.OptDatabase)
	fs.Usage = a.usageFunc("pcode source list [options]", fs.PrintDefaults)

	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	db, err := a.openDatabase(*dbPath)
	if err != nil {
		fmt.Fprintln(a.stderr, err)
		return exitProblem
	}
	defer db.Close()

	names, err := db.Names(a.ctx)
	if err != nil {
		fmt.Fprintln(a.stderr, err)
		return exitProblem
	}
	for _, name := range names {
		fp, _, err := db.Fingerprint(a.ctx, name)
		if err != nil {
			fmt.Fprintln(a.stderr, err)
			return exitProblem
		}
		fmt.Fprintf(a.stdout, "%s  %s\n", fp, name)
	}
	return exitOK
}
