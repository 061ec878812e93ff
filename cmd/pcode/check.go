package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/segmentio/encoding/json"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/tangzhangming/pcode/internal/ast"
	"github.com/tangzhangming/pcode/internal/catalog"
	"github.com/tangzhangming/pcode/internal/classinfo"
	"github.com/tangzhangming/pcode/internal/config"
	"github.com/tangzhangming/pcode/internal/errors"
	"github.com/tangzhangming/pcode/internal/inference"
	"github.com/tangzhangming/pcode/internal/logging"
	"github.com/tangzhangming/pcode/internal/parser"
	"github.com/tangzhangming/pcode/internal/source"
	"github.com/tangzhangming/pcode/internal/token"
)

// checkFlags check 子命令的参数；零值表示使用配置文件中的值
type checkFlags struct {
	json     bool
	mode     string
	timeout  time.Duration
	lenient  bool
	verbose  bool
	logLevel string
}

// checker 同一个配置下的文件共享签名目录与类缓存
type checker struct {
	cfg     *config.Config
	catalog *catalog.Catalog
	dir     *source.Dir
	sources source.Chain
	classes *classinfo.Resolver // 首次检查时创建
	close   func() error
}

// fileReport -json 输出中的一个文件
type fileReport struct {
	File         string            `json:"file"`
	Program      string            `json:"program,omitempty"`
	SyntaxErrors []string          `json:"syntax_errors,omitempty"`
	Result       *inference.Result `json:"result"`
}

// cmdCheck 推断一个或多个文件并报告问题
func (a *app) cmdCheck(args []string) int {
	m := Msg()
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.SetOutput(a.stderr)

	var f checkFlags
	fs.BoolVar(&f.json, "json", false, m.OptJSON)
	fs.StringVar(&f.mode, "mode", "", m.OptMode)
	fs.DurationVar(&f.timeout, "timeout", -1, m.OptTimeout)
	fs.BoolVar(&f.lenient, "lenient", false, m.OptLenient)
	fs.BoolVar(&f.verbose, "v", false, m.OptVerbose)
	fs.StringVar(&f.logLevel, "log-level", "", m.OptLogLevel)
	fs.Usage = a.usageFunc("pcode check [options] <file>...", fs.PrintDefaults)

	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	files := fs.Args()
	if len(files) == 0 {
		fmt.Fprintln(a.stderr, m.ErrNoInput)
		fs.Usage()
		return exitUsage
	}

	var mode inference.Mode
	if f.mode != "" {
		var ok bool
		if mode, ok = inference.ParseMode(f.mode); !ok {
			fmt.Fprintf(a.stderr, m.ErrInvalidMode+"\n", f.mode)
			return exitUsage
		}
	}

	checkers := make(map[string]*checker)
	defer func() {
		for _, c := range checkers {
			_ = c.close()
		}
	}()

	reporter := errors.NewReporter()
	var reports []fileReport
	var logger *zap.Logger
	failed := false

	for _, file := range files {
		if a.ctx.Err() != nil {
			break
		}
		path, err := filepath.Abs(file)
		if err != nil {
			path = file
		}

		c, err := a.checkerFor(checkers, path)
		if err != nil {
			fmt.Fprintln(a.stderr, err)
			return exitProblem
		}
		if logger == nil {
			level := c.cfg.Log.Level
			if f.logLevel != "" {
				level = f.logLevel
			}
			if f.verbose {
				level = "debug"
			}
			if logger, err = logging.New(level, c.cfg.Resolve(c.cfg.Log.File)); err != nil {
				fmt.Fprintf(a.stderr, m.ErrLogger+"\n", err)
				return exitUsage
			}
			defer func() { _ = logger.Sync() }()
		}

		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(a.stderr, m.ErrReadFile+"\n", err)
			failed = true
			continue
		}
		content := string(data)
		reporter.SetSource(file, content)

		report := a.checkFile(c, logger, f, mode, file, path, content, reporter)
		if report.Result.TimedOut || report.Result.Cancelled {
			fmt.Fprintf(a.stderr, m.ErrInferenceState+"\n", file, report.Result.State)
		}
		if len(report.SyntaxErrors) > 0 || report.Result.HasErrors() {
			failed = true
		}
		if f.verbose && !f.json {
			fmt.Fprintf(a.stderr, "%s: %s\n", file, report.Result.Summary())
		}
		reports = append(reports, report)
	}

	if f.json {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(reports); err != nil {
			fmt.Fprintf(a.stderr, m.ErrWriteOutput+"\n", err)
			return exitProblem
		}
	} else {
		if err := reporter.Render(a.stdout); err != nil {
			fmt.Fprintf(a.stderr, m.ErrWriteOutput+"\n", err)
			return exitProblem
		}
		if reporter.ErrorCount()+reporter.WarningCount() == 0 {
			for _, r := range reports {
				fmt.Fprintf(a.stdout, m.SuccessCheckOK+"\n", r.File)
			}
		} else if len(reports) > 1 {
			fmt.Fprintf(a.stdout, m.CheckSummary+"\n", len(reports), reporter.ErrorCount(), reporter.WarningCount())
		}
	}

	if failed {
		return exitProblem
	}
	return exitOK
}

// checkerFor 找到文件所属的配置，同一配置只打开一次
func (a *app) checkerFor(cache map[string]*checker, path string) (*checker, error) {
	m := Msg()
	key := config.FindConfigFile(path)
	if key == "" {
		key = "dir:" + filepath.Dir(path)
	}
	if c, ok := cache[key]; ok {
		return c, nil
	}

	cfg, err := config.Discover(path)
	if err != nil {
		return nil, fmt.Errorf(m.ErrConfig, err)
	}
	cat, err := cfg.OpenCatalog()
	if err != nil {
		return nil, fmt.Errorf(m.ErrCatalog, err)
	}
	provider, closeSources, err := cfg.Sources(a.ctx)
	if err != nil {
		_ = cat.Close()
		return nil, fmt.Errorf(m.ErrSources, err)
	}

	c := &checker{
		cfg:     cfg,
		catalog: cat,
		dir:     cfg.SourceDir(),
		close: func() error {
			return multierr.Append(cat.Close(), closeSources())
		},
	}
	if provider != nil {
		c.sources = source.Chain{provider}
	}
	cache[key] = c
	return c, nil
}

// checkFile 解析并推断一个文件，诊断写入 reporter
func (a *app) checkFile(c *checker, logger *zap.Logger, f checkFlags, mode inference.Mode,
	file, path, content string, reporter *errors.Reporter) fileReport {
	report := fileReport{File: file}
	if c.dir != nil {
		if name, err := c.dir.NameOf(path); err == nil {
			report.Program = name
		}
	}

	p := parser.New(content, file)
	prog := p.Parse()
	for _, e := range p.Errors() {
		reporter.ReportSimple(errors.S0001, token.NewSpan(e.Pos, e.Pos), e.Message)
		report.SyntaxErrors = append(report.SyntaxErrors, e.Error())
	}

	opts := c.cfg.Options()
	if f.mode != "" {
		opts.Mode = mode
	}
	if f.timeout >= 0 {
		opts.Timeout = f.timeout
	}
	if f.lenient {
		opts.TreatUnknownAsAny = true
	}
	opts.Catalog = c.catalog
	if c.classes == nil {
		c.classes = classinfo.NewResolver(c.sources, classinfo.WithLogger(logger.Named("classinfo")))
	}
	opts.Classes = c.classes
	opts.Logger = logger.Named("inference")
	opts.ProgramName = report.Program
	opts.Resolver = inference.ProgramResolverFunc(func(ctx context.Context, name string) (*ast.Program, error) {
		src, found, err := c.sources.TryGetProgramSource(ctx, name)
		if err != nil || !found {
			return nil, err
		}
		// 外部程序的语法错误不影响对当前文件的推断
		prog, perr := parser.ParseSource(src, name)
		if perr != nil {
			logger.Debug("external program has syntax errors", zap.String("program", name), zap.Error(perr))
		}
		return prog, nil
	})

	// Quick 模式不主动获取类，先把正在检查的类放入缓存
	if report.Program != "" && (prog.Class != nil || prog.Interface != nil) {
		if _, err := c.classes.Resolve(a.ctx, report.Program); err != nil {
			logger.Debug("class warm-up interrupted", zap.String("class", report.Program), zap.Error(err))
		}
	}

	report.Result = inference.Run(a.ctx, prog, opts)
	reporter.ReportAll(report.Result.Diagnostics())
	return report
}
