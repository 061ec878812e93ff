package lsp

import (
	"context"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/tangzhangming/pcode/internal/ast"
	"github.com/tangzhangming/pcode/internal/catalog"
	"github.com/tangzhangming/pcode/internal/classinfo"
	"github.com/tangzhangming/pcode/internal/config"
	"github.com/tangzhangming/pcode/internal/inference"
	"github.com/tangzhangming/pcode/internal/parser"
	"github.com/tangzhangming/pcode/internal/source"
)

// Workspace 工作区：配置、签名目录与类元数据缓存
//
// 打开的文档写入 overlay，优先于磁盘上的源码；
// 源码指纹变化时对应类的缓存失效。
type Workspace struct {
	root   string
	cfg    *config.Config
	logger *zap.Logger

	catalog *catalog.Catalog
	dir     *source.Dir // 可为 nil
	overlay *source.Map
	tracker *source.Tracker
	sources source.Chain
	classes *classinfo.Resolver

	closeSources func() error
}

// OpenWorkspace 读取 root 下的配置并打开签名目录与源码
//
// 配置未指定源码目录时，配置文件所在目录（没有配置文件时为 root）作为源码目录。
func OpenWorkspace(ctx context.Context, root string, logger *zap.Logger) (*Workspace, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg := config.Default()
	if root != "" {
		var err error
		if cfg, err = config.Discover(root); err != nil {
			return nil, err
		}
	}

	cat, err := cfg.OpenCatalog()
	if err != nil {
		return nil, err
	}
	provider, closeSources, err := cfg.Sources(ctx)
	if err != nil {
		_ = cat.Close()
		return nil, err
	}

	w := &Workspace{
		root:         root,
		cfg:          cfg,
		logger:       logger,
		catalog:      cat,
		overlay:      source.NewMap(nil),
		tracker:      source.NewTracker(),
		closeSources: closeSources,
	}

	w.dir = cfg.SourceDir()
	w.sources = source.Chain{w.overlay, provider}
	w.classes = classinfo.NewResolver(w.sources, classinfo.WithLogger(logger.Named("classinfo")))

	logger.Info("workspace opened",
		zap.String("root", root),
		zap.Stringer("mode", cfg.Inference.Mode),
		zap.String("config", config.FindConfigFile(root)))
	return w, nil
}

// Close 释放签名目录与源码数据库
func (w *Workspace) Close() error {
	return multierr.Append(w.catalog.Close(), w.closeSources())
}

// Config 当前配置
func (w *Workspace) Config() *config.Config { return w.cfg }

// Classes 类元数据解析器
func (w *Workspace) Classes() *classinfo.Resolver { return w.classes }

// NameOf 文件路径对应的程序限定名，不在源码目录中时为空
func (w *Workspace) NameOf(path string) string {
	if w.dir == nil || path == "" {
		return ""
	}
	name, err := w.dir.NameOf(path)
	if err != nil {
		return ""
	}
	return name
}

// Sync 把打开文档的内容写入 overlay，返回内容是否变化
//
// Quick 模式不会主动获取类，这里顺带把文档中的类及其基类放入缓存。
func (w *Workspace) Sync(ctx context.Context, doc *Document) bool {
	if doc.Name == "" {
		return false
	}
	w.overlay.Set(doc.Name, doc.Content)
	if !w.tracker.Observe(doc.Name, doc.Content) {
		return false
	}
	w.classes.Invalidate(doc.Name)
	if doc.Program != nil && (doc.Program.Class != nil || doc.Program.Interface != nil) {
		if _, err := w.classes.Resolve(ctx, doc.Name); err != nil {
			w.logger.Debug("class warm-up interrupted", zap.String("class", doc.Name), zap.Error(err))
		}
	}
	return true
}

// Release 文档关闭后回退到磁盘上的源码
func (w *Workspace) Release(doc *Document) {
	if doc == nil || doc.Name == "" {
		return
	}
	w.overlay.Delete(doc.Name)
	w.tracker.Forget(doc.Name)
	w.classes.Invalidate(doc.Name)
}

// FileChanged 磁盘上的源码文件发生变化，返回对应的类是否受影响
func (w *Workspace) FileChanged(path string) bool {
	name := w.NameOf(path)
	if name == "" {
		return false
	}
	w.tracker.Forget(name)
	return w.classes.Invalidate(name)
}

// IsConfigFile 路径是否是本工作区的配置文件
func (w *Workspace) IsConfigFile(path string) bool {
	if !strings.EqualFold(filepath.Base(path), config.ConfigFileName) {
		return false
	}
	current := config.FindConfigFile(w.root)
	return current == "" || filepath.Clean(current) == filepath.Clean(path)
}

// Options 推断一个文档使用的参数
func (w *Workspace) Options(doc *Document) inference.Options {
	opts := w.cfg.Options()
	opts.Catalog = w.catalog
	opts.Classes = w.classes
	opts.Resolver = inference.ProgramResolverFunc(w.resolveProgram)
	opts.Logger = w.logger.Named("inference")
	opts.ProgramName = doc.Name
	return opts
}

// Analyze 对文档执行一次推断，结果保存在文档上
func (w *Workspace) Analyze(ctx context.Context, doc *Document) *inference.Result {
	res := inference.Run(ctx, doc.Program, w.Options(doc))
	doc.Result = res
	w.logger.Debug("document analyzed",
		zap.String("uri", doc.URI),
		zap.String("run", res.RunID.String()),
		zap.Stringer("state", res.State),
		zap.Int("errors", len(res.Errors)),
		zap.Int("warnings", len(res.Warnings)),
		zap.Duration("elapsed", res.Elapsed))
	return res
}

// resolveProgram 为 Declare Function 读取并解析来源程序
func (w *Workspace) resolveProgram(ctx context.Context, name string) (*ast.Program, error) {
	src, found, err := w.sources.TryGetProgramSource(ctx, name)
	if err != nil || !found {
		return nil, err
	}
	prog, perr := parser.ParseSource(src, name)
	if perr != nil {
		w.logger.Debug("external program has syntax errors", zap.String("program", name), zap.Error(perr))
	}
	return prog, nil
}
