package errors

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/tangzhangming/pcode/internal/token"
)

// ============================================================================
// 错误报告器
// ============================================================================

// Reporter 收集诊断并按位置输出
//
// 同一个 Reporter 可以被多个推断过程并发写入。
type Reporter struct {
	mu          sync.Mutex
	formatter   *Formatter
	sourceCache map[string][]string
	errors      []*TypeError
	warnings    []*TypeError
}

// NewReporter 创建错误报告器
func NewReporter() *Reporter {
	return &Reporter{
		formatter:   NewFormatter(),
		sourceCache: make(map[string][]string),
	}
}

// SetFormatter 设置格式化器
func (r *Reporter) SetFormatter(f *Formatter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.formatter = f
}

// LoadSource 加载源文件
func (r *Reporter) LoadSource(filename string) error {
	r.mu.Lock()
	_, ok := r.sourceCache[filename]
	r.mu.Unlock()
	if ok {
		return nil
	}

	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	r.sourceCache[filename] = lines
	r.mu.Unlock()
	return nil
}

// SetSource 设置源代码（用于测试或内存中的源代码）
func (r *Reporter) SetSource(filename string, content string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sourceCache[filename] = strings.Split(content, "\n")
}

// Report 按级别记录一条诊断
func (r *Reporter) Report(err *TypeError) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err.Level == LevelError {
		r.errors = append(r.errors, err)
	} else {
		r.warnings = append(r.warnings, err)
	}
}

// ReportAll 记录多条诊断
func (r *Reporter) ReportAll(list []*TypeError) {
	for _, err := range list {
		r.Report(err)
	}
}

// ReportSimple 报告语法/词法阶段的简单错误
func (r *Reporter) ReportSimple(code string, span token.Span, message string) {
	r.Report(&TypeError{
		Kind:    KindOf(code),
		Level:   LevelError,
		Code:    code,
		Message: message,
		Span:    span,
	})
}

// Render 将全部诊断按位置排序后写出
func (r *Reporter) Render(w io.Writer) error {
	r.mu.Lock()
	all := make([]*TypeError, 0, len(r.errors)+len(r.warnings))
	all = append(all, r.errors...)
	all = append(all, r.warnings...)
	cache := make(map[string][]string, len(r.sourceCache))
	for k, v := range r.sourceCache {
		cache[k] = v
	}
	formatter := r.formatter
	r.mu.Unlock()

	SortByPosition(all)
	if _, err := io.WriteString(w, formatter.FormatAll(all, cache)); err != nil {
		return err
	}
	if len(all) > 0 {
		summary := fmt.Sprintf("%d error(s), %d warning(s)", r.ErrorCount(), r.WarningCount())
		if _, err := fmt.Fprintf(w, "\n%s\n", formatter.colorize(summary, ColorBoldWhite)); err != nil {
			return err
		}
	}
	return nil
}

// HasErrors 检查是否有错误
func (r *Reporter) HasErrors() bool {
	return r.ErrorCount() > 0
}

// ErrorCount 错误数量
func (r *Reporter) ErrorCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.errors)
}

// WarningCount 警告数量
func (r *Reporter) WarningCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.warnings)
}

// Errors 返回错误列表的副本
func (r *Reporter) Errors() []*TypeError {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*TypeError(nil), r.errors...)
}

// Warnings 返回警告列表的副本
func (r *Reporter) Warnings() []*TypeError {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*TypeError(nil), r.warnings...)
}

// Clear 清空已收集的诊断
func (r *Reporter) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = nil
	r.warnings = nil
}
