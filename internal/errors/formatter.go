package errors

import (
	"fmt"
	"strings"
)

// Formatter 诊断格式化器
//
// 输出形如：
//
//	error[T0100]: type mismatch: cannot assign Integer to String
//	 --> Invoice.pc:5:4
//	  |
//	5 |    &name = 42;
//	  |    ^^^^^
type Formatter struct {
	Colors     bool // 是否使用颜色
	ShowSource bool // 是否显示源代码
	ShowHints  bool // 是否显示修复建议
	TabWidth   int  // Tab 宽度
}

// NewFormatter 创建默认格式化器
func NewFormatter() *Formatter {
	return &Formatter{
		Colors:     colorsEnabled,
		ShowSource: true,
		ShowHints:  true,
		TabWidth:   4,
	}
}

// Format 格式化一条诊断
func (f *Formatter) Format(err *TypeError, sourceLines []string) string {
	var sb strings.Builder

	levelStr := f.colorize(err.Level.String(), f.levelColor(err.Level))
	codeStr := f.colorize(fmt.Sprintf("[%s]", err.Code), f.levelColor(err.Level))
	sb.WriteString(fmt.Sprintf("%s%s: %s\n", levelStr, codeStr, err.Message))

	start := err.Span.Start
	arrow := f.colorize("-->", ColorCyan)
	location := f.colorize(start.String(), ColorCyan)
	sb.WriteString(fmt.Sprintf(" %s %s\n", arrow, location))

	if f.ShowSource && start.Line > 0 && start.Line <= len(sourceLines) {
		sb.WriteString(f.formatSourceContext(sourceLines, err))
	}

	if f.ShowHints {
		for _, hint := range err.Hints {
			sb.WriteString(fmt.Sprintf("%s %s\n", f.colorize(" = help:", ColorCyan), hint))
		}
	}
	for _, note := range err.Notes {
		sb.WriteString(fmt.Sprintf("%s %s\n", f.colorize(" = note:", ColorCyan), note))
	}

	return sb.String()
}

// FormatAll 格式化多条诊断，sourceCache 以文件名为键
func (f *Formatter) FormatAll(list []*TypeError, sourceCache map[string][]string) string {
	var sb strings.Builder
	for i, err := range list {
		if i > 0 {
			sb.WriteString("\n")
		}
		var lines []string
		if sourceCache != nil {
			lines = sourceCache[err.Span.Start.Filename]
		}
		sb.WriteString(f.Format(err, lines))
	}
	return sb.String()
}

// formatSourceContext 格式化出错行及下划线标注
func (f *Formatter) formatSourceContext(lines []string, err *TypeError) string {
	var sb strings.Builder

	lineNo := err.Span.Start.Line
	lineNumWidth := len(fmt.Sprintf("%d", lineNo))

	separator := f.colorize(strings.Repeat(" ", lineNumWidth)+" |", ColorBlue)
	sb.WriteString(separator + "\n")

	line := lines[lineNo-1]
	lineNum := f.colorize(fmt.Sprintf("%*d", lineNumWidth, lineNo), ColorBlue)
	pipe := f.colorize(" |", ColorBlue)
	sb.WriteString(fmt.Sprintf("%s%s %s\n", lineNum, pipe, f.expandTabs(line)))

	length := err.Span.Length()
	actualCol := f.calculateActualColumn(line, err.Span.Start.Column)
	underline := strings.Repeat(" ", lineNumWidth+3+actualCol) +
		f.colorize(strings.Repeat("^", length), f.levelColor(err.Level))
	sb.WriteString(underline + "\n")

	return sb.String()
}

func (f *Formatter) expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", strings.Repeat(" ", f.TabWidth))
}

// calculateActualColumn 计算实际列位置（考虑 Tab），返回 0 起始的偏移
func (f *Formatter) calculateActualColumn(line string, col int) int {
	if col <= 0 {
		return 0
	}
	actual := 0
	for i := 0; i < col-1 && i < len(line); i++ {
		if line[i] == '\t' {
			actual += f.TabWidth
		} else {
			actual++
		}
	}
	return actual
}

func (f *Formatter) levelColor(level Level) Color {
	switch level {
	case LevelError:
		return ColorRed
	case LevelWarning:
		return ColorYellow
	case LevelNote:
		return ColorCyan
	case LevelHelp:
		return ColorGreen
	default:
		return ColorWhite
	}
}

func (f *Formatter) colorize(s string, color Color) string {
	if !f.Colors {
		return s
	}
	code, ok := ansiCodes[color]
	if !ok {
		return s
	}
	return code + s + ansiCodes[ColorReset]
}
