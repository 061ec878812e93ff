package errors

import (
	"fmt"
	"sort"

	"github.com/tangzhangming/pcode/internal/i18n"
	"github.com/tangzhangming/pcode/internal/token"
)

// TypeError 一条类型诊断
//
// Expected/Actual 记录参与比较的类型名，宽松模式据此判断是否降级为警告。
type TypeError struct {
	Kind     Kind       `json:"kind"`
	Level    Level      `json:"level"`
	Code     string     `json:"code"`
	Message  string     `json:"message"`
	Span     token.Span `json:"-"`
	Expected string     `json:"expected,omitempty"`
	Actual   string     `json:"actual,omitempty"`
	Hints    []string   `json:"hints,omitempty"`
	Notes    []string   `json:"notes,omitempty"`
}

// New 使用错误码创建诊断，消息由错误码对应的 i18n 模板生成
func New(code string, span token.Span, args ...interface{}) *TypeError {
	info, ok := typeErrors[code]
	msg := ""
	if ok && info.MessageID != "" {
		msg = i18n.T(info.MessageID, args...)
	} else if len(args) > 0 {
		msg = fmt.Sprint(args...)
	}
	return &TypeError{
		Kind:    KindOf(code),
		Level:   LevelError,
		Code:    code,
		Message: msg,
		Span:    span,
	}
}

// Newf 创建通用诊断
func Newf(span token.Span, format string, args ...interface{}) *TypeError {
	return &TypeError{
		Kind:    KindGeneral,
		Level:   LevelError,
		Code:    T0001,
		Message: fmt.Sprintf(format, args...),
		Span:    span,
	}
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("%s: %s[%s]: %s", e.Span.Start, e.Level, e.Code, e.Message)
}

// WithTypes 记录期望类型与实际类型
func (e *TypeError) WithTypes(expected, actual string) *TypeError {
	e.Expected = expected
	e.Actual = actual
	return e
}

// WithHint 追加修复建议
func (e *TypeError) WithHint(hint string) *TypeError {
	if hint != "" {
		e.Hints = append(e.Hints, hint)
	}
	return e
}

// WithNote 追加说明
func (e *TypeError) WithNote(note string) *TypeError {
	e.Notes = append(e.Notes, note)
	return e
}

// AsWarning 降级为警告
func (e *TypeError) AsWarning() *TypeError {
	e.Level = LevelWarning
	return e
}

// Involves 判断诊断的期望或实际类型是否为给定名称
func (e *TypeError) Involves(typeName string) bool {
	return e.Expected == typeName || e.Actual == typeName
}

// SortByPosition 按源代码位置排序（稳定）
func SortByPosition(list []*TypeError) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i].Span.Start, list[j].Span.Start
		if a.Filename != b.Filename {
			return a.Filename < b.Filename
		}
		return a.Before(b)
	})
}
