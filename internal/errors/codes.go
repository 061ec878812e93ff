// Package errors 提供类型推断的诊断模型：错误种类、错误码、报告与格式化
package errors

import "github.com/tangzhangming/pcode/internal/i18n"

// ============================================================================
// 错误级别
// ============================================================================

// Level 错误级别
type Level int

const (
	LevelError   Level = iota // 错误
	LevelWarning              // 警告
	LevelNote                 // 提示
	LevelHelp                 // 帮助
)

func (l Level) String() string {
	switch l {
	case LevelError:
		return "error"
	case LevelWarning:
		return "warning"
	case LevelNote:
		return "note"
	case LevelHelp:
		return "help"
	default:
		return "unknown"
	}
}

// MarshalText 以名称形式序列化
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// ============================================================================
// 错误种类（封闭集合）
// ============================================================================

// Kind 类型诊断的种类
type Kind int

const (
	KindGeneral Kind = iota
	KindTypeMismatch
	KindVoidAssignment
	KindArgumentCountMismatch
	KindUnknownType
	KindUnresolvableReference
)

var kindNames = [...]string{
	KindGeneral:               "General",
	KindTypeMismatch:          "TypeMismatch",
	KindVoidAssignment:        "VoidAssignment",
	KindArgumentCountMismatch: "ArgumentCountMismatch",
	KindUnknownType:           "UnknownType",
	KindUnresolvableReference: "UnresolvableReference",
}

func (k Kind) String() string {
	if int(k) >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "General"
}

// MarshalText 以名称形式序列化
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// ============================================================================
// 错误码
// ============================================================================

const (
	// S0001-S0099: 词法/语法错误
	S0001 = "S0001" // 语法错误
	S0002 = "S0002" // 词法错误

	// T0001-T0099: 通用
	T0001 = "T0001" // 通用错误
	T0002 = "T0002" // 未实现的抽象成员
	T0090 = "T0090" // 推断内部错误

	// T0100-T0199: 类型不匹配
	T0100 = "T0100" // 赋值类型不匹配
	T0101 = "T0101" // 参数类型不匹配
	T0102 = "T0102" // 返回类型不匹配

	// T0200-T0299: void 赋值
	T0200 = "T0200" // 使用没有返回值的调用

	// T0300-T0399: 参数数量
	T0300 = "T0300" // 参数数量不匹配

	// T0400-T0499: 未知类型
	T0400 = "T0400" // 未知类型
	T0401 = "T0401" // %Super 所在类没有基类
	T0402 = "T0402" // %Super 在类外使用

	// T0500-T0599: 无法解析的引用
	T0500 = "T0500" // 无法解析的引用
	T0501 = "T0501" // 成员不存在
	T0502 = "T0502" // 成员不可见
	T0503 = "T0503" // 循环继承
)

// ErrorInfo 错误码信息
type ErrorInfo struct {
	Code      string // 错误码
	Kind      Kind   // 错误种类
	MessageID string // i18n 消息 ID
}

var typeErrors = map[string]ErrorInfo{
	S0001: {S0001, KindGeneral, i18n.ErrUnexpectedToken},
	S0002: {S0002, KindGeneral, i18n.ErrUnexpectedChar},

	T0001: {T0001, KindGeneral, ""},
	T0002: {T0002, KindGeneral, i18n.ErrUnimplementedAbstract},
	T0090: {T0090, KindGeneral, i18n.ErrInternalFault},

	T0100: {T0100, KindTypeMismatch, i18n.ErrTypeMismatch},
	T0101: {T0101, KindTypeMismatch, i18n.ErrArgTypeMismatch},
	T0102: {T0102, KindTypeMismatch, i18n.ErrReturnTypeMismatch},

	T0200: {T0200, KindVoidAssignment, i18n.ErrVoidAssignment},

	T0300: {T0300, KindArgumentCountMismatch, i18n.ErrArgCountMismatch},

	T0400: {T0400, KindUnknownType, i18n.ErrUnknownType},
	T0401: {T0401, KindUnknownType, i18n.ErrSuperNoBase},
	T0402: {T0402, KindUnknownType, i18n.ErrSuperOutsideClass},

	T0500: {T0500, KindUnresolvableReference, i18n.ErrUnresolvableReference},
	T0501: {T0501, KindUnresolvableReference, i18n.ErrMemberNotFound},
	T0502: {T0502, KindUnresolvableReference, i18n.ErrMemberNotVisible},
	T0503: {T0503, KindUnresolvableReference, i18n.ErrCyclicInheritance},
}

// GetErrorInfo 获取错误码信息
func GetErrorInfo(code string) (ErrorInfo, bool) {
	info, ok := typeErrors[code]
	return info, ok
}

// KindOf 返回错误码对应的种类，未知错误码归为 General
func KindOf(code string) Kind {
	if info, ok := typeErrors[code]; ok {
		return info.Kind
	}
	return KindGeneral
}
