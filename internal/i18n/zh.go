package i18n

var messagesZH = map[string]string{
	// ========== 词法分析器 ==========
	ErrUnexpectedChar:      "意外字符 '%c'",
	ErrUnterminatedComment: "未闭合的注释",
	ErrUnterminatedString:  "未闭合的字符串",
	ErrInvalidNumber:       "无效的数字: %s",

	// ========== 语法分析器 ==========
	ErrExpectedToken:       "期望 %s，实际为 %s",
	ErrUnexpectedToken:     "意外的 token: %s",
	ErrExpectedExpression:  "期望表达式",
	ErrExpectedType:        "期望类型",
	ErrExpectedIdentifier:  "期望标识符",
	ErrExpressionTooDeep:   "表达式嵌套过深",
	ErrInvalidAssignTarget: "无效的赋值目标",

	// ========== 类型推断 ==========
	ErrSuperOutsideClass:     "%%Super 只能在应用类中使用",
	ErrSuperNoBase:           "类 '%s' 没有基类，不能使用 %%Super",
	ErrTypeMismatch:          "类型不匹配: 不能将 %s 赋值给 %s",
	ErrVoidAssignment:        "'%s' 没有返回值",
	ErrArgCountMismatch:      "%s 需要 %s 个参数，实际传入 %d 个",
	ErrArgTypeMismatch:       "%[2]s 的第 %[1]d 个参数: 期望 %[3]s，实际为 %[4]s",
	ErrReturnTypeMismatch:    "不能从声明返回 %[3]s 的 %[2]s 中返回 %[1]s",
	ErrUnknownType:           "未知类型 '%s'",
	ErrUnresolvableReference: "无法解析 '%s'",
	ErrMemberNotFound:        "%s 没有成员 '%s'",
	ErrMemberNotVisible:      "%[2]s 的成员 '%[1]s' 是 %[3]s",
	ErrUnimplementedAbstract: "类 '%s' 没有实现 '%s' 中声明的 '%s'",
	ErrCyclicInheritance:     "经由 '%s' 的循环继承",
	ErrInternalFault:         "类型推断内部错误: %v",
	ErrParseExternal:         "解析 '%s' 失败",

	// ========== 报告 ==========
	MsgReportErrors:   "错误 (%d):",
	MsgReportWarnings: "警告 (%d):",
	MsgReportSummary:  "%s 模式: 分析 %d 个节点，推断 %d 个类型，%d 个未解析，缓存命中 %d 次，外部解析 %d 次，耗时 %s",
	MsgReportTimedOut: "类型推断超时，结果不完整",
	MsgReportCanceled: "类型推断已取消，结果不完整",
	MsgReportClean:    "未发现问题",

	// ========== 配置 ==========
	ErrConfigMode:     "inference.mode: 未知模式 %q",
	ErrConfigTimeout:  "inference.timeout: 不能为负数",
	ErrConfigLogLevel: "log.level: 未知级别 %q",
}
