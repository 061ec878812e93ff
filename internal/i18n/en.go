package i18n

var messagesEN = map[string]string{
	// ========== Lexer ==========
	ErrUnexpectedChar:      "unexpected character '%c'",
	ErrUnterminatedComment: "unterminated comment",
	ErrUnterminatedString:  "unterminated string",
	ErrInvalidNumber:       "invalid number: %s",

	// ========== Parser ==========
	ErrExpectedToken:       "expected %s, got %s",
	ErrUnexpectedToken:     "unexpected token: %s",
	ErrExpectedExpression:  "expected expression",
	ErrExpectedType:        "expected type",
	ErrExpectedIdentifier:  "expected identifier",
	ErrExpressionTooDeep:   "expression nested too deeply",
	ErrInvalidAssignTarget: "invalid assignment target",

	// ========== Inference ==========
	ErrSuperOutsideClass:     "%%Super used outside of an application class",
	ErrSuperNoBase:           "%%Super used in class '%s' which does not extend another class",
	ErrTypeMismatch:          "type mismatch: cannot assign %s to %s",
	ErrVoidAssignment:        "'%s' does not return a value",
	ErrArgCountMismatch:      "%s expects %s argument(s), got %d",
	ErrArgTypeMismatch:       "argument %d of %s: expected %s, got %s",
	ErrReturnTypeMismatch:    "cannot return %s from %s declared to return %s",
	ErrUnknownType:           "unknown type '%s'",
	ErrUnresolvableReference: "cannot resolve '%s'",
	ErrMemberNotFound:        "%s has no member '%s'",
	ErrMemberNotVisible:      "member '%s' of %s is %s",
	ErrUnimplementedAbstract: "class '%s' does not implement '%s' declared in '%s'",
	ErrCyclicInheritance:     "cyclic inheritance through '%s'",
	ErrInternalFault:         "internal inference fault: %v",
	ErrParseExternal:         "failed to parse '%s'",

	// ========== Report ==========
	MsgReportErrors:   "Errors (%d):",
	MsgReportWarnings: "Warnings (%d):",
	MsgReportSummary:  "%s mode: %d nodes analyzed, %d types inferred, %d unresolved, %d cache hits, %d external resolutions in %s",
	MsgReportTimedOut: "inference timed out; results are partial",
	MsgReportCanceled: "inference cancelled; results are partial",
	MsgReportClean:    "no problems found",

	// ========== Config ==========
	ErrConfigMode:     "inference.mode: unknown mode %q",
	ErrConfigTimeout:  "inference.timeout: must not be negative",
	ErrConfigLogLevel: "log.level: unknown level %q",
}
