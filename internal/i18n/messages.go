package i18n

// 消息 ID
const (
	// ========== Lexer ==========
	ErrUnexpectedChar      = "lexer.unexpected_char"
	ErrUnterminatedComment = "lexer.unterminated_comment"
	ErrUnterminatedString  = "lexer.unterminated_string"
	ErrInvalidNumber       = "lexer.invalid_number"

	// ========== Parser ==========
	ErrExpectedToken       = "parser.expected_token"
	ErrUnexpectedToken     = "parser.unexpected_token"
	ErrExpectedExpression  = "parser.expected_expression"
	ErrExpectedType        = "parser.expected_type"
	ErrExpectedIdentifier  = "parser.expected_identifier"
	ErrExpressionTooDeep   = "parser.expression_too_deep"
	ErrInvalidAssignTarget = "parser.invalid_assign_target"

	// ========== Inference ==========
	ErrSuperOutsideClass     = "infer.super_outside_class"
	ErrSuperNoBase           = "infer.super_no_base"
	ErrTypeMismatch          = "infer.type_mismatch"
	ErrVoidAssignment        = "infer.void_assignment"
	ErrArgCountMismatch      = "infer.arg_count_mismatch"
	ErrArgTypeMismatch       = "infer.arg_type_mismatch"
	ErrReturnTypeMismatch    = "infer.return_type_mismatch"
	ErrUnknownType           = "infer.unknown_type"
	ErrUnresolvableReference = "infer.unresolvable_reference"
	ErrMemberNotFound        = "infer.member_not_found"
	ErrMemberNotVisible      = "infer.member_not_visible"
	ErrUnimplementedAbstract = "infer.unimplemented_abstract"
	ErrCyclicInheritance     = "infer.cyclic_inheritance"
	ErrInternalFault         = "infer.internal_fault"
	ErrParseExternal         = "infer.parse_external"

	// ========== Report ==========
	MsgReportErrors   = "report.errors"
	MsgReportWarnings = "report.warnings"
	MsgReportSummary  = "report.summary"
	MsgReportTimedOut = "report.timed_out"
	MsgReportCanceled = "report.cancelled"
	MsgReportClean    = "report.clean"

	// ========== Config ==========
	ErrConfigMode     = "config.mode"
	ErrConfigTimeout  = "config.timeout"
	ErrConfigLogLevel = "config.log_level"
)
