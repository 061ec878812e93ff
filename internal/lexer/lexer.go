package lexer

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/tangzhangming/pcode/internal/i18n"
	"github.com/tangzhangming/pcode/internal/token"
)

// ============================================================================
// Lexer - 词法分析器
// ============================================================================
//
// 将 PeopleCode 源代码转换为 Token 序列。
//
// 与一般 C 系语言的区别：
// 1. 关键字与标识符不区分大小写
// 2. &name 为局部/全局变量，%name 为系统变量
// 3. 字符串内的引号通过重复引号转义（"a""b"）
// 4. 注释形式：/* */、<* *>（可嵌套）、/+ +/、// 以及 REM ...;
// 5. end-if、when-other 等关键字包含连字符
//
// ============================================================================

// Lexer 词法分析器结构体
type Lexer struct {
	source   string        // 源代码字符串
	filename string        // 源文件名（用于错误报告）
	tokens   []token.Token // 已扫描的 Token 列表

	start       int // 当前 Token 的起始位置（字节偏移）
	current     int // 当前扫描位置（字节偏移）
	line        int // 当前行号（从1开始）
	column      int // 当前列号（从1开始）
	startLine   int // 当前 Token 起始行
	startColumn int // 当前 Token 起始列

	errors []Error // 词法错误列表
}

// Error 表示词法分析错误
type Error struct {
	Pos     token.Position // 错误位置
	Message string         // 错误信息
}

func (e Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Message)
}

// New 创建一个新的词法分析器
func New(source, filename string) *Lexer {
	estimatedTokens := len(source) / 5
	if estimatedTokens < 16 {
		estimatedTokens = 16
	}

	return &Lexer{
		source:   source,
		filename: filename,
		tokens:   make([]token.Token, 0, estimatedTokens),
		line:     1,
		column:   1,
	}
}

// ScanTokens 扫描所有 tokens
//
// 最后一个 Token 总是 EOF。
func (l *Lexer) ScanTokens() []token.Token {
	for !l.isAtEnd() {
		l.markStart()
		l.scanToken()
	}

	l.markStart()
	l.tokens = append(l.tokens, token.Token{
		Type: token.EOF,
		Pos:  l.currentPos(),
	})

	return l.tokens
}

// Errors 返回所有词法错误
func (l *Lexer) Errors() []Error {
	return l.errors
}

// HasErrors 检查是否有错误
func (l *Lexer) HasErrors() bool {
	return len(l.errors) > 0
}

func (l *Lexer) markStart() {
	l.start = l.current
	l.startLine = l.line
	l.startColumn = l.column
}

// ============================================================================
// 核心扫描逻辑
// ============================================================================

func (l *Lexer) scanToken() {
	ch := l.advance()

	switch ch {
	case ' ', '\t', '\r':
		l.skipWhitespace()

	case '\n':
		l.newLine()
		l.skipWhitespace()

	case '(':
		l.addToken(token.LPAREN)
	case ')':
		l.addToken(token.RPAREN)
	case '[':
		l.addToken(token.LBRACKET)
	case ']':
		l.addToken(token.RBRACKET)
	case ',':
		l.addToken(token.COMMA)
	case ';':
		l.addToken(token.SEMICOLON)
	case ':':
		l.addToken(token.COLON)
	case '=':
		l.addToken(token.EQ)

	case '.':
		if isDigit(l.peek()) {
			l.number()
		} else {
			l.addToken(token.DOT)
		}

	case '+':
		if l.match('=') {
			l.addToken(token.PLUS_ASSIGN)
		} else if l.match('/') {
			// 孤立的 +/ 当作非法字符
			l.error(i18n.T(i18n.ErrUnexpectedChar, '+'))
		} else {
			l.addToken(token.PLUS)
		}

	case '-':
		if l.match('=') {
			l.addToken(token.MINUS_ASSIGN)
		} else {
			l.addToken(token.MINUS)
		}

	case '*':
		if l.match('*') {
			l.addToken(token.POWER)
		} else {
			l.addToken(token.STAR)
		}

	case '/':
		switch {
		case l.match('/'):
			l.lineComment()
		case l.match('*'):
			l.blockComment("*/", false)
		case l.match('+'):
			l.blockComment("+/", false)
		default:
			l.addToken(token.SLASH)
		}

	case '|':
		if l.match('=') {
			l.addToken(token.PIPE_ASSIGN)
		} else {
			l.addToken(token.PIPE)
		}

	case '<':
		switch {
		case l.match('*'):
			l.blockComment("*>", true)
		case l.match('='):
			l.addToken(token.LE)
		case l.match('>'):
			l.addToken(token.NE)
		default:
			l.addToken(token.LT)
		}

	case '>':
		if l.match('=') {
			l.addToken(token.GE)
		} else {
			l.addToken(token.GT)
		}

	case '!':
		if l.match('=') {
			l.addToken(token.NE)
		} else {
			l.error(i18n.T(i18n.ErrUnexpectedChar, ch))
		}

	case '"', '\'':
		l.string(ch)

	case '&':
		if isAlpha(l.peek()) {
			l.prefixed(token.VARIABLE)
		} else {
			l.error(i18n.T(i18n.ErrUnexpectedChar, ch))
		}

	case '%':
		if isAlpha(l.peek()) {
			l.prefixed(token.SYSVAR)
		} else {
			l.error(i18n.T(i18n.ErrUnexpectedChar, ch))
		}

	default:
		switch {
		case isDigit(ch):
			l.number()
		case isAlpha(ch):
			l.identifier()
		default:
			l.error(i18n.T(i18n.ErrUnexpectedChar, ch))
		}
	}
}

// skipWhitespace 批量跳过空白字符
func (l *Lexer) skipWhitespace() {
	for !l.isAtEnd() {
		switch l.peekByte() {
		case ' ', '\t', '\r':
			l.advanceByte()
		case '\n':
			l.advanceByte()
			l.newLine()
		default:
			return
		}
	}
}

// ============================================================================
// 注释处理
// ============================================================================

// lineComment 处理单行注释 //
func (l *Lexer) lineComment() {
	for !l.isAtEnd() && l.peekByte() != '\n' {
		l.advance()
	}
}

// blockComment 处理块注释，closer 为结束标记
//
// <* *> 允许嵌套，/* */ 与 /+ +/ 不允许。
func (l *Lexer) blockComment(closer string, nested bool) {
	depth := 1

	for depth > 0 && !l.isAtEnd() {
		if nested && l.peekByte() == '<' && l.peekNextByte() == '*' {
			l.advance()
			l.advance()
			depth++
			continue
		}
		if l.peekByte() == closer[0] && l.peekNextByte() == closer[1] {
			l.advance()
			l.advance()
			depth--
			continue
		}
		if l.peekByte() == '\n' {
			l.advance()
			l.newLine()
			continue
		}
		l.advance()
	}

	if depth > 0 {
		l.error(i18n.T(i18n.ErrUnterminatedComment))
	}
}

// remComment 处理 REM 注释，直到分号（含）为止
func (l *Lexer) remComment() {
	for !l.isAtEnd() && l.peekByte() != ';' {
		if l.peekByte() == '\n' {
			l.advance()
			l.newLine()
			continue
		}
		l.advance()
	}
	if l.isAtEnd() {
		l.error(i18n.T(i18n.ErrUnterminatedComment))
		return
	}
	l.advance()
}

// ============================================================================
// 字面量
// ============================================================================

// string 处理字符串字面量，重复的引号表示引号本身
func (l *Lexer) string(quote rune) {
	startOffset := l.current
	q := byte(quote)

	// 快速路径：没有转义时直接切片
	for !l.isAtEnd() {
		b := l.peekByte()
		if b == q {
			if l.peekNextByte() == q {
				break
			}
			value := l.source[startOffset:l.current]
			l.advance()
			l.addTokenWithValue(token.STRING, value)
			return
		}
		if b == '\n' {
			l.advance()
			l.newLine()
			continue
		}
		l.advance()
	}

	if l.isAtEnd() {
		l.error(i18n.T(i18n.ErrUnterminatedString))
		return
	}

	// 慢速路径
	var sb strings.Builder
	sb.WriteString(l.source[startOffset:l.current])
	for !l.isAtEnd() {
		b := l.peekByte()
		if b == q {
			if l.peekNextByte() == q {
				l.advance()
				l.advance()
				sb.WriteByte(q)
				continue
			}
			l.advance()
			l.addTokenWithValue(token.STRING, sb.String())
			return
		}
		r := l.advance()
		if r == '\n' {
			l.newLine()
		}
		sb.WriteRune(r)
	}

	l.error(i18n.T(i18n.ErrUnterminatedString))
}

// number 处理整数和小数
func (l *Lexer) number() {
	for isDigit(l.peek()) {
		l.advance()
	}

	isDecimal := strings.HasPrefix(l.source[l.start:], ".")
	if !isDecimal && l.peekByte() == '.' && isDigit(l.peekNextRune()) {
		isDecimal = true
		l.advance()
		for isDigit(l.peek()) {
			l.advance()
		}
	}

	text := l.source[l.start:l.current]
	if isDecimal {
		value, err := strconv.ParseFloat(text, 64)
		if err != nil {
			l.error(i18n.T(i18n.ErrInvalidNumber, text))
			return
		}
		l.addTokenWithValue(token.NUMBER, value)
		return
	}

	value, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		// 超出 int64 范围时按小数处理
		f, ferr := strconv.ParseFloat(text, 64)
		if ferr != nil {
			l.error(i18n.T(i18n.ErrInvalidNumber, text))
			return
		}
		l.addTokenWithValue(token.NUMBER, f)
		return
	}
	l.addTokenWithValue(token.INT, value)
}

// prefixed 处理 &变量 与 %系统变量
func (l *Lexer) prefixed(tokenType token.TokenType) {
	for isIdentPart(l.peek()) {
		l.advance()
	}
	l.addToken(tokenType)
}

// identifier 处理标识符和关键字
func (l *Lexer) identifier() {
	for isIdentPart(l.peek()) {
		l.advance()
	}

	text := l.source[l.start:l.current]
	lower := strings.ToLower(text)

	if lower == "rem" && (l.isAtEnd() || isSpace(l.peekByte()) || l.peekByte() == ';') {
		l.remComment()
		return
	}

	// end-if / when-other 之类的连字符关键字
	if (lower == "end" || lower == "when") && l.peekByte() == '-' && isAlpha(l.peekNextRune()) {
		end := l.current + 1
		for end < len(l.source) && isIdentPart(rune(l.source[end])) {
			end++
		}
		if tt := token.LookupIdent(l.source[l.start:end]); tt != token.IDENT {
			for l.current < end {
				l.advanceByte()
			}
			l.addToken(tt)
			return
		}
	}

	l.addToken(token.LookupIdent(text))
}

// ============================================================================
// 底层字符操作
// ============================================================================

func (l *Lexer) isAtEnd() bool {
	return l.current >= len(l.source)
}

// advance 前进一个字符并返回它
func (l *Lexer) advance() rune {
	if l.current >= len(l.source) {
		return 0
	}

	b := l.source[l.current]
	if b < utf8.RuneSelf {
		l.current++
		l.column++
		return rune(b)
	}

	r, size := utf8.DecodeRuneInString(l.source[l.current:])
	l.current += size
	l.column++
	return r
}

// advanceByte 前进一个字节（仅用于已知是 ASCII 的情况）
func (l *Lexer) advanceByte() {
	l.current++
	l.column++
}

func (l *Lexer) peek() rune {
	if l.current >= len(l.source) {
		return 0
	}
	b := l.source[l.current]
	if b < utf8.RuneSelf {
		return rune(b)
	}
	r, _ := utf8.DecodeRuneInString(l.source[l.current:])
	return r
}

func (l *Lexer) peekByte() byte {
	if l.current >= len(l.source) {
		return 0
	}
	return l.source[l.current]
}

func (l *Lexer) peekNextByte() byte {
	if l.current+1 >= len(l.source) {
		return 0
	}
	return l.source[l.current+1]
}

func (l *Lexer) peekNextRune() rune {
	if l.current+1 >= len(l.source) {
		return 0
	}
	b := l.source[l.current+1]
	if b < utf8.RuneSelf {
		return rune(b)
	}
	r, _ := utf8.DecodeRuneInString(l.source[l.current+1:])
	return r
}

// match 如果当前字符匹配则前进
func (l *Lexer) match(expected rune) bool {
	if l.current >= len(l.source) {
		return false
	}
	b := l.source[l.current]
	if b < utf8.RuneSelf {
		if rune(b) != expected {
			return false
		}
		l.current++
		l.column++
		return true
	}
	r, size := utf8.DecodeRuneInString(l.source[l.current:])
	if r != expected {
		return false
	}
	l.current += size
	l.column++
	return true
}

// ============================================================================
// 位置追踪
// ============================================================================

func (l *Lexer) newLine() {
	l.line++
	l.column = 1
}

// currentPos 获取当前 token 的起始位置
func (l *Lexer) currentPos() token.Position {
	return token.Position{
		Filename: l.filename,
		Line:     l.startLine,
		Column:   l.startColumn,
		Offset:   l.start,
	}
}

// ============================================================================
// Token 生成
// ============================================================================

func (l *Lexer) addToken(tokenType token.TokenType) {
	l.tokens = append(l.tokens, token.Token{
		Type:    tokenType,
		Literal: l.source[l.start:l.current],
		Pos:     l.currentPos(),
	})
}

func (l *Lexer) addTokenWithValue(tokenType token.TokenType, value interface{}) {
	l.tokens = append(l.tokens, token.Token{
		Type:    tokenType,
		Literal: l.source[l.start:l.current],
		Value:   value,
		Pos:     l.currentPos(),
	})
}

// error 记录一个词法错误并生成 ILLEGAL token
func (l *Lexer) error(message string) {
	l.errors = append(l.errors, Error{
		Pos:     l.currentPos(),
		Message: message,
	})
	l.addToken(token.ILLEGAL)
}

// ============================================================================
// 字符分类函数
// ============================================================================

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\n'
}

func isAlpha(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') ||
		(ch >= 'A' && ch <= 'Z') ||
		ch == '_' ||
		unicode.IsLetter(ch)
}

// isIdentPart 标识符后续字符，记录/字段名允许 # 和 $
func isIdentPart(ch rune) bool {
	return isAlpha(ch) || isDigit(ch) || ch == '#' || ch == '$'
}
