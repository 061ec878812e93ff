package lsp

import (
	"strings"
	"sync"

	"go.lsp.dev/protocol"

	"github.com/tangzhangming/pcode/internal/ast"
	"github.com/tangzhangming/pcode/internal/inference"
	"github.com/tangzhangming/pcode/internal/parser"
	"github.com/tangzhangming/pcode/internal/token"
)

// Document 表示一个打开的文档
type Document struct {
	URI     string
	Path    string
	Content string
	Version int
	Lines   []string // 按行分割的内容

	// Name 程序限定名，不在源码目录中时为空
	Name string

	// 缓存的解析与推断结果
	Program   *ast.Program
	ParseErrs []parser.Error
	Result    *inference.Result

	// 是否需要重新解析
	dirty bool
}

// DocumentManager 文档管理器
type DocumentManager struct {
	documents map[string]*Document
	mu        sync.RWMutex
}

// NewDocumentManager 创建文档管理器
func NewDocumentManager() *DocumentManager {
	return &DocumentManager{
		documents: make(map[string]*Document),
	}
}

// Open 打开文档
func (dm *DocumentManager) Open(uri, content string, version int) *Document {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	doc := &Document{
		URI:     uri,
		Path:    uriToPath(uri),
		Content: content,
		Version: version,
		Lines:   splitLines(content),
		dirty:   true,
	}
	doc.parse()

	dm.documents[uri] = doc
	return doc
}

// Close 关闭文档，返回被关闭的文档
func (dm *DocumentManager) Close(uri string) *Document {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	doc := dm.documents[uri]
	delete(dm.documents, uri)
	return doc
}

// Get 获取文档
func (dm *DocumentManager) Get(uri string) *Document {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return dm.documents[uri]
}

// UpdateContent 整体替换文档内容
func (dm *DocumentManager) UpdateContent(uri, content string) *Document {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	doc, ok := dm.documents[uri]
	if !ok {
		return nil
	}
	if doc.Content == content {
		return doc
	}

	doc.Content = content
	doc.Lines = splitLines(content)
	doc.Version++
	doc.dirty = true
	doc.parse()
	return doc
}

// ApplyChanges 依次应用一组变更
func (dm *DocumentManager) ApplyChanges(uri string, changes []protocol.TextDocumentContentChangeEvent, version int) *Document {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	doc, ok := dm.documents[uri]
	if !ok {
		return nil
	}

	for _, change := range changes {
		// range 省略时新文本是文档的完整内容
		if isFullReplace(change) {
			doc.Content = change.Text
		} else {
			doc.Content = applyTextEdit(doc.Content, change.Range, change.Text)
		}
	}
	doc.Lines = splitLines(doc.Content)
	doc.Version = version
	doc.dirty = true
	doc.parse()
	return doc
}

// GetAll 获取所有文档
func (dm *DocumentManager) GetAll() []*Document {
	dm.mu.RLock()
	defer dm.mu.RUnlock()

	docs := make([]*Document, 0, len(dm.documents))
	for _, doc := range dm.documents {
		docs = append(docs, doc)
	}
	return docs
}

// maxDocumentSize 文档大小限制（500KB）
const maxDocumentSize = 500 * 1024

// parse 解析文档；推断结果随之失效
func (doc *Document) parse() {
	if !doc.dirty {
		return
	}
	doc.Result = nil
	doc.dirty = false

	if len(doc.Content) > maxDocumentSize {
		doc.Program = nil
		doc.ParseErrs = []parser.Error{{
			Pos:     token.Position{Filename: doc.Path, Line: 1, Column: 1},
			Message: "document too large to parse",
		}}
		return
	}

	p := parser.New(doc.Content, doc.Path)
	doc.Program = p.Parse()
	doc.ParseErrs = p.Errors()
}

// GetLine 获取指定行内容（行号从 0 开始）
func (doc *Document) GetLine(line int) string {
	if line < 0 || line >= len(doc.Lines) {
		return ""
	}
	return doc.Lines[line]
}

// GetWordRangeAt 获取指定位置的单词及其范围
func (doc *Document) GetWordRangeAt(line, character int) (word string, startCol, endCol int) {
	lineText := doc.GetLine(line)
	if character < 0 || character > len(lineText) {
		return "", 0, 0
	}

	start := character
	for start > 0 && isWordChar(lineText[start-1]) {
		start--
	}
	end := character
	for end < len(lineText) && isWordChar(lineText[end]) {
		end++
	}
	return lineText[start:end], start, end
}

// splitLines 将内容按行分割
func splitLines(content string) []string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	return strings.Split(content, "\n")
}

func isFullReplace(change protocol.TextDocumentContentChangeEvent) bool {
	return change.Range.Start.Line == 0 &&
		change.Range.Start.Character == 0 &&
		change.Range.End.Line == 0 &&
		change.Range.End.Character == 0 &&
		change.RangeLength == 0
}

// applyTextEdit 应用文本编辑
func applyTextEdit(content string, rang protocol.Range, newText string) string {
	lines := splitLines(content)

	startLine := clamp(int(rang.Start.Line), 0, len(lines)-1)
	endLine := clamp(int(rang.End.Line), 0, len(lines)-1)
	startLineText := lines[startLine]
	endLineText := lines[endLine]
	startChar := clamp(int(rang.Start.Character), 0, len(startLineText))
	endChar := clamp(int(rang.End.Character), 0, len(endLineText))

	var result strings.Builder
	for i := 0; i < startLine; i++ {
		result.WriteString(lines[i])
		result.WriteString("\n")
	}
	result.WriteString(startLineText[:startChar])
	result.WriteString(newText)
	result.WriteString(endLineText[endChar:])
	for i := endLine + 1; i < len(lines); i++ {
		result.WriteString("\n")
		result.WriteString(lines[i])
	}
	return result.String()
}

func clamp(v, lo, hi int) int {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}

// isWordChar 判断是否是单词字符；& 与 % 是变量和系统变量的前缀
func isWordChar(c byte) bool {
	return (c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') ||
		c == '_' || c == '&' || c == '%'
}
