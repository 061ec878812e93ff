// Package lsp 基于标准输入输出的语言服务器：诊断与类型悬停
package lsp

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/segmentio/encoding/json"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"
	"go.uber.org/zap"
)

// Version 服务器版本
const Version = "0.1.0"

// maxMessageSize 单条消息体的上限
const maxMessageSize = 16 << 20

// JSON-RPC 错误码
const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
)

// Server LSP 服务器
type Server struct {
	// 文档管理
	documents *DocumentManager

	// 工作区
	workspace     *Workspace
	workspaceRoot string

	logger *zap.Logger
	ctx    context.Context

	// 输入输出
	reader *bufio.Reader
	writer io.Writer
	mu     sync.Mutex

	// 服务器状态
	initialized bool
	shutdown    bool
}

// NewServer 创建 LSP 服务器
func NewServer(in io.Reader, out io.Writer, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		documents: NewDocumentManager(),
		logger:    logger,
		ctx:       context.Background(),
		reader:    bufio.NewReader(in),
		writer:    out,
	}
}

// Run 启动 LSP 服务器主循环
func (s *Server) Run(ctx context.Context) error {
	s.ctx = ctx
	s.logger.Info("pcode language server started", zap.String("version", Version))
	defer s.closeWorkspace()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		msg, err := s.readMessage()
		if err != nil {
			if err == io.EOF {
				s.logger.Info("client disconnected")
				return nil
			}
			s.logger.Warn("error reading message", zap.Error(err))
			continue
		}

		s.handleMessage(msg)

		if s.shutdown {
			s.logger.Info("server shutdown")
			return nil
		}
	}
}

// readMessage 读取 LSP 消息
func (s *Server) readMessage() ([]byte, error) {
	var contentLength int
	for {
		line, err := s.reader.ReadString('\n')
		if err != nil {
			return nil, err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			break
		}

		if strings.HasPrefix(line, "Content-Length:") {
			lengthStr := strings.TrimSpace(strings.TrimPrefix(line, "Content-Length:"))
			contentLength, err = strconv.Atoi(lengthStr)
			if err != nil {
				return nil, fmt.Errorf("invalid Content-Length: %s", lengthStr)
			}
		}
	}

	switch {
	case contentLength == 0:
		return nil, fmt.Errorf("missing Content-Length header")
	case contentLength < 0 || contentLength > maxMessageSize:
		return nil, fmt.Errorf("invalid Content-Length: %d", contentLength)
	}

	content := make([]byte, contentLength)
	if _, err := io.ReadFull(s.reader, content); err != nil {
		return nil, err
	}

	s.logger.Debug("received", zap.ByteString("message", content))
	return content, nil
}

// sendMessage 发送 LSP 消息
func (s *Server) sendMessage(msg interface{}) {
	content, err := json.Marshal(msg)
	if err != nil {
		s.logger.Error("failed to encode message", zap.Error(err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Debug("sending", zap.ByteString("message", content))
	header := fmt.Sprintf("Content-Length: %d\r\n\r\n", len(content))
	if _, err := io.WriteString(s.writer, header); err != nil {
		s.logger.Warn("failed to write message", zap.Error(err))
		return
	}
	if _, err := s.writer.Write(content); err != nil {
		s.logger.Warn("failed to write message", zap.Error(err))
	}
}

// handleMessage 处理收到的消息
func (s *Server) handleMessage(msg []byte) {
	var baseMsg struct {
		JSONRPC string          `json:"jsonrpc"`
		ID      json.RawMessage `json:"id,omitempty"`
		Method  string          `json:"method"`
		Params  json.RawMessage `json:"params,omitempty"`
	}

	if err := json.Unmarshal(msg, &baseMsg); err != nil {
		s.logger.Warn("error parsing message", zap.Error(err))
		return
	}

	switch baseMsg.Method {
	case "initialize":
		s.handleInitialize(baseMsg.ID, baseMsg.Params)
	case "initialized":
		s.handleInitialized()
	case "shutdown":
		s.handleShutdown(baseMsg.ID)
	case "exit":
		s.handleExit()
	case "textDocument/didOpen":
		s.handleDidOpen(baseMsg.Params)
	case "textDocument/didChange":
		s.handleDidChange(baseMsg.Params)
	case "textDocument/didClose":
		s.handleDidClose(baseMsg.Params)
	case "textDocument/didSave":
		s.handleDidSave(baseMsg.Params)
	case "textDocument/hover":
		s.handleHover(baseMsg.ID, baseMsg.Params)
	case "workspace/didChangeWatchedFiles":
		s.handleDidChangeWatchedFiles(baseMsg.Params)
	case "$/cancelRequest":
		// 请求按顺序同步处理，到达时已经完成
	default:
		s.logger.Debug("unknown method", zap.String("method", baseMsg.Method))
		if baseMsg.ID != nil {
			s.sendError(baseMsg.ID, codeMethodNotFound, "Method not found: "+baseMsg.Method)
		}
	}
}

// handleInitialize 处理初始化请求
func (s *Server) handleInitialize(id json.RawMessage, params json.RawMessage) {
	var initParams protocol.InitializeParams
	if err := json.Unmarshal(params, &initParams); err != nil {
		s.sendError(id, codeParseError, "Parse error")
		return
	}

	if initParams.RootURI != "" {
		s.workspaceRoot = uriToPath(string(initParams.RootURI))
	}
	s.logger.Info("initialize", zap.String("workspace", s.workspaceRoot))
	s.openWorkspace()

	result := map[string]interface{}{
		"capabilities": map[string]interface{}{
			// 文档同步：增量同步
			"textDocumentSync": map[string]interface{}{
				"openClose": true,
				"change":    protocol.TextDocumentSyncKindIncremental,
				"save": map[string]interface{}{
					"includeText": true,
				},
			},
			"hoverProvider": true,
		},
		"serverInfo": map[string]interface{}{
			"name":    "pcodels",
			"version": Version,
		},
	}
	s.sendResult(id, result)
}

// handleInitialized 处理初始化完成通知
func (s *Server) handleInitialized() {
	s.initialized = true
	s.logger.Info("server initialized")
}

// handleShutdown 处理关闭请求
func (s *Server) handleShutdown(id json.RawMessage) {
	s.logger.Info("shutdown requested")
	s.closeWorkspace()
	s.sendResult(id, nil)
}

// handleExit 处理退出通知
func (s *Server) handleExit() {
	s.shutdown = true
}

// handleDidOpen 处理文档打开
func (s *Server) handleDidOpen(params json.RawMessage) {
	var p protocol.DidOpenTextDocumentParams
	if err := json.Unmarshal(params, &p); err != nil {
		s.logger.Warn("error parsing didOpen params", zap.Error(err))
		return
	}

	docURI := string(p.TextDocument.URI)
	s.logger.Debug("document opened", zap.String("uri", docURI))

	doc := s.documents.Open(docURI, p.TextDocument.Text, int(p.TextDocument.Version))
	s.refresh(doc)
}

// handleDidChange 处理文档变更
func (s *Server) handleDidChange(params json.RawMessage) {
	var p protocol.DidChangeTextDocumentParams
	if err := json.Unmarshal(params, &p); err != nil {
		s.logger.Warn("error parsing didChange params", zap.Error(err))
		return
	}

	doc := s.documents.ApplyChanges(string(p.TextDocument.URI), p.ContentChanges, int(p.TextDocument.Version))
	if doc != nil {
		s.refresh(doc)
	}
}

// handleDidClose 处理文档关闭
func (s *Server) handleDidClose(params json.RawMessage) {
	var p protocol.DidCloseTextDocumentParams
	if err := json.Unmarshal(params, &p); err != nil {
		s.logger.Warn("error parsing didClose params", zap.Error(err))
		return
	}

	docURI := string(p.TextDocument.URI)
	s.logger.Debug("document closed", zap.String("uri", docURI))

	doc := s.documents.Close(docURI)
	if doc != nil && doc.Name != "" {
		s.ensureWorkspace().Release(doc)
		s.reanalyze(nil)
	}

	// 清除诊断
	s.sendNotification("textDocument/publishDiagnostics", protocol.PublishDiagnosticsParams{
		URI:         p.TextDocument.URI,
		Diagnostics: []protocol.Diagnostic{},
	})
}

// handleDidSave 处理文档保存
func (s *Server) handleDidSave(params json.RawMessage) {
	var p protocol.DidSaveTextDocumentParams
	if err := json.Unmarshal(params, &p); err != nil {
		s.logger.Warn("error parsing didSave params", zap.Error(err))
		return
	}

	docURI := string(p.TextDocument.URI)
	doc := s.documents.Get(docURI)
	if p.Text != "" {
		doc = s.documents.UpdateContent(docURI, p.Text)
	}
	if doc != nil {
		s.refresh(doc)
	}
}

// handleDidChangeWatchedFiles 磁盘上的源码或配置文件变化
func (s *Server) handleDidChangeWatchedFiles(params json.RawMessage) {
	var p protocol.DidChangeWatchedFilesParams
	if err := json.Unmarshal(params, &p); err != nil {
		s.logger.Warn("error parsing didChangeWatchedFiles params", zap.Error(err))
		return
	}

	ws := s.ensureWorkspace()
	affected := false
	for _, change := range p.Changes {
		path := uriToPath(string(change.URI))
		if ws.IsConfigFile(path) {
			s.logger.Info("configuration changed, reloading workspace", zap.String("path", path))
			s.closeWorkspace()
			ws = s.ensureWorkspace()
			for _, doc := range s.documents.GetAll() {
				doc.Name = ws.NameOf(doc.Path)
				ws.Sync(s.ctx, doc)
			}
			affected = true
			continue
		}
		if ws.FileChanged(path) {
			affected = true
		}
	}
	if affected {
		s.reanalyze(nil)
	}
}

// refresh 同步文档到工作区并发布诊断
//
// 文档中的类发生变化时，其他打开的文档可能依赖它，一并重新推断。
func (s *Server) refresh(doc *Document) {
	ws := s.ensureWorkspace()
	doc.Name = ws.NameOf(doc.Path)
	changed := ws.Sync(s.ctx, doc)

	ws.Analyze(s.ctx, doc)
	s.publishDiagnostics(doc)

	if changed {
		s.reanalyze(doc)
	}
}

// reanalyze 重新推断除 except 以外的所有打开文档
func (s *Server) reanalyze(except *Document) {
	ws := s.ensureWorkspace()
	for _, doc := range s.documents.GetAll() {
		if doc == except {
			continue
		}
		ws.Analyze(s.ctx, doc)
		s.publishDiagnostics(doc)
	}
}

// publishDiagnostics 发布诊断信息
func (s *Server) publishDiagnostics(doc *Document) {
	s.sendNotification("textDocument/publishDiagnostics", protocol.PublishDiagnosticsParams{
		URI:         protocol.DocumentURI(doc.URI),
		Version:     uint32(doc.Version),
		Diagnostics: s.getDiagnostics(doc),
	})
}

// openWorkspace 打开工作区；配置无效时退回默认配置
func (s *Server) openWorkspace() {
	ws, err := OpenWorkspace(s.ctx, s.workspaceRoot, s.logger)
	if err != nil {
		s.logger.Error("failed to open workspace, using defaults", zap.String("root", s.workspaceRoot), zap.Error(err))
		s.showMessage(protocol.MessageTypeError, fmt.Sprintf("pcode: %v", err))
		ws, err = OpenWorkspace(s.ctx, "", s.logger)
		if err != nil {
			s.logger.Error("failed to open default workspace", zap.Error(err))
			return
		}
	}
	s.workspace = ws
}

func (s *Server) ensureWorkspace() *Workspace {
	if s.workspace == nil {
		s.openWorkspace()
	}
	return s.workspace
}

func (s *Server) closeWorkspace() {
	if s.workspace == nil {
		return
	}
	if err := s.workspace.Close(); err != nil {
		s.logger.Warn("failed to close workspace", zap.Error(err))
	}
	s.workspace = nil
}

// showMessage 在客户端显示一条消息
func (s *Server) showMessage(typ protocol.MessageType, message string) {
	s.sendNotification("window/showMessage", protocol.ShowMessageParams{
		Type:    typ,
		Message: message,
	})
}

// sendResult 发送成功响应
func (s *Server) sendResult(id json.RawMessage, result interface{}) {
	response := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      id,
		"result":  result,
	}
	s.sendMessage(response)
}

// sendError 发送错误响应
func (s *Server) sendError(id json.RawMessage, code int, message string) {
	response := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      id,
		"error": map[string]interface{}{
			"code":    code,
			"message": message,
		},
	}
	s.sendMessage(response)
}

// sendNotification 发送通知
func (s *Server) sendNotification(method string, params interface{}) {
	notification := map[string]interface{}{
		"jsonrpc": "2.0",
		"method":  method,
		"params":  params,
	}
	s.sendMessage(notification)
}

// uriToPath 将 URI 转换为文件路径
func uriToPath(docURI string) string {
	if !strings.HasPrefix(docURI, "file:") {
		return docURI
	}
	u, err := uri.Parse(docURI)
	if err != nil {
		return docURI
	}
	return u.Filename()
}
