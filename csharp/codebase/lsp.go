package codebase

import (
	"context"
	"net/url"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	_ "github.com/tliron/commonlog/simple"

	"github.com/dhamidi/sharp/csharp/parser"
)

const lsName = "sharp"

var lspLog = commonlog.GetLogger("sharp.lsp")

type LSPServer struct {
	codebase *Codebase
	config   Config
	handler  protocol.Handler
	server   *server.Server
	version  string
}

func NewLSPServer(version string, cfg Config) *LSPServer {
	ls := &LSPServer{
		version: version,
		config:  cfg,
	}

	ls.handler = protocol.Handler{
		Initialize:                 ls.initialize,
		Initialized:                ls.initialized,
		Shutdown:                   ls.shutdown,
		SetTrace:                   ls.setTrace,
		TextDocumentDidOpen:        ls.textDocumentDidOpen,
		TextDocumentDidChange:      ls.textDocumentDidChange,
		TextDocumentDidClose:       ls.textDocumentDidClose,
		TextDocumentDidSave:        ls.textDocumentDidSave,
		TextDocumentDocumentSymbol: ls.textDocumentDocumentSymbol,
	}

	ls.server = server.NewServer(&ls.handler, lsName, false)

	return ls
}

func (ls *LSPServer) RunStdio() error {
	return ls.server.RunStdio()
}

func (ls *LSPServer) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	rootDir := "."
	if params.RootPath != nil && *params.RootPath != "" {
		rootDir = *params.RootPath
	} else if params.RootURI != nil && *params.RootURI != "" {
		if path, err := uriToPath(*params.RootURI); err == nil {
			rootDir = path
		}
	}

	ls.codebase = New(rootDir, ls.config)
	lspLog.Infof("initialize %s", rootDir)

	capabilities := ls.handler.CreateServerCapabilities()

	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    syncKindPtr(protocol.TextDocumentSyncKindFull),
		Save: &protocol.SaveOptions{
			IncludeText: boolPtr(true),
		},
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lsName,
			Version: &ls.version,
		},
	}, nil
}

func (ls *LSPServer) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	if err := ls.codebase.ScanAll(context.Background()); err != nil {
		lspLog.Errorf("scan %s: %s", ls.codebase.RootDir(), err)
	}
	return nil
}

func (ls *LSPServer) shutdown(ctx *glsp.Context) error {
	return nil
}

func (ls *LSPServer) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (ls *LSPServer) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil
	}
	info := ls.codebase.UpdateFile(path, []byte(params.TextDocument.Text))
	ls.publish(ctx, params.TextDocument.URI, info)
	return nil
}

func (ls *LSPServer) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil
	}
	if len(params.ContentChanges) > 0 {
		change := params.ContentChanges[len(params.ContentChanges)-1]
		if textChange, ok := change.(protocol.TextDocumentContentChangeEventWhole); ok {
			info := ls.codebase.UpdateFile(path, []byte(textChange.Text))
			ls.publish(ctx, params.TextDocument.URI, info)
		}
	}
	return nil
}

func (ls *LSPServer) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	return nil
}

func (ls *LSPServer) textDocumentDidSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil
	}
	var info *FileInfo
	if params.Text != nil {
		info = ls.codebase.UpdateFile(path, []byte(*params.Text))
	} else if info, err = ls.codebase.ScanFile(path); err != nil {
		lspLog.Warningf("%s", err)
		return nil
	}
	ls.publish(ctx, params.TextDocument.URI, info)
	return nil
}

func (ls *LSPServer) textDocumentDocumentSymbol(ctx *glsp.Context, params *protocol.DocumentSymbolParams) (any, error) {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil, nil
	}
	info := ls.codebase.GetFile(path)
	if info == nil {
		if info, err = ls.codebase.ScanFile(path); err != nil {
			return nil, nil
		}
	}
	return toDocumentSymbols(info.Content, info.Symbols), nil
}

func (ls *LSPServer) publish(ctx *glsp.Context, uri protocol.DocumentUri, info *FileInfo) {
	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: toProtocolDiagnostics(info.Content, info.Diagnostics),
	})
}

func toProtocolDiagnostics(content []byte, diags []parser.Diagnostic) []protocol.Diagnostic {
	source := lsName
	out := make([]protocol.Diagnostic, 0, len(diags))
	for _, d := range diags {
		severity := toProtocolSeverity(d.Severity)
		out = append(out, protocol.Diagnostic{
			Range:    toRange(content, d.Span),
			Severity: &severity,
			Code:     &protocol.IntegerOrString{Value: d.Code},
			Source:   &source,
			Message:  d.Message,
		})
	}
	return out
}

func toProtocolSeverity(s parser.Severity) protocol.DiagnosticSeverity {
	switch s {
	case parser.SeverityWarning:
		return protocol.DiagnosticSeverityWarning
	case parser.SeverityInfo:
		return protocol.DiagnosticSeverityInformation
	default:
		return protocol.DiagnosticSeverityError
	}
}

func toDocumentSymbols(content []byte, symbols []Symbol) []protocol.DocumentSymbol {
	out := make([]protocol.DocumentSymbol, 0, len(symbols))
	for _, s := range symbols {
		detail := s.Kind.String()
		out = append(out, protocol.DocumentSymbol{
			Name:           s.Name,
			Detail:         &detail,
			Kind:           toProtocolSymbolKind(s.Kind),
			Range:          toRange(content, s.Span),
			SelectionRange: toRange(content, s.NameSpan),
			Children:       toDocumentSymbols(content, s.Children),
		})
	}
	return out
}

func toProtocolSymbolKind(kind SymbolKind) protocol.SymbolKind {
	switch kind {
	case SymbolNamespace:
		return protocol.SymbolKindNamespace
	case SymbolClass, SymbolRecord:
		return protocol.SymbolKindClass
	case SymbolStruct:
		return protocol.SymbolKindStruct
	case SymbolInterface:
		return protocol.SymbolKindInterface
	case SymbolEnum:
		return protocol.SymbolKindEnum
	case SymbolDelegate:
		return protocol.SymbolKindFunction
	case SymbolConstructor, SymbolDestructor:
		return protocol.SymbolKindConstructor
	case SymbolProperty, SymbolIndexer:
		return protocol.SymbolKindProperty
	case SymbolField:
		return protocol.SymbolKindField
	case SymbolEvent:
		return protocol.SymbolKindEvent
	case SymbolOperator:
		return protocol.SymbolKindOperator
	case SymbolEnumMember:
		return protocol.SymbolKindEnumMember
	default:
		return protocol.SymbolKindMethod
	}
}

func toRange(content []byte, span parser.Span) protocol.Range {
	return protocol.Range{
		Start: toPosition(content, span.Start),
		End:   toPosition(content, span.End),
	}
}

// toPosition converts a byte position to the zero-based line and UTF-16
// character offset the protocol uses.
func toPosition(content []byte, pos parser.Position) protocol.Position {
	line := pos.Line - 1
	if line < 0 {
		line = 0
	}
	lineStart := pos.Offset
	for lineStart > 0 && lineStart <= len(content) && content[lineStart-1] != '\n' {
		lineStart--
	}
	var char int
	for i := lineStart; i < pos.Offset && i < len(content); {
		r, size := utf8.DecodeRune(content[i:])
		if r >= 0x10000 {
			char += 2
		} else {
			char++
		}
		i += size
	}
	return protocol.Position{Line: protocol.UInteger(line), Character: protocol.UInteger(char)}
}

func uriToPath(uri string) (string, error) {
	if strings.HasPrefix(uri, "file://") {
		parsed, err := url.Parse(uri)
		if err != nil {
			return "", err
		}
		return filepath.Clean(parsed.Path), nil
	}
	return uri, nil
}

func boolPtr(b bool) *bool {
	return &b
}

func syncKindPtr(k protocol.TextDocumentSyncKind) *protocol.TextDocumentSyncKind {
	return &k
}
