package core

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"analyzer-plugin-generator/internal/types"
)

// DiagnosticLog is the ordered record of everything a generation run
// reports. Each entry is mirrored to the context logger when added.
//
// A package is reported at most once per message kind, however many paths
// lead to it in the dependency graph.
type DiagnosticLog struct {
	mu      sync.Mutex
	logger  *zerolog.Logger
	entries []types.Diagnostic
	seen    map[string]struct{}
}

func NewDiagnosticLog(ctx context.Context) *DiagnosticLog {
	return &DiagnosticLog{
		logger: log.Ctx(ctx),
		seen:   map[string]struct{}{},
	}
}

// Add appends diagnostics in order, skipping structural duplicates.
func (l *DiagnosticLog) Add(diagnostics ...types.Diagnostic) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, diagnostic := range diagnostics {
		key := diagnosticKey(diagnostic)
		if _, ok := l.seen[key]; ok {
			continue
		}
		l.seen[key] = struct{}{}
		l.entries = append(l.entries, diagnostic)
		l.emit(diagnostic)
	}
}

func (l *DiagnosticLog) Entries() []types.Diagnostic {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]types.Diagnostic(nil), l.entries...)
}

func (l *DiagnosticLog) Count(severity types.Severity) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	count := 0
	for _, entry := range l.entries {
		if entry.Severity == severity {
			count++
		}
	}
	return count
}

func (l *DiagnosticLog) emit(diagnostic types.Diagnostic) {
	if l.logger == nil {
		return
	}
	event := l.logger.WithLevel(severityLevel(diagnostic.Severity)).
		Str("kind", string(diagnostic.Kind))
	if diagnostic.Package != nil {
		event = event.Str("package", diagnostic.Package.String())
	}
	if diagnostic.Path != "" {
		event = event.Str("path", diagnostic.Path)
	}
	event.Msg(diagnostic.Message)
}

func severityLevel(severity types.Severity) zerolog.Level {
	switch severity {
	case types.SeverityError:
		return zerolog.ErrorLevel
	case types.SeverityWarning:
		return zerolog.WarnLevel
	default:
		return zerolog.InfoLevel
	}
}

func diagnosticKey(diagnostic types.Diagnostic) string {
	if diagnostic.Package != nil {
		return string(diagnostic.Kind) + "|pkg|" + diagnostic.Package.Key()
	}
	return string(diagnostic.Kind) + "|" + diagnostic.Path + "|" + diagnostic.Message
}

func PackageDiagnostic(severity types.Severity, kind types.MessageKind, ref types.PackageRef, message string) types.Diagnostic {
	return types.Diagnostic{
		Severity: severity,
		Kind:     kind,
		Package:  &ref,
		Message:  message,
	}
}

func PathDiagnostic(severity types.Severity, kind types.MessageKind, path string, message string) types.Diagnostic {
	return types.Diagnostic{
		Severity: severity,
		Kind:     kind,
		Path:     path,
		Message:  message,
	}
}

func MessageDiagnostic(severity types.Severity, kind types.MessageKind, message string) types.Diagnostic {
	return types.Diagnostic{
		Severity: severity,
		Kind:     kind,
		Message:  message,
	}
}
