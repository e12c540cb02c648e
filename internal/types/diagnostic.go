package types

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

type MessageKind string

const (
	MessageLicenseRequired   MessageKind = "license_required"
	MessageLicenseDenied     MessageKind = "license_denied"
	MessageLicensesAccepted  MessageKind = "licenses_accepted"
	MessageNoAnalyzers       MessageKind = "no_analyzers"
	MessageFetchFailed       MessageKind = "fetch_failed"
	MessageInspectFailed     MessageKind = "inspect_failed"
	MessageInvalidTemplate   MessageKind = "invalid_template"
	MessageTemplateGenerated MessageKind = "template_generated"
	MessageArtifactWritten   MessageKind = "artifact_written"
	MessageWriteFailed       MessageKind = "write_failed"
	MessageClosureResolved   MessageKind = "closure_resolved"
)

type Diagnostic struct {
	Severity Severity
	Kind     MessageKind
	Package  *PackageRef
	Path     string
	Message  string
}

// Decision is the outcome of the license compliance check.
type Decision struct {
	Allowed     bool
	Diagnostics []Diagnostic
}
