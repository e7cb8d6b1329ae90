package domain

// AuditLogger records audit events. Services depend on this rather than on
// a concrete store.
type AuditLogger interface {
	Log(action string, actor string, metadata map[string]interface{}) error
}
