package query

// ExportStatus requests the snapshot of the active or most recent export.
type ExportStatus struct{}

func (ExportStatus) Type() string { return "export:status" }

func (ExportStatus) Validate() error { return nil }
