package domain

// DeletedSentinel is the literal value the source platform exports in place
// of a download URL when the original asset has been removed.
const DeletedSentinel = "DELETED"

// SourceRecord represents one migratable row from the exported manifest.
// It is constructed once at read time and never mutated afterwards; only
// its derived LedgerEntry is persisted.
type SourceRecord struct {
	ExternalID  string // stable identifier from the source platform, dedup key
	Name        string // display name, may be empty
	GroupID     string // project/folder identifier on the source platform
	SourceURL   string // original-file URL, empty or DeletedSentinel when gone
	DownloadURL string // optional secondary URL, carried through unused
}

// Eligible reports whether the record's source asset is still available for
// a copy-from-URL ingestion.
func (r SourceRecord) Eligible() bool {
	return r.SourceURL != "" && r.SourceURL != DeletedSentinel
}
