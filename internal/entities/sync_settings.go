package entities

// SyncSettings is the snapshot of user settings a sync run works with.
type SyncSettings struct {
	Token         string `json:"-"`
	InboxDir      string `json:"inbox_dir"`
	ReferencesDir string `json:"references_dir"`
}

const (
	DefaultInboxDir      = "Inbox"
	DefaultReferencesDir = "References"
)
