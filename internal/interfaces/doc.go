// Package interfaces documents the core abstractions used throughout the application.
//
// This package consolidates interface documentation to help contributors understand
// extension points and how to implement new functionality.
//
// # Interface Categories
//
// ## Sync Engine Interfaces
//
//   - RemoteClient: Fetch books and highlights from Readwise (internal/syncengine/engine.go)
//   - SettingsSource: Settings snapshot for a run (internal/syncengine/engine.go)
//   - RunRecorder: Sync run history (internal/syncengine/engine.go)
//   - RunLock: Cross-process lock held for a whole run (internal/syncengine/engine.go)
//   - FS: Vault filesystem capability (internal/vault/vault.go)
//
// ## Scheduling Interfaces
//
//   - Runner: Something that performs a sync run (internal/scheduler/sync.go)
//   - ScheduleSettings: Enabled flag and cron expression (internal/scheduler/sync.go)
//
// ## HTTP Interfaces
//
//   - SyncTrigger: Start runs, reschedule (internal/http/stores.go)
//   - EngineState: Current stage of a run (internal/http/stores.go)
//   - RunHistory: Past runs (internal/http/stores.go)
//   - SettingsStore: Sync settings (internal/http/stores.go)
//   - TokenValidator: Readwise token check (internal/http/stores.go)
//   - VaultChecker: Vault availability for health checks (internal/http/health.go)
//
// ## Notification Interfaces
//
//   - Sink: Receives the end-of-run message (internal/notify/notify.go)
//   - StatusWriter: Persists the last run status (internal/notify/notify.go)
//
// # Adding a New Notification Sink
//
// To surface run results somewhere else (e.g., a desktop notifier):
//
//  1. Implement Sink in internal/notify/
//
//     type Desktop struct{}
//
//     func (d Desktop) Notify(n Notification) {
//         // show n.Message
//     }
//
//     var _ Sink = Desktop{}
//
//  2. Add it to the notify.Multi built in entrypoint/app.go
//
// # Adding a New Note Source
//
// The engine only depends on RemoteClient. To sync from a different service,
// implement FetchBooks and FetchHighlights returning entities.Book and
// entities.Highlight, then pass the client to syncengine.New.
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// This pattern is used throughout the codebase. See checks.go for examples.
package interfaces
