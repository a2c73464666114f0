// Package watch feeds save files to a [cleaner.Cleaner] as the game writes
// them, and sweeps existing saves on demand.
//
// A [Coordinator] watches a directory tree with fsnotify. Notifications for
// one path are debounced into a single attempt, which waits until the game
// has released the file before patching it. At most one attempt per path is
// queued or running at any time; notifications arriving meanwhile are
// dropped. Patches run on a bounded worker pool so the event loop never
// blocks on file I/O.
//
// [Sweep] cleans every save below a root sequentially, without the
// debounce or stability wait, and is available while the coordinator is
// paused.
package watch
