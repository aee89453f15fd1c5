package domain

// Persisted sync option keys.
const (
	OptionWorkerState    = "worker_state"
	OptionActiveBatch    = "active_batch"
	OptionBatchMethod    = "batch_method"     // sync method the active batch was started with
	OptionAutoRetryUsed  = "auto_retry_used"  // set once per batch after the automatic retry fires
	OptionLastSyncAt     = "last_sync_at"
	OptionLastSyncResult = "last_sync_result"
)

// Sync methods: background hands the batch to the worker, step leaves the
// queue for explicit one-item-at-a-time drives.
const (
	SyncMethodBackground = "background"
	SyncMethodStep       = "step"
)

// ValidSyncMethod reports whether method names a known sync method.
func ValidSyncMethod(method string) bool {
	return method == SyncMethodBackground || method == SyncMethodStep
}
