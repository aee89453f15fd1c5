package domain

// Orphan dispositions for local products missing from the remote catalog.
const (
	OrphanKeep       = "keep"
	OrphanHide       = "hide"
	OrphanSoftDelete = "soft_delete"
	OrphanHardDelete = "hard_delete"
)

// ValidOrphanAction reports whether action names a known disposition.
func ValidOrphanAction(action string) bool {
	switch action {
	case OrphanKeep, OrphanHide, OrphanSoftDelete, OrphanHardDelete:
		return true
	}
	return false
}

// OrphanReport summarizes one orphan handling pass.
type OrphanReport struct {
	Action   string  `json:"action"`
	Detected int     `json:"detected"`
	Affected []int64 `json:"affected"` // local product ids the action was applied to
	Failed   int     `json:"failed"`   // dispositions that errored and were skipped
}
