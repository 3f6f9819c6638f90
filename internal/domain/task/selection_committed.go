package task

import "storefront/catnav/internal/domain"

// SelectionCommittedTask carries a committed category path to the workers
// that record it for listing pages and analytics.
type SelectionCommittedTask struct {
	Selection domain.Selection `json:"selection"`
}

func (t *SelectionCommittedTask) TaskType() string {
	return TypeSelectionCommitted
}

func (t *SelectionCommittedTask) TaskValue() ([]byte, error) {
	return DefaultTaskValue(t)
}
