package task

import "storefront/catnav/internal/domain"

type TreeRefreshTask struct {
	Root       domain.MenuRoot   `json:"root"`
	RootID     domain.CategoryID `json:"root_id"`
	RetryCount int               `json:"retry_count"`     // Attempts so far
	Error      string            `json:"error,omitempty"` // Last failure, if any
}

func (t *TreeRefreshTask) TaskType() string {
	return TypeTreeRefresh
}

func (t *TreeRefreshTask) TaskValue() ([]byte, error) {
	return DefaultTaskValue(t)
}
