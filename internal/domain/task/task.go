package task

import "encoding/json"

const (
	TypeSelectionCommitted = "SelectionCommittedTask"
	TypeTreeRefresh        = "TreeRefreshTask"
)

// Types lists every task type that has its own stream.
var Types = []string{TypeSelectionCommitted, TypeTreeRefresh}

type Task interface {
	TaskType() string
	TaskValue() ([]byte, error)
}

// DefaultTaskValue provides a common implementation for TaskValue
func DefaultTaskValue(task interface{}) ([]byte, error) {
	return json.Marshal(task)
}

func UnmarshalTask[T Task](data []byte) (T, error) {
	var t T
	err := json.Unmarshal(data, &t)
	return t, err
}
