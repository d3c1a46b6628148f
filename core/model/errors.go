package model

import "fmt"

// DataIntegrityError reports a snapshot field that is missing or outside its
// documented range. The offending trainset is identified so callers can
// exclude it without discarding the rest of the fleet.
type DataIntegrityError struct {
	TrainsetID string
	Field      string
	Reason     string
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("trainset %s: invalid %s: %s", e.TrainsetID, e.Field, e.Reason)
}
