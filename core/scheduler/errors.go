package scheduler

import "errors"

var (
	errHour   = errors.New("scheduler: hour must be within 0..23")
	errMinute = errors.New("scheduler: minute must be within 0..59")
)
