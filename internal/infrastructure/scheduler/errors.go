package scheduler

import "errors"

var (
	// ErrJobExists is returned when a job name is registered twice
	ErrJobExists = errors.New("job already registered")

	// ErrJobNotFound is returned when a job is not registered
	ErrJobNotFound = errors.New("job not found")

	// ErrLockNotObtained is returned when another instance holds the job lock
	ErrLockNotObtained = errors.New("job lock held by another instance")

	// ErrInvalidConfig is returned when configuration is invalid
	ErrInvalidConfig = errors.New("invalid scheduler configuration")
)
