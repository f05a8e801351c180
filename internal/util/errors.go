package util

import "errors"

// Sentinel errors for pipeline fault classes
var (
	// ErrMergeIntegrity indicates a join produced a missing required field
	// or a duplicated key
	ErrMergeIntegrity = errors.New("merge integrity fault")

	// ErrMalformedField indicates a raw field could not be parsed
	ErrMalformedField = errors.New("malformed field")

	// ErrVocabularyCoverage indicates a category/genre/tag flag matched no record
	ErrVocabularyCoverage = errors.New("vocabulary coverage fault")

	// ErrInvalidArgument indicates a bad argument at an operation boundary
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUndefinedStatistic indicates a division by zero or log of a non-positive value
	ErrUndefinedStatistic = errors.New("undefined statistic")

	// ErrNotFound indicates a required resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidConfig indicates invalid configuration
	ErrInvalidConfig = errors.New("invalid configuration")
)
