package model

import "errors"

var (
	// ErrConfig marks a missing credential or an invalid configuration value.
	ErrConfig = errors.New("configuration error")
	// ErrAuth marks a caller without the privilege to generate content.
	ErrAuth = errors.New("not authorized")
	// ErrInvalidRequest marks a malformed invocation.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrGeneration marks a non-success response from the generator.
	ErrGeneration = errors.New("generation failed")
	// ErrParse marks generator output that is not a JSON array of items.
	ErrParse = errors.New("malformed generator output")
	// ErrSemanticJudge marks a failed duplicate judgement.
	ErrSemanticJudge = errors.New("semantic judge failed")
	// ErrPersistence marks a failed baseline read or batch insert.
	ErrPersistence = errors.New("persistence failed")
)
