package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingCredentials is returned when a push is requested without a registry token.
	ErrMissingCredentials = errors.New("registry credentials are required to push")
	// ErrRefNotFound is returned when the checkout reference does not resolve to a commit.
	ErrRefNotFound = errors.New("reference not found")
	// ErrInvalidTag is returned when a derived tag or the image repository is not a valid reference.
	ErrInvalidTag = errors.New("invalid image reference")
)

// Step names one stage of a dispatch run.
type Step string

const (
	StepCheckout   Step = "checkout"
	StepTags       Step = "tags"
	StepLogin      Step = "login"
	StepCachePull  Step = "cache-pull"
	StepBuild      Step = "build"
	StepPush       Step = "push"
	StepCacheWrite Step = "cache-write"
	StepSummary    Step = "summary"
)

// StepError records which step aborted a run.
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// FailedStep returns the step carried by err, if any.
func FailedStep(err error) (Step, bool) {
	var se *StepError
	if errors.As(err, &se) {
		return se.Step, true
	}
	return "", false
}
