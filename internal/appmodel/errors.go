package appmodel

import (
	"errors"
	"fmt"
)

var (
	// ErrBadConf is returned when an application lacks configuration its
	// generator needs.
	ErrBadConf = errors.New("bad configuration")
	// ErrBadStreamConf is returned when the parameters of a detector stream
	// cannot be read.
	ErrBadStreamConf = errors.New("bad stream configuration")
	// ErrGeneratorExists is returned when a class already has a generator.
	ErrGeneratorExists = errors.New("generator already registered")
	// ErrNoGenerator is returned when unregistering a class without one.
	ErrNoGenerator = errors.New("no generator registered")
)

// UnknownGeneratorError is returned when no generator is registered for an
// application's class.
type UnknownGeneratorError struct {
	ClassName string
}

func (e *UnknownGeneratorError) Error() string {
	return fmt.Sprintf("generator for %s not found", e.ClassName)
}

// badConf builds an ErrBadConf with a message.
func badConf(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrBadConf)
}
