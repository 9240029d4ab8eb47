package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across layers.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrInvalidToken = errors.New("invalid or expired token")
)

// StoreError wraps any failure of the occasion repository.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// NewStoreError returns a *StoreError for op, or nil when err is nil.
func NewStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}

// TransportErrorKind classifies why a send failed. It is used for reporting only.
type TransportErrorKind string

const (
	InvalidAddress      TransportErrorKind = "invalid_address"
	ProviderRejected    TransportErrorKind = "provider_rejected"
	ProviderUnavailable TransportErrorKind = "provider_unavailable"
	UnknownTransport    TransportErrorKind = "unknown"
)

// TransportError is returned by a Transport when a send attempt fails.
type TransportError struct {
	Kind TransportErrorKind
	Err  error
}

func (e *TransportError) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// NewTransportError wraps err with the given kind.
func NewTransportError(kind TransportErrorKind, err error) *TransportError {
	return &TransportError{Kind: kind, Err: err}
}

// TransportKindOf returns the classification carried by err, or UnknownTransport.
func TransportKindOf(err error) TransportErrorKind {
	var te *TransportError
	if errors.As(err, &te) {
		return te.Kind
	}
	return UnknownTransport
}
