package blocker

import (
	"errors"
	"fmt"
)

var (
	// ErrAddressInUse matches a BindError caused by the port already being bound.
	ErrAddressInUse = errors.New("address already in use")

	// ErrUnexpected matches a BindError caused by any other socket failure.
	ErrUnexpected = errors.New("unexpected socket error")
)

// Kind classifies a bind failure.
type Kind int

const (
	// KindAddressInUse means another socket already owns host:port.
	KindAddressInUse Kind = iota

	// KindUnexpected covers every other failure, including invalid ports.
	KindUnexpected
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case KindAddressInUse:
		return "address-in-use"
	case KindUnexpected:
		return "unexpected"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// BindError is returned by Acquire.
type BindError struct {
	Host string
	Port int
	Kind Kind
	Err  error
}

func (e *BindError) Error() string {
	if e.Kind == KindAddressInUse {
		return fmt.Sprintf("could not bind to port %d on %s: %v", e.Port, e.Host, e.Err)
	}
	return fmt.Sprintf("unexpected error binding port %d on %s: %v", e.Port, e.Host, e.Err)
}

func (e *BindError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match the ErrAddressInUse and ErrUnexpected sentinels.
func (e *BindError) Is(target error) bool {
	switch target {
	case ErrAddressInUse:
		return e.Kind == KindAddressInUse
	case ErrUnexpected:
		return e.Kind == KindUnexpected
	}
	return false
}
