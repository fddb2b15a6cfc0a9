package perr

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	ErrInvalidArgument    = errors.New("pooling: invalid argument")
	ErrAlreadyExists      = errors.New("pooling: already exists")
	ErrNotFound           = errors.New("pooling: pool not found")
	ErrTypeMismatch       = errors.New("pooling: pool type mismatch")
	ErrProcessorMissing   = errors.New("pooling: no processor registered")
	ErrInstanceNotTracked = errors.New("pooling: instance not tracked by pool")
)

func ErrNilKey() error {
	return fmt.Errorf("%w: key cannot be nil", ErrInvalidArgument)
}

func ErrInvalidKey(key any) error {
	return fmt.Errorf("%w: key of type %T is not comparable", ErrInvalidArgument, key)
}

func ErrNilTemplate(typ reflect.Type) error {
	return fmt.Errorf("%w: template of type %s cannot be nil", ErrInvalidArgument, typ)
}

func ErrNilInstance(typ reflect.Type) error {
	return fmt.Errorf("%w: instance of type %s cannot be nil", ErrInvalidArgument, typ)
}

func ErrInvalidCount(count int) error {
	return fmt.Errorf("%w: instance count cannot be less than one, got %d", ErrInvalidArgument, count)
}

func ErrNilProcessor(typ reflect.Type) error {
	return fmt.Errorf("%w: processor for type %s cannot be nil", ErrInvalidArgument, typ)
}

func ErrIncomparableType(typ reflect.Type) error {
	return fmt.Errorf("%w: type %s is not comparable and cannot be pooled", ErrInvalidArgument, typ)
}

func ErrPoolExists(key any, typ reflect.Type) error {
	return fmt.Errorf("%w: pool with key (%v) and type %s", ErrAlreadyExists, key, typ)
}

func ErrProcessorExists(typ reflect.Type) error {
	return fmt.Errorf("%w: processor for type %s", ErrAlreadyExists, typ)
}

func ErrPoolNotFound(key any) error {
	return fmt.Errorf("%w: key (%v)", ErrNotFound, key)
}

func ErrPoolTypeMismatch(key any, typ reflect.Type) error {
	return fmt.Errorf("%w: pool with key (%v) is not of type %s", ErrTypeMismatch, key, typ)
}

func ErrNoProcessor(typ reflect.Type) error {
	return fmt.Errorf("%w: type %s", ErrProcessorMissing, typ)
}

func ErrNotTracked(key any, value any) error {
	return fmt.Errorf("%w: pool (%v) does not contain object (%v)", ErrInstanceNotTracked, key, value)
}
