package naming

import (
	"errors"
	"fmt"
)

// MaxIdentifierLen is the longest instance identifier accepted. It matches
// the symbol buffers used by the code generator on the target.
const MaxIdentifierLen = 80

// Prefixes of the exported storage names. The external framework locates
// each instance's state through these names, so they must not change.
const (
	PrefixConditionalMsg = "cmsgFlag_"
	PrefixEventFlag      = "eventFlag_"
	PrefixEventData      = "eventData_"
	PrefixFdcFlag        = "fdcFlag_"
)

// ErrInvalidIdentifier is returned when an instance identifier cannot be used
// to derive a storage name.
var ErrInvalidIdentifier = errors.New("invalid identifier")

// A StorageName is the globally visible name of a piece of block storage.
type StorageName string

// String returns the name as a plain string.
func (n StorageName) String() string {
	return string(n)
}

// DeriveName derives the storage name of an instance from a kind prefix and
// the instance identifier. For a given prefix, distinct identifiers always
// yield distinct names.
func DeriveName(prefix, instanceID string) (StorageName, error) {
	err := IdentifierMustBeValid(instanceID)
	if err != nil {
		return "", err
	}

	return StorageName(prefix + instanceID), nil
}

// IdentifierMustBeValid checks that the identifier is non-empty, bounded, and
// only uses characters that are legal in an exported C symbol.
func IdentifierMustBeValid(instanceID string) error {
	if instanceID == "" {
		return fmt.Errorf("naming: %w: identifier is empty",
			ErrInvalidIdentifier)
	}

	if len(instanceID) > MaxIdentifierLen {
		return fmt.Errorf(
			"naming: %w: identifier %q is %d characters, limit is %d",
			ErrInvalidIdentifier, instanceID, len(instanceID), MaxIdentifierLen)
	}

	for i := 0; i < len(instanceID); i++ {
		if !isSymbolChar(instanceID[i]) {
			return fmt.Errorf(
				"naming: %w: identifier %q contains %q",
				ErrInvalidIdentifier, instanceID, instanceID[i])
		}
	}

	return nil
}

func isSymbolChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z':
		return true
	case c >= 'A' && c <= 'Z':
		return true
	case c >= '0' && c <= '9':
		return true
	case c == '_':
		return true
	}

	return false
}
