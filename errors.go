package cryptdoc

import (
	"errors"
	"fmt"

	"github.com/cryptdoc/cryptdoc/pkg/pem"
)

var (
	// ErrNotDecrypted reports an embedded cipher block that was expected
	// to yield a secret but did not. Fatal to the walk.
	ErrNotDecrypted = errors.New("cryptdoc: not decrypted")

	// ErrSignatureInvalid reports an embedded signature that failed
	// validation. Fatal to the walk.
	ErrSignatureInvalid = errors.New("cryptdoc: signature not valid")
)

// blockErr wraps a sentinel or provider error with the offending block,
// so fatal errors reach the caller with enough context to diagnose.
func blockErr(err error, b *pem.Block) error {
	return fmt.Errorf("%w (%s block, method %q)", err, b.Kind(), b.GetString(pem.Method, ""))
}
