package tx

import (
	"errors"
	"fmt"
)

// Error classes. Every non-success Result belongs to exactly one class, and
// the error returned by Result.Err matches it with errors.Is.
var (
	ErrValidation         = errors.New("validation error")
	ErrAuthorization      = errors.New("authorization error")
	ErrDigestMismatch     = errors.New("digest mismatch")
	ErrSignatureThreshold = errors.New("signature threshold not met")
	ErrStaleConfig        = errors.New("stale config")
	ErrNotFound           = errors.New("not found")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrInternal           = errors.New("internal error")
)

// Class returns the error class of the result, or nil for tesSUCCESS.
func (r Result) Class() error {
	switch r {
	case TesSUCCESS:
		return nil
	case TecNO_PERMISSION, TefBAD_SIGNATURE, TefNO_FEE_PAYER:
		return ErrAuthorization
	case TecDIGEST_MISMATCH:
		return ErrDigestMismatch
	case TecBAD_SIGNER, TecSIGNATURE_THRESHOLD:
		return ErrSignatureThreshold
	case TecSTALE_CONFIG, TecSTALE_REPORT:
		return ErrStaleConfig
	case TecNO_ENTRY, TerNO_ACCOUNT:
		return ErrNotFound
	case TecINSUFFICIENT_FUNDS, TecINSUFFICIENT_RENT, TerINSUF_FEE:
		return ErrInsufficientFunds
	case TecINTERNAL, TefINTERNAL, TefFAILURE:
		return ErrInternal
	default:
		return ErrValidation
	}
}

// ResultError carries a failed Result with context.
type ResultError struct {
	Result Result
	Msg    string
}

func (e *ResultError) Error() string {
	if e.Msg == "" {
		return e.Result.String() + ": " + e.Result.Message()
	}
	return e.Result.String() + ": " + e.Msg
}

// Is matches the result's class. A missing round is also reported as not found.
func (e *ResultError) Is(target error) bool {
	if target == e.Result.Class() {
		return true
	}
	return e.Result == TecNO_ROUND_DATA && target == ErrNotFound
}

// Err converts the result into an error, or nil on success.
func (r Result) Err() error {
	if r.IsSuccess() {
		return nil
	}
	return &ResultError{Result: r}
}

// Errorf builds a ResultError with a formatted message. Instruction Validate
// methods return these so the engine can report the precise code.
func Errorf(r Result, format string, args ...any) error {
	return &ResultError{Result: r, Msg: fmt.Sprintf(format, args...)}
}

// Malformed is shorthand for Errorf(TemMALFORMED, ...).
func Malformed(format string, args ...any) error {
	return Errorf(TemMALFORMED, format, args...)
}

// resultFromError maps a Validate error to a Result code.
func resultFromError(err error) Result {
	var re *ResultError
	if errors.As(err, &re) {
		return re.Result
	}
	return TemMALFORMED
}
