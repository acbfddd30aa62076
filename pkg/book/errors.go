package book

import "fmt"

// Stable numeric error taxonomy. The codes are part of the ledger's public
// contract and must not change.
const (
	CodeNotAuthorized       uint32 = 100
	CodeInsufficientBalance uint32 = 101
	CodeInvalidOrder        uint32 = 102
	CodeOrderNotFound       uint32 = 103
	CodeInvalidPrice        uint32 = 104
	CodeMarketClosed        uint32 = 105
	CodeSlippageExceeded    uint32 = 106
)

// Error is a coded domain failure. Every public operation that rejects does
// so with one of these values and leaves state untouched.
type Error struct {
	Code uint32
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("err u%d: %s", e.Code, e.Msg)
}

var (
	ErrNotAuthorized       = &Error{CodeNotAuthorized, "not authorized"}
	ErrInsufficientBalance = &Error{CodeInsufficientBalance, "insufficient balance"}
	ErrInvalidOrder        = &Error{CodeInvalidOrder, "invalid order"}
	ErrOrderNotFound       = &Error{CodeOrderNotFound, "order not found"}
	ErrInvalidPrice        = &Error{CodeInvalidPrice, "invalid price"}
	ErrMarketClosed        = &Error{CodeMarketClosed, "market closed"}
	ErrSlippageExceeded    = &Error{CodeSlippageExceeded, "slippage exceeded"}
)

// CodeOf returns the numeric code carried by err, or 0 if err is not a
// ledger error.
func CodeOf(err error) uint32 {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return 0
}
