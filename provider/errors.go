package provider

import (
	"errors"
	"fmt"
)

var (
	ErrAuth             = errors.New("authentication failed")
	ErrHTTP             = errors.New("http transport")
	ErrAPI              = errors.New("api error")
	ErrURL              = errors.New("invalid url")
	ErrUnexpectedRecord = errors.New("unexpected record")
	ErrRecordNotFound   = errors.New("record not found")
	ErrLocking          = errors.New("identifier cache unusable")
	ErrUnsupportedType  = errors.New("unsupported record type")
	ErrUnknownCode      = errors.New("unknown record type code")
	ErrCodec            = errors.New("codec")
	ErrAddrParse        = errors.New("address parse")
	ErrIO               = errors.New("io")
)

// APIError is a non-success answer from a provider API. Body is kept raw.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error, status=%d body=%q", e.Status, e.Body)
}

func (e *APIError) Is(target error) bool {
	return target == ErrAPI
}

// TooManyRecords reports a lookup that matched more than one record.
func TooManyRecords(n int) error {
	return fmt.Errorf("%w: lookup matched %d records, expected at most one", ErrUnexpectedRecord, n)
}
