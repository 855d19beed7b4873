package provider

import (
	"context"
	"encoding"
	"fmt"
	"net/netip"
)

// ParseValue converts a record's text form into T. T must be string or
// implement encoding.TextUnmarshaler through its pointer.
func ParseValue[T any](s string) (T, error) {
	var v T
	switch p := any(&v).(type) {
	case *string:
		*p = s
	case *netip.Addr:
		addr, err := netip.ParseAddr(s)
		if err != nil {
			return v, fmt.Errorf("%w: %w", ErrAddrParse, err)
		}
		*p = addr
	case encoding.TextUnmarshaler:
		if err := p.UnmarshalText([]byte(s)); err != nil {
			return v, fmt.Errorf("%w: decode %T: %w", ErrCodec, v, err)
		}
	default:
		return v, fmt.Errorf("%w: %T has no text decoding", ErrCodec, v)
	}
	return v, nil
}

// FormatValue renders v in the text form sent to providers.
func FormatValue[T any](v T) (string, error) {
	switch x := any(v).(type) {
	case string:
		return x, nil
	case encoding.TextMarshaler:
		b, err := x.MarshalText()
		if err != nil {
			return "", fmt.Errorf("%w: encode %T: %w", ErrCodec, v, err)
		}
		return string(b), nil
	case fmt.Stringer:
		return x.String(), nil
	default:
		return "", fmt.Errorf("%w: %T has no text encoding", ErrCodec, v)
	}
}

// Get looks up a record and decodes its value as T.
func Get[T any](ctx context.Context, p Provider, rtype RecordType, host string) (*T, error) {
	rec, err := p.GetRecord(ctx, rtype, host)
	if err != nil || rec == nil {
		return nil, err
	}
	v, err := ParseValue[T](rec.Value)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func Create[T any](ctx context.Context, p Provider, rtype RecordType, host string, value T) error {
	s, err := FormatValue(value)
	if err != nil {
		return err
	}
	return p.CreateRecord(ctx, rtype, host, s)
}

func Update[T any](ctx context.Context, p Provider, rtype RecordType, host string, value T) error {
	s, err := FormatValue(value)
	if err != nil {
		return err
	}
	return p.UpdateRecord(ctx, rtype, host, s)
}
