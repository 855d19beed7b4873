package provider

import "fmt"

// Codes is a provider's wire encoding of record types. It is partial on
// both sides: types a provider doesn't support fail to encode and codes
// the library doesn't model fail to decode.
type Codes[W comparable] struct {
	provider string
	enc      map[RecordType]W
	dec      map[W]RecordType
}

func NewCodes[W comparable](provider string, table map[RecordType]W) Codes[W] {
	c := Codes[W]{
		provider: provider,
		enc:      make(map[RecordType]W, len(table)),
		dec:      make(map[W]RecordType, len(table)),
	}
	for t, w := range table {
		if _, dup := c.dec[w]; dup {
			panic(fmt.Sprintf("provider %s: wire code %v mapped twice", provider, w))
		}
		c.enc[t] = w
		c.dec[w] = t
	}
	return c
}

// StringCodes builds the common table where the wire code is the type tag.
func StringCodes(provider string, types ...RecordType) Codes[string] {
	table := make(map[RecordType]string, len(types))
	for _, t := range types {
		table[t] = t.String()
	}
	return NewCodes(provider, table)
}

func (c Codes[W]) Encode(t RecordType) (W, error) {
	w, ok := c.enc[t]
	if !ok {
		var zero W
		return zero, fmt.Errorf("%w: %s does not support %s", ErrUnsupportedType, c.provider, t)
	}
	return w, nil
}

func (c Codes[W]) Decode(w W) (RecordType, error) {
	t, ok := c.dec[w]
	if !ok {
		return 0, fmt.Errorf("%w: %s code %v", ErrUnknownCode, c.provider, w)
	}
	return t, nil
}

func (c Codes[W]) Supports(t RecordType) bool {
	_, ok := c.enc[t]
	return ok
}
