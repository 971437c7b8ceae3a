// Copyright 2025 the original author or authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package pbf

import (
	"fmt"

	"golang.org/x/exp/constraints"
	"google.golang.org/protobuf/encoding/protowire"
)

// field is a single decoded protobuf field.  Varint holds the value of
// varint and fixed fields, Bytes the payload of length delimited fields.
type field struct {
	Num    protowire.Number
	Type   protowire.Type
	Varint uint64
	Bytes  []byte
}

// walk calls visit for every field of the message in b.
func walk(b []byte, visit func(f field) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("invalid field tag: %w", protowire.ParseError(n))
		}

		b = b[n:]
		f := field{Num: num, Type: typ}

		switch typ {
		case protowire.VarintType:
			f.Varint, n = protowire.ConsumeVarint(b)
		case protowire.Fixed32Type:
			var v uint32
			v, n = protowire.ConsumeFixed32(b)
			f.Varint = uint64(v)
		case protowire.Fixed64Type:
			f.Varint, n = protowire.ConsumeFixed64(b)
		case protowire.BytesType:
			f.Bytes, n = protowire.ConsumeBytes(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}

		if n < 0 {
			return fmt.Errorf("invalid field %d: %w", num, protowire.ParseError(n))
		}

		b = b[n:]

		if err := visit(f); err != nil {
			return err
		}
	}

	return nil
}

// appendVarints appends the values of a repeated varint field, which may
// arrive packed or one element per field.  Signed fields are zig-zag decoded
// when zigzag is set.
func appendVarints[T constraints.Integer](dst []T, f field, zigzag bool) ([]T, error) {
	conv := func(v uint64) T {
		if zigzag {
			return T(protowire.DecodeZigZag(v))
		}

		return T(v)
	}

	if f.Type == protowire.VarintType {
		return append(dst, conv(f.Varint)), nil
	}

	if f.Type != protowire.BytesType {
		return nil, fmt.Errorf("field %d: unexpected wire type %d", f.Num, f.Type)
	}

	b := f.Bytes
	for len(b) > 0 {
		v, n := protowire.ConsumeVarint(b)
		if n < 0 {
			return nil, fmt.Errorf("field %d: %w", f.Num, protowire.ParseError(n))
		}

		dst = append(dst, conv(v))
		b = b[n:]
	}

	return dst, nil
}

// undelta turns delta coded values into absolute values in place.
func undelta[T constraints.Signed](values []T) []T {
	var acc T
	for i, v := range values {
		acc += v
		values[i] = acc
	}

	return values
}

func sint64(v uint64) int64 {
	return protowire.DecodeZigZag(v)
}
