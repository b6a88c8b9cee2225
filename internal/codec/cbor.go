// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package codec serializes messages that travel through the durable queues.
//
// Encoding is CBOR with Core Deterministic Encoding (RFC 8949 §4.2): the same
// value always produces identical bytes. Decoding is strict: unknown fields,
// duplicate map keys and trailing bytes are rejected, so a payload either
// decodes to exactly the value that produced it or fails.
package codec

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyEnforcedAPF,
		ExtraReturnErrors: cbor.ExtraDecErrorUnknownField,
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

// Codec converts values of type T to bytes and back.
type Codec[T any] interface {
	Encode(v T) ([]byte, error)
	Decode(data []byte) (T, error)
}

// CBOR is the deterministic CBOR [Codec].
type CBOR[T any] struct{}

// NewCBOR returns a CBOR codec for T.
func NewCBOR[T any]() CBOR[T] {
	return CBOR[T]{}
}

func (CBOR[T]) Encode(v T) ([]byte, error) {
	data, err := encMode.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("codec: encode %T: %w", v, err)
	}
	return data, nil
}

func (CBOR[T]) Decode(data []byte) (T, error) {
	var v T
	if err := decMode.Unmarshal(data, &v); err != nil {
		var zero T
		return zero, fmt.Errorf("codec: decode %T: %w", v, err)
	}
	return v, nil
}

// Diagnose renders data in CBOR diagnostic notation for log messages.
func Diagnose(data []byte) string {
	s, err := cbor.Diagnose(data)
	if err != nil {
		return fmt.Sprintf("<invalid cbor: %v>", err)
	}
	return s
}
