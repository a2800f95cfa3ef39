// Copyright 2025 The kanari-core Authors
// This file is part of the kanari-core library.
//
// The kanari-core library is free software: you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// The kanari-core library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the GNU Lesser
// General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the kanari-core library. If not, see
// <http://www.gnu.org/licenses/>.

// Package common holds the fixed-width identifiers shared across every
// package in the engine: addresses and hashes.
package common

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// AddressLength is the number of bytes in an Address. The engine runs on
// 32-byte addresses, unlike the 20-byte addresses used by the ethereum
// family this module's layout is descended from.
const AddressLength = 32

// HashLength is the number of bytes in a Hash (a collision-resistant
// 256-bit digest).
const HashLength = 32

// Address is a fixed-width account identifier.
type Address [AddressLength]byte

// Hash is a fixed-width 256-bit digest.
type Hash [HashLength]byte

// BytesToAddress right-aligns b inside a zero-padded Address, truncating
// from the left if b is longer than AddressLength.
func BytesToAddress(b []byte) Address {
	var a Address
	if len(b) > AddressLength {
		b = b[len(b)-AddressLength:]
	}
	copy(a[AddressLength-len(b):], b)
	return a
}

// HexToAddress parses a "0x"-prefixed (or bare) hex string into an Address.
func HexToAddress(s string) Address {
	return BytesToAddress(fromHex(s))
}

// BytesToHash right-aligns b inside a zero-padded Hash.
func BytesToHash(b []byte) Hash {
	var h Hash
	if len(b) > HashLength {
		b = b[len(b)-HashLength:]
	}
	copy(h[HashLength-len(b):], b)
	return h
}

func fromHex(s string) []byte {
	s = strings.TrimPrefix(s, "0x")
	s = strings.TrimPrefix(s, "0X")
	if len(s)%2 == 1 {
		s = "0" + s
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil
	}
	return b
}

// Bytes returns a copy of the address as a byte slice.
func (a Address) Bytes() []byte { return a[:] }

// Hex returns the "0x"-prefixed hex encoding of the address.
func (a Address) Hex() string { return "0x" + hex.EncodeToString(a[:]) }

// String implements fmt.Stringer.
func (a Address) String() string { return a.Hex() }

// IsZero reports whether the address is the all-zero address.
func (a Address) IsZero() bool { return a == Address{} }

// Bytes returns a copy of the hash as a byte slice.
func (h Hash) Bytes() []byte { return h[:] }

// Hex returns the "0x"-prefixed hex encoding of the hash.
func (h Hash) Hex() string { return "0x" + hex.EncodeToString(h[:]) }

// String implements fmt.Stringer.
func (h Hash) String() string { return h.Hex() }

// IsZero reports whether the hash is the all-zero hash (used for the
// genesis block's previous-hash field).
func (h Hash) IsZero() bool { return h == Hash{} }

// Format implements fmt.Formatter so %x and %v behave sensibly in log lines.
func (a Address) Format(s fmt.State, c rune) {
	fmt.Fprint(s, a.Hex())
}
