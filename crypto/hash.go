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

// Package crypto wraps the collision-resistant hashing and signature
// verification the engine treats as an opaque, pluggable dependency: a
// wire-format fingerprint hash and a small multi-curve signature check.
package crypto

import (
	"golang.org/x/crypto/sha3"

	"github.com/jamesatomc/kanari-core/common"
)

// Keccak256 returns the Keccak-256 digest of the concatenation of data.
func Keccak256(data ...[]byte) common.Hash {
	h := sha3.NewLegacyKeccak256()
	for _, d := range data {
		h.Write(d)
	}
	var out common.Hash
	h.Sum(out[:0])
	return out
}

// Keccak256Bytes is Keccak256 returning a plain byte slice, for call sites
// that immediately feed the digest back into another hash.
func Keccak256Bytes(data ...[]byte) []byte {
	h := Keccak256(data...)
	return h.Bytes()
}
