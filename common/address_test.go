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

package common

import "testing"

func TestHexToAddressRoundTrip(t *testing.T) {
	a := HexToAddress("0x840512ff2c03135d82d55098f7461579cfe87f5c10c62718f818c0beeca138ea")
	if a.Hex() != "0x840512ff2c03135d82d55098f7461579cfe87f5c10c62718f818c0beeca138ea" {
		t.Fatalf("round-trip mismatch: got %s", a.Hex())
	}
}

func TestBytesToAddressRightAligns(t *testing.T) {
	a := BytesToAddress([]byte{0x01})
	if a[AddressLength-1] != 0x01 {
		t.Fatalf("expected last byte to be 0x01, got %x", a[AddressLength-1])
	}
	for i := 0; i < AddressLength-1; i++ {
		if a[i] != 0 {
			t.Fatalf("expected zero padding at byte %d, got %x", i, a[i])
		}
	}
}

func TestIsZero(t *testing.T) {
	var a Address
	if !a.IsZero() {
		t.Fatal("expected zero-value Address to report IsZero")
	}
	a[0] = 1
	if a.IsZero() {
		t.Fatal("expected non-zero Address to not report IsZero")
	}
}

func TestHashIsZero(t *testing.T) {
	var h Hash
	if !h.IsZero() {
		t.Fatal("expected zero-value Hash to report IsZero")
	}
}
