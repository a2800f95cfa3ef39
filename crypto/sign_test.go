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

package crypto

import (
	"crypto/ed25519"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/stretchr/testify/require"

	"github.com/jamesatomc/kanari-core/common"
)

func TestInferCurveByLength(t *testing.T) {
	require.Equal(t, CurveEd25519, InferCurve(make([]byte, 64)))
	require.Equal(t, CurveSecp256k1, InferCurve(make([]byte, 65)))
	require.Equal(t, CurveUnknown, InferCurve(make([]byte, 10)))
}

func TestVerifySignatureEd25519(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	digest := Keccak256([]byte("hello"))
	sig := SignEd25519(priv, digest)

	sender := common.BytesToAddress(pub)
	ok, err := VerifySignature(sender, digest, sig)
	require.NoError(t, err)
	require.True(t, ok)

	wrongDigest := Keccak256([]byte("goodbye"))
	ok, err = VerifySignature(sender, wrongDigest, sig)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestVerifySignatureSecp256k1(t *testing.T) {
	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	digest := Keccak256([]byte("hello"))
	sig := SignSecp256k1(priv, digest)

	sender := AddressFromSecp256k1Pub(priv.PubKey())
	ok, err := VerifySignature(sender, digest, sig)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestVerifySignatureRejectsWrongSender(t *testing.T) {
	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	otherPriv, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	digest := Keccak256([]byte("hello"))
	sig := SignSecp256k1(priv, digest)

	wrongSender := AddressFromSecp256k1Pub(otherPriv.PubKey())
	ok, err := VerifySignature(wrongSender, digest, sig)
	require.NoError(t, err)
	require.False(t, ok)
}
