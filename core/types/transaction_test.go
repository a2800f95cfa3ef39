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

package types

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jamesatomc/kanari-core/common"
	"github.com/jamesatomc/kanari-core/crypto"
)

func TestTransactionHashIsDeterministic(t *testing.T) {
	tx := Transaction{
		Kind:      TxTransfer,
		Sender:    common.HexToAddress("0x1"),
		Sequence:  0,
		GasLimit:  30_000,
		GasPrice:  1_000,
		Recipient: common.HexToAddress("0x2"),
		Amount:    1_000,
	}

	h1, err := tx.Hash()
	require.NoError(t, err)
	h2, err := tx.Hash()
	require.NoError(t, err)
	require.Equal(t, h1, h2)

	other := tx
	other.Amount = 2_000
	h3, err := other.Hash()
	require.NoError(t, err)
	require.NotEqual(t, h1, h3)
}

func TestSignedTransactionRoundTripEd25519(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	tx := Transaction{
		Kind:      TxTransfer,
		Sender:    common.BytesToAddress(pub),
		Sequence:  0,
		GasLimit:  30_000,
		GasPrice:  1_000,
		Recipient: common.HexToAddress("0x2"),
		Amount:    1_000,
	}

	digest, err := tx.Hash()
	require.NoError(t, err)

	sig := crypto.SignEd25519(priv, digest)
	stx := SignedTransaction{Transaction: tx, Signature: sig}

	gotDigest, err := stx.Hash()
	require.NoError(t, err)
	require.Equal(t, digest, gotDigest)

	ok, err := crypto.VerifySignature(tx.Sender, gotDigest, stx.Signature)
	require.NoError(t, err)
	require.True(t, ok)
}
