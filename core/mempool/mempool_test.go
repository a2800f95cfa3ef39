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

package mempool

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jamesatomc/kanari-core/common"
	"github.com/jamesatomc/kanari-core/core/types"
	"github.com/jamesatomc/kanari-core/crypto"
)

func signedTransfer(t *testing.T, sender ed25519.PublicKey, priv ed25519.PrivateKey, seq uint64) types.SignedTransaction {
	t.Helper()
	tx := types.Transaction{
		Kind:      types.TxTransfer,
		Sender:    common.BytesToAddress(sender),
		Sequence:  seq,
		GasLimit:  30_000,
		GasPrice:  1_000,
		Recipient: common.HexToAddress("0x2"),
		Amount:    1_000,
	}
	digest, err := tx.Hash()
	require.NoError(t, err)
	return types.SignedTransaction{Transaction: tx, Signature: crypto.SignEd25519(priv, digest)}
}

func TestSubmitAcceptsValidSignature(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	pool := New()
	require.NoError(t, pool.Submit(signedTransfer(t, pub, priv, 0)))
	require.Equal(t, 1, pool.Len())
}

func TestSubmitRejectsBadSignature(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	_, otherPriv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	pool := New()
	err = pool.Submit(signedTransfer(t, pub, otherPriv, 0))
	require.Error(t, err)
	require.Equal(t, 0, pool.Len())
}

func TestDrainAllEmptiesInFIFOOrder(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	pool := New()
	require.NoError(t, pool.Submit(signedTransfer(t, pub, priv, 0)))
	require.NoError(t, pool.Submit(signedTransfer(t, pub, priv, 1)))

	drained := pool.DrainAll()
	require.Len(t, drained, 2)
	require.Equal(t, uint64(0), drained[0].Transaction.Sequence)
	require.Equal(t, uint64(1), drained[1].Transaction.Sequence)
	require.Equal(t, 0, pool.Len())

	require.Nil(t, pool.DrainAll())
}

// TestRequeuePrependsAheadOfNewSubmissions mirrors the producer's use of
// Requeue for transactions deferred past the per-block gas ceiling: they
// must come back out ahead of anything submitted after the deferral,
// preserving their own relative order.
func TestRequeuePrependsAheadOfNewSubmissions(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	pool := New()
	require.NoError(t, pool.Submit(signedTransfer(t, pub, priv, 0)))
	require.NoError(t, pool.Submit(signedTransfer(t, pub, priv, 1)))

	deferred := pool.DrainAll()
	require.Len(t, deferred, 2)
	require.Equal(t, 0, pool.Len())

	require.NoError(t, pool.Submit(signedTransfer(t, pub, priv, 2)))
	pool.Requeue(deferred)

	drained := pool.DrainAll()
	require.Len(t, drained, 3)
	require.Equal(t, uint64(0), drained[0].Transaction.Sequence)
	require.Equal(t, uint64(1), drained[1].Transaction.Sequence)
	require.Equal(t, uint64(2), drained[2].Transaction.Sequence)
}

// TestRequeueOfEmptySliceIsNoop guards Requeue's early return: calling it
// with nothing deferred must not disturb pending order.
func TestRequeueOfEmptySliceIsNoop(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	pool := New()
	require.NoError(t, pool.Submit(signedTransfer(t, pub, priv, 0)))
	pool.Requeue(nil)
	require.Equal(t, 1, pool.Len())
}
