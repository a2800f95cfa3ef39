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

package engine

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jamesatomc/kanari-core/common"
	"github.com/jamesatomc/kanari-core/core/types"
	"github.com/jamesatomc/kanari-core/core/vmadapter"
	"github.com/jamesatomc/kanari-core/crypto"
	"github.com/jamesatomc/kanari-core/params"
)

func newTestEngine() *Engine {
	var tick uint64
	return New(Options{
		GasConfig: params.DefaultGasConfig(),
		VMFactory: vmadapter.NewStubVM(),
		Clock: func() uint64 {
			tick++
			return tick
		},
	})
}

func signTransfer(t *testing.T, pub ed25519.PublicKey, priv ed25519.PrivateKey, seq uint64, to common.Address, amount uint64) types.SignedTransaction {
	t.Helper()
	tx := types.Transaction{
		Kind:      types.TxTransfer,
		Sender:    common.BytesToAddress(pub),
		Sequence:  seq,
		GasLimit:  30_000,
		GasPrice:  1_000,
		Recipient: to,
		Amount:    amount,
	}
	digest, err := tx.Hash()
	require.NoError(t, err)
	return types.SignedTransaction{Transaction: tx, Signature: crypto.SignEd25519(priv, digest)}
}

func TestEndToEndGenesisSubmitProduce(t *testing.T) {
	e := newTestEngine()
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	sender := common.BytesToAddress(pub)
	bob := common.HexToAddress("0xbob")

	e.Genesis(map[common.Address]uint64{sender: params.GenesisSupplyMist})

	_, err = e.SubmitTransaction(signTransfer(t, pub, priv, 0, bob, 1_000))
	require.NoError(t, err)

	summary, err := e.ProduceBlock()
	require.NoError(t, err)
	require.Equal(t, uint64(0), summary.Height)
	require.Equal(t, 1, summary.Executed)
	require.Equal(t, 0, summary.Failed)

	require.Equal(t, uint64(1_000), e.GetBalance(bob))
	require.Equal(t, params.GenesisSupplyMist-1_000-21_000_000, e.GetBalance(sender))
	require.Equal(t, params.GenesisSupplyMist, e.State.TotalSupply())
	require.Equal(t, uint64(0), e.GetBlockHeight())

	block, ok := e.GetBlock(0)
	require.True(t, ok)
	require.Equal(t, uint64(1), block.Header.TxCount)
}

// TestDeterministicReplayProducesIdenticalStateRoots mirrors S6 at small
// scale: two independently constructed engines fed the identical ordered
// transaction sequence must reach byte-identical state roots.
func TestDeterministicReplayProducesIdenticalStateRoots(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	sender := common.BytesToAddress(pub)
	recipients := []common.Address{
		common.HexToAddress("0xbob"),
		common.HexToAddress("0xcarl"),
		common.HexToAddress("0xdana"),
	}

	run := func() common.Hash {
		e := newTestEngine()
		e.Genesis(map[common.Address]uint64{sender: params.GenesisSupplyMist})
		for i := uint64(0); i < 10; i++ {
			to := recipients[i%uint64(len(recipients))]
			_, err := e.SubmitTransaction(signTransfer(t, pub, priv, i, to, 100))
			require.NoError(t, err)
			_, err = e.ProduceBlock()
			require.NoError(t, err)
		}
		return e.State.ComputeStateRoot()
	}

	root1 := run()
	root2 := run()
	require.Equal(t, root1, root2)
}

// TestPublishModuleEndToEndUpdatesRegistryAndStats mirrors S4 through the
// full engine facade: a successful PublishModule transaction must leave an
// entry in the engine's contract registry and be reflected in GetStats.
func TestPublishModuleEndToEndUpdatesRegistryAndStats(t *testing.T) {
	e := newTestEngine()
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	sender := common.BytesToAddress(pub)

	e.Genesis(map[common.Address]uint64{sender: params.GenesisSupplyMist})

	tx := types.Transaction{
		Kind:       types.TxPublishModule,
		Sender:     sender,
		Sequence:   0,
		GasLimit:   200_000,
		GasPrice:   1_500,
		ModuleName: "my_token",
		ModuleCode: make([]byte, 1_200),
	}
	digest, err := tx.Hash()
	require.NoError(t, err)
	_, err = e.SubmitTransaction(types.SignedTransaction{Transaction: tx, Signature: crypto.SignEd25519(priv, digest)})
	require.NoError(t, err)

	summary, err := e.ProduceBlock()
	require.NoError(t, err)
	require.Equal(t, 1, summary.Executed)

	entry, ok := e.Registry.Get(sender, "my_token")
	require.True(t, ok)
	require.Equal(t, uint64(0), entry.BlockHeight)

	stats := e.GetStats()
	require.Equal(t, 1, stats.Contracts)

	account, ok := e.GetAccount(sender)
	require.True(t, ok)
	require.True(t, account.HasModule("my_token"))
}
