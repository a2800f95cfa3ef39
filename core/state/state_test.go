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

package state

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jamesatomc/kanari-core/common"
	"github.com/jamesatomc/kanari-core/core/types"
)

func TestApplyChangeSetUpdatesBalanceSequenceAndModules(t *testing.T) {
	sm := New(2)
	dev := common.HexToAddress("0xde")
	alice := common.HexToAddress("0xa11ce")
	dao := common.HexToAddress("0xda0")

	sm.GetOrCreateAccount(dev).Balance = 10_000_000_000
	sm.SetGenesisSupply(10_000_000_000)

	cs := types.NewChangeSet()
	cs.Transfer(dev, alice, 1_000)
	cs.IncrementSequence(dev)
	cs.Debit(dev, 21_000_000)
	cs.CollectGas(dao, 21_000_000)
	cs.SetGasUsed(21_000)

	require.NoError(t, sm.ApplyChangeSet(cs))

	devAccount, _ := sm.GetAccount(dev)
	aliceAccount, _ := sm.GetAccount(alice)
	daoAccount, _ := sm.GetAccount(dao)

	require.Equal(t, uint64(10_000_000_000-1_000-21_000_000), devAccount.Balance)
	require.Equal(t, uint64(1), devAccount.Sequence)
	require.Equal(t, uint64(1_000), aliceAccount.Balance)
	require.Equal(t, uint64(21_000_000), daoAccount.Balance)
	require.Equal(t, uint64(10_000_000_000), sm.TotalSupply())
}

func TestValidateSequenceFreshAccountExpectsZero(t *testing.T) {
	sm := New(1)
	fresh := common.HexToAddress("0xnew")
	require.NoError(t, sm.ValidateSequence(fresh, 0))
	require.Error(t, sm.ValidateSequence(fresh, 1))
}

func TestApplyChangeSetRejectsOverdraft(t *testing.T) {
	sm := New(1)
	alice := common.HexToAddress("0xalice")
	sm.GetOrCreateAccount(alice).Balance = 100

	cs := types.NewChangeSet()
	cs.Debit(alice, 200)

	err := sm.ApplyChangeSet(cs)
	require.ErrorIs(t, err, ErrFatal)

	account, _ := sm.GetAccount(alice)
	require.Equal(t, uint64(100), account.Balance)
}

func TestApplyChangeSetRejectsSupplyUnderflow(t *testing.T) {
	sm := New(1)
	alice := common.HexToAddress("0xalice")
	sm.GetOrCreateAccount(alice).Balance = 2_000_000
	sm.SetGenesisSupply(1_000_000)

	cs := types.NewChangeSet()
	cs.Burn(alice, 2_000_000)

	err := sm.ApplyChangeSet(cs)
	require.Error(t, err)
}

func TestComputeStateRootIsDeterministicAndOrderIndependent(t *testing.T) {
	build := func(order []string) common.Hash {
		sm := New(4)
		addrs := map[string]common.Address{
			"a": common.HexToAddress("0x1"),
			"b": common.HexToAddress("0x2"),
			"c": common.HexToAddress("0x3"),
		}
		for _, name := range order {
			sm.GetOrCreateAccount(addrs[name]).Balance = uint64(len(name)) * 1000
		}
		return sm.ComputeStateRoot()
	}

	root1 := build([]string{"a", "b", "c"})
	root2 := build([]string{"c", "b", "a"})
	require.Equal(t, root1, root2)
}

func TestApplyBatchCommitsEveryChangeSetOnSuccess(t *testing.T) {
	sm := New(1)
	dev := common.HexToAddress("0xde")
	alice := common.HexToAddress("0xa11ce")
	sm.GetOrCreateAccount(dev).Balance = 1_000_000
	sm.SetGenesisSupply(1_000_000)

	cs1 := types.NewChangeSet()
	cs1.Transfer(dev, alice, 100)
	cs1.IncrementSequence(dev)
	cs1.Sender = dev
	cs1.ExpectedSequence = 0

	cs2 := types.NewChangeSet()
	cs2.Transfer(dev, alice, 200)
	cs2.IncrementSequence(dev)
	cs2.Sender = dev
	cs2.ExpectedSequence = 1

	stale, err := sm.ApplyBatch([]*types.ChangeSet{cs1, cs2})
	require.NoError(t, err)
	require.Equal(t, []bool{false, false}, stale)

	devAccount, _ := sm.GetAccount(dev)
	aliceAccount, _ := sm.GetAccount(alice)
	require.Equal(t, uint64(1_000_000-300), devAccount.Balance)
	require.Equal(t, uint64(300), aliceAccount.Balance)
	require.Equal(t, uint64(2), devAccount.Sequence)
}

// TestApplyBatchRollsBackEntireBlockOnFatalError is the reachable scenario
// the block-atomicity requirement guards against: a ChangeSet earlier in
// the batch succeeds and would otherwise commit, but a later ChangeSet in
// the same batch hits a fatal apply error (here, an overdraft on an
// unrelated account). The whole batch must be undone, not just the
// offending ChangeSet.
func TestApplyBatchRollsBackEntireBlockOnFatalError(t *testing.T) {
	sm := New(1)
	dev := common.HexToAddress("0xde")
	alice := common.HexToAddress("0xa11ce")
	bob := common.HexToAddress("0xb0b")
	sm.GetOrCreateAccount(dev).Balance = 1_000_000
	sm.GetOrCreateAccount(bob).Balance = 50
	sm.SetGenesisSupply(1_000_050)

	cs1 := types.NewChangeSet()
	cs1.Transfer(dev, alice, 100)
	cs1.IncrementSequence(dev)
	cs1.Sender = dev
	cs1.ExpectedSequence = 0

	cs2 := types.NewChangeSet()
	cs2.Debit(bob, 200)

	stale, err := sm.ApplyBatch([]*types.ChangeSet{cs1, cs2})
	require.ErrorIs(t, err, ErrFatal)
	require.Nil(t, stale)

	devAccount, _ := sm.GetAccount(dev)
	_, aliceExists := sm.GetAccount(alice)
	bobAccount, _ := sm.GetAccount(bob)
	require.Equal(t, uint64(1_000_000), devAccount.Balance)
	require.False(t, aliceExists)
	require.Equal(t, uint64(50), bobAccount.Balance)
	require.Equal(t, uint64(1_000_050), sm.TotalSupply())
}

func TestApplyBatchSkipsStaleSequenceWithoutAbortingBatch(t *testing.T) {
	sm := New(1)
	dev := common.HexToAddress("0xde")
	alice := common.HexToAddress("0xa11ce")
	sm.GetOrCreateAccount(dev).Balance = 1_000_000

	cs1 := types.NewChangeSet()
	cs1.Transfer(dev, alice, 100)
	cs1.IncrementSequence(dev)
	cs1.Sender = dev
	cs1.ExpectedSequence = 0

	cs2 := types.NewChangeSet()
	cs2.Transfer(dev, alice, 999)
	cs2.IncrementSequence(dev)
	cs2.Sender = dev
	cs2.ExpectedSequence = 0

	stale, err := sm.ApplyBatch([]*types.ChangeSet{cs1, cs2})
	require.NoError(t, err)
	require.Equal(t, []bool{false, true}, stale)

	aliceAccount, _ := sm.GetAccount(alice)
	require.Equal(t, uint64(100), aliceAccount.Balance)
}

func TestComputeStateRootChangesAfterApply(t *testing.T) {
	sm := New(2)
	alice := common.HexToAddress("0xalice")
	sm.GetOrCreateAccount(alice).Balance = 100

	before := sm.ComputeStateRoot()

	cs := types.NewChangeSet()
	cs.Credit(alice, 1)
	require.NoError(t, sm.ApplyChangeSet(cs))

	after := sm.ComputeStateRoot()
	require.NotEqual(t, before, after)
}
