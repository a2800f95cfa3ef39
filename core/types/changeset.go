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

import "github.com/jamesatomc/kanari-core/common"

// AccountChange is the per-account slice of a ChangeSet: a signed balance
// delta, a sequence-number increment, and a set of newly published
// modules. Feasibility of the delta is not checked here; it is enforced
// only when the state manager applies the ChangeSet against committed
// balances.
type AccountChange struct {
	BalanceDelta      int64
	SequenceIncrement uint64
	ModulesAdded      map[string]struct{}
}

func newAccountChange() *AccountChange {
	return &AccountChange{ModulesAdded: make(map[string]struct{})}
}

// Credit adds amount to the account's balance delta.
func (c *AccountChange) Credit(amount uint64) { c.BalanceDelta += int64(amount) }

// Debit subtracts amount from the account's balance delta. It is not an
// immediate feasibility check; an account can be debited past zero here
// and the resulting ChangeSet will simply fail to apply.
func (c *AccountChange) Debit(amount uint64) { c.BalanceDelta -= int64(amount) }

// IncrementSequence sets the change's sequence increment to 1, the only
// value a well-formed ChangeSet ever uses for the originating sender.
func (c *AccountChange) IncrementSequence() { c.SequenceIncrement = 1 }

// PublishModule adds name to the set of modules this change publishes.
func (c *AccountChange) PublishModule(name string) { c.ModulesAdded[name] = struct{}{} }

// ChangeSet is the sole value type that may mutate global state. VM
// execution produces one; the state manager consumes one; nothing else
// writes to state.
type ChangeSet struct {
	Success      bool
	ErrorMessage string
	GasUsed      uint64
	Changes      map[common.Address]*AccountChange

	// Events carries whatever the VM emitted while producing this
	// ChangeSet, in emission order. Empty for Transfer/Burn and for any
	// failed ChangeSet: only a successful VM-delegated execution ever
	// populates it.
	Events []Event

	// Sender and ExpectedSequence identify the originating transaction's
	// admission-time sequence check, re-validated at apply time: two
	// ChangeSets drawn from the same block's batch can both pass the
	// executor's pre-flight check against the same committed sequence, so
	// the state manager must re-check at apply time to reject the second.
	Sender           common.Address
	ExpectedSequence uint64
}

// NewChangeSet returns an empty, successful ChangeSet.
func NewChangeSet() *ChangeSet {
	return &ChangeSet{
		Success: true,
		Changes: make(map[common.Address]*AccountChange),
	}
}

// GetOrCreateChange returns the per-account change for addr, creating an
// empty one if this is the first operation touching addr.
func (cs *ChangeSet) GetOrCreateChange(addr common.Address) *AccountChange {
	c, ok := cs.Changes[addr]
	if !ok {
		c = newAccountChange()
		cs.Changes[addr] = c
	}
	return c
}

// Credit adds amount to addr's balance delta.
func (cs *ChangeSet) Credit(addr common.Address, amount uint64) {
	cs.GetOrCreateChange(addr).Credit(amount)
}

// Debit subtracts amount from addr's balance delta.
func (cs *ChangeSet) Debit(addr common.Address, amount uint64) {
	cs.GetOrCreateChange(addr).Debit(amount)
}

// IncrementSequence sets addr's sequence increment to 1.
func (cs *ChangeSet) IncrementSequence(addr common.Address) {
	cs.GetOrCreateChange(addr).IncrementSequence()
}

// Transfer debits from and credits to by amount. The net delta on total
// supply is zero.
func (cs *ChangeSet) Transfer(from, to common.Address, amount uint64) {
	cs.Debit(from, amount)
	cs.Credit(to, amount)
}

// Mint credits addr without a matching counterparty, increasing total
// supply when applied.
func (cs *ChangeSet) Mint(addr common.Address, amount uint64) {
	cs.Credit(addr, amount)
}

// Burn debits addr without a matching counterparty, decreasing total
// supply when applied.
func (cs *ChangeSet) Burn(addr common.Address, amount uint64) {
	cs.Debit(addr, amount)
}

// PublishModule adds name to addr's published module set.
func (cs *ChangeSet) PublishModule(addr common.Address, name string) {
	cs.GetOrCreateChange(addr).PublishModule(name)
}

// CollectGas credits the fee sink (the DAO address) with amount.
func (cs *ChangeSet) CollectGas(sink common.Address, amount uint64) {
	cs.Credit(sink, amount)
}

// MarkFailed flips the ChangeSet's success flag and records reason. A
// failed ChangeSet is still applied in full by the state manager: only the
// executor is responsible for ensuring a failed ChangeSet contains nothing
// but the gas/sequence bookkeeping.
func (cs *ChangeSet) MarkFailed(reason string) {
	cs.Success = false
	cs.ErrorMessage = reason
}

// SetGasUsed records the gas consumed for block-level accounting.
func (cs *ChangeSet) SetGasUsed(used uint64) { cs.GasUsed = used }

// Merge folds other's per-account deltas into cs. Merge is associative and
// commutative per account: balance deltas add, sequence increments add,
// module sets union. Used to combine a VM-produced ChangeSet with the
// executor's own gas/sequence bookkeeping; cs's own Success/ErrorMessage/
// GasUsed are left untouched; the caller decides those independently.
func (cs *ChangeSet) Merge(other *ChangeSet) {
	if other == nil {
		return
	}
	for addr, oc := range other.Changes {
		c := cs.GetOrCreateChange(addr)
		c.BalanceDelta += oc.BalanceDelta
		c.SequenceIncrement += oc.SequenceIncrement
		for name := range oc.ModulesAdded {
			c.ModulesAdded[name] = struct{}{}
		}
	}
	cs.Events = append(cs.Events, other.Events...)
}
