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

// Package state owns the engine's world: the account map and total supply,
// the only mutator of which is ApplyChangeSet, and the deterministic state
// root derived from that map.
package state

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/JekaMas/workerpool"
	"github.com/ethereum/go-ethereum/rlp"
	lru "github.com/hashicorp/golang-lru"

	"github.com/jamesatomc/kanari-core/common"
	"github.com/jamesatomc/kanari-core/core/types"
	"github.com/jamesatomc/kanari-core/crypto"
)

// ErrInsufficientFunds is the hard apply-time error produced when a
// ChangeSet's balance delta would take an account below zero. The executor
// is expected to have pre-checked this; seeing it at apply time means the
// block must be discarded (see ErrFatal wrapping).
var ErrInsufficientFunds = errors.New("state: insufficient funds at apply")

// ErrSupplyUnderflow is the hard apply-time error produced when a
// ChangeSet's net supply delta would take total supply below zero (or past
// uint64's range). Like ErrInsufficientFunds, it is returned wrapped in
// ErrFatal.
var ErrSupplyUnderflow = errors.New("state: burn exceeds total supply")

// ErrStaleSequence is the non-fatal apply-time error produced when a
// ChangeSet's originating sequence number no longer matches the sender's
// committed sequence: a second ChangeSet in the same block batch drawn
// from a duplicate (sender, sequence) pair. Unlike ErrFatal, this does not
// abort the block; the caller simply skips this one ChangeSet.
var ErrStaleSequence = errors.New("state: stale sequence number at apply")

// ErrFatal wraps an apply-time error that must abort the entire block: the
// executor's pre-checks are supposed to make this unreachable, so seeing
// one means the caller must discard the partial apply and surface the
// error rather than commit anything.
var ErrFatal = errors.New("state: fatal invariant violation")

// stateRootCacheSize bounds the LRU cache of previously computed state
// roots, keyed by the Manager's internal version counter, which every
// successful apply advances.
const stateRootCacheSize = 256

// Manager owns global account state: balances, sequence numbers, and
// published modules. It is the only component permitted to mutate this
// state, and it does so exclusively through ApplyChangeSet.
type Manager struct {
	mu          sync.RWMutex
	accounts    map[common.Address]*types.Account
	totalSupply uint64
	version     uint64
	rootCache   *lru.Cache
	hashWorkers int
}

// New returns an empty Manager with zero total supply (the caller's genesis
// allocation sets it via SetGenesisSupply) and hashWorkers workers for
// parallel state-root leaf hashing.
func New(hashWorkers int) *Manager {
	if hashWorkers < 1 {
		hashWorkers = 1
	}
	cache, _ := lru.New(stateRootCacheSize)
	return &Manager{
		accounts:    make(map[common.Address]*types.Account),
		rootCache:   cache,
		hashWorkers: hashWorkers,
	}
}

// GetOrCreateAccount returns the account at addr, creating a fresh
// zero-balance account if none exists yet.
func (m *Manager) GetOrCreateAccount(addr common.Address) *types.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getOrCreateLocked(addr)
}

func (m *Manager) getOrCreateLocked(addr common.Address) *types.Account {
	a, ok := m.accounts[addr]
	if !ok {
		a = types.NewAccount(addr, 0)
		m.accounts[addr] = a
	}
	return a
}

// GetAccount returns the account at addr and whether it exists. The
// returned account is a defensive copy; callers must not use it to mutate
// state.
func (m *Manager) GetAccount(addr common.Address) (*types.Account, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.accounts[addr]
	if !ok {
		return nil, false
	}
	return a.Clone(), true
}

// TotalSupply returns the current total token supply.
func (m *Manager) TotalSupply() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.totalSupply
}

// SetGenesisSupply seeds the manager's total supply counter. Intended for
// use once, at genesis construction, before any ChangeSet is applied.
func (m *Manager) SetGenesisSupply(supply uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totalSupply = supply
}

// ValidateSequence returns nil iff addr's committed sequence equals
// expected, or addr does not exist and expected is zero.
func (m *Manager) ValidateSequence(addr common.Address, expected uint64) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.validateSequenceLocked(addr, expected)
}

func (m *Manager) validateSequenceLocked(addr common.Address, expected uint64) error {
	a, ok := m.accounts[addr]
	if !ok {
		if expected == 0 {
			return nil
		}
		return fmt.Errorf("state: sequence mismatch: account %s does not exist, want sequence 0, got %d", addr, expected)
	}
	if a.Sequence != expected {
		return fmt.Errorf("state: sequence mismatch: account %s has sequence %d, want %d", addr, a.Sequence, expected)
	}
	return nil
}

// ApplyChangeSet is the only mutator of global state reachable from outside
// the package. It applies a single ChangeSet under its own exclusive lock,
// rolling back just that ChangeSet's partial effect on a hard error. Callers
// applying more than one ChangeSet as part of the same block must use
// ApplyBatch instead: back-to-back ApplyChangeSet calls each commit
// independently and cannot be unwound together.
func (m *Manager) ApplyChangeSet(cs *types.ChangeSet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.applyLocked(cs)
}

// ApplyBatch applies every ChangeSet in css, in order, as a single atomic
// unit: it snapshots the account map and total supply before applying
// anything, and if any ChangeSet fails with a fatal error the whole batch is
// rolled back as though none of it had ever been applied, matching the
// requirement that a block commits in its entirety or not at all. A stale
// sequence number is not fatal to the batch: that single ChangeSet is
// skipped (recorded as true in the returned slice) and the rest continue to
// apply against the batch's own in-progress state, exactly as
// ApplyChangeSet would skip it if called standalone.
//
// On success, ApplyBatch returns a bool per ChangeSet (true if it was
// skipped as stale) with no batch-level error. On a fatal error it returns
// nil and the error describing which ChangeSet in the batch triggered it;
// the Manager is guaranteed unchanged from its pre-call state.
func (m *Manager) ApplyBatch(css []*types.ChangeSet) ([]bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshotAccounts := make(map[common.Address]*types.Account, len(m.accounts))
	for addr, a := range m.accounts {
		snapshotAccounts[addr] = a.Clone()
	}
	snapshotSupply := m.totalSupply
	snapshotVersion := m.version

	stale := make([]bool, len(css))
	for i, cs := range css {
		if err := m.applyLocked(cs); err != nil {
			if errors.Is(err, ErrStaleSequence) {
				stale[i] = true
				continue
			}
			m.accounts = snapshotAccounts
			m.totalSupply = snapshotSupply
			m.version = snapshotVersion
			return nil, fmt.Errorf("chain batch aborted at changeset %d: %w", i, err)
		}
	}
	return stale, nil
}

// applyLocked is ApplyChangeSet's body, callable under a lock the caller
// already holds. It applies every per-account delta with checked
// arithmetic, accumulates the net supply delta, and updates total supply.
// On any hard error the Manager is left unchanged by this single call: the
// caller (ApplyChangeSet directly, or ApplyBatch across the whole block)
// decides what "unchanged" means at its own scope.
func (m *Manager) applyLocked(cs *types.ChangeSet) error {
	if !cs.Sender.IsZero() {
		if err := m.validateSequenceLocked(cs.Sender, cs.ExpectedSequence); err != nil {
			return fmt.Errorf("%w: %v", ErrStaleSequence, err)
		}
	}

	addrs := make([]common.Address, 0, len(cs.Changes))
	for addr := range cs.Changes {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool { return lessAddress(addrs[i], addrs[j]) })

	snapshot := make(map[common.Address]*types.Account, len(addrs))
	var supplyDelta int64

	for _, addr := range addrs {
		change := cs.Changes[addr]
		if _, saved := snapshot[addr]; !saved {
			if existing, ok := m.accounts[addr]; ok {
				snapshot[addr] = existing.Clone()
			} else {
				snapshot[addr] = nil
			}
		}
		account := m.getOrCreateLocked(addr)

		newBalance, err := addSigned(account.Balance, change.BalanceDelta)
		if err != nil {
			m.rollback(snapshot)
			return fmt.Errorf("%w: account %s: %w", ErrFatal, addr, errors.Join(ErrInsufficientFunds, err))
		}
		account.Balance = newBalance
		account.Sequence += change.SequenceIncrement
		for name := range change.ModulesAdded {
			account.AddModule(name)
		}

		supplyDelta += change.BalanceDelta
	}

	newSupply, err := addSigned(m.totalSupply, supplyDelta)
	if err != nil {
		m.rollback(snapshot)
		return fmt.Errorf("%w: %w: %v", ErrFatal, ErrSupplyUnderflow, err)
	}
	m.totalSupply = newSupply
	m.version++
	return nil
}

// rollback restores every snapshotted account; a nil snapshot entry marks
// an account that did not exist before the apply and is removed again.
func (m *Manager) rollback(snapshot map[common.Address]*types.Account) {
	for addr, original := range snapshot {
		if original == nil {
			delete(m.accounts, addr)
			continue
		}
		m.accounts[addr] = original
	}
}

// addSigned adds a signed delta to an unsigned balance with checked
// arithmetic, rejecting both underflow below zero and overflow past
// uint64's range.
func addSigned(balance uint64, delta int64) (uint64, error) {
	if delta >= 0 {
		d := uint64(delta)
		sum := balance + d
		if sum < balance {
			return 0, fmt.Errorf("overflow: %d + %d", balance, d)
		}
		return sum, nil
	}
	d := uint64(-delta)
	if d > balance {
		return 0, fmt.Errorf("underflow: %d - %d", balance, d)
	}
	return balance - d, nil
}

func lessAddress(a, b common.Address) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// rlpLeaf mirrors the per-account tuple canonically encoded to build a
// state root leaf: address, balance, sequence, and sorted module names.
// RLP, not a hand-rolled layout, is what makes this encoding unambiguous
// across field boundaries (a raw byte concatenation of a variable-length
// module name next to a fixed-width integer cannot be undone, but RLP
// length-prefixes every element).
type rlpLeaf struct {
	Address  common.Address
	Balance  uint64
	Sequence uint64
	Modules  []string
}

// leafDigest is the canonical per-account serialization hashed to build the
// state root: the RLP encoding of (address, balance, sequence, sorted
// module names), Keccak-256 hashed.
func leafDigest(a *types.Account) common.Hash {
	leaf := rlpLeaf{
		Address:  a.Address,
		Balance:  a.Balance,
		Sequence: a.Sequence,
		Modules:  a.SortedModules(),
	}
	enc, err := rlp.EncodeToBytes(&leaf)
	if err != nil {
		// Every field of rlpLeaf is RLP-encodable by construction; a
		// failure here means the types package changed shape beneath
		// this function without leafDigest being updated to match.
		panic(fmt.Sprintf("state: encode leaf for %s: %v", a.Address, err))
	}
	return crypto.Keccak256(enc)
}

// ComputeStateRoot returns a deterministic hash over the account map: every
// account's canonical leaf digest, computed in parallel across a worker
// pool, then reassembled in ascending address order and hashed together so
// the result does not depend on scheduling order.
func (m *Manager) ComputeStateRoot() common.Hash {
	m.mu.RLock()
	version := m.version
	addrs := make([]common.Address, 0, len(m.accounts))
	accountsCopy := make([]*types.Account, 0, len(m.accounts))
	for addr, a := range m.accounts {
		addrs = append(addrs, addr)
		accountsCopy = append(accountsCopy, a)
	}
	m.mu.RUnlock()

	if cached, ok := m.rootCache.Get(version); ok {
		return cached.(common.Hash)
	}

	sort.Slice(addrs, func(i, j int) bool { return lessAddress(addrs[i], addrs[j]) })
	byAddr := make(map[common.Address]*types.Account, len(accountsCopy))
	for _, a := range accountsCopy {
		byAddr[a.Address] = a
	}

	leaves := make([]common.Hash, len(addrs))
	pool := workerpool.New(m.hashWorkers)
	var wg sync.WaitGroup
	for i, addr := range addrs {
		i, addr := i, addr
		wg.Add(1)
		pool.Submit(func() {
			defer wg.Done()
			leaves[i] = leafDigest(byAddr[addr])
		})
	}
	wg.Wait()
	pool.StopWait()

	buf := make([]byte, 0, len(leaves)*common.HashLength)
	for _, leaf := range leaves {
		buf = append(buf, leaf.Bytes()...)
	}
	root := crypto.Keccak256(buf)
	m.rootCache.Add(version, root)
	return root
}
