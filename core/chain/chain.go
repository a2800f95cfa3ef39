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

// Package chain drains the mempool, runs each transaction through the
// executor, applies every resulting ChangeSet atomically, and appends the
// sealed block to a hash-linked log.
package chain

import (
	"errors"
	"fmt"
	"sync"

	"github.com/jamesatomc/kanari-core/core/executor"
	"github.com/jamesatomc/kanari-core/core/mempool"
	"github.com/jamesatomc/kanari-core/core/registry"
	"github.com/jamesatomc/kanari-core/core/state"
	"github.com/jamesatomc/kanari-core/core/types"
	"github.com/jamesatomc/kanari-core/log"
	"github.com/jamesatomc/kanari-core/params"
)

// ErrNoPending is returned by Produce when the mempool had nothing to
// drain; it is not an error condition worth aborting anything over.
var ErrNoPending = errors.New("chain: no pending transactions")

// Summary reports the outcome of a single Produce call.
type Summary struct {
	Height   uint64
	Hash     [32]byte
	TxCount  int
	Executed int
	Failed   int
}

// Log is the hash-linked sequence of sealed blocks, guarded by
// readers-writer discipline: reads proceed concurrently, writes (append)
// are exclusive, matching the state manager's own locking discipline.
type Log struct {
	mu     sync.RWMutex
	blocks []*types.Block
}

// NewLog returns an empty chain log.
func NewLog() *Log {
	return &Log{}
}

// Head returns the most recently appended block, or nil if the log is
// empty (no genesis block has been appended yet).
func (l *Log) Head() *types.Block {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.blocks) == 0 {
		return nil
	}
	return l.blocks[len(l.blocks)-1]
}

// At returns the block at height, or nil if out of range.
func (l *Log) At(height uint64) *types.Block {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if height >= uint64(len(l.blocks)) {
		return nil
	}
	return l.blocks[height]
}

// Len returns the number of sealed blocks.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.blocks)
}

func (l *Log) append(b *types.Block) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.blocks = append(l.blocks, b)
}

// Clock returns the current wall-clock time as a unix timestamp, the only
// place Producer reaches for real time: tests inject a fixed Clock to keep
// block production deterministic.
type Clock func() uint64

// Producer drives block production: drain, execute, apply, seal, append.
type Producer struct {
	pool   *mempool.Pool
	exec   *executor.Executor
	state  *state.Manager
	log    *Log
	reg    *registry.Registry
	clock  Clock
	gasCfg params.GasConfig
}

// NewProducer wires a Producer to the given mempool, executor, state
// manager, chain log, and contract registry, using clock for block
// timestamps. reg may be nil if the caller has no use for a contract
// registry; no registration happens in that case. The per-block gas
// ceiling enforced by Produce is read from exec's own GasConfig, so the
// producer and the executor always agree on it.
func NewProducer(pool *mempool.Pool, exec *executor.Executor, sm *state.Manager, chainLog *Log, reg *registry.Registry, clock Clock) *Producer {
	return &Producer{pool: pool, exec: exec, state: sm, log: chainLog, reg: reg, clock: clock, gasCfg: exec.GasConfig()}
}

// Produce drains the mempool, executes every transaction, applies the
// resulting ChangeSets atomically against the state manager, and appends
// the sealed block. If the mempool was empty it returns ErrNoPending. If
// any apply fails fatally, the entire batch is rolled back, no block is
// appended, and the error is surfaced: per spec's block-atomicity
// requirement, a block either commits in full or leaves no trace.
func (p *Producer) Produce() (*Summary, error) {
	txs := p.pool.DrainAll()
	if len(txs) == 0 {
		return nil, ErrNoPending
	}

	changeSets := make([]*types.ChangeSet, 0, len(txs))
	admitted := make([]types.SignedTransaction, 0, len(txs))
	for _, tx := range txs {
		cs, err := p.exec.Execute(tx)
		if err != nil {
			log.Debug("chain: transaction not admitted", "sender", tx.Transaction.Sender, "error", err)
			continue
		}
		changeSets = append(changeSets, cs)
		admitted = append(admitted, tx)
	}

	changeSets, admitted, deferred := p.capToBlockGasLimit(changeSets, admitted)
	if len(deferred) > 0 {
		log.Debug("chain: deferring transactions past per-block gas ceiling", "deferred", len(deferred), "ceiling", p.gasCfg.MaxGasPerBlock)
		p.pool.Requeue(deferred)
	}
	if len(admitted) == 0 {
		return nil, ErrNoPending
	}

	stale, err := p.state.ApplyBatch(changeSets)
	if err != nil {
		return nil, fmt.Errorf("chain: %w, block discarded", err)
	}

	var gasUsed, failed uint64
	var events []types.Event
	for i, cs := range changeSets {
		if stale[i] {
			cs.MarkFailed("stale sequence number")
			failed++
			continue
		}
		gasUsed += cs.GasUsed
		if cs.Success {
			events = append(events, cs.Events...)
		} else {
			failed++
		}
	}

	parent := p.log.Head()
	var height uint64
	var prevHash [32]byte
	if parent != nil {
		height = parent.Header.Height + 1
		h, err := parent.Hash()
		if err != nil {
			return nil, fmt.Errorf("chain: hash parent block: %w", err)
		}
		prevHash = h
	}

	root := p.state.ComputeStateRoot()
	block := &types.Block{
		Header: types.Header{
			PrevHash:  prevHash,
			Height:    height,
			Timestamp: p.clock(),
			StateRoot: root,
			TxCount:   uint64(len(admitted)),
		},
		Transactions: admitted,
		Events:       events,
	}

	if err := block.VerifyAgainstParent(parent); err != nil {
		return nil, fmt.Errorf("chain: sealed block fails self-verification: %w", err)
	}

	p.log.append(block)

	hash, err := block.Hash()
	if err != nil {
		return nil, fmt.Errorf("chain: hash sealed block: %w", err)
	}

	p.registerPublishedModules(admitted, changeSets, height)

	log.Info("chain: block produced", "height", height, "tx_count", len(admitted), "failed", failed, "gas_used", gasUsed)
	return &Summary{
		Height:   height,
		Hash:     hash,
		TxCount:  len(admitted),
		Executed: len(admitted) - int(failed),
		Failed:   int(failed),
	}, nil
}

// capToBlockGasLimit enforces params.GasConfig.MaxGasPerBlock (§4.2):
// ChangeSets are accepted into the block in order for as long as the
// running total of GasUsed stays within the ceiling; a zero ceiling means
// no limit. The first ChangeSet that would push the total over the line,
// and everything after it, is deferred to a later block rather than
// applied, since gas_used is only known once a transaction has already run
// through the executor.
func (p *Producer) capToBlockGasLimit(changeSets []*types.ChangeSet, admitted []types.SignedTransaction) ([]*types.ChangeSet, []types.SignedTransaction, []types.SignedTransaction) {
	if p.gasCfg.MaxGasPerBlock == 0 {
		return changeSets, admitted, nil
	}

	var total uint64
	cut := len(changeSets)
	for i, cs := range changeSets {
		next := total + cs.GasUsed
		if next > p.gasCfg.MaxGasPerBlock {
			cut = i
			break
		}
		total = next
	}
	if cut == len(changeSets) {
		return changeSets, admitted, nil
	}

	deferred := make([]types.SignedTransaction, len(admitted[cut:]))
	copy(deferred, admitted[cut:])
	return changeSets[:cut], admitted[:cut], deferred
}

// registerPublishedModules records a registry entry for every successful
// PublishModule/ContractDeployment transaction in this block, matching
// spec's rule that the registry is written only in response to a
// successful publish and is therefore always consistent with the state
// manager's own account-module-set view. A no-op if the Producer has no
// registry wired.
func (p *Producer) registerPublishedModules(admitted []types.SignedTransaction, changeSets []*types.ChangeSet, height uint64) {
	if p.reg == nil {
		return
	}
	for i, stx := range admitted {
		tx := stx.Transaction
		if tx.Kind != types.TxPublishModule && tx.Kind != types.TxContractDeployment {
			continue
		}
		cs := changeSets[i]
		if !cs.Success {
			continue
		}
		change, ok := cs.Changes[tx.Sender]
		if !ok {
			continue
		}
		if _, published := change.ModulesAdded[tx.ModuleName]; !published {
			continue
		}
		txHash, err := stx.Hash()
		if err != nil {
			log.Debug("chain: skip registry entry, cannot hash deployment tx", "sender", tx.Sender, "module", tx.ModuleName, "error", err)
			continue
		}
		p.reg.Register(tx.Sender, tx.ModuleName, tx.ModuleCode, txHash, height, registry.Metadata{
			Name:        tx.ModuleName,
			Version:     tx.ModuleVersion,
			Author:      tx.ModuleAuthor,
			Description: tx.ModuleDescription,
			License:     tx.ModuleLicense,
			Tags:        tx.ModuleTags,
		})
	}
}

// VerifyBlock checks that candidate is a valid successor to the current
// chain head, per the externally-supplied-block verification rules: height
// increments by one, prev_hash matches, timestamp is non-decreasing.
func (l *Log) VerifyBlock(candidate *types.Block) error {
	return candidate.VerifyAgainstParent(l.Head())
}
