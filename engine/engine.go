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

// Package engine composes the mempool, executor, state manager, chain log,
// VM adapter, and contract registry into the single entry point a caller
// (an RPC server, a CLI, a test harness) actually talks to.
package engine

import (
	"fmt"
	"runtime"

	"github.com/jamesatomc/kanari-core/common"
	"github.com/jamesatomc/kanari-core/core/chain"
	"github.com/jamesatomc/kanari-core/core/executor"
	"github.com/jamesatomc/kanari-core/core/mempool"
	"github.com/jamesatomc/kanari-core/core/registry"
	"github.com/jamesatomc/kanari-core/core/state"
	"github.com/jamesatomc/kanari-core/core/types"
	"github.com/jamesatomc/kanari-core/core/vmadapter"
	"github.com/jamesatomc/kanari-core/params"
)

// Engine is the complete execution core: construction is explicit, and
// there is no process-global instance. A caller owns the Engine's
// lifetime, and teardown is just letting it go out of scope.
type Engine struct {
	Mempool  *mempool.Pool
	State    *state.Manager
	Chain    *chain.Log
	Registry *registry.Registry
	VM       *vmadapter.Adapter

	producer *chain.Producer
	executor *executor.Executor
}

// Options configures a new Engine.
type Options struct {
	GasConfig   params.GasConfig
	VMFactory   vmadapter.SessionFactory
	Clock       chain.Clock
	DecodeABI   func(bytecode []byte) (*registry.ABI, error)
	HashWorkers int
}

// New constructs a fully wired Engine with an empty account map. Callers
// typically follow this with a genesis allocation via Genesis before
// producing the first block.
func New(opts Options) *Engine {
	if opts.HashWorkers <= 0 {
		opts.HashWorkers = runtime.GOMAXPROCS(0)
	}
	if opts.DecodeABI == nil {
		opts.DecodeABI = func(bytecode []byte) (*registry.ABI, error) {
			return &registry.ABI{}, nil
		}
	}
	if opts.Clock == nil {
		opts.Clock = func() uint64 { return 0 }
	}

	sm := state.New(opts.HashWorkers)
	vm := vmadapter.NewAdapter(opts.VMFactory)
	pool := mempool.New()
	exec := executor.New(sm, vm, opts.GasConfig)
	chainLog := chain.NewLog()
	reg := registry.New(opts.DecodeABI)
	producer := chain.NewProducer(pool, exec, sm, chainLog, reg, opts.Clock)

	return &Engine{
		Mempool:  pool,
		State:    sm,
		Chain:    chainLog,
		Registry: reg,
		VM:       vm,
		producer: producer,
		executor: exec,
	}
}

// Genesis seeds supply and balance allocations before any block is
// produced. It is the caller's responsibility to call this exactly once,
// before the first Produce call, matching the engine's "no implicit
// global state" design: genesis is an explicit construction step.
func (e *Engine) Genesis(allocations map[common.Address]uint64) {
	var total uint64
	for addr, balance := range allocations {
		account := e.State.GetOrCreateAccount(addr)
		account.Balance = balance
		total += balance
	}
	e.State.SetGenesisSupply(total)
}

// SubmitTransaction verifies and enqueues a signed transaction, returning
// its hash on success.
func (e *Engine) SubmitTransaction(stx types.SignedTransaction) (common.Hash, error) {
	hash, err := stx.Hash()
	if err != nil {
		return common.Hash{}, fmt.Errorf("engine: hash transaction: %w", err)
	}
	if err := e.Mempool.Submit(stx); err != nil {
		return common.Hash{}, err
	}
	return hash, nil
}

// ProduceBlock drains the mempool and seals the next block.
func (e *Engine) ProduceBlock() (*chain.Summary, error) {
	return e.producer.Produce()
}

// GetAccount returns the account state at addr.
func (e *Engine) GetAccount(addr common.Address) (*types.Account, bool) {
	return e.State.GetAccount(addr)
}

// GetBalance returns addr's current balance, or zero if the account does
// not exist.
func (e *Engine) GetBalance(addr common.Address) uint64 {
	a, ok := e.State.GetAccount(addr)
	if !ok {
		return 0
	}
	return a.Balance
}

// GetBlock returns the sealed block at height.
func (e *Engine) GetBlock(height uint64) (*types.Block, bool) {
	b := e.Chain.At(height)
	return b, b != nil
}

// GetBlockHeight returns the height of the current chain head, or zero if
// no block has been produced yet.
func (e *Engine) GetBlockHeight() uint64 {
	head := e.Chain.Head()
	if head == nil {
		return 0
	}
	return head.Header.Height
}

// Stats summarizes the engine's current state, for introspection by a
// caller such as an RPC server's kanari_getStats method.
type Stats struct {
	BlockHeight uint64
	TotalSupply uint64
	PendingTxs  int
	Contracts   int
}

// GetStats returns a snapshot summary of the engine.
func (e *Engine) GetStats() Stats {
	return Stats{
		BlockHeight: e.GetBlockHeight(),
		TotalSupply: e.State.TotalSupply(),
		PendingTxs:  e.Mempool.Len(),
		Contracts:   e.Registry.Count(),
	}
}
