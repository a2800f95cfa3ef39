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

// Package mempool holds signed transactions admitted but not yet included
// in a block: a FIFO ordered only by arrival, with no deduplication by
// hash (replay protection is the state manager's sequence-number
// discipline, not the mempool's).
package mempool

import (
	"fmt"
	"sync"

	"github.com/jamesatomc/kanari-core/core/types"
	"github.com/jamesatomc/kanari-core/crypto"
)

// Pool is a FIFO queue of admitted transactions, guarded by its own
// exclusive mutation lock independent of world state and the chain log.
type Pool struct {
	mu      sync.Mutex
	pending []types.SignedTransaction
}

// New returns an empty Pool.
func New() *Pool {
	return &Pool{}
}

// Submit verifies that sig binds the transaction's hash to its declared
// sender, and appends it to the queue on success. A missing or invalid
// signature rejects the submission outright; no state mutation occurs
// anywhere in the engine for a rejected submission.
func (p *Pool) Submit(tx types.SignedTransaction) error {
	digest, err := tx.Hash()
	if err != nil {
		return fmt.Errorf("mempool: hash transaction: %w", err)
	}

	ok, err := crypto.VerifySignature(tx.Transaction.Sender, digest, tx.Signature)
	if err != nil {
		return fmt.Errorf("mempool: admission rejected: %w", err)
	}
	if !ok {
		return fmt.Errorf("mempool: admission rejected: signature does not match sender %s", tx.Transaction.Sender)
	}

	p.mu.Lock()
	p.pending = append(p.pending, tx)
	p.mu.Unlock()
	return nil
}

// DrainAll removes and returns every pending transaction in arrival order.
// Calling DrainAll on an empty pool returns a nil slice.
func (p *Pool) DrainAll() []types.SignedTransaction {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.pending) == 0 {
		return nil
	}
	drained := p.pending
	p.pending = nil
	return drained
}

// Requeue reinstates previously drained transactions at the front of the
// queue, ahead of anything submitted since, preserving their original
// relative order. Used by the block producer to return transactions it
// drained but could not fit under the current block's gas ceiling, without
// re-verifying a signature already checked once at Submit time.
func (p *Pool) Requeue(txs []types.SignedTransaction) {
	if len(txs) == 0 {
		return
	}
	p.mu.Lock()
	p.pending = append(txs, p.pending...)
	p.mu.Unlock()
}

// Len reports how many transactions are currently pending.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}
