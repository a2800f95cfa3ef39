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
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/jamesatomc/kanari-core/common"
	"github.com/jamesatomc/kanari-core/crypto"
)

// Header is the sealed summary of a Block: everything needed to verify the
// chain links correctly without re-executing any transaction.
type Header struct {
	PrevHash  common.Hash
	Height    uint64
	Timestamp uint64
	StateRoot common.Hash
	TxCount   uint64
}

// Hash returns the Keccak-256 digest of the header's RLP encoding. This is
// the value stored as the next header's PrevHash, forming the hash-linked
// chain log.
func (h *Header) Hash() (common.Hash, error) {
	enc, err := rlp.EncodeToBytes(h)
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256(enc), nil
}

// Block pairs a sealed Header with the signed transactions it executed, in
// execution order, plus every event their execution committed.
type Block struct {
	Header       Header
	Transactions []SignedTransaction
	Events       []Event
}

// Hash returns the block's identity, which is just its header's hash: the
// transaction list is summarized into the header via TxCount and the state
// manager's StateRoot, not hashed again independently.
func (b *Block) Hash() (common.Hash, error) {
	return b.Header.Hash()
}

var (
	ErrBadHeight    = errors.New("chain: block height is not prev height + 1")
	ErrBadPrevHash  = errors.New("chain: block prev_hash does not match parent")
	ErrBadTimestamp = errors.New("chain: block timestamp precedes parent")
)

// VerifyAgainstParent checks the three structural rules that make b a valid
// successor to parent: height increments by exactly one, prev_hash matches
// the parent's own hash, and timestamp does not decrease. A nil parent
// means b must be the genesis block (height 0).
func (b *Block) VerifyAgainstParent(parent *Block) error {
	if parent == nil {
		if b.Header.Height != 0 {
			return fmt.Errorf("%w: genesis block must have height 0, got %d", ErrBadHeight, b.Header.Height)
		}
		return nil
	}

	if b.Header.Height != parent.Header.Height+1 {
		return fmt.Errorf("%w: want %d, got %d", ErrBadHeight, parent.Header.Height+1, b.Header.Height)
	}

	parentHash, err := parent.Hash()
	if err != nil {
		return err
	}
	if b.Header.PrevHash != parentHash {
		return fmt.Errorf("%w: want %s, got %s", ErrBadPrevHash, parentHash, b.Header.PrevHash)
	}

	if b.Header.Timestamp < parent.Header.Timestamp {
		return fmt.Errorf("%w: parent %d, block %d", ErrBadTimestamp, parent.Header.Timestamp, b.Header.Timestamp)
	}

	return nil
}
