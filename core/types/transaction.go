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
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/jamesatomc/kanari-core/common"
	"github.com/jamesatomc/kanari-core/crypto"
)

// TxKind discriminates the payload carried by a Transaction. The engine
// represents the five transaction shapes as one struct with all variant
// fields present rather than as an interface: every field is always
// addressable, and only the fields relevant to Kind are populated.
type TxKind uint8

const (
	TxTransfer TxKind = iota
	TxBurn
	TxPublishModule
	TxExecuteEntryFunction
	TxContractDeployment
)

// Transaction is the unsigned, canonical body of a user-submitted
// operation. Its RLP encoding is the pre-image hashed to produce the
// transaction's identity and signing digest.
type Transaction struct {
	Kind     TxKind
	Sender   common.Address
	Sequence uint64
	GasLimit uint64
	GasPrice uint64

	// TxTransfer
	Recipient common.Address
	Amount    uint64

	// TxPublishModule / TxContractDeployment
	ModuleName string
	ModuleCode []byte

	// TxPublishModule / TxContractDeployment: descriptive metadata recorded
	// alongside the registry entry that a successful publish or deployment
	// creates.
	ModuleVersion     string
	ModuleAuthor      string
	ModuleDescription string
	ModuleLicense     string
	ModuleTags        []string

	// TxExecuteEntryFunction
	Contract     common.Address
	FunctionName string
	Args         [][]byte
}

// rlpTransaction mirrors Transaction field-for-field. RLP cannot encode a
// zero-value common.Address distinctly from an absent one, which is fine
// here: every field is always present, just zero-valued when Kind doesn't
// use it, matching how the struct is defined.
type rlpTransaction struct {
	Kind              uint8
	Sender            common.Address
	Sequence          uint64
	GasLimit          uint64
	GasPrice          uint64
	Recipient         common.Address
	Amount            uint64
	ModuleName        string
	ModuleCode        []byte
	ModuleVersion     string
	ModuleAuthor      string
	ModuleDescription string
	ModuleLicense     string
	ModuleTags        []string
	Contract          common.Address
	FunctionName      string
	Args              [][]byte
}

func (t *Transaction) toRLP() *rlpTransaction {
	return &rlpTransaction{
		Kind:              uint8(t.Kind),
		Sender:            t.Sender,
		Sequence:          t.Sequence,
		GasLimit:          t.GasLimit,
		GasPrice:          t.GasPrice,
		Recipient:         t.Recipient,
		Amount:            t.Amount,
		ModuleName:        t.ModuleName,
		ModuleCode:        t.ModuleCode,
		ModuleVersion:     t.ModuleVersion,
		ModuleAuthor:      t.ModuleAuthor,
		ModuleDescription: t.ModuleDescription,
		ModuleLicense:     t.ModuleLicense,
		ModuleTags:        t.ModuleTags,
		Contract:          t.Contract,
		FunctionName:      t.FunctionName,
		Args:              t.Args,
	}
}

// Hash returns the transaction's canonical identity: the Keccak-256 digest
// of its RLP encoding. Two transactions with identical field values always
// hash identically regardless of construction order, since RLP encodes
// struct fields positionally.
func (t *Transaction) Hash() (common.Hash, error) {
	enc, err := rlp.EncodeToBytes(t.toRLP())
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256(enc), nil
}

// SignedTransaction pairs an unsigned Transaction with the signature over
// its hash. The signature's byte length, not an explicit tag, identifies
// which curve produced it; see crypto.InferCurve.
type SignedTransaction struct {
	Transaction Transaction
	Signature   []byte
}

// Hash returns the hash of the underlying unsigned transaction. The
// signature itself is not covered by this hash: it is the proof that the
// sender produced this exact hash, not part of the identity.
func (st *SignedTransaction) Hash() (common.Hash, error) {
	return st.Transaction.Hash()
}
