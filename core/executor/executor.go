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

// Package executor runs the engine's fixed, five-step per-transaction
// pipeline: pre-flight sequence check, static gas consumption, balance
// pre-check, VM execution or direct construction, and finalization. Every
// admitted transaction it processes produces exactly one ChangeSet. A
// transaction rejected at admission produces none: a sequence mismatch, a
// gas price below the minimum, a gas limit above the per-transaction
// ceiling, or, under NoChangeSetIfGasUnaffordable, a sender who cannot
// cover the gas cost.
package executor

import (
	"errors"
	"fmt"

	"github.com/jamesatomc/kanari-core/core/gas"
	"github.com/jamesatomc/kanari-core/core/state"
	"github.com/jamesatomc/kanari-core/core/types"
	"github.com/jamesatomc/kanari-core/core/vmadapter"
	"github.com/jamesatomc/kanari-core/log"
	"github.com/jamesatomc/kanari-core/params"
)

// ErrSequenceMismatch is the admission-time error for a failed pre-flight
// sequence check: the transaction is dropped before gas is ever touched and
// no ChangeSet is produced.
var ErrSequenceMismatch = errors.New("executor: sequence mismatch")

// Executor runs transactions against a state.Manager and a vmadapter.Adapter,
// using a params.GasConfig to resolve admission policy and fee sink.
type Executor struct {
	state  *state.Manager
	vm     *vmadapter.Adapter
	gasCfg params.GasConfig
}

// New returns an Executor wired to sm and vm, applying gasCfg's admission
// policy and charging fees to params.DAOAddress.
func New(sm *state.Manager, vm *vmadapter.Adapter, gasCfg params.GasConfig) *Executor {
	return &Executor{state: sm, vm: vm, gasCfg: gasCfg}
}

// GasConfig returns the gas configuration the Executor was constructed
// with, so a caller assembling a block (the Producer) can enforce the
// per-block ceiling the Executor itself only ever checks per-transaction.
func (e *Executor) GasConfig() params.GasConfig {
	return e.gasCfg
}

// Execute runs the five-step pipeline for a single signed transaction and
// returns the resulting ChangeSet, or an error and no ChangeSet if the
// transaction is rejected at admission: a sequence mismatch
// (ErrSequenceMismatch), a gas price below MinGasPrice, a gas limit above
// MaxGasPerTx, or, under NoChangeSetIfGasUnaffordable, a sender balance
// below the gas cost.
func (e *Executor) Execute(stx types.SignedTransaction) (*types.ChangeSet, error) {
	tx := stx.Transaction

	// Step 1: pre-flight sequence check. A mismatch is a hard admission
	// error producing no ChangeSet at all.
	if err := e.state.ValidateSequence(tx.Sender, tx.Sequence); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSequenceMismatch, err)
	}

	if tx.GasPrice < e.gasCfg.MinGasPrice {
		return nil, fmt.Errorf("executor: gas price %d below minimum %d", tx.GasPrice, e.gasCfg.MinGasPrice)
	}
	if tx.GasLimit > e.gasCfg.MaxGasPerTx {
		return nil, fmt.Errorf("executor: gas limit %d exceeds per-tx ceiling %d", tx.GasLimit, e.gasCfg.MaxGasPerTx)
	}

	meter := gas.NewMeter(tx.GasLimit)
	op, size, complexity := classify(tx)

	// Step 2: consume static gas for the variant. If this alone exceeds
	// the gas limit, the transaction still produces a failure ChangeSet
	// charging whatever gas could be metered before the meter says no.
	if err := meter.Consume(op, size, complexity); err != nil {
		return e.failureChangeSet(tx, meter, fmt.Sprintf("out of gas: %v", err)), nil
	}

	// Step 3: balance pre-check.
	required, err := requiredFunds(tx, meter)
	if err != nil {
		return e.failureChangeSet(tx, meter, fmt.Sprintf("overflow computing required funds: %v", err)), nil
	}

	sender, _ := e.state.GetAccount(tx.Sender)
	senderBalance := uint64(0)
	if sender != nil {
		senderBalance = sender.Balance
	}

	gasCost := meter.TotalCost(tx.GasPrice)
	if senderBalance < gasCost && e.gasCfg.Admission == params.NoChangeSetIfGasUnaffordable {
		return nil, fmt.Errorf("executor: admission rejected: sender %s balance %d cannot cover gas cost %d", tx.Sender, senderBalance, gasCost)
	}
	if senderBalance < required {
		return e.failureChangeSet(tx, meter, fmt.Sprintf("insufficient balance: has %d, needs %d", senderBalance, required)), nil
	}

	// Step 4: VM execution or direct construction.
	cs := types.NewChangeSet()
	if err := e.runVariant(tx, meter, cs); err != nil {
		log.Debug("executor: transaction execution failed", "sender", tx.Sender, "error", err)
		return e.failureChangeSet(tx, meter, err.Error()), nil
	}

	// Step 5: finalize.
	cs.IncrementSequence(tx.Sender)
	cs.Debit(tx.Sender, gasCost)
	cs.CollectGas(params.DAOAddress, gasCost)
	cs.SetGasUsed(meter.GasUsed())
	cs.Sender = tx.Sender
	cs.ExpectedSequence = tx.Sequence
	return cs, nil
}

// failureChangeSet builds the failure ChangeSet step 2/3/4 all converge on:
// sequence advances, gas (whatever was metered, capped at the sender's
// committed balance) is debited, the sink is credited with the same amount,
// and gas_used is recorded, but no other effect survives. It also stamps
// Sender/ExpectedSequence so the state manager can re-validate the sequence
// number at apply time, matching the success path.
func (e *Executor) failureChangeSet(tx types.Transaction, meter *gas.Meter, reason string) *types.ChangeSet {
	cs := types.NewChangeSet()
	cs.Sender = tx.Sender
	cs.ExpectedSequence = tx.Sequence
	cs.IncrementSequence(tx.Sender)
	gasCost := meter.TotalCost(tx.GasPrice)
	if sender, ok := e.state.GetAccount(tx.Sender); !ok {
		gasCost = 0
	} else if sender.Balance < gasCost {
		gasCost = sender.Balance
	}
	cs.Debit(tx.Sender, gasCost)
	cs.CollectGas(params.DAOAddress, gasCost)
	cs.SetGasUsed(meter.GasUsed())
	cs.MarkFailed(reason)
	return cs
}

func classify(tx types.Transaction) (params.GasOperation, int, int) {
	switch tx.Kind {
	case types.TxTransfer:
		return params.OpTransfer, 0, 0
	case types.TxBurn:
		return params.OpTransfer, 0, 0
	case types.TxPublishModule:
		return params.OpPublishModule, len(tx.ModuleCode), 0
	case types.TxExecuteEntryFunction:
		return params.OpExecuteFunction, 0, len(tx.Args)
	case types.TxContractDeployment:
		return params.OpContractDeployment, len(tx.ModuleCode), len(tx.Args)
	default:
		return params.OpExecuteFunction, 0, 0
	}
}

func requiredFunds(tx types.Transaction, meter *gas.Meter) (uint64, error) {
	gasCost := meter.TotalCost(tx.GasPrice)
	amount := uint64(0)
	if tx.Kind == types.TxTransfer || tx.Kind == types.TxBurn {
		amount = tx.Amount
	}
	total := amount + gasCost
	if total < amount {
		return 0, fmt.Errorf("amount %d plus gas cost %d overflows", amount, gasCost)
	}
	return total, nil
}

// runVariant performs the Kind-specific effect: direct ChangeSet
// construction for Transfer, VM delegation for the module-publishing and
// entry-function variants.
func (e *Executor) runVariant(tx types.Transaction, meter *gas.Meter, cs *types.ChangeSet) error {
	switch tx.Kind {
	case types.TxTransfer:
		if tx.Sender == tx.Recipient {
			return errors.New("self-transfer is invalid")
		}
		if tx.Amount == 0 {
			return errors.New("zero-amount transfer is invalid")
		}
		cs.Transfer(tx.Sender, tx.Recipient, tx.Amount)
		return nil

	case types.TxBurn:
		if tx.Amount == 0 {
			return errors.New("zero-amount burn is invalid")
		}
		cs.Burn(tx.Sender, tx.Amount)
		return nil

	case types.TxPublishModule, types.TxContractDeployment:
		id := vmadapter.ModuleID{Address: tx.Sender, Name: tx.ModuleName}
		result, err := e.vm.PublishPackage([]vmadapter.ModuleID{id}, [][]byte{tx.ModuleCode}, tx.Sender, meter.Remaining())
		if err != nil {
			return err
		}
		cs.Merge(result.ChangeSet)
		cs.Events = append(cs.Events, result.Events...)
		return nil

	case types.TxExecuteEntryFunction:
		module := vmadapter.ModuleID{Address: tx.Contract, Name: tx.ModuleName}
		result, err := e.vm.Execute(module, tx.FunctionName, nil, tx.Args, meter.Remaining())
		if err != nil {
			return err
		}
		cs.Merge(result.ChangeSet)
		cs.Events = append(cs.Events, result.Events...)
		return nil

	default:
		return fmt.Errorf("executor: unknown transaction kind %d", tx.Kind)
	}
}
