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

// Package params holds the chain-wide constants that parameterize the
// engine: well-known addresses, the genesis allocation, and the gas table.
// It is the Go analogue of a ChainConfig in the teacher's ecosystem, scoped
// down to what the execution core actually needs.
package params

import "github.com/jamesatomc/kanari-core/common"

// MistPerKanari is the base-unit scale: 10^9 Mist = 1 KANARI.
const MistPerKanari = 1_000_000_000

// GenesisSupplyMist is the total supply minted at genesis: 10 billion
// KANARI, allocated entirely to DevAddress.
const GenesisSupplyMist uint64 = 10_000_000_000 * MistPerKanari

// Well-known addresses, byte-for-byte equal to the hex constants pinned in
// the original Move-based implementation's address module.
var (
	GenesisAddress = common.HexToAddress("0x0")
	StdAddress     = common.HexToAddress("0x1")
	SystemAddress  = common.HexToAddress("0x2")
	DevAddress     = common.HexToAddress("0x840512ff2c03135d82d55098f7461579cfe87f5c10c62718f818c0beeca138ea")
	DAOAddress     = common.HexToAddress("0xbeea29083fee79171d91c39cc257a6ba71c6f1adb7789ec2dbbd79622d9dde42")
)

// GasOperation identifies the kind of work a transaction performs, for the
// purpose of looking up its static gas cost.
type GasOperation int

const (
	OpTransfer GasOperation = iota
	OpCreateAccount
	OpUpdateAccount
	OpPublishModule
	OpExecuteFunction
	OpContractCall
	OpContractDeployment
	OpContractQuery
)

// GasUnits returns the static gas cost of the operation. size and
// complexity are operation-specific: module/metadata byte length for
// PublishModule/ContractDeployment, function-name length for ContractCall,
// an opaque VM-reported complexity score for ExecuteFunction. Unused for
// the remaining operations.
func GasUnits(op GasOperation, size, complexity int) uint64 {
	switch op {
	case OpTransfer:
		return 21_000
	case OpCreateAccount:
		return 25_000
	case OpUpdateAccount:
		return 5_000
	case OpPublishModule:
		return 50_000 + 10*uint64(size)
	case OpExecuteFunction:
		return 30_000 + 1_000*uint64(complexity)
	case OpContractCall:
		return 35_000 + 100*uint64(size)
	case OpContractDeployment:
		return 60_000 + 10*uint64(size) + 5*uint64(complexity)
	case OpContractQuery:
		return 1_000
	default:
		return 0
	}
}

// AdmissionPolicy resolves the open question in the engine's design notes:
// whether a sender who cannot afford gas at all should be charged a partial
// fee or rejected outright at admission.
type AdmissionPolicy int

const (
	// NoChangeSetIfGasUnaffordable rejects the transaction at admission
	// (no ChangeSet produced, no state mutation) when the sender's
	// balance is below the gas cost alone. This is the engine default.
	NoChangeSetIfGasUnaffordable AdmissionPolicy = iota
	// AlwaysChargeGas instead produces a failure ChangeSet that debits
	// the gas cost capped at the sender's balance, even if that cannot
	// cover the full gas cost. Kept for operators who need the alternative policy flagged
	// in the design notes.
	AlwaysChargeGas
)

// GasConfig carries the gas-pricing parameters: a base price, a minimum
// admissible price, per-tx/per-block ceilings, and the admission policy.
type GasConfig struct {
	BasePrice      uint64
	MinGasPrice    uint64
	MaxGasPerTx    uint64
	MaxGasPerBlock uint64
	Admission      AdmissionPolicy
}

// DefaultGasConfig returns the engine's out-of-the-box gas configuration.
func DefaultGasConfig() GasConfig {
	return GasConfig{
		BasePrice:      1_000,
		MinGasPrice:    100,
		MaxGasPerTx:    1_000_000,
		MaxGasPerBlock: 10_000_000,
		Admission:      NoChangeSetIfGasUnaffordable,
	}
}
