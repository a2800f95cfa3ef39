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

// Package vmadapter wraps an opaque Move-style VM behind a small
// session/finish contract, and translates whatever native delta it returns
// into the engine's own ChangeSet algebra. The VM itself, and the module
// bytecode it executes, are treated as a closed, externally supplied
// dependency: this package never interprets bytecode.
package vmadapter

import (
	"github.com/jamesatomc/kanari-core/common"
	"github.com/jamesatomc/kanari-core/core/types"
)

// ModuleID identifies a published module by its publishing address and
// self-declared name.
type ModuleID struct {
	Address common.Address
	Name    string
}

// NativeChangeSet is whatever delta shape the VM itself natively produces.
// The adapter is responsible for folding this into a types.ChangeSet; the
// reference StubVM in this package produces one directly, but a real VM
// binding would translate from its own FFI struct here.
type NativeChangeSet struct {
	BalanceDeltas map[common.Address]int64
	Events        []types.Event
}

// Session is an isolated view of world state handed to the VM for the
// duration of a single transaction's execution, per the engine's external
// VM interface.
type Session interface {
	// PublishModule publishes a single module's bytecode under sender.
	// gasBudget bounds the work the VM may perform; implementations should
	// return an error that Adapter recognizes as a dependency error when
	// the module references another module not yet visible in this
	// session, so ordered (worklist) publication can retry it later.
	PublishModule(id ModuleID, code []byte, sender common.Address, gasBudget uint64) error

	// PublishModuleBundle attempts to publish every module in one shot,
	// for packages with no unresolved intra-package ordering problem.
	PublishModuleBundle(ids []ModuleID, codes [][]byte, sender common.Address, gasBudget uint64) error

	// ExecuteEntryFunction invokes a single already-published entry
	// function and returns whatever values it returns, serialized.
	ExecuteEntryFunction(module ModuleID, function string, typeTags []string, args [][]byte, gasBudget uint64) ([][]byte, error)

	// Finish ends the session, returning the accumulated native delta and
	// events on success, or an error on VM abort. A session must not be
	// reused after Finish.
	Finish() (NativeChangeSet, error)
}

// SessionFactory starts a new Session against the current module/storage
// snapshot. A real binding opens this against the VM's own snapshot type;
// the core only ever sees the Session interface above.
type SessionFactory interface {
	NewSession() Session
}
