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

// Package types defines the engine's core value types: accounts,
// transactions, the ChangeSet mutation vocabulary, events and blocks.
package types

import (
	"sort"

	"github.com/jamesatomc/kanari-core/common"
)

// Account is a single entry in global state.
type Account struct {
	Address  common.Address
	Balance  uint64
	Sequence uint64
	Modules  map[string]struct{}
}

// NewAccount returns a freshly created account with the given starting
// balance, sequence zero, and no published modules.
func NewAccount(addr common.Address, balance uint64) *Account {
	return &Account{
		Address: addr,
		Balance: balance,
		Modules: make(map[string]struct{}),
	}
}

// AddModule records name as published by this account.
func (a *Account) AddModule(name string) {
	if a.Modules == nil {
		a.Modules = make(map[string]struct{})
	}
	a.Modules[name] = struct{}{}
}

// HasModule reports whether this account has published name.
func (a *Account) HasModule(name string) bool {
	_, ok := a.Modules[name]
	return ok
}

// SortedModules returns the account's published module names in
// ascending order, for deterministic serialization.
func (a *Account) SortedModules() []string {
	out := make([]string, 0, len(a.Modules))
	for name := range a.Modules {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Clone returns a deep copy of the account.
func (a *Account) Clone() *Account {
	c := &Account{
		Address:  a.Address,
		Balance:  a.Balance,
		Sequence: a.Sequence,
		Modules:  make(map[string]struct{}, len(a.Modules)),
	}
	for m := range a.Modules {
		c.Modules[m] = struct{}{}
	}
	return c
}
