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

// Package registry is the derived index of published contracts, keyed by
// (address, module name), by address, and by tag. It is written only in
// response to a successful module publish, so it is always consistent with
// the state manager's own view of which accounts have published what.
package registry

import (
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/jamesatomc/kanari-core/common"
)

// Metadata is the free-form descriptive information attached to a
// published contract, separate from its bytecode.
type Metadata struct {
	Name        string
	Version     string
	Author      string
	Description string
	License     string
	Tags        []string
}

// ABI is a decoded stub description of a module's callable surface. Real
// decoding is expensive enough, and requested concurrently often enough
// (e.g. by RPC handlers resolving the same freshly deployed contract),
// that lookups are deduplicated via singleflight rather than recomputed
// per caller.
type ABI struct {
	Functions []string
}

// Entry is a single registered contract.
type Entry struct {
	Address         common.Address
	ModuleName      string
	Bytecode        []byte
	DeployTxHash    common.Hash
	BlockHeight     uint64
	Metadata        Metadata
	abi             *ABI
}

// key identifies an Entry by (address, module name).
type key struct {
	addr common.Address
	name string
}

// Registry is the derived contract index, guarded by its own readers-writer
// lock. The block producer writes to it after a block's ChangeSets have
// been applied and the state manager's lock has been released; registry
// writes are not made under the state manager's lock.
type Registry struct {
	mu        sync.RWMutex
	byKey     map[key]*Entry
	byAddress map[common.Address][]*Entry
	byTag     map[string][]*Entry

	decodeGroup singleflight.Group
	decodeFn    func(bytecode []byte) (*ABI, error)
}

// New returns an empty Registry. decodeFn performs the (potentially slow)
// ABI-stub decoding of a module's bytecode; it is invoked at most once per
// distinct (address, module name) regardless of how many callers ask for
// it concurrently.
func New(decodeFn func(bytecode []byte) (*ABI, error)) *Registry {
	return &Registry{
		byKey:     make(map[key]*Entry),
		byAddress: make(map[common.Address][]*Entry),
		byTag:     make(map[string][]*Entry),
		decodeFn:  decodeFn,
	}
}

// Register records a newly published contract. It is called only from the
// block producer in response to a successful PublishModule transaction.
func (r *Registry) Register(addr common.Address, moduleName string, bytecode []byte, deployTxHash common.Hash, blockHeight uint64, meta Metadata) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e := &Entry{
		Address:      addr,
		ModuleName:   moduleName,
		Bytecode:     bytecode,
		DeployTxHash: deployTxHash,
		BlockHeight:  blockHeight,
		Metadata:     meta,
	}

	r.byKey[key{addr, moduleName}] = e
	r.byAddress[addr] = append(r.byAddress[addr], e)
	for _, tag := range meta.Tags {
		r.byTag[tag] = append(r.byTag[tag], e)
	}
}

// Get looks up a contract by (address, module name).
func (r *Registry) Get(addr common.Address, moduleName string) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byKey[key{addr, moduleName}]
	return e, ok
}

// Count returns the total number of registered contracts.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byKey)
}

// ByAddress returns every contract published by addr.
func (r *Registry) ByAddress(addr common.Address) []*Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*Entry(nil), r.byAddress[addr]...)
}

// ByTag returns every contract tagged with tag.
func (r *Registry) ByTag(tag string) []*Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*Entry(nil), r.byTag[tag]...)
}

// ABI returns the decoded ABI stub for (addr, moduleName), decoding lazily
// on first request and deduplicating concurrent requests for the same
// entry via singleflight so the decode only runs once.
func (r *Registry) ABI(addr common.Address, moduleName string) (*ABI, error) {
	r.mu.RLock()
	e, ok := r.byKey[key{addr, moduleName}]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("registry: no contract at %s::%s", addr, moduleName)
	}

	r.mu.RLock()
	cached := e.abi
	r.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	sfKey := addr.Hex() + "::" + moduleName
	v, err, _ := r.decodeGroup.Do(sfKey, func() (interface{}, error) {
		r.mu.RLock()
		cached := e.abi
		r.mu.RUnlock()
		if cached != nil {
			return cached, nil
		}
		abi, err := r.decodeFn(e.Bytecode)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		e.abi = abi
		r.mu.Unlock()
		return abi, nil
	})
	if err != nil {
		return nil, fmt.Errorf("registry: decode abi for %s::%s: %w", addr, moduleName, err)
	}
	return v.(*ABI), nil
}
