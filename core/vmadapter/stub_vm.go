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

package vmadapter

import (
	"fmt"
	"sync"

	"github.com/jamesatomc/kanari-core/common"
	"github.com/jamesatomc/kanari-core/core/types"
)

// StubVM is a minimal, deterministic reference VM: it does not interpret
// bytecode, but it implements the Session/SessionFactory contract faithfully
// enough to exercise the adapter's ordered-publish and execute paths in
// tests and local demos, standing in for the real opaque Move VM.
type StubVM struct {
	mu      sync.Mutex
	visible map[ModuleID]struct{}

	// Deps optionally declares, for a module id, the other module ids (in
	// the same package) it references. PublishModule fails with
	// ErrDependency until every declared dependency is already visible.
	Deps map[ModuleID][]ModuleID

	// EntryHandlers lets a test register what ExecuteEntryFunction should
	// do for a given module/function pair: it receives the args and
	// returns a balance delta map plus return values.
	EntryHandlers map[string]func(args [][]byte) (map[common.Address]int64, [][]byte, error)
}

// NewStubVM returns an empty StubVM with no modules visible yet.
func NewStubVM() *StubVM {
	return &StubVM{
		visible:       make(map[ModuleID]struct{}),
		Deps:          make(map[ModuleID][]ModuleID),
		EntryHandlers: make(map[string]func([][]byte) (map[common.Address]int64, [][]byte, error)),
	}
}

// NewSession implements SessionFactory.
func (v *StubVM) NewSession() Session {
	return &stubSession{vm: v}
}

func entryKey(module ModuleID, function string) string {
	return module.Address.Hex() + "::" + module.Name + "::" + function
}

type stubSession struct {
	vm *StubVM

	deltas map[common.Address]int64
	events []types.Event
}

func (s *stubSession) addDelta(m map[common.Address]int64) {
	if s.deltas == nil {
		s.deltas = make(map[common.Address]int64)
	}
	for addr, d := range m {
		s.deltas[addr] += d
	}
}

func (s *stubSession) PublishModule(id ModuleID, code []byte, sender common.Address, gasBudget uint64) error {
	s.vm.mu.Lock()
	defer s.vm.mu.Unlock()

	for _, dep := range s.vm.Deps[id] {
		if _, ok := s.vm.visible[dep]; !ok {
			return fmt.Errorf("module %s references %s: %w", id.Name, dep.Name, ErrDependency)
		}
	}
	s.vm.visible[id] = struct{}{}
	return nil
}

func (s *stubSession) PublishModuleBundle(ids []ModuleID, codes [][]byte, sender common.Address, gasBudget uint64) error {
	s.vm.mu.Lock()
	defer s.vm.mu.Unlock()

	bundled := make(map[ModuleID]struct{}, len(ids))
	for _, id := range ids {
		bundled[id] = struct{}{}
	}
	for _, id := range ids {
		for _, dep := range s.vm.Deps[id] {
			if _, ok := s.vm.visible[dep]; ok {
				continue
			}
			if _, ok := bundled[dep]; ok {
				continue
			}
			return fmt.Errorf("module %s references %s: %w", id.Name, dep.Name, ErrDependency)
		}
	}
	for _, id := range ids {
		s.vm.visible[id] = struct{}{}
	}
	return nil
}

func (s *stubSession) ExecuteEntryFunction(module ModuleID, function string, typeTags []string, args [][]byte, gasBudget uint64) ([][]byte, error) {
	handler, ok := s.vm.EntryHandlers[entryKey(module, function)]
	if !ok {
		return nil, fmt.Errorf("stubvm: no handler registered for %s::%s", module.Name, function)
	}
	deltas, ret, err := handler(args)
	if err != nil {
		return nil, err
	}
	s.addDelta(deltas)
	return ret, nil
}

func (s *stubSession) Finish() (NativeChangeSet, error) {
	return NativeChangeSet{BalanceDeltas: s.deltas, Events: s.events}, nil
}
