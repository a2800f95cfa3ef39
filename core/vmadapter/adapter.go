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
	"errors"
	"fmt"
	"sync"

	"github.com/jamesatomc/kanari-core/common"
	"github.com/jamesatomc/kanari-core/core/types"
	"github.com/jamesatomc/kanari-core/log"
)

// ErrDependency marks a publish failure caused by an unresolved
// intra-package reference to a module not yet visible in the session. The
// worklist retry loop only re-enqueues a module when its failure wraps
// this error; any other failure is terminal.
var ErrDependency = errors.New("vmadapter: unresolved module dependency")

// storedModule is what the adapter retains after a successful publish, so
// the next session starts from the updated world.
type storedModule struct {
	Code []byte
}

// Adapter owns module persistence across sessions and translates VM output
// into types.ChangeSet. It holds no transaction-specific state between
// calls; each PublishPackage/Execute call opens and finishes its own
// session via factory.
type Adapter struct {
	factory SessionFactory

	mu      sync.RWMutex
	modules map[ModuleID]storedModule
}

// NewAdapter returns an Adapter that opens sessions via factory.
func NewAdapter(factory SessionFactory) *Adapter {
	return &Adapter{
		factory: factory,
		modules: make(map[ModuleID]storedModule),
	}
}

// PublishResult is the adapter's translation of a successful publish:
// module persistence plus the ChangeSet recording who published what.
type PublishResult struct {
	ChangeSet *types.ChangeSet
	Events    []types.Event
}

// PublishPackage publishes one or more modules under sender. It first
// attempts a single-shot bundle publish; if that fails, it falls back to
// ordered publication: a worklist retry loop that re-enqueues a module on
// ErrDependency and terminates when either the queue empties (success) or
// an entire pass makes no progress (failure, returning the last error).
func (a *Adapter) PublishPackage(ids []ModuleID, codes [][]byte, sender common.Address, gasBudget uint64) (*PublishResult, error) {
	if len(ids) != len(codes) {
		return nil, fmt.Errorf("vmadapter: %d module ids but %d code blobs", len(ids), len(codes))
	}

	session := a.factory.NewSession()
	if err := session.PublishModuleBundle(ids, codes, sender, gasBudget); err == nil {
		return a.finishPublish(session, ids, codes, sender)
	}

	return a.publishOrdered(ids, codes, sender, gasBudget)
}

// publishOrdered runs the worklist retry loop described on PublishPackage:
// pop the full queue each pass, re-enqueue on dependency
// error at the back, stop when the queue empties or a full pass makes
// zero progress.
func (a *Adapter) publishOrdered(ids []ModuleID, codes [][]byte, sender common.Address, gasBudget uint64) (*PublishResult, error) {
	type work struct {
		id   ModuleID
		code []byte
	}

	queue := make([]work, len(ids))
	for i := range ids {
		queue[i] = work{ids[i], codes[i]}
	}

	session := a.factory.NewSession()

	var published []work
	var lastErr error

	for len(queue) > 0 {
		var next []work
		progress := false

		for _, w := range queue {
			if err := session.PublishModule(w.id, w.code, sender, gasBudget); err != nil {
				if errors.Is(err, ErrDependency) {
					next = append(next, w)
					lastErr = err
					continue
				}
				return nil, fmt.Errorf("vmadapter: publish %s: %w", w.id.Name, err)
			}
			published = append(published, w)
			progress = true
		}

		if !progress {
			return nil, fmt.Errorf("vmadapter: ordered publish made no progress, %d modules unresolved: %w", len(next), lastErr)
		}
		queue = next
	}

	orderedIDs := make([]ModuleID, len(published))
	orderedCodes := make([][]byte, len(published))
	for i, w := range published {
		orderedIDs[i] = w.id
		orderedCodes[i] = w.code
	}
	log.Info("vmadapter: ordered publish resolved package", "modules", len(published))
	return a.finishPublish(session, orderedIDs, orderedCodes, sender)
}

func (a *Adapter) finishPublish(session Session, ids []ModuleID, codes [][]byte, sender common.Address) (*PublishResult, error) {
	native, err := session.Finish()
	if err != nil {
		return nil, fmt.Errorf("vmadapter: session finish: %w", err)
	}

	cs := types.NewChangeSet()
	for addr, delta := range native.BalanceDeltas {
		if delta >= 0 {
			cs.Credit(addr, uint64(delta))
		} else {
			cs.Debit(addr, uint64(-delta))
		}
	}

	a.mu.Lock()
	for i, id := range ids {
		a.modules[id] = storedModule{Code: codes[i]}
		cs.PublishModule(sender, id.Name)
	}
	a.mu.Unlock()

	return &PublishResult{ChangeSet: cs, Events: native.Events}, nil
}

// ExecuteResult is the adapter's translation of a successful entry
// function call.
type ExecuteResult struct {
	ChangeSet    *types.ChangeSet
	Events       []types.Event
	ReturnValues [][]byte
}

// Execute runs a single entry function against a fresh session and
// translates the VM's native delta into a ChangeSet.
func (a *Adapter) Execute(module ModuleID, function string, typeTags []string, args [][]byte, gasBudget uint64) (*ExecuteResult, error) {
	session := a.factory.NewSession()

	ret, err := session.ExecuteEntryFunction(module, function, typeTags, args, gasBudget)
	if err != nil {
		return nil, fmt.Errorf("vmadapter: execute %s::%s: %w", module.Name, function, err)
	}

	native, err := session.Finish()
	if err != nil {
		return nil, fmt.Errorf("vmadapter: session finish: %w", err)
	}

	cs := types.NewChangeSet()
	for addr, delta := range native.BalanceDeltas {
		if delta >= 0 {
			cs.Credit(addr, uint64(delta))
		} else {
			cs.Debit(addr, uint64(-delta))
		}
	}

	return &ExecuteResult{ChangeSet: cs, Events: native.Events, ReturnValues: ret}, nil
}

// HasModule reports whether id has been published through this adapter.
func (a *Adapter) HasModule(id ModuleID) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, ok := a.modules[id]
	return ok
}

// ModuleCode returns the retained bytecode for id, if published.
func (a *Adapter) ModuleCode(id ModuleID) ([]byte, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	m, ok := a.modules[id]
	return m.Code, ok
}
