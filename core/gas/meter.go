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

// Package gas implements the engine's static per-operation gas accounting:
// a checked-arithmetic meter that the executor consumes against a
// transaction's declared gas limit.
package gas

import (
	"errors"
	"fmt"
	"math"

	"github.com/jamesatomc/kanari-core/params"
)

// ErrOutOfGas is returned by Consume when charging an operation would
// exceed the meter's limit.
var ErrOutOfGas = errors.New("gas: out of gas")

// Meter tracks gas consumption against a fixed limit using checked
// arithmetic throughout: it never silently wraps, and it never charges
// past the limit.
type Meter struct {
	limit uint64
	used  uint64
}

// NewMeter returns a Meter bounded by limit.
func NewMeter(limit uint64) *Meter {
	return &Meter{limit: limit}
}

// Consume charges the cost of op (sized by size and complexity, per
// params.GasUnits) against the meter. It returns ErrOutOfGas, leaving the
// meter's used total unchanged, if the charge would exceed the limit.
func (m *Meter) Consume(op params.GasOperation, size, complexity int) error {
	cost := params.GasUnits(op, size, complexity)
	next := m.used + cost
	if next < m.used {
		return fmt.Errorf("gas: %w: overflow charging %d", ErrOutOfGas, cost)
	}
	if next > m.limit {
		return fmt.Errorf("gas: %w: %d exceeds remaining %d", ErrOutOfGas, cost, m.limit-m.used)
	}
	m.used = next
	return nil
}

// ConsumeUnits charges a raw unit amount directly, for callers that have
// already computed a cost (e.g. the flat per-byte publish cost folded into
// a larger operation).
func (m *Meter) ConsumeUnits(units uint64) error {
	next := m.used + units
	if next < m.used || next > m.limit {
		return fmt.Errorf("gas: %w: %d exceeds remaining %d", ErrOutOfGas, units, m.Remaining())
	}
	m.used = next
	return nil
}

// GasUsed returns the total gas consumed so far.
func (m *Meter) GasUsed() uint64 { return m.used }

// Remaining returns the gas still available before the limit is reached.
func (m *Meter) Remaining() uint64 { return m.limit - m.used }

// HasEnough reports whether amount could currently be consumed without
// exceeding the limit.
func (m *Meter) HasEnough(amount uint64) bool {
	next := m.used + amount
	return next >= m.used && next <= m.limit
}

// TotalCost returns gasUsed * gasPrice as the Mist amount owed for this
// meter's consumption so far, saturating at math.MaxUint64 instead of
// wrapping on overflow.
func (m *Meter) TotalCost(gasPrice uint64) uint64 {
	if gasPrice != 0 && m.used > math.MaxUint64/gasPrice {
		return math.MaxUint64
	}
	return m.used * gasPrice
}
