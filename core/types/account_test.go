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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jamesatomc/kanari-core/common"
)

func TestSortedModulesIsDeterministic(t *testing.T) {
	a := NewAccount(common.HexToAddress("0x1"), 0)
	a.AddModule("zeta")
	a.AddModule("alpha")
	a.AddModule("mid")

	require.Equal(t, []string{"alpha", "mid", "zeta"}, a.SortedModules())
}

func TestCloneIsIndependent(t *testing.T) {
	a := NewAccount(common.HexToAddress("0x1"), 100)
	a.AddModule("my_token")

	clone := a.Clone()
	clone.Balance = 50
	clone.AddModule("other")

	require.Equal(t, uint64(100), a.Balance)
	require.False(t, a.HasModule("other"))
	require.True(t, clone.HasModule("my_token"))
}
