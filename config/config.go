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

// Package config loads the engine's TOML-based runtime configuration, the
// way the teacher's node loads its own TOML config file on startup.
// Everything the full node needs beyond this (networking, peer discovery,
// data directories) is out of scope for the execution core; this package
// only covers the knobs the core itself consumes.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/jamesatomc/kanari-core/params"
)

// File is the on-disk shape of the engine configuration file.
type File struct {
	Gas struct {
		BasePrice      uint64 `toml:"base_price"`
		MinGasPrice    uint64 `toml:"min_gas_price"`
		MaxGasPerTx    uint64 `toml:"max_gas_per_tx"`
		MaxGasPerBlock uint64 `toml:"max_gas_per_block"`
		AlwaysChargeGas bool  `toml:"always_charge_gas"`
	} `toml:"gas"`
}

// Load parses path into a params.GasConfig, falling back to
// params.DefaultGasConfig for any field the file doesn't set.
func Load(path string) (params.GasConfig, error) {
	cfg := params.DefaultGasConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}

	var f File
	f.Gas.BasePrice = cfg.BasePrice
	f.Gas.MinGasPrice = cfg.MinGasPrice
	f.Gas.MaxGasPerTx = cfg.MaxGasPerTx
	f.Gas.MaxGasPerBlock = cfg.MaxGasPerBlock

	if _, err := toml.Decode(string(data), &f); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.BasePrice = f.Gas.BasePrice
	cfg.MinGasPrice = f.Gas.MinGasPrice
	cfg.MaxGasPerTx = f.Gas.MaxGasPerTx
	cfg.MaxGasPerBlock = f.Gas.MaxGasPerBlock
	if f.Gas.AlwaysChargeGas {
		cfg.Admission = params.AlwaysChargeGas
	}
	return cfg, nil
}
