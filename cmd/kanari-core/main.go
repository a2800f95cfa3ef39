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

// kanari-core is a small command-line harness around the execution engine:
// enough to seed a local genesis, produce a block, and print engine stats
// without a full RPC server in front of it. It has no command for
// submitting transactions, and each command builds a fresh engine.
package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/urfave/cli/v2"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/jamesatomc/kanari-core/common"
	"github.com/jamesatomc/kanari-core/config"
	"github.com/jamesatomc/kanari-core/core/vmadapter"
	"github.com/jamesatomc/kanari-core/engine"
	"github.com/jamesatomc/kanari-core/log"
	"github.com/jamesatomc/kanari-core/params"
)

var (
	configFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "Path to a TOML gas configuration file",
	}
)

var genesisCommand = &cli.Command{
	Name:  "genesis",
	Usage: "Construct an engine, seed genesis allocation, and report the initial state root",
	Flags: []cli.Flag{configFlag},
	Action: func(ctx *cli.Context) error {
		e := newEngine(ctx)
		e.Genesis(map[common.Address]uint64{
			params.DevAddress: params.GenesisSupplyMist,
		})
		fmt.Printf("genesis state root: %s\n", e.State.ComputeStateRoot())
		fmt.Printf("dev balance: %d\n", e.GetBalance(params.DevAddress))
		return nil
	},
}

var produceCommand = &cli.Command{
	Name:  "produce-block",
	Usage: "Drain the mempool and seal the next block (the demo mempool starts empty, so this reports that no transactions are pending)",
	Flags: []cli.Flag{configFlag},
	Action: func(ctx *cli.Context) error {
		e := newEngine(ctx)
		summary, err := e.ProduceBlock()
		if err != nil {
			return err
		}
		fmt.Printf("block %d sealed: %d tx (%d executed, %d failed)\n",
			summary.Height, summary.TxCount, summary.Executed, summary.Failed)
		return nil
	},
}

var statsCommand = &cli.Command{
	Name:  "stats",
	Usage: "Print a snapshot of engine state",
	Flags: []cli.Flag{configFlag},
	Action: func(ctx *cli.Context) error {
		e := newEngine(ctx)
		stats := e.GetStats()
		fmt.Printf("height=%d supply=%d pending=%d contracts=%d\n",
			stats.BlockHeight, stats.TotalSupply, stats.PendingTxs, stats.Contracts)
		return nil
	},
}

func newEngine(ctx *cli.Context) *engine.Engine {
	gasCfg := params.DefaultGasConfig()
	if path := ctx.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			log.Warn("kanari-core: falling back to default gas config", "error", err)
		} else {
			gasCfg = loaded
		}
	}

	return engine.New(engine.Options{
		GasConfig: gasCfg,
		VMFactory: vmadapter.NewStubVM(),
		Clock:     func() uint64 { return uint64(0) },
	})
}

var app = cli.NewApp()

func init() {
	app.Name = "kanari-core"
	app.Usage = "local harness for the kanari execution engine"
	app.Commands = []*cli.Command{
		genesisCommand,
		produceCommand,
		statsCommand,
	}
	sort.Sort(cli.CommandsByName(app.Commands))
	app.Before = func(ctx *cli.Context) error {
		maxprocs.Set() // Automatically set GOMAXPROCS to match Linux container CPU quota.
		return nil
	}
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
