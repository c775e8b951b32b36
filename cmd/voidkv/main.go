// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/nhr-fau/voidkv/internal/config"
	"github.com/nhr-fau/voidkv/internal/corelog"
	"github.com/nhr-fau/voidkv/internal/voidserver"
)

func main() {
	var flagConfigFile, flagDatabaseFile, flagLogLevel string
	flag.StringVar(&flagConfigFile, "config", "", "Path to the `config.toml` file (default: platform config dir)")
	flag.StringVar(&flagConfigFile, "c", "", "Shorthand for -config")
	flag.StringVar(&flagDatabaseFile, "database", "", "Path to the snapshot file (default: platform data dir)")
	flag.StringVar(&flagDatabaseFile, "d", "", "Shorthand for -database")
	flag.StringVar(&flagLogLevel, "log-level", "info", "One of: debug, info, warn, err, crit")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "voidkv: an in-memory, authenticated key-value store\n\n")
		fmt.Fprintf(os.Stderr, "Usage: %s [flags]\n\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	corelog.SetLogLevel(flagLogLevel)

	configPath := flagConfigFile
	if configPath == "" {
		p, err := config.DefaultConfigPath()
		if err != nil {
			corelog.Fatalf("resolve config path: %s", err)
		}
		configPath = p
	}

	snapshotPath := flagDatabaseFile
	if snapshotPath == "" {
		p, err := config.DefaultSnapshotPath()
		if err != nil {
			corelog.Fatalf("resolve snapshot path: %s", err)
		}
		snapshotPath = p
	}

	if err := voidserver.Run(voidserver.Options{
		ConfigPath:   configPath,
		SnapshotPath: snapshotPath,
	}); err != nil {
		corelog.Fatalf("%s", err)
	}
}
