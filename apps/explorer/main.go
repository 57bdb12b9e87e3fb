package main

import (
	"log"
	"os"
	"path/filepath"

	"github.com/lmsexplorer/lmsexplorer/core"
	"github.com/lmsexplorer/lmsexplorer/core/lms"
	logsvc "github.com/lmsexplorer/lmsexplorer/services/logger"
	"github.com/lmsexplorer/lmsexplorer/storage/profile"
	"github.com/lmsexplorer/lmsexplorer/storage/vault"
)

const profilesFile = "settings.ini"

func main() {
	defer os.Exit(0)

	conf := core.NewConfig()
	std := log.New(os.Stdout, conf.AppName+" : ", log.LstdFlags)

	var logger core.Logger
	if conf.RollbarToken != "" {
		logger = logsvc.NewRollbarLogger(std, conf)
	} else {
		logger = logsvc.NewStdLogger(std, conf.Debug)
	}

	if err := os.MkdirAll(conf.DataDir, 0700); err != nil {
		std.Fatal(err)
	}

	vlt := vault.New(conf.DataDir, logger)
	store := profile.NewStore(filepath.Join(conf.DataDir, profilesFile), vlt)
	if err := store.Load(); err != nil {
		std.Fatal(err)
	}

	validate, translator := core.NewValidator()
	profile.RegisterValidators(validate, translator)

	cli := commandLine{
		conf:     conf,
		logger:   logger,
		vault:    vlt,
		store:    store,
		network:  lms.NewNetwork(),
		validate: validate,
		out:      os.Stdout,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			std.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}
