package main

import (
	"context"
	"log"
	"os"

	"github.com/lmsexplorer/lmsexplorer/core"
	"github.com/lmsexplorer/lmsexplorer/core/platform"
	logsvc "github.com/lmsexplorer/lmsexplorer/services/logger"
	"github.com/lmsexplorer/lmsexplorer/storage/database"
	"github.com/lmsexplorer/lmsexplorer/storage/database/inmem"
)

func main() {
	conf := core.NewConfig()

	std := log.New(os.Stdout, conf.AppName+" - MANAGER : ", log.LstdFlags|log.Lshortfile)

	var logger core.Logger
	if conf.RollbarToken != "" {
		logger = logsvc.NewRollbarLogger(std, conf)
	} else {
		logger = logsvc.NewStdLogger(std, conf.Debug)
	}

	validate, translator := core.NewValidator()

	// set up the platform repository; DEV runs off an in-memory table
	var repo platform.Repository
	if conf.Debug {
		repo = inmem.NewPlatformRepository()
	} else {
		db, err := database.Open(conf)
		if err != nil {
			std.Fatal(err)
		}
		defer db.Close()
		repo = database.NewPlatformRepository(db)
	}

	pltSvc := platform.NewService(repo, validate, translator)

	app := newServer(&serverOptions{
		Conf:        conf,
		Logger:      logger,
		PlatformSvc: pltSvc,
		Validate:    validate,
		Translator:  translator,
	})

	go app.Start()

	// block until a signal (or a caught shutdown error) asks us to stop,
	// then give outstanding requests a deadline for completion
	sig := <-app.ShutdownSignal()
	std.Printf("%v: start shutdown...", sig)

	ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
	defer cancel()

	if err := app.Stop(ctx); err != nil {
		std.Fatalf("could not stop server gracefully: %v", err)
	}
}
