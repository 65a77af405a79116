package main

import (
	"github.com/pressly/goose/v3"

	"github.com/gpatrack/gpatrack/storage/database"
)

var gooseRunFunc = goose.Run // mockable

func (cli *commandLine) migrate(args []string) error {
	if err := database.SetUpMigrations(cli.conf); err != nil {
		return err
	}
	return gooseRunFunc(args[0], cli.db, database.MigrationsDir(), args[1:]...)
}
