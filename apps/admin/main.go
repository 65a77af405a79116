package main

import (
	"context"
	"log"
	"os"

	"github.com/gpatrack/gpatrack/core"
	"github.com/gpatrack/gpatrack/core/course"
	"github.com/gpatrack/gpatrack/storage/database"
	sqlxrepos "github.com/gpatrack/gpatrack/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf, err := core.NewConfig()
	errAndDie(err)

	// set up DB
	db, err := database.Open(conf)
	errAndDie(err)
	errAndDie(db.PingContext(context.Background()))

	// start CLI
	cli := commandLine{
		conf:      conf,
		db:        db.DB,
		usrRepo:   sqlxrepos.NewUserRepository(db),
		courseSvc: course.NewService(sqlxrepos.NewCourseRepository(db)),
	}
	err = cli.run(os.Args)
	_ = db.Close()
	if err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %+v\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatalf("%+v", err)
	}
}
