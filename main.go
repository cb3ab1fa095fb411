package main

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"go.uber.org/zap"

	"github.com/barangayportal/barangay-portal-api/api/handlers"
	"github.com/barangayportal/barangay-portal-api/api/scheduler"
	"github.com/barangayportal/barangay-portal-api/config"
	"github.com/barangayportal/barangay-portal-api/databases"
)

func main() {
	a := handlers.App{}
	a.Config = *config.New()

	if err := a.Initialize(); err != nil { //initialize database and router
		log.Fatal(err)
	}

	sweeper := &scheduler.OverdueSweeper{
		Cases:      databases.NewCaseDatabase(a.DBHelper()),
		Locks:      databases.NewSchedulerLockDatabase(a.DBHelper()),
		Notifier:   a.Notifier(),
		InstanceID: a.InstanceID,
	}
	c, err := sweeper.Start()
	if err != nil {
		log.Fatal(err)
	}
	a.Cron = c

	port := os.Getenv("PORT")
	baseURL := os.Getenv("BASE_URL")
	zap.S().Infow("barangay-portal-api is up and running",
		"port", port,
		"url", baseURL,
	)
	log.Fatal(http.ListenAndServe(fmt.Sprintf(":%v", port), a.Router))
}
