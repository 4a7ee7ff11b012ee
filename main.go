package main

import (
	"github.com/readwith/readwith/config"
	"github.com/readwith/readwith/models"
	"github.com/readwith/readwith/routes"
	"github.com/readwith/readwith/utils"
)

func main() {
	cfg := config.Load()

	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(
		&models.User{},
		&models.SupportTicket{},
		&models.ParentPost{},
		&models.ReadingPost{},
	)

	r := routes.SetupRouter(db)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
