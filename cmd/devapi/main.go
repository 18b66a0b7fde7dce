package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/huntlog/internal/buildinfo"
	"github.com/dmitrijs2005/huntlog/internal/devapi"
	"github.com/dmitrijs2005/huntlog/internal/devapi/config"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	cfg := config.LoadConfig()
	app := devapi.NewApp(cfg)

	if err := app.Run(context.Background()); err != nil {
		log.Fatalf("%v", err)
	}

}
