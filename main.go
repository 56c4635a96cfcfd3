package main

import (
	"embed"
	"log"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	"github.com/chazu/cadpath/pkg/config"
	"github.com/chazu/cadpath/pkg/feature/sqlite"
)

//go:embed all:frontend/dist
var assets embed.FS

func main() {
	settings := config.Default()
	if p, err := config.DefaultPath(); err == nil {
		if settings, err = config.Load(p); err != nil {
			log.Fatalf("loading settings: %v", err)
		}
	}

	var db *sqlite.DB
	if settings.Database != "" {
		var err error
		if db, err = sqlite.Open(settings.Database); err != nil {
			log.Fatalf("opening %s: %v", settings.Database, err)
		}
	}

	app := NewAppWithSettings(settings, db)

	err := wails.Run(&options.App{
		Title:  "cadpath",
		Width:  1280,
		Height: 800,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		OnStartup:  app.startup,
		OnShutdown: app.shutdown,
		Bind: []interface{}{
			app,
		},
	})
	if err != nil {
		log.Fatalf("wails: %v", err)
	}
}
