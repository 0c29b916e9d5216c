package main

import (
	"log"

	corecmd "github.com/m3rciful/insurebot/core/cmd"
	"github.com/m3rciful/insurebot/frontdesk/app"
)

func main() {
	err := corecmd.Run(corecmd.Options{
		DefaultConfigPath: "configs/insurebot.yaml",
		DotEnvFiles:       []string{".env"},
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			return app.Load(path)
		},
		Bootstrap: func(cfg corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
			return app.Bootstrap(cfg.(*app.Config))
		},
	})
	if err != nil {
		log.Fatalf("insurebot: %v", err)
	}
}
