package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/istaaklogisquare-source/ebook-bot-clean/cmd/ebookbot/app"
	"github.com/istaaklogisquare-source/ebook-bot-clean/configs"
)

func main() {
	env := os.Getenv("APP_ENV") // dev | staging | prod
	if env == "" {
		env = "dev"
	}

	cfg, err := configs.Load("configs", env)
	if err != nil {
		log.Fatal(err)
	}

	a, cleanup, err := app.InitWithConfig(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer cleanup()

	if err := a.Bot.Open(); err != nil {
		log.Fatal(err)
	}

	go func() {
		log.Printf("%s (%s) listening on %s", cfg.App.Name, env, cfg.App.HTTPAddr)
		if err := a.Router.Run(cfg.App.HTTPAddr); err != nil {
			log.Fatal(err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Println("shutting down")
}
