package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/brutella/hc/log"
	"github.com/brutella/hc/util"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/cloudkucooland/hivebridge"
	"github.com/cloudkucooland/hivebridge/config"
)

func main() {
	var dir, file string

	app := cli.App{
		Name:  "hivebridge",
		Usage: "expose Hive heating and hot water to HomeKit",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "dir",
				Value:       "config",
				Usage:       "configuration directory",
				Destination: &dir,
			},
			&cli.StringFlag{
				Name:        "config",
				Value:       "server.json",
				Usage:       "configuration file",
				Destination: &file,
			},
		},
		Action: func(c *cli.Context) error {
			fulldir, err := filepath.Abs(dir)
			if err != nil {
				log.Info.Panic("unable to get config directory", dir)
			}
			cfd := filepath.Join(fulldir, file)
			raw, err := os.ReadFile(cfd)
			if err != nil {
				log.Info.Panic("unable to open config: ", cfd)
			}

			var conf config.Config
			if err := json.Unmarshal(raw, &conf); err != nil {
				log.Info.Panic(err, string(raw))
			}
			conf.ConfigDir = fulldir
			conf.ConfigFile = cfd
			conf.Defaults()

			if conf.EnableDebugLog {
				log.Debug.Enable()
				logrus.SetLevel(logrus.DebugLevel)
			}

			// pairing data and the accessory cache live together
			if conf.HCConfig.StoragePath == "" {
				conf.HCConfig.StoragePath = filepath.Join(fulldir, "db")
			}
			storage, err := util.NewFileStorage(conf.HCConfig.StoragePath)
			if err != nil {
				log.Info.Panic(err)
			}

			bridge, err := hivebridge.Bootstrap(&conf, storage, hivebridge.Sessions(&conf))
			if err != nil {
				log.Info.Panic(err)
			}

			// run all the background processes
			bridge.Background()

			// wait for signal to shut down
			sigch := make(chan os.Signal, 3)
			signal.Notify(sigch, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM, syscall.SIGHUP, os.Interrupt)

			sig := <-sigch
			log.Info.Printf("shutdown requested by signal: %s", sig)
			bridge.Shutdown()
			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Info.Panic(err)
	}
}
