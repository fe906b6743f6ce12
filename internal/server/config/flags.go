package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/swappy/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   listen address (e.g., ":8443")
//	-t string   bot token
//	-w string   public https base for the webhook
//	-u string   mini-app url
//	-m int      maintainer user id
//	-b string   store backend: redis, postgres or memory
//	-r string   redis url
//	-d string   PostgreSQL DSN
//	-i int      init-data max age, minutes
//	-e int      edit link validity, hours
//	-k string   ad retention: retain or retract
//	-l string   log level
//
// Only the flags above are taken from os.Args; -c/-config belongs to the
// JSON loader.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-t", "-w", "-u", "-m", "-b", "-r", "-d", "-i", "-e", "-k", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.ListenAddr, "a", config.ListenAddr, "address and port to listen on")
	fs.StringVar(&config.BotToken, "t", config.BotToken, "bot token")
	fs.StringVar(&config.BotDomain, "w", config.BotDomain, "public https base for the webhook")
	fs.StringVar(&config.AppURL, "u", config.AppURL, "mini-app url")
	fs.Int64Var(&config.MaintainerID, "m", config.MaintainerID, "maintainer user id")
	fs.StringVar(&config.StoreBackend, "b", config.StoreBackend, "store backend (redis, postgres, memory)")
	fs.StringVar(&config.RedisURL, "r", config.RedisURL, "redis url")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")

	initDataMaxAge := fs.Int("i", int(config.InitDataMaxAge.Minutes()), "init data max age (in minutes)")
	editTokenValidity := fs.Int("e", int(config.EditTokenValidity.Hours()), "edit link validity (in hours)")

	fs.StringVar(&config.AdRetention, "k", config.AdRetention, "ad retention (retain, retract)")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	// durations given in other units elsewhere survive unless overridden
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "i":
			config.InitDataMaxAge = time.Duration(*initDataMaxAge) * time.Minute
		case "e":
			config.EditTokenValidity = time.Duration(*editTokenValidity) * time.Hour
		}
	})
}
