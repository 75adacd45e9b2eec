package main

import (
	"encoding/base64"
	"flag"
	"os"
	"time"

	easy "git.fiblab.net/utils/logrus-easy-formatter"
	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"github.com/smart-fm/simkernel/config"
	"github.com/smart-fm/simkernel/network/memnetwork"
	"github.com/smart-fm/simkernel/person"
	"github.com/smart-fm/simkernel/sim"
	"github.com/smart-fm/simkernel/store"
	"github.com/smart-fm/simkernel/utils/randengine"
)

var (
	configPath = flag.String("config", "", "config file path")
	configData = flag.String("config-data", "", "config file base64 encoded data")
	seed       = flag.Uint64("seed", 1, "random seed for trip-start jitter")

	logLevels = map[string]logrus.Level{
		"trace":    logrus.TraceLevel,
		"debug":    logrus.DebugLevel,
		"info":     logrus.InfoLevel,
		"warn":     logrus.WarnLevel,
		"error":    logrus.ErrorLevel,
		"critical": logrus.FatalLevel,
		"off":      logrus.PanicLevel,
	}
	logLevel = flag.String("log.level", "info", "log level (one of: trace debug info warn error critical off)")

	log = logrus.WithField("module", "main")
)

func loadConfig() (config.Config, error) {
	var file []byte
	var err error
	switch {
	case *configPath != "":
		file, err = os.ReadFile(*configPath)
	case *configData != "":
		file, err = base64.StdEncoding.DecodeString(*configData)
	default:
		log.Panic("config file or config data must be specified")
	}
	if err != nil {
		return config.Config{}, err
	}

	var c config.Config
	if err := yaml.UnmarshalStrict(file, &c); err != nil {
		return config.Config{}, err
	}
	return c, c.Validate()
}

func main() {
	flag.Parse()
	logrus.SetFormatter(&easy.Formatter{
		TimestampFormat: "2006-01-02 15:04:05.0000",
		LogFormat:       "[%module%] [%time%] [%lvl%] %msg%\n",
	})
	if level, ok := logLevels[*logLevel]; ok {
		logrus.SetLevel(level)
	} else {
		log.Panicf("log.level must be one of %v", logLevels)
	}

	cfg, err := loadConfig()
	if err != nil {
		log.Errorf("config load failed: %v", err)
		os.Exit(1)
	}
	log.Infof("loaded config: %+v", cfg)

	st, err := store.New(cfg.Input.URI, cfg.StoredProcedures)
	if err != nil {
		log.Errorf("store open failed: %v", err)
		os.Exit(1)
	}

	net, err := memnetwork.Load(st)
	if err != nil {
		log.Errorf("network load failed: %v", err)
		os.Exit(1)
	}

	rng := randengine.New(*seed)
	chains := store.NewChainBuilder(st, rng)
	personConfig := person.Config{
		BaseGranMs:      cfg.BaseGranMs,
		DynamicDispatch: cfg.DynamicDispatch,
		Strict:          cfg.Control.Strict,
		Resolver:        net,
	}

	d, err := sim.New(cfg, st, chains, personConfig, nil)
	if err != nil {
		log.Errorf("driver init failed: %v", err)
		os.Exit(1)
	}
	log.Infof("run %s: ready, %s total ticks", d.RunID, humanize.Comma(d.Clock().EndStep-d.Clock().StartStep))

	runStart := time.Now()
	runErr := d.Run(func(tick int64, clockString string) {
		elapsed := time.Since(runStart)
		log.Infof("STEP: %d (%s) - %s elapsed, started %s", tick, clockString,
			elapsed.Round(time.Second), humanize.RelTime(runStart, time.Now(), "ago", ""))
	})
	if closeErr := d.Close(); closeErr != nil {
		log.Warnf("store close failed: %v", closeErr)
	}
	if runErr != nil {
		log.Errorf("run failed: %v", runErr)
		os.Exit(1)
	}
}
