package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/tlindqvist/udsd/pkg/can"
	_ "github.com/tlindqvist/udsd/pkg/can/socketcan"
	_ "github.com/tlindqvist/udsd/pkg/can/virtual"
	"github.com/tlindqvist/udsd/pkg/config"
	"github.com/tlindqvist/udsd/pkg/isotp"
	"github.com/tlindqvist/udsd/pkg/uds"
)

var DEFAULT_CAN_INTERFACE = "vcan0"
var DEFAULT_CONFIG_PATH = "udsd.ini"

func main() {
	log.SetLevel(log.DebugLevel)

	canInterface := flag.String("i", DEFAULT_CAN_INTERFACE, "can interface, e.g. can0,vcan0")
	interfaceType := flag.String("t", "socketcan", "driver backend: socketcan,virtual")
	configPath := flag.String("c", DEFAULT_CONFIG_PATH, "engine configuration ini file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("error loading config %v : %v\n", *configPath, err)
		os.Exit(1)
	}

	driver, err := can.NewDriver(*interfaceType, *canInterface)
	if err != nil {
		fmt.Printf("could not connect to interface %v : %v\n", *canInterface, err)
		os.Exit(1)
	}
	if err := driver.Connect(); err != nil {
		fmt.Printf("could not connect driver : %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	physical := isotp.NewLink(logger, driver, cfg.PhysicalRxID+8)
	functional := isotp.NewLink(logger, driver, cfg.FunctionalRxID+8)

	handlers := exampleHandlers()

	server, err := uds.NewServer(cfg, handlers, driver, physical, functional, logger, nowMs)
	if err != nil {
		fmt.Printf("failed to initialize server : %v\n", err)
		os.Exit(1)
	}

	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()
	for range ticker.C {
		server.Poll()
	}
}

// nowMs is the monotonic millisecond time source spec §6 requires: the
// milliseconds elapsed since processStart.
var processStart = time.Now()

func nowMs() uint32 {
	return uint32(time.Since(processStart).Milliseconds())
}
