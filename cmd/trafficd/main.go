package main

import (
	"fmt"
	"os"

	"github.com/SSSOC-CAN/trafficd/intercept"
	"github.com/SSSOC-CAN/trafficd/trafficd"
)

// main is the entry point for the traffic controller daemon. It exits with 1 on a startup failure,
// a device failure at runtime or a failed teardown.
func main() {
	config, err := trafficd.InitConfig(false)
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log, err := trafficd.InitLogger(&config)
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	shutdownInterceptor, err := intercept.InitInterceptor(&log)
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	server, err := trafficd.InitServer(&config, &log)
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err = trafficd.Main(shutdownInterceptor, server); err != nil {
		log.Error().Msgf("trafficd exiting: %v", err)
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
