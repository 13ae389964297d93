package main

import (
	"fmt"
	"os"

	"github.com/SSSOC-CAN/trafficd/drivers"
	"github.com/SSSOC-CAN/trafficd/utils"
	"github.com/SSSOC-CAN/trafficd/watcher"
	"github.com/urfave/cli"
)

type Args struct {
	Endpoints    drivers.Endpoints
	Threshold    byte
	Demo         bool
	DemoTripRate float64
}

// fatal exits the process and prints out error information
func fatal(err error) {
	fmt.Fprintf(os.Stderr, "[trafficctl] %v\n", err)
	os.Exit(1)
}

// extractArgs extracts the global arguments inputted to the trafficctl command
func extractArgs(ctx *cli.Context) (*Args, error) {
	threshold := ctx.GlobalInt("threshold")
	if threshold < 0 || threshold > 0xff {
		return nil, fmt.Errorf("threshold %v does not fit in a byte", threshold)
	}
	return &Args{
		Endpoints: drivers.Endpoints{
			Indicator:   ctx.GlobalString("indicator"),
			CrossingArm: ctx.GlobalString("crossingarm"),
			Alarm:       ctx.GlobalString("alarm"),
			Sensor:      ctx.GlobalString("sensor"),
		},
		Threshold:    byte(threshold),
		Demo:         ctx.GlobalBool("demo"),
		DemoTripRate: ctx.GlobalFloat64("demotriprate"),
	}, nil
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "trafficctl"
	app.Usage = "Local diagnostics for the traffic controller devices. Do not run while trafficd is running"
	app.Version = utils.AppVersion
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:      "indicator",
			Value:     drivers.DefaultEndpoints.Indicator,
			Usage:     "Character device of the signal indicator",
			TakesFile: true,
		},
		cli.StringFlag{
			Name:      "crossingarm",
			Value:     drivers.DefaultEndpoints.CrossingArm,
			Usage:     "Character device of the crossing arm servo",
			TakesFile: true,
		},
		cli.StringFlag{
			Name:      "alarm",
			Value:     drivers.DefaultEndpoints.Alarm,
			Usage:     "Character device of the alarm buzzer",
			TakesFile: true,
		},
		cli.StringFlag{
			Name:      "sensor",
			Value:     drivers.DefaultEndpoints.Sensor,
			Usage:     "Character device of the proximity sensor",
			TakesFile: true,
		},
		cli.IntFlag{
			Name:  "threshold",
			Value: int(watcher.DefaultThreshold),
			Usage: "A sample whose first byte is above this value trips the preemption",
		},
		cli.BoolFlag{
			Name:  "demo",
			Usage: "Use simulated devices",
		},
		cli.Float64Flag{
			Name:  "demotriprate",
			Value: 0.1,
			Usage: "Probability that a simulated sample is above the threshold",
		},
	}
	app.Commands = []cli.Command{
		probeCommand,
		sampleCommand,
		scheduleCommand,
		healthCommand,
	}
	return app
}

// main is the entrypoint for trafficctl
func main() {
	if err := newApp().Run(os.Args); err != nil {
		fatal(err)
	}
}
