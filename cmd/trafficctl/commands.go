package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/SSSOC-CAN/trafficd/drivers"
	"github.com/SSSOC-CAN/trafficd/health"
	"github.com/SSSOC-CAN/trafficd/phase"
	"github.com/urfave/cli"
	"github.com/xmidt-org/webpa-common/clock"
)

var (
	defaultSampleCount = 10
	demoPace           = 100 * time.Millisecond
)

// opener returns the device opener selected by the global flags
func opener(args *Args) drivers.Opener {
	if args.Demo {
		return drivers.NewDemoBench(clock.System(), demoPace, args.Threshold, args.DemoTripRate).Open
	}
	return drivers.OpenCharDevice
}

// printJSON writes v as indented JSON to the app writer
func printJSON(ctx *cli.Context, v interface{}) error {
	b, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(ctx.App.Writer, string(b))
	return err
}

var probeCommand = cli.Command{
	Name:  "probe",
	Usage: "Open and close every device twice",
	Description: `
	Opens the indicator, crossing arm, alarm and sensor, closes them and opens them again. Fails with the
	first endpoint which could not be opened or closed.`,
	Action: probe,
}

type probeResult struct {
	Round  int    `json:"round"`
	Opened bool   `json:"opened"`
	Closed bool   `json:"closed"`
	Error  string `json:"error,omitempty"`
}

func probe(ctx *cli.Context) error {
	args, err := extractArgs(ctx)
	if err != nil {
		return err
	}
	open := opener(args)
	var results []probeResult
	for round := 1; round <= 2; round++ {
		res := probeResult{Round: round}
		session, err := drivers.OpenAll(args.Endpoints, open)
		if err != nil {
			res.Error = err.Error()
			results = append(results, res)
			_ = printJSON(ctx, results)
			return err
		}
		res.Opened = true
		if err = session.CloseAll(); err != nil {
			res.Error = err.Error()
			results = append(results, res)
			_ = printJSON(ctx, results)
			return err
		}
		res.Closed = true
		results = append(results, res)
	}
	return printJSON(ctx, results)
}

var sampleCommand = cli.Command{
	Name:  "sample",
	Usage: "Read samples from the proximity sensor",
	Description: `
	Opens the devices, reads the given number of samples from the proximity sensor and reports which of
	them would preempt the signal cycle. Nothing is written to the actuators.`,
	Flags: []cli.Flag{
		cli.IntFlag{
			Name:  "count",
			Value: defaultSampleCount,
			Usage: "Number of samples to read",
		},
	},
	Action: sample,
}

type sampleResult struct {
	High  string `json:"high"`
	Low   string `json:"low"`
	Trips bool   `json:"trips"`
}

func sample(ctx *cli.Context) error {
	args, err := extractArgs(ctx)
	if err != nil {
		return err
	}
	count := ctx.Int("count")
	if count < 1 {
		return fmt.Errorf("count must be at least 1")
	}
	session, err := drivers.OpenAll(args.Endpoints, opener(args))
	if err != nil {
		return err
	}
	defer session.CloseAll()
	results := make([]sampleResult, 0, count)
	for i := 0; i < count; i++ {
		s, err := session.ReadSensor()
		if err != nil {
			return err
		}
		results = append(results, sampleResult{
			High:  fmt.Sprintf("%#04x", s[0]),
			Low:   fmt.Sprintf("%#04x", s[1]),
			Trips: s[0] > args.Threshold,
		})
	}
	return printJSON(ctx, results)
}

var scheduleCommand = cli.Command{
	Name:  "schedule",
	Usage: "Print the signal cycle",
	Description: `
	Prints every phase of the signal cycle with its indicator code, crossing arm command and dwell.`,
	Action: schedule,
}

type scheduleEntry struct {
	Phase       string `json:"phase"`
	Indicator   string `json:"indicator"`
	CrossingArm string `json:"crossing_arm,omitempty"`
	Dwell       string `json:"dwell"`
}

func schedule(ctx *cli.Context) error {
	entries := make([]scheduleEntry, 0, len(phase.Cycle))
	for _, p := range phase.Cycle {
		entry := scheduleEntry{
			Phase:     p.String(),
			Indicator: p.IndicatorCode(),
			Dwell:     p.Dwell().String(),
		}
		switch p {
		case phase.Red:
			entry.CrossingArm = "lower"
		case phase.Green:
			entry.CrossingArm = "raise"
		}
		entries = append(entries, entry)
	}
	return printJSON(ctx, entries)
}

var healthCommand = cli.Command{
	Name:  "health",
	Usage: "Check that the devices can be opened and respond",
	Description: `
	Opens the devices, runs the health check of the device session and closes them again.`,
	Action: checkHealth,
}

type healthResult struct {
	Name  string `json:"name"`
	State string `json:"state"`
	Error string `json:"error,omitempty"`
}

func checkHealth(ctx *cli.Context) error {
	args, err := extractArgs(ctx)
	if err != nil {
		return err
	}
	session, err := drivers.OpenAll(args.Endpoints, opener(args))
	if err != nil {
		return err
	}
	defer session.CloseAll()
	h := health.NewHealthService()
	if err = h.RegisterHealthService("drivers", session); err != nil {
		return err
	}
	updates, err := h.Check(context.Background(), "all")
	if err != nil {
		return err
	}
	results := make([]healthResult, 0, len(updates))
	for _, u := range updates {
		r := healthResult{Name: u.Name, State: u.State.String()}
		if u.Err != nil {
			r.Error = u.Err.Error()
		}
		results = append(results, r)
	}
	return printJSON(ctx, results)
}
