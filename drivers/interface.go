package drivers

import (
	"io"
)

// DriverConnection interface defines a generic type with a Close() function
type DriverConnection interface {
	Close() error
}

// Endpoint names one of the four logical devices the daemon drives
type Endpoint string

const (
	Indicator   Endpoint = "indicator"
	CrossingArm Endpoint = "crossing-arm"
	Alarm       Endpoint = "alarm"
	Sensor      Endpoint = "sensor"
)

// Direction is the single byte command understood by the crossing arm and alarm drivers
type Direction byte

const (
	// Lower engages the crossing arm or stops the alarm
	Lower Direction = 'a'
	// Raise clears the crossing arm or starts the alarm
	Raise Direction = 'b'
)

var (
	// IndicatorWidth is the fixed size of every indicator code written to the driver
	IndicatorWidth = 10
	// SampleSize is the number of bytes in one proximity sensor sample
	SampleSize = 2
	// DefaultEndpoints are the character devices registered by the kernel drivers
	DefaultEndpoints = Endpoints{
		Indicator:   "/dev/led_driver",
		CrossingArm: "/dev/servo_driver",
		Alarm:       "/dev/buzz_driver",
		Sensor:      "/dev/adc_driver",
	}
)

// Port is an open handle on a device endpoint
type Port interface {
	io.Reader
	io.Writer
	io.Closer
}

// Opener opens the endpoint found at path
type Opener func(ep Endpoint, path string) (Port, error)

// Endpoints maps each logical device to the path it is opened from
type Endpoints struct {
	Indicator   string
	CrossingArm string
	Alarm       string
	Sensor      string
}

// ordered returns the endpoints in the order they are opened and closed
func (e Endpoints) ordered() []struct {
	ep   Endpoint
	path string
} {
	return []struct {
		ep   Endpoint
		path string
	}{
		{Indicator, e.Indicator},
		{CrossingArm, e.CrossingArm},
		{Alarm, e.Alarm},
		{Sensor, e.Sensor},
	}
}
