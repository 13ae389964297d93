/*
Author: Paul Côté
Last Change Author: Paul Côté
Last Date Changed: 2026/10/12
*/

package trafficd

import (
	"fmt"
	"log"
	"os"
	"path"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/SSSOC-CAN/trafficd/drivers"
	"github.com/SSSOC-CAN/trafficd/metrics"
	"github.com/SSSOC-CAN/trafficd/utils"
	"github.com/SSSOC-CAN/trafficd/watcher"
	flags "github.com/jessevdk/go-flags"
	e "github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"
)

// Config is the object which will hold all of the config parameters
type Config struct {
	DefaultLogDir   bool          `yaml:"DefaultLogDir"`
	LogFileDir      string        `yaml:"LogFileDir" long:"logfiledir" description:"Choose the directory where the log file is stored"`
	MaxLogFiles     int64         `yaml:"MaxLogFiles" long:"maxlogfiles" description:"Maximum number of logfiles in the log rotation (0 for no rotation)"`
	MaxLogFileSize  int64         `yaml:"MaxLogFileSize" long:"maxlogfilesize" description:"Maximum size of a logfile in MB"`
	ConsoleOutput   bool          `yaml:"ConsoleOutput" long:"consoleoutput" description:"Whether log information is printed to the console"`
	LogLevel        string        `yaml:"LogLevel" long:"loglevel" description:"Lowest level written to the logs (TRACE, DEBUG, INFO, WARN, ERROR)"`
	IndicatorPath   string        `yaml:"IndicatorPath" long:"indicator" description:"Character device of the signal indicator"`
	CrossingArmPath string        `yaml:"CrossingArmPath" long:"crossingarm" description:"Character device of the crossing arm servo"`
	AlarmPath       string        `yaml:"AlarmPath" long:"alarm" description:"Character device of the alarm buzzer"`
	SensorPath      string        `yaml:"SensorPath" long:"sensor" description:"Character device of the proximity sensor"`
	SensorThreshold uint8         `yaml:"SensorThreshold" long:"threshold" description:"A sample whose first byte is above this value preempts the cycle"`
	Demo            bool          `yaml:"Demo" long:"demo" description:"Run against simulated devices instead of the character devices"`
	DemoTripRate    float64       `yaml:"DemoTripRate" long:"demotriprate" description:"Probability that a simulated sample is above the threshold"`
	InfluxURL       string        `yaml:"InfluxURL" long:"influxurl" description:"InfluxDB server receiving the controller events. Recording is off when empty"`
	InfluxAPIToken  string        `yaml:"InfluxAPIToken" long:"influxtoken" description:"InfluxDB API token"`
	InfluxOrg       string        `yaml:"InfluxOrg" long:"influxorg" description:"InfluxDB organization"`
	InfluxBucket    string        `yaml:"InfluxBucket" long:"influxbucket" description:"InfluxDB bucket"`
	MetricsFile     string        `yaml:"MetricsFile" long:"metricsfile" description:"Node exporter textfile the metrics are written to. Export is off when empty"`
	MetricsInterval time.Duration `yaml:"MetricsInterval" long:"metricsinterval" description:"Interval between two metrics exports"`
}

// default_config returns the default configuration
// default_log_dir returns the default log directory
var (
	config_file_name string = "config.yaml"
	default_log_dir         = func() string {
		return utils.AppDataDir("trafficd", false)
	}
	default_log_file_size  int64   = 10
	default_max_log_files  int64   = 0
	default_log_level      string  = "INFO"
	default_demo_trip_rate float64 = 0.02
	default_influx_org     string  = "trafficd"
	default_influx_bucket  string  = "trafficd"
	default_config                 = func() Config {
		return Config{
			DefaultLogDir:   true,
			LogFileDir:      default_log_dir(),
			MaxLogFiles:     default_max_log_files,
			MaxLogFileSize:  default_log_file_size,
			ConsoleOutput:   true,
			LogLevel:        default_log_level,
			IndicatorPath:   drivers.DefaultEndpoints.Indicator,
			CrossingArmPath: drivers.DefaultEndpoints.CrossingArm,
			AlarmPath:       drivers.DefaultEndpoints.Alarm,
			SensorPath:      drivers.DefaultEndpoints.Sensor,
			SensorThreshold: watcher.DefaultThreshold,
			DemoTripRate:    default_demo_trip_rate,
			InfluxOrg:       default_influx_org,
			InfluxBucket:    default_influx_bucket,
			MetricsInterval: metrics.DefaultMetricsInterval,
		}
	}
)

// InitConfig returns the `Config` struct with either default values or values specified in `config.yaml`.
// Keys missing from the file keep their default value.
func InitConfig(isTesting bool) (Config, error) {
	// Check if trafficd directory exists, if no then create it
	if !utils.FileExists(default_log_dir()) {
		err := os.MkdirAll(default_log_dir(), 0700)
		if err != nil {
			log.Println(err)
		}
	}
	config := default_config()
	if utils.FileExists(path.Join(default_log_dir(), config_file_name)) {
		filename, _ := filepath.Abs(path.Join(default_log_dir(), config_file_name))
		config_file, err := os.ReadFile(filename)
		if err != nil {
			return Config{}, e.Wrapf(err, "could not read %s", filename)
		}
		err = yaml.Unmarshal(config_file, &config)
		if err != nil {
			return Config{}, e.Wrapf(err, "could not parse %s", filename)
		}
		// Need to check if any config parameters are blank in `config.yaml` and assign them a default value
		config = check_yaml_config(config)
	}
	// now to parse the flags
	if !isTesting {
		if _, err := flags.Parse(&config); err != nil {
			return Config{}, err
		}
	}
	if err := validateConfig(config); err != nil {
		return Config{}, err
	}
	return config, nil
}

// Endpoints returns the device paths of the config
func (c *Config) Endpoints() drivers.Endpoints {
	return drivers.Endpoints{
		Indicator:   c.IndicatorPath,
		CrossingArm: c.CrossingArmPath,
		Alarm:       c.AlarmPath,
		Sensor:      c.SensorPath,
	}
}

func validateConfig(config Config) error {
	if config.DemoTripRate < 0 || config.DemoTripRate > 1 {
		return e.Wrapf(ErrInvalidConfig, "DemoTripRate must be between 0 and 1, got %v", config.DemoTripRate)
	}
	if _, ok := log_level[strings.ToUpper(config.LogLevel)]; !ok {
		return e.Wrapf(ErrInvalidConfig, "unknown LogLevel %s", config.LogLevel)
	}
	if config.InfluxURL != "" && (config.InfluxOrg == "" || config.InfluxBucket == "") {
		return e.Wrap(ErrInvalidConfig, "InfluxOrg and InfluxBucket are required when InfluxURL is set")
	}
	return nil
}

// change_field changes the value of a specified field from the config struct
func change_field(field reflect.Value, new_value interface{}) {
	if field.IsValid() {
		if field.CanSet() {
			f := field.Kind()
			switch f {
			case reflect.String:
				if v, ok := new_value.(string); ok {
					field.SetString(v)
				} else {
					log.Fatal(fmt.Sprintf("Type of new_value: %v does not match the type of the field: string", new_value))
				}
			case reflect.Bool:
				if v, ok := new_value.(bool); ok {
					field.SetBool(v)
				} else {
					log.Fatal(fmt.Sprintf("Type of new_value: %v does not match the type of the field: bool", new_value))
				}
			case reflect.Int64:
				switch v := new_value.(type) {
				case int64:
					field.SetInt(v)
				case time.Duration:
					field.SetInt(int64(v))
				default:
					log.Fatal(fmt.Sprintf("Type of new_value: %v does not match the type of the field: int64", new_value))
				}
			}
		}
	}
}

// check_yaml_config iterates over the Config struct fields and changes blank fields to default values
func check_yaml_config(config Config) Config {
	pv := reflect.ValueOf(&config)
	v := pv.Elem()
	field_names := v.Type()
	for i := 0; i < v.NumField(); i++ {
		f := v.Field(i)
		field_name := field_names.Field(i).Name
		switch field_name {
		case "LogFileDir":
			if f.String() == "" {
				change_field(f, default_log_dir())
				dld := v.FieldByName("DefaultLogDir")
				change_field(dld, true)
			}
		case "MaxLogFileSize":
			if f.Int() == 0 {
				change_field(f, default_log_file_size)
			}
		case "LogLevel":
			if f.String() == "" {
				change_field(f, default_log_level)
			}
		case "IndicatorPath":
			if f.String() == "" {
				change_field(f, drivers.DefaultEndpoints.Indicator)
			}
		case "CrossingArmPath":
			if f.String() == "" {
				change_field(f, drivers.DefaultEndpoints.CrossingArm)
			}
		case "AlarmPath":
			if f.String() == "" {
				change_field(f, drivers.DefaultEndpoints.Alarm)
			}
		case "SensorPath":
			if f.String() == "" {
				change_field(f, drivers.DefaultEndpoints.Sensor)
			}
		case "InfluxOrg":
			if f.String() == "" {
				change_field(f, default_influx_org)
			}
		case "InfluxBucket":
			if f.String() == "" {
				change_field(f, default_influx_bucket)
			}
		case "MetricsInterval":
			if f.Int() <= 0 {
				change_field(f, metrics.DefaultMetricsInterval)
			}
		default:
			continue
		}
	}
	return config
}
