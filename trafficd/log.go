/*
Author: Paul Côté
Last Change Author: Paul Côté
Last Date Changed: 2026/10/12
*/

package trafficd

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/SSSOC-CAN/trafficd/utils"
	"github.com/mattn/go-colorable"
	color "github.com/mgutz/ansi"
	"github.com/rs/zerolog"
)

const (
	logFileRoot = "logfile"
	logFileExt  = "log"
	logFileName = "logfile.log"
)

// subLogger is a thin-wrapper for the `zerolog.Logger` struct
type subLogger struct {
	SubLogger zerolog.Logger
	Subsystem string
}

type moddedFileWriter struct {
	sync.Mutex
	File         *os.File
	maxFileSize  int64 // bytes
	maxFiles     int64
	fileNameRoot string // must include path if not in current directory
	fileExt      string
	pathToFile   string
}

// Write Implements the io.Writer interface. Once the current file would exceed maxFileSize the next
// file of the rotation is started: logfile.log, logfile1.log, ... logfile<maxFiles-1>.log and back to
// logfile.log. With maxFiles set to 0 the file is never rotated.
func (w *moddedFileWriter) Write(p []byte) (n int, err error) {
	w.Lock()
	defer w.Unlock()
	if w.maxFiles == 0 || w.maxFileSize <= 0 {
		return w.File.Write(p)
	}
	stat, err := w.File.Stat()
	if err != nil {
		return 0, err
	}
	// Check if maximum file size if exceeded
	if stat.Size()+int64(len(p)) > w.maxFileSize {
		// get current file name number
		r, err := regexp.Compile(fmt.Sprintf("%s([0-9]+)", w.fileNameRoot))
		if err != nil {
			return 0, err
		}
		matches := r.FindStringSubmatch(stat.Name())
		var (
			fileNum int64
		)
		if len(matches) > 1 {
			fileNum, err = strconv.ParseInt(matches[1], 10, 64)
			if err != nil {
				return 0, err
			}
		}
		// Close current file and delete new file if it already exists
		w.File.Close()
		var newFileName string
		if fileNum >= w.maxFiles-1 {
			newFileName = fmt.Sprintf("%s.%s", w.fileNameRoot, w.fileExt)
		} else {
			newFileName = fmt.Sprintf("%s%v.%s", w.fileNameRoot, fileNum+int64(1), w.fileExt)
		}
		newPath := filepath.Join(w.pathToFile, newFileName)
		if utils.FileExists(newPath) {
			err = os.Remove(newPath)
			if err != nil {
				return 0, err
			}
		}
		newFile, err := os.OpenFile(newPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0775)
		if err != nil {
			return 0, err
		}
		w.File = newFile
	}
	return w.File.Write(p)
}

// log_level is a mapping of log levels as strings to structs from the zerolog package
var log_level = map[string]zerolog.Level{
	"TRACE": zerolog.TraceLevel,
	"DEBUG": zerolog.DebugLevel,
	"INFO":  zerolog.InfoLevel,
	"WARN":  zerolog.WarnLevel,
	"ERROR": zerolog.ErrorLevel,
	"FATAL": zerolog.FatalLevel,
	"PANIC": zerolog.PanicLevel,
}

// formatLevel colors the level label of the console output
func formatLevel(i interface{}) string {
	var msg string
	x := fmt.Sprintf("%v", i)
	switch x {
	case "info":
		msg = color.Color(strings.ToUpper("["+x+"]"), "green")
	case "panic", "fatal", "error":
		msg = color.Color(strings.ToUpper("["+x+"]"), "red")
	case "warn", "debug":
		msg = color.Color(strings.ToUpper("["+x+"]"), "yellow")
	case "trace":
		msg = color.Color(strings.ToUpper("["+x+"]"), "magenta")
	default:
		msg = strings.ToUpper("[" + x + "]")
	}
	return msg + "\t"
}

// InitLogger creates a new instance of the `zerolog.Logger` type. If `ConsoleOutput` is true, it will output the logs to the console as well as the logfile
func InitLogger(config *Config) (zerolog.Logger, error) {
	var (
		log_file *os.File
		err      error
		logger   zerolog.Logger
	)
	level, ok := log_level[strings.ToUpper(config.LogLevel)]
	if !ok {
		return zerolog.Logger{}, fmt.Errorf("log: Log level %v not found.", config.LogLevel)
	}
	log_file, err = os.OpenFile(filepath.Join(config.LogFileDir, logFileName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0775)
	if err != nil {
		// try to create the log dir and try again if log dir is default log dir
		if config.DefaultLogDir {
			err = os.MkdirAll(config.LogFileDir, 0775)
			if err != nil {
				return zerolog.Logger{}, err
			}
			log_file, err = os.OpenFile(filepath.Join(config.LogFileDir, logFileName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0775)
			if err != nil {
				return zerolog.Logger{}, err
			}
		} else {
			return zerolog.Logger{}, err
		}
	}
	// use new modified writer
	modded_file := &moddedFileWriter{
		File:         log_file,
		maxFileSize:  config.MaxLogFileSize * 1000000, // converting to Bytes
		maxFiles:     config.MaxLogFiles,
		fileNameRoot: logFileRoot,
		fileExt:      logFileExt,
		pathToFile:   config.LogFileDir,
	}
	if config.ConsoleOutput {
		output := zerolog.NewConsoleWriter()
		if runtime.GOOS == "windows" {
			output.Out = colorable.NewColorableStdout()
		} else {
			output.Out = os.Stderr
		}
		output.FormatLevel = formatLevel
		multi := zerolog.MultiLevelWriter(output, modded_file)
		logger = zerolog.New(multi).Level(level).With().Timestamp().Logger()
	} else {
		logger = zerolog.New(modded_file).Level(level).With().Timestamp().Logger()
	}
	return logger, nil
}

// NewSubLogger takes a `zerolog.Logger` and string for the name of the subsystem and creates a `subLogger` for this subsystem
func NewSubLogger(l *zerolog.Logger, subsystem string) *subLogger {
	sub := l.With().Str("subsystem", subsystem).Logger()
	s := subLogger{
		SubLogger: sub,
		Subsystem: subsystem,
	}
	return &s
}
