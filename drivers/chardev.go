package drivers

import (
	"io"
	"os"
)

// rewindingFile reads every sample from the start of a regular file. It lets the daemon run
// against plain files standing in for /dev endpoints.
type rewindingFile struct {
	*os.File
}

func (f rewindingFile) Read(p []byte) (int, error) {
	return f.File.ReadAt(p, 0)
}

// adcPort is the sensor port of the ADC character device. The driver copies the sample into the
// buffer but always reports a count of 0, which os.File turns into io.EOF. A read of that shape
// is a delivered sample.
type adcPort struct {
	Port
}

func (a adcPort) Read(p []byte) (int, error) {
	n, err := a.Port.Read(p)
	if n == 0 && err == io.EOF {
		return len(p), nil
	}
	return n, err
}

// OpenCharDevice opens the device file at path. The sensor is opened read only and the
// actuators write only.
func OpenCharDevice(ep Endpoint, path string) (Port, error) {
	flag := os.O_WRONLY
	if ep == Sensor {
		flag = os.O_RDONLY
	}
	f, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return nil, err
	}
	if ep != Sensor {
		return f, nil
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.Mode().IsRegular() {
		return rewindingFile{f}, nil
	}
	return adcPort{f}, nil
}
