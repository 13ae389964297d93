package api

// Service is a long running part of the daemon which Main starts and stops
type Service interface {
	Start() error
	Stop() error
	Name() string
}

// LoopService is a Service whose loop can fail. Fatal errors are delivered on the returned channel
// and the loop exits afterwards.
type LoopService interface {
	Service
	Errors() <-chan error
}
