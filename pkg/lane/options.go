package lane

import (
	"time"

	"github.com/sirupsen/logrus"
)

type Options struct {
	Name            string
	Workers         int
	QueueCapacity   int
	ShutdownTimeout time.Duration

	Logger *logrus.Entry
}

func (o *Options) setDefaults() {
	if o.Name == "" {
		o.Name = "pda-sync"
	}
	if o.Workers == 0 {
		o.Workers = 1
	}
	if o.QueueCapacity == 0 {
		o.QueueCapacity = 2
	}
	if o.ShutdownTimeout == 0 {
		o.ShutdownTimeout = 30 * time.Second
	}
}
