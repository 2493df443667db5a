package messaging

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/samber/lo"
)

const (
	DriverNATS  = "nats"
	DriverKafka = "kafka"
	// DriverMemory is the in-process bus for a single instance.
	DriverMemory = "memory"
)

var ErrUnknownDriver = errors.New("messaging: unknown driver")

type FactoryOptions struct {
	Kafka KafkaConfig
	NATS  NATSConfig
}

var drivers = map[string]func(FactoryOptions) (Messaging, error){
	DriverKafka:  func(o FactoryOptions) (Messaging, error) { return NewKafka(o.Kafka) },
	DriverNATS:   func(o FactoryOptions) (Messaging, error) { return NewNATS(o.NATS) },
	DriverMemory: func(FactoryOptions) (Messaging, error) { return NewMemory(), nil },
}

// NewFromDriver builds the client for driver, one of the Driver constants.
func NewFromDriver(driver string, opts FactoryOptions) (Messaging, error) {
	build, ok := drivers[strings.ToLower(strings.TrimSpace(driver))]
	if !ok {
		known := lo.Keys(drivers)
		slices.Sort(known)
		return nil, fmt.Errorf("%w: %q (want one of %s)", ErrUnknownDriver, driver, strings.Join(known, ", "))
	}
	return build(opts)
}
