package dispatcher

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/onepost/notifier/internal/gateway"
	"github.com/onepost/notifier/internal/ierr"
	"github.com/onepost/notifier/internal/presence"
	"github.com/onepost/notifier/internal/wire"
	"go.uber.org/zap"
)

type Status string

const (
	StatusDelivered Status = "delivered"
	StatusSkipped   Status = "skipped"
)

type SkipReason string

const (
	SkipReasonNotConnected SkipReason = "not_connected"
	SkipReasonSlowConsumer SkipReason = "slow_consumer"
)

// Outcome of a delivery attempt. A skipped delivery is an expected result, not a failure.
type Outcome struct {
	Status Status     `json:"status"`
	Reason SkipReason `json:"reason,omitempty"`
}

func Delivered() Outcome {
	return Outcome{Status: StatusDelivered}
}

func Skipped(reason SkipReason) Outcome {
	return Outcome{Status: StatusSkipped, Reason: reason}
}

func (o Outcome) IsDelivered() bool {
	return o.Status == StatusDelivered
}

type Pusher interface {
	Push(connectionId string, frame wire.Frame) error
}

type DispatcherInterface interface {
	Deliver(userId string, payload any) (Outcome, error)
}

// Dispatcher pushes notifications to users that currently hold an identified connection.
// Delivery is best effort: nothing is queued or retried.
type Dispatcher struct {
	logger   *zap.Logger
	registry presence.Registry
	pusher   Pusher
}

func NewDispatcher(
	logger *zap.Logger,
	registry presence.Registry,
	pusher Pusher,
) *Dispatcher {
	return &Dispatcher{
		logger,
		registry,
		pusher,
	}
}

func (d *Dispatcher) Deliver(userId string, payload any) (Outcome, error) {
	if strings.TrimSpace(userId) == "" {
		return Outcome{}, d.invalidRequest(userId, errors.New("userId is required"))
	}

	if isNil(payload) {
		return Outcome{}, d.invalidRequest(userId, errors.New("payload is required"))
	}

	connectionId, ok := d.registry.Get(userId)
	if !ok {
		d.logger.Debug("user not connected, skipping delivery",
			zap.String("userId", userId))

		return Skipped(SkipReasonNotConnected), nil
	}

	frame, err := wire.NewFrame(wire.EventNewNotification, payload)
	if err != nil {
		return Outcome{}, d.invalidRequest(userId, fmt.Errorf("payload is not serializable: %w", err))
	}

	err = d.pusher.Push(connectionId, frame)

	switch {
	case err == nil:
		d.logger.Debug("notification delivered",
			zap.String("userId", userId),
			zap.String("connectionId", connectionId))

		return Delivered(), nil
	case errors.Is(err, gateway.ErrSlowConsumer):
		return Skipped(SkipReasonSlowConsumer), nil
	default:
		d.logger.Debug("connection gone before push, skipping delivery",
			zap.String("userId", userId),
			zap.String("connectionId", connectionId),
			zap.Error(err))

		return Skipped(SkipReasonNotConnected), nil
	}
}

func (d *Dispatcher) invalidRequest(userId string, cause error) error {
	err := ierr.New(ierr.ErrorCodeInvalidDeliveryRequest, cause)

	d.logger.Error("invalid delivery request",
		zap.String("userId", userId),
		zap.Error(err))

	return err
}

func isNil(v any) bool {
	if v == nil {
		return true
	}

	value := reflect.ValueOf(v)
	switch value.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return value.IsNil()
	default:
		return false
	}
}
