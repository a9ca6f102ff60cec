// Package mocks holds testify doubles for the collaborators that sit
// behind post-commit hooks.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/healthsync/healthsync-api/internal/model"
)

type Sender struct {
	mock.Mock
}

func (m *Sender) Send(ctx context.Context, n model.Notification) model.NotificationResult {
	args := m.Called(ctx, n)
	return args.Get(0).(model.NotificationResult)
}

// Sent returns every notification passed to Send.
func (m *Sender) Sent() []model.Notification {
	var out []model.Notification
	for _, call := range m.Calls {
		if call.Method == "Send" {
			out = append(out, call.Arguments.Get(1).(model.Notification))
		}
	}
	return out
}

type Broker struct {
	mock.Mock
}

func (m *Broker) Publish(ctx context.Context, channel string, message interface{}) error {
	args := m.Called(ctx, channel, message)
	return args.Error(0)
}

func (m *Broker) Close() error {
	args := m.Called()
	return args.Error(0)
}

// Channels returns the channels of every Publish call in order.
func (m *Broker) Channels() []string {
	var out []string
	for _, call := range m.Calls {
		if call.Method == "Publish" {
			out = append(out, call.Arguments.String(1))
		}
	}
	return out
}

// Delivered is the result a working mail server reports.
var Delivered = model.NotificationResult{Status: model.NotificationStatusSuccess, Message: "Email sent successfully"}

// Undelivered is the result of a failing mail server.
var Undelivered = model.NotificationResult{Status: model.NotificationStatusFailure, Message: "connection refused"}
