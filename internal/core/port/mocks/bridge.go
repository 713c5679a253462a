package mocks

import (
	"github.com/advanliempt/homebridge-hue/internal/core/port"
	"github.com/stretchr/testify/mock"
)

type BridgeRequesterMock struct {
	mock.Mock
}

func (m *BridgeRequesterMock) Request(method, path string, body map[string]any, done func(error)) {
	args := m.Called(method, path, body)
	done(args.Error(0))
}

var _ port.BridgeRequester = (*BridgeRequesterMock)(nil)
