package mocks

import (
	"context"

	"ecomm-sync/core/crm"

	"github.com/stretchr/testify/mock"
)

// Client is a mock implementation of crm.Client
type Client struct {
	mock.Mock
}

func (m *Client) Send(ctx context.Context, method, path string, body any) *crm.Response {
	args := m.Called(ctx, method, path, body)
	return args.Get(0).(*crm.Response)
}
