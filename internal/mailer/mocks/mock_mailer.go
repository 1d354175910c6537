package mocks

import (
	"github.com/stretchr/testify/mock"
)

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendReport(to, subject, body, filename string, attachment []byte) error {
	args := m.Called(to, subject, body, filename, attachment)
	return args.Error(0)
}
