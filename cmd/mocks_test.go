package cmd

import (
	"github.com/stretchr/testify/mock"

	"github.com/karolswdev/promptforge/internal/config"
	"github.com/karolswdev/promptforge/internal/schema"
)

// --- Mock ConfigProvider ---

type MockConfigProvider struct {
	mock.Mock
}

// LoadConfig matches ConfigProvider interface
func (m *MockConfigProvider) LoadConfig() (*config.AppConfig, error) {
	args := m.Called()
	cfg, _ := args.Get(0).(*config.AppConfig)
	return cfg, args.Error(1)
}

// LoadSchema matches ConfigProvider interface
func (m *MockConfigProvider) LoadSchema() (*schema.Schema, error) {
	args := m.Called()
	s, _ := args.Get(0).(*schema.Schema)
	return s, args.Error(1)
}

// LoadSystemPrompt matches ConfigProvider interface
func (m *MockConfigProvider) LoadSystemPrompt() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

// CreateDefaultConfigFiles matches ConfigProvider interface
func (m *MockConfigProvider) CreateDefaultConfigFiles() error {
	args := m.Called()
	return args.Error(0)
}

// EnsureConfigDir matches ConfigProvider interface
func (m *MockConfigProvider) EnsureConfigDir() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

// --- Mock KeyringClient ---

type MockKeyringClient struct {
	mock.Mock
}

// Set matches KeyringClient interface
func (m *MockKeyringClient) Set(secret config.Secret, value string) error {
	args := m.Called(secret, value)
	return args.Error(0)
}

// Get matches KeyringClient interface
func (m *MockKeyringClient) Get(secret config.Secret) (string, error) {
	args := m.Called(secret)
	return args.String(0), args.Error(1)
}
