package storage

import (
	"context"
	"errors"
)

// MockStore is an in-memory SaveStore for tests. It counts writes and can
// inject failures to exercise the save-error path.
type MockStore struct {
	Data      []byte
	SaveCount int
	FailSave  bool
	FailLoad  bool
}

var _ SaveStore = (*MockStore)(nil)

func NewMockStore() *MockStore {
	return &MockStore{}
}

func (m *MockStore) Load(_ context.Context) ([]byte, error) {
	if m.FailLoad {
		return nil, errors.New("mock load failure")
	}
	if len(m.Data) == 0 {
		return nil, nil
	}
	return m.Data, nil
}

func (m *MockStore) Save(_ context.Context, data []byte) error {
	if m.FailSave {
		return errors.New("mock save failure")
	}
	m.Data = append([]byte(nil), data...)
	m.SaveCount++
	return nil
}

func (m *MockStore) Clear(_ context.Context) error {
	m.Data = nil
	return nil
}
