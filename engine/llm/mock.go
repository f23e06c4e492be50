package llm

import "context"

// MockClient is a test double with scripted responses.
type MockClient struct {
	Response string
	Err      error
	// RespondFn, when set, overrides Response/Err.
	RespondFn func(system, user string) (string, error)
	Calls     int
}

func (m *MockClient) Chat(_ context.Context, system, user string) (string, error) {
	m.Calls++
	if m.RespondFn != nil {
		return m.RespondFn(system, user)
	}
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}

func (m *MockClient) Model() string {
	return "mock"
}
