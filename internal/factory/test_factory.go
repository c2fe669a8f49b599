package factory

import (
	"time"

	"github.com/mcoot/worduel/internal/dependencies/mocks"
	"github.com/mcoot/worduel/internal/services/coordinator"
	"github.com/mcoot/worduel/internal/services/match"
	"github.com/mcoot/worduel/internal/services/session"
	"github.com/mcoot/worduel/internal/storage/memory"
	"github.com/mcoot/worduel/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App configured for testing with mocked dependencies.
// Sessions are verified with testutil.TestJWTSecret and auto-provisioned.
// The coordinator loop is not started.
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	app := newWithDependencies(
		store,
		mockClock,
		mockRandom,
		session.Config{Secret: testutil.TestJWTSecret, AutoProvision: true},
		match.DefaultConfig(),
		coordinator.DefaultConfig(),
		testutil.NopLogger(),
	)

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}

// TestTargets are the secret words of the test dictionary, in draw order
var TestTargets = []string{"CRANE", "SLATE", "TRACE"}

// LoadTestDictionary loads a small dictionary for testing.
// Intn(i) draws TestTargets[i].
func (t *TestApp) LoadTestDictionary() error {
	allowed := []string{
		"ABBEY", "BLOOM", "DUMMY", "FUZZY", "GHOST", "JUMPY",
		"PLANT", "REACT", "STARE", "TEARS",
	}
	return t.Dictionary.LoadWords(TestTargets, allowed)
}
