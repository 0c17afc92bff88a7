package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIs_MatchesWrappedKind(t *testing.T) {
	err := New(KindUpstream, "engine.Search", errors.New("dial tcp: timeout"))

	assert.True(t, Is(err, KindUpstream))
	assert.False(t, Is(err, KindInternal))
}

func TestIs_MatchesThroughFmtErrorfWrapping(t *testing.T) {
	base := New(KindBadInput, "handlers.run", errors.New("missing query"))
	wrapped := fmt.Errorf("outer context: %w", base)

	assert.True(t, Is(wrapped, KindBadInput))
}

func TestIs_FalseForPlainError(t *testing.T) {
	assert.False(t, Is(errors.New("plain"), KindInternal))
}

func TestError_MessageIncludesOpKindAndCause(t *testing.T) {
	err := New(KindValidation, "store.Hydrate", errors.New("bad row"))
	assert.Contains(t, err.Error(), "store.Hydrate")
	assert.Contains(t, err.Error(), "validation")
	assert.Contains(t, err.Error(), "bad row")
}

func TestError_MessageWithoutCause(t *testing.T) {
	err := New(KindInternal, "engine.Search", nil)
	assert.Equal(t, "engine.Search: internal", err.Error())
}
