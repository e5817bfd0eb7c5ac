//go:build unit

package errs_test

import (
	"errors"
	"testing"

	"venue-booking/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
)

var errSentinel = errors.New("sentinel")

func TestMark(t *testing.T) {
	t.Run("marked error matches both causes", func(t *testing.T) {
		base := errs.New("upstream timeout")
		marked := errs.Mark(base, errSentinel)

		assert.True(t, errs.Is(marked, errSentinel))
		assert.True(t, errs.Is(marked, base))
		assert.Contains(t, marked.Error(), "upstream timeout")
	})

	t.Run("nil error yields the mark itself", func(t *testing.T) {
		assert.Equal(t, errSentinel, errs.Mark(nil, errSentinel))
	})
}

func TestWrap(t *testing.T) {
	assert.Nil(t, errs.Wrap(nil, "ignored"))
	assert.Nil(t, errs.Wrapf(nil, "ignored %d", 1))

	wrapped := errs.Wrapf(errSentinel, "label %q", "25:00 PM")
	assert.True(t, errors.Is(wrapped, errSentinel))
	assert.Equal(t, `label "25:00 PM": sentinel`, wrapped.Error())
}

func TestExtractStackLines(t *testing.T) {
	assert.Nil(t, errs.ExtractStackLines(nil, 3))

	lines := errs.ExtractStackLines(errs.New("boom"), 2)
	assert.Len(t, lines, 2)
	assert.Equal(t, "boom", lines[0])
}
