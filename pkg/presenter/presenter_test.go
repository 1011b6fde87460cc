package presenter

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func newTestPresenter() (*TerminalPresenter, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewWithOptions(&buf, ColorNever), &buf
}

func TestInfo(t *testing.T) {
	p, buf := newTestPresenter()
	p.Info("scanning sources")
	assert.Equal(t, "scanning sources\n", buf.String())
}

func TestSuccess(t *testing.T) {
	p, buf := newTestPresenter()
	p.Success("cache cleared")
	assert.Contains(t, buf.String(), "✓ cache cleared")
}

func TestWarning(t *testing.T) {
	p, buf := newTestPresenter()
	p.Warning("cache store failed")
	assert.Contains(t, buf.String(), "⚠ cache store failed")
}

func TestError(t *testing.T) {
	p, buf := newTestPresenter()

	p.Error(nil, "ignored")
	assert.Empty(t, buf.String())

	p.Error(errors.New("boom"), "loading cache")
	assert.Contains(t, buf.String(), "[ERROR] loading cache: boom")

	buf.Reset()
	p.Error(errors.New("boom"), "")
	assert.Contains(t, buf.String(), "[ERROR] boom")
}

func TestSection(t *testing.T) {
	p, buf := newTestPresenter()
	p.Section("Cache")
	assert.Equal(t, "Cache\n-----\n", buf.String())
}

func TestQuietSuppressesAllButErrors(t *testing.T) {
	p, buf := newTestPresenter()
	p.SetQuiet(true)

	p.Info("hidden")
	p.Success("hidden")
	p.Warning("hidden")
	p.Section("hidden")
	assert.Empty(t, buf.String())

	p.Error(errors.New("still shown"), "")
	assert.Contains(t, buf.String(), "still shown")
}
