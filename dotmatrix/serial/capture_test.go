package serial

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCapture(t *testing.T) {
	c := NewCapture()

	c.Receive('o')
	c.Receive('k')

	assert.Equal(t, []byte("ok"), c.Bytes())
	assert.Equal(t, "ok", c.String())
}

func TestCaptureBytesReturnsCopy(t *testing.T) {
	c := NewCapture()
	c.Receive('a')

	got := c.Bytes()
	got[0] = 'z'

	assert.Equal(t, []byte("a"), c.Bytes())
}

func TestCaptureTee(t *testing.T) {
	var tee bytes.Buffer
	c := NewCapture(WithTee(&tee))

	c.Receive('h')
	c.Receive('i')

	assert.Equal(t, "hi", tee.String())
	assert.Equal(t, "hi", c.String())
}

func TestCaptureReset(t *testing.T) {
	c := NewCapture()
	c.Receive('x')

	c.Reset()

	assert.Empty(t, c.Bytes())

	c.Receive('y')
	assert.Equal(t, "y", c.String())
}
