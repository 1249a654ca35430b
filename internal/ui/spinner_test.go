package ui

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// syncBuffer guards a bytes.Buffer shared with the spinner goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSpinner_RendersUpdatesAndClears(t *testing.T) {
	out := &syncBuffer{}
	s := NewSpinner(out)

	s.Start("Loading Laptops...")
	s.Update("Loaded 12 products from macbooks")
	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Loaded 12 products")
	}, time.Second, 10*time.Millisecond)
	s.Stop()

	assert.True(t, strings.HasSuffix(out.String(), "\r\033[K"))
}

func TestSpinner_StopIsIdempotent(t *testing.T) {
	s := NewSpinner(&syncBuffer{})
	s.Stop()
	s.Start("x")
	s.Stop()
	s.Stop()
}
