package progress

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBytesWithoutWriterIsNoop(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	assert.False(t, Enabled(ctx))

	p := Bytes(ctx, 100, "download")
	p.Add(10)
	p.Set(50)
	p.On("x")
	p.Reset()
	p.Close()
}

func TestBytesRendersToWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	ctx := Open(context.Background(), &buf)
	assert.True(t, Enabled(ctx))

	p := Bytes(ctx, 1024, "gcc.7z")
	p.Add(1024)
	p.Close()

	assert.Contains(t, buf.String(), "gcc.7z")
}

func TestStepsAdvancesOnEachStep(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	ctx := Open(context.Background(), &buf)

	p := Steps(ctx, 2, "install")
	p.On("Extracting")
	p.On("Done")
	p.Close()

	assert.Contains(t, buf.String(), "install: Extracting")
}
