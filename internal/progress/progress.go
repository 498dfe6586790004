// Package progress renders byte-count progress bars for long transfers. A
// bar is only drawn when a writer was attached to the context with Open.
package progress

import (
	"context"
	"fmt"
	"io"
	"time"

	pb "github.com/schollz/progressbar/v3"
)

type pbVal struct {
	w io.Writer
}

type pbKey struct{}

// Open attaches w as the destination for bars created from ctx.
func Open(ctx context.Context, w io.Writer) context.Context {
	return context.WithValue(ctx, pbKey{}, pbVal{w})
}

// Progress is a possibly disabled bar. All methods are no-ops when disabled.
type Progress struct {
	bar    *pb.ProgressBar
	prefix string
	steps  bool
}

func (t *Progress) Add(cnt int64) {
	if t.bar == nil {
		return
	}
	t.bar.Add64(cnt)
}

// Set moves the bar to an absolute byte count.
func (t *Progress) Set(n int64) {
	if t.bar == nil {
		return
	}
	t.bar.Set64(n)
}

// Reset clears the bar after a failed transfer.
func (t *Progress) Reset() {
	if t.bar == nil {
		return
	}
	t.bar.Reset()
}

func (t *Progress) Close() {
	if t.bar == nil {
		return
	}
	t.bar.Close()
}

func (t *Progress) On(step string) {
	if t.bar == nil {
		return
	}
	t.bar.Describe(t.prefix + ": " + step)
	if t.steps {
		t.bar.Add(1)
	}
}

// Enabled reports whether ctx carries a writer for bars.
func Enabled(ctx context.Context) bool {
	_, ok := ctx.Value(pbKey{}).(pbVal)
	return ok
}

// Bytes starts a byte-count bar of total bytes; total <= 0 gives a spinner.
func Bytes(ctx context.Context, total int64, desc string) *Progress {
	val, ok := ctx.Value(pbKey{}).(pbVal)
	if !ok {
		return &Progress{}
	}
	if total <= 0 {
		total = -1
	}

	bar := pb.NewOptions64(
		total,
		pb.OptionSetDescription(desc),
		pb.OptionSetWriter(val.w),
		pb.OptionSetWidth(20),
		pb.OptionThrottle(65*time.Millisecond),
		pb.OptionShowBytes(true),
		pb.OptionShowCount(),
		pb.OptionSetTheme(
			pb.Theme{Saucer: "=", SaucerPadding: " ", BarStart: "[", BarEnd: "]"},
		),
		pb.OptionOnCompletion(func() {
			fmt.Fprint(val.w, "\n")
		}),
		pb.OptionSpinnerType(14),
	)
	bar.RenderBlank()

	return &Progress{prefix: desc, bar: bar}
}

// Steps starts a bar that advances once per call to On.
func Steps(ctx context.Context, n int, desc string) *Progress {
	val, ok := ctx.Value(pbKey{}).(pbVal)
	if !ok {
		return &Progress{}
	}

	bar := pb.NewOptions(
		n,
		pb.OptionSetDescription(desc),
		pb.OptionSetWriter(val.w),
		pb.OptionSetWidth(20),
		pb.OptionShowCount(),
		pb.OptionSetPredictTime(false),
		pb.OptionOnCompletion(func() {
			fmt.Fprint(val.w, "\n")
		}),
	)
	bar.RenderBlank()

	return &Progress{prefix: desc, bar: bar, steps: true}
}
