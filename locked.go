package gpuenc

import (
	"context"

	"github.com/xaionaro-go/gpuenc/driver"
	"github.com/xaionaro-go/gpuenc/types"
	"github.com/xaionaro-go/xsync"
)

// SessionLocked serializes all calls to a Session, so it can be shared
// between goroutines (for example a render loop and a control API).
//
// A sink runs with the lock held: it must not call SessionLocked either.
type SessionLocked struct {
	locker  xsync.Mutex
	session *Session
}

func NewLocked(s *Session) *SessionLocked {
	return &SessionLocked{session: s}
}

func (l *SessionLocked) Submit(ctx context.Context, flag types.FrameFlag) (bool, error) {
	return xsync.DoA2R2(ctx, &l.locker, l.session.Submit, ctx, flag)
}

func (l *SessionLocked) Flush(ctx context.Context) (bool, error) {
	return xsync.DoA1R2(ctx, &l.locker, l.session.Flush, ctx)
}

func (l *SessionLocked) Close(ctx context.Context) error {
	return xsync.DoA1R1(ctx, &l.locker, l.session.Close, ctx)
}

func (l *SessionLocked) SetSink(ctx context.Context, sink Sink) {
	l.locker.Do(ctx, func() {
		l.session.SetSink(sink)
	})
}

func (l *SessionLocked) Buffer(ctx context.Context) driver.DevicePointer {
	return xsync.DoR1(ctx, &l.locker, l.session.Buffer)
}

// WithSession calls fn with the lock held; for example to render into
// Buffer and Submit it atomically.
func (l *SessionLocked) WithSession(ctx context.Context, fn func(*Session)) {
	l.locker.Do(ctx, func() {
		fn(l.session)
	})
}

func (l *SessionLocked) Stats() Statistics {
	return l.session.Stats()
}

func (l *SessionLocked) String() string {
	return l.session.String()
}
