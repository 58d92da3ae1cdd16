//go:build windows

package corio

import (
	"sync"

	"golang.org/x/sys/windows"
)

// notifier is the Windows completion-family implementation. Unlike
// epoll/kqueue, IOCP does not report readiness — it reports completed
// operations keyed by a completion key, which this type maps back to ident
// the same way poller_linux.go and poller_darwin.go map an fd to a PollOp.
// The shape follows the same newNotifier/watch/modify/unwatch/poll contract
// as the readiness-family notifiers, since the completion key indirection
// is the Windows analogue of the fd-indexed map used there.
type notifier struct {
	iocp windows.Handle

	mu  sync.RWMutex
	fds map[int]PollOp

	// overlapped is retained until unwatch, or a later pin for the same
	// ident, drops it: the OVERLAPPED for a
	// pending op must not be freed or moved while the kernel still holds a
	// reference to it, or the completion packet's pointer back to it would
	// use-after-free.
	overlapped map[int]*windows.Overlapped
}

func newNotifier() (*notifier, error) {
	iocp, err := windows.CreateIoCompletionPort(windows.InvalidHandle, 0, 0, 0)
	if err != nil {
		return nil, err
	}
	return &notifier{
		iocp:       iocp,
		fds:        make(map[int]PollOp),
		overlapped: make(map[int]*windows.Overlapped),
	}, nil
}

func (n *notifier) close() error {
	return windows.CloseHandle(n.iocp)
}

// wakeKey is the completion key reserved for self-wake packets, posted
// directly via PostQueuedCompletionStatus rather than needing a self-pipe
// fd the way the readiness families do.
const wakeKey = ^uintptr(0)

func (n *notifier) wake() error {
	return windows.PostQueuedCompletionStatus(n.iocp, 0, wakeKey, nil)
}

// watch associates ident (a socket handle) with the completion port. A
// socket must only be associated once; subsequent interest changes go
// through modify, which on this family is a pure bookkeeping update since
// IOCP has no equivalent of EPOLL_CTL_MOD — the next overlapped Read/Write
// issued by the caller simply requests the newly wanted direction.
func (n *notifier) watch(ident int, op PollOp) error {
	if _, err := windows.CreateIoCompletionPort(windows.Handle(ident), n.iocp, uintptr(ident), 0); err != nil {
		return err
	}
	// FILE_SKIP_SET_EVENT_ON_HANDLE: the handle's own event object is never
	// waited on here, only the completion port is, so having the kernel
	// signal it on every completion is pure overhead. Errors are ignored:
	// not every handle type honors this call, and watch still functions
	// correctly without it.
	_ = windows.SetFileCompletionNotificationModes(windows.Handle(ident), windows.FILE_SKIP_SET_EVENT_ON_HANDLE)

	n.mu.Lock()
	n.fds[ident] = op
	n.mu.Unlock()

	// Pin a fresh OVERLAPPED for this ident: once an overlapped operation is
	// issued against it, the kernel holds a pointer to it until the
	// completion packet arrives, so it must not be freed or moved early.
	n.pin(ident, new(windows.Overlapped))
	return nil
}

func (n *notifier) modify(ident int, op PollOp) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.fds[ident]; !ok {
		n.mu.Unlock()
		err := n.watch(ident, op)
		n.mu.Lock()
		return err
	}
	n.fds[ident] = op
	return nil
}

func (n *notifier) unwatch(ident int) error {
	n.mu.Lock()
	delete(n.fds, ident)
	delete(n.overlapped, ident)
	n.mu.Unlock()
	// IOCP has no per-handle deregistration short of closing the handle;
	// a completion already queued for ident is filtered out in poll below,
	// same as the readiness-family stale-ident handling.
	return nil
}

// poll drains completion packets, blocking up to timeoutMs. Each packet's
// completion key is the ident that was associated in watch.
func (n *notifier) poll(timeoutMs int) ([]readyEvent, error) {
	var bytes uint32
	var key uintptr
	var overlapped *windows.Overlapped

	timeout := uint32(windows.INFINITE)
	if timeoutMs >= 0 {
		timeout = uint32(timeoutMs)
	}

	err := windows.GetQueuedCompletionStatus(n.iocp, &bytes, &key, &overlapped, timeout)
	if err != nil {
		if err == windows.WAIT_TIMEOUT {
			return nil, nil
		}
		// A non-nil overlapped alongside an error means the operation itself
		// failed (e.g. connection reset); still surface it as an event so
		// the scheduler can resolve the PollInfo with StatusError rather
		// than treating GetQueuedCompletionStatus's own error as fatal.
		if overlapped == nil {
			return nil, err
		}
	}

	if key == wakeKey {
		return nil, nil
	}

	ident := int(key)
	n.mu.RLock()
	_, stillWatched := n.fds[ident]
	n.mu.RUnlock()
	if !stillWatched {
		return nil, nil
	}

	events := ioEventRead | ioEventWrite
	if err != nil {
		events = ioEventError
	}
	return []readyEvent{{ident: ident, events: events}}, nil
}

// pin retains overlapped for ident until the matching completion retires
// it via unwatch or a subsequent pin call, preventing the GC from moving or
// collecting it while the kernel holds a pointer to it.
func (n *notifier) pin(ident int, overlapped *windows.Overlapped) {
	n.mu.Lock()
	n.overlapped[ident] = overlapped
	n.mu.Unlock()
}
