//go:build linux

package corio

import (
	"sync"
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// notifier is the Linux readiness-family implementation of the I/O
// multiplexer, backed by epoll: an fd-keyed map under an RWMutex, a
// preallocated epoll_event buffer, and a version counter bumped on every
// registration change (poll does not read it). A concurrent unwatch during
// an in-flight EpollWait is tolerated because poll drops any event whose
// fd is no longer in the map.
// wakeIdent is the sentinel Fd used for the self-pipe wake eventfd,
// distinguishing it from real watched fds (always >= 0 in practice, but
// never equal to this reserved value since it is claimed at construction).
const wakeIdent = -1

type notifier struct {
	epfd     int32
	wakeFd   int32
	version  atomic.Uint64
	eventBuf [256]unix.EpollEvent

	mu  sync.RWMutex
	fds map[int]PollOp
}

func newNotifier() (*notifier, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	wakeFd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		unix.Close(epfd)
		return nil, err
	}
	ev := &unix.EpollEvent{Events: unix.EPOLLIN, Fd: wakeIdent}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, wakeFd, ev); err != nil {
		unix.Close(epfd)
		unix.Close(wakeFd)
		return nil, err
	}
	return &notifier{epfd: int32(epfd), wakeFd: int32(wakeFd), fds: make(map[int]PollOp)}, nil
}

func (n *notifier) close() error {
	unix.Close(int(n.wakeFd))
	return unix.Close(int(n.epfd))
}

// wake forces a blocked poll to return promptly, used whenever the run
// loop needs to recompute its next timeout (a new, earlier timer armed, or
// shutdown requested) while already sleeping in EpollWait.
func (n *notifier) wake() error {
	var buf [8]byte
	buf[7] = 1
	_, err := unix.Write(int(n.wakeFd), buf[:])
	if err == unix.EAGAIN {
		// Counter already non-zero; a wakeup is already pending.
		return nil
	}
	return err
}

func (n *notifier) watch(ident int, op PollOp) error {
	n.mu.Lock()
	n.fds[ident] = op
	n.version.Add(1)
	n.mu.Unlock()

	ev := &unix.EpollEvent{Events: opToEpoll(op), Fd: int32(ident)}
	if err := unix.EpollCtl(int(n.epfd), unix.EPOLL_CTL_ADD, ident, ev); err != nil {
		n.mu.Lock()
		delete(n.fds, ident)
		n.mu.Unlock()
		return err
	}
	return nil
}

func (n *notifier) modify(ident int, op PollOp) error {
	n.mu.Lock()
	n.fds[ident] = op
	n.version.Add(1)
	n.mu.Unlock()

	ev := &unix.EpollEvent{Events: opToEpoll(op), Fd: int32(ident)}
	return unix.EpollCtl(int(n.epfd), unix.EPOLL_CTL_MOD, ident, ev)
}

// unwatch races inherently with an already-queued OS event: the caller
// must tolerate receiving a stale readyEvent for an ident no longer
// present in fds and treat it as a no-op, which poll() below does.
func (n *notifier) unwatch(ident int) error {
	n.mu.Lock()
	_, ok := n.fds[ident]
	delete(n.fds, ident)
	n.version.Add(1)
	n.mu.Unlock()
	if !ok {
		return nil
	}
	err := unix.EpollCtl(int(n.epfd), unix.EPOLL_CTL_DEL, ident, nil)
	if err == unix.ENOENT {
		// Kernel already dropped it (e.g. the fd was closed); not an error
		// from the caller's perspective.
		return nil
	}
	return err
}

// poll drains ready events, blocking up to timeoutMs (-1 means block
// indefinitely). It returns promptly on timeout with an empty slice.
func (n *notifier) poll(timeoutMs int) ([]readyEvent, error) {
	count, err := unix.EpollWait(int(n.epfd), n.eventBuf[:], timeoutMs)
	if err != nil {
		if err == unix.EINTR {
			return nil, nil
		}
		return nil, err
	}

	out := make([]readyEvent, 0, count)
	for i := 0; i < count; i++ {
		ev := n.eventBuf[i]
		ident := int(ev.Fd)

		if ident == wakeIdent {
			var buf [8]byte
			_, _ = unix.Read(int(n.wakeFd), buf[:])
			continue
		}

		n.mu.RLock()
		_, stillWatched := n.fds[ident]
		n.mu.RUnlock()
		if !stillWatched {
			// Cancellation raced with a queued kernel event; drop it.
			continue
		}

		out = append(out, readyEvent{ident: ident, events: epollToEvents(ev.Events)})
	}
	return out, nil
}

func opToEpoll(op PollOp) uint32 {
	switch op {
	case OpRead:
		return unix.EPOLLIN
	case OpWrite:
		return unix.EPOLLOUT
	default:
		return unix.EPOLLIN | unix.EPOLLOUT
	}
}

func epollToEvents(e uint32) ioEvents {
	var events ioEvents
	if e&unix.EPOLLIN != 0 {
		events |= ioEventRead
	}
	if e&unix.EPOLLOUT != 0 {
		events |= ioEventWrite
	}
	if e&unix.EPOLLERR != 0 {
		events |= ioEventError
	}
	if e&unix.EPOLLHUP != 0 || e&unix.EPOLLRDHUP != 0 {
		events |= ioEventHangup
	}
	return events
}
