//go:build darwin || netbsd || freebsd || openbsd || dragonfly

package corio

import (
	"sync"

	"golang.org/x/sys/unix"
)

// notifier is the BSD/Darwin readiness-family implementation, backed by
// kqueue: one EVFILT_READ/EVFILT_WRITE registration per interest, a
// preallocated Kevent_t buffer, and add/delete deltas on modify rather than
// a full re-registration.
// wakeIdent is the EVFILT_USER identifier reserved for the scheduler's
// self-wake trigger, never assigned to a real watched fd.
const wakeIdent = ^uint64(0)

type notifier struct {
	kq       int32
	eventBuf [256]unix.Kevent_t

	mu  sync.RWMutex
	fds map[int]PollOp
}

func newNotifier() (*notifier, error) {
	kq, err := unix.Kqueue()
	if err != nil {
		return nil, err
	}
	unix.CloseOnExec(kq)
	n := &notifier{kq: int32(kq), fds: make(map[int]PollOp)}
	wakeEv := []unix.Kevent_t{{Ident: wakeIdent, Filter: unix.EVFILT_USER, Flags: unix.EV_ADD | unix.EV_CLEAR}}
	if _, err := unix.Kevent(int(kq), wakeEv, nil, nil); err != nil {
		unix.Close(kq)
		return nil, err
	}
	return n, nil
}

// wake forces a blocked poll to return promptly, the kqueue analogue of
// poller_linux.go's eventfd self-pipe.
func (n *notifier) wake() error {
	trigger := []unix.Kevent_t{{Ident: wakeIdent, Filter: unix.EVFILT_USER, Fflags: unix.NOTE_TRIGGER}}
	_, err := unix.Kevent(int(n.kq), trigger, nil, nil)
	return err
}

func (n *notifier) close() error {
	return unix.Close(int(n.kq))
}

func (n *notifier) watch(ident int, op PollOp) error {
	n.mu.Lock()
	n.fds[ident] = op
	n.mu.Unlock()

	kevents := opToKevents(ident, op, unix.EV_ADD|unix.EV_ENABLE)
	if _, err := unix.Kevent(int(n.kq), kevents, nil, nil); err != nil {
		n.mu.Lock()
		delete(n.fds, ident)
		n.mu.Unlock()
		return err
	}
	return nil
}

func (n *notifier) modify(ident int, op PollOp) error {
	n.mu.Lock()
	old, ok := n.fds[ident]
	n.fds[ident] = op
	n.mu.Unlock()
	if !ok {
		return n.watch(ident, op)
	}

	wantRead, wantWrite := opWants(op)
	hadRead, hadWrite := opWants(old)

	var toDelete, toAdd []unix.Kevent_t
	if hadRead && !wantRead {
		toDelete = append(toDelete, unix.Kevent_t{Ident: uint64(ident), Filter: unix.EVFILT_READ, Flags: unix.EV_DELETE})
	}
	if hadWrite && !wantWrite {
		toDelete = append(toDelete, unix.Kevent_t{Ident: uint64(ident), Filter: unix.EVFILT_WRITE, Flags: unix.EV_DELETE})
	}
	if wantRead && !hadRead {
		toAdd = append(toAdd, unix.Kevent_t{Ident: uint64(ident), Filter: unix.EVFILT_READ, Flags: unix.EV_ADD | unix.EV_ENABLE})
	}
	if wantWrite && !hadWrite {
		toAdd = append(toAdd, unix.Kevent_t{Ident: uint64(ident), Filter: unix.EVFILT_WRITE, Flags: unix.EV_ADD | unix.EV_ENABLE})
	}

	if len(toDelete) > 0 {
		_, _ = unix.Kevent(int(n.kq), toDelete, nil, nil)
	}
	if len(toAdd) > 0 {
		if _, err := unix.Kevent(int(n.kq), toAdd, nil, nil); err != nil {
			return err
		}
	}
	return nil
}

func (n *notifier) unwatch(ident int) error {
	n.mu.Lock()
	op, ok := n.fds[ident]
	delete(n.fds, ident)
	n.mu.Unlock()
	if !ok {
		return nil
	}
	// Cancellation races with an already-queued kernel event; ignore delete
	// errors, the caller's poll loop drops stale idents.
	_, _ = unix.Kevent(int(n.kq), opToKevents(ident, op, unix.EV_DELETE), nil, nil)
	return nil
}

func (n *notifier) poll(timeoutMs int) ([]readyEvent, error) {
	var ts *unix.Timespec
	if timeoutMs >= 0 {
		ts = &unix.Timespec{Sec: int64(timeoutMs / 1000), Nsec: int64((timeoutMs % 1000) * 1e6)}
	}

	count, err := unix.Kevent(int(n.kq), nil, n.eventBuf[:], ts)
	if err != nil {
		if err == unix.EINTR {
			return nil, nil
		}
		return nil, err
	}

	out := make([]readyEvent, 0, count)
	for i := 0; i < count; i++ {
		ev := n.eventBuf[i]
		if ev.Ident == wakeIdent {
			continue
		}
		ident := int(ev.Ident)

		n.mu.RLock()
		_, stillWatched := n.fds[ident]
		n.mu.RUnlock()
		if !stillWatched {
			continue
		}

		out = append(out, readyEvent{ident: ident, events: keventToEvents(&ev)})
	}
	return out, nil
}

// opWants reports which of the two kqueue filters op requires. PollOp is a
// plain enum, not a bitmask, so this is a switch rather than bit tests.
func opWants(op PollOp) (read, write bool) {
	switch op {
	case OpRead:
		return true, false
	case OpWrite:
		return false, true
	default:
		return true, true
	}
}

func opToKevents(ident int, op PollOp, flags uint16) []unix.Kevent_t {
	var kevents []unix.Kevent_t
	read, write := opWants(op)
	if read {
		kevents = append(kevents, unix.Kevent_t{Ident: uint64(ident), Filter: unix.EVFILT_READ, Flags: flags})
	}
	if write {
		kevents = append(kevents, unix.Kevent_t{Ident: uint64(ident), Filter: unix.EVFILT_WRITE, Flags: flags})
	}
	return kevents
}

func keventToEvents(kev *unix.Kevent_t) ioEvents {
	var events ioEvents
	switch kev.Filter {
	case unix.EVFILT_READ:
		events |= ioEventRead
	case unix.EVFILT_WRITE:
		events |= ioEventWrite
	}
	if kev.Flags&unix.EV_ERROR != 0 {
		events |= ioEventError
	}
	if kev.Flags&unix.EV_EOF != 0 {
		events |= ioEventHangup
	}
	return events
}
