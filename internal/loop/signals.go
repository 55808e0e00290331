package loop

import (
	"os"
	"os/signal"
	"syscall"
)

// Registered signals per spec.md §4.6: child-process reaping
// (SIGCHLD), terminal resize (SIGWINCH), controlling-terminal hangup
// (SIGHUP), and graceful shutdown (SIGTERM), each mapped to a single
// marker byte written into the self-pipe.
const (
	sigByteCHLD  byte = 1
	sigByteWINCH byte = 2
	sigByteHUP   byte = 3
	sigByteTERM  byte = 4
)

func signalByte(sig os.Signal) byte {
	switch sig {
	case syscall.SIGCHLD:
		return sigByteCHLD
	case syscall.SIGWINCH:
		return sigByteWINCH
	case syscall.SIGHUP:
		return sigByteHUP
	case syscall.SIGTERM:
		return sigByteTERM
	default:
		return 0
	}
}

func signalFor(b byte) (os.Signal, bool) {
	switch b {
	case sigByteCHLD:
		return syscall.SIGCHLD, true
	case sigByteWINCH:
		return syscall.SIGWINCH, true
	case sigByteHUP:
		return syscall.SIGHUP, true
	case sigByteTERM:
		return syscall.SIGTERM, true
	default:
		return nil, false
	}
}

// WatchSignals starts the one unavoidable extra goroutine: Go delivers
// OS signals asynchronously via a channel, so a forwarder goroutine is
// needed to translate that delivery into a self-pipe write the Loop's
// single thread can observe through ordinary epoll readiness.
func (l *Loop) WatchSignals() {
	l.sigCh = make(chan os.Signal, 8)
	signal.Notify(l.sigCh, syscall.SIGCHLD, syscall.SIGWINCH, syscall.SIGHUP, syscall.SIGTERM)
	go func() {
		for sig := range l.sigCh {
			l.Notify(sig)
		}
	}()
}

// StopWatchingSignals stops signal delivery and lets the forwarder
// goroutine exit.
func (l *Loop) StopWatchingSignals() {
	if l.sigCh != nil {
		signal.Stop(l.sigCh)
		close(l.sigCh)
	}
}
