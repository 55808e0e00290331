package cmd

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tmux/tmux-sub006/internal/proto"
	"github.com/tmux/tmux-sub006/internal/serverdir"
)

func newAttachCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "attach",
		Short: "attach to the server, starting it first if necessary",
		RunE: func(c *cobra.Command, args []string) error {
			return runAttach(opts, true)
		},
	}
}

// runAttach connects to the server's socket (auto-starting it if
// autoStart and no live server is found), then proxies the controlling
// terminal's raw bytes to and from it until detach or EOF (spec.md
// §6.2/§6.4; this is the "thin client adapter" the client-CLI Non-goal
// leaves in scope). Grounded on internal/cmd/attach.go's doAttach.
func runAttach(opts *Options, autoStart bool) error {
	path := serverdir.SocketPath(serverdir.Dir(opts.SocketPath), opts.SocketName)
	if autoStart {
		var err error
		path, err = ensureServerRunning(opts)
		if err != nil {
			return err
		}
	}

	conn, err := net.Dial("unix", path)
	if err != nil {
		return fmt.Errorf("cannot connect to server: %w", err)
	}
	defer conn.Close()

	fd := int(os.Stdin.Fd())
	cols, rows, err := term.GetSize(fd)
	if err != nil {
		cols, rows = 80, 24
	}

	if err := sendIdentifySized(conn, opts, cols, rows); err != nil {
		return err
	}

	ready, err := proto.ReadFrame(conn)
	if err != nil {
		return fmt.Errorf("read ready frame: %w", err)
	}
	if ready.Type == proto.MsgExit {
		return fmt.Errorf("server refused attach")
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("set raw mode: %w", err)
	}
	defer func() {
		os.Stdout.WriteString("\033[?1000l\033[?1002l\033[?1003l\033[?1006l")
		term.Restore(fd, oldState)
		os.Stdout.WriteString("\033[?25h\033[0m\r\n")
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGWINCH)
	defer signal.Stop(sigCh)
	go func() {
		for range sigCh {
			cols, rows, err := term.GetSize(fd)
			if err != nil {
				continue
			}
			payload, _ := proto.Encode(proto.ResizePayload{Cols: cols, Rows: rows})
			proto.WriteFrame(conn, proto.Frame{Type: proto.MsgResize, Payload: payload})
		}
	}()

	done := make(chan struct{})
	var closeOnce sync.Once
	closeDone := func() { closeOnce.Do(func() { close(done) }) }

	// stdin -> server, raw keystroke bytes (spec.md §6.2).
	go func() {
		defer closeDone()
		buf := make([]byte, 4096)
		for {
			n, err := os.Stdin.Read(buf)
			if n > 0 {
				if proto.WriteFrame(conn, proto.Frame{Type: proto.MsgOldStdin, Payload: append([]byte(nil), buf[:n]...)}) != nil {
					return
				}
			}
			if err != nil {
				return
			}
		}
	}()

	// server -> stdout, raw rendered output.
	go func() {
		defer closeDone()
		for {
			f, err := proto.ReadFrame(conn)
			if err != nil {
				return
			}
			switch f.Type {
			case proto.MsgOldStdout:
				os.Stdout.Write(f.Payload)
			case proto.MsgExit, proto.MsgExited:
				return
			}
		}
	}()

	<-done
	return nil
}

// sendIdentify writes the handshake for a client that isn't attaching a
// real controlling terminal (used by kill-server).
func sendIdentify(conn net.Conn, opts *Options) error {
	return sendIdentifySized(conn, opts, 80, 24)
}

func sendIdentifySized(conn net.Conn, opts *Options, cols, rows int) error {
	payload, err := proto.Encode(proto.IdentifyPayload{
		Term:    envOrDefault("TERM", "xterm-256color"),
		Cols:    cols,
		Rows:    rows,
		CWD:     cwd(),
		Environ: map[string]string{},
		PID:     os.Getpid(),
		UTF8:    opts.ForceUTF8 || isUTF8Locale(),
	})
	if err != nil {
		return fmt.Errorf("encode identify payload: %w", err)
	}
	if err := proto.WriteFrame(conn, proto.Frame{Type: proto.MsgIdentifyFlags, Payload: payload}); err != nil {
		return fmt.Errorf("write identify frame: %w", err)
	}
	return proto.WriteFrame(conn, proto.Frame{Type: proto.MsgIdentifyDone})
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func isUTF8Locale() bool {
	for _, key := range []string{"LC_ALL", "LC_CTYPE", "LANG"} {
		if v := os.Getenv(key); v != "" {
			return strings.Contains(strings.ToUpper(v), "UTF-8") || strings.Contains(strings.ToUpper(v), "UTF8")
		}
	}
	return false
}

func cwd() string {
	d, err := os.Getwd()
	if err != nil {
		return "/"
	}
	return d
}
