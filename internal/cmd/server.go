package cmd

import (
	"fmt"
	"log"
	"net"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tmux/tmux-sub006/internal/grid"
	"github.com/tmux/tmux-sub006/internal/loop"
	"github.com/tmux/tmux-sub006/internal/proto"
	tmuxserver "github.com/tmux/tmux-sub006/internal/server"
	"github.com/tmux/tmux-sub006/internal/serverdir"
)

// newServerCmd registers the hidden "_server" subcommand: the actual
// server process, normally reached only via a re-exec from
// startServer (grounded on ForkDaemon's re-exec-with-a-hidden-
// subcommand pattern, generalized from forking one agent's daemon to
// forking the whole multiplexer server).
func newServerCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:    "_server",
		Short:  "run as the server process (internal)",
		Hidden: true,
		RunE: func(c *cobra.Command, args []string) error {
			return runServer(opts)
		},
	}
}

func newKillServerCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "kill-server",
		Short: "terminate the running server",
		RunE: func(c *cobra.Command, args []string) error {
			return killServer(opts)
		},
	}
}

// runServer binds the socket and runs the single-threaded loop in the
// foreground until it exits (spec.md §4.6/§6.3).
func runServer(opts *Options) error {
	dir := serverdir.Dir(opts.SocketPath)
	lock, err := serverdir.AcquireStartupLock(dir)
	if err != nil {
		return err
	}
	defer lock.Release()

	l, err := loop.New()
	if err != nil {
		return fmt.Errorf("create event loop: %w", err)
	}
	defer l.Close()
	l.WatchSignals()

	srv := tmuxserver.New(l)
	if opts.Force256 && srv.Caps.ColorKind < grid.Color256 {
		srv.Caps.ColorKind = grid.Color256
	}
	if opts.ForceUTF8 {
		srv.Caps.UTF8 = true
	}

	ln, path, err := tmuxserver.Bind(opts.SocketPath, opts.SocketName)
	if err != nil {
		return err
	}
	defer os.Remove(path)

	if opts.Verbose {
		log.Printf("tmuxsrv: listening on %s", path)
	}

	go srv.Serve(ln)
	l.OnAfterIO(srv.AfterIO)
	l.OnSignal(func(sig os.Signal) {
		if sig == syscall.SIGTERM || sig == syscall.SIGINT {
			if opts.Verbose {
				log.Printf("tmuxsrv: received %v, stopping", sig)
			}
			l.Stop()
		}
	})

	return l.Run()
}

// ensureServerRunning starts the server in a detached background
// process if its socket isn't already live, returning once the socket
// exists (spec.md §6.3's auto-start-on-attach behavior, matching plain
// tmux with no running server).
func ensureServerRunning(opts *Options) (string, error) {
	dir := serverdir.Dir(opts.SocketPath)
	if err := serverdir.EnsureDir(dir); err != nil {
		return "", err
	}
	path := serverdir.SocketPath(dir, opts.SocketName)

	if err := serverdir.ProbeSocket(path, fmt.Sprintf("socket %q", path)); err != nil {
		// A live socket already exists — nothing to start.
		return path, nil
	}

	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("find executable: %w", err)
	}
	args := []string{"_server"}
	if opts.SocketPath != "" {
		args = append(args, "-S", opts.SocketPath)
	}
	if opts.SocketName != "" {
		args = append(args, "-L", opts.SocketName)
	}
	startCmd := exec.Command(exe, args...)
	startCmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	startCmd.Stdout = nil
	startCmd.Stderr = nil
	if err := startCmd.Start(); err != nil {
		return "", fmt.Errorf("start server: %w", err)
	}

	if err := waitForSocket(path); err != nil {
		return "", err
	}
	return path, nil
}

// killServer connects as an ordinary client and sends MsgShutdown
// rather than signalling a PID, since the server never writes a pid
// file (spec.md §6.3 only specifies the socket path, not a pid
// sidecar).
func killServer(opts *Options) error {
	dir := serverdir.Dir(opts.SocketPath)
	path := serverdir.SocketPath(dir, opts.SocketName)
	conn, err := net.Dial("unix", path)
	if err != nil {
		return fmt.Errorf("no server running at %s", path)
	}
	defer conn.Close()
	if err := sendIdentify(conn, opts); err != nil {
		return err
	}
	if _, err := proto.ReadFrame(conn); err != nil {
		return err
	}
	return proto.WriteFrame(conn, proto.Frame{Type: proto.MsgShutdown})
}

// waitForSocket polls for a freshly started server's socket to appear.
func waitForSocket(path string) error {
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if conn, err := net.Dial("unix", path); err == nil {
			conn.Close()
			return nil
		}
		time.Sleep(25 * time.Millisecond)
	}
	return fmt.Errorf("timed out waiting for server socket %s", path)
}
