package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/roomchat-sdk-go/roomchat"
	"github.com/vovakirdan/roomchat-sdk-go/roomchat/metrics"
	"github.com/vovakirdan/roomchat-sdk-go/roomchat/prefs"
)

const chatHelp = `Commands:
  /join <room>   switch rooms
  /leave         leave the current room
  /away, /back   pause and resume the connection
  /who           show the roster
  /quit          exit`

func chatCmd() *cobra.Command {
	var (
		room        string
		user        string
		prefsPath   string
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Join a room and chat",
		Long: `Join a room and chat from the terminal.

The last username and room are remembered between runs.

` + chatHelp,
		RunE: func(cmd *cobra.Command, args []string) error {
			server, _ := cmd.Flags().GetString("server")
			level, _ := cmd.Flags().GetString("log-level")
			return runChat(cmd.Context(), chatOptions{
				server:      server,
				logLevel:    level,
				room:        room,
				user:        user,
				prefsPath:   prefsPath,
				metricsAddr: metricsAddr,
			})
		},
	}

	cmd.Flags().StringVarP(&room, "room", "r", "", "Room to join (default: last used, then \"general\")")
	cmd.Flags().StringVarP(&user, "user", "u", "", "Username (default: last used)")
	cmd.Flags().StringVar(&prefsPath, "prefs", "", "Preferences file (default: user config dir)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")

	return cmd
}

type chatOptions struct {
	server      string
	logLevel    string
	room        string
	user        string
	prefsPath   string
	metricsAddr string
}

func runChat(ctx context.Context, o chatOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := roomchat.LoadConfigFromEnv()
	if err != nil {
		return err
	}
	if o.server != "" {
		cfg.BaseURL = o.server
	}

	path := o.prefsPath
	if path == "" {
		if path, err = prefs.DefaultPath(); err != nil {
			return err
		}
	}

	view := &terminalView{out: os.Stdout}
	sessionOpts := []roomchat.Option{
		roomchat.WithView(view),
		roomchat.WithPreferences(prefs.NewFileStore(path)),
		roomchat.WithLogger(roomchat.NewSlogLogger(newLogger(o.logLevel))),
	}
	if o.metricsAddr != "" {
		reg := prometheus.NewRegistry()
		sessionOpts = append(sessionOpts, roomchat.WithMetrics(metrics.New(metrics.WithRegistry(reg))))
		stop := serveMetrics(o.metricsAddr, reg)
		defer stop()
	}

	session, err := roomchat.NewSession(cfg, sessionOpts...)
	if err != nil {
		return fmt.Errorf("new session: %w", err)
	}
	defer session.Close()

	if o.room != "" {
		if err := session.JoinRoom(o.room); err != nil {
			return err
		}
	}
	fmt.Printf("== Room: %s\n", session.Room())

	name := o.user
	if name == "" {
		name = session.SavedUsername()
	}
	lines := make(chan string)
	go readLines(lines)

	if name == "" {
		fmt.Print("Enter your username: ")
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			name = line
		}
	}
	if err := session.SetUsername(name); err != nil {
		return err
	}
	view.self = strings.TrimSpace(name)
	fmt.Println(chatHelp)

	for {
		select {
		case <-ctx.Done():
			fmt.Println("\nShutting down...")
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			quit, err := handleLine(session, line)
			if err != nil {
				fmt.Printf("!! %s\n", userMessage(err))
			}
			if quit {
				return nil
			}
		}
	}
}

func handleLine(s *roomchat.Session, line string) (bool, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "/") {
		return false, s.SendChat(line)
	}
	command, arg, _ := strings.Cut(line, " ")
	switch command {
	case "/join":
		return false, s.JoinRoom(arg)
	case "/leave":
		return false, s.LeaveRoom()
	case "/away":
		return false, s.OnVisibilityChange(true)
	case "/back":
		return false, s.OnVisibilityChange(false)
	case "/who":
		roster := s.Roster()
		fmt.Printf("-- %d users in %s\n", len(roster), s.Room())
		for _, e := range roster {
			fmt.Printf("   %s (ID: %s)\n", e.Username, e.UserID)
		}
		return false, nil
	case "/quit":
		return true, nil
	default:
		return false, fmt.Errorf("unknown command %s", command)
	}
}

func userMessage(err error) string {
	var re *roomchat.Error
	if errors.As(err, &re) && roomchat.IsInputError(err) {
		return re.Message
	}
	return err.Error()
}

func readLines(dst chan<- string) {
	defer close(dst)
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		dst <- scanner.Text()
	}
}

func serveMetrics(addr string, reg *prometheus.Registry) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(os.Stderr, "metrics server: %v\n", err)
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
