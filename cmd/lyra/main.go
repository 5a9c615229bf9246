// Command lyra is a terminal front end for the Lyra assistant: login,
// onboarding, text chat, and a voice mode.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"golang.org/x/term"

	lyra "github.com/lyra-assist/lyra-go/sdk"

	"github.com/lyra-assist/lyra-go/internal/config"
	"github.com/lyra-assist/lyra-go/internal/dotenv"
	"github.com/lyra-assist/lyra-go/internal/store"
)

func main() {
	os.Exit(runMain())
}

func runMain() int {
	if err := dotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "warning:", err)
	}

	var (
		configPath = flag.String("config", config.Path(), "config file path")
		baseURL    = flag.String("base-url", "", "backend base URL (overrides config)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	if *baseURL != "" {
		cfg.BaseURL = *baseURL
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	st, err := store.Open(ctx, filepath.Join(cfg.DataDir, "lyra.db"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	defer st.Close()

	client := lyra.New(
		lyra.WithBaseURL(cfg.BaseURL),
		lyra.WithLogger(logger),
		lyra.WithCredentialStore(st),
		lyra.WithSessionExpiredHandler(func() {
			fmt.Println("\nSession expired. Please log in again.")
		}),
	)

	app := &app{
		client: client,
		store:  st,
		cfg:    cfg,
		stdin:  bufio.NewReader(os.Stdin),
	}
	if err := app.run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return 0
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

type app struct {
	client  *lyra.Client
	store   *store.Store
	cfg     config.Config
	stdin   *bufio.Reader
	history []lyra.Turn
}

func (a *app) run(ctx context.Context) error {
	session, err := a.client.Auth.Verify(ctx)
	if err != nil {
		if !errors.Is(err, lyra.ErrUnauthenticated) {
			return err
		}
		session, err = a.signIn(ctx)
		if err != nil {
			return err
		}
	}
	fmt.Printf("Welcome back, %s.\n", session.User.Username)

	if err := a.ensureProfile(ctx); err != nil {
		return err
	}
	return a.chatLoop(ctx)
}

// signIn loops between login and registration until a session exists.
func (a *app) signIn(ctx context.Context) (lyra.Session, error) {
	for {
		choice, err := a.prompt("[l]ogin or [r]egister? ")
		if err != nil {
			return lyra.Session{}, err
		}
		switch strings.ToLower(choice) {
		case "r", "register":
			if err := a.register(ctx); err != nil {
				fmt.Println("Registration failed:", errorText(err))
				continue
			}
			fmt.Println("Account created. Log in to continue.")
			fallthrough
		case "l", "login", "":
			session, err := a.login(ctx)
			if err != nil {
				fmt.Println("Login failed:", errorText(err))
				continue
			}
			return session, nil
		default:
			fmt.Println("Please answer l or r.")
		}
	}
}

func (a *app) login(ctx context.Context) (lyra.Session, error) {
	username, err := a.prompt("Username: ")
	if err != nil {
		return lyra.Session{}, err
	}
	password, err := a.promptPassword("Password: ")
	if err != nil {
		return lyra.Session{}, err
	}

	session, err := a.client.Auth.Login(ctx, username, password)
	if err != nil {
		if errors.Is(err, lyra.ErrInvalidCredentials) {
			return lyra.Session{}, lyra.ErrInvalidCredentials
		}
		return lyra.Session{}, err
	}
	return session, nil
}

func (a *app) register(ctx context.Context) error {
	email, err := a.prompt("Email: ")
	if err != nil {
		return err
	}
	username, err := a.prompt("Username: ")
	if err != nil {
		return err
	}
	password, err := a.promptPassword("Password (min 8 chars): ")
	if err != nil {
		return err
	}
	confirm, err := a.promptPassword("Confirm password: ")
	if err != nil {
		return err
	}
	return a.client.Auth.Register(ctx, email, username, password, confirm)
}

// ensureProfile runs the onboarding questions once, on first sign-in.
func (a *app) ensureProfile(ctx context.Context) error {
	fields, err := a.client.Profile.Get(ctx)
	if err != nil {
		var apiErr *lyra.APIError
		if errors.As(err, &apiErr) && apiErr.Status == 404 {
			fields = nil
		} else {
			return err
		}
	}
	if len(fields) > 0 {
		return nil
	}

	fmt.Println("Let's set up your profile.")
	name, err := a.prompt("What should Lyra call you? ")
	if err != nil {
		return err
	}
	focus, err := a.prompt("What do you mainly want help with? ")
	if err != nil {
		return err
	}
	return a.client.Profile.Save(ctx, map[string]any{
		"display_name": name,
		"focus":        focus,
	})
}

func (a *app) chatLoop(ctx context.Context) error {
	fmt.Println(`Type a message, or /voice, /profile, /logout, /quit.`)
	for {
		line, err := a.prompt("> ")
		if err != nil {
			return err
		}
		switch {
		case line == "":
			continue
		case line == "/quit" || line == "/exit":
			return nil
		case line == "/logout":
			a.client.Auth.Logout()
			fmt.Println("Logged out.")
			session, err := a.signIn(ctx)
			if err != nil {
				return err
			}
			a.history = nil
			fmt.Printf("Welcome back, %s.\n", session.User.Username)
		case line == "/voice":
			if err := a.voiceMode(ctx); err != nil {
				fmt.Println("Voice mode error:", errorText(err))
			}
		case line == "/profile":
			if err := a.showProfile(ctx); err != nil {
				fmt.Println("Profile error:", errorText(err))
			}
		case strings.HasPrefix(line, "/"):
			fmt.Println("Unknown command:", line)
		default:
			if err := a.sendChat(ctx, line); err != nil {
				fmt.Println("Chat error:", errorText(err))
			}
		}
	}
}

func (a *app) sendChat(ctx context.Context, message string) error {
	resp, err := a.client.Chat.SendMessage(ctx, message, a.history)
	if err != nil {
		return err
	}
	a.history = append(a.history,
		lyra.Turn{Role: "user", Content: message},
		lyra.Turn{Role: "assistant", Content: resp.Response},
	)

	fmt.Println(resp.Response)
	for _, src := range resp.Sources {
		if src.Content != "" {
			fmt.Printf("  [source: %s (%s)]\n", src.Title, src.Content)
		} else {
			fmt.Printf("  [source: %s]\n", src.Title)
		}
	}
	return nil
}

func (a *app) showProfile(ctx context.Context) error {
	fields, err := a.client.Profile.Get(ctx)
	if err != nil {
		return err
	}
	if len(fields) == 0 {
		fmt.Println("No profile saved.")
		return nil
	}
	for k, v := range fields {
		fmt.Printf("  %s: %v\n", k, v)
	}
	return nil
}

func (a *app) prompt(label string) (string, error) {
	fmt.Print(label)
	line, err := a.stdin.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (a *app) promptPassword(label string) (string, error) {
	fmt.Print(label)
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(raw), nil
}

// errorText renders an error for the terminal without leaking internals.
func errorText(err error) string {
	var validationErr *lyra.ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Message
	}
	var apiErr *lyra.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	switch {
	case errors.Is(err, lyra.ErrInvalidCredentials):
		return "invalid username or password"
	case errors.Is(err, lyra.ErrUnauthenticated):
		return "not logged in"
	}
	return err.Error()
}
