package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	clientapi "relight/internal/client/api"
	"relight/internal/client/storage/boltdb"
	"relight/internal/enhance"
	"relight/internal/imaging"
)

const usage = `Usage: relight <command> [options]

Commands:
  register   Create an account on the server
  login      Log in and store the identity token
  logout     Log out and drop the identity token
  me         Show the logged-in account
  enhance    Enhance a low-light image: relight enhance <input> <output>
             With -local the image is processed offline, no server needed.

Options are listed by each command's -h.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if err := run(os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "relight: %v\n", err)
		os.Exit(1)
	}
}

func run(command string, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	switch command {
	case "register":
		return runRegister(ctx, args)
	case "login":
		return runLogin(ctx, args)
	case "logout":
		return runLogout(ctx, args)
	case "me":
		return runMe(ctx, args)
	case "enhance":
		return runEnhance(ctx, args)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func commonFlags(fs *flag.FlagSet) (server *string, statePath *string) {
	server = fs.String("server", "http://localhost:3001", "Server base URL")
	statePath = fs.String("state", defaultStatePath(), "Path to the client state database")
	return server, statePath
}

func defaultStatePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "relight-client.db"
	}
	return filepath.Join(home, ".relight", "client.db")
}

func openState(path string) (*boltdb.Storage, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	return boltdb.New(path)
}

// readPassword reads the password from RELIGHT_PASSWORD or prompts for it
// on the terminal with echo disabled.
func readPassword() (string, error) {
	if password := os.Getenv("RELIGHT_PASSWORD"); password != "" {
		return password, nil
	}

	fmt.Fprint(os.Stderr, "Password: ")
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	return strings.TrimSpace(string(raw)), nil
}

func runRegister(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	server, _ := commonFlags(fs)
	login := fs.String("login", "", "Login name")
	_ = fs.Parse(args)

	if *login == "" {
		return fmt.Errorf("-login is required")
	}

	password, err := readPassword()
	if err != nil {
		return err
	}

	client := clientapi.NewClient(*server)
	resp, err := client.Register(ctx, *login, password)
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("registration failed: %s", resp.Error)
	}

	fmt.Printf("Registered %s\n", *login)
	return nil
}

func runLogin(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	server, statePath := commonFlags(fs)
	login := fs.String("login", "", "Login name")
	_ = fs.Parse(args)

	if *login == "" {
		return fmt.Errorf("-login is required")
	}

	password, err := readPassword()
	if err != nil {
		return err
	}

	client := clientapi.NewClient(*server)
	resp, err := client.Login(ctx, *login, password)
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("login failed: %s", resp.Error)
	}

	state, err := openState(*statePath)
	if err != nil {
		return err
	}
	defer state.Close()

	err = state.SaveAuth(&boltdb.AuthData{
		SavedAt:   time.Now(),
		Login:     *login,
		Identity:  client.Identity(),
		ServerURL: *server,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Logged in as %s\n", *login)
	return nil
}

func runLogout(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("logout", flag.ExitOnError)
	_, statePath := commonFlags(fs)
	_ = fs.Parse(args)

	state, err := openState(*statePath)
	if err != nil {
		return err
	}
	defer state.Close()

	client, err := authedClient(state)
	if err != nil {
		return err
	}

	// Best effort server-side: the local token is dropped either way.
	if err := client.Logout(ctx); err != nil && !errors.Is(err, clientapi.ErrForbidden) {
		fmt.Fprintf(os.Stderr, "warning: server logout failed: %v\n", err)
	}

	if err := state.DeleteAuth(); err != nil {
		return err
	}

	fmt.Println("Logged out")
	return nil
}

func runMe(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("me", flag.ExitOnError)
	_, statePath := commonFlags(fs)
	_ = fs.Parse(args)

	state, err := openState(*statePath)
	if err != nil {
		return err
	}
	defer state.Close()

	client, err := authedClient(state)
	if err != nil {
		return err
	}

	me, err := client.Me(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Logged in as %s\n", me.Login)
	return nil
}

func runEnhance(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("enhance", flag.ExitOnError)
	_, statePath := commonFlags(fs)
	local := fs.Bool("local", false, "Process offline without a server")
	_ = fs.Parse(args)

	if fs.NArg() != 2 {
		return fmt.Errorf("usage: relight enhance [options] <input> <output>")
	}
	inputPath, outputPath := fs.Arg(0), fs.Arg(1)

	input, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	var output []byte
	if *local {
		output, err = enhanceLocal(input)
	} else {
		output, err = enhanceRemote(ctx, *statePath, input)
	}
	if err != nil {
		return err
	}

	if err := os.WriteFile(outputPath, output, 0o644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	fmt.Printf("Wrote %s (%d bytes)\n", outputPath, len(output))
	return nil
}

// enhanceLocal runs the codec and engine directly, without a server.
func enhanceLocal(input []byte) ([]byte, error) {
	img, err := imaging.Decode(input)
	if err != nil {
		return nil, err
	}

	enhanced, err := enhance.DefaultEngine().Run(img)
	if err != nil {
		return nil, err
	}

	return imaging.EncodePNG(enhanced)
}

func enhanceRemote(ctx context.Context, statePath string, input []byte) ([]byte, error) {
	state, err := openState(statePath)
	if err != nil {
		return nil, err
	}
	defer state.Close()

	client, err := authedClient(state)
	if err != nil {
		return nil, err
	}

	return client.Process(ctx, input)
}

// authedClient builds an API client from the stored login state.
func authedClient(state *boltdb.Storage) (*clientapi.Client, error) {
	auth, err := state.GetAuth()
	if err != nil {
		if errors.Is(err, boltdb.ErrNotAuthenticated) {
			return nil, fmt.Errorf("not logged in, run 'relight login' first")
		}
		return nil, err
	}

	client := clientapi.NewClient(auth.ServerURL)
	client.SetIdentity(auth.Identity)
	return client, nil
}
