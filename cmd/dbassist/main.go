// Command dbassist submits SQL practice answers and ER diagrams to the
// grading platform and renders the streamed feedback in the terminal.
//
// Usage:
//
//	dbassist login [-base-url URL] -email you@school.edu
//	dbassist logout
//	dbassist [flags]
//
// Flags:
//
//	-base-url string  API base URL (default http://localhost:8000/api/v1)
//	-question int     Question ID to submit against
//	-mode string      Submission mode: Query or Submit (default Query)
//	-query string     SQL query text (Query mode)
//	-xml string       Path to a draw.io XML export (Submit mode)
//	-img string       Path to a diagram image (Submit mode)
//	-plain bool       Stream raw feedback to stdout instead of the TUI
//
// The bearer token is read from the DBASSIST_TOKEN environment variable
// when set, otherwise from the session store written by `dbassist login`.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/databaseassist/dbassist"
	"github.com/databaseassist/dbassist/api"
	"github.com/databaseassist/dbassist/grading"
	"github.com/databaseassist/dbassist/session"
	"github.com/databaseassist/dbassist/tui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "dbassist: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	args := os.Args[1:]
	if len(args) > 0 {
		switch args[0] {
		case "login":
			return runLogin(ctx, args[1:])
		case "logout":
			return runLogout()
		}
	}
	return runSubmit(ctx, args)
}

func runSubmit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("dbassist", flag.ExitOnError)
	var (
		baseURL  = fs.String("base-url", "", "API base URL")
		question = fs.Int("question", 0, "Question ID to submit against")
		mode     = fs.String("mode", string(dbassist.ModeQuery), "Submission mode: Query or Submit")
		query    = fs.String("query", "", "SQL query text (Query mode)")
		xmlPath  = fs.String("xml", "", "Path to a draw.io XML export (Submit mode)")
		imgPath  = fs.String("img", "", "Path to a diagram image (Submit mode)")
		plain    = fs.Bool("plain", false, "Stream raw feedback to stdout instead of the TUI")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	sub, err := buildSubmission(*question, *mode, *query, *xmlPath, *imgPath)
	if err != nil {
		return err
	}

	opts := []grading.Option{grading.WithTokenSource(tokenSource())}
	if *baseURL != "" {
		opts = append(opts, grading.WithBaseURL(*baseURL))
	}
	client := grading.New(opts...)

	if *plain {
		return streamPlain(ctx, client, sub)
	}

	m := tui.NewProgram(client, sub, dbassist.DefaultTheme())
	if err := tui.Run(ctx, m); err != nil {
		return fmt.Errorf("TUI: %w", err)
	}
	return nil
}

func buildSubmission(question int, mode, query, xmlPath, imgPath string) (dbassist.Submission, error) {
	sub := dbassist.Submission{
		QuestionID:   question,
		Mode:         dbassist.Mode(mode),
		StudentQuery: query,
	}

	if xmlPath != "" {
		data, err := os.ReadFile(xmlPath)
		if err != nil {
			return dbassist.Submission{}, fmt.Errorf("read diagram XML: %w", err)
		}
		sub.DiagramXML = string(data)
	}

	if imgPath != "" {
		data, err := os.ReadFile(imgPath)
		if err != nil {
			return dbassist.Submission{}, fmt.Errorf("read diagram image: %w", err)
		}
		mimeType := mime.TypeByExtension(filepath.Ext(imgPath))
		if !strings.HasPrefix(mimeType, "image/") {
			return dbassist.Submission{}, fmt.Errorf("unsupported image type for %s", imgPath)
		}
		sub.Image = &dbassist.ImageAttachment{
			Filename: filepath.Base(imgPath),
			MimeType: mimeType,
			Data:     data,
		}
	}

	if err := sub.Validate(); err != nil {
		return dbassist.Submission{}, err
	}
	return sub, nil
}

// tokenSource prefers the DBASSIST_TOKEN environment variable over the
// session store, so CI and scripts can bypass the login flow.
func tokenSource() dbassist.TokenSource {
	if token := os.Getenv("DBASSIST_TOKEN"); token != "" {
		return func() (string, bool) { return token, true }
	}
	path, err := session.DefaultPath()
	if err != nil {
		return func() (string, bool) { return "", false }
	}
	store := session.NewFileStore(path)
	return store.Token
}

// streamPlain writes feedback chunks to stdout as they arrive, then the
// machine-readable result as JSON.
func streamPlain(ctx context.Context, client *grading.Client, sub dbassist.Submission) error {
	s, err := client.Stream(ctx, sub)
	if err != nil {
		return err
	}
	defer s.Close()

	for {
		evt, err := s.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		if tok, ok := evt.(dbassist.EventToken); ok {
			fmt.Print(tok.Chunk)
		}
	}

	result, err := s.Result()
	if err != nil {
		return err
	}
	fmt.Println()
	if len(result.StructuredOutput) > 0 {
		data, err := json.MarshalIndent(result.StructuredOutput, "", "  ")
		if err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
		fmt.Println(string(data))
	}
	return nil
}

func runLogin(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("dbassist login", flag.ExitOnError)
	var (
		baseURL = fs.String("base-url", "", "API base URL")
		email   = fs.String("email", "", "Account email")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		return errors.New("login: -email is required")
	}

	fmt.Fprint(os.Stderr, "Password: ")
	password, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	password = strings.TrimRight(password, "\r\n")

	var opts []api.Option
	if *baseURL != "" {
		opts = append(opts, api.WithBaseURL(*baseURL))
	}
	token, err := api.New(opts...).Login(ctx, *email, password)
	if err != nil {
		return err
	}

	path, err := session.DefaultPath()
	if err != nil {
		return err
	}
	if err := session.NewFileStore(path).SetToken(token.AccessToken); err != nil {
		return err
	}
	fmt.Fprintln(os.Stderr, "Logged in.")
	return nil
}

func runLogout() error {
	path, err := session.DefaultPath()
	if err != nil {
		return err
	}
	if err := session.NewFileStore(path).Clear(); err != nil {
		return err
	}
	fmt.Fprintln(os.Stderr, "Logged out.")
	return nil
}
