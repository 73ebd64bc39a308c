package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/common-nighthawk/go-figure"

	"github.com/dmitrijs2005/pharmalink/internal/client/classify"
	"github.com/dmitrijs2005/pharmalink/internal/client/events"
	"github.com/dmitrijs2005/pharmalink/internal/client/recovery"
	"github.com/dmitrijs2005/pharmalink/internal/client/services"
	"github.com/dmitrijs2005/pharmalink/internal/logging"
)

const appName = "PharmaLink"

type App struct {
	auth     services.AuthService
	meds     services.MedicineService
	recovery *recovery.Handler
	bus      *events.Bus
	logger   logging.Logger

	reader *bufio.Reader
	out    io.Writer
	outMu  sync.Mutex

	mu     sync.Mutex
	shown  map[string]classify.ProcessedError
	lastID string
	user   string
}

// Deps are the collaborators the App drives.
type Deps struct {
	Auth     services.AuthService
	Meds     services.MedicineService
	Recovery *recovery.Handler
	Bus      *events.Bus
	Logger   logging.Logger
	In       io.Reader
	Out      io.Writer
}

func NewApp(d Deps) *App {
	logger := d.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &App{
		auth:     d.Auth,
		meds:     d.Meds,
		recovery: d.Recovery,
		bus:      d.Bus,
		logger:   logger.With("component", "cli"),
		reader:   bufio.NewReader(d.In),
		out:      d.Out,
		shown:    make(map[string]classify.ProcessedError),
	}
}

// Run prints the banner, restores a persisted session, starts the error
// watcher and blocks in the REPL until the user exits or ctx is done.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.println(figure.NewFigure(appName, "cybermedium", true).String())
	a.println("Type 'help' for commands")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		a.watchErrors(ctx)
	}()

	restored, err := a.auth.Restore(ctx)
	switch {
	case err != nil:
		a.report(ctx, "Session restore", err, nil)
	case restored:
		a.println("Session restored")
	}

	runREPL(ctx, a, a.prompt, a.reader, a)

	cancel()
	wg.Wait()
}

// NotifyAuthRequired is called when the session can no longer be renewed.
func (a *App) NotifyAuthRequired() {
	a.mu.Lock()
	a.user = ""
	a.mu.Unlock()
	a.println("Your session has ended. Type 'login' to sign in again.")
}

func (a *App) isLoggedIn(ctx context.Context) bool {
	return a.auth.Status(ctx).Authenticated
}

func (a *App) prompt(ctx context.Context) string {
	st := a.auth.Status(ctx)

	a.mu.Lock()
	user := a.user
	a.mu.Unlock()

	switch {
	case !st.Authenticated:
		return fmt.Sprintf("pharmalink (%s)> ", st.Environment)
	case user != "":
		return fmt.Sprintf("pharmalink (%s %s)> ", user, st.Environment)
	default:
		return fmt.Sprintf("pharmalink (signed in %s)> ", st.Environment)
	}
}

// Write serializes output from the REPL and the error watcher.
func (a *App) Write(p []byte) (int, error) {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	return a.out.Write(p)
}

func (a *App) println(args ...any) {
	fmt.Fprintln(a, args...)
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a, format, args...)
}
