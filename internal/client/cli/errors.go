package cli

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/dmitrijs2005/pharmalink/internal/client/classify"
	"github.com/dmitrijs2005/pharmalink/internal/client/events"
)

var (
	errNoPendingError = errors.New("no error to act on")
	errUnknownAction  = errors.New("action not offered for this error")
)

// report hands a failed command to the recovery handler. The watcher
// prints the classified result.
func (a *App) report(ctx context.Context, op string, err error, retry classify.RetryFunc) {
	a.recovery.Handle(ctx, err, classify.Options{Context: op, Retry: retry})
}

// watchErrors prints errors published on the bus and retracts them when
// a retry succeeds.
func (a *App) watchErrors(ctx context.Context) {
	errs, cancelErrs := a.bus.Errors.Subscribe()
	defer cancelErrs()
	removes, cancelRemoves := a.bus.Removes.Subscribe()
	defer cancelRemoves()

	for {
		select {
		case <-ctx.Done():
			return
		case pe, ok := <-errs:
			if !ok {
				return
			}
			a.remember(pe)
			a.render(pe)
		case ev, ok := <-removes:
			if !ok {
				return
			}
			if a.forget(ev.ErrorID) {
				a.printf("[%s] resolved\n", shortID(ev.ErrorID))
			}
		}
	}
}

func (a *App) remember(pe classify.ProcessedError) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.shown[pe.ID] = pe
	a.lastID = pe.ID
}

func (a *App) forget(id string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.shown[id]
	delete(a.shown, id)
	if a.lastID == id {
		a.lastID = ""
	}
	return ok
}

func (a *App) render(pe classify.ProcessedError) {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", shortID(pe.ID), pe.Severity)
	if pe.Context != "" {
		fmt.Fprintf(&b, " %s:", pe.Context)
	}
	fmt.Fprintf(&b, " %s\n", pe.Message)

	for _, k := range slices.Sorted(maps.Keys(pe.Fields)) {
		fmt.Fprintf(&b, "    %s: %s\n", k, pe.Fields[k])
	}

	if len(pe.UserActions) > 0 {
		labels := make([]string, 0, len(pe.UserActions))
		for _, ua := range pe.UserActions {
			l := string(ua.Type)
			if ua.Primary {
				l += "*"
			}
			labels = append(labels, l)
		}
		fmt.Fprintf(&b, "    actions: %s (act <action>)\n", strings.Join(labels, ", "))
	}
	a.printf("%s", b.String())
}

// Act publishes the user's answer to a shown error. With no arguments the
// primary action of the latest error is used; an id may be abbreviated.
func (a *App) Act(ctx context.Context, args []string) error {
	var action, id string
	if len(args) > 0 {
		action = args[0]
	}
	if len(args) > 1 {
		id = args[1]
	}

	pe, err := a.lookup(id)
	if err != nil {
		a.println(err.Error())
		return err
	}

	at := classify.ActionType(action)
	if action == "" {
		at = primaryAction(pe)
	}
	if !pe.HasAction(at) {
		err := fmt.Errorf("%w: %q", errUnknownAction, at)
		a.println(err.Error())
		return err
	}

	if at == classify.ActionClose {
		a.forget(pe.ID)
	}
	a.bus.Actions.Publish(ctx, events.ActionEvent{ErrorID: pe.ID, Action: at})
	return nil
}

func (a *App) lookup(id string) (classify.ProcessedError, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if id == "" {
		id = a.lastID
	}
	if id == "" {
		return classify.ProcessedError{}, errNoPendingError
	}
	if pe, ok := a.shown[id]; ok {
		return pe, nil
	}
	for full, pe := range a.shown {
		if strings.HasPrefix(full, id) {
			return pe, nil
		}
	}
	return classify.ProcessedError{}, fmt.Errorf("%w: %s", errNoPendingError, id)
}

func primaryAction(pe classify.ProcessedError) classify.ActionType {
	for _, ua := range pe.UserActions {
		if ua.Primary {
			return ua.Type
		}
	}
	return classify.ActionClose
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
