package cli

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/pharmalink/internal/client/services"
	"github.com/dmitrijs2005/pharmalink/internal/client/session"
	"github.com/dmitrijs2005/pharmalink/internal/common"
	"github.com/dmitrijs2005/pharmalink/internal/wire"
)

var errUsage = errors.New("usage")

// getSimpleText and getPassword are indirections used in tests.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
)

// Login prompts for credentials. A wrong password is reported like any
// other failure and offers no retry: the user simply runs login again.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a)
	if err != nil {
		return err
	}
	password, err := getPassword(a.reader, a)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	u, err := a.auth.Login(ctx, email, password)
	if err != nil {
		a.report(ctx, "Login", err, nil)
		return err
	}

	a.mu.Lock()
	a.user = u.Email
	a.mu.Unlock()
	a.printf("Signed in as %s (%s)\n", u.Name, u.Email)
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.auth.Logout(ctx); err != nil {
		a.report(ctx, "Logout", err, nil)
		return err
	}
	a.mu.Lock()
	a.user = ""
	a.mu.Unlock()
	a.println("Signed out")
	return nil
}

func (a *App) Status(ctx context.Context) error {
	st := a.auth.Status(ctx)
	a.printf("environment:   %s\n", st.Environment)
	a.printf("base url:      %s\n", st.BaseURL)
	a.printf("authenticated: %t\n", st.Authenticated)
	a.printf("refresh state: %s\n", st.RefreshState)
	return nil
}

func (a *App) Env(ctx context.Context, args []string) error {
	if len(args) == 0 {
		a.println("Usage: env <mock|integration|custom> [url]")
		return errUsage
	}
	env, err := session.ParseEnvironment(args[0])
	if err != nil {
		a.println(err.Error())
		return err
	}
	var customURL string
	if len(args) > 1 {
		customURL = args[1]
	}

	if err := a.auth.SwitchEnvironment(ctx, env, customURL); err != nil {
		a.println(err.Error())
		return err
	}
	a.mu.Lock()
	a.user = ""
	a.mu.Unlock()
	a.printf("Using %s environment\n", env)
	return nil
}

// List accepts an optional search term and page number; a trailing
// number is taken as the page.
func (a *App) List(ctx context.Context, args []string) error {
	q := services.ListQuery{Limit: 10}
	if n := len(args); n > 0 {
		if page, err := strconv.Atoi(args[n-1]); err == nil {
			q.Page = page
			args = args[:n-1]
		}
	}
	q.Search = strings.Join(args, " ")

	run := func(ctx context.Context) error {
		items, page, err := a.meds.List(ctx, q)
		if err != nil {
			return err
		}
		a.printMedicines(items, page)
		return nil
	}

	if err := run(ctx); err != nil {
		a.report(ctx, "Medicine search", err, run)
		return err
	}
	return nil
}

func (a *App) Show(ctx context.Context, args []string) error {
	if len(args) != 1 {
		a.println("Usage: show <id>")
		return errUsage
	}
	run := func(ctx context.Context) error {
		m, err := a.meds.Get(ctx, args[0])
		if err != nil {
			return err
		}
		a.printMedicine(m)
		return nil
	}
	if err := run(ctx); err != nil {
		a.report(ctx, "Medicine details", err, run)
		return err
	}
	return nil
}

func (a *App) Add(ctx context.Context) error {
	var (
		req wire.CreateMedicineRequest
		err error
	)
	if req.Name, err = getSimpleText(a.reader, "Name", a); err != nil {
		return err
	}
	if req.Manufacturer, err = getSimpleText(a.reader, "Manufacturer", a); err != nil {
		return err
	}
	if req.Price, err = GetFloat(a.reader, "Price", a); err != nil {
		return err
	}
	if req.Stock, err = GetInt(a.reader, "Stock", a); err != nil {
		return err
	}
	if req.RequiresPrescription, err = GetYesNo(a.reader, "Requires prescription? [y/N]", false, a); err != nil {
		return err
	}

	run := func(ctx context.Context) error {
		m, err := a.meds.Create(ctx, req)
		if err != nil {
			return err
		}
		a.printf("Created %s\n", m.ID)
		return nil
	}
	if err := run(ctx); err != nil {
		a.report(ctx, "Add medicine", err, run)
		return err
	}
	return nil
}

func (a *App) Delete(ctx context.Context, args []string) error {
	if len(args) != 1 {
		a.println("Usage: delete <id>")
		return errUsage
	}
	run := func(ctx context.Context) error {
		if err := a.meds.Delete(ctx, args[0]); err != nil {
			return err
		}
		a.println("Deleted")
		return nil
	}
	if err := run(ctx); err != nil {
		a.report(ctx, "Delete medicine", err, run)
		return err
	}
	return nil
}

func (a *App) printMedicines(items []wire.Medicine, page *wire.Pagination) {
	if len(items) == 0 {
		a.println("No medicines found")
		return
	}
	for _, m := range items {
		rx := ""
		if m.RequiresPrescription {
			rx = " Rx"
		}
		a.printf("%-36s  %-24s %8.2f  stock %-5d%s\n", m.ID, m.Name, m.Price, m.Stock, rx)
	}
	if page != nil {
		a.printf("page %d of %d (%d total)\n", page.Page, page.TotalPages, page.Total)
	}
}

func (a *App) printMedicine(m *wire.Medicine) {
	a.printf("id:           %s\n", m.ID)
	a.printf("name:         %s\n", m.Name)
	a.printf("manufacturer: %s\n", m.Manufacturer)
	a.printf("price:        %.2f\n", m.Price)
	a.printf("stock:        %d\n", m.Stock)
	a.printf("prescription: %t\n", m.RequiresPrescription)
}
