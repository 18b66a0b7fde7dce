package cli

import (
	"context"
	"fmt"
)

func (a *App) getStatus() string {
	s := ""
	if u := a.store.Get().User; u != nil && a.isLoggedIn() {
		s = u.Username + " "
	}
	s = s + string(a.store.Phase())
	if cur := a.nav.Current().Path; cur != "" {
		s = s + " " + cur
	}
	return fmt.Sprintf("(%s)", s)
}

// Root greets the user, opens the landing view (the guards send anonymous
// users to the login view) and runs the REPL.
func (a *App) Root(ctx context.Context) {
	fmt.Fprintln(a.out, "Welcome to huntlog CLI (type 'help' for commands)")

	if _, err := a.nav.Navigate(ctx, "/", nil); err != nil {
		a.logger.Error(ctx, "cannot open landing view", "error", err)
	}

	runREPL(ctx, a, a.getStatus, a.reader)
}
