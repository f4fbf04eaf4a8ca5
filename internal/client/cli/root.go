package cli

import (
	"context"
)

// Root prints the banner and runs the REPL on stdin until the user exits.
func (a *App) Root(ctx context.Context) {
	a.out.Printf("Welcome to Draped CLI (type 'help' for commands)\n")
	if a.isLoggedIn() {
		a.out.Printf("Signed in as %s\n", a.authService.Session().User.DisplayName())
	}
	runREPL(ctx, a, a.getStatus, a.reader)
}
