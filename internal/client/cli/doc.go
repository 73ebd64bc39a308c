// Package cli provides the interactive PharmaLink terminal client.
//
// The REPL drives services.AuthService and services.MedicineService. Failed
// commands are never printed raw: they go through recovery.Handler, which
// classifies them and publishes the result on the event bus. A watcher
// prints each published error together with the actions the user may take,
// and the "act" command sends the chosen action back over the bus.
//
// Commands:
//
//	login                       sign in (prompts for email and password)
//	logout                      end the session
//	status                      show session and backend
//	env <mock|integration|custom> [url]
//	list [search] [page]        list medicines
//	show <id>                   show one medicine
//	add                         create a medicine (interactive)
//	delete <id>                 delete a medicine
//	act [action] [error-id]     answer the last (or given) error
//	help, exit
package cli
