// Package prompt implements the interactive MFA code prompt.
//
// The prompt is a small Bubble Tea application around ui.CodeInput. It owns
// the code string, hands it back to the input after every change, and runs a
// verify.Verifier once the code is complete.
//
// # Screens
//
//   - Entry: the digit cells, a status line and the key help
//   - Verifying: input disabled, spinner running, verifier in flight
//   - Success: the program quits and the caller prints a result box
//   - Failure: the error with troubleshooting tips, offering a retry
//
// A rejected code does not leave the entry screen. The error is shown under
// the cells, the code is cleared and the first cell regains focus. Only when
// the attempts run out, or the error is one that re-entering a code cannot fix
// (bad credentials, a malformed response), does the failure screen appear.
//
// # Usage Example
//
//	app, err := prompt.NewAppModel(verifier, prompt.Options{
//	    Length:      6,
//	    AutoSubmit:  true,
//	    AutoFocus:   true,
//	    MaxAttempts: 3,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	final, err := tea.NewProgram(app, tea.WithMouseCellMotion()).Run()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(final.(prompt.AppModel).Result().Render())
package prompt
