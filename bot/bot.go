// Package bot answers chat messages by running the code they carry.
package bot

import (
	"context"
	"log"
	"strings"

	chatlisp "github.com/rphilander/chatlisp/core"
)

const helpText = `Language guide:

To run code, start the message with code:
Example:
code (+ 2 3)
code (print "hello")

Operators:
+  add
-  subtract
*  multiply
/  divide
%  remainder
pow  power
<  less than
<= less than or equal
>  greater than
>= greater than or equal

Commands:
print   print values
string  join values into text
set!    assign a variable
define  define a variable
if      conditional
while   loop while a condition holds
for     counted loop
lambda  function
begin   run several expressions

Text can be written as "text" or 'text'.
Example:
code (print "hello world")
`

const (
	startText   = "Hello! Send /help for a guide."
	unknownText = "Unknown command. Send /help for a guide."
)

// Runner evaluates a program and returns its display text.
type Runner interface {
	Run(ctx context.Context, code string) (string, error)
}

// Bot turns incoming chat text into replies.
type Bot struct {
	Prefix string // messages starting with Prefix carry code; repeats are stripped too
	Runner Runner
	Log    func(format string, args ...any) // log.Printf when nil
}

func (b *Bot) logf(format string, args ...any) {
	if b.Log != nil {
		b.Log(format, args...)
		return
	}
	log.Printf(format, args...)
}

// Handle returns the reply for one message. ok is false when the message
// gets no reply: plain chatter, or a run whose output is rejected.
func (b *Bot) Handle(ctx context.Context, text string) (reply string, ok bool) {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "/") {
		switch trimmed {
		case "/help":
			return helpText, true
		case "/start":
			return startText, true
		default:
			return unknownText, true
		}
	}

	if b.Prefix == "" || !strings.HasPrefix(trimmed, b.Prefix) {
		return "", false
	}
	code := trimmed
	for strings.HasPrefix(code, b.Prefix) {
		code = strings.TrimPrefix(code, b.Prefix)
	}
	code = strings.TrimSpace(code)
	output, err := b.Runner.Run(ctx, code)
	if err != nil {
		b.logf("run %q: %v", code, err)
		return "", false
	}
	if !Accept(output) {
		b.logf("rejected output for %q: %q", code, output)
		return "", false
	}
	return output, true
}

// Accept reports whether output is fit to send back to the user.
func Accept(output string) bool {
	switch {
	case strings.HasPrefix(output, chatlisp.ErrorPrefix),
		strings.Contains(output, "undefined variable"),
		strings.Contains(output, chatlisp.GenericFailure),
		strings.TrimSpace(output) == "",
		output == "()":
		return false
	}
	return true
}
