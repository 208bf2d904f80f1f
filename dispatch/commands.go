package dispatch

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/eztoolbox/pool"
	"github.com/effective-security/xlog"
	"github.com/tidwall/sjson"
)

// CommandKind is the kind of the REPL line
type CommandKind int

// Command kinds
const (
	CommandInput CommandKind = iota
	CommandClear
	CommandTools
	CommandCall
	CommandVerbose
	CommandRetry
	CommandExec
	CommandHelp
	CommandExit
)

// Command is a parsed REPL line
type Command struct {
	Kind CommandKind
	// Target is the server for /tools and /retry,
	// and the qualified tool name for /call
	Target string
	// Text is the user input, the /call arguments or the /exec code
	Text string
}

// HelpText describes the commands
const HelpText = `Commands:
  /clear                       clear the conversation history
  /tools [server]              list all tools, or tools of one server
  /call server.tool [args...]  call a tool with JSON or key=value arguments
  /verbose                     toggle verbose tracing
  /retry server                reconnect a failed server
  /exec code, !code            execute code locally, when enabled
  /help                        show this help
  /exit, /quit                 end the session`

// ParseCommand parses the REPL line, lines that are not commands
// are user input
func ParseCommand(line string) Command {
	text := strings.TrimSpace(line)
	if strings.HasPrefix(text, "!") {
		return Command{Kind: CommandExec, Text: strings.TrimSpace(text[1:])}
	}
	if !strings.HasPrefix(text, "/") {
		return Command{Kind: CommandInput, Text: text}
	}

	name, rest, _ := strings.Cut(text, " ")
	rest = strings.TrimSpace(rest)
	switch strings.ToLower(name) {
	case "/clear":
		return Command{Kind: CommandClear}
	case "/tools":
		return Command{Kind: CommandTools, Target: rest}
	case "/call":
		target, args, _ := strings.Cut(rest, " ")
		return Command{Kind: CommandCall, Target: target, Text: strings.TrimSpace(args)}
	case "/verbose":
		return Command{Kind: CommandVerbose}
	case "/retry":
		return Command{Kind: CommandRetry, Target: rest}
	case "/exec":
		return Command{Kind: CommandExec, Text: rest}
	case "/help":
		return Command{Kind: CommandHelp}
	case "/exit", "/quit":
		return Command{Kind: CommandExit}
	}
	return Command{Kind: CommandInput, Text: text}
}

// Outcome is the result of the executed command
type Outcome struct {
	Kind    CommandKind
	Reply   *Reply
	Tools   []pool.Tool
	Result  *ToolCallResult
	Verbose bool
	// Output is the text of /exec and /help
	Output string
	Exit   bool
}

// Execute applies the command
func (l *Loop) Execute(ctx context.Context, cmd Command) (*Outcome, error) {
	out := &Outcome{Kind: cmd.Kind}
	switch cmd.Kind {
	case CommandInput:
		if cmd.Text == "" {
			return out, nil
		}
		reply, err := l.Turn(ctx, cmd.Text)
		out.Reply = reply
		return out, err
	case CommandClear:
		return out, l.Clear()
	case CommandTools:
		list, err := l.ListTools(cmd.Target)
		out.Tools = list
		return out, err
	case CommandCall:
		args, err := ParseInvokeArgs(cmd.Text)
		if err != nil {
			return out, err
		}
		res := l.Invoke(ctx, cmd.Target, args)
		out.Result = &res
		return out, nil
	case CommandVerbose:
		out.Verbose = l.ToggleVerbose()
		return out, nil
	case CommandRetry:
		if cmd.Target == "" {
			return out, errors.New("server name is required")
		}
		return out, l.Retry(ctx, cmd.Target)
	case CommandExec:
		res, err := l.UnsafeExecute(ctx, cmd.Text)
		out.Output = res
		return out, err
	case CommandHelp:
		out.Output = HelpText
		return out, nil
	case CommandExit:
		out.Exit = true
		return out, nil
	}
	return out, errors.Newf("unsupported command: %d", cmd.Kind)
}

// ParseInvokeArgs parses a JSON object, or key=value pairs.
// Values that are JSON literals keep their type, others are strings,
// and dotted keys build nested objects.
func ParseInvokeArgs(text string) (map[string]any, error) {
	text = strings.TrimSpace(text)
	args := map[string]any{}
	if text == "" {
		return args, nil
	}

	if strings.HasPrefix(text, "{") {
		if err := json.Unmarshal([]byte(text), &args); err != nil {
			return nil, errors.Wrap(err, "invalid JSON arguments")
		}
		return args, nil
	}

	doc := []byte(`{}`)
	for _, field := range splitFields(text) {
		key, value, ok := strings.Cut(field, "=")
		if !ok || key == "" {
			return nil, errors.Newf("invalid argument %q, expected key=value", field)
		}

		var err error
		if json.Valid([]byte(value)) {
			doc, err = sjson.SetRawBytes(doc, key, []byte(value))
		} else {
			doc, err = sjson.SetBytes(doc, key, unquote(value))
		}
		if err != nil {
			return nil, errors.Wrapf(err, "invalid argument %q", key)
		}
	}

	if err := json.Unmarshal(doc, &args); err != nil {
		return nil, errors.WithStack(err)
	}
	return args, nil
}

// splitFields splits on spaces outside of quotes
func splitFields(s string) []string {
	var (
		res   []string
		cur   strings.Builder
		quote rune
	)
	for _, r := range s {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
			cur.WriteRune(r)
		case r == '"' || r == '\'':
			quote = r
			cur.WriteRune(r)
		case r == ' ' || r == '\t':
			if cur.Len() > 0 {
				res = append(res, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteRune(r)
		}
	}
	if cur.Len() > 0 {
		res = append(res, cur.String())
	}
	return res
}

func unquote(v string) string {
	if len(v) >= 2 && v[0] == '\'' && v[len(v)-1] == '\'' {
		return v[1 : len(v)-1]
	}
	return v
}

// Clear empties the history, it is not allowed during a turn
func (l *Loop) Clear() error {
	if !l.busy.CompareAndSwap(false, true) {
		return errors.WithStack(ErrBusy)
	}
	defer l.busy.Store(false)
	l.history.reset()
	logger.KV(xlog.DEBUG, "status", "history_cleared", "thread", l.threadID)
	return nil
}

// ListTools returns tools of the server, or of all Ready servers
func (l *Loop) ListTools(server string) ([]pool.Tool, error) {
	if server == "" {
		return l.pool.AggregatedCatalog(), nil
	}
	return l.pool.Tools(server)
}

// Invoke calls the tool directly, the call is not recorded in the history
func (l *Loop) Invoke(ctx context.Context, qualified string, args map[string]any) ToolCallResult {
	req := ToolCallRequest{
		ID:            NewTurnID(),
		QualifiedName: qualified,
		Arguments:     args,
	}
	if req.Arguments == nil {
		req.Arguments = map[string]any{}
	}

	s, tool, err := l.pool.Resolve(qualified)
	if err != nil {
		logger.ContextKV(ctx, xlog.WARNING,
			"status", "tool_not_found",
			"tool_name", qualified,
			"err", err.Error())
		return failure(req, err)
	}
	return l.call(ctx, SpanInvoke, "", req, s, tool)
}

// ToggleVerbose switches verbose tracing and returns the new mode
func (l *Loop) ToggleVerbose() bool {
	for {
		v := l.verbose.Load()
		if l.verbose.CompareAndSwap(v, !v) {
			return !v
		}
	}
}

// Retry reconnects the server
func (l *Loop) Retry(ctx context.Context, server string) error {
	return l.pool.Retry(ctx, server)
}
