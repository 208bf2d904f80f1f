// Package builtin provides the default tool table served by ez-mcp-server.
package builtin

import (
	"context"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/eztoolbox/tools"
)

const (
	// ServerName is the name of the default endpoint
	ServerName = "ez-mcp-server"
	// ServerDescription is the description of the default endpoint
	ServerDescription = "Ez MCP server with default tools"
)

// ErrDivisionByZero is returned by divide when b is zero
var ErrDivisionByZero = errors.New("division by zero")

// Funcs returns the default tool table
func Funcs() []tools.Func {
	return []tools.Func{
		{
			Name: "add",
			Doc: `Add two numbers.

Args:
    a: first addend
    b: second addend

Returns:
    the sum of a and b`,
			Params: []tools.Param{
				tools.Required("a", "float"),
				tools.Required("b", "float"),
			},
			Call: func(_ context.Context, args tools.Args) (any, error) {
				return args.Number("a") + args.Number("b"), nil
			},
		},
		{
			Name: "subtract",
			Doc: `Subtract b from a.

Args:
    a: minuend
    b: subtrahend`,
			Params: []tools.Param{
				tools.Required("a", "float"),
				tools.Required("b", "float"),
			},
			Call: func(_ context.Context, args tools.Args) (any, error) {
				return args.Number("a") - args.Number("b"), nil
			},
		},
		{
			Name: "multiply",
			Doc: `Multiply two numbers.

Args:
    a: first factor
    b: second factor`,
			Params: []tools.Param{
				tools.Required("a", "float"),
				tools.Required("b", "float"),
			},
			Call: func(_ context.Context, args tools.Args) (any, error) {
				return args.Number("a") * args.Number("b"), nil
			},
		},
		{
			Name: "divide",
			Doc: `Divide a by b.

Args:
    a: dividend
    b: divisor, must not be zero

Raises:
    ZeroDivisionError: when b is zero`,
			Params: []tools.Param{
				tools.Required("a", "float"),
				tools.Required("b", "float"),
			},
			Call: func(_ context.Context, args tools.Args) (any, error) {
				b := args.Number("b")
				if b == 0 {
					return nil, ErrDivisionByZero
				}
				return args.Number("a") / b, nil
			},
		},
		{
			Name: "power",
			Doc: `Raise base to the power of exponent.

Args:
    base: the base
    exponent: the exponent, 2 by default`,
			Params: []tools.Param{
				tools.Required("base", "float"),
				tools.Optional("exponent", "float", 2),
			},
			Call: func(_ context.Context, args tools.Args) (any, error) {
				res := math.Pow(args.Number("base"), args.Number("exponent"))
				if math.IsNaN(res) || math.IsInf(res, 0) {
					return nil, errors.New("result is not a finite number")
				}
				return res, nil
			},
		},
		{
			Name: "echo",
			Doc: `Echo the message back.

Args:
    message: text to echo
    upper: convert the text to upper case`,
			Params: []tools.Param{
				tools.Required("message", "str"),
				tools.Optional("upper", "bool", false),
			},
			Call: func(_ context.Context, args tools.Args) (any, error) {
				msg := args.String("message")
				if args.Bool("upper") {
					msg = strings.ToUpper(msg)
				}
				return msg, nil
			},
		},
		{
			Name: "word_count",
			Doc: `Count words and characters in the text.

Args:
    text: the text to analyze`,
			Params: []tools.Param{
				tools.Required("text", "str"),
			},
			Call: func(_ context.Context, args tools.Args) (any, error) {
				text := args.String("text")
				return WordCount{
					Words:      len(strings.Fields(text)),
					Characters: utf8.RuneCountInString(text),
					Lines:      lineCount(text),
				}, nil
			},
		},
	}
}

// WordCount is the result of word_count
type WordCount struct {
	Words      int `json:"words" yaml:"words"`
	Characters int `json:"characters" yaml:"characters"`
	Lines      int `json:"lines" yaml:"lines"`
}

func lineCount(text string) int {
	if text == "" {
		return 0
	}
	return strings.Count(strings.TrimSuffix(text, "\n"), "\n") + 1
}

// Catalog returns the synthesized default tools
func Catalog() *tools.Catalog {
	c, errs := tools.SynthesizeBatch(Funcs())
	if len(errs) > 0 {
		// the table is static, a failure is a programming error
		panic(errors.Join(errs...))
	}
	return c
}
