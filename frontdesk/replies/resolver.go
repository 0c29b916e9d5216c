// Package replies answers free-text messages with canned replies chosen by
// the first keyword lemma found in the message.
package replies

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/m3rciful/insurebot/core/logger"
)

// DefaultFallback is sent when no keyword matches or resolution fails.
const DefaultFallback = "Я не знаю ответа на ваш вопрос. Могу перевести на оператора."

const component = "replies"

// Outcome tells how a message was resolved.
type Outcome int

const (
	// NoMatch means no token normalized to a known keyword.
	NoMatch Outcome = iota
	// Matched means Reply holds the reply of the first matching token.
	Matched
	// Failed means the analyzer failed; Err holds the cause.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Matched:
		return "matched"
	case Failed:
		return "failed"
	default:
		return "no_match"
	}
}

// Result is the outcome of resolving one message.
type Result struct {
	Outcome Outcome
	Reply   string
	// Keyword is the table keyword that matched and Lemma the normal form it matched on.
	Keyword string
	Lemma   string
	// Token is the position of the matching token among the message tokens.
	Token int
	Err   error
}

// Text returns the reply, or fallback for anything but a match.
func (r Result) Text(fallback string) string {
	if r.Outcome == Matched {
		return r.Reply
	}
	return fallback
}

// Resolver is safe for concurrent use.
type Resolver struct {
	lem      Lemmatizer
	index    indexed
	fallback string
}

// NewResolver indexes table through lem. An empty fallback selects DefaultFallback.
func NewResolver(table *Table, lem Lemmatizer, fallback string) (*Resolver, error) {
	if table == nil {
		return nil, fmt.Errorf("replies: nil table")
	}
	if lem == nil {
		lem = Identity
	}
	idx, shadowed, err := table.index(lem)
	if err != nil {
		return nil, fmt.Errorf("replies: %w", err)
	}
	if len(shadowed) > 0 {
		logger.Warn(logger.Background(), component, "table.shadowed",
			slog.String("keywords", strings.Join(shadowed, ",")),
			slog.String("reason", "same normal form as an earlier keyword"),
		)
	}
	if strings.TrimSpace(fallback) == "" {
		fallback = DefaultFallback
	}
	return &Resolver{lem: lem, index: idx, fallback: fallback}, nil
}

// Fallback returns the text used when nothing matched.
func (r *Resolver) Fallback() string { return r.fallback }

// Resolve finds the reply for message. It never panics: analyzer failures
// and panics are reported as Failed.
func (r *Resolver) Resolve(ctx context.Context, message string) (res Result) {
	defer func() {
		if p := recover(); p != nil {
			res = Result{Outcome: Failed, Err: fmt.Errorf("lemmatizer panic: %v", p)}
		}
		r.log(ctx, res)
	}()

	for i, token := range Tokenize(message) {
		lemma, err := r.lem.Normalize(token)
		if err != nil {
			return Result{Outcome: Failed, Token: i, Err: fmt.Errorf("normalize %q: %w", token, err)}
		}
		if e, ok := r.index[lemma]; ok {
			return Result{Outcome: Matched, Reply: e.reply, Keyword: e.keyword, Lemma: lemma, Token: i}
		}
	}
	return Result{Outcome: NoMatch}
}

// Reply resolves message and substitutes the fallback, so the caller always has text to send.
func (r *Resolver) Reply(ctx context.Context, message string) string {
	return r.Resolve(ctx, message).Text(r.fallback)
}

func (r *Resolver) log(ctx context.Context, res Result) {
	switch res.Outcome {
	case Failed:
		logger.Error(ctx, component, "resolve.failed",
			slog.String("status", "fail"),
			slog.String("outcome", "fallback"),
			slog.String("err", res.Err.Error()),
		)
	case Matched:
		logger.Debug(ctx, component, "resolve.matched",
			slog.String("status", "ok"),
			slog.String("lemma", res.Lemma),
			slog.String("keyword", res.Keyword),
			slog.Int("token", res.Token),
		)
	default:
		logger.Debug(ctx, component, "resolve.no_match", slog.String("outcome", "fallback"))
	}
}

// Tokenize lowercases message, splits it on whitespace and trims punctuation
// around each token. Tokens made only of punctuation are dropped.
func Tokenize(message string) []string {
	fields := strings.Fields(strings.ToLower(message))
	tokens := fields[:0]
	for _, f := range fields {
		if t := strings.TrimFunc(f, isPunct); t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

func isPunct(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSymbol(r)
}

func isSpace(r rune) bool {
	return unicode.IsSpace(r)
}
