package replies

import (
	"context"
	"errors"
	"testing"
)

func mustTable(t *testing.T, entries ...Entry) *Table {
	t.Helper()
	table, err := NewTable(entries)
	if err != nil {
		t.Fatalf("table: %v", err)
	}
	return table
}

func TestResolveGreetingExample(t *testing.T) {
	table := mustTable(t, Entry{Keyword: "привет", Reply: "Здравствуйте!"})
	for _, lem := range []Lemmatizer{Identity, SnowballLemmatizer{}} {
		r, err := NewResolver(table, lem, "")
		if err != nil {
			t.Fatalf("resolver: %v", err)
		}
		res := r.Resolve(context.Background(), "Привет, как дела?")
		if res.Outcome != Matched || res.Reply != "Здравствуйте!" || res.Token != 0 {
			t.Fatalf("%T: unexpected result %+v", lem, res)
		}
	}
}

func TestResolveFallback(t *testing.T) {
	r, err := NewResolver(mustTable(t, Entry{Keyword: "привет", Reply: "Здравствуйте!"}), SnowballLemmatizer{}, "")
	if err != nil {
		t.Fatalf("resolver: %v", err)
	}
	res := r.Resolve(context.Background(), "qwerty zxcvb")
	if res.Outcome != NoMatch {
		t.Fatalf("outcome = %v", res.Outcome)
	}
	if got := r.Reply(context.Background(), "qwerty zxcvb"); got != DefaultFallback {
		t.Fatalf("reply = %q", got)
	}
	if got := r.Reply(context.Background(), "   "); got != DefaultFallback {
		t.Fatalf("empty message reply = %q", got)
	}
}

func TestResolveFirstTokenWins(t *testing.T) {
	table := mustTable(t,
		Entry{Keyword: "оператор", Reply: "operator"},
		Entry{Keyword: "привет", Reply: "hello"},
	)
	r, err := NewResolver(table, Identity, "fb")
	if err != nil {
		t.Fatalf("resolver: %v", err)
	}
	tests := []struct {
		msg   string
		want  string
		token int
	}{
		{"привет оператор", "hello", 0},
		{"Позовите ОПЕРАТОР! привет", "operator", 1},
		{"— привет —", "hello", 0},
	}
	for _, tt := range tests {
		res := r.Resolve(context.Background(), tt.msg)
		if res.Reply != tt.want || res.Token != tt.token {
			t.Fatalf("Resolve(%q) = %+v, want %q at %d", tt.msg, res, tt.want, tt.token)
		}
	}
}

func TestResolveSnowballInflections(t *testing.T) {
	table := mustTable(t, Entry{Keyword: "страховка", Reply: "insurance"})
	r, err := NewResolver(table, SnowballLemmatizer{Language: "russian"}, "")
	if err != nil {
		t.Fatalf("resolver: %v", err)
	}
	for _, msg := range []string{"Хочу страховку", "нужна страховка", "без страховки"} {
		if got := r.Reply(context.Background(), msg); got != "insurance" {
			t.Fatalf("Reply(%q) = %q", msg, got)
		}
	}
}

func TestResolveDictionaryWithDefaultTable(t *testing.T) {
	table, err := LoadTable("")
	if err != nil {
		t.Fatalf("table: %v", err)
	}
	for _, kind := range []string{"", KindDictionary} {
		lem, err := NewLemmatizer(LemmatizerConfig{Kind: kind})
		if err != nil {
			t.Fatalf("lemmatizer %q: %v", kind, err)
		}
		r, err := NewResolver(table, lem, "")
		if err != nil {
			t.Fatalf("resolver: %v", err)
		}
		tests := []struct {
			msg     string
			keyword string
		}{
			// listed forms
			{"Здравствуйте!", "здравствуйте"},
			{"Сколько стоит страховка?", "стоимость"},
			{"полис каско", "каско"},
			// inflections the dictionary does not list
			{"стоимостями", "стоимость"},
			{"страховками интересуюсь", "страховка"},
			{"операторами", "оператор"},
			// no keyword at all
			{"каска на голове", ""},
			{"в касках", ""},
			{"погода завтра", ""},
		}
		for _, tt := range tests {
			res := r.Resolve(context.Background(), tt.msg)
			if tt.keyword == "" {
				if res.Outcome != NoMatch {
					t.Fatalf("kind %q: Resolve(%q) = %+v, want no match", kind, tt.msg, res)
				}
				continue
			}
			if res.Outcome != Matched || res.Keyword != tt.keyword {
				t.Fatalf("kind %q: Resolve(%q) = %+v, want %q", kind, tt.msg, res, tt.keyword)
			}
		}
	}
}

func TestResolveFailures(t *testing.T) {
	table := mustTable(t, Entry{Keyword: "привет", Reply: "hello"})
	failing := LemmatizerFunc(func(token string) (string, error) {
		if token == "boom" {
			return "", errors.New("analyzer down")
		}
		if token == "panic" {
			panic("broken analyzer")
		}
		return token, nil
	})
	r, err := NewResolver(table, failing, "fb")
	if err != nil {
		t.Fatalf("resolver: %v", err)
	}
	for _, msg := range []string{"boom привет", "panic"} {
		res := r.Resolve(context.Background(), msg)
		if res.Outcome != Failed || res.Err == nil {
			t.Fatalf("Resolve(%q) = %+v, want Failed", msg, res)
		}
		if got := res.Text(r.Fallback()); got != "fb" {
			t.Fatalf("failed result text = %q", got)
		}
	}
}

func TestNewResolverWithFailingIndex(t *testing.T) {
	failing := LemmatizerFunc(func(string) (string, error) { return "", errors.New("down") })
	if _, err := NewResolver(mustTable(t, Entry{Keyword: "a", Reply: "b"}), failing, ""); err == nil {
		t.Fatal("expected error when keywords cannot be indexed")
	}
	if _, err := NewResolver(nil, Identity, ""); err == nil {
		t.Fatal("expected error for nil table")
	}
}

func TestTokenize(t *testing.T) {
	got := Tokenize("  Привет,  как ДЕЛА?! ... «ОСАГО»")
	want := []string{"привет", "как", "дела", "осаго"}
	if len(got) != len(want) {
		t.Fatalf("Tokenize = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Tokenize = %q, want %q", got, want)
		}
	}
}
