// Package teletest provides an in-memory tele.Context for handler tests.
package teletest

import (
	"fmt"
	"sync"

	tele "gopkg.in/telebot.v4"
)

// Output is one message sent or edited through the fake context.
type Output struct {
	Text      string
	Markup    *tele.ReplyMarkup
	ParseMode tele.ParseMode
	Edited    bool
}

// Context implements the parts of tele.Context the bot uses.
// Calling any other method panics on the nil embedded interface.
type Context struct {
	tele.Context

	Upd tele.Update
	// Err, when set, is returned by every send or edit.
	Err error

	mu        sync.Mutex
	store     map[string]any
	outputs   []Output
	responses []*tele.CallbackResponse
}

// NewText builds a private-chat text message update from userID.
func NewText(userID int64, text string) *Context {
	user := &tele.User{ID: userID, LanguageCode: "ru"}
	return &Context{Upd: tele.Update{
		ID: int(userID) + 1000,
		Message: &tele.Message{
			ID:     1,
			Sender: user,
			Chat:   &tele.Chat{ID: userID, Type: tele.ChatPrivate},
			Text:   text,
		},
	}}
}

// NewCallback builds a button press update carrying unique and data.
func NewCallback(userID int64, unique, data string) *Context {
	user := &tele.User{ID: userID}
	return &Context{Upd: tele.Update{
		ID: int(userID) + 2000,
		Callback: &tele.Callback{
			ID:     "cb",
			Sender: user,
			Unique: unique,
			Data:   data,
			Message: &tele.Message{
				ID:   7,
				Chat: &tele.Chat{ID: userID, Type: tele.ChatPrivate},
			},
		},
	}}
}

// NewDocument builds a document upload update from userID.
func NewDocument(userID int64, name string) *Context {
	c := NewText(userID, "")
	c.Upd.Message.Document = &tele.Document{FileName: name}
	return c
}

func (c *Context) Update() tele.Update { return c.Upd }

func (c *Context) Message() *tele.Message {
	if c.Upd.Message != nil {
		return c.Upd.Message
	}
	if c.Upd.Callback != nil {
		return c.Upd.Callback.Message
	}
	return nil
}

func (c *Context) Callback() *tele.Callback { return c.Upd.Callback }

func (c *Context) Sender() *tele.User {
	switch {
	case c.Upd.Callback != nil:
		return c.Upd.Callback.Sender
	case c.Upd.Message != nil:
		return c.Upd.Message.Sender
	}
	return nil
}

func (c *Context) Chat() *tele.Chat {
	if m := c.Message(); m != nil {
		return m.Chat
	}
	return nil
}

func (c *Context) Text() string {
	if c.Upd.Message != nil {
		return c.Upd.Message.Text
	}
	return ""
}

func (c *Context) Data() string {
	if c.Upd.Callback != nil {
		return c.Upd.Callback.Data
	}
	return ""
}

func (c *Context) Get(key string) any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store[key]
}

func (c *Context) Set(key string, val any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		c.store = make(map[string]any)
	}
	c.store[key] = val
}

func (c *Context) record(edited bool, what any, opts []any) error {
	if c.Err != nil {
		return c.Err
	}
	out := Output{Text: fmt.Sprint(what), Edited: edited}
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.ReplyMarkup:
			out.Markup = v
		case *tele.SendOptions:
			if v != nil {
				out.Markup = v.ReplyMarkup
				out.ParseMode = v.ParseMode
			}
		case tele.ParseMode:
			out.ParseMode = v
		}
	}
	c.mu.Lock()
	c.outputs = append(c.outputs, out)
	c.mu.Unlock()
	return nil
}

func (c *Context) Send(what any, opts ...any) error  { return c.record(false, what, opts) }
func (c *Context) Reply(what any, opts ...any) error { return c.record(false, what, opts) }
func (c *Context) Edit(what any, opts ...any) error  { return c.record(true, what, opts) }

func (c *Context) EditOrSend(what any, opts ...any) error {
	return c.record(c.Upd.Callback != nil, what, opts)
}

func (c *Context) EditOrReply(what any, opts ...any) error {
	return c.record(c.Upd.Callback != nil, what, opts)
}

func (c *Context) Respond(resp ...*tele.CallbackResponse) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(resp) == 0 {
		resp = []*tele.CallbackResponse{{}}
	}
	c.responses = append(c.responses, resp...)
	return nil
}

// Outputs returns everything sent or edited so far.
func (c *Context) Outputs() []Output {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Output(nil), c.outputs...)
}

// Last returns the most recent output and false when nothing was sent.
func (c *Context) Last() (Output, bool) {
	outs := c.Outputs()
	if len(outs) == 0 {
		return Output{}, false
	}
	return outs[len(outs)-1], true
}

// Responses returns the callback answers recorded so far.
func (c *Context) Responses() []*tele.CallbackResponse {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*tele.CallbackResponse(nil), c.responses...)
}

// Buttons flattens an inline keyboard to "label|data" pairs, row by row.
func Buttons(markup *tele.ReplyMarkup) [][]string {
	if markup == nil {
		return nil
	}
	rows := make([][]string, 0, len(markup.InlineKeyboard))
	for _, row := range markup.InlineKeyboard {
		r := make([]string, len(row))
		for i, btn := range row {
			r[i] = btn.Text + "|" + btn.Data
		}
		rows = append(rows, r)
	}
	return rows
}
