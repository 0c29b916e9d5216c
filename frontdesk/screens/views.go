package screens

import "fmt"

// BackLabel is the label of the button returning to the start screen.
const BackLabel = "Назад"

// Button is one inline button: what the user sees and where it leads.
type Button struct {
	Label  string
	Target Screen
}

// View is the text and button layout rendered for a screen.
type View struct {
	Screen Screen
	Text   string
	Rows   [][]Button
}

// Texts overrides screen texts, for example to put real links in place of
// the placeholders. Screens missing from the map keep their default text.
type Texts map[Screen]string

// Catalog renders views. The zero value renders the default texts.
type Catalog struct {
	texts Texts
}

// NewCatalog validates overrides and returns a catalog using them.
func NewCatalog(overrides map[string]string) (*Catalog, error) {
	texts := make(Texts, len(overrides))
	for id, text := range overrides {
		s, ok := Parse(id)
		if !ok {
			return nil, fmt.Errorf("screen text override %q: %w", id, ErrUnknownScreen)
		}
		if text == "" {
			return nil, fmt.Errorf("screen text override %q is empty", id)
		}
		texts[s] = text
	}
	return &Catalog{texts: texts}, nil
}

// View returns the layout of s.
func (c *Catalog) View(s Screen) (View, error) {
	text, rows, ok := defaultView(s)
	if !ok {
		return View{}, fmt.Errorf("%w: %q", ErrUnknownScreen, string(s))
	}
	if c != nil {
		if override, ok := c.texts[s]; ok {
			text = override
		}
	}
	return View{Screen: s, Text: text, Rows: rows}, nil
}

func back() [][]Button {
	return [][]Button{{{Label: BackLabel, Target: Start}}}
}

// defaultView is exhaustive over the screen set; a new Screen constant
// without a case here renders as unknown.
func defaultView(s Screen) (string, [][]Button, bool) {
	switch s {
	case Start:
		return "Выберите один из вариантов:", [][]Button{
			{{Label: "Наши соц.сети", Target: Messengers}, {Label: "Наш сайт", Target: Site}},
			{{Label: "Расчет стоимости страхования", Target: Pricing}, {Label: "Связаться с оператором", Target: ContactOperator}},
			{{Label: "О компании", Target: Info}, {Label: "Помощь", Target: Help}},
		}, true
	case Messengers:
		return "Наши соц.сети: [Ссылка на соц.сети]", back(), true
	case Site:
		return "Наш сайт: [Ссылка на сайт]", back(), true
	case Pricing:
		return "Расчет стоимости страхования: [Ссылка на расчет]", back(), true
	case ContactOperator:
		return "Переход на оператора. Пожалуйста, подождите...", back(), true
	case Info:
		return "Мы помогаем подобрать страхование автомобиля, жилья, здоровья и путешествий.", back(), true
	case Help:
		return "Напишите вопрос своими словами, например «сколько стоит ОСАГО», или выберите раздел кнопками ниже.", back(), true
	}
	return "", nil, false
}

// Targets returns every screen reachable from the view's buttons.
func (v View) Targets() []Screen {
	var out []Screen
	for _, row := range v.Rows {
		for _, b := range row {
			out = append(out, b.Target)
		}
	}
	return out
}

// Leads reports whether one of the view's buttons targets s.
func (v View) Leads(s Screen) bool {
	for _, t := range v.Targets() {
		if t == s {
			return true
		}
	}
	return false
}
