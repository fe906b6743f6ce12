// Package form parses the ad form posted by the mini-app and renders it as
// the HTML body of a group message.
package form

import (
	"errors"
	"fmt"
	"html"
	"net/url"
	"strconv"
	"strings"
)

// Field names used by the mini-app.
const (
	fieldBuyOrSell    = "buy-or-sell"
	fieldOurCurrency  = "our-curr"
	fieldTheirCurr    = "their-curr"
	fieldCentralBank  = "cb"
	fieldRate         = "rate"
	fieldEUMethods    = "eu-methods"
	fieldRUMethods    = "ru-methods"
	fieldEUMethodsStr = "eu-methods-str"
	fieldRUMethodsStr = "ru-methods-str"
	fieldInParts      = "in-parts"
	fieldLocation     = "location"
	fieldOurSum       = "our-sum"
	fieldComment      = "comment"
)

// Buy is the buy-or-sell value meaning the author wants to buy.
const Buy = "Купить"

// ErrDecode is returned for bodies that are not URL-encoded.
var ErrDecode = errors.New("form decode error")

// ValidationError carries a message that can be shown to the user as is.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(msg string) error { return &ValidationError{Message: msg} }

type Form struct {
	Buying bool

	// OurCurrency is what the author gives, TheirCurrency what they get.
	OurCurrency   string
	TheirCurrency string

	EUMethods    []string
	RUMethods    []string
	EUMethodsStr string
	RUMethodsStr string

	InParts  bool
	Location string

	Sum uint32

	// CentralBank means "at the current rate"; otherwise Rate is set.
	CentralBank bool
	Rate        string

	Comment string
}

// Parse decodes an URL-encoded form body. Empty values are treated as
// absent.
func Parse(body []byte) (*Form, error) {
	raw, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	values := make(url.Values, len(raw))
	for k, vs := range raw {
		for _, v := range vs {
			if strings.TrimSpace(v) != "" {
				values[k] = append(values[k], v)
			}
		}
	}

	for _, name := range []string{fieldBuyOrSell, fieldOurCurrency, fieldTheirCurr} {
		if values.Get(name) == "" {
			return nil, invalid("Заполните все обязательные поля")
		}
	}

	f := &Form{
		Buying:        values.Get(fieldBuyOrSell) == Buy,
		OurCurrency:   values.Get(fieldOurCurrency),
		TheirCurrency: values.Get(fieldTheirCurr),
		EUMethods:     values[fieldEUMethods],
		RUMethods:     values[fieldRUMethods],
		EUMethodsStr:  strings.TrimSpace(values.Get(fieldEUMethodsStr)),
		RUMethodsStr:  strings.TrimSpace(values.Get(fieldRUMethodsStr)),
		InParts:       values.Has(fieldInParts),
		Location:      strings.TrimSpace(values.Get(fieldLocation)),
		CentralBank:   values.Has(fieldCentralBank),
		Rate:          strings.TrimSpace(values.Get(fieldRate)),
		Comment:       strings.TrimSpace(values.Get(fieldComment)),
	}

	if !f.CentralBank && f.Rate == "" {
		return nil, invalid("Не указан курс")
	}

	sum, err := strconv.ParseUint(strings.TrimSpace(values.Get(fieldOurSum)), 10, 32)
	if err != nil || sum == 0 {
		return nil, invalid("Укажите сумму")
	}
	f.Sum = uint32(sum)

	return f, nil
}

// Summary is the one-line headline, e.g. "Продам 100 EUR за RUB".
func (f *Form) Summary() string {
	verb, give, get := "Продам", f.OurCurrency, f.TheirCurrency
	if f.Buying {
		verb, give, get = "Куплю", f.TheirCurrency, f.OurCurrency
	}
	return fmt.Sprintf("%s %d %s за %s", verb, f.Sum, give, get)
}

// HTML renders the form for a message with HTML parse mode. All user input
// is escaped.
func (f *Form) HTML() string {
	var b strings.Builder

	b.WriteString("<b>" + html.EscapeString(f.Summary()) + "</b>\n")

	if f.CentralBank {
		b.WriteString("по текущему курсу\n")
	} else {
		b.WriteString("по курсу " + html.EscapeString(f.Rate) + "\n")
	}

	if f.InParts {
		b.WriteString("Возможно частями\n")
	}
	if f.Location != "" {
		b.WriteString("📍 " + html.EscapeString(f.Location) + "\n")
	}

	b.WriteString(methods("eu", f.EUMethods, f.EUMethodsStr))
	b.WriteString(methods("ru", f.RUMethods, f.RUMethodsStr))
	b.WriteString(html.EscapeString(f.Comment))

	return strings.TrimRight(b.String(), "\n")
}

func methods(region string, picked []string, other string) string {
	all := append([]string(nil), picked...)
	if other != "" {
		all = append(all, other)
	}
	if len(all) == 0 {
		return ""
	}
	return region + ": " + html.EscapeString(strings.Join(all, ", ")) + "\n"
}
