package form

import (
	"errors"
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func body(pairs ...string) []byte {
	v := url.Values{}
	for i := 0; i+1 < len(pairs); i += 2 {
		v.Add(pairs[i], pairs[i+1])
	}
	return []byte(v.Encode())
}

func TestParse_Full(t *testing.T) {
	got, err := Parse(body(
		"buy-or-sell", "Продать",
		"our-curr", "EUR",
		"their-curr", "RUB",
		"rate", "98.5",
		"eu-methods", "SEPA",
		"eu-methods", "Revolut",
		"ru-methods", "Тинькофф",
		"ru-methods-str", "наличные",
		"in-parts", "on",
		"location", "Берлин",
		"our-sum", "1500",
		"comment", "  срочно  ",
		"eu-methods-str", "",
	))
	require.NoError(t, err)

	want := &Form{
		OurCurrency:   "EUR",
		TheirCurrency: "RUB",
		EUMethods:     []string{"SEPA", "Revolut"},
		RUMethods:     []string{"Тинькофф"},
		RUMethodsStr:  "наличные",
		InParts:       true,
		Location:      "Берлин",
		Sum:           1500,
		Rate:          "98.5",
		Comment:       "срочно",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("form mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, "<b>Продам 1500 EUR за RUB</b>\n"+
		"по курсу 98.5\n"+
		"Возможно частями\n"+
		"📍 Берлин\n"+
		"eu: SEPA, Revolut\n"+
		"ru: Тинькофф, наличные\n"+
		"срочно", got.HTML())
}

func TestParse_BuyingAtCurrentRate(t *testing.T) {
	got, err := Parse(body(
		"buy-or-sell", Buy,
		"our-curr", "RUB",
		"their-curr", "EUR",
		"cb", "on",
		"our-sum", "200",
	))
	require.NoError(t, err)

	assert.True(t, got.Buying)
	assert.Equal(t, "Куплю 200 EUR за RUB", got.Summary())
	assert.Equal(t, "<b>Куплю 200 EUR за RUB</b>\nпо текущему курсу", got.HTML())
}

func TestParse_Invalid(t *testing.T) {
	base := []string{"buy-or-sell", Buy, "our-curr", "RUB", "their-curr", "EUR", "our-sum", "1"}

	tests := []struct {
		name string
		body []byte
		msg  string
	}{
		{"no rate", body(base...), "Не указан курс"},
		{"empty rate", body(append(base, "rate", " ")...), "Не указан курс"},
		{"missing currency", body("buy-or-sell", Buy, "our-curr", "RUB", "cb", "on", "our-sum", "1"), "Заполните все обязательные поля"},
		{"bad sum", body("buy-or-sell", Buy, "our-curr", "RUB", "their-curr", "EUR", "cb", "on", "our-sum", "много"), "Укажите сумму"},
		{"zero sum", body("buy-or-sell", Buy, "our-curr", "RUB", "their-curr", "EUR", "cb", "on", "our-sum", "0"), "Укажите сумму"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.body)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tt.msg, verr.Message)
		})
	}
}

func TestParse_DecodeError(t *testing.T) {
	_, err := Parse([]byte("a=%zz"))
	require.ErrorIs(t, err, ErrDecode)
}

func TestHTML_EscapesInput(t *testing.T) {
	f := &Form{
		OurCurrency:   "<EUR>",
		TheirCurrency: "RUB",
		Sum:           1,
		Rate:          "1 & 2",
		EUMethodsStr:  "<script>",
		Comment:       `<a href="x">spam</a>`,
	}

	out := f.HTML()
	assert.NotContains(t, out, "<script>")
	assert.NotContains(t, out, "<a href")
	assert.Contains(t, out, "&lt;EUR&gt;")
	assert.Contains(t, out, "1 &amp; 2")
	assert.Contains(t, out, "eu: &lt;script&gt;\n")
}
