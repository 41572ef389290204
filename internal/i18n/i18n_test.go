package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrinterLocales(t *testing.T) {
	c, err := New("en")
	require.NoError(t, err)

	en := c.Printer("en")
	assert.Equal(t, "Page must be a number between 1 and 4.", en.Sprintf(PageBounds, 1, 4))

	fr := c.Printer("fr-FR")
	assert.Equal(t, "fr", fr.Locale())
	assert.Equal(t, "La page doit être un nombre entre 1 et 4.", fr.Sprintf(PageBounds, 1, 4))

	assert.Same(t, fr, c.Printer("fr"), "printers are cached per tag")
}

func TestPrinterFallback(t *testing.T) {
	c, err := New("fr")
	require.NoError(t, err)

	assert.Equal(t, "fr", c.Fallback())
	assert.Equal(t, "Annulé.", c.Printer("").Sprintf(Cancelled))
	assert.Equal(t, "Annulé.", c.Printer("not a tag!").Sprintf(Cancelled))

	_, err = New("???")
	assert.Error(t, err)
}

func TestMatch(t *testing.T) {
	c, err := New("en")
	require.NoError(t, err)

	got, ok := c.Match("FR")
	assert.True(t, ok)
	assert.Equal(t, "fr", got)

	_, ok = c.Match("zz-invalid-$")
	assert.False(t, ok)

	assert.Contains(t, c.Supported(), "en")
	assert.Contains(t, c.Supported(), "fr")
}

func TestEveryTranslationKnown(t *testing.T) {
	known := make(map[string]bool, len(english))
	for _, k := range english {
		known[k] = true
	}
	for tag, msgs := range translations {
		for key := range msgs {
			assert.True(t, known[key], "%s translates an unregistered key %q", tag, key)
		}
	}
}

func TestNilPrinter(t *testing.T) {
	var p *Printer
	assert.Equal(t, "Page 2 of 3", p.Sprintf(PageFooter, 2, 3))
	assert.Equal(t, "en", p.Locale())
}
