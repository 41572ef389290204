// Package i18n holds the message catalog used for every user-facing reply.
package i18n

import (
	"fmt"
	"strings"

	"github.com/puzpuzpuz/xsync/v3"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

var translations = map[language.Tag]map[string]string{
	language.French: {
		NotAllowed:         "Vous n'êtes pas autorisé à utiliser cette commande.",
		StorageUnavailable: "Le stockage est indisponible pour le moment, réessayez plus tard.",
		Apology:            "Une erreur est survenue de notre côté. L'incident `%s` a été signalé.",
		ClientFailure:      "Discord a refusé la requête (%d) : %s",
		ForbiddenHint:      "Vérifiez que le bot dispose des permissions nécessaires dans ce salon.",
		PageBounds:         "La page doit être un nombre entre %d et %d.",
		PageFooter:         "Page %d sur %d",
		PageNotNumber:      "La page doit être un nombre.",
		ReactionsForbidden: "Je ne peux pas ajouter de réactions ici, tapez votre choix.",
		Pong:               "Pong ! Latence de la passerelle : %s",
		HelpTitle:          "Commandes",
		HelpCategory:       "Commandes %s",
		PrefixCurrent:      "Le préfixe actuel est `%s`.",
		PrefixSet:          "Préfixe défini sur `%s`.",
		PrefixConfirm:      "Réinitialiser le préfixe à `%s` ? Réagissez ✅ ou ❌, ou tapez yes ou no.",
		PrefixResetDone:    "Préfixe réinitialisé à `%s`.",
		Cancelled:          "Annulé.",
		LocaleCurrent:      "La langue actuelle est `%s`. Disponibles : %s",
		LocaleSet:          "Langue définie sur `%s`.",
		LocaleUnknown:      "Langue inconnue `%s`. Disponibles : %s",
		RoleGranted:        "Rôle `%s` accordé à %s.",
		RoleRevoked:        "Rôle `%s` retiré à %s.",
		RoleUnknown:        "Rôle inconnu `%s`. Utilisez admin ou moderator.",
		HistoryTitle:       "Commandes récentes",
		HistoryEmpty:       "Aucune commande enregistrée.",
		RankTitle:          "Classement %s",
		RankEmpty:          "Personne n'est encore classé dans `%s`.",
		RankUnknown:        "Catégorie inconnue `%s`. Essayez : %s",
		RankUsersNotFound:  "Aucun des joueurs demandés n'est classé dans `%s`.",
	},
}

var english = []string{
	NotAllowed, StorageUnavailable, Apology, ClientFailure, ForbiddenHint,
	PageBounds, PageFooter, PageNotNumber, ReactionsForbidden, Pong, HelpTitle, HelpCategory,
	PrefixCurrent, PrefixSet, PrefixConfirm, PrefixResetDone, Cancelled,
	LocaleCurrent, LocaleSet, LocaleUnknown, RoleGranted, RoleRevoked,
	RoleUnknown, HistoryTitle, HistoryEmpty, RankTitle, RankEmpty, RankUnknown,
	RankUsersNotFound,
}

// Catalog resolves locale strings to printers.
type Catalog struct {
	cat      *catalog.Builder
	tags     []language.Tag
	matcher  language.Matcher
	fallback language.Tag
	printers *xsync.MapOf[language.Tag, *Printer]
}

// New builds the catalog with English plus the bundled translations.
// Unknown locales resolve to fallback.
func New(fallback string) (*Catalog, error) {
	fb, err := language.Parse(fallback)
	if err != nil {
		return nil, fmt.Errorf("parse fallback locale %q: %w", fallback, err)
	}

	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for _, key := range english {
		if err := b.SetString(language.English, key, key); err != nil {
			return nil, fmt.Errorf("catalog en: %w", err)
		}
	}
	tags := []language.Tag{language.English}
	for tag, msgs := range translations {
		for key, msg := range msgs {
			if err := b.SetString(tag, key, msg); err != nil {
				return nil, fmt.Errorf("catalog %s: %w", tag, err)
			}
		}
		tags = append(tags, tag)
	}

	c := &Catalog{
		cat:      b,
		tags:     tags,
		matcher:  language.NewMatcher(tags),
		printers: xsync.NewMapOf[language.Tag, *Printer](),
	}
	if matched, ok := c.match(fb); ok {
		c.fallback = matched
	} else {
		c.fallback = language.English
	}
	return c, nil
}

// Match returns the canonical supported locale for raw.
func (c *Catalog) Match(raw string) (string, bool) {
	tag, err := language.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", false
	}
	matched, ok := c.match(tag)
	if !ok {
		return "", false
	}
	return matched.String(), true
}

func (c *Catalog) match(tag language.Tag) (language.Tag, bool) {
	_, idx, conf := c.matcher.Match(tag)
	if conf == language.No {
		return language.Und, false
	}
	return c.tags[idx], true
}

// Supported lists the locales with a translation, English first.
func (c *Catalog) Supported() []string {
	out := make([]string, len(c.tags))
	for i, t := range c.tags {
		out[i] = t.String()
	}
	return out
}

// Fallback is the locale used when none is configured or matched.
func (c *Catalog) Fallback() string { return c.fallback.String() }

// Printer returns the printer for locale, falling back when unsupported.
func (c *Catalog) Printer(locale string) *Printer {
	tag := c.fallback
	if locale != "" {
		if parsed, err := language.Parse(locale); err == nil {
			if matched, ok := c.match(parsed); ok {
				tag = matched
			}
		}
	}
	p, _ := c.printers.LoadOrCompute(tag, func() *Printer {
		return &Printer{tag: tag, p: message.NewPrinter(tag, message.Catalog(c.cat))}
	})
	return p
}

// Printer formats catalog messages for one locale.
type Printer struct {
	tag language.Tag
	p   *message.Printer
}

// Sprintf renders key with args.
func (p *Printer) Sprintf(key string, args ...any) string {
	if p == nil {
		return fmt.Sprintf(key, args...)
	}
	return p.p.Sprintf(key, args...)
}

// Locale is the printer's BCP 47 tag.
func (p *Printer) Locale() string {
	if p == nil {
		return language.English.String()
	}
	return p.tag.String()
}
