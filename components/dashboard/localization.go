package dashboard

import (
	"context"
	"strings"

	"golang.org/x/text/language"

	"github.com/goliatone/go-retail-dashboard/components/dashboard/locale"
)

// TranslationService resolves a key for a viewer locale. *locale.Translator
// satisfies it.
type TranslationService interface {
	Translate(ctx context.Context, key, locale string, args map[string]any) (string, error)
}

var _ TranslationService = (*locale.Translator)(nil)

// ResolveLocalizedValue picks the value for locale from a per-language map.
// A regional tag (ar-SA) falls back to its base language, then to the
// "default" entry, then to fallback.
func ResolveLocalizedValue(values map[string]string, lang, fallback string) string {
	if len(values) == 0 {
		return fallback
	}
	for _, candidate := range localeCandidates(lang) {
		if value := values[candidate]; value != "" {
			return value
		}
	}
	return fallback
}

func (def *WidgetDefinition) normalizeLocalizedFields() {
	def.NameLocalized = normalizeLocaleMap(def.NameLocalized)
	def.DescriptionLocalized = normalizeLocaleMap(def.DescriptionLocalized)
}

// NameForLocale returns the widget title in the viewer's language.
func (def WidgetDefinition) NameForLocale(lang string) string {
	return ResolveLocalizedValue(def.NameLocalized, lang, def.Name)
}

// DescriptionForLocale returns the widget description in the viewer's language.
func (def WidgetDefinition) DescriptionForLocale(lang string) string {
	return ResolveLocalizedValue(def.DescriptionLocalized, lang, def.Description)
}

func normalizeLocaleMap(values map[string]string) map[string]string {
	if len(values) == 0 {
		return nil
	}
	out := make(map[string]string, len(values))
	for key, value := range values {
		if key = normalizeLocale(key); key != "" && value != "" {
			out[key] = value
		}
	}
	return out
}

// localeCandidates lists the lookup keys for lang, most specific first.
func localeCandidates(lang string) []string {
	lang = normalizeLocale(lang)
	if lang == "" || lang == "default" {
		return []string{"default"}
	}
	out := []string{lang}
	if tag, err := language.Parse(lang); err == nil {
		if base, conf := tag.Base(); conf != language.No {
			if b := base.String(); b != lang {
				out = append(out, b)
			}
		}
	} else if idx := strings.IndexByte(lang, '-'); idx > 0 {
		out = append(out, lang[:idx])
	}
	return append(out, "default")
}

func normalizeLocale(lang string) string {
	return strings.ToLower(strings.TrimSpace(strings.ReplaceAll(lang, "_", "-")))
}

// isRTL reports whether lang is written right to left.
func isRTL(lang string) bool {
	parsed, err := locale.Parse(lang)
	return err == nil && parsed.Direction() == locale.RTL
}

func translateOrFallback(ctx context.Context, svc TranslationService, key, lang, fallback string, params map[string]any) string {
	if svc != nil {
		if translated, err := svc.Translate(ctx, key, lang, params); err == nil && translated != "" {
			return translated
		}
	}
	if fallback != "" {
		return fallback
	}
	return key
}
