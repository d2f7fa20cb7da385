package locale

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/text/language"
)

// Language is a supported UI language.
type Language string

const (
	English Language = "en"
	Arabic  Language = "ar"
)

// Direction is the text direction of a language.
type Direction string

const (
	LTR Direction = "ltr"
	RTL Direction = "rtl"
)

var (
	ErrUnsupportedLanguage = errors.New("locale: unsupported language")
	ErrMissingTranslation  = errors.New("locale: missing translation")
)

// Supported lists the languages with bundles.
var Supported = []Language{English, Arabic}

// Direction returns the text direction for l.
func (l Language) Direction() Direction {
	if l == Arabic {
		return RTL
	}
	return LTR
}

// Code returns the short uppercase code used by the language picker.
func (l Language) Code() string { return strings.ToUpper(string(l)) }

// Parse normalizes a BCP 47 tag, or a picker code such as "AR", to a
// supported language.
func Parse(code string) (Language, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", fmt.Errorf("%w: empty code", ErrUnsupportedLanguage)
	}
	tag, err := language.Parse(code)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrUnsupportedLanguage, code, err)
	}
	base, _ := tag.Base()
	for _, lang := range Supported {
		if base.String() == string(lang) {
			return lang, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, code)
}

// TranslatorOptions configures a Translator.
type TranslatorOptions struct {
	Loader    Loader
	Namespace string
	Fallback  Language
	Logger    *slog.Logger
}

// Translator resolves keys against lazily loaded bundles.
type Translator struct {
	opts TranslatorOptions

	mu      sync.Mutex
	bundles map[string]map[string]string
}

// NewTranslator builds a translator; the embedded bundles are used when no
// loader is given.
func NewTranslator(opts TranslatorOptions) *Translator {
	if opts.Loader == nil {
		opts.Loader = EmbeddedLoader()
	}
	if opts.Namespace == "" {
		opts.Namespace = DefaultNamespace
	}
	if opts.Fallback == "" {
		opts.Fallback = English
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Translator{opts: opts, bundles: map[string]map[string]string{}}
}

// Preload fetches the bundle for lang so later lookups do not block.
func (t *Translator) Preload(ctx context.Context, lang Language) error {
	_, err := t.bundle(ctx, lang)
	return err
}

// Translate returns the text for key in locale, falling back to the
// fallback language and finally to the key itself.
func (t *Translator) Translate(ctx context.Context, key, locale string, args map[string]any) (string, error) {
	candidates := make([]Language, 0, 2)
	if lang, err := Parse(locale); err == nil {
		candidates = append(candidates, lang)
	}
	if len(candidates) == 0 || candidates[0] != t.opts.Fallback {
		candidates = append(candidates, t.opts.Fallback)
	}
	for _, lang := range candidates {
		bundle, err := t.bundle(ctx, lang)
		if err != nil {
			continue
		}
		if value, ok := bundle[key]; ok && value != "" {
			return Interpolate(value, args), nil
		}
	}
	return key, fmt.Errorf("%w: %s", ErrMissingTranslation, key)
}

// T is Translate without the error.
func (t *Translator) T(ctx context.Context, lang Language, key string, args map[string]any) string {
	out, _ := t.Translate(ctx, key, string(lang), args)
	return out
}

func (t *Translator) bundle(ctx context.Context, lang Language) (map[string]string, error) {
	t.mu.Lock()
	cached, ok := t.bundles[string(lang)]
	t.mu.Unlock()
	if ok {
		return cached, nil
	}
	loaded, err := t.opts.Loader.Load(ctx, string(lang), t.opts.Namespace)
	if err != nil {
		t.opts.Logger.Warn("translation bundle unavailable", "language", lang, "namespace", t.opts.Namespace, "error", err)
		return nil, err
	}
	t.mu.Lock()
	t.bundles[string(lang)] = loaded
	t.mu.Unlock()
	return loaded, nil
}

// Interpolate replaces {{name}} placeholders with args values.
func Interpolate(text string, args map[string]any) string {
	if len(args) == 0 || !strings.Contains(text, "{{") {
		return text
	}
	pairs := make([]string, 0, len(args)*2)
	for name, value := range args {
		pairs = append(pairs, "{{"+name+"}}", fmt.Sprint(value))
	}
	return strings.NewReplacer(pairs...).Replace(text)
}
