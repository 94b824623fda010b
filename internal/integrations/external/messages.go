package external

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// MessageConnected is the catalog key for a successful connection test.
const MessageConnected = "connected"

// DefaultLocale is used when a request does not state a supported language.
const DefaultLocale = "pt-BR"

//go:embed messages.yaml
var embeddedCatalog []byte

// Catalog holds localized message templates keyed by locale then category.
type Catalog struct {
	tags      []language.Tag
	matcher   language.Matcher
	templates map[language.Tag]map[string]string
}

var defaultCatalog = sync.OnceValue(func() *Catalog {
	c, err := ParseCatalog(embeddedCatalog, DefaultLocale)
	if err != nil {
		panic(fmt.Sprintf("external: embedded message catalog: %v", err))
	}
	return c
})

// DefaultCatalog returns the catalog embedded in the binary.
func DefaultCatalog() *Catalog {
	return defaultCatalog()
}

// ParseCatalog loads a YAML catalog and checks that every locale covers every category.
// fallback becomes the first matcher tag and answers requests in unsupported languages.
func ParseCatalog(data []byte, fallback string) (*Catalog, error) {
	var raw map[string]map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	fallbackTag, err := language.Parse(fallback)
	if err != nil {
		return nil, fmt.Errorf("parse fallback locale %q: %w", fallback, err)
	}
	if _, ok := raw[fallback]; !ok {
		return nil, fmt.Errorf("fallback locale %q missing from catalog", fallback)
	}

	c := &Catalog{
		tags:      []language.Tag{fallbackTag},
		templates: make(map[language.Tag]map[string]string, len(raw)),
	}
	for locale, messages := range raw {
		tag, err := language.Parse(locale)
		if err != nil {
			return nil, fmt.Errorf("parse locale %q: %w", locale, err)
		}
		for _, key := range requiredKeys() {
			if strings.TrimSpace(messages[key]) == "" {
				return nil, fmt.Errorf("locale %s has no message for %q", locale, key)
			}
		}
		c.templates[tag] = messages
		if tag != fallbackTag {
			c.tags = append(c.tags, tag)
		}
	}
	c.matcher = language.NewMatcher(c.tags)
	return c, nil
}

func requiredKeys() []string {
	keys := make([]string, 0, len(AllCategories())+1)
	for _, cat := range AllCategories() {
		keys = append(keys, string(cat))
	}
	return append(keys, MessageConnected)
}

// Match picks the supported locale for an Accept-Language header value.
func (c *Catalog) Match(acceptLanguage string) language.Tag {
	requested, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(requested) == 0 {
		return c.tags[0]
	}
	_, index, confidence := c.matcher.Match(requested...)
	if confidence == language.No {
		return c.tags[0]
	}
	return c.tags[index]
}

// Render fills the template for key in the given locale.
func (c *Catalog) Render(key string, tag language.Tag, service ServiceName) string {
	messages, ok := c.templates[tag]
	if !ok {
		messages = c.templates[c.tags[0]]
	}
	tmpl, ok := messages[key]
	if !ok {
		tmpl = messages[string(CategoryUnknown)]
	}
	return strings.ReplaceAll(tmpl, "{service}", service.DisplayName())
}

// Message is Render with the locale resolved from an Accept-Language value.
func (c *Catalog) Message(key string, acceptLanguage string, service ServiceName) string {
	return c.Render(key, c.Match(acceptLanguage), service)
}
