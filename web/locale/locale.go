// Package locale translates API messages. Message files live in the
// translation directory as TOML and are picked per request from the
// Accept-Language header.
package locale

import (
	"io/fs"
	"sync"

	"github.com/yamdb/yamdb/logger"

	"github.com/gin-gonic/gin"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"
)

const localizerKey = "localizer"

var (
	mu         sync.RWMutex
	i18nBundle *i18n.Bundle
)

func newBundle() *i18n.Bundle {
	b := i18n.NewBundle(language.English)
	b.RegisterUnmarshalFunc("toml", toml.Unmarshal)
	return b
}

// InitLocalizer loads every file under "translation" in i18nFS.
func InitLocalizer(i18nFS fs.FS) error {
	b := newBundle()
	if err := parseTranslationFiles(i18nFS, b); err != nil {
		return err
	}
	mu.Lock()
	i18nBundle = b
	mu.Unlock()
	return nil
}

func bundle() *i18n.Bundle {
	mu.RLock()
	b := i18nBundle
	mu.RUnlock()
	if b != nil {
		return b
	}
	mu.Lock()
	defer mu.Unlock()
	if i18nBundle == nil {
		logger.Warning("i18n bundle is not initialized, messages fall back to ids")
		i18nBundle = newBundle()
	}
	return i18nBundle
}

// NewLocalizer picks the best match for the given language preferences.
func NewLocalizer(langs ...string) *i18n.Localizer {
	return i18n.NewLocalizer(bundle(), langs...)
}

// Translate renders messageID with data, returning the id itself when no
// translation exists.
func Translate(l *i18n.Localizer, messageID string, data map[string]any) string {
	msg, err := l.Localize(&i18n.LocalizeConfig{
		MessageID:    messageID,
		TemplateData: data,
	})
	if err != nil {
		logger.Debugf("Failed to localize message %q: %v", messageID, err)
		return messageID
	}
	return msg
}

func LocalizerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(localizerKey, NewLocalizer(c.GetHeader("Accept-Language")))
		c.Next()
	}
}

// Localize translates with the request's localizer, or the default
// language when the middleware did not run.
func Localize(c *gin.Context, messageID string, data map[string]any) string {
	v, _ := c.Get(localizerKey)
	l, ok := v.(*i18n.Localizer)
	if !ok || l == nil {
		l = NewLocalizer()
	}
	return Translate(l, messageID, data)
}

func parseTranslationFiles(i18nFS fs.FS, b *i18n.Bundle) error {
	return fs.WalkDir(i18nFS, "translation", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		data, err := fs.ReadFile(i18nFS, path)
		if err != nil {
			return err
		}
		_, err = b.ParseMessageFileBytes(data, path)
		return err
	})
}
