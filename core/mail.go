package core

import (
	"bytes"
	htmltmpl "html/template"
	iofs "io/fs"
	"net/mail"
	"path"
	"strings"
	"sync"
	texttmpl "text/template"

	"github.com/pkg/errors"
)

var (
	templates   = make(tmplCache)
	templatesMu sync.RWMutex
	tmplDir     = "templates/email"
)

type (
	tmplCacheEntry struct {
		text *texttmpl.Template
		html *htmltmpl.Template
	}
	tmplCache map[string]*tmplCacheEntry // {name: entry}

	EmailMessage struct {
		To      []mail.Address
		Cc      []mail.Address
		Bcc     []mail.Address
		Subject string
		BodyStr string // simple text/plain, non-templated content

		// templated contents
		TemplateName string // without ext
		TemplateData interface{}
		TextContent  string
		HTMLContent  string
	}

	ContextData struct {
		AppName         string
		FrontendBaseURL string
		Data            interface{}
	}

	// EmailService is any service that can send emails
	EmailService interface {
		// SendMessages sends messages concurrently
		SendMessages(messages ...*EmailMessage)
	}
)

func (m *EmailMessage) getTemplate() (*tmplCacheEntry, bool) {
	templatesMu.RLock()
	defer templatesMu.RUnlock()
	entry, ok := templates[m.TemplateName]
	return entry, ok
}

// Render fills TextContent and HTMLContent from BodyStr or the message template.
func (m *EmailMessage) Render(conf *Config) error {
	if m.BodyStr != "" {
		m.TextContent = m.BodyStr
		return nil
	}
	if m.TemplateName == "" {
		return nil
	}
	entry, ok := m.getTemplate()
	if !ok || (entry.text == nil && entry.html == nil) {
		return errors.Errorf("email template %q not found", m.TemplateName)
	}

	data := ContextData{
		AppName:         conf.AppName,
		FrontendBaseURL: conf.FrontendBaseURL,
		Data:            m.TemplateData,
	}
	var buff bytes.Buffer
	if entry.text != nil {
		if err := entry.text.Execute(&buff, data); err != nil {
			return errors.Wrap(err, "rendering text template")
		}
		m.TextContent = buff.String()
		buff.Reset()
	}
	if entry.html != nil {
		if err := entry.html.Execute(&buff, data); err != nil {
			return errors.Wrap(err, "rendering html template")
		}
		m.HTMLContent = buff.String()
	}
	return nil
}

func (m *EmailMessage) HasRecipients() bool { return len(m.To) > 0 }
func (m *EmailMessage) HasContent() bool    { return (m.TextContent != "") || (m.HTMLContent != "") }

// ParseEmailTemplates loads the email templates from fsys. Files starting with "_" are base layouts.
func ParseEmailTemplates(fsys iofs.FS, conf *Config, logger Logger) {
	fps, err := iofs.Glob(fsys, path.Join(tmplDir, "*"))
	if err != nil {
		logger.Error("parsing email templates: "+err.Error(), err)
		return
	}

	cache := make(tmplCache)
	for _, fp := range fps {
		fname := path.Base(fp)
		ext := path.Ext(fname)
		if strings.HasPrefix(fname, "_") || !(ext == ".txt" || ext == ".gohtml") {
			continue
		}
		name := strings.TrimSuffix(fname, ext)

		var (
			textTmpl *texttmpl.Template
			htmlTmpl *htmltmpl.Template
		)
		if ext == ".txt" {
			textTmpl, err = texttmpl.ParseFS(fsys, path.Join(tmplDir, "_base.txt"), fp)
		} else {
			htmlTmpl, err = htmltmpl.ParseFS(fsys, path.Join(tmplDir, "_base.gohtml"), fp)
		}
		if err != nil {
			logger.Error("parsing email template "+fname, err)
			continue
		}

		entry, ok := cache[name]
		if !ok {
			entry = new(tmplCacheEntry)
			cache[name] = entry
		}
		if textTmpl != nil {
			if conf.Debug || conf.TestMode {
				textTmpl = textTmpl.Option("missingkey=error")
			}
			entry.text = textTmpl
		} else {
			if conf.Debug || conf.TestMode {
				htmlTmpl = htmlTmpl.Option("missingkey=error")
			}
			entry.html = htmlTmpl
		}
	}

	templatesMu.Lock()
	templates = cache
	templatesMu.Unlock()
}
