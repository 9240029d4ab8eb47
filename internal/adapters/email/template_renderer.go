package email

import (
	"embed"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/osteele/liquid"

	"partyreminders/internal/domain"
)

//go:embed templates/*
var templateFS embed.FS

// Fallback phrases used when an attribute is missing.
const (
	fallbackRecipientName = "there"
	fallbackOccasionName  = "the party"
	fallbackHostName      = "your host"
)

// LongDateLayout renders a date as "Saturday, March 15, 2025".
const LongDateLayout = "Monday, January 2, 2006"

// templateRenderer implements domain.NotificationRenderer using embedded Liquid templates.
type templateRenderer struct {
	subject *liquid.Template
	html    *liquid.Template
	text    *liquid.Template
	logger  *slog.Logger
}

// NewTemplateRenderer parses the embedded reminder templates.
func NewTemplateRenderer(logger *slog.Logger) (domain.NotificationRenderer, error) {
	engine := liquid.NewEngine()
	engine.RegisterFilter("ordinal", func(v interface{}) string {
		n, ok := toInt(v)
		if !ok {
			return ""
		}
		return Ordinal(n)
	})

	r := &templateRenderer{logger: logger}
	var err error
	if r.subject, err = parseFile(engine, "reminder_subject.txt"); err != nil {
		return nil, fmt.Errorf("parse subject: %w", err)
	}
	if r.html, err = parseFile(engine, "reminder.html"); err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	if r.text, err = parseFile(engine, "reminder.txt"); err != nil {
		return nil, fmt.Errorf("parse text: %w", err)
	}
	return r, nil
}

func parseFile(engine *liquid.Engine, name string) (*liquid.Template, error) {
	raw, err := templateFS.ReadFile("templates/" + name)
	if err != nil {
		return nil, err
	}
	tpl, serr := engine.ParseTemplate(raw)
	if serr != nil {
		return nil, serr
	}
	return tpl, nil
}

// Render fills the reminder templates. A template failure falls back to plain text built from the same bindings.
func (r *templateRenderer) Render(occasion *domain.Occasion, recipient *domain.Recipient) domain.RenderedNotification {
	b := Bindings(occasion, recipient)
	out := domain.RenderedNotification{}

	subject, serr := r.subject.RenderString(b)
	htmlBody, herr := r.html.RenderString(b)
	textBody, terr := r.text.RenderString(b)
	if serr != nil || herr != nil || terr != nil {
		r.logger.Warn("template render failed, using fallback", "subject_err", serr, "html_err", herr, "text_err", terr)
		return fallbackNotification(b)
	}
	out.Subject = strings.TrimSpace(subject)
	out.HTMLBody = htmlBody
	out.TextBody = strings.TrimSpace(textBody) + "\n"
	return out
}

// Bindings builds the personalization context. Every key is always present so no
// placeholder is ever left unresolved.
func Bindings(occasion *domain.Occasion, recipient *domain.Recipient) liquid.Bindings {
	b := liquid.Bindings{
		"recipient_name": fallbackRecipientName,
		"occasion_name":  fallbackOccasionName,
		"honoree_name":   "",
		"date":           "",
		"start_time":     "",
		"theme":          "",
		"venue":          "",
		"host_name":      fallbackHostName,
		"age":            0,
	}
	if recipient != nil {
		if name := strings.TrimSpace(recipient.Name); name != "" {
			b["recipient_name"] = name
		}
	}
	if occasion == nil {
		return b
	}
	if name := strings.TrimSpace(occasion.Name); name != "" {
		b["occasion_name"] = name
	}
	if !occasion.Date.IsZero() {
		b["date"] = occasion.Date.Format(LongDateLayout)
	}
	b["honoree_name"] = attrString(occasion, domain.AttrHonoreeName)
	b["start_time"] = attrString(occasion, domain.AttrStartTime)
	b["theme"] = attrString(occasion, domain.AttrTheme)
	b["venue"] = attrString(occasion, domain.AttrVenue)
	if host := attrString(occasion, domain.AttrHostName); host != "" {
		b["host_name"] = host
	}
	if age, ok := toInt(occasion.Attr(domain.AttrAge)); ok && age > 0 {
		b["age"] = age
	}
	return b
}

func fallbackNotification(b liquid.Bindings) domain.RenderedNotification {
	subject := fmt.Sprintf("Reminder: %s is coming up", b["occasion_name"])
	if date, _ := b["date"].(string); date != "" {
		subject = fmt.Sprintf("Reminder: %s on %s", b["occasion_name"], date)
	}
	text := fmt.Sprintf("Hi %s,\n\nThis is a friendly reminder that you're invited to %s. Please let %s know if you can make it.\n",
		b["recipient_name"], b["occasion_name"], b["host_name"])
	return domain.RenderedNotification{Subject: subject, TextBody: text}
}

func attrString(o *domain.Occasion, key string) string {
	switch v := o.Attr(key).(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// toInt accepts the numeric shapes an attribute bag can hold after JSON decoding.
func toInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) || n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}

// Ordinal formats n with its English ordinal suffix: 1st, 2nd, 3rd, 4th, 11th, 21st.
func Ordinal(n int) string {
	abs := n
	if abs < 0 {
		abs = -abs
	}
	suffix := "th"
	if m := abs % 100; m < 11 || m > 13 {
		switch abs % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return strconv.Itoa(n) + suffix
}
