package gonotifications

import (
	"context"
	"fmt"
	"html"
	"strings"

	i18n "github.com/goliatone/go-i18n"
	"github.com/goliatone/go-notifications/pkg/adapters"
	"github.com/goliatone/go-notifications/pkg/adapters/console"
	notifsmtp "github.com/goliatone/go-notifications/pkg/adapters/smtp"
	notifconfig "github.com/goliatone/go-notifications/pkg/config"
	"github.com/goliatone/go-notifications/pkg/inbox"
	"github.com/goliatone/go-notifications/pkg/interfaces/broadcaster"
	"github.com/goliatone/go-notifications/pkg/interfaces/cache"
	notiflogger "github.com/goliatone/go-notifications/pkg/interfaces/logger"
	"github.com/goliatone/go-notifications/pkg/notifier"
	"github.com/goliatone/go-notifications/pkg/onready"
	"github.com/goliatone/go-notifications/pkg/storage"
	"github.com/goliatone/go-notifications/pkg/templates"
	"github.com/goliatone/go-visual-export/export"
)

const defaultFrom = "no-reply@example.com"

// SMTP configures the email channel.
type SMTP struct {
	Host        string
	Port        int
	From        string
	Username    string
	Password    string
	UseTLS      bool
	UseStartTLS bool
}

// SetupConfig describes the in-memory notification stack.
type SetupConfig struct {
	Recipients    []string
	DefaultLocale string
	SMTP          SMTP
}

// NewReadyNotifier builds an onready notifier backed by in-memory storage,
// the console channel and, when a host is configured, SMTP.
func NewReadyNotifier(ctx context.Context, cfg SetupConfig, logger export.Logger) (onready.OnReadyNotifier, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if logger == nil {
		logger = export.NopLogger{}
	}
	locale := strings.TrimSpace(cfg.DefaultLocale)
	if locale == "" {
		locale = "en"
	}

	store := i18n.NewStaticStore(onready.Translations())
	translator, err := i18n.NewSimpleTranslator(store, i18n.WithTranslatorDefaultLocale(locale))
	if err != nil {
		return nil, err
	}

	providers := storage.NewMemoryProviders()
	logSink := notificationsLogger{base: logger}
	tplSvc, err := templates.New(templates.Dependencies{
		Repository:    providers.Templates,
		Cache:         &cache.Nop{},
		Logger:        logSink,
		Translator:    translator,
		Fallbacks:     i18n.NewStaticFallbackResolver(),
		DefaultLocale: locale,
	})
	if err != nil {
		return nil, err
	}

	inboxSvc, err := inbox.New(inbox.Dependencies{
		Repository:  providers.Inbox,
		Broadcaster: &broadcaster.Nop{},
		Logger:      logSink,
	})
	if err != nil {
		return nil, err
	}

	registered, err := onready.Register(ctx, onready.Dependencies{
		Definitions: providers.Definitions,
		Templates:   tplSvc,
	}, onready.Options{})
	if err != nil {
		return nil, err
	}

	manager, err := notifier.New(notifier.Dependencies{
		Definitions: providers.Definitions,
		Events:      providers.Events,
		Messages:    providers.Messages,
		Attempts:    providers.DeliveryAttempts,
		Templates:   tplSvc,
		Adapters:    adapters.NewRegistry(messengers(logSink, cfg.SMTP)...),
		Logger:      logSink,
		Config: notifconfig.DispatcherConfig{
			EnvFallbackAllowlist: cfg.Recipients,
		},
		Inbox: inboxSvc,
	})
	if err != nil {
		return nil, err
	}

	ready, err := onready.NewNotifier(manager, registered.DefinitionCode)
	if err != nil {
		return nil, err
	}
	logger.Infof("ready notifications enabled recipients=%v smtp_host=%s", cfg.Recipients, cfg.SMTP.Host)
	return ready, nil
}

func messengers(logSink notiflogger.Logger, cfg SMTP) []adapters.Messenger {
	list := make([]adapters.Messenger, 0, 2)
	if host := strings.TrimSpace(cfg.Host); host != "" {
		from := strings.TrimSpace(cfg.From)
		if from == "" {
			from = defaultFrom
		}
		smtp := notifsmtp.New(logSink, notifsmtp.WithConfig(notifsmtp.Config{
			Host:        host,
			Port:        cfg.Port,
			From:        from,
			Username:    cfg.Username,
			Password:    cfg.Password,
			UseTLS:      cfg.UseTLS,
			UseStartTLS: cfg.UseStartTLS,
		}))
		list = append(list, smtpDefaults{base: smtp, from: from})
	}
	return append(list, console.New(logSink))
}

// smtpDefaults fills the sender and html body the smtp adapter reads from
// message metadata.
type smtpDefaults struct {
	base adapters.Messenger
	from string
}

func (a smtpDefaults) Name() string { return a.base.Name() }

func (a smtpDefaults) Capabilities() adapters.Capability { return a.base.Capabilities() }

func (a smtpDefaults) Send(ctx context.Context, msg adapters.Message) error {
	msg.Subject = html.UnescapeString(msg.Subject)
	msg.Metadata = withDefault(msg.Metadata, "from", a.from)
	if strings.TrimSpace(msg.Body) != "" {
		msg.Metadata = withDefault(msg.Metadata, "html_body", msg.Body)
	}
	return a.base.Send(ctx, msg)
}

func withDefault(meta map[string]any, key, value string) map[string]any {
	if meta == nil {
		meta = make(map[string]any)
	}
	if current, ok := meta[key]; ok && current != nil && strings.TrimSpace(fmt.Sprint(current)) != "" {
		return meta
	}
	meta[key] = value
	return meta
}

// notificationsLogger adapts export.Logger to the go-notifications logger.
type notificationsLogger struct {
	base   export.Logger
	fields []notiflogger.Field
}

func (l notificationsLogger) With(fields ...notiflogger.Field) notiflogger.Logger {
	merged := append(append([]notiflogger.Field{}, l.fields...), fields...)
	return notificationsLogger{base: l.base, fields: merged}
}

func (l notificationsLogger) Debug(msg string, fields ...notiflogger.Field) {
	l.base.Debugf("[go-notifications] %s%s", msg, l.format(fields))
}

func (l notificationsLogger) Info(msg string, fields ...notiflogger.Field) {
	l.base.Infof("[go-notifications] %s%s", msg, l.format(fields))
}

func (l notificationsLogger) Warn(msg string, fields ...notiflogger.Field) {
	l.base.Infof("[go-notifications][WARN] %s%s", msg, l.format(fields))
}

func (l notificationsLogger) Error(msg string, fields ...notiflogger.Field) {
	l.base.Errorf("[go-notifications] %s%s", msg, l.format(fields))
}

func (l notificationsLogger) format(fields []notiflogger.Field) string {
	all := append(append([]notiflogger.Field{}, l.fields...), fields...)
	if len(all) == 0 {
		return ""
	}
	parts := make([]string, 0, len(all))
	for _, field := range all {
		parts = append(parts, fmt.Sprintf("%s=%v", field.Key, field.Value))
	}
	return " " + strings.Join(parts, " ")
}
