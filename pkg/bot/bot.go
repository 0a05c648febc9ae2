// Package bot answers Telegram commands with monitor reports and pushes
// alerts to the last chat that talked to it.
package bot

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sony/gobreaker"

	"github.com/itohio/restroom/pkg/ammonia"
	"github.com/itohio/restroom/pkg/config"
	"github.com/itohio/restroom/pkg/monitor"
	"github.com/itohio/restroom/pkg/report"
)

const alertQueueSize = 16

// Source is the part of monitor.Station the bot reads from.
type Source interface {
	Last() (monitor.Snapshot, bool)
	RequestCalibration() bool
}

type botAPI interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	StopReceivingUpdates()
}

var _ botAPI = (*tgbotapi.BotAPI)(nil)

type message struct {
	chatID int64
	text   string
}

// Bot serves commands and alerts. All sends go through a circuit breaker so
// an unreachable Telegram API does not pile up blocked requests.
type Bot struct {
	api      botAPI
	src      Source
	reporter *report.Reporter
	window   time.Duration
	cooldown time.Duration
	breaker  *gobreaker.CircuitBreaker
	now      func() time.Time

	alerts chan message

	mu        sync.Mutex
	chatID    int64
	active    map[string]bool
	lastAlert map[string]time.Time
}

// Connect logs in with cfg.Token.
func Connect(cfg config.TelegramConfig) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("telegram login: %w", err)
	}
	log.Printf("Authorized on Telegram as %s", api.Self.UserName)
	return api, nil
}

// New creates a bot. window is the ammonia averaging interval shown in
// reports. onBreaker, if set, receives the breaker state (0 closed, 1 half
// open, 2 open) on every change.
func New(api botAPI, src Source, r *report.Reporter, cfg config.TelegramConfig, window time.Duration, onBreaker func(state float64)) *Bot {
	b := &Bot{
		api:       api,
		src:       src,
		reporter:  r,
		window:    window,
		cooldown:  cfg.AlertCooldown,
		now:       time.Now,
		alerts:    make(chan message, alertQueueSize),
		chatID:    cfg.ChatID,
		active:    make(map[string]bool),
		lastAlert: make(map[string]time.Time),
	}
	fails := cfg.FailThreshold
	b.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "telegram",
		Timeout: cfg.OpenTimeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= fails
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("bot: breaker %s %s -> %s", name, from, to)
			if onBreaker != nil {
				onBreaker(float64(to))
			}
		},
	})
	return b
}

// ChatID returns the current alert target, 0 when unknown.
func (b *Bot) ChatID() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.chatID
}

// Run serves updates and queued alerts until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handle(update)
		case msg := <-b.alerts:
			if err := b.send(msg.chatID, msg.text); err != nil {
				log.Printf("bot: alert: %v", err)
			}
		}
	}
}

func (b *Bot) handle(update tgbotapi.Update) {
	m := update.Message
	if m == nil || !m.IsCommand() {
		return
	}

	b.mu.Lock()
	b.chatID = m.Chat.ID
	b.mu.Unlock()

	reply := b.reply(m.Command())
	if err := b.send(m.Chat.ID, reply); err != nil {
		log.Printf("bot: reply to /%s: %v", m.Command(), err)
	}
}

// reply builds the answer to a command.
func (b *Bot) reply(cmd string) string {
	switch cmd {
	case "start", "help":
		return helpText
	case "calibrate":
		if b.src.RequestCalibration() {
			return "Gas sensor calibration requested."
		}
		return "Calibration is already queued."
	}

	snap, ok := b.src.Last()
	if !ok {
		return "No data yet, the monitor is starting."
	}
	in := snap.ReportInput(b.window)
	switch cmd {
	case "status":
		return b.reporter.All(in)
	case "soap":
		return b.reporter.Soap(in.Soap)
	case "tissue":
		return b.reporter.Tissue(in.Tissue)
	case "water":
		return b.reporter.Water(in.Water)
	case "ammonia":
		return b.reporter.Ammonia(in.Ammonia)
	default:
		return "Unknown command.\n\n" + helpText
	}
}

const helpText = `/status - full report
/soap - soap levels
/tissue - tissue holders
/water - floor water sensor
/ammonia - odor level
/calibrate - recalibrate the gas sensor`

func (b *Bot) send(chatID int64, text string) error {
	_, err := b.breaker.Execute(func() (interface{}, error) {
		return b.api.Send(tgbotapi.NewMessage(chatID, text))
	})
	return err
}

// Observe queues alerts for conditions that became true since the previous
// snapshot. A condition that stays true is repeated after the cooldown. It
// has the signature of a monitor.Station update callback and never blocks.
func (b *Bot) Observe(s monitor.Snapshot) {
	in := s.ReportInput(b.window)
	conds := map[string]string{}
	if !s.Ammonia.Calibrating && s.Ammonia.Category == ammonia.Critical {
		conds["ammonia"] = b.reporter.Ammonia(in.Ammonia)
	}
	if len(s.SoapEmpty()) > 0 {
		conds["soap"] = b.reporter.Soap(in.Soap)
	}
	if len(s.TissueEmpty()) > 0 {
		conds["tissue"] = b.reporter.Tissue(in.Tissue)
	}
	if s.Water.Detected {
		conds["water"] = b.reporter.Water(in.Water)
	}

	now := b.now()
	var texts []string

	b.mu.Lock()
	chatID := b.chatID
	if chatID == 0 {
		// Nobody to tell yet; conditions are evaluated afresh once a chat
		// is known.
		b.mu.Unlock()
		return
	}
	for _, key := range []string{"ammonia", "soap", "tissue", "water"} {
		text, on := conds[key]
		if !on {
			b.active[key] = false
			continue
		}
		if b.active[key] && now.Sub(b.lastAlert[key]) < b.cooldown {
			continue
		}
		b.active[key] = true
		b.lastAlert[key] = now
		texts = append(texts, text)
	}
	b.mu.Unlock()

	if len(texts) == 0 {
		return
	}
	msg := message{chatID: chatID, text: "⚠️ " + s.Device + "\n\n" + strings.Join(texts, "\n\n")}
	select {
	case b.alerts <- msg:
	default:
		log.Printf("bot: alert queue full, dropping alert")
	}
}
