package bot

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/restroom/pkg/ammonia"
	"github.com/itohio/restroom/pkg/config"
	"github.com/itohio/restroom/pkg/monitor"
	"github.com/itohio/restroom/pkg/presence"
	"github.com/itohio/restroom/pkg/report"
)

type fakeAPI struct {
	updates chan tgbotapi.Update
	fail    error

	mu   sync.Mutex
	sent []tgbotapi.MessageConfig
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{updates: make(chan tgbotapi.Update, 4)}
}

func (f *fakeAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.fail != nil {
		return tgbotapi.Message{}, f.fail
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c.(tgbotapi.MessageConfig))
	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) StopReceivingUpdates() {}

func (f *fakeAPI) Sent() []tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]tgbotapi.MessageConfig(nil), f.sent...)
}

type fakeSource struct {
	snap      monitor.Snapshot
	have      bool
	requested int
}

func (f *fakeSource) Last() (monitor.Snapshot, bool) { return f.snap, f.have }

func (f *fakeSource) RequestCalibration() bool {
	f.requested++
	return f.requested == 1
}

func testConfig() config.TelegramConfig {
	return config.TelegramConfig{
		AlertCooldown: 30 * time.Minute,
		FailThreshold: 2,
		OpenTimeout:   time.Minute,
	}
}

func snapshot() monitor.Snapshot {
	return monitor.Snapshot{
		Device: "wc-1",
		Soap: []presence.SoapReading{
			{Unit: 1, DistanceCM: 4, Level: presence.LevelAvailable},
			{Unit: 2, DistanceCM: 5, Level: presence.LevelAvailable},
			{Unit: 3, DistanceCM: 6, Level: presence.LevelAvailable},
		},
		Tissue: []presence.TissueReading{{Unit: 1, Available: true}, {Unit: 2, Available: true}},
		Ammonia: monitor.AmmoniaState{
			PPM:      0.5,
			Score:    1.4,
			Category: ammonia.Good,
		},
	}
}

func commandUpdate(chatID int64, cmd string) tgbotapi.Update {
	text := "/" + cmd
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Text: text,
		Chat: &tgbotapi.Chat{ID: chatID},
		Entities: []tgbotapi.MessageEntity{
			{Type: "bot_command", Offset: 0, Length: len(text)},
		},
	}}
}

func TestBot_Reply(t *testing.T) {
	src := &fakeSource{snap: snapshot(), have: true}
	r := report.New("en")
	b := New(newFakeAPI(), src, r, testConfig(), 5*time.Minute, nil)
	in := src.snap.ReportInput(5 * time.Minute)

	tests := []struct {
		cmd  string
		want string
	}{
		{"status", r.All(in)},
		{"soap", r.Soap(in.Soap)},
		{"tissue", r.Tissue(in.Tissue)},
		{"water", r.Water(in.Water)},
		{"ammonia", r.Ammonia(in.Ammonia)},
		{"start", helpText},
		{"calibrate", "Gas sensor calibration requested."},
		{"calibrate", "Calibration is already queued."},
		{"dance", "Unknown command.\n\n" + helpText},
	}
	for _, tt := range tests {
		t.Run(tt.cmd, func(t *testing.T) {
			assert.Equal(t, tt.want, b.reply(tt.cmd))
		})
	}
	assert.Equal(t, 2, src.requested)
}

func TestBot_ReplyBeforeFirstSnapshot(t *testing.T) {
	b := New(newFakeAPI(), &fakeSource{}, report.New("en"), testConfig(), 5*time.Minute, nil)
	assert.Contains(t, b.reply("status"), "No data yet")
	assert.Equal(t, helpText, b.reply("help"))
}

func TestBot_RunAnswersCommands(t *testing.T) {
	api := newFakeAPI()
	src := &fakeSource{snap: snapshot(), have: true}
	b := New(api, src, report.New("en"), testConfig(), 5*time.Minute, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	api.updates <- commandUpdate(42, "soap")
	api.updates <- tgbotapi.Update{Message: &tgbotapi.Message{Text: "hello", Chat: &tgbotapi.Chat{ID: 7}}}

	require.Eventually(t, func() bool { return len(api.Sent()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int64(42), api.Sent()[0].ChatID)
	assert.Contains(t, api.Sent()[0].Text, "Soap 1")
	assert.Equal(t, int64(42), b.ChatID())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("bot did not stop")
	}
}

func TestBot_ObserveAlerts(t *testing.T) {
	cfg := testConfig()
	cfg.ChatID = 99
	b := New(newFakeAPI(), &fakeSource{}, report.New("en"), cfg, 5*time.Minute, nil)
	now := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }

	drain := func() []message {
		var out []message
		for {
			select {
			case m := <-b.alerts:
				out = append(out, m)
			default:
				return out
			}
		}
	}

	s := snapshot()
	b.Observe(s)
	assert.Empty(t, drain(), "nothing is wrong")

	s.Tissue[1].Available = false
	s.Water.Detected = true
	b.Observe(s)
	msgs := drain()
	require.Len(t, msgs, 1)
	assert.Equal(t, int64(99), msgs[0].chatID)
	assert.Contains(t, msgs[0].text, "wc-1")
	assert.Contains(t, msgs[0].text, "Tissue empty!")
	assert.Contains(t, msgs[0].text, "Standing water detected.")

	now = now.Add(time.Minute)
	b.Observe(s)
	assert.Empty(t, drain(), "condition still active within cooldown")

	now = now.Add(cfg.AlertCooldown)
	b.Observe(s)
	assert.Len(t, drain(), 1, "repeated after cooldown")

	s.Water.Detected = false
	b.Observe(s)
	assert.Empty(t, drain())
	s.Water.Detected = true
	now = now.Add(time.Minute)
	b.Observe(s)
	msgs = drain()
	require.Len(t, msgs, 1, "new rising edge alerts immediately")
	assert.Contains(t, msgs[0].text, "Standing water detected.")
	assert.NotContains(t, msgs[0].text, "Tissue")
}

func TestBot_ObserveCriticalOdor(t *testing.T) {
	cfg := testConfig()
	cfg.ChatID = 1
	b := New(newFakeAPI(), &fakeSource{}, report.New("en"), cfg, 5*time.Minute, nil)

	s := snapshot()
	s.Ammonia.Category = ammonia.Critical
	s.Ammonia.Calibrating = true
	b.Observe(s)
	assert.Empty(t, b.alerts, "no odor alert while calibrating")

	s.Ammonia.Calibrating = false
	b.Observe(s)
	require.Len(t, b.alerts, 1)
	assert.Contains(t, (<-b.alerts).text, "Critical")
}

func TestBot_ObserveWithoutChat(t *testing.T) {
	b := New(newFakeAPI(), &fakeSource{}, report.New("en"), testConfig(), 5*time.Minute, nil)
	s := snapshot()
	s.Water.Detected = true
	b.Observe(s)
	assert.Empty(t, b.alerts)

	// The first chat to talk to the bot gets the pending condition at once.
	b.handle(commandUpdate(5, "help"))
	b.Observe(s)
	require.Len(t, b.alerts, 1)
	msg := <-b.alerts
	assert.Equal(t, int64(5), msg.chatID)
	assert.Contains(t, msg.text, "Standing water detected.")
}

func TestBot_BreakerOpensOnFailures(t *testing.T) {
	api := newFakeAPI()
	api.fail = errors.New("network down")
	var states []float64
	b := New(api, &fakeSource{}, report.New("en"), testConfig(), 5*time.Minute, func(s float64) {
		states = append(states, s)
	})

	assert.Error(t, b.send(1, "a"))
	assert.Error(t, b.send(1, "b"))
	assert.ErrorIs(t, b.send(1, "c"), gobreaker.ErrOpenState)
	assert.Equal(t, []float64{float64(gobreaker.StateOpen)}, states)
}
