package bot

import (
	"bytes"
	"context"
	"log"
	"time"

	tele "gopkg.in/telebot.v3"
)

const welcomeText = "Hi! I'm 🌌 <b>Astrowheel</b>.\n\n" +
	"I build a personal astrological forecast for the month ahead, " +
	"based on the <b>Lunar Return</b> method.\n\n" +
	"For the calculation I'll need:\n" +
	"  • Your name\n" +
	"  • Birth date and time\n" +
	"  • Birth city\n"

const helpText = "ℹ️ <b>Help — Astrowheel</b>\n\n" +
	"<b>Commands:</b>\n" +
	"  /start — start over\n" +
	"  /forecast — build a forecast\n" +
	"  /help — this help\n" +
	"  /ping — connectivity check\n\n" +
	"<b>How it works:</b>\n" +
	"The bot finds the moment of your Lunar Return (when the Moon comes back " +
	"to its position at your birth) and builds a chart for that moment. " +
	"That chart is the basis of the forecast for the next ~27 days.\n\n" +
	"<b>The chart includes:</b> 10 planets, 12 houses, 7 aspect types, retrograde motion.\n\n" +
	"<b>Your data is not stored</b> — every session is independent."

// StartTelegramBot wires the conversation flow into a long-polling
// Telegram bot. An empty token skips startup so the rest of the
// process can still run.
func StartTelegramBot(token string, forecasts ForecastProvider, reports ReportBuilder, advisor PromptAdvisor) *tele.Bot {
	if token == "" {
		log.Println("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return nil
	}
	pref := tele.Settings{
		Token:     token,
		Poller:    &tele.LongPoller{Timeout: 10 * time.Second},
		ParseMode: tele.ModeHTML,
	}
	b, err := tele.NewBot(pref)
	if err != nil {
		log.Fatalf("failed to create Telegram bot: %v", err)
	}

	conv := newFlow(forecasts, reports, advisor)

	menu := &tele.ReplyMarkup{}
	btnStart := menu.Data("Let's begin! 🚀", "start_forecast")
	menu.Inline(menu.Row(btnStart))

	b.Handle("/start", func(c tele.Context) error {
		conv.reset(c.Chat().ID)
		return c.Send(welcomeText, menu)
	})

	b.Handle("/help", func(c tele.Context) error {
		return c.Send(helpText)
	})

	b.Handle("/ping", func(c tele.Context) error {
		return c.Send("pong! 🏓")
	})

	b.Handle("/forecast", func(c tele.Context) error {
		return sendOutbound(c, []outbound{conv.begin(c.Chat().ID)})
	})

	b.Handle(&btnStart, func(c tele.Context) error {
		if err := c.Respond(); err != nil {
			return err
		}
		return sendOutbound(c, []outbound{conv.begin(c.Chat().ID)})
	})

	b.Handle(tele.OnText, func(c tele.Context) error {
		out := conv.handleText(context.Background(), c.Chat().ID, c.Text())
		if len(out) == 0 {
			return nil
		}
		_ = c.Notify(tele.Typing)
		return sendOutbound(c, out)
	})

	log.Println("Telegram bot started")
	go b.Start()
	return b
}

func sendOutbound(c tele.Context, out []outbound) error {
	for _, o := range out {
		var err error
		switch {
		case o.photo != nil:
			err = c.Send(&tele.Photo{
				File:    tele.FromReader(bytes.NewReader(o.photo)),
				Caption: o.text,
			})
		case o.document != nil:
			err = c.Send(&tele.Document{
				File:     tele.FromReader(bytes.NewReader(o.document)),
				FileName: o.filename,
				Caption:  o.text,
			})
		default:
			err = c.Send(o.text)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
