package smtp_client

import (
	"errors"
	"log/slog"

	"github.com/jordan-wright/email"
	"github.com/knadh/smtppool"
)

// SendMail delivers a prepared message through the next server in round robin order.
// From, Sender and ReplyTo fall back to the server list defaults, then to overrides.
func (sc *SmtpClients) SendMail(e *email.Email, overrides *HeaderOverrides) error {
	if e == nil {
		return errors.New("no email to send")
	}

	sc.mu.Lock()
	if len(sc.connectionPool) < 1 {
		sc.mu.Unlock()
		return errors.New("no servers defined")
	}
	sc.counter += 1
	index := int(sc.counter % uint64(len(sc.connectionPool)))
	selectedServer := sc.connectionPool[index]
	server := sc.connected[index]
	sc.mu.Unlock()

	msg := ApplyHeaders(e, sc.servers, overrides)
	err := selectedServer.Send(toPoolEmail(msg))
	if err != nil {
		// close and try to reconnect
		slog.Error("error when trying to send email", slog.String("error", err.Error()))

		pool, errReconnect := connectToPool(server)
		if errReconnect != nil {
			slog.Error("cannot reconnect pool", slog.String("error", errReconnect.Error()), slog.String("server", server.Host))
		} else {
			slog.Info("reconnected to pool", slog.String("server", server.Host))
			sc.mu.Lock()
			sc.connectionPool[index] = pool
			sc.mu.Unlock()
			selectedServer.Close()
		}
	}
	return err
}

// ApplyHeaders returns a copy of e with the sender headers resolved.
func ApplyHeaders(e *email.Email, servers SmtpServerList, overrides *HeaderOverrides) *email.Email {
	msg := *e

	if msg.From == "" {
		msg.From = servers.From
	}
	if msg.Sender == "" {
		msg.Sender = servers.Sender
	}
	if len(msg.ReplyTo) == 0 {
		msg.ReplyTo = servers.ReplyTo
	}

	if overrides != nil {
		if overrides.From != "" {
			msg.From = overrides.From
		}
		if overrides.Sender != "" {
			msg.Sender = overrides.Sender
		}
		if overrides.NoReplyTo {
			msg.ReplyTo = []string{}
		} else if len(overrides.ReplyTo) > 0 {
			msg.ReplyTo = overrides.ReplyTo
		}
	}
	return &msg
}

func toPoolEmail(e *email.Email) smtppool.Email {
	return smtppool.Email{
		From:    e.From,
		Sender:  e.Sender,
		ReplyTo: e.ReplyTo,
		To:      e.To,
		Cc:      e.Cc,
		Bcc:     e.Bcc,
		Subject: e.Subject,
		Text:    e.Text,
		HTML:    e.HTML,
		Headers: e.Headers,
	}
}
