// Package inbox reads recent messages from an IMAP mailbox.
package inbox

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Message is the envelope of one inbox message.
type Message struct {
	From    string
	Subject string
	Date    time.Time
}

// Reader fetches recent message envelopes for one mailbox.
type Reader interface {
	// FetchSince returns envelopes of messages received on or after since.
	FetchSince(ctx context.Context, since time.Time) ([]Message, error)
}

type imapReader struct {
	host     string
	port     int
	username string
	password string
}

// NewReader returns a Reader for the INBOX of username at host.
func NewReader(host string, port int, username, password string) Reader {
	return &imapReader{host: host, port: port, username: username, password: password}
}

func (r *imapReader) FetchSince(ctx context.Context, since time.Time) ([]Message, error) {
	addr := fmt.Sprintf("%s:%d", r.host, r.port)
	dialer := &net.Dialer{Timeout: 30 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, eris.Wrapf(err, "inbox: dial %s", addr)
	}
	tlsConn := tls.Client(conn, &tls.Config{ServerName: r.host})

	client := imapclient.New(tlsConn, nil)
	defer client.Close()

	if err := client.Login(r.username, r.password).Wait(); err != nil {
		return nil, eris.Wrapf(err, "inbox: login %s", r.username)
	}
	defer client.Logout()

	if _, err := client.Select("INBOX", nil).Wait(); err != nil {
		return nil, eris.Wrap(err, "inbox: select INBOX")
	}

	criteria := &imap.SearchCriteria{Since: since}
	data, err := client.Search(criteria, nil).Wait()
	if err != nil {
		return nil, eris.Wrap(err, "inbox: search")
	}
	nums := data.AllSeqNums()
	if len(nums) == 0 {
		return nil, nil
	}

	seqSet := imap.SeqSetNum(nums...)
	fetched, err := client.Fetch(seqSet, &imap.FetchOptions{Envelope: true}).Collect()
	if err != nil {
		return nil, eris.Wrap(err, "inbox: fetch envelopes")
	}

	msgs := make([]Message, 0, len(fetched))
	for _, m := range fetched {
		if m.Envelope == nil || len(m.Envelope.From) == 0 {
			continue
		}
		msgs = append(msgs, Message{
			From:    m.Envelope.From[0].Addr(),
			Subject: m.Envelope.Subject,
			Date:    m.Envelope.Date,
		})
	}

	zap.L().Debug("inbox scanned",
		zap.String("account", r.username),
		zap.Time("since", since),
		zap.Int("messages", len(msgs)))
	return msgs, nil
}
