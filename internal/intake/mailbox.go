package intake

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/emersion/go-message/mail"

	"github.com/nhle/ops-board/internal/model"
)

// maxBodyRunes caps how much of a message body becomes part of an input line.
const maxBodyRunes = 400

// Message is an unread mail item pulled for analysis.
type Message struct {
	UID       uint32
	MessageID string
	Subject   string
	From      string
	Date      time.Time
	Body      string
}

// Line renders the message as a single analysis input line.
func (m Message) Line() string {
	subject := Condense(m.Subject, 0)
	body := Condense(m.Body, maxBodyRunes)
	switch {
	case subject == "":
		return body
	case body == "":
		return subject
	default:
		return subject + ": " + body
	}
}

// Source provides unread messages and marks them handled.
type Source interface {
	FetchUnseen(ctx context.Context) ([]Message, error)
	MarkSeen(ctx context.Context, uids []uint32) error
}

// Mailbox reads unread messages from an IMAP folder.
type Mailbox struct {
	cfg      model.IntakeConfig
	password func() (string, error)
	now      func() time.Time
}

var _ Source = (*Mailbox)(nil)

// NewMailbox creates a mailbox for cfg. password is called on each connect.
func NewMailbox(cfg model.IntakeConfig, password func() (string, error)) *Mailbox {
	if cfg.Folder == "" {
		cfg.Folder = "INBOX"
	}
	return &Mailbox{cfg: cfg, password: password, now: time.Now}
}

// connect dials, authenticates and selects the configured folder. The
// caller logs out.
func (m *Mailbox) connect(ctx context.Context) (*imapclient.Client, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pw, err := m.password()
	if err != nil {
		return nil, fmt.Errorf("reading IMAP password: %w", err)
	}

	addr := m.cfg.Host + ":" + m.cfg.Port

	var client *imapclient.Client
	if m.cfg.TLS {
		client, err = imapclient.DialTLS(addr, nil)
	} else {
		client, err = imapclient.DialStartTLS(addr, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("connecting to IMAP %s: %w", addr, err)
	}

	if err := client.Login(m.cfg.Username, pw).Wait(); err != nil {
		_ = client.Logout().Wait()
		return nil, fmt.Errorf("authenticating as %s: %w", m.cfg.Username, err)
	}

	if _, err := client.Select(m.cfg.Folder, nil).Wait(); err != nil {
		_ = client.Logout().Wait()
		return nil, fmt.Errorf("selecting %s: %w", m.cfg.Folder, err)
	}

	return client, nil
}

// FetchUnseen returns the unread messages received within the configured
// number of days, oldest first. Messages are fetched with PEEK so they stay
// unread until MarkSeen.
func (m *Mailbox) FetchUnseen(ctx context.Context) ([]Message, error) {
	client, err := m.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = client.Logout().Wait() }()

	days := m.cfg.SinceDays
	if days <= 0 {
		days = 7
	}
	criteria := &imap.SearchCriteria{
		Since:   m.now().AddDate(0, 0, -days),
		NotFlag: []imap.Flag{imap.FlagSeen},
	}

	searchData, err := client.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("searching messages: %w", err)
	}

	uids := searchData.AllUIDs()
	if len(uids) == 0 {
		return nil, nil
	}

	bodySection := &imap.FetchItemBodySection{Peek: true}
	fetchCmd := client.Fetch(imap.UIDSetNum(uids...), &imap.FetchOptions{
		Envelope:    true,
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{bodySection},
	})
	defer fetchCmd.Close()

	var messages []Message
	for {
		msg := fetchCmd.Next()
		if msg == nil {
			break
		}

		buf, err := msg.Collect()
		if err != nil {
			continue
		}

		out := Message{UID: uint32(buf.UID)}
		if buf.Envelope != nil {
			out.MessageID = buf.Envelope.MessageID
			out.Subject = buf.Envelope.Subject
			out.Date = buf.Envelope.Date
			if len(buf.Envelope.From) > 0 {
				from := buf.Envelope.From[0]
				out.From = from.Name
				if out.From == "" {
					out.From = from.Addr()
				}
			}
		}
		if raw := buf.FindBodySection(bodySection); raw != nil {
			out.Body = messageText(raw)
		}
		messages = append(messages, out)
	}

	if err := fetchCmd.Close(); err != nil {
		return messages, fmt.Errorf("fetching messages: %w", err)
	}

	return messages, nil
}

// MarkSeen flags the given messages as read.
func (m *Mailbox) MarkSeen(ctx context.Context, uids []uint32) error {
	if len(uids) == 0 {
		return nil
	}

	client, err := m.connect(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = client.Logout().Wait() }()

	set := make([]imap.UID, len(uids))
	for i, uid := range uids {
		set[i] = imap.UID(uid)
	}

	storeCmd := client.Store(imap.UIDSetNum(set...), &imap.StoreFlags{
		Op:     imap.StoreFlagsAdd,
		Silent: true,
		Flags:  []imap.Flag{imap.FlagSeen},
	}, nil)
	if err := storeCmd.Close(); err != nil {
		return fmt.Errorf("marking %d messages seen: %w", len(uids), err)
	}
	return nil
}

// messageText extracts the readable text of a raw RFC 5322 message,
// preferring text/plain over stripped text/html.
func messageText(raw []byte) string {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return string(raw)
	}
	defer mr.Close()

	var textBody, htmlBody string
	for {
		part, err := mr.NextPart()
		if err != nil {
			break
		}

		h, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		contentType, _, _ := h.ContentType()
		body, err := io.ReadAll(part.Body)
		if err != nil {
			continue
		}

		switch {
		case strings.HasPrefix(contentType, "text/plain") && textBody == "":
			textBody = string(body)
		case strings.HasPrefix(contentType, "text/html") && htmlBody == "":
			htmlBody = string(body)
		}
	}

	if textBody != "" {
		return strings.TrimSpace(textBody)
	}
	return stripHTML(htmlBody)
}

var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

// stripHTML removes tags and decodes common entities.
func stripHTML(html string) string {
	if html == "" {
		return ""
	}

	result := html
	for _, tag := range []string{"<br>", "<br/>", "<br />", "</p>", "</div>", "</li>"} {
		result = strings.ReplaceAll(result, tag, "\n")
	}
	result = htmlTagPattern.ReplaceAllString(result, "")

	replacer := strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
		"&nbsp;", " ",
	)
	return strings.TrimSpace(replacer.Replace(result))
}
