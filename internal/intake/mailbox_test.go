package intake

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func crlf(s string) []byte {
	return []byte(strings.ReplaceAll(s, "\n", "\r\n"))
}

func TestMessageText_PrefersPlainText(t *testing.T) {
	raw := crlf(`From: Vendor <vendor@example.com>
Subject: Quote
MIME-Version: 1.0
Content-Type: multipart/alternative; boundary="b1"

--b1
Content-Type: text/plain; charset=utf-8

Quote attached, reply by Friday.
--b1
Content-Type: text/html; charset=utf-8

<p>Quote attached, <b>reply</b> by Friday.</p>
--b1--
`)

	assert.Equal(t, "Quote attached, reply by Friday.", messageText(raw))
}

func TestMessageText_FallsBackToHTML(t *testing.T) {
	raw := crlf(`From: Vendor <vendor@example.com>
Subject: Proof
MIME-Version: 1.0
Content-Type: text/html; charset=utf-8

<div>Proof &amp; invoice</div><p>Thanks</p>
`)

	assert.Equal(t, "Proof & invoice\nThanks", messageText(raw))
}

func TestStripHTML(t *testing.T) {
	assert.Equal(t, "a\nb <c>", stripHTML("<p>a</p><span>b &lt;c&gt;</span>"))
	assert.Empty(t, stripHTML(""))
}
