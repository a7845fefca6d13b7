// Package compose assembles selected content into complete, serialized MIME
// messages: headers with a simulated relay chain, derived subject, plain
// and/or HTML bodies, and attachments.
package compose

import (
	"bytes"
	"fmt"
	"log/slog"
	"math/rand"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/emersion/go-message"
	"github.com/emersion/go-message/mail"
	"github.com/google/uuid"

	"github.com/lets-qa/EML-Content-Generator/model"
	"github.com/lets-qa/EML-Content-Generator/relay"
)

const (
	mailerID        = "eml-content-generator/1.0"
	fallbackSubject = "No subject"
	placeholderBody = "(no text)"
)

// Input carries everything one message is assembled from.
type Input struct {
	From            string
	To              string
	UseHTML         bool
	SubjectLen      int
	TextBody        string
	HTMLBody        string
	AttachmentPaths []string
	RelayHosts      []string
	// SendTime is the nominal send timestamp; zero means current time.
	SendTime time.Time
}

// Composer turns Inputs into serialized messages. All randomness (relay
// chains, multipart boundaries, seeded message ids) flows from the run's
// shared generator so seeded runs serialize identically.
type Composer struct {
	rng    *rand.Rand
	seeded bool
	seq    uint64
	logger *slog.Logger
}

func New(rng *rand.Rand, seeded bool, logger *slog.Logger) *Composer {
	return &Composer{rng: rng, seeded: seeded, logger: logger}
}

type attachment struct {
	name      string
	mediaType string
	data      []byte
}

// Assemble builds one complete message. It never fails on valid inputs;
// unreadable attachments are logged and skipped.
func (c *Composer) Assemble(in Input) (*model.ComposedMessage, error) {
	sendTime := in.SendTime
	if sendTime.IsZero() {
		sendTime = time.Now()
	}
	sendTime = sendTime.UTC()

	hops := relay.BuildChain(c.rng, in.RelayHosts, sendTime)
	atts := c.readAttachments(in.AttachmentPaths)

	useHTML := in.UseHTML && in.HTMLBody != ""
	subjectSource := in.TextBody
	if useHTML {
		subjectSource = StripMarkup(in.HTMLBody)
	}
	subject := deriveSubject(subjectSource, in.SubjectLen)

	textBody := in.TextBody
	if useHTML && textBody == "" {
		textBody = StripMarkup(in.HTMLBody)
	}
	if textBody == "" {
		textBody = placeholderBody
	}

	c.seq++
	msgID := c.messageID(in.From)

	// Header fields are emitted in reverse order of addition: structural
	// MIME headers go in first so they render at the bottom, the Received
	// chain last so the oldest hop tops the message.
	var h mail.Header
	var altBoundary string
	switch {
	case len(atts) > 0:
		h.SetContentType("multipart/mixed", map[string]string{"boundary": c.boundary()})
		if useHTML {
			altBoundary = c.boundary()
		}
	case useHTML:
		h.SetContentType("multipart/alternative", map[string]string{"boundary": c.boundary()})
	default:
		h.Set("Content-Transfer-Encoding", "quoted-printable")
		h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
	}
	h.Set("MIME-Version", "1.0")
	h.SetSubject(subject)
	h.Set("X-Mailer", mailerID)
	h.SetDate(sendTime)
	h.SetMessageID(msgID)
	h.SetAddressList("To", []*mail.Address{{Address: in.To}})
	h.SetAddressList("From", []*mail.Address{{Address: in.From}})
	for i := len(hops) - 1; i >= 0; i-- {
		h.Add("Received", relay.TraceLine(hops[i]))
	}

	var buf bytes.Buffer
	w, err := message.CreateWriter(&buf, h.Header)
	if err != nil {
		return nil, fmt.Errorf("create message writer: %w", err)
	}

	switch {
	case len(atts) > 0:
		if useHTML {
			if err := writeAlternativePart(w, altBoundary, textBody, in.HTMLBody); err != nil {
				return nil, err
			}
		} else {
			if err := writeTextPart(w, "text/plain", textBody); err != nil {
				return nil, err
			}
		}
		for _, a := range atts {
			if err := writeAttachment(w, a); err != nil {
				return nil, err
			}
		}
	case useHTML:
		if err := writeTextPart(w, "text/plain", textBody); err != nil {
			return nil, err
		}
		if err := writeTextPart(w, "text/html", in.HTMLBody); err != nil {
			return nil, err
		}
	default:
		if _, err := w.Write([]byte(textBody)); err != nil {
			return nil, fmt.Errorf("write body: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close message writer: %w", err)
	}

	raw := buf.Bytes()
	return &model.ComposedMessage{
		From:      in.From,
		To:        in.To,
		Subject:   subject,
		MessageID: msgID,
		Date:      sendTime,
		Size:      int64(len(raw)),
		Raw:       raw,
	}, nil
}

// writeAlternativePart nests a multipart/alternative entity (text fallback
// plus HTML rendering) inside a multipart/mixed message.
func writeAlternativePart(w *message.Writer, boundary, textBody, htmlBody string) error {
	var ph message.Header
	ph.SetContentType("multipart/alternative", map[string]string{"boundary": boundary})

	aw, err := w.CreatePart(ph)
	if err != nil {
		return fmt.Errorf("create alternative part: %w", err)
	}
	if err := writeTextPart(aw, "text/plain", textBody); err != nil {
		return err
	}
	if err := writeTextPart(aw, "text/html", htmlBody); err != nil {
		return err
	}
	if err := aw.Close(); err != nil {
		return fmt.Errorf("close alternative part: %w", err)
	}
	return nil
}

func writeTextPart(w *message.Writer, mediaType, body string) error {
	var ph message.Header
	ph.Set("Content-Transfer-Encoding", "quoted-printable")
	ph.SetContentType(mediaType, map[string]string{"charset": "utf-8"})

	pw, err := w.CreatePart(ph)
	if err != nil {
		return fmt.Errorf("create %s part: %w", mediaType, err)
	}
	if _, err := pw.Write([]byte(body)); err != nil {
		return fmt.Errorf("write %s part: %w", mediaType, err)
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("close %s part: %w", mediaType, err)
	}
	return nil
}

func writeAttachment(w *message.Writer, a attachment) error {
	var ah message.Header
	ah.Set("Content-Transfer-Encoding", "base64")
	ah.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": a.name}))
	ah.SetContentType(a.mediaType, map[string]string{"name": a.name})

	pw, err := w.CreatePart(ah)
	if err != nil {
		return fmt.Errorf("create attachment part: %w", err)
	}
	if _, err := pw.Write(a.data); err != nil {
		return fmt.Errorf("write attachment %s: %w", a.name, err)
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("close attachment %s: %w", a.name, err)
	}
	return nil
}

func (c *Composer) readAttachments(paths []string) []attachment {
	atts := make([]attachment, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			c.logger.Warn("skipping unreadable attachment", "path", path, "err", err)
			continue
		}
		atts = append(atts, attachment{
			name:      filepath.Base(path),
			mediaType: mediaTypeFor(path),
			data:      data,
		})
	}
	return atts
}

// mediaTypeFor infers a MIME type from the filename extension, defaulting
// to application/octet-stream.
func mediaTypeFor(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if t := mime.TypeByExtension(ext); t != "" {
		if mediaType, _, err := mime.ParseMediaType(t); err == nil {
			return mediaType
		}
	}
	return "application/octet-stream"
}

// boundary draws a multipart boundary from the shared generator.
func (c *Composer) boundary() string {
	return fmt.Sprintf("%08x%08x%08x", c.rng.Uint32(), c.rng.Uint32(), c.rng.Uint32())
}

// messageID builds a globally-unique id from the sender domain, a monotonic
// sequence number and a random component. Seeded runs draw the random part
// from the shared generator so output stays reproducible; unseeded runs use
// a UUID.
func (c *Composer) messageID(from string) string {
	domain := domainOf(from)
	if c.seeded {
		return fmt.Sprintf("%08x%08x.%d@%s", c.rng.Uint32(), c.rng.Uint32(), c.seq, domain)
	}
	return fmt.Sprintf("%s.%d@%s", uuid.NewString(), c.seq, domain)
}

func domainOf(addr string) string {
	if i := strings.LastIndex(addr, "@"); i >= 0 && i+1 < len(addr) {
		return addr[i+1:]
	}
	return "localhost"
}
