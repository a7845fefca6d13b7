package sink

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"

	imapv2 "github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"

	"github.com/lets-qa/EML-Content-Generator/model"
)

// IMAPOptions configures the IMAP sink.
type IMAPOptions struct {
	Host               string
	Port               int
	Username           string
	Password           string
	UseTLS             bool
	InsecureSkipVerify bool
	TargetFolder       string
}

// IMAP appends generated messages into a mailbox, so a test corpus can be
// seeded straight into a real server. The connection is dialed lazily on the
// first store.
type IMAP struct {
	opts    IMAPOptions
	logger  *slog.Logger
	client  *imapclient.Client
	cleanup func()
}

func NewIMAP(opts IMAPOptions, logger *slog.Logger) (*IMAP, error) {
	if opts.Host == "" {
		return nil, fmt.Errorf("imap host is empty")
	}
	if opts.Port <= 0 {
		return nil, fmt.Errorf("imap port must be positive")
	}
	return &IMAP{opts: opts, logger: logger}, nil
}

func (s *IMAP) Store(ctx context.Context, a model.Artifact) error {
	if s.client == nil {
		client, cleanup, err := s.dial(ctx)
		if err != nil {
			return err
		}
		s.client = client
		s.cleanup = cleanup
	}

	if err := s.append(a); err != nil {
		return fmt.Errorf("append %s: %w", a.Name, err)
	}

	if s.logger != nil {
		s.logger.Debug("appended message", "name", a.Name, "target", s.targetFolder())
	}
	return nil
}

func (s *IMAP) Close() error {
	if s.cleanup != nil {
		s.cleanup()
	}
	return nil
}

func (s *IMAP) dial(ctx context.Context) (*imapclient.Client, func(), error) {
	address := net.JoinHostPort(s.opts.Host, strconv.Itoa(s.opts.Port))
	options := &imapclient.Options{}

	if s.opts.UseTLS {
		options.TLSConfig = &tls.Config{
			ServerName:         s.opts.Host,
			InsecureSkipVerify: s.opts.InsecureSkipVerify,
		}
	}

	var (
		client *imapclient.Client
		err    error
	)
	if s.opts.UseTLS {
		client, err = imapclient.DialTLS(address, options)
	} else {
		client, err = imapclient.DialInsecure(address, options)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("dial imap %s: %w", address, err)
	}

	if err := client.Login(s.opts.Username, s.opts.Password).Wait(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("imap login failed: %w", err)
	}

	if err := s.ensureMailbox(client); err != nil {
		_ = client.Close()
		return nil, nil, err
	}

	if s.logger != nil {
		s.logger.Debug("imap connection established", "address", address, "user", s.opts.Username, "target", s.targetFolder(), "tls", s.opts.UseTLS)
	}

	stopClose := context.AfterFunc(ctx, func() {
		_ = client.Close()
	})

	cleanup := func() {
		stopClose()
		if ctx.Err() == nil {
			if err := client.Logout().Wait(); err != nil && s.logger != nil {
				s.logger.Warn("imap logout failed", "err", err)
			}
		}
		if err := client.Close(); err != nil && s.logger != nil {
			s.logger.Debug("imap connection closed", "err", err)
		}
	}

	return client, cleanup, nil
}

func (s *IMAP) append(a model.Artifact) error {
	var opts *imapv2.AppendOptions
	if !a.Date.IsZero() {
		opts = &imapv2.AppendOptions{Time: a.Date}
	}

	cmd := s.client.Append(s.targetFolder(), int64(len(a.Data)), opts)

	remaining := a.Data
	for len(remaining) > 0 {
		n, err := cmd.Write(remaining)
		if err != nil {
			_ = cmd.Close()
			return fmt.Errorf("append write: %w", err)
		}
		if n == 0 {
			_ = cmd.Close()
			return fmt.Errorf("append write: wrote 0 bytes")
		}
		remaining = remaining[n:]
	}

	if err := cmd.Close(); err != nil {
		return fmt.Errorf("append close: %w", err)
	}
	if _, err := cmd.Wait(); err != nil {
		return fmt.Errorf("append wait: %w", err)
	}
	return nil
}

func (s *IMAP) targetFolder() string {
	if s.opts.TargetFolder == "" {
		return "INBOX"
	}
	return s.opts.TargetFolder
}

func (s *IMAP) ensureMailbox(client *imapclient.Client) error {
	target := s.targetFolder()
	if err := client.Create(target, nil).Wait(); err != nil {
		var respErr *imapv2.Error
		if errors.As(err, &respErr) && respErr.Code == imapv2.ResponseCodeAlreadyExists {
			if s.logger != nil {
				s.logger.Debug("imap mailbox already exists", "mailbox", target)
			}
			return nil
		}
		return fmt.Errorf("ensure mailbox %s: %w", target, err)
	}

	if s.logger != nil {
		s.logger.Info("imap mailbox created", "mailbox", target)
	}
	return nil
}
