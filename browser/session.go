package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/codeGROOVE-dev/retry"

	"telegram-parser/parser"
)

// Login form selectors for the Telegram Web "k" client.
const (
	loginButton   = "button.btn-primary"
	phoneInput    = "div.input-field.input-field-phone > div.input-field-input"
	captchaImage  = "img.captcha-image"
	codeInput     = "input.input-field"
	chatListReady = ".chat-list, div[data-peer-id]"
)

// CodePrompt asks the operator for the verification code Telegram sent to
// their phone. It is called at most once per login.
type CodePrompt func(ctx context.Context) (string, error)

// Session manages authentication against Telegram Web. The browser profile
// persists the logged-in state, so a successful login survives restarts and
// later runs skip the flow entirely.
type Session struct {
	page   *Page
	logger *slog.Logger
}

// NewSession creates a session manager over the browser's tab.
func NewSession(b *Browser, logger *slog.Logger) *Session {
	return &Session{page: b.Page(), logger: logger}
}

// IsAuthenticated reports whether the current page shows the authenticated
// chat list. Any failure to check reads as not authenticated.
func (s *Session) IsAuthenticated(ctx context.Context) bool {
	found, err := s.page.Exists(ctx, chatListReady)
	if err != nil {
		s.logger.Debug("authentication check failed", "error", err)
		return false
	}
	return found
}

// Login navigates to Telegram Web and, unless the persisted profile is
// already authenticated, walks the phone-number login flow: enter the phone,
// wait out a possible captcha, prompt the operator for the verification
// code, and poll until the chat list appears.
func (s *Session) Login(ctx context.Context, phone string, prompt CodePrompt) error {
	if err := s.page.Navigate(ctx, parser.BaseURL); err != nil {
		return fmt.Errorf("open telegram web: %w", err)
	}
	waitFor(ctx, 5*time.Second)

	if s.IsAuthenticated(ctx) {
		s.logger.Info("session already authenticated, skipping login")
		return nil
	}
	if phone == "" {
		return errors.New("not authenticated and no phone number configured")
	}

	s.logger.Info("starting login flow", "phone", phone)

	// The landing page may open on the QR view; switching to the phone form
	// is best effort because the client sometimes lands there directly.
	if err := s.page.Click(ctx, loginButton); err != nil {
		s.logger.Debug("phone login button not found, may already be at phone input", "error", err)
	}

	if err := s.page.WaitVisible(ctx, phoneInput, 10*time.Second); err != nil {
		return fmt.Errorf("phone input did not appear: %w", err)
	}
	if err := s.page.ClearText(ctx, phoneInput); err != nil {
		return err
	}
	if err := s.page.Click(ctx, phoneInput); err != nil {
		return err
	}
	if err := s.page.SendKeys(ctx, phoneInput, phone); err != nil {
		return fmt.Errorf("enter phone number: %w", err)
	}
	if err := s.page.Click(ctx, loginButton); err != nil {
		return fmt.Errorf("submit phone number: %w", err)
	}
	waitFor(ctx, 3*time.Second)

	if found, _ := s.page.Exists(ctx, captchaImage); found {
		s.logger.Warn("captcha detected, waiting for manual solve")
		waitFor(ctx, 30*time.Second)
	}

	if err := s.page.WaitVisible(ctx, codeInput, time.Minute); err != nil {
		return fmt.Errorf("verification code input did not appear: %w", err)
	}

	code, err := prompt(ctx)
	if err != nil {
		return fmt.Errorf("read verification code: %w", err)
	}
	if err := s.page.SendKeys(ctx, codeInput, code); err != nil {
		return fmt.Errorf("enter verification code: %w", err)
	}
	s.logger.Info("verification code entered, waiting for login to complete")

	err = retry.Do(
		func() error {
			if s.IsAuthenticated(ctx) {
				return nil
			}
			return errors.New("chat list not visible yet")
		},
		retry.Attempts(30),
		retry.Delay(time.Second),
		retry.MaxDelay(2*time.Second),
		retry.Context(ctx),
	)
	if err != nil {
		return fmt.Errorf("login did not complete: %w", err)
	}

	s.logger.Info("login successful")
	return nil
}

// waitFor pauses for d or until ctx is done.
func waitFor(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
