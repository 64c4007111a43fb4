// Command agrosession-demo exercises the session coordinator against a live
// backend from a terminal: login, MFA verification with resumable digit
// entry, and an authenticated profile fetch.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/term"

	agroSession "github.com/HarvestERP/agroSession"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "agrosession-demo:", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	baseURL := envOr("AGROSESSION_API_URL", "http://localhost:8080")
	storePath := envOr("AGROSESSION_STORE", "agrosession.db")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	coordinator, err := agroSession.New().
		WithBaseURL(baseURL).
		WithBoltPath(storePath).
		WithNavigator(func(url string) { fmt.Println("-> session ended, continue at", url) }).
		WithAdvisory(func(message string) { fmt.Println("!!", message) }).
		WithMetricsEnabled(true).
		Build()
	if err != nil {
		return err
	}
	defer coordinator.Close()

	reader := bufio.NewReader(os.Stdin)

	// A challenge cached by a previous run resumes with its digit progress
	// and its original deadline.
	if v, err := coordinator.StartVerification(ctx, nil); err == nil {
		fmt.Println("resuming cached verification for", v.EmailHint())
		if err := runVerification(ctx, reader, v); err != nil {
			return err
		}
		return showProfile(ctx, coordinator)
	}

	if _, err := coordinator.Credentials(ctx); err == nil {
		fmt.Println("already signed in")
		return showProfile(ctx, coordinator)
	}

	fmt.Print("email: ")
	identifier, err := reader.ReadString('\n')
	if err != nil {
		return err
	}
	fmt.Print("password: ")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return err
	}

	result, err := coordinator.Login(ctx, strings.TrimSpace(identifier), string(password))
	if err != nil {
		return err
	}
	if result.MFARequired {
		v, err := coordinator.StartVerification(ctx, &agroSession.ChallengeDescriptor{
			MFAToken:  result.MFAToken,
			UserID:    result.UserID,
			EmailHint: result.EmailHint,
		})
		if err != nil {
			return err
		}
		if err := runVerification(ctx, reader, v); err != nil {
			return err
		}
	}
	return showProfile(ctx, coordinator)
}

// runVerification drives the challenge loop: digits (or a full paste) fill
// the slots, "backup" toggles modes, "cancel" abandons, enter submits.
func runVerification(ctx context.Context, reader *bufio.Reader, v *agroSession.Verification) error {
	v.Run(ctx)
	defer v.Close()

	for {
		switch v.State() {
		case agroSession.StateExpired:
			return errors.New("challenge expired, sign in again")
		case agroSession.StateCanceled:
			return errors.New("verification canceled")
		case agroSession.StateSuccess:
			return nil
		}

		if remaining := v.LockoutRemaining(); remaining > 0 {
			fmt.Printf("locked out, retry in %s\n", remaining.Round(time.Second))
		}
		fmt.Printf("[%s left] code %s > ", v.ExpiresIn().Round(time.Second), renderDigits(v.Digits()))
		line, err := reader.ReadString('\n')
		if err != nil {
			return err
		}
		line = strings.TrimSpace(line)

		switch {
		case line == "cancel":
			return v.Cancel(ctx)
		case line == "backup":
			v.ToggleMode()
			if v.Mode() == agroSession.ModeBackup {
				fmt.Print("backup code: ")
				code, err := reader.ReadString('\n')
				if err != nil {
					return err
				}
				v.SetBackupCode(strings.TrimSpace(code))
			}
		case line != "":
			v.Paste(line)
		}

		if !v.CanSubmit() {
			continue
		}
		result, err := v.Submit(ctx)
		switch {
		case err == nil:
			if result.Warning != "" {
				fmt.Println("!!", result.Warning)
				if result.AcknowledgeRequired {
					fmt.Print("press enter to continue: ")
					_, _ = reader.ReadString('\n')
				}
				v.Acknowledge()
			}
			fmt.Println("verified")
			return nil
		case errors.Is(err, agroSession.ErrChallengeLocked):
			fmt.Printf("locked out, retry in %s\n", v.LockoutRemaining().Round(time.Second))
		case errors.Is(err, agroSession.ErrChallengeExpired):
			return errors.New("challenge expired, sign in again")
		default:
			fmt.Println("!!", err)
		}
	}
}

func showProfile(ctx context.Context, coordinator *agroSession.Coordinator) error {
	profile, err := coordinator.Profile(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("signed in as %s <%s>\n", profile.Name, profile.Email)
	return nil
}

func renderDigits(digits [agroSession.DigitCount]byte) string {
	out := make([]byte, agroSession.DigitCount)
	for i, d := range digits {
		if d == 0 {
			out[i] = '_'
		} else {
			out[i] = d
		}
	}
	return string(out)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
