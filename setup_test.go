package agroSession

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

func setupHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/mfa/setup", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK,
			`{"secret":"JBSWY3DPEHPK3PXP","qrCode":"data:image/png;base64,abc"}`)
	})
	mux.HandleFunc("/auth/mfa/setup/confirm", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK,
			`{"backupCodes":["AAAA-1111","BBBB-2222","CCCC-3333"]}`)
	})
	return mux
}

func TestSetupBeginAndResume(t *testing.T) {
	c, clock, cleanup := newTestCoordinator(t, setupHandler())
	defer cleanup()
	seedCredentials(t, c, "access", "refresh")

	session, err := c.BeginTOTPSetup(context.Background())
	if err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	if session.Secret != "JBSWY3DPEHPK3PXP" {
		t.Fatalf("session %+v", session)
	}
	if want := clock.Now().Add(10 * time.Minute); !session.ExpiresAt.Equal(want) {
		t.Fatalf("expires at %s, want %s", session.ExpiresAt, want)
	}

	// The same secret resumes after a teardown; no second provisioning call.
	resumed, err := c.ResumeTOTPSetup(context.Background())
	if err != nil {
		t.Fatalf("resume failed: %v", err)
	}
	if resumed.Secret != session.Secret || resumed.QRCodeDataURL != session.QRCodeDataURL {
		t.Fatalf("resumed %+v, want original session", resumed)
	}
}

func TestSetupConfirmReturnsBackupCodesAndClearsCache(t *testing.T) {
	c, _, cleanup := newTestCoordinator(t, setupHandler())
	defer cleanup()
	seedCredentials(t, c, "access", "refresh")

	if _, err := c.BeginTOTPSetup(context.Background()); err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	codes, err := c.ConfirmTOTPSetup(context.Background(), "123456")
	if err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if len(codes) != 3 || codes[0] != "AAAA-1111" {
		t.Fatalf("codes %v", codes)
	}
	if _, err := c.ResumeTOTPSetup(context.Background()); !errors.Is(err, ErrSetupNotFound) {
		t.Fatalf("error %v, want ErrSetupNotFound after confirm", err)
	}
}

func TestSetupCancel(t *testing.T) {
	c, _, cleanup := newTestCoordinator(t, setupHandler())
	defer cleanup()
	seedCredentials(t, c, "access", "refresh")

	if _, err := c.BeginTOTPSetup(context.Background()); err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	if err := c.CancelTOTPSetup(context.Background()); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if _, err := c.ResumeTOTPSetup(context.Background()); !errors.Is(err, ErrSetupNotFound) {
		t.Fatalf("error %v, want ErrSetupNotFound after cancel", err)
	}
}

func TestSetupResumeWithoutSession(t *testing.T) {
	c, _, cleanup := newTestCoordinator(t, setupHandler())
	defer cleanup()

	if _, err := c.ResumeTOTPSetup(context.Background()); !errors.Is(err, ErrSetupNotFound) {
		t.Fatalf("error %v, want ErrSetupNotFound", err)
	}
}
