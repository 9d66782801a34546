package gateway

import (
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func newCallbackApp(t *testing.T) (*fiber.App, *paymentFixture) {
	t.Helper()
	f := newPaymentFixture(t)
	h := NewHandler(f.service, f.service.logger)

	app := fiber.New()
	app.Post("/payments/callback", h.Callback)
	app.Get("/payments/callback", h.CallbackGet)
	return app, f
}

func TestCallbackRejectsGet(t *testing.T) {
	app, _ := newCallbackApp(t)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/payments/callback", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusMethodNotAllowed {
		t.Fatalf("expected %d, got %d", fiber.StatusMethodNotAllowed, resp.StatusCode)
	}
}

func TestCallbackAlwaysRedirects(t *testing.T) {
	app, _ := newCallbackApp(t)

	form := url.Values{}
	form.Set("encResponse", "definitely-not-ciphertext")
	req := httptest.NewRequest(fiber.MethodPost, "/payments/callback", strings.NewReader(form.Encode()))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusSeeOther {
		t.Fatalf("expected 303, got %d", resp.StatusCode)
	}
	location := resp.Header.Get(fiber.HeaderLocation)
	if !strings.HasPrefix(location, "/payment/failure") {
		t.Fatalf("expected failure redirect, got %q", location)
	}
}
