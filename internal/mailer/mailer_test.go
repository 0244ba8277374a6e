// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package mailer

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/thepilgrim/pilgrim-go/internal/model"
)

type capture struct {
	mu   sync.Mutex
	sent []Message
}

func (c *capture) send(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, msg)
	return nil
}

func (c *capture) wait(t *testing.T, n int) []Message {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		c.mu.Lock()
		got := len(c.sent)
		c.mu.Unlock()
		if got >= n {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.sent) < n {
		t.Fatalf("delivered %d messages, want %d", len(c.sent), n)
	}
	return append([]Message(nil), c.sent...)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestMailer(t *testing.T) (*Mailer, *capture) {
	t.Helper()
	m := New(Config{
		Host:    "smtp.example.com",
		From:    "noreply@example.com",
		AdminTo: "ops@example.com",
	}, testLogger())
	c := &capture{}
	m.send = c.send
	m.Start(context.Background())
	t.Cleanup(m.Stop)
	return m, c
}

func TestMailerDisabledDropsSilently(t *testing.T) {
	m := New(Config{}, testLogger())
	m.Start(context.Background())

	if m.Enabled() {
		t.Error("mailer with no host should be disabled")
	}
	// Must not panic or block.
	m.Enqueue(Message{To: "x@example.com", Subject: "s", Body: "b"})
	m.Stop()
}

func TestMailerDelivers(t *testing.T) {
	m, c := newTestMailer(t)

	m.Enqueue(Message{To: "a@example.com", Subject: "hello", Body: "world"})
	sent := c.wait(t, 1)

	if sent[0].To != "a@example.com" || sent[0].Subject != "hello" {
		t.Errorf("sent = %+v", sent[0])
	}
}

func TestNotifyContactMessage(t *testing.T) {
	m, c := newTestMailer(t)

	m.NotifyContactMessage(model.ContactMessage{
		Name:      "Ada",
		Email:     "ada@example.com",
		Subject:   "Relocation question",
		Message:   "How long does the visa take?",
		CreatedAt: time.Now(),
	})

	sent := c.wait(t, 1)
	if sent[0].To != "ops@example.com" {
		t.Errorf("To = %q, want admin address", sent[0].To)
	}
	if !strings.Contains(sent[0].Subject, "Relocation question") {
		t.Errorf("Subject = %q", sent[0].Subject)
	}
	if !strings.Contains(sent[0].Body, "ada@example.com") {
		t.Errorf("Body missing sender address: %q", sent[0].Body)
	}
}

func TestSendReceipt(t *testing.T) {
	m, c := newTestMailer(t)

	m.SendReceipt(model.Reservation{
		ID:            7,
		CustomerName:  "Ada",
		CustomerEmail: "ada@example.com",
		AmountCents:   24900,
		Currency:      "eur",
	}, model.Service{Name: "Premium Relocation"})

	sent := c.wait(t, 1)
	if sent[0].To != "ada@example.com" {
		t.Errorf("To = %q", sent[0].To)
	}
	if !strings.Contains(sent[0].Body, "249.00") {
		t.Errorf("Body missing amount: %q", sent[0].Body)
	}
	if !strings.Contains(sent[0].Body, "Premium Relocation") {
		t.Errorf("Body missing service name: %q", sent[0].Body)
	}
}

func TestSendReceiptSkipsEmptyEmail(t *testing.T) {
	m, c := newTestMailer(t)

	m.SendReceipt(model.Reservation{ID: 1}, model.Service{Name: "Basic"})
	m.Enqueue(Message{To: "marker@example.com", Subject: "marker", Body: "x"})

	sent := c.wait(t, 1)
	if sent[0].To != "marker@example.com" {
		t.Errorf("unexpected delivery: %+v", sent[0])
	}
}
