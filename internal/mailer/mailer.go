// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package mailer sends transactional notifications over SMTP. Messages are
// queued and delivered by background workers so request handlers never block
// on a mail server.
package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/thepilgrim/pilgrim-go/internal/model"
)

const (
	queueSize    = 100
	sendAttempts = 3
	retryDelay   = 5 * time.Second
)

// Message is one outbound email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// sendFunc delivers one message. Swappable in tests.
type sendFunc func(msg Message) error

// Config holds SMTP settings. An empty Host disables delivery: Enqueue
// becomes a logged no-op so callers need no nil checks.
type Config struct {
	Host    string
	Port    int
	User    string
	Pass    string
	From    string
	AdminTo string
	Workers int
}

// Mailer queues and delivers notification emails.
type Mailer struct {
	cfg     Config
	logger  *slog.Logger
	queue   chan Message
	send    sendFunc
	wg      sync.WaitGroup
	done    chan struct{}
	mu      sync.RWMutex
	running bool
}

// New creates a Mailer. Call Start to launch the delivery workers.
func New(cfg Config, logger *slog.Logger) *Mailer {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if logger == nil {
		logger = slog.Default()
	}
	m := &Mailer{
		cfg:    cfg,
		logger: logger,
		queue:  make(chan Message, queueSize),
		done:   make(chan struct{}),
	}
	m.send = m.smtpSend
	return m
}

// Enabled reports whether outbound mail is configured.
func (m *Mailer) Enabled() bool {
	return m.cfg.Host != "" && m.cfg.From != ""
}

// Start launches the delivery workers.
func (m *Mailer) Start(ctx context.Context) {
	m.mu.Lock()
	if m.running || !m.Enabled() {
		m.mu.Unlock()
		return
	}
	m.running = true
	m.mu.Unlock()

	m.logger.Info("starting mailer", "workers", m.cfg.Workers, "host", m.cfg.Host)
	for i := 0; i < m.cfg.Workers; i++ {
		m.wg.Add(1)
		go m.worker(ctx, i)
	}
}

// Stop drains in-flight deliveries and stops the workers.
func (m *Mailer) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	m.mu.Unlock()

	close(m.done)
	m.wg.Wait()
	m.logger.Info("mailer stopped")
}

// Enqueue queues a message for delivery. A full queue or a disabled mailer
// drops the message with a warning; notifications are best effort.
func (m *Mailer) Enqueue(msg Message) {
	m.mu.RLock()
	running := m.running
	m.mu.RUnlock()

	if !running {
		m.logger.Debug("mailer disabled, dropping message", "to", msg.To, "subject", msg.Subject)
		return
	}

	select {
	case m.queue <- msg:
	default:
		m.logger.Warn("mail queue full, dropping message", "to", msg.To, "subject", msg.Subject)
	}
}

// NotifyContactMessage emails the site operator about a new contact form
// submission.
func (m *Mailer) NotifyContactMessage(msg model.ContactMessage) {
	if m.cfg.AdminTo == "" {
		return
	}
	m.Enqueue(Message{
		To:      m.cfg.AdminTo,
		Subject: fmt.Sprintf("New contact message: %s", msg.Subject),
		Body: fmt.Sprintf("From: %s <%s>\n\n%s\n\nReceived %s",
			msg.Name, msg.Email, msg.Message, msg.CreatedAt.Format(time.RFC1123)),
	})
}

// SendReceipt emails the customer after their reservation is paid.
func (m *Mailer) SendReceipt(reservation model.Reservation, svc model.Service) {
	if reservation.CustomerEmail == "" {
		return
	}
	m.Enqueue(Message{
		To:      reservation.CustomerEmail,
		Subject: fmt.Sprintf("Payment received: %s", svc.Name),
		Body: fmt.Sprintf("Hi %s,\n\nWe received your payment of %.2f %s for %s.\nReservation reference: %d\n\nWe will be in touch shortly.",
			reservation.CustomerName,
			float64(reservation.AmountCents)/100,
			reservation.Currency,
			svc.Name,
			reservation.ID),
	})
}

func (m *Mailer) worker(ctx context.Context, id int) {
	defer m.wg.Done()

	for {
		select {
		case <-m.done:
			return
		case <-ctx.Done():
			return
		case msg := <-m.queue:
			m.deliver(msg, id)
		}
	}
}

// deliver retries transient failures with a fixed delay.
func (m *Mailer) deliver(msg Message, workerID int) {
	var err error
	for attempt := 1; attempt <= sendAttempts; attempt++ {
		if err = m.send(msg); err == nil {
			m.logger.Info("mail delivered", "to", msg.To, "subject", msg.Subject, "worker_id", workerID)
			return
		}
		m.logger.Warn("mail delivery failed",
			"to", msg.To, "attempt", attempt, "error", err)
		if attempt < sendAttempts {
			select {
			case <-m.done:
				return
			case <-time.After(retryDelay):
			}
		}
	}
	m.logger.Error("mail delivery abandoned", "to", msg.To, "subject", msg.Subject, "error", err)
}

func (m *Mailer) smtpSend(msg Message) error {
	gm := gomail.NewMessage()
	gm.SetHeader("From", m.cfg.From)
	gm.SetHeader("To", msg.To)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/plain", msg.Body)

	d := gomail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.User, m.cfg.Pass)
	return d.DialAndSend(gm)
}
