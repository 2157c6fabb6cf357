package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/DanielTrujilloS/DafaMedicSistema/models"
)

type EmailService interface {
	Send(to, subject, body string) error
}

type smtpEmail struct {
	addr string
	from string
}

// NewEmailService returns an SMTP sender, or a logging stub when host is
// empty.
func NewEmailService(host, port, from string) EmailService {
	if host == "" {
		return logEmail{}
	}
	return &smtpEmail{addr: host + ":" + port, from: from}
}

func (s *smtpEmail) Send(to, subject, body string) error {
	msg := "From: " + s.from + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n" +
		body
	// local relays (MailHog, Mailpit) accept unauthenticated mail
	return smtp.SendMail(s.addr, nil, s.from, []string{to}, []byte(msg))
}

type logEmail struct{}

func (logEmail) Send(to, subject, _ string) error {
	slog.Info("Email not sent, SMTP disabled", "to", to, "subject", subject)
	return nil
}

// ConfirmationNotifier mails the order summary to the customer.
type ConfirmationNotifier struct {
	orders interface {
		GetOrder(ctx context.Context, id string) (*models.Order, error)
	}
	email EmailService
}

func NewConfirmationNotifier(orders *OrderService, email EmailService) *ConfirmationNotifier {
	return &ConfirmationNotifier{orders: orders, email: email}
}

func (n *ConfirmationNotifier) NotifyCreated(ctx context.Context, orderID string) error {
	order, err := n.orders.GetOrder(ctx, orderID)
	if err != nil {
		return fmt.Errorf("failed to load order %s: %w", orderID, err)
	}
	subject := fmt.Sprintf("Pedido %s confirmado", ShortOrderID(order.ID))
	return n.email.Send(order.Email, subject, ConfirmationBody(order))
}

func ShortOrderID(id string) string {
	if len(id) > 8 {
		id = id[:8]
	}
	return strings.ToUpper(id)
}

func ConfirmationBody(o *models.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hola %s,\n\nGracias por tu compra. Tu pedido %s fue registrado.\n\n", o.FullName, ShortOrderID(o.ID))
	for _, it := range o.Items {
		fmt.Fprintf(&b, "  %s x %d  %s\n", it.Name, it.Quantity, models.FormatMoney(it.SubtotalCents(), models.DefaultCurrency))
	}
	fmt.Fprintf(&b, "\nTotal: %s\n", models.FormatMoney(o.TotalCents, models.DefaultCurrency))
	fmt.Fprintf(&b, "Envío a: %s, %s %s\n", o.Address, o.City, o.PostalCode)
	return b.String()
}
