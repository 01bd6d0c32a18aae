// Package notify sends transactional email about mess requests and orders.
package notify

import (
	"context"
	"fmt"
	"strings"

	"messmate/models"

	"github.com/keighl/postmark"
	"github.com/sirupsen/logrus"
)

type Notifier interface {
	MessRequestApproved(ctx context.Context, req models.MessRequest, mess models.Mess) error
	MessRequestRejected(ctx context.Context, req models.MessRequest) error
	OrderPlaced(ctx context.Context, to string, order models.Order) error
}

// Postmark delivers notifications through the Postmark API.
type Postmark struct {
	client *postmark.Client
	sender string
}

func NewPostmark(serverToken, accountToken, sender string) *Postmark {
	return &Postmark{client: postmark.NewClient(serverToken, accountToken), sender: sender}
}

func (p *Postmark) send(to, subject, html string) error {
	if to == "" {
		return nil
	}
	_, err := p.client.SendEmail(postmark.Email{
		From:     p.sender,
		To:       to,
		Subject:  subject,
		HtmlBody: html,
		TextBody: html,
		Tag:      "messmate",
	})
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func (p *Postmark) MessRequestApproved(_ context.Context, req models.MessRequest, mess models.Mess) error {
	subject, body := approvedMessage(req, mess)
	return p.send(req.Email, subject, body)
}

func (p *Postmark) MessRequestRejected(_ context.Context, req models.MessRequest) error {
	subject, body := rejectedMessage(req)
	return p.send(req.Email, subject, body)
}

func (p *Postmark) OrderPlaced(_ context.Context, to string, order models.Order) error {
	subject, body := orderMessage(order)
	return p.send(to, subject, body)
}

// Log writes notifications to the application log instead of sending them.
type Log struct {
	log *logrus.Logger
}

func NewLog(log *logrus.Logger) *Log {
	return &Log{log: log}
}

func (l *Log) MessRequestApproved(_ context.Context, req models.MessRequest, mess models.Mess) error {
	subject, _ := approvedMessage(req, mess)
	l.log.WithFields(logrus.Fields{"to": req.Email, "mess_id": mess.MessID}).Info(subject)
	return nil
}

func (l *Log) MessRequestRejected(_ context.Context, req models.MessRequest) error {
	subject, _ := rejectedMessage(req)
	l.log.WithFields(logrus.Fields{"to": req.Email, "request_id": req.ID.Hex()}).Info(subject)
	return nil
}

func (l *Log) OrderPlaced(_ context.Context, to string, order models.Order) error {
	subject, _ := orderMessage(order)
	l.log.WithFields(logrus.Fields{"to": to, "order_id": order.ID.Hex()}).Info(subject)
	return nil
}

func approvedMessage(req models.MessRequest, mess models.Mess) (string, string) {
	subject := fmt.Sprintf("%s is live on MessMate", mess.Name)
	body := fmt.Sprintf(
		"<strong>Congratulations!</strong><br><br>Your request for <strong>%s</strong> has been approved. Your mess id is <strong>%d</strong> and students can now order from you.",
		req.Name, mess.MessID,
	)
	return subject, body
}

func rejectedMessage(req models.MessRequest) (string, string) {
	subject := fmt.Sprintf("Update on your request for %s", req.Name)
	body := fmt.Sprintf("Your request to list <strong>%s</strong> was not approved.", req.Name)
	if req.Reason != "" {
		body += fmt.Sprintf("<br><br>Reason: %s", req.Reason)
	}
	return subject, body
}

func orderMessage(order models.Order) (string, string) {
	lines := make([]string, 0, len(order.Items))
	for _, item := range order.Items {
		lines = append(lines, fmt.Sprintf("%d x %s (%.2f)", item.Quantity, item.Name, item.Price))
	}
	subject := fmt.Sprintf("Your order from %s is confirmed", order.MessName)
	body := fmt.Sprintf(
		"<strong>Thank you for your order!</strong><br><br>Order %s<br>%s<br><br>Total: <strong>%.2f</strong>",
		order.ID.Hex(), strings.Join(lines, "<br>"), order.TotalPrice,
	)
	return subject, body
}
