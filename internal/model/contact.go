package model

import "time"

// ContactSubmission is a confirmed message in the admin inbox. Its ID is
// the token the visitor confirmed.
type ContactSubmission struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Message     string    `json:"message"`
	ProductName string    `json:"productName,omitempty"`
	ProductID   string    `json:"productId,omitempty"`
	SubmittedAt time.Time `json:"submittedAt"`
	Replied     bool      `json:"replied"`
}

// PendingContact is a submission waiting for the visitor to click the
// confirmation link. It expires with its kv key.
type PendingContact struct {
	Token       string     `json:"token"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Message     string     `json:"message"`
	ProductName string     `json:"productName,omitempty"`
	ProductID   string     `json:"productId,omitempty"`
	Locale      Locale     `json:"locale"`
	Confirmed   bool       `json:"confirmed"`
	CreatedAt   time.Time  `json:"createdAt"`
	ExpiresAt   time.Time  `json:"expiresAt"`
	ConfirmedAt *time.Time `json:"confirmedAt,omitempty"`
}

// Submission converts a confirmed pending contact into an inbox message.
func (p *PendingContact) Submission(at time.Time) ContactSubmission {
	return ContactSubmission{
		ID:          p.Token,
		Name:        p.Name,
		Email:       p.Email,
		Message:     p.Message,
		ProductName: p.ProductName,
		ProductID:   p.ProductID,
		SubmittedAt: at,
	}
}
