package mail

// EmailAddress is a Graph email address with an optional display name.
type EmailAddress struct {
	Name    string `json:"name,omitempty"`
	Address string `json:"address,omitempty"`
}

// Recipient wraps an email address the way Graph message resources do.
type Recipient struct {
	EmailAddress EmailAddress `json:"emailAddress"`
}

// ItemBody is a message body with its content type.
type ItemBody struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

// Message is a Graph mail message. Timestamps are kept as the RFC 3339
// strings Graph returns; they are displayed, never computed with.
type Message struct {
	ID               string      `json:"id,omitempty"`
	Subject          string      `json:"subject,omitempty"`
	From             *Recipient  `json:"from,omitempty"`
	ToRecipients     []Recipient `json:"toRecipients,omitempty"`
	ReceivedDateTime string      `json:"receivedDateTime,omitempty"`
	BodyPreview      string      `json:"bodyPreview,omitempty"`
	IsRead           *bool       `json:"isRead,omitempty"`
	Body             *ItemBody   `json:"body,omitempty"`
}

// listResponse is the single-page envelope Graph wraps collections in.
type listResponse struct {
	Value []Message `json:"value"`
}

// sendMailRequest is the body of POST /me/sendMail.
type sendMailRequest struct {
	Message draftMessage `json:"message"`
}

// draftMessage is the writable message shape used for drafts and sends.
type draftMessage struct {
	Subject      string      `json:"subject"`
	Body         ItemBody    `json:"body"`
	ToRecipients []Recipient `json:"toRecipients"`
}
