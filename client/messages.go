package client

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"net/url"
	"strconv"

	"commhub/collection"
	"commhub/models"
)

// ListMessages fetches one page of the messages collection.
func (c *Client) ListMessages(q collection.Query) (models.Page[models.Message], error) {
	var env listEnvelope[models.Message]
	if err := c.getJSON("/messages", q.Values(), &env); err != nil {
		return models.Page[models.Message]{}, err
	}
	return models.NewPage(env.Results, q.Page(), q.PageSize(), env.Count), nil
}

// GetMessage fetches a single message.
func (c *Client) GetMessage(id int64) (models.Message, error) {
	var msg models.Message
	if err := c.getJSON(fmt.Sprintf("/messages/%d", id), nil, &msg); err != nil {
		return models.Message{}, err
	}
	return msg, nil
}

// SubmitMessage persists a composed draft in one atomic multipart call: the
// backend stores the record, its recipients and its attachments together or
// not at all. A zero draft ID creates; otherwise the existing record is
// updated.
func (c *Client) SubmitMessage(draft models.Draft, status models.MessageStatus, existingID int64) (models.Message, error) {
	body, contentType, err := encodeMessageForm(draft, status)
	if err != nil {
		return models.Message{}, err
	}

	var msg models.Message
	if existingID > 0 {
		err = c.do("PUT", fmt.Sprintf("/messages/%d", existingID), nil, contentType, body, &msg)
	} else {
		err = c.do("POST", "/messages", nil, contentType, body, &msg)
	}
	if err != nil {
		return models.Message{}, err
	}
	return msg, nil
}

// DeleteMessage deletes a message.
func (c *Client) DeleteMessage(id int64) error {
	return c.delete(fmt.Sprintf("/messages/%d", id))
}

// MarkMessageRead records a read receipt for the viewer.
func (c *Client) MarkMessageRead(id int64) error {
	return c.do("POST", fmt.Sprintf("/messages/%d/read", id), nil, "", nil, nil)
}

// UnreadCount returns the viewer's unread message count.
func (c *Client) UnreadCount() (int, error) {
	var out struct {
		Count int `json:"count"`
	}
	if err := c.getJSON("/messages/unread-count", nil, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

// MessageTypes returns the administrator-defined message categories.
func (c *Client) MessageTypes() ([]models.MessageType, error) {
	var env listEnvelope[models.MessageType]
	if err := c.getJSON("/message-types", nil, &env); err != nil {
		return nil, err
	}
	return env.Results, nil
}

// encodeMessageForm builds the multipart payload: scalar fields, one entry
// per recipient id tagged by kind, and one binary part per staged attachment.
func encodeMessageForm(draft models.Draft, status models.MessageStatus) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := map[string]string{
		"subject":      draft.Subject,
		"content":      draft.Content,
		"message_type": strconv.FormatInt(draft.MessageTypeID, 10),
		"status":       string(status),
	}
	if draft.ParentMessageID > 0 {
		fields["parent_message"] = strconv.FormatInt(draft.ParentMessageID, 10)
	}
	if draft.IsForward {
		fields["is_forward"] = "true"
	}
	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return nil, "", fmt.Errorf("encoding field %s: %w", name, err)
		}
	}

	for _, r := range draft.Recipients {
		field := "recipient_users"
		if r.Kind == models.KindGroup {
			field = "recipient_groups"
		}
		if err := w.WriteField(field, strconv.FormatInt(r.ID, 10)); err != nil {
			return nil, "", fmt.Errorf("encoding recipient: %w", err)
		}
	}

	for _, a := range draft.Attachments {
		if !a.Staged() {
			continue
		}
		part, err := w.CreatePart(attachmentHeader(a))
		if err != nil {
			return nil, "", fmt.Errorf("encoding attachment %s: %w", a.OriginalFilename, err)
		}
		if _, err := part.Write(a.Content); err != nil {
			return nil, "", fmt.Errorf("encoding attachment %s: %w", a.OriginalFilename, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

func attachmentHeader(a models.Attachment) textproto.MIMEHeader {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="attachments"; filename="%s"`, url.PathEscape(a.OriginalFilename)))
	contentType := a.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)
	return h
}
