package handlers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"

	"github.com/oatsaysai/guild-dispatch/internal/command"
	"github.com/oatsaysai/guild-dispatch/internal/utils"
	"github.com/oatsaysai/guild-dispatch/pkg/qrcode"
)

// maxAttachmentSize bounds the images readqr downloads
const maxAttachmentSize = 8 << 20

func pngFile(name string, data []byte) *discordgo.File {
	return &discordgo.File{Name: name, ContentType: "image/png", Reader: bytes.NewReader(data)}
}

// QR renders the given text as a QR code image
func (h *Handlers) QR(ctx context.Context, inv command.Invocation, args command.Args) error {
	text := args.Get("text")
	if text == "" {
		return replyError(ctx, inv, "Tell me what to encode, for example "+utils.CodeSpan(h.prefixFor(ctx, inv)+"qr https://example.com"))
	}

	img, err := qrcode.Encode(text)
	if err != nil {
		h.log.WithError(err).Debug("QR encode failed")
		return replyError(ctx, inv, fmt.Sprintf("Could not create a QR code for that text (at most %d bytes).", qrcode.MaxContentLength))
	}
	return inv.Respond(ctx, command.Response{Files: []*discordgo.File{pngFile("qr.png", img)}})
}

// PromptPay renders a PromptPay payment QR code
func (h *Handlers) PromptPay(ctx context.Context, inv command.Invocation, args command.Args) error {
	id := args.Get("id")
	amount, ok := args.Int("amount")
	if id == "" || !ok {
		return replyError(ctx, inv, "Usage: "+utils.CodeSpan(h.prefixFor(ctx, inv)+"promptpay <promptpay_id> <amount>"))
	}
	if !qrcode.ValidPromptPayID(id) {
		return replyError(ctx, inv, "Invalid PromptPay ID. Use a 10 digit phone number, a 13 digit national ID or an ID starting with 'ewallet-'.")
	}
	if amount <= 0 {
		return replyError(ctx, inv, "The amount must be greater than zero.")
	}

	img, err := qrcode.PromptPay(id, float64(amount))
	if err != nil {
		return errors.Wrap(err, "generate PromptPay QR")
	}
	return inv.Respond(ctx, command.Response{
		Content: fmt.Sprintf("💸 Scan to pay **%s THB** to %s", utils.FormatNumberWithCommas(float64(amount)), utils.CodeSpan(id)),
		Files:   []*discordgo.File{pngFile("promptpay.png", img)},
	})
}

// ReadQR decodes a QR code attached to the triggering message or the message it replies to
func (h *Handlers) ReadQR(ctx context.Context, inv command.Invocation, args command.Args) error {
	msg, ok := inv.AsMessage()
	if !ok {
		return replyError(ctx, inv, "Attach an image to a message to use this command.")
	}

	att := imageAttachment(msg)
	if att == nil && msg.ReferencedMessage != nil {
		att = imageAttachment(msg.ReferencedMessage)
	}
	if att == nil {
		return replyError(ctx, inv, "Attach an image, or reply to a message with one.")
	}
	if att.Size > maxAttachmentSize {
		return replyError(ctx, inv, "That image is too large.")
	}

	body, err := h.fetch(ctx, att.URL)
	if err != nil {
		return errors.Wrapf(err, "fetch attachment %s", att.ID)
	}
	defer body.Close()

	text, err := qrcode.Decode(io.LimitReader(body, maxAttachmentSize))
	if err != nil {
		h.log.WithError(err).WithField("attachment", att.ID).Debug("QR decode failed")
		return replyError(ctx, inv, "I could not find a QR code in that image.")
	}
	return reply(ctx, inv, "📷 "+utils.CodeSpan(utils.Truncate(text, 1900)))
}

func imageAttachment(msg *discordgo.Message) *discordgo.MessageAttachment {
	for _, att := range msg.Attachments {
		if strings.HasPrefix(att.ContentType, "image/") {
			return att
		}
		switch strings.ToLower(path.Ext(att.Filename)) {
		case ".png", ".jpg", ".jpeg":
			return att
		}
	}
	return nil
}
