package qrcode

import (
	"fmt"
	"image"
	_ "image/jpeg" // decoders for uploaded images
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"time"

	pp "github.com/Frontware/promptpay"
	"github.com/makiuchi-d/gozxing"
	zxingqr "github.com/makiuchi-d/gozxing/qrcode"
	"github.com/pkg/errors"
	"github.com/yeqown/go-qrcode/v2"
	"github.com/yeqown/go-qrcode/writer/standard"
)

// MaxContentLength bounds the text accepted by Encode
const MaxContentLength = 1024

// promptPayIDRegex accepts phone numbers, national ids and e-wallet ids
var promptPayIDRegex = regexp.MustCompile(`^(\d{10}|\d{13}|ewallet-\d+)$`)

// ValidPromptPayID reports whether id can receive PromptPay payments
func ValidPromptPayID(id string) bool {
	return promptPayIDRegex.MatchString(id)
}

// Encode renders content as a PNG QR code
func Encode(content string) ([]byte, error) {
	if content == "" {
		return nil, errors.New("QR content is empty")
	}
	if len(content) > MaxContentLength {
		return nil, errors.Errorf("QR content is longer than %d bytes", MaxContentLength)
	}

	qrc, err := qrcode.New(content)
	if err != nil {
		return nil, errors.Wrap(err, "error creating QR code")
	}

	filename := filepath.Join(os.TempDir(), fmt.Sprintf("qr_%d.png", time.Now().UnixNano()))
	fileWriter, err := standard.New(filename, standard.WithBuiltinImageEncoder(standard.PNG_FORMAT))
	if err != nil {
		return nil, errors.Wrap(err, "error creating file writer")
	}
	defer os.Remove(filename)

	if err = qrc.Save(fileWriter); err != nil {
		return nil, errors.Wrap(err, "error saving QR code")
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "error reading QR image")
	}
	return data, nil
}

// PromptPay renders a PromptPay payment QR code for amount baht
func PromptPay(promptPayID string, amount float64) ([]byte, error) {
	if !ValidPromptPayID(promptPayID) {
		return nil, errors.Errorf("invalid PromptPay ID %q", promptPayID)
	}
	if amount <= 0 {
		return nil, errors.New("amount must be positive")
	}

	payment := pp.PromptPay{PromptPayID: promptPayID, Amount: amount}
	qrcodeStr, err := payment.Gen()
	if err != nil {
		return nil, errors.Wrap(err, "error generating PromptPay data")
	}
	return Encode(qrcodeStr)
}

// Decode reads the first QR code found in a PNG or JPEG image
func Decode(r io.Reader) (string, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return "", errors.Wrap(err, "error decoding image")
	}

	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", errors.Wrap(err, "error preparing image")
	}

	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}
	result, err := zxingqr.NewQRCodeReader().Decode(bmp, hints)
	if err != nil {
		return "", errors.Wrap(err, "no QR code found")
	}
	return result.GetText(), nil
}
