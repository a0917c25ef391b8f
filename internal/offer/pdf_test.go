package offer_test

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/offer-bot/internal/infra/billing"
	"github.com/Spok95/offer-bot/internal/offer"
)

func TestDecodePDF(t *testing.T) {
	raw := []byte("%PDF-1.7")
	b64 := base64.StdEncoding.EncodeToString(raw)

	f, err := offer.DecodePDF(b64, "offer.pdf")
	require.NoError(t, err)
	assert.Equal(t, "offer.pdf", f.Name)
	assert.Equal(t, "application/pdf", f.MIME)
	assert.Equal(t, raw, f.Data)

	f, err = offer.DecodePDF("data:application/pdf;base64,"+b64, " ")
	require.NoError(t, err)
	assert.Equal(t, "offer.pdf", f.Name)
	assert.Equal(t, raw, f.Data)

	_, err = offer.DecodePDF("%%%", "offer.pdf")
	assert.Error(t, err)
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "INN invalid", offer.ErrorMessage(&billing.APIError{Status: 400, Message: "INN invalid"}))
	assert.Equal(t, offer.FallbackErrorMessage, offer.ErrorMessage(&billing.APIError{Status: 500}))
	assert.Equal(t, offer.FallbackErrorMessage, offer.ErrorMessage(assert.AnError))
}
