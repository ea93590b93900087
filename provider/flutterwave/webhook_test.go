package flutterwave

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walsatpay/walsatpay/engine"
)

func testGateway(name engine.Provider) *Gateway {
	return NewGateway(nil, Config{
		SecretKey:   "sk_test",
		WebhookHash: "verif-secret",
	}, name)
}

func TestParseWebhook_BadHash(t *testing.T) {
	g := testGateway(engine.FLUTTERWAVE)

	_, err := g.ParseWebhook([]byte(`{}`), "wrong")
	assert.True(t, errors.Is(err, engine.ErrAuthentication))

	_, err = g.ParseWebhook([]byte(`{}`), "")
	assert.True(t, errors.Is(err, engine.ErrAuthentication))
}

func TestParseWebhook_ChargeCompleted(t *testing.T) {
	g := testGateway(engine.FLUTTERWAVE)

	payload := `{"event":"charge.completed","data":{"id":1,"tx_ref":"pay-uuid-1","status":"successful"}}`
	ev, err := g.ParseWebhook([]byte(payload), "verif-secret")
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, engine.FLUTTERWAVE, ev.Provider)
	assert.Equal(t, "pay-uuid-1", ev.Ref)
	assert.Equal(t, "charge.completed.successful", ev.Type)
	assert.Equal(t, engine.EVENT_SUCCEEDED, ev.Kind)
}

func TestParseWebhook_ChargeFailed(t *testing.T) {
	g := testGateway(engine.FLUTTERWAVE)

	payload := `{"event":"charge.completed","data":{"id":1,"tx_ref":"pay-uuid-1","status":"failed","processor_response":"insufficient funds"}}`
	ev, err := g.ParseWebhook([]byte(payload), "verif-secret")
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, engine.EVENT_FAILED, ev.Kind)
	require.NotNil(t, ev.Reason)
	assert.Equal(t, "insufficient funds", *ev.Reason)
}

func TestParseWebhook_MpesaCarriesProviderName(t *testing.T) {
	g := testGateway(engine.MPESA)

	payload := `{"event":"charge.completed","data":{"id":1,"tx_ref":"pay-uuid-2","status":"successful"}}`
	ev, err := g.ParseWebhook([]byte(payload), "verif-secret")
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, engine.MPESA, ev.Provider)
}

func TestParseWebhook_Skips(t *testing.T) {
	g := testGateway(engine.FLUTTERWAVE)

	ev, err := g.ParseWebhook([]byte(`{"event":"transfer.completed","data":{"tx_ref":"x"}}`), "verif-secret")
	require.NoError(t, err)
	assert.Nil(t, ev)

	ev, err = g.ParseWebhook([]byte(`{"event":"charge.completed","data":{"tx_ref":"x","status":"pending"}}`), "verif-secret")
	require.NoError(t, err)
	assert.Nil(t, ev)
}

func TestParseWebhook_BadPayload(t *testing.T) {
	g := testGateway(engine.FLUTTERWAVE)

	_, err := g.ParseWebhook([]byte(`not json`), "verif-secret")
	assert.True(t, errors.Is(err, engine.ErrValidation))

	_, err = g.ParseWebhook([]byte(`{"event":"charge.completed","data":{"status":"successful"}}`), "verif-secret")
	assert.True(t, errors.Is(err, engine.ErrValidation))
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "500.00", formatAmount(50000))
	assert.Equal(t, "0.05", formatAmount(5))
	assert.Equal(t, "12.34", formatAmount(1234))
}
