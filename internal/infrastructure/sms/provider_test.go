package sms

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-registration-api/internal/config"
	"github.com/go-registration-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider_SelectsByConfig(t *testing.T) {
	p, err := NewProvider(&config.Config{SMSProvider: "twilio"})
	require.NoError(t, err)
	assert.Equal(t, "twilio", p.Name())

	p, err = NewProvider(&config.Config{SMSProvider: "mock"})
	require.NoError(t, err)
	assert.Equal(t, "mock", p.Name())
}

func TestNewProvider_UnknownFailsClosed(t *testing.T) {
	_, err := NewProvider(&config.Config{SMSProvider: "pigeon"})
	assert.ErrorIs(t, err, domain.ErrConfig)
}

func TestTwilio_MissingCredentialsFailClosed(t *testing.T) {
	tw := NewTwilio(&config.Config{})
	err := tw.Send(context.Background(), "+15551234567", "hello")
	assert.ErrorIs(t, err, domain.ErrConfig)
	assert.NotErrorIs(t, err, domain.ErrDelivery)
}

func TestTwilio_Non201IsDeliveryError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"invalid number"}`))
	}))
	defer srv.Close()

	tw := NewTwilio(&config.Config{TwilioSID: "sid", TwilioToken: "tok", TwilioFrom: "+15550000000"})
	tw.client = srv.Client()
	tw.endpoint = srv.URL

	err := tw.Send(context.Background(), "+15551234567", "hello")
	assert.ErrorIs(t, err, domain.ErrDelivery)
	assert.Contains(t, err.Error(), "invalid number")
}

func TestTwilio_SendsFormAndAcceptsOn201(t *testing.T) {
	var gotForm map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		user, _, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "sid", user)
		gotForm = map[string]string{
			"From": r.PostFormValue("From"),
			"To":   r.PostFormValue("To"),
			"Body": r.PostFormValue("Body"),
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	tw := NewTwilio(&config.Config{TwilioSID: "sid", TwilioToken: "tok", TwilioFrom: "+15550000000"})
	tw.client = srv.Client()
	tw.endpoint = srv.URL

	require.NoError(t, tw.Send(context.Background(), "+15551234567", "your code is 123456"))
	assert.Equal(t, "+15550000000", gotForm["From"])
	assert.Equal(t, "+15551234567", gotForm["To"])
	assert.Equal(t, "your code is 123456", gotForm["Body"])
}

func TestMock_AlwaysSucceeds(t *testing.T) {
	m := NewMock()
	assert.NoError(t, m.Send(context.Background(), "+15551234567", "hello"))
}
