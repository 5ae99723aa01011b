package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anjiri1684/appointment_reminder/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUltraMsgSendMessage(t *testing.T) {
	var gotPath, gotTo, gotBody, gotToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotPath = r.URL.Path
		gotTo = r.PostForm.Get("to")
		gotBody = r.PostForm.Get("body")
		gotToken = r.PostForm.Get("token")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"sent":"true"}`))
	}))
	defer srv.Close()

	s := NewUltraMsgService("instance1", "tok", zerolog.Nop())
	s.BaseURL = srv.URL

	status, err := s.SendMessage(context.Background(), "+254700000001", "hello")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "/instance1/messages/chat", gotPath)
	assert.Equal(t, "+254700000001", gotTo)
	assert.Equal(t, "hello", gotBody)
	assert.Equal(t, "tok", gotToken)
}

func TestUltraMsgNon200IsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid token", http.StatusUnauthorized)
	}))
	defer srv.Close()

	s := NewUltraMsgService("instance1", "bad", zerolog.Nop())
	s.BaseURL = srv.URL

	status, err := s.SendMessage(context.Background(), "+254700000001", "hello")
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, status)

	_, err = s.SendMessage(context.Background(), " ", "hello")
	require.Error(t, err)
}

func TestBrevoSendEmail(t *testing.T) {
	var got brevoPayload
	var apiKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey = r.Header.Get("api-key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	s := NewBrevoService("key", "clinic@example.com", "Clinic", zerolog.Nop())
	s.URL = srv.URL

	require.NoError(t, s.SendEmail(context.Background(), "", "amina@example.com", "Hi", "<p>x</p>"))
	assert.Equal(t, "key", apiKey)
	assert.Equal(t, "Hi", got.Subject)
	require.Len(t, got.To, 1)
	assert.Equal(t, "amina", got.To[0]["name"])
	assert.Equal(t, "clinic@example.com", got.Sender["email"])
}

func TestBrevoRejectsBadRecipientAndStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	s := NewBrevoService("key", "clinic@example.com", "Clinic", zerolog.Nop())
	s.URL = srv.URL

	assert.Error(t, s.SendEmail(context.Background(), "x", "not-an-email", "Hi", "body"))
	assert.Error(t, s.SendEmail(context.Background(), "x", "x@example.com", "Hi", "body"))
}

type fakeMessages struct {
	calls int
	err   error
}

func (f *fakeMessages) SendMessage(_ context.Context, _, _ string) (int, error) {
	f.calls++
	if f.err != nil {
		return http.StatusInternalServerError, f.err
	}
	return http.StatusOK, nil
}

type fakeEmail struct {
	calls int
	err   error
	body  string
}

func (f *fakeEmail) SendEmail(_ context.Context, _, _, _, htmlContent string) error {
	f.calls++
	f.body = htmlContent
	return f.err
}

func TestDispatchSendsBothChannels(t *testing.T) {
	m, e := &fakeMessages{}, &fakeEmail{}
	d := NewDispatcher(m, e, zerolog.Nop())
	b := models.Booking{ID: uuid.New(), Name: "Amina", Phone: "+254700000001", Email: "amina@example.com"}

	out := d.Dispatch(context.Background(), b, Message{Subject: "Appointment Reminder", Text: "see you <soon>"})
	assert.True(t, out.Delivered())
	assert.True(t, out.EmailSent)
	assert.Equal(t, 1, m.calls)
	assert.Equal(t, 1, e.calls)
	assert.Contains(t, e.body, "see you &lt;soon&gt;")
}

func TestDispatchSkipsEmailWithoutAddress(t *testing.T) {
	m, e := &fakeMessages{}, &fakeEmail{}
	d := NewDispatcher(m, e, zerolog.Nop())

	out := d.Dispatch(context.Background(), models.Booking{Phone: "+1"}, Message{Text: "x"})
	assert.True(t, out.Delivered())
	assert.False(t, out.EmailSent)
	assert.Equal(t, 0, e.calls)

	out = NewDispatcher(m, nil, zerolog.Nop()).Dispatch(context.Background(), models.Booking{Phone: "+1", Email: "a@b.c"}, Message{Text: "x"})
	assert.True(t, out.Delivered())
	assert.False(t, out.EmailSent)
}

func TestDispatchEmailFailureDoesNotBlockMessage(t *testing.T) {
	m, e := &fakeMessages{}, &fakeEmail{err: errors.New("smtp down")}
	d := NewDispatcher(m, e, zerolog.Nop())

	out := d.Dispatch(context.Background(), models.Booking{Phone: "+1", Email: "a@b.c"}, Message{Text: "x"})
	assert.True(t, out.Delivered())
	assert.Error(t, out.EmailErr)
}

func TestDispatchMessageFailureSkipsEmail(t *testing.T) {
	m, e := &fakeMessages{err: errors.New("provider down")}, &fakeEmail{}
	d := NewDispatcher(m, e, zerolog.Nop())

	out := d.Dispatch(context.Background(), models.Booking{Phone: "+1", Email: "a@b.c"}, Message{Text: "x"})
	assert.False(t, out.Delivered())
	assert.Equal(t, http.StatusInternalServerError, out.MessageStatus)
	assert.False(t, out.EmailSent)
	assert.Equal(t, 0, e.calls)
}
