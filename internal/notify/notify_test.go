package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/invoice-tracker/constants"
	"github.com/joseph-ayodele/invoice-tracker/internal/repository"
)

type captured struct {
	subject string
	data    []byte
}

type fakePublisher struct {
	msgs []captured
	err  error
}

func (f *fakePublisher) Publish(subject string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, captured{subject, data})
	return nil
}

type recorder struct {
	got []Message
	err error
}

func (r *recorder) Notify(_ context.Context, m Message) error {
	r.got = append(r.got, m)
	return r.err
}

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestNATSPublisherSubjectAndBody(t *testing.T) {
	pub := &fakePublisher{}
	p := NewNATSPublisher(pub, "notifications.invoices.", quiet())
	inv, actor, rcpt := uuid.New(), uuid.New(), uuid.New()

	err := p.Notify(context.Background(), Message{
		Type: constants.NotifyInvoiceApproved, InvoiceID: inv, ActorID: actor,
		Recipients: []uuid.UUID{rcpt}, Text: "Your invoice INV-1 has been approved",
	})
	require.NoError(t, err)
	require.Len(t, pub.msgs, 1)
	assert.Equal(t, "notifications.invoices.invoice_approved", pub.msgs[0].subject)

	var ev Event
	require.NoError(t, json.Unmarshal(pub.msgs[0].data, &ev))
	assert.Equal(t, inv.String(), ev.ResourceID)
	assert.Equal(t, []string{rcpt.String()}, ev.Recipients)
	assert.Equal(t, "Your invoice INV-1 has been approved", ev.Message)
}

func TestMultiContinuesPastFailures(t *testing.T) {
	bad := &recorder{err: errors.New("down")}
	good := &recorder{}
	m := NewMulti(quiet(), bad, nil, good)

	err := m.Notify(context.Background(), Message{Type: constants.NotifyInvoiceSubmitted, Recipients: []uuid.UUID{uuid.New()}})
	assert.Error(t, err)
	assert.Len(t, good.got, 1)

	require.NoError(t, m.Notify(context.Background(), Message{Type: constants.NotifyInvoiceSubmitted}))
	assert.Len(t, good.got, 1, "no recipients, nothing sent")
}

func TestStoreNotifierWritesOneRowPerRecipient(t *testing.T) {
	ctx := context.Background()
	db, err := repository.OpenSQLite(ctx, "file:"+uuid.NewString()+"?mode=memory&cache=shared", quiet())
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, db.EnsureSchema(ctx))
	repo := repository.NewNotificationRepository(db, quiet())

	a, b := uuid.New(), uuid.New()
	s := NewStoreNotifier(repo)
	require.NoError(t, s.Notify(ctx, Message{
		Type: constants.NotifyInvoiceSubmitted, InvoiceID: uuid.New(),
		Recipients: []uuid.UUID{a, b}, Text: "New invoice INV-1 submitted by site for approval",
	}))

	for _, r := range []uuid.UUID{a, b} {
		got, err := repo.ListForRecipient(ctx, r, true)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, constants.NotifyInvoiceSubmitted, got[0].Type)
	}
}
