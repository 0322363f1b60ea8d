package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whisperbox/whisperbox-api/internal/core/domain"
	"github.com/whisperbox/whisperbox-api/internal/core/ports"
)

type messageFixture struct {
	svc       *MessageService
	accounts  *stubAccountRepo
	messages  *stubMessageRepo
	moderator *stubModerator
	guard     *stubGuard
	ana       *domain.Account
}

func newMessageFixture(failOpen bool) *messageFixture {
	f := &messageFixture{
		accounts:  newStubAccountRepo(),
		messages:  newStubMessageRepo(),
		moderator: &stubModerator{},
		guard:     newStubGuard(),
	}
	f.ana = f.accounts.add(&domain.Account{Username: "ana", Email: "ana@x.com", IsAcceptingMessages: true})
	f.svc = NewMessageService(f.accounts, f.messages, f.moderator, f.guard, failOpen, zerolog.Nop())
	return f
}

func score(v float64) *float64 { return &v }

func (f *messageFixture) submit(t *testing.T, content string) *ports.SubmitMessageResult {
	t.Helper()
	res, err := f.svc.SubmitMessage(context.Background(), ports.SubmitMessageInput{
		RecipientUsername: "ana",
		Content:           content,
	})
	require.NoError(t, err)
	return res
}

func TestSubmitMessage_StoresAndLinks(t *testing.T) {
	f := newMessageFixture(false)

	res := f.submit(t, "you are great")

	assert.False(t, res.IsHarmful)
	assert.NotEmpty(t, res.MessageID)
	acct, _ := f.accounts.FindByID(context.Background(), f.ana.ID)
	assert.Equal(t, []string{res.MessageID}, acct.MessageIDs)

	msgs, err := f.svc.ListMessages(context.Background(), f.ana.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "you are great", msgs[0].Content)
	assert.Equal(t, f.ana.ID, msgs[0].RecipientID)
}

func TestSubmitMessage_HarmfulIsStoredFlagged(t *testing.T) {
	tests := []struct {
		name    string
		verdict domain.ModerationVerdict
		want    bool
	}{
		{"all neutral", domain.ModerationVerdict{Categories: map[domain.ModerationCategory]domain.CategoryResult{
			"nsfw": {Label: "SAFE"}, "toxicity": {Label: "NEUTRAL"},
		}}, false},
		{"missing categories count as neutral", domain.ModerationVerdict{}, false},
		{"flagged overall", domain.ModerationVerdict{Flagged: true}, true},
		{"toxic label", domain.ModerationVerdict{Categories: map[domain.ModerationCategory]domain.CategoryResult{
			"toxicity": {Label: "TOXICITY", Score: score(0.97)},
		}}, true},
		{"nsfw label", domain.ModerationVerdict{Categories: map[domain.ModerationCategory]domain.CategoryResult{
			"nsfw": {Label: "UNSAFE"},
		}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newMessageFixture(false)
			f.moderator.verdict = tt.verdict

			res := f.submit(t, "some text")

			assert.Equal(t, tt.want, res.IsHarmful)
			msgs, _ := f.svc.ListMessages(context.Background(), f.ana.ID)
			require.Len(t, msgs, 1, "harmful messages are still delivered")
			assert.Equal(t, tt.want, msgs[0].IsHarmful)
		})
	}
}

func TestSubmitMessage_UnknownRecipient(t *testing.T) {
	f := newMessageFixture(false)

	_, err := f.svc.SubmitMessage(context.Background(), ports.SubmitMessageInput{RecipientUsername: "ghost", Content: "hi"})

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Zero(t, f.moderator.calls)
}

func TestSubmitMessage_NotAccepting(t *testing.T) {
	f := newMessageFixture(false)
	require.NoError(t, f.svc.SetAcceptingMessages(context.Background(), f.ana.ID, false))

	_, err := f.svc.SubmitMessage(context.Background(), ports.SubmitMessageInput{RecipientUsername: "ana", Content: "hi"})

	assert.ErrorIs(t, err, domain.ErrRejected)
	assert.Zero(t, f.moderator.calls, "moderation must not run for rejected recipients")
	n, _ := f.messages.Count(context.Background())
	assert.Zero(t, n)
}

func TestSubmitMessage_ModerationFault(t *testing.T) {
	t.Run("fail closed", func(t *testing.T) {
		f := newMessageFixture(false)
		f.moderator.err = errors.New("upstream 503")

		_, err := f.svc.SubmitMessage(context.Background(), ports.SubmitMessageInput{RecipientUsername: "ana", Content: "hi"})

		assert.ErrorIs(t, err, domain.ErrModeration)
		n, _ := f.messages.Count(context.Background())
		assert.Zero(t, n)
	})

	t.Run("fail open", func(t *testing.T) {
		f := newMessageFixture(true)
		f.moderator.err = errors.New("upstream 503")

		res := f.submit(t, "hi")

		assert.True(t, res.IsHarmful)
	})
}

func TestSubmitMessage_LinkFailureDeletesMessage(t *testing.T) {
	f := newMessageFixture(false)
	f.accounts.linkErr = errors.New("connection reset")

	_, err := f.svc.SubmitMessage(context.Background(), ports.SubmitMessageInput{RecipientUsername: "ana", Content: "hi"})

	require.Error(t, err)
	assert.Len(t, f.messages.deleted, 1)
	n, _ := f.messages.Count(context.Background())
	assert.Zero(t, n)
}

func TestSubmitMessage_IdempotencyKey(t *testing.T) {
	f := newMessageFixture(false)
	ctx := context.Background()
	in := ports.SubmitMessageInput{RecipientUsername: "ana", Content: "hi", IdempotencyKey: "k1"}

	first, err := f.svc.SubmitMessage(ctx, in)
	require.NoError(t, err)
	second, err := f.svc.SubmitMessage(ctx, in)
	require.NoError(t, err)

	assert.False(t, first.Replayed)
	assert.True(t, second.Replayed)
	n, _ := f.messages.Count(ctx)
	assert.EqualValues(t, 1, n)
}

func TestSubmitMessage_IdempotencyKeyReleasedOnFailure(t *testing.T) {
	f := newMessageFixture(false)
	ctx := context.Background()
	f.moderator.err = errors.New("timeout")
	in := ports.SubmitMessageInput{RecipientUsername: "ana", Content: "hi", IdempotencyKey: "k1"}

	_, err := f.svc.SubmitMessage(ctx, in)
	require.Error(t, err)
	assert.Equal(t, []string{f.ana.ID + ":k1"}, f.guard.released)

	f.moderator.err = nil
	res, err := f.svc.SubmitMessage(ctx, in)
	require.NoError(t, err)
	assert.False(t, res.Replayed)
}

func TestSubmitMessage_GuardErrorDoesNotBlock(t *testing.T) {
	f := newMessageFixture(false)
	f.guard.claimErr = errors.New("redis down")

	res, err := f.svc.SubmitMessage(context.Background(), ports.SubmitMessageInput{
		RecipientUsername: "ana", Content: "hi", IdempotencyKey: "k1",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, res.MessageID)
}

func TestListMessages_NewestFirst(t *testing.T) {
	f := newMessageFixture(false)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, content := range []string{"first", "second", "third"} {
		at := base.Add(time.Duration(i) * time.Minute)
		f.svc.now = func() time.Time { return at }
		f.submit(t, content)
	}

	msgs, err := f.svc.ListMessages(context.Background(), f.ana.ID)

	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "third", msgs[0].Content)
	assert.Equal(t, "first", msgs[2].Content)
}

func TestListMessages_EmptyInbox(t *testing.T) {
	f := newMessageFixture(false)

	msgs, err := f.svc.ListMessages(context.Background(), f.ana.ID)

	require.NoError(t, err)
	assert.NotNil(t, msgs)
	assert.Empty(t, msgs)
}

func TestDeleteMessage(t *testing.T) {
	f := newMessageFixture(false)
	ctx := context.Background()
	res := f.submit(t, "hi")

	require.NoError(t, f.svc.DeleteMessage(ctx, f.ana.ID, res.MessageID))

	msgs, _ := f.svc.ListMessages(ctx, f.ana.ID)
	assert.Empty(t, msgs)
	assert.ErrorIs(t, f.svc.DeleteMessage(ctx, f.ana.ID, res.MessageID), domain.ErrNotFound)
}

func TestDeleteMessage_StoreFailureIsRetryable(t *testing.T) {
	f := newMessageFixture(false)
	ctx := context.Background()
	res := f.submit(t, "hi")
	f.messages.deleteErrs = []error{errors.New("transient store error")}

	err := f.svc.DeleteMessage(ctx, f.ana.ID, res.MessageID)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrNotFound)

	acct, _ := f.accounts.FindByID(ctx, f.ana.ID)
	assert.True(t, acct.HasMessage(res.MessageID), "reference must survive a failed delete")

	require.NoError(t, f.svc.DeleteMessage(ctx, f.ana.ID, res.MessageID))
	msgs, _ := f.svc.ListMessages(ctx, f.ana.ID)
	assert.Empty(t, msgs)
	n, _ := f.messages.Count(ctx)
	assert.Zero(t, n, "no unreferenced document is left for the reconciler")
}

func TestDeleteMessage_DanglingReferenceIsCleared(t *testing.T) {
	f := newMessageFixture(false)
	ctx := context.Background()
	res := f.submit(t, "hi")
	require.NoError(t, f.messages.Delete(ctx, res.MessageID))

	require.NoError(t, f.svc.DeleteMessage(ctx, f.ana.ID, res.MessageID))

	acct, _ := f.accounts.FindByID(ctx, f.ana.ID)
	assert.False(t, acct.HasMessage(res.MessageID))
}

func TestDeleteMessage_OtherAccountsMessage(t *testing.T) {
	f := newMessageFixture(false)
	ctx := context.Background()
	bob := f.accounts.add(&domain.Account{Username: "bob", Email: "bob@x.com", IsAcceptingMessages: true})
	res := f.submit(t, "for ana")

	err := f.svc.DeleteMessage(ctx, bob.ID, res.MessageID)

	assert.ErrorIs(t, err, domain.ErrNotFound)
	n, _ := f.messages.Count(ctx)
	assert.EqualValues(t, 1, n)
}

func TestAcceptingMessagesToggle(t *testing.T) {
	f := newMessageFixture(false)
	ctx := context.Background()

	on, err := f.svc.AcceptingMessages(ctx, f.ana.ID)
	require.NoError(t, err)
	assert.True(t, on)

	require.NoError(t, f.svc.SetAcceptingMessages(ctx, f.ana.ID, false))
	on, _ = f.svc.AcceptingMessages(ctx, f.ana.ID)
	assert.False(t, on)

	assert.ErrorIs(t, f.svc.SetAcceptingMessages(ctx, "missing", true), domain.ErrNotFound)
	_, err = f.svc.AcceptingMessages(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCounts(t *testing.T) {
	f := newMessageFixture(false)
	ctx := context.Background()
	f.submit(t, "a")
	f.submit(t, "b")

	msgs, err := f.svc.CountMessages(ctx)
	require.NoError(t, err)
	users, err := f.svc.CountUsers(ctx)
	require.NoError(t, err)

	assert.EqualValues(t, 2, msgs)
	assert.EqualValues(t, 1, users)
}

func TestRepairLink(t *testing.T) {
	f := newMessageFixture(false)
	ctx := context.Background()
	orphan := &domain.Message{RecipientID: f.ana.ID, Content: "lost", CreatedAt: time.Now()}
	require.NoError(t, f.messages.Create(ctx, orphan))

	require.NoError(t, f.svc.RepairLink(ctx, domain.UnlinkedMessage{MessageID: orphan.ID, RecipientID: f.ana.ID}))

	acct, _ := f.accounts.FindByID(ctx, f.ana.ID)
	assert.True(t, acct.HasMessage(orphan.ID))
}

func TestRepairLink_RecipientGone(t *testing.T) {
	f := newMessageFixture(false)
	ctx := context.Background()
	orphan := &domain.Message{RecipientID: "deleted-account", Content: "lost", CreatedAt: time.Now()}
	require.NoError(t, f.messages.Create(ctx, orphan))

	require.NoError(t, f.svc.RepairLink(ctx, domain.UnlinkedMessage{MessageID: orphan.ID, RecipientID: "deleted-account"}))

	assert.Equal(t, []string{orphan.ID}, f.messages.deleted)
}
