package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/whisperbox/whisperbox-api/internal/core/domain"
	"github.com/whisperbox/whisperbox-api/internal/core/ports"
)

// MessageService accepts anonymous messages and manages recipients' inboxes.
type MessageService struct {
	accounts  ports.AccountRepository
	messages  ports.MessageRepository
	moderator ports.Moderator
	guard     ports.IdempotencyGuard
	failOpen  bool
	log       zerolog.Logger

	now func() time.Time
}

// NewMessageService wires the intake pipeline. guard may be nil. With
// failOpen set, a moderator fault stores the message as harmful instead of
// rejecting the submission.
func NewMessageService(
	accounts ports.AccountRepository,
	messages ports.MessageRepository,
	moderator ports.Moderator,
	guard ports.IdempotencyGuard,
	failOpen bool,
	log zerolog.Logger,
) *MessageService {
	return &MessageService{
		accounts:  accounts,
		messages:  messages,
		moderator: moderator,
		guard:     guard,
		failOpen:  failOpen,
		log:       log,
		now:       time.Now,
	}
}

// SubmitMessage runs lookup -> acceptance check -> moderation -> persist -> link.
func (s *MessageService) SubmitMessage(ctx context.Context, in ports.SubmitMessageInput) (_ *ports.SubmitMessageResult, err error) {
	acct, err := s.accounts.FindByUsername(ctx, in.RecipientUsername)
	if err != nil {
		if errors.Is(err, domain.ErrDocumentNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("submit message: %w", err)
	}
	if !acct.IsAcceptingMessages {
		return nil, domain.ErrNotAcceptingMessages
	}

	if in.IdempotencyKey != "" && s.guard != nil {
		key := acct.ID + ":" + in.IdempotencyKey
		first, gerr := s.guard.Claim(ctx, key)
		switch {
		case gerr != nil:
			s.log.Warn().Err(gerr).Str("recipient", acct.Username).Msg("idempotency check failed, processing anyway")
		case !first:
			s.log.Debug().Str("recipient", acct.Username).Msg("duplicate submission skipped")
			return &ports.SubmitMessageResult{Replayed: true}, nil
		default:
			defer func() {
				if err == nil {
					return
				}
				if rerr := s.guard.Release(context.WithoutCancel(ctx), key); rerr != nil {
					s.log.Warn().Err(rerr).Msg("failed to release idempotency key")
				}
			}()
		}
	}

	msg := &domain.Message{
		RecipientID: acct.ID,
		Content:     in.Content,
		CreatedAt:   s.now().UTC(),
	}

	harmful, err := s.moderate(ctx, in.Content)
	if err != nil {
		return nil, err
	}
	msg.IsHarmful = harmful

	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("submit message: store: %w", err)
	}

	if err := s.accounts.LinkMessage(ctx, acct.ID, msg.ID); err != nil {
		if derr := s.messages.Delete(context.WithoutCancel(ctx), msg.ID); derr != nil {
			s.log.Error().Err(derr).Str("message_id", msg.ID).Msg("unlinked message left for reconciler")
		}
		return nil, fmt.Errorf("submit message: link: %w", err)
	}

	s.log.Info().
		Str("recipient", acct.Username).
		Str("message_id", msg.ID).
		Bool("harmful", msg.IsHarmful).
		Msg("message accepted")

	return &ports.SubmitMessageResult{MessageID: msg.ID, IsHarmful: msg.IsHarmful}, nil
}

func (s *MessageService) moderate(ctx context.Context, content string) (bool, error) {
	verdict, err := s.moderator.Moderate(ctx, content)
	if err != nil {
		if s.failOpen {
			s.log.Warn().Err(err).Msg("moderation unavailable, storing message as harmful")
			return true, nil
		}
		s.log.Error().Err(err).Msg("moderation failed")
		return false, domain.ErrModerationFailed
	}
	return verdict.IsHarmful(), nil
}

// ListMessages returns the account's messages, newest first.
func (s *MessageService) ListMessages(ctx context.Context, accountID string) ([]*domain.Message, error) {
	acct, err := s.findAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if len(acct.MessageIDs) == 0 {
		return []*domain.Message{}, nil
	}

	msgs, err := s.messages.FindByIDs(ctx, acct.MessageIDs)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	domain.SortNewestFirst(msgs)
	return msgs, nil
}

// DeleteMessage removes the document before the reference. A failure in
// between leaves a dangling reference that reads skip and a retry clears.
func (s *MessageService) DeleteMessage(ctx context.Context, accountID, messageID string) error {
	acct, err := s.findAccount(ctx, accountID)
	if err != nil {
		return err
	}
	if !acct.HasMessage(messageID) {
		return domain.ErrMessageNotFound
	}

	if err := s.messages.Delete(ctx, messageID); err != nil && !errors.Is(err, domain.ErrDocumentNotFound) {
		return fmt.Errorf("delete message: %w", err)
	}

	removed, err := s.accounts.UnlinkMessage(ctx, accountID, messageID)
	if err != nil {
		return fmt.Errorf("delete message: unlink: %w", err)
	}
	if !removed {
		return domain.ErrMessageNotFound
	}
	return nil
}

func (s *MessageService) AcceptingMessages(ctx context.Context, accountID string) (bool, error) {
	acct, err := s.findAccount(ctx, accountID)
	if err != nil {
		return false, err
	}
	return acct.IsAcceptingMessages, nil
}

func (s *MessageService) SetAcceptingMessages(ctx context.Context, accountID string, accepting bool) error {
	if err := s.accounts.SetAcceptingMessages(ctx, accountID, accepting); err != nil {
		if errors.Is(err, domain.ErrDocumentNotFound) {
			return domain.ErrAccountNotFound
		}
		return fmt.Errorf("update acceptance: %w", err)
	}
	s.log.Info().Str("account_id", accountID).Bool("accepting", accepting).Msg("acceptance flag updated")
	return nil
}

func (s *MessageService) CountMessages(ctx context.Context) (int64, error) {
	return s.messages.Count(ctx)
}

func (s *MessageService) CountUsers(ctx context.Context) (int64, error) {
	return s.accounts.Count(ctx)
}

// RepairLink re-attaches an orphaned message, or deletes it when its
// recipient no longer exists.
func (s *MessageService) RepairLink(ctx context.Context, u domain.UnlinkedMessage) error {
	err := s.accounts.LinkMessage(ctx, u.RecipientID, u.MessageID)
	if errors.Is(err, domain.ErrDocumentNotFound) {
		s.log.Warn().Str("message_id", u.MessageID).Msg("recipient gone, dropping orphaned message")
		if derr := s.messages.Delete(ctx, u.MessageID); derr != nil && !errors.Is(derr, domain.ErrDocumentNotFound) {
			return fmt.Errorf("repair link: %w", derr)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("repair link: %w", err)
	}
	s.log.Info().Str("message_id", u.MessageID).Str("account_id", u.RecipientID).Msg("message relinked")
	return nil
}

func (s *MessageService) findAccount(ctx context.Context, accountID string) (*domain.Account, error) {
	acct, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, domain.ErrDocumentNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return acct, nil
}

var _ ports.MessageService = (*MessageService)(nil)
