package ports

import (
	"context"

	"github.com/aretw0/becas/pkg/domain"
)

// SlotExtractor interprets the latest exchange of a conversation.
//
// Implementations return domain.ErrIntentMismatch (wrapped) when the utterance
// belongs to another flow and domain.ErrExtractionFormat (wrapped) when the
// underlying model output cannot be read. A readable answer without a
// criterion is domain.NoCriterion, not an error.
type SlotExtractor interface {
	// ExtractInitialCriteria harvests any criterion mentioned in an opening message.
	// Only domain.SelectCriterion and domain.NoCriterion are meaningful here.
	ExtractInitialCriteria(ctx context.Context, transcript string, vocab domain.Vocabulary) (domain.ExtractionResult, error)

	// ExtractCriterion interprets an answer while collecting. pending is the field
	// the assistant asked for and may be empty when every field is set.
	ExtractCriterion(ctx context.Context, transcript string, pending domain.Field, vocab domain.Vocabulary) (domain.ExtractionResult, error)

	// ExtractConfirmation interprets a yes/no answer to the confirmation question.
	ExtractConfirmation(ctx context.Context, transcript string) (domain.Confirmation, error)
}
