package messages

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/askdocs/internal/core/domain"
)

func TestAnswerReceived_FailureCarriesUserMessage(t *testing.T) {
	msg := AnswerReceived{Question: "q", Err: domain.ErrTimeout, Message: domain.UserMessage(domain.ErrTimeout, "")}

	assert.Nil(t, msg.Answer)
	assert.ErrorIs(t, msg.Err, domain.ErrTimeout)
	assert.Contains(t, msg.Message, "too long")
}

func TestViewType_String(t *testing.T) {
	tests := []struct {
		view ViewType
		want string
	}{
		{ViewChat, "chat"},
		{ViewHelp, "help"},
		{ViewType(-1), "unknown"},
		{ViewType(99), "unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.view.String(), "view %d", int(tt.view))
	}
}
