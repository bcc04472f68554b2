package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestConversationPairKeyOrderIndependent(t *testing.T) {
	a := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	b := uuid.MustParse("22222222-2222-2222-2222-222222222222")

	assert.Equal(t, ConversationPairKey(a, b, nil), ConversationPairKey(b, a, nil))

	pid := uuid.MustParse("33333333-3333-3333-3333-333333333333")
	assert.Equal(t, ConversationPairKey(a, b, &pid), ConversationPairKey(b, a, &pid))
}

func TestConversationPairKeyScopesByProject(t *testing.T) {
	a := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	b := uuid.MustParse("22222222-2222-2222-2222-222222222222")
	pid := uuid.MustParse("33333333-3333-3333-3333-333333333333")

	general := ConversationPairKey(a, b, nil)
	scoped := ConversationPairKey(a, b, &pid)
	assert.NotEqual(t, general, scoped, "project-scoped thread is a different conversation")
}

func TestConversationOtherParticipantID(t *testing.T) {
	a := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	b := uuid.MustParse("22222222-2222-2222-2222-222222222222")
	stranger := uuid.MustParse("99999999-9999-9999-9999-999999999999")

	cv := Conversation{ParticipantOneID: a, ParticipantTwoID: b}

	other, ok := cv.OtherParticipantID(a)
	assert.True(t, ok)
	assert.Equal(t, b, other)

	other, ok = cv.OtherParticipantID(b)
	assert.True(t, ok)
	assert.Equal(t, a, other)

	_, ok = cv.OtherParticipantID(stranger)
	assert.False(t, ok)

	assert.True(t, cv.HasParticipant(a))
	assert.True(t, cv.HasParticipant(b))
	assert.False(t, cv.HasParticipant(stranger))
}

func TestConversationBeforeCreateFillsPairKey(t *testing.T) {
	a := uuid.MustParse("22222222-2222-2222-2222-222222222222")
	b := uuid.MustParse("11111111-1111-1111-1111-111111111111")

	cv := Conversation{ParticipantOneID: a, ParticipantTwoID: b}
	assert.NoError(t, cv.BeforeCreate(nil))
	assert.Equal(t, ConversationPairKey(b, a, nil), cv.PairKey)

	// an explicit key is never overwritten
	cv2 := Conversation{ParticipantOneID: a, ParticipantTwoID: b, PairKey: "preset"}
	assert.NoError(t, cv2.BeforeCreate(nil))
	assert.Equal(t, "preset", cv2.PairKey)
}

func TestMessageIsRead(t *testing.T) {
	m := Message{}
	assert.False(t, m.IsRead())

	now := time.Now()
	m.ReadAt = &now
	assert.True(t, m.IsRead())
}
