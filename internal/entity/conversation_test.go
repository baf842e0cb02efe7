package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectPairKey(t *testing.T) {
	assert.Equal(t, "alice:bob", DirectPairKey("alice", "bob"))
	assert.Equal(t, "alice:bob", DirectPairKey("bob", "alice"))
	assert.Equal(t, DirectPairKey("u1", "u2"), DirectPairKey("u2", "u1"))
}

func TestDirectSlots(t *testing.T) {
	slots := DirectSlots("bob", "alice")
	assert.Equal(t, SlotFirst, slots["alice"])
	assert.Equal(t, SlotSecond, slots["bob"])

	// Order of arguments must not matter
	assert.Equal(t, slots, DirectSlots("alice", "bob"))
}

func TestOtherMemberIds(t *testing.T) {
	members := []*ConversationMember{
		{UserId: "alice"},
		{UserId: "bob"},
		{UserId: "carol"},
	}

	others, err := OtherMemberIds(ConversationGroup, members, "bob")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"alice", "carol"}, others)

	direct := []*ConversationMember{{UserId: "alice"}, {UserId: "bob"}}
	others, err = OtherMemberIds(ConversationDirect, direct, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, others)
}

func TestOtherMemberIdsUnknownType(t *testing.T) {
	_, err := OtherMemberIds(99, nil, "alice")
	require.Error(t, err)
}
