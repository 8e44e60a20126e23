package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"purchase-archiver/internal/gmail"
)

func TestQualifies(t *testing.T) {
	seen := NewProcessedSet([]string{"done-1"})

	tests := []struct {
		name     string
		msg      gmail.Message
		expected bool
	}{
		{
			name: "Qualifying message passes",
			msg: gmail.Message{
				ID:      "new-1",
				From:    "Amazon.com <auto-confirm@amazon.com>",
				Subject: `Your Amazon.com order of "Lamp".`,
			},
			expected: true,
		},
		{
			name: "Already processed rejected regardless of content",
			msg: gmail.Message{
				ID:      "done-1",
				From:    "auto-confirm@amazon.com",
				Subject: "Ordered: lamp",
			},
			expected: false,
		},
		{
			name: "Sender mismatch rejected regardless of subject",
			msg: gmail.Message{
				ID:      "new-2",
				From:    "offers@retailer.example",
				Subject: "You ordered a lamp",
			},
			expected: false,
		},
		{
			name: "Subject keyword missing rejected",
			msg: gmail.Message{
				ID:      "new-3",
				From:    "auto-confirm@amazon.com",
				Subject: "Your refund has been issued",
			},
			expected: false,
		},
		{
			name: "Sender match is case insensitive",
			msg: gmail.Message{
				ID:      "new-4",
				From:    "AUTO-CONFIRM@AMAZON.COM",
				Subject: "ORDERED: lamp",
			},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Qualifies(tt.msg, seen, "auto-confirm@amazon.com", "ordered")
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestProcessedSet(t *testing.T) {
	set := NewProcessedSet([]string{"b", "a", "", "a"})

	assert.Equal(t, 2, set.Len())
	assert.True(t, set.Has("a"))
	assert.False(t, set.Has("c"))

	set.Add("c")
	assert.True(t, set.Has("c"))
	assert.Equal(t, []string{"a", "b", "c"}, set.IDs())
}
