package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveOutput_Markdown(t *testing.T) {
	out := ResolveOutput{
		Title:              "Launch post",
		Summary:            "Draft the launch blog post",
		IsEstimated:        true,
		BlogOutline:        []string{"Headline", "FAQ"},
		NextFifteenMinutes: []string{"Write the headline"},
		DoneCriteria:       "Outline approved by the team lead",
	}

	md := out.Markdown()

	assert.Contains(t, md, "# Launch post\n")
	assert.Contains(t, md, "> Draft the launch blog post")
	assert.Contains(t, md, "_Estimated")
	assert.Contains(t, md, "## Blog outline\n\n1. Headline\n2. FAQ\n")
	assert.Contains(t, md, "## Next 15 minutes\n\n1. Write the headline\n")
	assert.Contains(t, md, "## Done when\n\nOutline approved by the team lead\n")
	assert.NotContains(t, md, "Checklist")
}

func TestResolveOutput_CopyText(t *testing.T) {
	out := ResolveOutput{
		Title:        "Vendor follow-up",
		ChatMessages: []string{"Hi, any update on the quote?"},
		DoneCriteria: "Quote received",
	}

	assert.Equal(t,
		"Vendor follow-up\n\n[Chat messages]\n- Hi, any update on the quote?\n\n[Done when]\nQuote received",
		out.CopyText(),
	)
}

func TestResolveType_IsValid(t *testing.T) {
	for _, rt := range ResolveTypes() {
		assert.True(t, rt.IsValid(), rt)
	}
	assert.False(t, ResolveType("poem").IsValid())
}
